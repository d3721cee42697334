// Package auth provides the edge filter of the web application.
//
// The filter runs before any handler and only looks at session presence:
//   - protected paths without session are redirected to the login page
//     (programmatic requests get a 401)
//   - the login page with a valid session redirects to the admin home
//   - protected requests with a valid session get a fresh cookie, so the
//     session expires after a day of inactivity
//
// API routes, metrics, health checks and static assets are never filtered.
//
// Usage:
//
//	app.Use(session.Middleware(codec))
//	app.Use(authmiddleware.New(authmiddleware.Config{Codec: codec, Secure: true}))
package auth
