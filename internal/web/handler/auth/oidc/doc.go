// Package oidc provides the OpenID Connect sign in routes.
//
// The login route stores a random state in a short lived cookie and redirects
// to the identity provider. The callback compares the returned state with the
// cookie, exchanges the code and signs the mirrored local user in.
package oidc
