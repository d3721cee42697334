package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// AdminPath is the root of the protected area.
	AdminPath = "/admin"

	// ErrNilEnvFatalLogMsg is used if app or the handler environment is nil.
	ErrNilEnvFatalLogMsg = "app or handler environment is nil"
)
