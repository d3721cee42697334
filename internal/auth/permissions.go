package auth

// Permission constants form a flat set, a permission never implies another.
const (
	// ManageCategories allows creating, editing and deleting categories.
	ManageCategories = "manage_categories"
	// ManagePortfolios allows creating, editing and deleting portfolios.
	ManagePortfolios = "manage_portfolios"
	// ManageMedia allows creating, editing and deleting media entries.
	ManageMedia = "manage_media"
	// ManageUsers allows managing users and roles. It also reveals the roles
	// and permissions of other users, see CanViewElevatedStatus.
	ManageUsers = "manage_users"
	// ManageBrands allows creating, editing and deleting brands.
	ManageBrands = "manage_brands"
	// ManageProducts allows creating, editing and deleting products.
	ManageProducts = "manage_products"
	// ViewDashboard allows opening the admin dashboard.
	ViewDashboard = "view_dashboard"
	// ViewAuditLogs allows reading the audit log.
	ViewAuditLogs = "view_audit_logs"
)

var descriptions = map[string]string{ //nolint:gochecknoglobals
	ManageCategories: "Create, edit and delete categories",
	ManagePortfolios: "Create, edit and delete portfolios",
	ManageMedia:      "Create, edit and delete media",
	ManageUsers:      "Manage users and roles",
	ManageBrands:     "Create, edit and delete brands",
	ManageProducts:   "Create, edit and delete products",
	ViewDashboard:    "Open the admin dashboard",
	ViewAuditLogs:    "Read the audit log",
}

// All returns every permission in a stable order.
func All() []string {
	return []string{
		ViewDashboard,
		ManageProducts,
		ManageCategories,
		ManageBrands,
		ManagePortfolios,
		ManageMedia,
		ManageUsers,
		ViewAuditLogs,
	}
}

// Description returns the human readable description of perm.
func Description(perm string) string {
	return descriptions[perm]
}

// IsKnown reports whether perm is one of the permission constants.
func IsKnown(perm string) bool {
	_, ok := descriptions[perm]

	return ok
}
