// Package navigation provides the admin menu and breadcrumbs.
package navigation

import (
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Sections of the admin area.
const (
	SectionDashboard = "dashboard"
	SectionCatalog   = "catalog"
	SectionContent   = "content"
	SectionAdmin     = "administration"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// MenuItem is one entry of the admin menu.
type MenuItem struct {
	Title      string
	Section    string
	Page       string
	URL        string
	Permission string
}

// menu lists every entry, Menu filters it per user.
//
//nolint:gochecknoglobals
var menu = []MenuItem{
	{Title: "Dashboard", Section: SectionDashboard, Page: "dashboard", URL: "/admin", Permission: auth.ViewDashboard},
	{Title: "Products", Section: SectionCatalog, Page: "products", URL: "/admin#products", Permission: auth.ManageProducts},
	{Title: "Categories", Section: SectionCatalog, Page: "categories", URL: "/admin#categories", Permission: auth.ManageCategories},
	{Title: "Brands", Section: SectionCatalog, Page: "brands", URL: "/admin#brands", Permission: auth.ManageBrands},
	{Title: "Portfolios", Section: SectionContent, Page: "portfolios", URL: "/admin#portfolios", Permission: auth.ManagePortfolios},
	{Title: "Media", Section: SectionContent, Page: "media", URL: "/admin#media", Permission: auth.ManageMedia},
	{Title: "Users", Section: SectionAdmin, Page: "users", URL: "/admin#users", Permission: auth.ManageUsers},
	{Title: "Roles", Section: SectionAdmin, Page: "roles", URL: "/admin#roles", Permission: auth.ManageUsers},
	{Title: "Audit log", Section: SectionAdmin, Page: "audit", URL: "/admin/audit", Permission: auth.ViewAuditLogs},
}

// Menu returns the entries u may open, in display order.
func Menu(u *session.User) []MenuItem {
	items := make([]MenuItem, 0, len(menu))

	if u == nil {
		return items
	}

	for _, item := range menu {
		if u.Has(item.Permission) {
			items = append(items, item)
		}
	}

	return items
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
	Menu          []MenuItem
}

// NewContext creates a new navigation context with the menu of u.
func NewContext(pageTitle, activeSection, activePage string, u *session.User) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
		Menu:          Menu(u),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}

// Sections returns the sections of the menu in display order without duplicates.
func (c *Context) Sections() []string {
	var out []string

	for _, item := range c.Menu {
		if len(out) == 0 || out[len(out)-1] != item.Section {
			out = append(out, item.Section)
		}
	}

	return out
}
