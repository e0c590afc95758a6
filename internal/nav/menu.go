package nav

import "github.com/pilotdeck/pilotdeck/internal/session"

// Menu is the static application menu.
var Menu = []Item{
	{
		Name:  "Dashboard",
		Href:  "/admin/dashboard",
		Icon:  "layout-dashboard",
		Roles: []session.Role{session.RoleAdmin, session.RoleUser},
	},
	{
		Name:  "Master Data",
		Icon:  "package",
		Roles: []session.Role{session.RoleAdmin, session.RoleUser},
		Children: []Item{
			{Name: "Products", Href: "/admin/products", Icon: "package", Roles: []session.Role{session.RoleAdmin}},
			{Name: "Users", Href: "/admin/users", Icon: "users", Roles: []session.Role{session.RoleAdmin, session.RoleUser}},
		},
	},
	{
		Name:  "Transactions",
		Href:  "/admin/transactions",
		Icon:  "shopping-cart",
		Roles: []session.Role{session.RoleAdmin, session.RoleUser},
	},
	{
		Name:  "Analytics",
		Href:  "/admin/analytics",
		Icon:  "line-chart",
		Roles: []session.Role{session.RoleAdmin},
	},
	{
		Name:  "Settings",
		Href:  "/admin/settings",
		Icon:  "settings",
		Roles: []session.Role{session.RoleAdmin},
	},
}
