// Package nav derives the visible menu tree from the static menu definition
// and the current user's role.
package nav

import "github.com/pilotdeck/pilotdeck/internal/session"

// Icon is an opaque identifier resolved by the rendering layer.
type Icon string

// Item is a menu tree node. A node with Children and no Href is a group
// header. Nil Roles means visible to every role.
type Item struct {
	Name     string
	Href     string
	Icon     Icon
	Children []Item
	Roles    []session.Role
}

// Filter returns the subtree of items visible to role, preserving sibling
// order. An unknown role sees nothing. A group header whose children all
// filter away is dropped with them.
func Filter(items []Item, role session.Role) []Item {
	if role == "" {
		return nil
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !allowed(item, role) {
			continue
		}
		if item.Children != nil {
			children := Filter(item.Children, role)
			if len(children) == 0 && item.Href == "" {
				continue
			}
			item.Children = children
		}
		out = append(out, item)
	}
	return out
}

// ForRole filters the application menu for role.
func ForRole(role session.Role) []Item {
	return Filter(Menu, role)
}

func allowed(item Item, role session.Role) bool {
	if item.Roles == nil {
		return true
	}
	for _, r := range item.Roles {
		if r == role {
			return true
		}
	}
	return false
}
