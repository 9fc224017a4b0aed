package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// MenuItem captures one sidebar link.
type MenuItem struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Route    string `json:"route"`
	Icon     string `json:"icon,omitempty"`
	Position int    `json:"position"`
	Logout   bool   `json:"logout,omitempty"`
}

// MenuBuilder ensures sidebar entries exist in a host navigation shell.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuFor derives the ordered sidebar for role. Routes are section anchors and
// the logout entry always comes last.
func MenuFor(registry *Registry, role Role) []MenuItem {
	var items []MenuItem
	var logout *MenuItem
	for _, id := range registry.VisibleFor(role) {
		def, ok := registry.Section(id)
		if !ok {
			continue
		}
		item := MenuItem{
			ID:     def.ID,
			Label:  def.Title,
			Route:  "#" + def.ID,
			Icon:   def.Icon,
			Logout: def.Logout,
		}
		if def.Logout {
			if logout == nil {
				logout = &item
			}
			continue
		}
		items = append(items, item)
	}
	if logout != nil {
		items = append(items, *logout)
	}
	for i := range items {
		items[i].Position = i + 1
	}
	return items
}

// SeedMenu pushes the role sidebar into a host shell under menuCode.
func SeedMenu(ctx context.Context, builder MenuBuilder, menuCode string, registry *Registry, role Role) error {
	if builder == nil {
		return nil
	}
	if menuCode == "" {
		menuCode = "dashboard." + string(role)
	}
	var seedErr error
	for _, item := range MenuFor(registry, role) {
		if err := builder.EnsureMenuItem(ctx, menuCode, item); err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("seed menu item %s: %w", item.ID, err))
		}
	}
	return seedErr
}
