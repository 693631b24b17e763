// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import (
	"log/slog"
	"sort"

	"github.com/slatebridge/slatebridge/internal/hook"
	"github.com/slatebridge/slatebridge/internal/settings"
)

// MenuItemKind tells the host how to render a menu item.
type MenuItemKind string

const (
	MenuCommand      MenuItemKind = "command"
	MenuContextBegin MenuItemKind = "context_begin"
	MenuContextEnd   MenuItemKind = "context_end"
	MenuSeparator    MenuItemKind = "separator"
)

// MenuItem is one entry of the toolkit menu. The host pulls the full
// list and performs the native menu construction itself.
type MenuItem struct {
	Kind    MenuItemKind
	Title   string
	Command string // command name for MenuCommand items
	Group   string // app group, empty for root-level items
}

// buildMenu assembles the menu: a context submenu first (titled after
// the current context, holding context commands), favourites promoted to
// the root, then the remaining commands grouped by app instance.
func buildMenu(ctx hook.Context, cmds []Command, favs []settings.Favourite) []MenuItem {
	items := []MenuItem{{Kind: MenuContextBegin, Title: ctx.String()}}

	for _, c := range cmds {
		if c.ContextMenu {
			items = append(items, MenuItem{Kind: MenuCommand, Title: c.Title, Command: c.Name})
		}
	}
	items = append(items, MenuItem{Kind: MenuContextEnd})

	favourite := make(map[string]bool, len(favs))
	for _, f := range favs {
		found := false
		for _, c := range cmds {
			if c.Name == f.Name && c.Group == f.AppInstance {
				favourite[c.Name] = true
				found = true
				break
			}
		}
		if !found {
			slog.Warn("unknown menu favourite, skipping",
				"app_instance", f.AppInstance,
				"name", f.Name)
		}
	}

	for _, c := range cmds {
		if favourite[c.Name] {
			items = append(items, MenuItem{Kind: MenuCommand, Title: c.Title, Command: c.Name})
		}
	}
	if len(favourite) > 0 {
		items = append(items, MenuItem{Kind: MenuSeparator})
	}

	// Remaining commands, grouped by app instance, groups alphabetical.
	grouped := make(map[string][]Command)
	for _, c := range cmds {
		if c.ContextMenu || favourite[c.Name] {
			continue
		}
		grouped[c.Group] = append(grouped[c.Group], c)
	}
	groups := make([]string, 0, len(grouped))
	for g := range grouped {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, g := range groups {
		for _, c := range grouped[g] {
			items = append(items, MenuItem{Kind: MenuCommand, Title: c.Title, Command: c.Name, Group: g})
		}
	}

	return items
}
