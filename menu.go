package statusicon

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	MenuInterface  = "com.canonical.dbusmenu"
	menuObjectPath = dbus.ObjectPath("/MenuBar")
)

// MenuItem is a single entry of a context menu.
type MenuItem struct {
	// Label shown by the host. Ignored for separators.
	Label string

	// Separator renders the entry as a separator line.
	Separator bool

	// Disabled entries are shown but cannot be activated.
	Disabled bool

	// OnClicked runs when the user activates the entry.
	OnClicked func()
}

// Menu is an optional context menu capability. When attached via
// [Options.Menu], the item exports it as a com.canonical.dbusmenu
// sub-object and advertises its path through the Menu property, which
// is how shells discover it.
//
// Layout node IDs are positional: the root is 0 and entries are
// numbered from 1 in order.
type Menu struct {
	mu       sync.Mutex
	items    []MenuItem
	revision uint32
}

// NewMenu returns a menu with the given entries.
func NewMenu(items ...MenuItem) *Menu {
	return &Menu{items: items, revision: 1}
}

// SetItems replaces the menu entries. Hosts pick the change up through
// the LayoutUpdated signal emitted on the next export; menus attached
// to a registered item are re-read lazily on open.
func (m *Menu) SetItems(items ...MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = items
	m.revision++
}

func (m *Menu) export(c conn) error {
	if err := c.Export(m, menuObjectPath, MenuInterface); err != nil {
		return err
	}

	return c.Export(m, menuObjectPath, propertiesInterface)
}

func (m *Menu) unexport(c conn) {
	c.Export(nil, menuObjectPath, MenuInterface)
	c.Export(nil, menuObjectPath, propertiesInterface)
}

// menuNode is the layout tuple of com.canonical.dbusmenu, signature
// (ia{sv}av).
type menuNode struct {
	ID         int32
	Properties map[string]dbus.Variant
	Children   []dbus.Variant
}

func (item MenuItem) properties() map[string]dbus.Variant {
	if item.Separator {
		return map[string]dbus.Variant{
			"type": dbus.MakeVariant("separator"),
		}
	}

	return map[string]dbus.Variant{
		"label":   dbus.MakeVariant(item.Label),
		"enabled": dbus.MakeVariant(!item.Disabled),
		"visible": dbus.MakeVariant(true),
	}
}

// layoutLocked builds the full layout tree. Callers hold m.mu.
func (m *Menu) layoutLocked() menuNode {
	children := make([]dbus.Variant, len(m.items))

	for idx, item := range m.items {
		children[idx] = dbus.MakeVariant(menuNode{
			ID:         int32(idx + 1),
			Properties: item.properties(),
			Children:   []dbus.Variant{},
		})
	}

	return menuNode{
		ID: 0,
		Properties: map[string]dbus.Variant{
			"children-display": dbus.MakeVariant("submenu"),
		},
		Children: children,
	}
}

// GetLayout implements com.canonical.dbusmenu.GetLayout. Recursion
// depth and property filtering are accepted but not applied; the whole
// tree is small and hosts tolerate a superset of properties.
func (m *Menu) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, menuNode, *dbus.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.revision, m.layoutLocked(), nil
}

// menuEntry pairs a node ID with its properties, signature (ia{sv}).
type menuEntry struct {
	ID         int32
	Properties map[string]dbus.Variant
}

// GetGroupProperties implements com.canonical.dbusmenu.GetGroupProperties.
func (m *Menu) GetGroupProperties(ids []int32, propertyNames []string) ([]menuEntry, *dbus.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]menuEntry, 0, len(ids))

	for _, id := range ids {
		idx := int(id) - 1
		if idx < 0 || idx >= len(m.items) {
			continue
		}

		result = append(result, menuEntry{ID: id, Properties: m.items[idx].properties()})
	}

	return result, nil
}

// GetProperty implements com.canonical.dbusmenu.GetProperty.
func (m *Menu) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := int(id) - 1
	if idx < 0 || idx >= len(m.items) {
		return dbus.Variant{}, dbus.NewError(
			"com.canonical.dbusmenu.Error.UnknownItem",
			[]any{id},
		)
	}

	value, ok := m.items[idx].properties()[name]
	if !ok {
		return dbus.Variant{}, dbus.NewError(
			"org.freedesktop.DBus.Error.UnknownProperty",
			[]any{name},
		)
	}

	return value, nil
}

// Event implements com.canonical.dbusmenu.Event and dispatches
// "clicked" events to the entry's callback.
func (m *Menu) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	if eventID != "clicked" {
		return nil
	}

	m.mu.Lock()
	var onClicked func()

	idx := int(id) - 1
	if idx >= 0 && idx < len(m.items) {
		onClicked = m.items[idx].OnClicked
	}
	m.mu.Unlock()

	// Run outside the lock: the callback may call back into the menu.
	if onClicked != nil {
		onClicked()
	}

	return nil
}

// AboutToShow implements com.canonical.dbusmenu.AboutToShow.
func (m *Menu) AboutToShow(id int32) (bool, *dbus.Error) {
	return false, nil
}

// Get implements org.freedesktop.DBus.Properties.Get for the menu
// object.
func (m *Menu) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	value, ok := m.dbusProperties()[property]
	if !ok {
		return dbus.Variant{}, dbus.NewError(
			"org.freedesktop.DBus.Error.UnknownProperty",
			[]any{property},
		)
	}

	return value, nil
}

// GetAll implements org.freedesktop.DBus.Properties.GetAll for the menu
// object.
func (m *Menu) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	return m.dbusProperties(), nil
}

func (m *Menu) dbusProperties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"Version":       dbus.MakeVariant(uint32(3)),
		"TextDirection": dbus.MakeVariant("ltr"),
		"Status":        dbus.MakeVariant("normal"),
		"IconThemePath": dbus.MakeVariant([]string{}),
	}
}
