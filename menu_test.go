package statusicon

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuLayout(t *testing.T) {
	m := NewMenu(
		MenuItem{Label: "Open"},
		MenuItem{Separator: true},
		MenuItem{Label: "Quit", Disabled: true},
	)

	revision, root, derr := m.GetLayout(0, -1, nil)
	require.Nil(t, derr)
	assert.Equal(t, uint32(1), revision)

	assert.Equal(t, int32(0), root.ID)
	assert.Equal(t, "submenu", root.Properties["children-display"].Value())
	require.Len(t, root.Children, 3)

	open := root.Children[0].Value().(menuNode)
	assert.Equal(t, int32(1), open.ID)
	assert.Equal(t, "Open", open.Properties["label"].Value())
	assert.Equal(t, true, open.Properties["enabled"].Value())

	separator := root.Children[1].Value().(menuNode)
	assert.Equal(t, "separator", separator.Properties["type"].Value())

	quit := root.Children[2].Value().(menuNode)
	assert.Equal(t, false, quit.Properties["enabled"].Value())
}

func TestMenuSetItemsBumpsRevision(t *testing.T) {
	m := NewMenu(MenuItem{Label: "Open"})

	m.SetItems(MenuItem{Label: "Close"})

	revision, root, derr := m.GetLayout(0, -1, nil)
	require.Nil(t, derr)
	assert.Equal(t, uint32(2), revision)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "Close", root.Children[0].Value().(menuNode).Properties["label"].Value())
}

func TestMenuEventDispatchesClicks(t *testing.T) {
	clicks := 0
	m := NewMenu(
		MenuItem{Label: "Open", OnClicked: func() { clicks++ }},
		MenuItem{Label: "Quit"},
	)

	require.Nil(t, m.Event(1, "clicked", dbus.Variant{}, 0))
	assert.Equal(t, 1, clicks)

	// Unknown ids, non-click events, and entries without a callback
	// are all ignored.
	require.Nil(t, m.Event(99, "clicked", dbus.Variant{}, 0))
	require.Nil(t, m.Event(1, "hovered", dbus.Variant{}, 0))
	require.Nil(t, m.Event(2, "clicked", dbus.Variant{}, 0))
	assert.Equal(t, 1, clicks)
}

func TestMenuGroupProperties(t *testing.T) {
	m := NewMenu(MenuItem{Label: "Open"}, MenuItem{Label: "Quit"})

	entries, derr := m.GetGroupProperties([]int32{1, 2, 7}, nil)
	require.Nil(t, derr)
	require.Len(t, entries, 2)
	assert.Equal(t, "Open", entries[0].Properties["label"].Value())
	assert.Equal(t, "Quit", entries[1].Properties["label"].Value())

	value, derr := m.GetProperty(2, "label")
	require.Nil(t, derr)
	assert.Equal(t, "Quit", value.Value())

	_, derr = m.GetProperty(7, "label")
	assert.NotNil(t, derr)
}

func TestItemAdvertisesMenuPath(t *testing.T) {
	m := NewMenu(MenuItem{Label: "Open"})
	item, fake := newTestItem(t, ":1.7", Options{Menu: m})
	requireRegistered(t, item, true)

	assert.NotNil(t, fake.export(menuObjectPath, MenuInterface))

	obj := fake.export(StatusNotifierItemPath, StatusNotifierItemInterface).(*sniObject)
	assert.Equal(t, menuObjectPath, obj.properties()["Menu"].Value())

	// Without a menu the property points at the conventional
	// nothing-here path.
	plain, plainConn := newTestItem(t, ":1.7", Options{ID: "plain"})
	requireRegistered(t, plain, true)

	plainObj := plainConn.export(StatusNotifierItemPath, StatusNotifierItemInterface).(*sniObject)
	assert.Equal(t, dbus.ObjectPath("/NO_DBUSMENU"), plainObj.properties()["Menu"].Value())
}
