package statusicon

import (
	"github.com/godbus/dbus/v5"
)

// tooltip is the D-Bus wire representation of the item's tooltip,
// signature (sa(iiay)ss): icon name, icon pixmaps, title, text.
type tooltip struct {
	IconName string
	Pixmaps  []pixmap
	Title    string
	Text     string
}

// sniObject is the bus object exported at [StatusNotifierItemPath]. It
// implements the org.kde.StatusNotifierItem method surface plus
// org.freedesktop.DBus.Properties, reading all state from its item
// under the item's lock.
//
// One sniObject exists per registration; it holds the item by
// composition, not inheritance, so the same object can be re-exported
// after a watcher restart.
type sniObject struct {
	item *Item
}

// properties snapshots the full property map advertised to hosts.
// Pixel data in every pixmap is in ARGB order, alpha first.
func (o *sniObject) properties() map[string]dbus.Variant {
	item := o.item

	item.mu.Lock()
	defer item.mu.Unlock()

	id := item.id + item.idSuffix

	menuPath := dbus.ObjectPath("/NO_DBUSMENU")
	if item.menu != nil {
		menuPath = menuObjectPath
	}

	return map[string]dbus.Variant{
		"Category":            dbus.MakeVariant(string(item.category)),
		"Id":                  dbus.MakeVariant(id),
		"Title":               dbus.MakeVariant(item.title),
		"Status":              dbus.MakeVariant("Active"),
		"WindowId":            dbus.MakeVariant(uint32(0)),
		"IconName":            dbus.MakeVariant(""),
		"IconPixmap":          dbus.MakeVariant(pixmaps(item.currentIcon)),
		"OverlayIconName":     dbus.MakeVariant(""),
		"OverlayIconPixmap":   dbus.MakeVariant(pixmaps(nil)),
		"AttentionIconName":   dbus.MakeVariant(""),
		"AttentionIconPixmap": dbus.MakeVariant(pixmaps(nil)),
		"AttentionMovieName":  dbus.MakeVariant(""),
		"ItemIsMenu":          dbus.MakeVariant(false),
		"Menu":                dbus.MakeVariant(menuPath),
		"ToolTip": dbus.MakeVariant(tooltip{
			IconName: "",
			Pixmaps:  []pixmap{},
			Title:    item.tooltip,
			Text:     "",
		}),
	}
}

// Get implements org.freedesktop.DBus.Properties.Get.
func (o *sniObject) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	if iface != StatusNotifierItemInterface {
		return dbus.Variant{}, dbus.NewError(
			"org.freedesktop.DBus.Error.UnknownInterface",
			[]any{iface},
		)
	}

	value, ok := o.properties()[property]
	if !ok {
		return dbus.Variant{}, dbus.NewError(
			"org.freedesktop.DBus.Error.UnknownProperty",
			[]any{property},
		)
	}

	return value, nil
}

// GetAll implements org.freedesktop.DBus.Properties.GetAll.
func (o *sniObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != StatusNotifierItemInterface {
		return nil, dbus.NewError(
			"org.freedesktop.DBus.Error.UnknownInterface",
			[]any{iface},
		)
	}

	return o.properties(), nil
}

// Set implements org.freedesktop.DBus.Properties.Set. Every item
// property is read-only.
func (o *sniObject) Set(iface, property string, value dbus.Variant) *dbus.Error {
	return dbus.NewError(
		"org.freedesktop.DBus.Error.PropertyReadOnly",
		[]any{property},
	)
}

// Activate handles primary activation, typically a left click on the
// item's visualization. The x and y arguments are a screen-coordinate
// hint and are not forwarded.
func (o *sniObject) Activate(x, y int32) *dbus.Error {
	o.item.clicked()
	return nil
}

// SecondaryActivate handles secondary activation, typically a middle
// click.
func (o *sniObject) SecondaryActivate(x, y int32) *dbus.Error {
	o.item.secondaryClicked()
	return nil
}

// Scroll handles scroll input over the item. Valid orientations are
// "horizontal" and "vertical".
func (o *sniObject) Scroll(delta int32, orientation string) *dbus.Error {
	o.item.scrolled(delta, orientation)
	return nil
}

// ContextMenu asks the item to show a context menu at the given screen
// coordinates. Hosts that understand the Menu property render the menu
// themselves and never call this.
func (o *sniObject) ContextMenu(x, y int32) *dbus.Error {
	return nil
}

// ProvideXdgActivationToken receives the activation token some
// compositors hand the item before Activate.
func (o *sniObject) ProvideXdgActivationToken(token string) *dbus.Error {
	return nil
}

func (item *Item) clicked() {
	if item.onClicked != nil {
		item.onClicked()
	}
}

func (item *Item) secondaryClicked() {
	if item.onSecondaryClicked != nil {
		item.onSecondaryClicked()
	}
}

func (item *Item) scrolled(delta int32, orientation string) {
	if item.onScroll != nil {
		item.onScroll(delta, orientation)
	}
}
