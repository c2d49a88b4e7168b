package statusicon

import "github.com/godbus/dbus/v5"

// conn is the slice of the bus client an [Item] uses. *dbus.Conn
// satisfies it unchanged; tests substitute a recording fake.
type conn interface {
	// Names returns the names owned by the connection; the first entry
	// is the connection's unique bus identity.
	Names() []string

	// Export publishes v at path under iface; a nil v removes the
	// published object.
	Export(v any, path dbus.ObjectPath, iface string) error

	// Emit broadcasts a signal from path.
	Emit(path dbus.ObjectPath, name string, values ...any) error

	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error

	// Signal registers ch to receive matched signals; RemoveSignal
	// detaches it again.
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)

	// Object returns a handle for calling methods on a named service.
	Object(dest string, path dbus.ObjectPath) dbus.BusObject

	Close() error
}

var _ conn = (*dbus.Conn)(nil)

// sessionBus opens the session bus connection an item registers on.
// Overridable so tests run against a fake bus.
var sessionBus = func() (conn, error) {
	return dbus.ConnectSessionBus()
}
