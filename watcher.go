package statusicon

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog"
)

const (
	StatusNotifierWatcherInterface = "org.kde.StatusNotifierWatcher"
	StatusNotifierWatcherPath      = "/StatusNotifierWatcher"
)

// Watcher is a minimal StatusNotifierWatcher for environments that run
// no system tray of their own, and for round-trip tests: it owns the
// watcher's well-known name and keeps the registered item and host
// bookkeeping that [Item] instances announce themselves to.
//
// One watcher may own the name per bus; [Watcher.Listen] fails when a
// shell watcher is already present.
type Watcher struct {
	conn    *dbus.Conn
	log     zerolog.Logger
	signals chan *dbus.Signal

	mu     sync.Mutex
	closed bool
	hosts  []string
	items  []string
}

// NewWatcher returns a watcher on conn. Pass [zerolog.Nop] to discard
// its logs.
func NewWatcher(conn *dbus.Conn, logger zerolog.Logger) *Watcher {
	return &Watcher{
		conn:    conn,
		log:     logger,
		signals: make(chan *dbus.Signal, 64),
	}
}

// Listen claims the watcher name, exports the watcher object, and
// starts pruning items and hosts whose connections drop off the bus.
func (w *Watcher) Listen() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("listen: watcher is closed")
	}

	reply, err := w.conn.RequestName(StatusNotifierWatcherInterface, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("listen: failed to request name %s: %w", StatusNotifierWatcherInterface, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("listen: name %s already taken", StatusNotifierWatcherInterface)
	}

	if err := w.conn.Export(w, StatusNotifierWatcherPath, StatusNotifierWatcherInterface); err != nil {
		return fmt.Errorf("listen: failed to export %s: %w", StatusNotifierWatcherInterface, err)
	}

	w.exportProperties()

	w.conn.Signal(w.signals)
	go w.prune()

	return nil
}

// Close releases the watcher name and stops pruning. The watcher cannot
// be reused afterwards.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	if _, err := w.conn.ReleaseName(StatusNotifierWatcherInterface); err != nil {
		return err
	}

	for _, name := range w.watchedNamesLocked() {
		w.removeOwnerMatch(name)
	}

	w.conn.RemoveSignal(w.signals)
	close(w.signals)

	w.hosts = nil
	w.items = nil
	w.closed = true

	return nil
}

// RegisterStatusNotifierItem implements the registration method items
// call. The single string argument is the registering connection's own
// unique bus identity, or an object path for legacy callers that
// register a path on their sender connection.
func (w *Watcher) RegisterStatusNotifierItem(name string, sender dbus.Sender) *dbus.Error {
	w.mu.Lock()
	defer w.mu.Unlock()

	identifier := name + StatusNotifierItemPath
	if strings.HasPrefix(name, "/") {
		identifier = string(sender) + name
	}

	if slices.Contains(w.items, identifier) {
		return nil
	}

	w.items = append(w.items, identifier)
	w.log.Info().Str("item", identifier).Msg("status notifier item registered")

	// Prune the item when its connection leaves the bus: D-Bus
	// announces that as NameOwnerChanged with an empty new owner.
	w.addOwnerMatch(string(sender))

	w.conn.Emit(
		StatusNotifierWatcherPath,
		StatusNotifierWatcherInterface+".StatusNotifierItemRegistered",
		identifier,
	)
	w.exportProperties()

	return nil
}

// RegisterStatusNotifierHost implements the registration method tray
// hosts call with their well-known name.
func (w *Watcher) RegisterStatusNotifierHost(name string) *dbus.Error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.hosts, name) {
		return nil
	}

	w.hosts = append(w.hosts, name)
	w.log.Info().Str("host", name).Msg("status notifier host registered")

	w.addOwnerMatch(name)

	w.conn.Emit(
		StatusNotifierWatcherPath,
		StatusNotifierWatcherInterface+".StatusNotifierHostRegistered",
		name,
	)
	w.exportProperties()

	return nil
}

// prune drops hosts and items whose bus names lost their owner.
func (w *Watcher) prune() {
	for signal := range w.signals {
		if signal.Name != fdoService+".NameOwnerChanged" || len(signal.Body) < 3 {
			continue
		}

		name, ok := signal.Body[0].(string)
		if !ok {
			continue
		}

		newOwner, ok := signal.Body[2].(string)
		if !ok || newOwner != "" {
			continue
		}

		w.dropName(name)
	}
}

// dropName removes every host and item registered by name.
func (w *Watcher) dropName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	changed := false

	if idx := slices.Index(w.hosts, name); idx >= 0 {
		w.hosts = slices.Delete(w.hosts, idx, idx+1)
		w.removeOwnerMatch(name)
		w.log.Info().Str("host", name).Msg("status notifier host vanished")
		changed = true
	}

	for idx := 0; idx < len(w.items); {
		item := w.items[idx]
		if !strings.HasPrefix(item, name) {
			idx++
			continue
		}

		w.items = slices.Delete(w.items, idx, idx+1)
		w.removeOwnerMatch(name)
		w.log.Info().Str("item", item).Msg("status notifier item vanished")

		w.conn.Emit(
			StatusNotifierWatcherPath,
			StatusNotifierWatcherInterface+".StatusNotifierItemUnregistered",
			item,
		)
		changed = true
	}

	if changed {
		w.exportProperties()
	}
}

// watchedNamesLocked lists every bus name the watcher installed an
// owner match for. Callers hold w.mu.
func (w *Watcher) watchedNamesLocked() []string {
	names := slices.Clone(w.hosts)

	for _, item := range w.items {
		name, _, ok := strings.Cut(item, "/")
		if !ok {
			continue
		}
		names = append(names, name)
	}

	return names
}

func (w *Watcher) addOwnerMatch(name string) {
	w.conn.AddMatchSignal(
		dbus.WithMatchInterface(fdoService),
		dbus.WithMatchSender(fdoService),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, name),
	)
}

func (w *Watcher) removeOwnerMatch(name string) {
	w.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(fdoService),
		dbus.WithMatchSender(fdoService),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, name),
	)
}

func (w *Watcher) exportProperties() {
	prop.Export(w.conn, StatusNotifierWatcherPath, prop.Map{
		StatusNotifierWatcherInterface: map[string]*prop.Prop{
			"RegisteredStatusNotifierItems": {
				Value:    slices.Clone(w.items),
				Writable: false,
				Emit:     prop.EmitTrue,
			},
			"IsStatusNotifierHostRegistered": {
				Value:    len(w.hosts) > 0,
				Writable: false,
				Emit:     prop.EmitTrue,
			},
			"ProtocolVersion": {
				Value:    1,
				Writable: false,
				Emit:     prop.EmitTrue,
			},
		},
	})
}
