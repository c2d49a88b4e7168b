package statusicon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	StatusNotifierItemInterface = "org.kde.StatusNotifierItem"
	StatusNotifierItemPath      = "/StatusNotifierItem"
)

const (
	propertiesInterface = "org.freedesktop.DBus.Properties"
	fdoService          = "org.freedesktop.DBus"
	fdoPath             = "/org/freedesktop/DBus"
	noOwnerError        = "org.freedesktop.DBus.Error.NameHasNoOwner"
)

type ItemCategory string

// StatusNotifierItem categories.
const (
	// The item describes the status of a generic application.
	ItemCategoryApplicationStatus ItemCategory = "ApplicationStatus"

	// The item describes the status of communication oriented
	// applications, like an instant messenger or an email client.
	ItemCategoryCommunications ItemCategory = "Communications"

	// The item describes services of the system not seen as a stand
	// alone application by the user.
	ItemCategorySystemServices ItemCategory = "SystemServices"

	// The item describes the state and control of a particular hardware.
	ItemCategoryHardware ItemCategory = "Hardware"
)

// Options configures an [Item]. The zero value is usable; only ID
// should normally be set.
type Options struct {
	// Unique identifier for the application, such as the application
	// name. Uniqueness among live items is the caller's responsibility
	// (see [Registry]).
	ID string

	// Name that describes the application, can be more descriptive
	// than ID.
	Title string

	// Category of the item. Defaults to
	// [ItemCategoryApplicationStatus].
	Category ItemCategory

	// Square bounding box, in pixels, that icons are rasterized into.
	// Defaults to 48.
	IconSize int

	// Delays after registration at which the icon is announced again.
	// Some shells miss or drop the first NewIcon signal after an item
	// registers; announcing twice more papers over that. The defaults
	// of 100ms and 400ms are empirical and desktop-specific, which is
	// why they are configuration rather than constants. An empty
	// non-nil slice disables the republication entirely.
	RepublishDelays []time.Duration

	// Cache used to rasterize and memoize icon artwork. Defaults to a
	// private cache; supply a shared one when running several items.
	Cache *Cache

	// Menu to expose as the item's context menu. Optional.
	Menu *Menu

	// Logger for protocol events. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// OnClicked runs when the user activates the item, typically with
	// a primary mouse click.
	OnClicked func()

	// OnSecondaryClicked runs on secondary activation, typically a
	// middle click.
	OnSecondaryClicked func()

	// OnScroll runs on scroll events over the item. Orientation is
	// "horizontal" or "vertical".
	OnScroll func(delta int32, orientation string)
}

// Item is a tray icon published as a [StatusNotifierItem]. It owns a
// session bus connection, tracks the StatusNotifierWatcher service, and
// keeps its icon and tooltip published whenever a watcher is present.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierItem/
type Item struct {
	id                 string
	title              string
	category           ItemCategory
	iconSize           int
	delays             []time.Duration
	cache              *Cache
	menu               *Menu
	log                zerolog.Logger
	onClicked          func()
	onSecondaryClicked func()
	onScroll           func(delta int32, orientation string)

	mu             sync.Mutex
	conn           conn
	signals        chan *dbus.Signal
	disposed       bool
	hidden         bool
	registered     bool
	watcherPresent bool
	currentIcon    *Icon
	tooltip        string
	idSuffix       string
	republish      []*time.Timer

	anim *animator
}

// New returns a new [Item]. The item does nothing until [Item.Init] is
// called.
func New(opts Options) *Item {
	if opts.Category == "" {
		opts.Category = ItemCategoryApplicationStatus
	}

	if opts.IconSize <= 0 {
		opts.IconSize = 48
	}

	if opts.RepublishDelays == nil {
		opts.RepublishDelays = []time.Duration{
			100 * time.Millisecond,
			400 * time.Millisecond,
		}
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	if opts.Cache == nil {
		opts.Cache = NewCache(logger)
	}

	item := &Item{
		id:                 opts.ID,
		title:              opts.Title,
		category:           opts.Category,
		iconSize:           opts.IconSize,
		delays:             opts.RepublishDelays,
		cache:              opts.Cache,
		menu:               opts.Menu,
		log:                logger.With().Str("item", opts.ID).Logger(),
		onClicked:          opts.OnClicked,
		onSecondaryClicked: opts.OnSecondaryClicked,
		onScroll:           opts.OnScroll,
	}
	item.anim = newAnimator(item)

	return item
}

// Init connects the item to the session bus and starts watching for a
// StatusNotifierWatcher service.
//
// A missing watcher is not an error: the item stays invisible and
// registers itself as soon as a watcher appears on the bus. Failure to
// open the bus connection is fatal and returned to the caller.
//
// Init is idempotent while the item is live and returns [ErrDisposed]
// after [Item.Dispose].
func (item *Item) Init(ctx context.Context) error {
	item.mu.Lock()
	if item.disposed {
		item.mu.Unlock()
		return ErrDisposed
	}
	if item.conn != nil {
		item.mu.Unlock()
		return nil
	}
	item.mu.Unlock()

	c, err := sessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	item.mu.Lock()
	if item.disposed {
		item.mu.Unlock()
		c.Close()
		return ErrDisposed
	}
	item.conn = c
	item.signals = make(chan *dbus.Signal, 64)
	item.mu.Unlock()

	if err := c.AddMatchSignal(
		dbus.WithMatchInterface(fdoService),
		dbus.WithMatchSender(fdoService),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, StatusNotifierWatcherInterface),
	); err != nil {
		return fmt.Errorf("watch for watcher service: %w", err)
	}

	c.Signal(item.signals)
	go item.watch(item.signals)

	// Query the current owner only after the match is installed, so a
	// watcher that appears in between is caught by the signal instead
	// of being missed entirely.
	owner, err := item.queryWatcherOwner(ctx, c)
	if err != nil {
		if !errors.Is(err, ErrWatcherUnavailable) {
			return err
		}

		item.log.Info().Msg("no status notifier watcher on the bus, waiting for one to appear")
		return nil
	}

	item.log.Debug().Str("owner", owner).Msg("status notifier watcher present")
	item.watcherAppeared()

	return nil
}

// queryWatcherOwner resolves the current owner of the watcher's
// well-known name. A missing owner is reported as
// [ErrWatcherUnavailable]; any other failure is fatal.
func (item *Item) queryWatcherOwner(ctx context.Context, c conn) (string, error) {
	var owner string

	call := c.Object(fdoService, fdoPath).CallWithContext(
		ctx,
		fdoService+".GetNameOwner",
		0,
		StatusNotifierWatcherInterface,
	)
	if call.Err != nil {
		var dbusErr dbus.Error
		if errors.As(call.Err, &dbusErr) && dbusErr.Name == noOwnerError {
			return "", ErrWatcherUnavailable
		}

		return "", fmt.Errorf("query watcher owner: %w", call.Err)
	}

	if err := call.Store(&owner); err != nil {
		return "", fmt.Errorf("query watcher owner: %w", err)
	}

	if owner == "" {
		return "", ErrWatcherUnavailable
	}

	return owner, nil
}

// watch consumes NameOwnerChanged signals for the watcher name until
// the signal channel is closed by Dispose.
func (item *Item) watch(signals chan *dbus.Signal) {
	for signal := range signals {
		if signal.Name != fdoService+".NameOwnerChanged" || len(signal.Body) < 3 {
			continue
		}

		name, ok := signal.Body[0].(string)
		if !ok || name != StatusNotifierWatcherInterface {
			continue
		}

		newOwner, ok := signal.Body[2].(string)
		if !ok {
			continue
		}

		if newOwner == "" {
			item.watcherVanished()
		} else {
			item.watcherAppeared()
		}
	}
}

func (item *Item) watcherAppeared() {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.watcherPresent = true

	if item.disposed || item.hidden || item.registered {
		return
	}

	item.registerLocked()
}

func (item *Item) watcherVanished() {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.watcherPresent = false

	if item.registered {
		item.log.Info().Msg("status notifier watcher vanished, waiting for it to reappear")
		item.unregisterLocked()
	}
}

// registerLocked publishes the protocol object and announces the item
// to the watcher. Callers hold item.mu.
func (item *Item) registerLocked() {
	obj := &sniObject{item: item}

	if err := item.conn.Export(obj, StatusNotifierItemPath, StatusNotifierItemInterface); err != nil {
		item.log.Error().Err(err).Msg("failed to export status notifier item")
		return
	}

	if err := item.conn.Export(obj, StatusNotifierItemPath, propertiesInterface); err != nil {
		item.log.Error().Err(err).Msg("failed to export item properties")
		item.conn.Export(nil, StatusNotifierItemPath, StatusNotifierItemInterface)
		return
	}

	if item.menu != nil {
		if err := item.menu.export(item.conn); err != nil {
			item.log.Error().Err(err).Msg("failed to export menu, continuing without it")
			item.menu = nil
		}
	}

	// The watcher addresses the item back through the connection's own
	// unique bus identity; no well-known name is requested.
	names := item.conn.Names()
	if len(names) == 0 {
		item.log.Error().Msg("connection has no unique name")
		item.unpublishLocked()
		return
	}

	call := item.conn.Object(StatusNotifierWatcherInterface, StatusNotifierWatcherPath).Call(
		StatusNotifierWatcherInterface+".RegisterStatusNotifierItem",
		0,
		names[0],
	)
	if call.Err != nil {
		item.log.Error().Err(call.Err).Msg("failed to register with watcher")
		item.unpublishLocked()
		return
	}

	item.registered = true
	item.log.Info().Str("name", names[0]).Msg("registered with status notifier watcher")

	// The item must never be registered but stale: announce the
	// current tooltip and icon right away.
	item.emitLocked("NewToolTip")
	item.emitLocked("NewIcon")

	item.scheduleRepublishLocked()
}

// scheduleRepublishLocked arms one deferred icon announcement per
// configured delay. Each fires independently and re-checks that the
// item is still live and registered, since Dispose or a watcher loss
// can race the timer.
func (item *Item) scheduleRepublishLocked() {
	for _, delay := range item.delays {
		timer := time.AfterFunc(delay, func() {
			item.mu.Lock()
			defer item.mu.Unlock()

			if item.disposed || !item.registered {
				return
			}

			item.emitLocked("NewIcon")
		})

		item.republish = append(item.republish, timer)
	}
}

// unregisterLocked tears down the published object and registration
// bookkeeping, leaving the connection and the name watch intact.
func (item *Item) unregisterLocked() {
	item.unpublishLocked()
	item.registered = false

	for _, timer := range item.republish {
		timer.Stop()
	}
	item.republish = nil
}

func (item *Item) unpublishLocked() {
	item.conn.Export(nil, StatusNotifierItemPath, StatusNotifierItemInterface)
	item.conn.Export(nil, StatusNotifierItemPath, propertiesInterface)

	if item.menu != nil {
		item.menu.unexport(item.conn)
	}
}

// emitLocked broadcasts a change signal of the item interface.
// Re-publication failures are logged only: the signal is advisory and
// the hosts re-read properties on the next one.
func (item *Item) emitLocked(member string, values ...any) {
	if item.conn == nil {
		return
	}

	err := item.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+"."+member, values...)
	if err != nil {
		item.log.Warn().Err(err).Str("signal", member).Msg("failed to emit change signal")
	}
}

// SetIcon rasterizes the SVG artwork at path and displays it. The
// tooltip is updated as well unless it is empty.
//
// The update always sticks: when no watcher is present (or the item is
// hidden) the new state is simply published on the next registration.
// Rasterization errors are returned unchanged.
func (item *Item) SetIcon(path string, tooltip string) error {
	item.mu.Lock()
	if item.disposed {
		item.mu.Unlock()
		return ErrDisposed
	}
	size := item.iconSize
	item.mu.Unlock()

	icon, err := item.cache.GetOrRender(path, size)
	if err != nil {
		return err
	}

	item.mu.Lock()
	defer item.mu.Unlock()

	if item.disposed {
		return ErrDisposed
	}

	item.currentIcon = icon
	item.idSuffix = ""

	if tooltip != "" {
		item.tooltip = tooltip
	}

	if item.registered {
		item.emitLocked("NewIcon")
		if tooltip != "" {
			item.emitLocked("NewToolTip")
		}
	}

	return nil
}

// SetTooltip updates the tooltip text and publishes it if registered.
func (item *Item) SetTooltip(tooltip string) error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.disposed {
		return ErrDisposed
	}

	item.tooltip = tooltip

	if item.registered {
		item.emitLocked("NewToolTip")
	}

	return nil
}

// setAnimationFrame displays one animation frame. The advertised Id is
// perturbed with a timestamp and the frame index so shells that
// de-duplicate notifications by identity re-fetch the pixmap.
func (item *Item) setAnimationFrame(icon *Icon, frameIndex int) {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.disposed {
		return
	}

	item.currentIcon = icon
	item.idSuffix = fmt.Sprintf("-%d-%d", time.Now().UnixMilli(), frameIndex)

	if item.registered {
		item.emitLocked("NewIcon")
	}
}

// StartAnimation cycles the icon through frames, each an SVG path, at
// the given interval. Frame 0 is displayed synchronously before the
// first tick; all frames are pre-warmed in the cache first, with
// unrenderable frames logged and skipped. Any running animation is
// replaced.
//
// Returns [ErrInvalidArgument] when frames is empty and [ErrDisposed]
// after disposal.
func (item *Item) StartAnimation(frames []string, interval time.Duration, tooltip string) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: empty frame list", ErrInvalidArgument)
	}

	if interval <= 0 {
		return fmt.Errorf("%w: interval %s", ErrInvalidArgument, interval)
	}

	item.mu.Lock()
	if item.disposed {
		item.mu.Unlock()
		return ErrDisposed
	}

	if tooltip != "" {
		item.tooltip = tooltip
		if item.registered {
			item.emitLocked("NewToolTip")
		}
	}
	item.mu.Unlock()

	item.anim.start(frames, interval)

	return nil
}

// StopAnimation stops a running animation and clears its state. It is
// safe to call when no animation runs and also after [Item.Dispose].
func (item *Item) StopAnimation() {
	item.anim.stop()
}

// Hide withdraws the item from the tray without disconnecting from the
// bus. Icon and tooltip updates keep accumulating while hidden.
func (item *Item) Hide() error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.disposed {
		return ErrDisposed
	}

	item.hidden = true

	if item.registered {
		item.unregisterLocked()
	}

	return nil
}

// Show makes the item eligible for the tray again and registers it
// immediately when a watcher is present.
func (item *Item) Show() error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.disposed {
		return ErrDisposed
	}

	item.hidden = false

	if item.watcherPresent && !item.registered {
		item.registerLocked()
	}

	return nil
}

// Registered reports whether the item is currently announced to a
// watcher.
func (item *Item) Registered() (bool, error) {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.disposed {
		return false, ErrDisposed
	}

	return item.registered, nil
}

// Dispose stops any animation, withdraws the item, and closes the bus
// connection. It is idempotent; every other method fails with
// [ErrDisposed] afterwards.
func (item *Item) Dispose() {
	item.mu.Lock()
	if item.disposed {
		item.mu.Unlock()
		return
	}

	item.disposed = true
	c := item.conn
	signals := item.signals

	if item.registered {
		item.unregisterLocked()
	}
	item.mu.Unlock()

	item.anim.stop()

	if c == nil {
		return
	}

	c.RemoveMatchSignal(
		dbus.WithMatchInterface(fdoService),
		dbus.WithMatchSender(fdoService),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, StatusNotifierWatcherInterface),
	)

	c.RemoveSignal(signals)
	close(signals)
	c.Close()
}
