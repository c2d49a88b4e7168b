package statusicon

import "errors"

// Errors reported by the package. Wrapped causes are attached with
// fmt.Errorf and %w, so callers should use [errors.Is] for detection.
var (
	// ErrNotFound is returned when a path does not resolve to a readable
	// icon resource.
	ErrNotFound = errors.New("icon resource not found")

	// ErrDecode is returned when an icon resource cannot be parsed as
	// SVG, or when its rendered bounds are degenerate.
	ErrDecode = errors.New("icon decode failed")

	// ErrRender is returned for rasterization failures other than
	// decoding, such as a failure of the drawing backend.
	ErrRender = errors.New("icon render failed")

	// ErrInvalidArgument is returned for rejected call arguments, such
	// as an empty animation frame list or a blank item identifier.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is returned by [Registry] when an item with the
	// same identifier is already live.
	ErrAlreadyExists = errors.New("item already exists")

	// ErrDisposed is returned by every operation on an item after
	// [Item.Dispose] was called.
	ErrDisposed = errors.New("item is disposed")

	// ErrWatcherUnavailable indicates that no StatusNotifierWatcher
	// currently owns its well-known name on the session bus. The item
	// stays constructed and keeps watching; it simply has no visible
	// tray presence until a watcher appears.
	ErrWatcherUnavailable = errors.New("status notifier watcher unavailable")
)
