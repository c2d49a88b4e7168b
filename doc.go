// Package statusicon publishes system tray icons over D-Bus by
// implementing the item (application) side of the [StatusNotifierItem]
// specification.
//
// # Usage
//
// A tray icon consists of an [Item] and the SVG artwork it displays:
//   - [Item] owns a session bus connection, watches for a
//     StatusNotifierWatcher service, and registers itself with the
//     watcher whenever one is present. Icon and tooltip updates made
//     while no watcher is running are kept and published as soon as one
//     appears.
//   - [Cache] rasterizes SVG artwork into the ARGB32 pixmaps the
//     protocol requires and memoizes the results, so animations and
//     repeated updates render each frame once. A single cache can be
//     shared by any number of items.
//   - [Registry] is an optional front door that hands out items by
//     unique identifier.
//
// Items can cycle through a sequence of frames with
// [Item.StartAnimation], and may attach a context menu implementing
// com.canonical.dbusmenu via [Menu].
//
// For environments that run no system tray at all, [Watcher] provides a
// minimal StatusNotifierWatcher that can be hosted in-process.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/
package statusicon
