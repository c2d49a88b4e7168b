package statusicon

import "fmt"

// Icon is a rasterized icon in the pixel format the StatusNotifierItem
// protocol requires: 4 bytes per pixel in ARGB order (alpha first).
//
// An Icon is immutable once produced; callers must not modify Bytes.
type Icon struct {
	Width  int32
	Height int32
	Bytes  []byte
}

// pixmap is the D-Bus wire representation of an [Icon]. godbus marshals
// it with signature (iiay), the element type of the IconPixmap property.
type pixmap struct {
	Width  int32
	Height int32
	Bytes  []byte
}

// pixmaps returns the single-element pixmap list advertised for icon,
// or an empty list when icon is nil.
func pixmaps(icon *Icon) []pixmap {
	if icon == nil {
		return []pixmap{}
	}

	return []pixmap{{
		Width:  icon.Width,
		Height: icon.Height,
		Bytes:  icon.Bytes,
	}}
}

// NewIconFromDBusPixmap returns a new [Icon] from a D-Bus pixmap value.
//
// Format of pixmap is as follows
//
//	[<width>, <height>, <bytes>]
//
// Where:
//   - <width>: width of the icon (int32)
//   - <height>: height of the icon (int32)
//   - <bytes>: content of the icon in ARGB order ([]byte)
func NewIconFromDBusPixmap(value any) (*Icon, error) {
	data, ok := value.([]any)
	if !ok || len(data) != 3 {
		return nil, fmt.Errorf("invalid pixmap format: expected a slice of 3 elements")
	}

	width, ok := data[0].(int32)
	if !ok {
		return nil, fmt.Errorf("invalid width type: expected int32")
	}

	height, ok := data[1].(int32)
	if !ok {
		return nil, fmt.Errorf("invalid height type: expected int32")
	}

	bytes, ok := data[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid bytes format: expected []byte")
	}

	return &Icon{
		Width:  width,
		Height: height,
		Bytes:  bytes,
	}, nil
}
