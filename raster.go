package statusicon

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterize renders the SVG artwork at path into a square bounding box
// of size×size pixels and returns it in protocol pixel order.
//
// The artwork is scaled uniformly by min(size/W, size/H) of its
// intrinsic bounds, so aspect ratio is preserved and the longer side
// fills the box. Output dimensions are the scaled bounds rounded down;
// artwork whose bounds or scaled dimensions are degenerate is rejected.
//
// Errors wrap [ErrNotFound], [ErrDecode], or [ErrRender].
func Rasterize(path string, size int) (*Icon, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidArgument, size)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	defer file.Close()

	svg, err := oksvg.ReadIconStream(file, oksvg.StrictErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	bw, bh := svg.ViewBox.W, svg.ViewBox.H
	if bw <= 0 || bh <= 0 {
		return nil, fmt.Errorf("%w: %s: degenerate bounds %gx%g", ErrDecode, path, bw, bh)
	}

	scale := math.Min(float64(size)/bw, float64(size)/bh)
	width := int(math.Floor(bw * scale))
	height := int(math.Floor(bh * scale))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s: scaled to %dx%d", ErrDecode, path, width, height)
	}

	surface := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := draw(svg, surface, width, height); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, path, err)
	}

	return &Icon{
		Width:  int32(width),
		Height: int32(height),
		Bytes:  repack(surface.Pix),
	}, nil
}

// draw rasterizes svg onto a transparent surface. oksvg panics on some
// malformed path data it accepted at parse time, so drawing is
// recover-guarded and the panic surfaced as an error.
func draw(svg *oksvg.SvgIcon, surface *image.RGBA, width, height int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rasterizer panic: %v", r)
		}
	}()

	svg.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, surface, surface.Bounds())
	svg.Draw(rasterx.NewDasher(width, height, scanner), 1.0)

	return nil
}

// repack reorders the surface's native RGBA bytes into the ARGB order
// required by the protocol's pixmap format.
func repack(pix []byte) []byte {
	out := make([]byte, len(pix))

	for i := 0; i+3 < len(pix); i += 4 {
		out[i] = pix[i+3]
		out[i+1] = pix[i]
		out[i+2] = pix[i+1]
		out[i+3] = pix[i+2]
	}

	return out
}
