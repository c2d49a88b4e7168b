package statusicon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

func TestRasterizeDimensions(t *testing.T) {
	for _, size := range []int{24, 48, 96} {
		icon, err := Rasterize(testdata("square.svg"), size)
		require.NoError(t, err)

		assert.Equal(t, int32(size), icon.Width)
		assert.Equal(t, int32(size), icon.Height)
		assert.Len(t, icon.Bytes, int(icon.Width)*int(icon.Height)*4)
	}
}

func TestRasterizeUniformScale(t *testing.T) {
	// 200x100 bounds scale uniformly into the box, so the longer side
	// fills it and the aspect ratio survives.
	wide, err := Rasterize(testdata("wide.svg"), 48)
	require.NoError(t, err)
	assert.Equal(t, int32(48), wide.Width)
	assert.Equal(t, int32(24), wide.Height)

	tall, err := Rasterize(testdata("tall.svg"), 48)
	require.NoError(t, err)
	assert.Equal(t, int32(24), tall.Width)
	assert.Equal(t, int32(48), tall.Height)
}

func TestRasterizeMonotonicGrowth(t *testing.T) {
	var lastWidth, lastHeight int32

	for _, size := range []int{24, 48, 96} {
		icon, err := Rasterize(testdata("wide.svg"), size)
		require.NoError(t, err)

		assert.Greater(t, icon.Width, lastWidth)
		assert.Greater(t, icon.Height, lastHeight)

		lastWidth, lastHeight = icon.Width, icon.Height
	}
}

func TestRasterizeAlphaFirst(t *testing.T) {
	// square.svg is a solid red fill, so away from the edges every
	// pixel must be A=255, R=255, G=0, B=0 in that byte order.
	icon, err := Rasterize(testdata("square.svg"), 48)
	require.NoError(t, err)

	center := (int(icon.Height)/2*int(icon.Width) + int(icon.Width)/2) * 4
	pixel := icon.Bytes[center : center+4]

	assert.Equal(t, byte(0xff), pixel[0], "alpha")
	assert.Equal(t, byte(0xff), pixel[1], "red")
	assert.Equal(t, byte(0x00), pixel[2], "green")
	assert.Equal(t, byte(0x00), pixel[3], "blue")
}

func TestRasterizeErrors(t *testing.T) {
	_, err := Rasterize(testdata("does-not-exist.svg"), 48)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Rasterize(testdata("invalid.svg"), 48)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Rasterize(testdata("square.svg"), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRasterizeFitsBoundingBox(t *testing.T) {
	// Three differing intrinsic aspect ratios: every rendering fits the
	// box and the longer side fills it exactly.
	for _, name := range []string{"square.svg", "wide.svg", "tall.svg"} {
		icon, err := Rasterize(testdata(name), 48)
		require.NoError(t, err, name)

		assert.LessOrEqual(t, icon.Width, int32(48), name)
		assert.LessOrEqual(t, icon.Height, int32(48), name)
		assert.True(t, icon.Width == 48 || icon.Height == 48, name)
	}
}
