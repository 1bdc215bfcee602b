package screen

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/guard"
)

func TestCrop(t *testing.T) {
	full := Rect{Width: 1920, Height: 1080}

	r, err := Crop(full, 10, 20, 0, 50)
	require.NoError(t, err)
	require.Equal(t, Rect{X: 192, Y: 0, Width: 1344, Height: 540}, r)

	r, err = Crop(full, 0, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, full, r)

	_, err = Crop(full, 101, 0, 0, 0)
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

func TestRectValidate(t *testing.T) {
	require.NoError(t, Rect{Width: 1, Height: 1}.Validate())
	require.ErrorIs(t, Rect{Width: 0, Height: 1}.Validate(), guard.ErrInvalidArgument)
	require.Equal(t, image.Rect(5, 6, 15, 26), Rect{X: 5, Y: 6, Width: 10, Height: 20}.Image())
}

func TestSavePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, SavePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), decoded.Bounds())
}
