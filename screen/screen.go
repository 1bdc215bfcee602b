// Package screen делает снимки экрана.
package screen

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/kbinani/screenshot"

	"github.com/freeai-utils/freeai-utils/guard"
)

// ErrNoDisplay нет активных дисплеев.
var ErrNoDisplay = errors.New("нет активных дисплеев")

// Rect область экрана в пикселях.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Validate проверяет что область не пустая.
func (r Rect) Validate() error {
	if err := guard.Positive("width", r.Width); err != nil {
		return err
	}
	return guard.Positive("height", r.Height)
}

// Image переводит область в image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// PrimaryBounds область основного дисплея.
func PrimaryBounds() (Rect, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return Rect{}, ErrNoDisplay
	}
	b := screenshot.GetDisplayBounds(0)
	return Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}, nil
}

// Capture снимает область экрана.
func Capture(r Rect) (*image.RGBA, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	img, err := screenshot.Capture(r.X, r.Y, r.Width, r.Height)
	if err != nil {
		return nil, fmt.Errorf("снимок экрана: %w", err)
	}
	return img, nil
}

// CaptureToPNG снимает область и сохраняет её в png. Существующий файл перезаписывается.
func CaptureToPNG(path string, r Rect) error {
	img, err := Capture(r)
	if err != nil {
		return err
	}
	return SavePNG(path, img)
}

// SavePNG записывает изображение в файл.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("кодирование png: %w", err)
	}
	return f.Close()
}

// Crop вырезает из области screen поля, заданные в процентах от каждого края.
func Crop(screen Rect, left, right, up, down float64) (Rect, error) {
	for _, p := range []struct {
		name string
		v    float64
	}{{"crop_left", left}, {"crop_right", right}, {"crop_up", up}, {"crop_down", down}} {
		if err := guard.Range(p.name, p.v, 0, 100); err != nil {
			return Rect{}, err
		}
	}

	topY := int(float64(screen.Height) * up / 100)
	bottomY := int(float64(screen.Height) * (1 - down/100))
	leftX := int(float64(screen.Width) * left / 100)
	rightX := int(float64(screen.Width) * (1 - right/100))

	return Rect{
		X:      screen.X + leftX,
		Y:      screen.Y + topY,
		Width:  rightX - leftX,
		Height: bottomY - topY,
	}, nil
}
