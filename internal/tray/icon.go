package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 22

var (
	iconOnce     sync.Once
	activeIcon   []byte
	inactiveIcon []byte
)

// icons returns the PNG tray icons for the active and inactive states.
func icons() (active, inactive []byte) {
	iconOnce.Do(func() {
		activeIcon = drawIcon(color.RGBA{R: 0x4c, G: 0xaf, B: 0x50, A: 0xff})
		inactiveIcon = drawIcon(color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff})
	})
	return activeIcon, inactiveIcon
}

// drawIcon renders a filled ring with a centre dot.
func drawIcon(fill color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))

	c := float64(iconSize-1) / 2
	for y := range iconSize {
		for x := range iconSize {
			dx, dy := float64(x)-c, float64(y)-c
			d2 := dx*dx + dy*dy
			switch {
			case d2 <= 3*3:
				img.Set(x, y, fill)
			case d2 >= 6*6 && d2 <= 10*10:
				img.Set(x, y, fill)
			}
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img) // in-memory encode of a valid RGBA image
	return buf.Bytes()
}
