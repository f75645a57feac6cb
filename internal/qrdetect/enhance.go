package qrdetect

import (
	"image"

	"github.com/disintegration/imaging"
)

const enhanceTileGrid = 8

// enhanceForQR boosts local contrast with per-tile histogram equalization and
// applies a light blur to knock down print noise. Run once as a second-chance
// pass when a full detection pass found nothing.
func enhanceForQR(gray *image.Gray) *image.Gray {
	equalized := equalizeTiles(gray, enhanceTileGrid)
	blurred := imaging.Blur(equalized, 0.7)
	return toGray(blurred)
}

// equalizeTiles equalizes the luminance histogram independently over a
// grid×grid tiling of the image.
func equalizeTiles(gray *image.Gray, grid int) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)

	tileW := (bounds.Dx() + grid - 1) / grid
	tileH := (bounds.Dy() + grid - 1) / grid
	if tileW == 0 || tileH == 0 {
		copy(out.Pix, gray.Pix)
		return out
	}

	for ty := bounds.Min.Y; ty < bounds.Max.Y; ty += tileH {
		for tx := bounds.Min.X; tx < bounds.Max.X; tx += tileW {
			x1 := min(tx+tileW, bounds.Max.X)
			y1 := min(ty+tileH, bounds.Max.Y)
			equalizeRegion(gray, out, tx, ty, x1, y1)
		}
	}
	return out
}

func equalizeRegion(src, dst *image.Gray, x0, y0, x1, y1 int) {
	var hist [256]int
	total := 0
	lo, hi := 255, 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v := int(src.GrayAt(x, y).Y)
			hist[v]++
			total++
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if total == 0 {
		return
	}

	// Near-uniform tiles (inside a solid module or margin) are copied through;
	// equalizing them would only amplify noise.
	if hi-lo < 16 {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				i := dst.PixOffset(x, y)
				dst.Pix[i] = src.GrayAt(x, y).Y
			}
		}
		return
	}

	var lut [256]uint8
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(cum * 255 / total)
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := dst.PixOffset(x, y)
			dst.Pix[i] = lut[src.GrayAt(x, y).Y]
		}
	}
}
