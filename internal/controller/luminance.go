package controller

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

var errEmptyImage = errors.New("empty image")

// MeanLuminance converts img to 8-bit grayscale (BT.601 weights) and averages
// every pixel. Images wider than maxWidth are downscaled first with a filter
// whose support covers every source pixel, so the mean is kept; maxWidth <= 0
// keeps the original size.
func MeanLuminance(img image.Image, maxWidth int) (float64, error) {
	if img == nil || img.Bounds().Empty() {
		return 0, errEmptyImage
	}

	rgba := toRGBA(img, maxWidth)

	var sum uint64
	pix := rgba.Pix
	b := rgba.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := pix[y*rgba.Stride : y*rgba.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			sum += uint64(gray(row[i], row[i+1], row[i+2]))
		}
	}

	return float64(sum) / float64(b.Dx()*b.Dy()), nil
}

// gray matches image/color.GrayModel on 8-bit channels.
func gray(r, g, b uint8) uint8 {
	return uint8((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}

func toRGBA(img image.Image, maxWidth int) *image.RGBA {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()

	if maxWidth > 0 && w > maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
		return dst
	}

	if rgba, ok := img.(*image.RGBA); ok && src.Min == (image.Point{}) {
		return rgba
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	return dst
}
