package camera

import (
	"bytes"
	"image"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Orientation reads the EXIF orientation tag of JPEG data, defaulting to 1
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Orient applies an EXIF orientation so the image is upright
func Orient(img image.Image, orientation int) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	var m f64.Aff3
	swap := false
	switch orientation {
	case 2: // flip horizontal
		m = f64.Aff3{-1, 0, w, 0, 1, 0}
	case 3: // rotate 180
		m = f64.Aff3{-1, 0, w, 0, -1, h}
	case 4: // flip vertical
		m = f64.Aff3{1, 0, 0, 0, -1, h}
	case 5: // transpose
		m, swap = f64.Aff3{0, 1, 0, 1, 0, 0}, true
	case 6: // rotate 90 clockwise
		m, swap = f64.Aff3{0, -1, h, 1, 0, 0}, true
	case 7: // transverse
		m, swap = f64.Aff3{0, -1, h, -1, 0, w}, true
	case 8: // rotate 90 counter-clockwise
		m, swap = f64.Aff3{0, 1, 0, -1, 0, w}, true
	default:
		return img
	}

	dw, dh := b.Dx(), b.Dy()
	if swap {
		dw, dh = dh, dw
	}
	return Transform(img, dw, dh, m)
}

// Transform draws src into a new dw x dh RGBA image through the affine map m, where m
// is expressed for a source whose origin is (0, 0).
func Transform(src image.Image, dw, dh int, m f64.Aff3) *image.RGBA {
	b := src.Bounds()
	mx, my := float64(b.Min.X), float64(b.Min.Y)
	m[2] -= m[0]*mx + m[1]*my
	m[5] -= m[3]*mx + m[4]*my

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.NearestNeighbor.Transform(dst, m, src, b, draw.Src, nil)
	return dst
}
