package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/skncr-ai/scanner/internal/camera"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const (
	// MIMEType of every still produced by Capture
	MIMEType = "image/jpeg"

	// DefaultMaxDimension bounds the longest edge of a still
	DefaultMaxDimension = 1536

	// FaceQuality favours a smaller payload for selfies
	FaceQuality = 80
	// ProductQuality favours legibility of ingredient text
	ProductQuality = 85
)

// Options controls how a frame is frozen into a still
type Options struct {
	Quality      int  // JPEG quality 1-100
	Mirror       bool // flip horizontally, for front-facing streams
	MaxDimension int  // downscale the longest edge to this size; 0 keeps the original size
}

// Image is an encoded still
type Image struct {
	Data       []byte
	MIMEType   string
	Width      int
	Height     int
	CapturedAt time.Time
}

// Base64 returns the standard base64 encoding of the still
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the still as a data URL
func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// Capture freezes the stream's current frame. It returns (nil, nil) when the stream
// has no decoded frame yet, so callers can ignore premature capture requests.
// Stills from a front-facing stream are mirrored; opts.Mirror is ignored.
func Capture(s camera.Stream, opts Options) (*Image, error) {
	if s == nil || !s.Ready() {
		return nil, nil
	}
	opts.Mirror = s.Facing() == camera.FacingUser

	frame, err := s.Frame()
	if err != nil {
		if errors.Is(err, camera.ErrNoFrame) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	return Encode(frame, opts)
}

// Encode turns a frame into a JPEG still
func Encode(frame image.Image, opts Options) (*Image, error) {
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("frame is empty")
	}

	img := frame
	if opts.MaxDimension > 0 {
		img = downscale(img, opts.MaxDimension)
	}
	if opts.Mirror {
		img = mirror(img)
	}

	quality := opts.Quality
	switch {
	case quality <= 0:
		quality = jpeg.DefaultQuality
	case quality > 100:
		quality = 100
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode still: %w", err)
	}

	b := img.Bounds()
	return &Image{
		Data:       buf.Bytes(),
		MIMEType:   MIMEType,
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: time.Now(),
	}, nil
}

func mirror(img image.Image) image.Image {
	b := img.Bounds()
	return camera.Transform(img, b.Dx(), b.Dy(), f64.Aff3{-1, 0, float64(b.Dx()), 0, 1, 0})
}

// downscale keeps the aspect ratio while bounding the longest edge
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = h * maxDim / w
	} else {
		nh = maxDim
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
