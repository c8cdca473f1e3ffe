// Package pixbuf converts notification image payloads into one canonical PNG encoding.
//
// Two inputs are accepted: the raw pixel struct carried by the image-data and
// icon_data hints, and already-encoded image files in any format the decoder
// understands. Both are decoded to a bitmap and re-encoded with the same PNG
// settings, so identical pixels always produce identical bytes.
package pixbuf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

var (
	ErrUnsupportedDepth    = errors.New("unsupported bits per sample, only 8 is supported")
	ErrUnsupportedChannels = errors.New("unsupported channel count, only 3 (RGB) or 4 (RGBA) are supported")
	ErrInvalidSize         = errors.New("invalid image dimensions")
	ErrShortBuffer         = errors.New("pixel buffer shorter than dimensions require")
	ErrTooLarge            = errors.New("image exceeds pixel limit")
)

// MaxBlobPixels bounds the decoded size of encoded image files. The header is
// checked before any pixels are allocated.
const MaxBlobPixels = 4096 * 4096

// Raw is the unpacked (iiibiiay) image struct of the notification protocol.
type Raw struct {
	Width         int32  `json:"width"`
	Height        int32  `json:"height"`
	RowStride     int32  `json:"rowstride"`
	HasAlpha      bool   `json:"has_alpha"`
	BitsPerSample int32  `json:"bits_per_sample"`
	Channels      int32  `json:"channels"`
	Data          []byte `json:"data"`
}

// RGBA reports whether the buffer carries an alpha channel that is honoured.
// A fourth channel without the alpha flag is treated as padding.
func (r Raw) RGBA() bool {
	return r.HasAlpha && r.Channels == 4
}

// Validate checks the header against the supported formats and the buffer length.
func (r Raw) Validate() error {
	if r.BitsPerSample != 8 {
		return fmt.Errorf("%w (got %d)", ErrUnsupportedDepth, r.BitsPerSample)
	}
	if r.Channels != 3 && r.Channels != 4 {
		return fmt.Errorf("%w (got %d)", ErrUnsupportedChannels, r.Channels)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, r.Width, r.Height)
	}

	rowBytes := int64(r.Width) * int64(r.Channels)
	if int64(r.RowStride) < rowBytes {
		return fmt.Errorf("%w: row stride %d smaller than row of %d bytes", ErrInvalidSize, r.RowStride, rowBytes)
	}

	need := int64(r.Height-1)*int64(r.RowStride) + rowBytes
	if int64(len(r.Data)) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(r.Data), need)
	}
	return nil
}

// Image decodes the raw buffer into a bitmap.
func (r Raw) Image() (*image.NRGBA, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	w, h := int(r.Width), int(r.Height)
	stride, channels := int(r.RowStride), int(r.Channels)
	alpha := r.RGBA()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		row := r.Data[y*stride:]
		for x := range w {
			src := row[x*channels:]
			dst := img.Pix[img.PixOffset(x, y):]
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
			if alpha {
				dst[3] = src[3]
			} else {
				dst[3] = 0xff
			}
		}
	}
	return img, nil
}

// Canonicalizer produces canonical PNG bytes.
type Canonicalizer struct {
	// MaxDimension bounds the width and height of the output. Zero disables scaling.
	MaxDimension uint
}

// New creates a Canonicalizer. maxDimension of zero keeps images at their original size.
func New(maxDimension uint) *Canonicalizer {
	return &Canonicalizer{MaxDimension: maxDimension}
}

// Canonicalize validates and encodes a raw pixel buffer.
func (c *Canonicalizer) Canonicalize(raw Raw) ([]byte, error) {
	img, err := raw.Image()
	if err != nil {
		return nil, err
	}
	return c.encode(img)
}

// CanonicalizeBlob decodes an encoded image and re-encodes it, even when the
// input is already PNG.
func (c *Canonicalizer) CanonicalizeBlob(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode image: %w", ErrShortBuffer)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: %w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxBlobPixels {
		return nil, fmt.Errorf("decode image: %w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return c.encode(img)
}

func (c *Canonicalizer) encode(img image.Image) ([]byte, error) {
	if c != nil && c.MaxDimension > 0 {
		b := img.Bounds()
		if uint(b.Dx()) > c.MaxDimension || uint(b.Dy()) > c.MaxDimension { //nolint:gosec // bounds are positive
			img = resize.Thumbnail(c.MaxDimension, c.MaxDimension, img, resize.Lanczos3)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
