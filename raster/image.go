// seehuhn.de/go/imgpdf - convert raster images to PDF files
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package raster

import (
	"errors"
	"fmt"
)

// Image is a raster image held in memory.
type Image struct {
	Mode          Mode
	Width, Height int

	// Pix holds the pixel data, see the package documentation for the
	// layout.
	Pix []byte

	// Palette holds the RGB triples of a Paletted image.
	Palette []byte

	// Transparency optionally gives the alpha value for each palette
	// index.  Indices beyond the end of the slice are opaque.
	Transparency []byte
}

// New allocates a new image with all pixel bytes set to zero.
func New(mode Mode, width, height int) *Image {
	return &Image{
		Mode:   mode,
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*mode.Channels()),
	}
}

// NumFrames returns 1.  Together with [Image.Frame] this allows a single
// image to be used wherever a sequence of frames is expected.
func (img *Image) NumFrames() int {
	return 1
}

// Frame returns the image itself for i == 0.
func (img *Image) Frame(i int) (*Image, error) {
	if i != 0 {
		return nil, fmt.Errorf("frame %d out of range", i)
	}
	return img, nil
}

// Stride returns the number of bytes per row.
func (img *Image) Stride() int {
	return img.Width * img.Mode.Channels()
}

// NumColors returns the number of palette entries.
func (img *Image) NumColors() int {
	return len(img.Palette) / 3
}

// Check verifies that the image fields are consistent.
func (img *Image) Check() error {
	ch := img.Mode.Channels()
	if ch == 0 {
		return errMode
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", img.Width, img.Height)
	}
	if len(img.Pix) != img.Width*img.Height*ch {
		return fmt.Errorf("%s image %dx%d: expected %d pixel bytes, got %d",
			img.Mode, img.Width, img.Height, img.Width*img.Height*ch, len(img.Pix))
	}
	if img.Mode == Bilevel {
		for _, v := range img.Pix {
			if v != 0 && v != 255 {
				return errBilevel
			}
		}
	}
	if img.Mode == Paletted {
		n := img.NumColors()
		if n < 1 || n > 256 || len(img.Palette)%3 != 0 {
			return errPalette
		}
		if len(img.Transparency) > n {
			return errors.New("transparency table longer than palette")
		}
		for _, idx := range img.Pix {
			if int(idx) >= n {
				return fmt.Errorf("palette index %d out of range", idx)
			}
		}
	}
	return nil
}

var (
	errPalette = errors.New("palette must have between 1 and 256 RGB entries")
	errBilevel = errors.New("bilevel pixels must be 0 or 255")
)

// HasTransparency reports whether a Paletted image has a transparency
// table.
func (img *Image) HasTransparency() bool {
	return img.Mode == Paletted && len(img.Transparency) > 0
}

// Alpha extracts the alpha channel as a Gray image.  For Paletted images the
// alpha values are looked up in the transparency table.  If the image has
// no alpha information, nil is returned.
func (img *Image) Alpha() *Image {
	var res *Image
	switch {
	case img.Mode.HasAlpha():
		res = New(Gray, img.Width, img.Height)
		ch := img.Mode.Channels()
		for i := range res.Pix {
			res.Pix[i] = img.Pix[i*ch+ch-1]
		}
	case img.HasTransparency():
		res = New(Gray, img.Width, img.Height)
		for i, idx := range img.Pix {
			res.Pix[i] = img.paletteAlpha(idx)
		}
	default:
		return nil
	}
	return res
}

func (img *Image) paletteAlpha(idx byte) byte {
	if int(idx) < len(img.Transparency) {
		return img.Transparency[idx]
	}
	return 255
}

// Multi is a sequence of frames, for example the pages of a multi-page
// TIFF file or the frames of an animated GIF.
type Multi struct {
	Frames []*Image
}

// NumFrames returns the number of frames.
func (m *Multi) NumFrames() int {
	return len(m.Frames)
}

// Frame returns frame i.
func (m *Multi) Frame(i int) (*Image, error) {
	if i < 0 || i >= len(m.Frames) {
		return nil, fmt.Errorf("frame %d out of range", i)
	}
	return m.Frames[i], nil
}
