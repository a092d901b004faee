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

// Package raster provides an in-memory model of raster images with
// an explicit colour mode, as consumed by the PDF image writer.
//
// Pixel data is stored as one byte per channel, row by row, without
// padding.  Bilevel images use one byte per pixel with the values 0 (black)
// and 255 (white).
package raster

import (
	"errors"
	"fmt"
)

// Mode describes how the pixel bytes of an [Image] are to be interpreted.
type Mode int

// These are the supported colour modes.
const (
	Bilevel   Mode = iota + 1 // 1 bit black and white, stored as 0/255
	Gray                      // 8 bit gray
	GrayAlpha                 // 8 bit gray with 8 bit alpha
	Paletted                  // 8 bit palette indices
	RGB                       // 3x8 bit true colour
	RGBA                      // 3x8 bit true colour with 8 bit alpha
	CMYK                      // 4x8 bit colour separation
	HSV                       // 3x8 bit hue, saturation, value
	LAB                       // 3x8 bit L*a*b*
	YCbCr                     // 3x8 bit luma and chroma
	I16                       // 16 bit gray, big endian
)

var modeNames = map[Mode]string{
	Bilevel:   "1",
	Gray:      "L",
	GrayAlpha: "LA",
	Paletted:  "P",
	RGB:       "RGB",
	RGBA:      "RGBA",
	CMYK:      "CMYK",
	HSV:       "HSV",
	LAB:       "LAB",
	YCbCr:     "YCbCr",
	I16:       "I;16",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name like "RGB" or "LA" into a Mode.
func ParseMode(name string) (Mode, error) {
	for m, s := range modeNames {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown image mode %q", name)
}

// Channels returns the number of bytes used per pixel.
func (m Mode) Channels() int {
	switch m {
	case Bilevel, Gray, Paletted:
		return 1
	case GrayAlpha, I16:
		return 2
	case RGB, HSV, LAB, YCbCr:
		return 3
	case RGBA, CMYK:
		return 4
	default:
		return 0
	}
}

// HasAlpha reports whether images of this mode carry an alpha channel.
// Paletted images may have transparency, but this is described by
// the palette and not by the mode.
func (m Mode) HasAlpha() bool {
	return m == GrayAlpha || m == RGBA
}

var errMode = errors.New("invalid image mode")
