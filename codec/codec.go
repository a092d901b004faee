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

// Package codec provides the pixel encoders used for PDF image streams.
//
// A [Set] bundles one encoder per filter kind.  The set is passed
// explicitly to the code which writes images, so that callers can replace
// individual codecs, for example to disable fax compression.
package codec

import (
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/imgpdf/raster"
)

// Codec compresses the pixel data of an image.
type Codec interface {
	// Encode writes the compressed pixel data of img to w.
	Encode(w io.Writer, img *raster.Image) error
}

// Set holds the codecs available for writing image data.
// Fax may be nil, in which case bilevel images are stored using DCT.
type Set struct {
	DCT   Codec
	Fax   Codec
	Flate Codec
	Hex   Codec
}

// Default returns the set of codecs implemented by this package.
// A quality of zero selects the default JPEG quality.
func Default(quality int) *Set {
	return &Set{
		DCT:   &DCT{Quality: quality},
		Fax:   &Fax{},
		Flate: &Flate{},
		Hex:   &Hex{Width: 79},
	}
}

// Check verifies that all mandatory codecs are present.
func (s *Set) Check() error {
	if s == nil || s.DCT == nil || s.Flate == nil || s.Hex == nil {
		return errIncomplete
	}
	return nil
}

var errIncomplete = errors.New("codec set is incomplete")

// ModeError is returned when a codec is given an image in a mode it cannot
// encode.
type ModeError struct {
	Codec string
	Mode  raster.Mode
}

func (err *ModeError) Error() string {
	return fmt.Sprintf("%s codec cannot encode mode %s", err.Codec, err.Mode)
}
