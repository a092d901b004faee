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

package ccittfax

import "errors"

// Params holds the parameters for the CCITTFaxDecode filter.
type Params struct {
	// K selects the encoding scheme: K < 0 is pure two-dimensional
	// encoding (Group 4), K = 0 is pure one-dimensional encoding (Group 3,
	// 1-D), K > 0 is mixed encoding where at most K-1 lines are encoded
	// two-dimensionally after each one-dimensionally encoded line.
	K int

	// Columns is the width of the image in pixels.
	Columns int

	// MaxRows limits the number of rows which may be written.
	// Zero means no limit.
	MaxRows int

	// EndOfLine indicates that each line is preceded by an end-of-line bit
	// pattern.  This is only used for Group 3 encoding.
	EndOfLine bool

	// EncodedByteAlign causes each encoded line to start at a byte boundary.
	EncodedByteAlign bool

	// BlackIs1 indicates that 1 bits represent black pixels.  If this is
	// false, 0 bits represent black pixels.
	BlackIs1 bool

	// IgnoreEndOfBlock omits the end-of-block pattern (EOFB for Group 4,
	// RTC for Group 3) at the end of the data.
	IgnoreEndOfBlock bool
}

var (
	errTooManyRows   = errors.New("ccittfax: too many rows")
	errInvalidParams = errors.New("ccittfax: invalid parameters")
)
