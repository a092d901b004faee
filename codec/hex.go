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

package codec

import (
	"io"

	"seehuhn.de/go/imgpdf/internal/filter/asciihex"
	"seehuhn.de/go/imgpdf/raster"
)

// Hex writes the pixel bytes of an image in ASCII hexadecimal form,
// terminated by ">".
type Hex struct {
	// Width is the maximal line length of the output.
	Width int
}

// Encode implements the [Codec] interface.
func (c *Hex) Encode(w io.Writer, img *raster.Image) error {
	hw := asciihex.Encode(nopCloser{w}, c.Width)
	_, err := hw.Write(img.Pix)
	if err != nil {
		return err
	}
	return hw.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}
