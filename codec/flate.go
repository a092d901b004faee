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

	"github.com/klauspost/compress/zlib"

	"seehuhn.de/go/imgpdf/raster"
)

// Flate compresses the raw pixel bytes using zlib.
type Flate struct {
	// Level is the compression level.  Zero selects the best compression.
	Level int
}

// Encode implements the [Codec] interface.
func (c *Flate) Encode(w io.Writer, img *raster.Image) error {
	level := c.Level
	if level == 0 {
		level = zlib.BestCompression
	}
	zw, err := zlib.NewWriterLevel(w, level)
	if err != nil {
		return err
	}
	_, err = zw.Write(img.Pix)
	if err != nil {
		return err
	}
	return zw.Close()
}
