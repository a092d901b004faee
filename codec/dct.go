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
	"image"
	"io"

	"seehuhn.de/go/imgpdf/internal/filter/dct"
	"seehuhn.de/go/imgpdf/raster"
)

// DCT encodes Gray, RGB and CMYK images as baseline JPEG data.
// CMYK samples are stored inverted.
type DCT struct {
	// Quality ranges from 1 to 100.  Zero selects [dct.DefaultQuality].
	Quality int
}

// Encode implements the [Codec] interface.
func (c *DCT) Encode(w io.Writer, img *raster.Image) error {
	rect := image.Rect(0, 0, img.Width, img.Height)

	var src image.Image
	switch img.Mode {
	case raster.Gray:
		src = &image.Gray{Pix: img.Pix, Stride: img.Stride(), Rect: rect}
	case raster.CMYK:
		src = &image.CMYK{Pix: img.Pix, Stride: img.Stride(), Rect: rect}
	case raster.RGB:
		rgba := image.NewRGBA(rect)
		for i := range img.Width * img.Height {
			copy(rgba.Pix[4*i:], img.Pix[3*i:3*i+3])
			rgba.Pix[4*i+3] = 255
		}
		src = rgba
	default:
		return &ModeError{Codec: "DCT", Mode: img.Mode}
	}

	return dct.Encode(w, src, c.Quality)
}
