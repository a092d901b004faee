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

package dct

import (
	"image"
	"image/color"
	"image/jpeg"
	"io"
)

// Decode decodes JPEG data from r and returns the raw pixel bytes together
// with the number of channels.
//
// The output contains interleaved channel bytes, row by row, with no padding.
// Gray images give one byte per pixel and CMYK images give four bytes per
// pixel, with the values as seen by a PDF viewer using the Decode array
// [1 0 1 0 1 0 1 0].  All other images are converted to RGB.
func Decode(r io.Reader) ([]byte, int, error) {
	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, 0, err
	}

	b := img.Bounds()
	w := b.Dx()

	switch img := img.(type) {
	case *image.Gray:
		buf := make([]byte, 0, w*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			buf = append(buf, img.Pix[off:off+w]...)
		}
		return buf, 1, nil

	case *image.CMYK:
		// image/jpeg has already undone the Adobe inversion
		buf := make([]byte, 0, 4*w*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			buf = append(buf, img.Pix[off:off+4*w]...)
		}
		return buf, 4, nil

	default:
		buf := make([]byte, 0, 3*w*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				buf = append(buf, c.R, c.G, c.B)
			}
		}
		return buf, 3, nil
	}
}
