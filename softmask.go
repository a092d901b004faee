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

package imgpdf

import (
	"errors"

	"seehuhn.de/go/imgpdf/codec"
	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/imgpdf/raster"
)

// encodeSoftMask extracts the alpha channel of img and encodes it as an
// 8 bit DeviceGray image with object number ref.
func encodeSoftMask(codecs *codec.Set, img *raster.Image, ref pdf.Reference) (*encodedImage, error) {
	alpha := img.Alpha()
	if alpha == nil {
		return nil, errNoAlpha
	}
	// A gray image never needs a mask of its own, so the recursion ends here.
	return encodeImage(codecs, alpha, ref, 0)
}

var errNoAlpha = errors.New("image has no alpha channel")
