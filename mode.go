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
	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/imgpdf/raster"
)

// filterKind selects the codec used for an image stream.
type filterKind int

const (
	filterDCT filterKind = iota + 1
	filterFax
	filterFlate
	filterHex
)

// Name returns the PDF name of the filter.
func (f filterKind) Name() pdf.Name {
	switch f {
	case filterDCT:
		return "DCTDecode"
	case filterFax:
		return "CCITTFaxDecode"
	case filterFlate:
		return "FlateDecode"
	case filterHex:
		return "ASCIIHexDecode"
	default:
		return ""
	}
}

// modeInfo describes how images of a given colour mode are stored.
type modeInfo struct {
	filter     filterKind
	colorSpace pdf.Object
	procSet    pdf.Name
	bpc        int
	decode     pdf.Array

	// softMask is set if the alpha channel must be written as a separate
	// soft mask image.
	softMask bool

	// carrier is the mode the pixel data is converted to before encoding.
	carrier raster.Mode
}

// resolveMode determines how an image is stored in the PDF file.
// If fax is false, bilevel images are stored using DCT compression.
func resolveMode(img *raster.Image, fax bool) (*modeInfo, error) {
	switch img.Mode {
	case raster.Bilevel:
		if fax {
			return &modeInfo{
				filter:     filterFax,
				colorSpace: pdf.Name("DeviceGray"),
				procSet:    "ImageB",
				bpc:        1,
				carrier:    raster.Bilevel,
			}, nil
		}
		return &modeInfo{
			filter:     filterDCT,
			colorSpace: pdf.Name("DeviceGray"),
			procSet:    "ImageB",
			bpc:        8,
			carrier:    raster.Gray,
		}, nil

	case raster.Gray, raster.GrayAlpha:
		return &modeInfo{
			filter:     filterDCT,
			colorSpace: pdf.Name("DeviceGray"),
			procSet:    "ImageB",
			bpc:        8,
			softMask:   img.Mode == raster.GrayAlpha,
			carrier:    raster.Gray,
		}, nil

	case raster.Paletted:
		n := img.NumColors()
		if n < 1 || n > 256 {
			return nil, &OptionError{Field: "image", Reason: "palette must have between 1 and 256 entries"}
		}
		return &modeInfo{
			filter: filterHex,
			colorSpace: pdf.Array{
				pdf.Name("Indexed"),
				pdf.Name("DeviceRGB"),
				pdf.Integer(n - 1),
				pdf.String(img.Palette),
			},
			procSet:  "ImageI",
			bpc:      8,
			softMask: img.HasTransparency(),
			carrier:  raster.Paletted,
		}, nil

	case raster.RGB:
		return &modeInfo{
			filter:     filterDCT,
			colorSpace: pdf.Name("DeviceRGB"),
			procSet:    "ImageC",
			bpc:        8,
			carrier:    raster.RGB,
		}, nil

	case raster.RGBA:
		return &modeInfo{
			filter:     filterFlate,
			colorSpace: pdf.Name("DeviceRGB"),
			procSet:    "ImageC",
			bpc:        8,
			softMask:   true,
			carrier:    raster.RGB,
		}, nil

	case raster.CMYK:
		return &modeInfo{
			filter:     filterDCT,
			colorSpace: pdf.Name("DeviceCMYK"),
			procSet:    "ImageC",
			bpc:        8,
			decode: pdf.Array{
				pdf.Integer(1), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0),
				pdf.Integer(1), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0),
			},
			carrier: raster.CMYK,
		}, nil

	default:
		return nil, &UnsupportedModeError{Mode: img.Mode}
	}
}
