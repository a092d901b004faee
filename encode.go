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
	"bytes"
	"errors"

	"seehuhn.de/go/imgpdf/codec"
	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/imgpdf/raster"
)

// encodedImage is a compressed image XObject, ready to be written to the
// PDF file.
type encodedImage struct {
	ref           pdf.Reference
	width, height int

	filter      filterKind
	colorSpace  pdf.Object
	bpc         int
	decode      pdf.Array
	decodeParms pdf.Dict

	mask *encodedImage
	data []byte
}

// encodeImage compresses the pixel data of img for the object ref.  If the
// colour mode requires a soft mask, the alpha channel is encoded as a second
// image with object number maskRef.
//
// The function only reads its arguments and can be called for the soft
// mask itself.
func encodeImage(codecs *codec.Set, img *raster.Image, ref, maskRef pdf.Reference) (*encodedImage, error) {
	info, err := resolveMode(img, codecs.Fax != nil)
	if err != nil {
		return nil, err
	}

	res := &encodedImage{
		ref:        ref,
		width:      img.Width,
		height:     img.Height,
		filter:     info.filter,
		colorSpace: info.colorSpace,
		bpc:        info.bpc,
		decode:     info.decode,
	}

	if info.softMask {
		if maskRef == 0 {
			return nil, errMaskNotPlanned
		}
		res.mask, err = encodeSoftMask(codecs, img, maskRef)
		if err != nil {
			return nil, err
		}
	}

	carrier := img
	if img.Mode != info.carrier {
		carrier, err = img.Convert(info.carrier)
		if err != nil {
			return nil, err
		}
	}

	var c codec.Codec
	switch info.filter {
	case filterDCT:
		c = codecs.DCT
	case filterFax:
		c = codecs.Fax
	case filterFlate:
		c = codecs.Flate
	case filterHex:
		c = codecs.Hex
	}

	buf := &bytes.Buffer{}
	err = c.Encode(buf, carrier)
	if err != nil {
		return nil, &CodecError{Filter: info.filter.Name(), Err: err}
	}
	res.data = buf.Bytes()

	if info.filter == filterFax {
		res.data, err = codec.StripData(res.data)
		if err != nil {
			return nil, &CodecError{Filter: info.filter.Name(), Err: err}
		}
		res.decodeParms = pdf.Dict{
			"K":        pdf.Integer(-1),
			"BlackIs1": pdf.Bool(true),
			"Columns":  pdf.Integer(img.Width),
			"Rows":     pdf.Integer(img.Height),
		}
	}

	return res, nil
}

var errMaskNotPlanned = errors.New("no object number reserved for soft mask")

// write writes the image to the PDF file.  The soft mask, if any, is
// written first.
func (img *encodedImage) write(w pdf.Putter) error {
	if img.mask != nil {
		err := img.mask.write(w)
		if err != nil {
			return err
		}
	}

	dict := pdf.Dict{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(img.width),
		"Height":           pdf.Integer(img.height),
		"ColorSpace":       img.colorSpace,
		"BitsPerComponent": pdf.Integer(img.bpc),
		"Filter":           img.filter.Name(),
	}
	if img.decode != nil {
		dict["Decode"] = img.decode
	}
	if img.decodeParms != nil {
		dict["Filter"] = pdf.Array{img.filter.Name()}
		dict["DecodeParms"] = pdf.Array{img.decodeParms}
	}
	if img.mask != nil {
		dict["SMask"] = img.mask.ref
	}

	stm, err := w.OpenStream(img.ref, dict)
	if err != nil {
		return err
	}
	_, err = stm.Write(img.data)
	if err != nil {
		return err
	}
	return stm.Close()
}
