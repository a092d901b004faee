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
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"seehuhn.de/go/imgpdf/internal/filter/ccittfax"
	"seehuhn.de/go/imgpdf/raster"
)

// Fax encodes Bilevel images using CCITT Group 4 compression.
//
// The output is a minimal little-endian TIFF file with a single strip:
// an 8 byte header, the compressed data, and the image file directory.
// White pixels are stored as 1 bits, so the data must be decoded with
// BlackIs1 set.
type Fax struct{}

// TIFFHeaderSize is the length of the TIFF header which precedes the
// compressed data in the output of [Fax.Encode].
const TIFFHeaderSize = 8

// Encode implements the [Codec] interface.
func (c *Fax) Encode(w io.Writer, img *raster.Image) error {
	if img.Mode != raster.Bilevel {
		return &ModeError{Codec: "fax", Mode: img.Mode}
	}

	data := &bytes.Buffer{}
	fw, err := ccittfax.NewWriter(data, &ccittfax.Params{
		K:        -1,
		Columns:  img.Width,
		MaxRows:  img.Height,
		BlackIs1: true,
	})
	if err != nil {
		return err
	}
	row := make([]byte, (img.Width+7)/8)
	for y := range img.Height {
		clear(row)
		for x, v := range img.Pix[y*img.Width : (y+1)*img.Width] {
			if v >= 128 {
				row[x/8] |= 0x80 >> (x % 8)
			}
		}
		if _, err := fw.Write(row); err != nil {
			return err
		}
	}
	if err := fw.Close(); err != nil {
		return err
	}

	ifdOffset := TIFFHeaderSize + data.Len()
	out := &bytes.Buffer{}
	out.WriteString("II*\x00")
	binary.Write(out, binary.LittleEndian, uint32(ifdOffset))
	out.Write(data.Bytes())

	type entry struct {
		tag, typ uint16
		value    uint32
	}
	const short, long = 3, 4
	ifd := []entry{
		{256, long, uint32(img.Width)},  // ImageWidth
		{257, long, uint32(img.Height)}, // ImageLength
		{258, short, 1},                 // BitsPerSample
		{259, short, 4},                 // Compression: CCITT T.6
		{262, short, 1},                 // PhotometricInterpretation: BlackIsZero
		{273, long, TIFFHeaderSize},     // StripOffsets
		{278, long, uint32(img.Height)}, // RowsPerStrip
		{279, long, uint32(data.Len())}, // StripByteCounts
	}
	binary.Write(out, binary.LittleEndian, uint16(len(ifd)))
	for _, e := range ifd {
		binary.Write(out, binary.LittleEndian, e.tag)
		binary.Write(out, binary.LittleEndian, e.typ)
		binary.Write(out, binary.LittleEndian, uint32(1))
		if e.typ == short {
			binary.Write(out, binary.LittleEndian, uint16(e.value))
			binary.Write(out, binary.LittleEndian, uint16(0))
		} else {
			binary.Write(out, binary.LittleEndian, e.value)
		}
	}
	binary.Write(out, binary.LittleEndian, uint32(0)) // no next IFD

	_, err = w.Write(out.Bytes())
	return err
}

// StripData returns the compressed image data contained in the output of
// [Fax.Encode], by removing the TIFF header and the trailing image file
// directory.
func StripData(tiff []byte) ([]byte, error) {
	if len(tiff) < TIFFHeaderSize || string(tiff[:4]) != "II*\x00" {
		return nil, errNoTIFF
	}
	end := int(binary.LittleEndian.Uint32(tiff[4:8]))
	if end < TIFFHeaderSize || end > len(tiff) {
		return nil, errNoTIFF
	}
	return tiff[TIFFHeaderSize:end], nil
}

var errNoTIFF = errors.New("fax codec output is not a TIFF file")
