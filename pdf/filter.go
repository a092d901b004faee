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

package pdf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"seehuhn.de/go/imgpdf/internal/filter/asciihex"
	"seehuhn.de/go/imgpdf/internal/filter/dct"
)

// DecodeStream returns a reader for the decoded contents of a stream.
// The FlateDecode, ASCIIHexDecode and DCTDecode filters are supported;
// streams using other filters cause an error.  DCTDecode gives
// interleaved 8 bit samples, with the Adobe inversion of CMYK data undone.
func DecodeStream(g Getter, stm *Stream) (io.Reader, error) {
	filters, err := Resolve(g, stm.Dict["Filter"])
	if err != nil {
		return nil, err
	}
	params, err := Resolve(g, stm.Dict["DecodeParms"])
	if err != nil {
		return nil, err
	}

	var names []Object
	var parms []Object
	switch f := filters.(type) {
	case nil:
		// pass
	case Name:
		names = []Object{f}
		parms = []Object{params}
	case Array:
		names = f
		if p, ok := params.(Array); ok {
			parms = p
		}
	default:
		return nil, fmt.Errorf("invalid /Filter %s", Format(filters))
	}

	var r io.Reader = stm.R
	for i, name := range names {
		var p Object
		if i < len(parms) {
			p, err = Resolve(g, parms[i])
			if err != nil {
				return nil, err
			}
		}
		pDict, _ := p.(Dict)
		r, err = applyFilter(r, name, pDict)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func applyFilter(r io.Reader, name Object, param Dict) (io.Reader, error) {
	n, ok := name.(Name)
	if !ok {
		return nil, fmt.Errorf("invalid filter description %s", Format(name))
	}
	switch n {
	case "FlateDecode", "Fl":
		params := map[Name]int{
			"Predictor":        1,
			"Colors":           1,
			"BitsPerComponent": 8,
			"Columns":          1,
		}
		for key := range params {
			if val, ok := param[key].(Integer); ok {
				params[key] = int(val)
			}
		}
		zr, err := zlib.NewReader(bufio.NewReader(r))
		if err != nil {
			return nil, err
		}
		predictor := params["Predictor"]
		switch {
		case predictor == 1:
			return zr, nil
		case predictor >= 10 && predictor <= 15:
			bpp := (params["Colors"]*params["BitsPerComponent"] + 7) / 8
			rowBytes := (params["Colors"]*params["BitsPerComponent"]*params["Columns"] + 7) / 8
			if bpp < 1 || rowBytes < 1 {
				return nil, errors.New("invalid predictor parameters")
			}
			return &pngReader{
				r:    zr,
				bpp:  bpp,
				prev: make([]byte, rowBytes),
				cur:  make([]byte, 1+rowBytes),
			}, nil
		default:
			return nil, fmt.Errorf("unsupported predictor %d", predictor)
		}
	case "ASCIIHexDecode", "AHx":
		return asciihex.Decode(r), nil
	case "DCTDecode", "DCT":
		pix, _, err := dct.Decode(r)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(pix), nil
	default:
		return nil, fmt.Errorf("unsupported filter %q", n)
	}
}

// pngReader undoes the PNG predictors on a row-by-row basis.
type pngReader struct {
	r    io.Reader
	bpp  int
	prev []byte
	cur  []byte
	pend []byte
}

func (r *pngReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(r.pend) > 0 {
			m := copy(b, r.pend)
			n += m
			b = b[m:]
			r.pend = r.pend[m:]
			continue
		}

		_, err := io.ReadFull(r.r, r.cur)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil {
			return n, err
		}

		row := r.cur[1:]
		prev := r.prev
		bpp := r.bpp
		switch r.cur[0] {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < len(row); i++ {
				row[i] += row[i-bpp]
			}
		case 2: // Up
			for i := range row {
				row[i] += prev[i]
			}
		case 3: // Average
			for i := range row {
				var left int
				if i >= bpp {
					left = int(row[i-bpp])
				}
				row[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := range row {
				var a, c int
				if i >= bpp {
					a = int(row[i-bpp])
					c = int(prev[i-bpp])
				}
				row[i] += paeth(a, int(prev[i]), c)
			}
		default:
			return n, fmt.Errorf("invalid PNG predictor %d", r.cur[0])
		}
		copy(r.prev, row)
		r.pend = r.prev
	}
	return n, nil
}

func paeth(a, b, c int) byte {
	p := a + b - c
	pa := abs(p - a)
	pb := abs(p - b)
	pc := abs(p - c)
	if pa <= pb && pa <= pc {
		return byte(a)
	} else if pb <= pc {
		return byte(b)
	}
	return byte(c)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
