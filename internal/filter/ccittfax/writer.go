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

import (
	"bufio"
	"fmt"
	"io"
)

// Writer encodes data using CCITT Fax compression.
//
// Data is written row by row, each row packed to one bit per pixel with
// the most significant bit first and padded to a whole number of bytes.
type Writer struct {
	p      Params
	w      *bufio.Writer
	closed bool

	lineBytes int
	line      []byte
	numRows   int

	// colour of each pixel of the current and the reference line,
	// 0 = white and 1 = black
	cur []byte
	ref []byte

	byteVal   byte
	validBits int

	kCounter int
}

type encodeNode struct {
	Code  uint32
	Width uint8
}

// NewWriter creates a new CCITT Fax encoder with the given parameters.
func NewWriter(w io.Writer, p *Params) (*Writer, error) {
	pCopy := *p
	if pCopy.Columns == 0 {
		pCopy.Columns = 1728
	}
	if pCopy.Columns < 0 || pCopy.MaxRows < 0 {
		return nil, errInvalidParams
	}

	lineBytes := (pCopy.Columns + 7) / 8
	out := &Writer{
		w:         bufio.NewWriter(w),
		p:         pCopy,
		lineBytes: lineBytes,
		line:      make([]byte, 0, lineBytes),
		cur:       make([]byte, pCopy.Columns),
		ref:       make([]byte, pCopy.Columns), // imaginary all-white line
	}
	return out, nil
}

// Write adds image data to the encoded stream.  Rows may be split across
// calls to Write.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	for len(p) > 0 {
		if w.p.MaxRows > 0 && w.numRows >= w.p.MaxRows {
			return n, errTooManyRows
		}

		k := min(w.lineBytes-len(w.line), len(p))
		w.line = append(w.line, p[:k]...)
		p = p[k:]
		n += k

		if len(w.line) == w.lineBytes {
			err = w.writeRow()
			if err != nil {
				return n, err
			}
			w.line = w.line[:0]
			w.numRows++
		}
	}
	return n, nil
}

// Close finalizes the CCITT Fax stream.  Any incomplete last row is
// discarded.  The underlying writer is not closed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if !w.p.IgnoreEndOfBlock {
		if w.p.K < 0 {
			// EOFB: two consecutive EOL codes
			if err := w.writeBits(0b000000000001_000000000001, 24); err != nil {
				return err
			}
		} else if w.p.EndOfLine {
			// RTC: six consecutive EOL codes
			for range 6 {
				if err := w.writeBits(0b000000000001, 12); err != nil {
					return err
				}
				if w.p.K > 0 {
					if err := w.writeBits(1, 1); err != nil {
						return err
					}
				}
			}
		}
	}

	return w.flushBits()
}

func (w *Writer) writeBits(code uint32, length uint8) error {
	if length > 32 {
		return fmt.Errorf("writeBits: invalid length %d", length)
	}
	if length == 0 {
		return nil
	}

	for bit := uint32(1) << (length - 1); bit > 0; bit >>= 1 {
		if code&bit != 0 {
			w.byteVal |= 1 << (7 - w.validBits)
		}
		w.validBits++

		if w.validBits >= 8 {
			if err := w.w.WriteByte(w.byteVal); err != nil {
				return err
			}
			w.byteVal = 0
			w.validBits = 0
		}
	}
	return nil
}

func (w *Writer) writeCode(node encodeNode) error {
	return w.writeBits(node.Code, node.Width)
}

func (w *Writer) flushBits() error {
	if w.validBits > 0 {
		if err := w.w.WriteByte(w.byteVal); err != nil {
			return err
		}
		w.byteVal = 0
		w.validBits = 0
	}
	return w.w.Flush()
}

func (w *Writer) writeRow() error {
	// unpack the row into one colour value per pixel
	var blackBit byte
	if w.p.BlackIs1 {
		blackBit = 1
	}
	for x := range w.cur {
		bit := (w.line[x/8] >> (7 - x%8)) & 1
		if bit == blackBit {
			w.cur[x] = 1
		} else {
			w.cur[x] = 0
		}
	}

	if w.p.EndOfLine && w.p.K >= 0 {
		if err := w.writeBits(0b000000000001, 12); err != nil {
			return err
		}
		// tag bit for mixed encoding: 1 = next line is 1-D, 0 = 2-D
		if w.p.K > 0 {
			var tagBit uint32
			if w.kCounter == 0 {
				tagBit = 1
			}
			if err := w.writeBits(tagBit, 1); err != nil {
				return err
			}
		}
	}

	var err error
	switch {
	case w.p.K < 0:
		err = w.encode2DLine()
	case w.p.K == 0:
		err = w.encode1DLine()
	case w.kCounter > 0:
		err = w.encode2DLine()
		w.kCounter--
	default:
		err = w.encode1DLine()
		w.kCounter = w.p.K - 1
	}
	if err != nil {
		return err
	}

	if w.p.EncodedByteAlign && w.validBits > 0 {
		if err := w.writeBits(0, uint8(8-w.validBits)); err != nil {
			return err
		}
	}

	w.cur, w.ref = w.ref, w.cur
	return nil
}

func (w *Writer) encode1DLine() error {
	var colour byte // lines start with a white run
	a0 := -1
	for a0 < w.p.Columns {
		a1 := nextChange(w.cur, a0)
		if err := w.encodeRun(a1-max(a0, 0), colour); err != nil {
			return err
		}
		a0 = a1
		colour = 1 - colour
	}
	return nil
}

// encode2DLine encodes the current line relative to the reference line,
// using the two-dimensional coding scheme of ITU-T T.4 / T.6.
func (w *Writer) encode2DLine() error {
	cols := w.p.Columns
	a0 := -1 // imaginary white pixel before the start of the line
	var colour byte

	for a0 < cols {
		a1 := nextChange(w.cur, a0)

		b1 := nextChange(w.ref, a0)
		for b1 < cols && w.ref[b1] == colour {
			b1 = nextChange(w.ref, b1)
		}
		b2 := cols
		if b1 < cols {
			b2 = nextChange(w.ref, b1)
		}

		if b2 < a1 {
			// pass mode
			if err := w.writeBits(0b0001, 4); err != nil {
				return err
			}
			a0 = b2
			continue
		}

		if delta := a1 - b1; delta >= -3 && delta <= 3 {
			if err := w.writeCode(verticalCodes[delta+3]); err != nil {
				return err
			}
			a0 = a1
			colour = 1 - colour
			continue
		}

		// horizontal mode
		if err := w.writeBits(0b001, 3); err != nil {
			return err
		}
		a2 := cols
		if a1 < cols {
			a2 = nextChange(w.cur, a1)
		}
		if err := w.encodeRun(a1-max(a0, 0), colour); err != nil {
			return err
		}
		if err := w.encodeRun(a2-a1, 1-colour); err != nil {
			return err
		}
		a0 = a2
	}
	return nil
}

// nextChange returns the position of the first changing element after
// position x, i.e. the smallest x' > x where the colour differs from the
// pixel to its left.  The pixel at position -1 is white.  If there is no
// such element, the line width is returned.
func nextChange(line []byte, x int) int {
	var prev byte
	if x >= 0 {
		prev = line[x]
	}
	for i := x + 1; i < len(line); i++ {
		if line[i] != prev {
			return i
		}
	}
	return len(line)
}

// encodeRun writes the code words for a run of the given length and colour.
func (w *Writer) encodeRun(runLength int, colour byte) error {
	for runLength >= 2560 {
		if err := w.writeCode(extMakeupTable[len(extMakeupTable)-1]); err != nil {
			return err
		}
		runLength -= 2560
	}

	if runLength >= 1792 {
		idx := (runLength - 1792) / 64
		if err := w.writeCode(extMakeupTable[idx]); err != nil {
			return err
		}
		runLength -= 1792 + 64*idx
	} else if runLength >= 64 {
		idx := runLength/64 - 1
		var node encodeNode
		if colour == 0 {
			node = whiteMakeupTable[idx]
		} else {
			node = blackMakeupTable[idx]
		}
		if err := w.writeCode(node); err != nil {
			return err
		}
		runLength -= 64 * (idx + 1)
	}

	if colour == 0 {
		return w.writeCode(whiteTermTable[runLength])
	}
	return w.writeCode(blackTermTable[runLength])
}

// verticalCodes are the codes for vertical mode, indexed by a1-b1+3.
var verticalCodes = [7]encodeNode{
	{0b0000010, 7}, // VL3
	{0b000010, 6},  // VL2
	{0b010, 3},     // VL1
	{0b1, 1},       // V0
	{0b011, 3},     // VR1
	{0b000011, 6},  // VR2
	{0b0000011, 7}, // VR3
}

var (
	whiteTermTable   = compileCodes(whiteTermCodes[:])
	blackTermTable   = compileCodes(blackTermCodes[:])
	whiteMakeupTable = compileCodes(whiteMakeupCodes[:])
	blackMakeupTable = compileCodes(blackMakeupCodes[:])
	extMakeupTable   = compileCodes(extMakeupCodes[:])
)

func compileCodes(codes []string) []encodeNode {
	res := make([]encodeNode, len(codes))
	for i, code := range codes {
		var x uint32
		for _, c := range code {
			x = x<<1 | uint32(c-'0')
		}
		res[i] = encodeNode{Code: x, Width: uint8(len(code))}
	}
	return res
}
