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

// Package dct implements the DCTDecode filter used for JPEG images in PDF
// files.
//
// Gray and colour images are encoded with the standard library.  CMYK
// images are encoded by a small baseline encoder in this package, since
// image/jpeg cannot write four-component images.  Following the Adobe
// convention, CMYK samples are stored inverted, so that PDF image
// dictionaries for such data need a Decode array of [1 0 1 0 1 0 1 0].
package dct

import (
	"bufio"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"math"
)

// DefaultQuality is the quality used when zero is passed to [Encode].
const DefaultQuality = 75

// Encode writes img to w as a baseline JPEG file.
// The quality ranges from 1 to 100; zero selects [DefaultQuality].
func Encode(w io.Writer, img image.Image, quality int) error {
	if quality == 0 {
		quality = DefaultQuality
	}
	if quality < 1 || quality > 100 {
		return errQuality
	}
	if cmyk, ok := img.(*image.CMYK); ok {
		return encodeCMYK(w, cmyk, quality)
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

var (
	errQuality = errors.New("dct: quality out of range")
	errSize    = errors.New("dct: invalid image size")
)

func encodeCMYK(w io.Writer, img *image.CMYK, quality int) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 || width >= 1<<16 || height >= 1<<16 {
		return errSize
	}

	e := &cmykEncoder{w: bufio.NewWriter(w)}
	e.quant = scaleQuant(quality)

	e.writeHeaders(width, height)

	var block [64]float64
	var prevDC [4]int
	for by := 0; by < height; by += 8 {
		for bx := 0; bx < width; bx += 8 {
			for c := range 4 {
				for y := range 8 {
					sy := b.Min.Y + min(by+y, height-1)
					for x := range 8 {
						sx := b.Min.X + min(bx+x, width-1)
						v := img.Pix[img.PixOffset(sx, sy)+c]
						block[8*y+x] = float64(255-v) - 128
					}
				}
				prevDC[c] = e.writeBlock(&block, prevDC[c])
			}
		}
	}
	e.padBits()
	e.write([]byte{0xFF, 0xD9}) // EOI

	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

type cmykEncoder struct {
	w     *bufio.Writer
	err   error
	quant [64]int // natural order

	bits  uint32
	nBits uint
}

func (e *cmykEncoder) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *cmykEncoder) writeMarker(marker byte, payload []byte) {
	n := len(payload) + 2
	e.write([]byte{0xFF, marker, byte(n >> 8), byte(n)})
	e.write(payload)
}

func (e *cmykEncoder) writeHeaders(width, height int) {
	e.write([]byte{0xFF, 0xD8}) // SOI

	// APP14 "Adobe", version 100, no flags, transform 0 (CMYK)
	e.writeMarker(0xEE, []byte{'A', 'd', 'o', 'b', 'e', 0, 100, 0, 0, 0, 0, 0})

	dqt := make([]byte, 65)
	for k, n := range unzig {
		dqt[1+k] = byte(e.quant[n])
	}
	e.writeMarker(0xDB, dqt)

	sof := []byte{8, byte(height >> 8), byte(height), byte(width >> 8), byte(width), 4}
	for c := range 4 {
		sof = append(sof, byte(c+1), 0x11, 0)
	}
	e.writeMarker(0xC0, sof)

	var dht []byte
	dht = append(dht, 0x00)
	dht = append(dht, dcSpec.count[:]...)
	dht = append(dht, dcSpec.value...)
	dht = append(dht, 0x10)
	dht = append(dht, acSpec.count[:]...)
	dht = append(dht, acSpec.value...)
	e.writeMarker(0xC4, dht)

	sos := []byte{4}
	for c := range 4 {
		sos = append(sos, byte(c+1), 0x00)
	}
	sos = append(sos, 0, 63, 0)
	e.writeMarker(0xDA, sos)
}

// writeBlock transforms, quantizes and entropy codes one 8x8 block of level
// shifted samples.  It returns the quantized DC coefficient.
func (e *cmykEncoder) writeBlock(block *[64]float64, prevDC int) int {
	var coef [64]float64
	fdct(&coef, block)

	var q [64]int
	for n := range 64 {
		v := int(math.Round(coef[n] / float64(e.quant[n])))
		q[n] = min(max(v, -1023), 1023)
	}

	dc := q[0]
	e.emitValue(dcTable, 0, dc-prevDC)

	run := 0
	for _, n := range unzig[1:] {
		v := q[n]
		if v == 0 {
			run++
			continue
		}
		for run > 15 {
			e.emitHuff(acTable, 0xF0)
			run -= 16
		}
		e.emitValue(acTable, run, v)
		run = 0
	}
	if run > 0 {
		e.emitHuff(acTable, 0x00)
	}
	return dc
}

// emitValue writes the Huffman code for (run, size) followed by the size
// extra bits encoding v.
func (e *cmykEncoder) emitValue(table *huffTable, run, v int) {
	a, b := v, v
	if v < 0 {
		a = -v
		b = v - 1
	}
	size := 0
	for a > 0 {
		size++
		a >>= 1
	}
	e.emitHuff(table, byte(run<<4|size))
	if size > 0 {
		e.emit(uint32(b)&(1<<size-1), uint(size))
	}
}

func (e *cmykEncoder) emitHuff(table *huffTable, sym byte) {
	code := table[sym]
	e.emit(code.code, uint(code.length))
}

// emit appends n bits to the entropy coded segment, stuffing a zero byte
// after every 0xFF.
func (e *cmykEncoder) emit(bits uint32, n uint) {
	e.bits = e.bits<<n | bits
	e.nBits += n
	for e.nBits >= 8 {
		e.nBits -= 8
		c := byte(e.bits >> e.nBits)
		if c == 0xFF {
			e.write([]byte{0xFF, 0x00})
		} else {
			e.write([]byte{c})
		}
	}
	e.bits &= 1<<e.nBits - 1
}

func (e *cmykEncoder) padBits() {
	if e.nBits > 0 {
		e.emit(1<<(8-e.nBits)-1, 8-e.nBits)
	}
}

// fdct computes the two-dimensional forward DCT of an 8x8 block.
func fdct(dst, src *[64]float64) {
	var tmp [64]float64
	for y := range 8 {
		for u := range 8 {
			var s float64
			for x := range 8 {
				s += src[8*y+x] * cosTable[x][u]
			}
			tmp[8*y+u] = s
		}
	}
	for v := range 8 {
		for u := range 8 {
			var s float64
			for y := range 8 {
				s += tmp[8*y+u] * cosTable[y][v]
			}
			dst[8*v+u] = s / 4
		}
	}
}

// cosTable[x][u] = C(u) cos((2x+1)uπ/16)
var cosTable = func() [8][8]float64 {
	var res [8][8]float64
	for x := range 8 {
		for u := range 8 {
			c := 1.0
			if u == 0 {
				c = 1 / math.Sqrt2
			}
			res[x][u] = c * math.Cos(float64(2*x+1)*float64(u)*math.Pi/16)
		}
	}
	return res
}()

// scaleQuant returns the luminance quantization table for the given
// quality, using the IJG scaling.
func scaleQuant(quality int) [64]int {
	scale := 200 - 2*quality
	if quality < 50 {
		scale = 5000 / quality
	}
	var res [64]int
	for i, base := range baseQuant {
		res[i] = min(max((base*scale+50)/100, 1), 255)
	}
	return res
}

// baseQuant is the luminance quantization table from Annex K of the JPEG
// standard, in natural order.
var baseQuant = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

// unzig maps from the zig-zag ordering to the natural ordering.
var unzig = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}
