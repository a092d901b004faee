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
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestCMYKRoundTrip(t *testing.T) {
	for _, quality := range []int{0, 50, 95, 100} {
		img := image.NewCMYK(image.Rect(0, 0, 21, 13)) // not a multiple of 8
		for y := range 13 {
			for x := range 21 {
				img.SetCMYK(x, y, color.CMYK{
					C: uint8(10 * x),
					M: uint8(15 * y),
					Y: 200,
					K: uint8(5 * (x + y)),
				})
			}
		}

		buf := &bytes.Buffer{}
		err := Encode(buf, img, quality)
		if err != nil {
			t.Fatal(err)
		}

		pix, channels, err := Decode(buf)
		if err != nil {
			t.Fatal(err)
		}
		if channels != 4 {
			t.Fatalf("quality %d: got %d channels, want 4", quality, channels)
		}
		if len(pix) != len(img.Pix) {
			t.Fatalf("quality %d: got %d bytes, want %d", quality, len(pix), len(img.Pix))
		}

		tol := 32
		if quality >= 95 {
			tol = 8
		}
		for i := range pix {
			if d := int(pix[i]) - int(img.Pix[i]); d > tol || d < -tol {
				t.Fatalf("quality %d: sample %d: got %d, want %d", quality, i, pix[i], img.Pix[i])
			}
		}
	}
}

func TestFlatCMYK(t *testing.T) {
	img := image.NewCMYK(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []byte{0, 255, 255, 0}) // red
	}

	buf := &bytes.Buffer{}
	err := Encode(buf, img, 90)
	if err != nil {
		t.Fatal(err)
	}

	pix, _, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range pix {
		want := img.Pix[i]
		if d := int(c) - int(want); d > 1 || d < -1 {
			t.Fatalf("sample %d: got %d, want %d", i, c, want)
		}
	}
}

func TestGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 2)
	}

	buf := &bytes.Buffer{}
	err := Encode(buf, img, 90)
	if err != nil {
		t.Fatal(err)
	}
	pix, channels, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if channels != 1 || len(pix) != 100 {
		t.Fatalf("got %d channels and %d bytes", channels, len(pix))
	}
}

func TestQualityRange(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	for _, q := range []int{-1, 101} {
		err := Encode(&bytes.Buffer{}, img, q)
		if err != errQuality {
			t.Errorf("quality %d: got %v, want errQuality", q, err)
		}
	}
}
