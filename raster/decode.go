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

package raster

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	// register the supported input formats
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FromImage converts a Go image into an [Image].
//
// The mode is chosen to fit the image type: *image.Gray becomes Gray,
// *image.CMYK becomes CMYK, *image.Paletted becomes Paletted (with a
// transparency table if any palette entry is not opaque).  Other images
// become RGB if all pixels are opaque, and RGBA otherwise.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := src.(type) {
	case *image.Gray:
		res := New(Gray, w, h)
		for y := range h {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(res.Pix[y*w:], src.Pix[off:off+w])
		}
		return res

	case *image.CMYK:
		res := New(CMYK, w, h)
		for y := range h {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(res.Pix[4*y*w:], src.Pix[off:off+4*w])
		}
		return res

	case *image.Paletted:
		if len(src.Palette) == 0 || len(src.Palette) > 256 {
			break
		}
		res := New(Paletted, w, h)
		var alpha []byte
		lastTransparent := -1
		for i, c := range src.Palette {
			nc := color.NRGBAModel.Convert(c).(color.NRGBA)
			res.Palette = append(res.Palette, nc.R, nc.G, nc.B)
			alpha = append(alpha, nc.A)
			if nc.A != 255 {
				lastTransparent = i
			}
		}
		if lastTransparent >= 0 {
			res.Transparency = alpha[:lastTransparent+1]
		}
		for y := range h {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(res.Pix[y*w:], src.Pix[off:off+w])
		}
		return res
	}

	rgba := New(RGBA, w, h)
	opaque := true
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			rgba.Pix[i] = c.R
			rgba.Pix[i+1] = c.G
			rgba.Pix[i+2] = c.B
			rgba.Pix[i+3] = c.A
			if c.A != 255 {
				opaque = false
			}
			i += 4
		}
	}
	if !opaque {
		return rgba
	}
	res := New(RGB, w, h)
	for i := range w * h {
		copy(res.Pix[3*i:3*i+3], rgba.Pix[4*i:4*i+3])
	}
	return res
}

// Decode reads an image file in one of the registered formats (PNG, JPEG,
// GIF, BMP, TIFF, WebP).  Animated GIF files give one frame per image in
// the animation, composited onto the previous frames as a viewer would
// display them.
func Decode(r io.Reader) (*Multi, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(6)
	if bytes.HasPrefix(head, []byte("GIF8")) {
		return decodeGIF(br)
	}

	img, _, err := image.Decode(br)
	if err != nil {
		return nil, err
	}
	return &Multi{Frames: []*Image{FromImage(img)}}, nil
}

func decodeGIF(r io.Reader) (*Multi, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, err
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif: no frames")
	}
	if len(g.Image) == 1 {
		return &Multi{Frames: []*Image{FromImage(g.Image[0])}}, nil
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewNRGBA(bounds)

	res := &Multi{}
	for i, frame := range g.Image {
		var saved *image.NRGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			saved = image.NewNRGBA(bounds)
			copy(saved.Pix, canvas.Pix)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		res.Frames = append(res.Frames, FromImage(canvas))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return res, nil
}
