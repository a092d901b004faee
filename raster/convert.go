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
	"fmt"
	"image/color"
	"image/color/palette"
	"slices"
)

// Convert returns a copy of the image, converted to the given mode.
//
// Conversion to Bilevel thresholds the luma at 127.  Conversion to Paletted
// uses the 216 colour web-safe palette.  Alpha is dropped when converting
// to a mode without alpha channel.  LAB images cannot be converted.
func (img *Image) Convert(to Mode) (*Image, error) {
	if err := img.Check(); err != nil {
		return nil, err
	}
	if img.Mode == to {
		res := *img
		res.Pix = slices.Clone(img.Pix)
		res.Palette = slices.Clone(img.Palette)
		res.Transparency = slices.Clone(img.Transparency)
		return &res, nil
	}
	switch to {
	case Bilevel, Gray, GrayAlpha, Paletted, RGB, RGBA, CMYK:
		// pass
	default:
		return nil, fmt.Errorf("cannot convert to mode %s", to)
	}
	if img.Mode == LAB {
		return nil, fmt.Errorf("cannot convert from mode %s", img.Mode)
	}

	res := New(to, img.Width, img.Height)
	if to == Paletted {
		for _, c := range webSafe {
			r, g, b, _ := c.RGBA()
			res.Palette = append(res.Palette, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}

	n := img.Width * img.Height
	ch := to.Channels()
	for i := range n {
		c := img.nrgba(i)
		out := res.Pix[i*ch : (i+1)*ch]
		switch to {
		case Bilevel:
			if luma(c) > 127 {
				out[0] = 255
			}
		case Gray:
			out[0] = luma(c)
		case GrayAlpha:
			out[0] = luma(c)
			out[1] = c.A
		case Paletted:
			out[0] = byte(webSafe.Index(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}))
		case RGB:
			out[0], out[1], out[2] = c.R, c.G, c.B
		case RGBA:
			out[0], out[1], out[2], out[3] = c.R, c.G, c.B, c.A
		case CMYK:
			out[0], out[1], out[2], out[3] = color.RGBToCMYK(c.R, c.G, c.B)
		}
	}
	return res, nil
}

var webSafe = color.Palette(palette.WebSafe)

// nrgba returns the colour of pixel i, which must be in range.
func (img *Image) nrgba(i int) color.NRGBA {
	p := img.Pix[i*img.Mode.Channels():]
	switch img.Mode {
	case Bilevel, Gray:
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: 255}
	case GrayAlpha:
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: p[1]}
	case Paletted:
		q := img.Palette[3*int(p[0]):]
		return color.NRGBA{R: q[0], G: q[1], B: q[2], A: img.paletteAlpha(p[0])}
	case RGB:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255}
	case RGBA:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	case CMYK:
		r, g, b := color.CMYKToRGB(p[0], p[1], p[2], p[3])
		return color.NRGBA{R: r, G: g, B: b, A: 255}
	case YCbCr:
		r, g, b := color.YCbCrToRGB(p[0], p[1], p[2])
		return color.NRGBA{R: r, G: g, B: b, A: 255}
	case HSV:
		r, g, b := hsvToRGB(p[0], p[1], p[2])
		return color.NRGBA{R: r, G: g, B: b, A: 255}
	case I16:
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: 255}
	}
	panic("unreachable")
}

// luma computes the ITU-R 601-2 luma transform.  Gray values are mapped
// to themselves.
func luma(c color.NRGBA) uint8 {
	return uint8((299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000)
}

// hsvToRGB converts from HSV with all components scaled to 0-255.
func hsvToRGB(h, s, v uint8) (uint8, uint8, uint8) {
	if s == 0 {
		return v, v, v
	}
	hf := float64(h) / 255 * 6
	sf := float64(s) / 255
	vf := float64(v) / 255
	sector := int(hf) % 6
	f := hf - float64(int(hf))
	p := vf * (1 - sf)
	q := vf * (1 - sf*f)
	t := vf * (1 - sf*(1-f))

	var r, g, b float64
	switch sector {
	case 0:
		r, g, b = vf, t, p
	case 1:
		r, g, b = q, vf, p
	case 2:
		r, g, b = p, vf, t
	case 3:
		r, g, b = p, q, vf
	case 4:
		r, g, b = t, p, vf
	default:
		r, g, b = vf, p, q
	}
	return uint8(r*255 + 0.5), uint8(g*255 + 0.5), uint8(b*255 + 0.5)
}
