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
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/imgpdf/pagetree"
	"seehuhn.de/go/imgpdf/pdf"
)

// pageRecord describes a page showing a single image which fills the
// whole page.
type pageRecord struct {
	ref      pdf.Reference
	contents pdf.Reference
	image    pdf.Reference
	procSet  pdf.Name

	// page size in PDF units
	width, height float64
}

// newPageRecord computes the page size for an image with the given pixel
// dimensions and resolution (in dots per inch).
func newPageRecord(ref, contents, image pdf.Reference, procSet pdf.Name, widthPx, heightPx int, xRes, yRes float64) *pageRecord {
	return &pageRecord{
		ref:      ref,
		contents: contents,
		image:    image,
		procSet:  procSet,
		width:    float64(widthPx) * 72 / xRes,
		height:   float64(heightPx) * 72 / yRes,
	}
}

func (p *pageRecord) mediaBox() rect.Rect {
	return rect.Rect{URx: p.width, URy: p.height}
}

func (p *pageRecord) resources() pdf.Dict {
	return pdf.Dict{
		"ProcSet": pdf.Array{pdf.Name("PDF"), p.procSet},
		"XObject": pdf.Dict{"image": p.image},
	}
}

// content returns the content stream, which scales the unit square to the
// page size and draws the image.
func (p *pageRecord) content() []byte {
	m := matrix.Scale(p.width, p.height)
	return fmt.Appendf(nil, "q %f %g %g %f %g %g cm /image Do Q\n",
		m[0], m[1], m[2], m[3], m[4], m[5])
}

// write writes the content stream and the page dictionary.  The inherited
// attributes are those set on the root of an existing page tree; a
// /CropBox or /Rotate there is overridden so that it does not affect the
// new page.
func (p *pageRecord) write(w pdf.Putter, tree *pagetree.Writer, inherited pdf.Dict) error {
	stm, err := w.OpenStream(p.contents, nil)
	if err != nil {
		return err
	}
	_, err = stm.Write(p.content())
	if err != nil {
		return err
	}
	err = stm.Close()
	if err != nil {
		return err
	}

	box := rectArray(p.mediaBox())
	dict := pdf.Dict{
		"MediaBox":  box,
		"Resources": p.resources(),
		"Contents":  p.contents,
	}
	if _, ok := inherited["CropBox"]; ok {
		dict["CropBox"] = box
	}
	if _, ok := inherited["Rotate"]; ok {
		dict["Rotate"] = pdf.Integer(0)
	}
	return tree.AppendPageRef(p.ref, dict)
}

func rectArray(r rect.Rect) pdf.Array {
	return pdf.Array{number(r.LLx), number(r.LLy), number(r.URx), number(r.URy)}
}

// number represents x as an Integer if possible and as a Real otherwise.
func number(x float64) pdf.Object {
	if x == math.Trunc(x) && math.Abs(x) < 1<<31 {
		return pdf.Integer(x)
	}
	return pdf.Real(x)
}
