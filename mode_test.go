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
	"errors"
	"io"
	"testing"

	"seehuhn.de/go/imgpdf/codec"
	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/imgpdf/raster"
)

func TestResolveMode(t *testing.T) {
	cases := []struct {
		mode     raster.Mode
		fax      bool
		filter   filterKind
		bpc      int
		procSet  pdf.Name
		softMask bool
	}{
		{raster.Bilevel, true, filterFax, 1, "ImageB", false},
		{raster.Bilevel, false, filterDCT, 8, "ImageB", false},
		{raster.Gray, true, filterDCT, 8, "ImageB", false},
		{raster.GrayAlpha, true, filterDCT, 8, "ImageB", true},
		{raster.Paletted, true, filterHex, 8, "ImageI", false},
		{raster.RGB, true, filterDCT, 8, "ImageC", false},
		{raster.RGBA, true, filterFlate, 8, "ImageC", true},
		{raster.CMYK, true, filterDCT, 8, "ImageC", false},
	}
	for _, c := range cases {
		img := testImage(c.mode, 3, 3)
		info, err := resolveMode(img, c.fax)
		if err != nil {
			t.Errorf("%s: %v", c.mode, err)
			continue
		}
		if info.filter != c.filter || info.bpc != c.bpc ||
			info.procSet != c.procSet || info.softMask != c.softMask {
			t.Errorf("%s (fax=%t): got %s/%d/%s/%t", c.mode, c.fax,
				info.filter.Name(), info.bpc, info.procSet, info.softMask)
		}
		if c.mode == raster.CMYK && len(info.decode) != 8 {
			t.Errorf("CMYK decode array has %d entries", len(info.decode))
		}
	}

	for _, mode := range []raster.Mode{raster.HSV, raster.LAB, raster.YCbCr, raster.I16} {
		_, err := resolveMode(raster.New(mode, 1, 1), true)
		var modeErr *UnsupportedModeError
		if !errors.As(err, &modeErr) || modeErr.Mode != mode {
			t.Errorf("%s: got error %v", mode, err)
		}
	}
}

// counter hands out consecutive object numbers, starting at 1.
type counter struct {
	next uint32
}

func (c *counter) Alloc() pdf.Reference {
	c.next++
	return pdf.NewReference(c.next, 0)
}

func TestMakePlan(t *testing.T) {
	s := &settings{
		sources: []Source{
			testImage(raster.RGBA, 2, 2),
			testImage(raster.Gray, 2, 2),
		},
		xmp: true,
	}
	alloc := &counter{}
	p, err := makePlan(alloc, s, true)
	if err != nil {
		t.Fatal(err)
	}

	// RGBA: image 1, mask 2, page 3, contents 4; Gray: image 5, page 6,
	// contents 7; then info 8 and XMP 9
	parent, mask, err := p.nextImage(true)
	if err != nil {
		t.Fatal(err)
	}
	if parent.Number() != 1 || mask.Number() != 2 {
		t.Errorf("first image: %s, %s", parent, mask)
	}
	parent, mask, err = p.nextImage(false)
	if err != nil {
		t.Fatal(err)
	}
	if parent.Number() != 5 || mask != 0 {
		t.Errorf("second image: %s, %s", parent, mask)
	}
	if _, _, err := p.nextImage(false); !errors.Is(err, errPlanExhausted) {
		t.Errorf("third image: got %v", err)
	}

	if p.pageIDs[0].Number() != 3 || p.contentsIDs[0].Number() != 4 ||
		p.pageIDs[1].Number() != 6 || p.contentsIDs[1].Number() != 7 {
		t.Errorf("pages %v, contents %v", p.pageIDs, p.contentsIDs)
	}
	if p.info.Number() != 8 || p.xmp.Number() != 9 {
		t.Errorf("info %s, xmp %s", p.info, p.xmp)
	}
	if !p.hasMask {
		t.Error("hasMask not set")
	}
}

func TestMakePlanNoAlloc(t *testing.T) {
	s := &settings{
		sources: []Source{
			testImage(raster.Gray, 2, 2),
			&raster.Image{Mode: raster.RGB, Width: 2, Height: 2, Pix: []byte{1, 2, 3}},
		},
	}
	alloc := &counter{}
	_, err := makePlan(alloc, s, true)
	if err == nil {
		t.Fatal("invalid frame accepted")
	}
	if alloc.next != 0 {
		t.Errorf("%d object numbers allocated", alloc.next)
	}
}

func TestEncodeSoftMask(t *testing.T) {
	img := testImage(raster.GrayAlpha, 9, 4)
	codecs := codec.Default(0)

	mask, err := encodeSoftMask(codecs, img, 7)
	if err != nil {
		t.Fatal(err)
	}
	if mask.ref != 7 || mask.mask != nil {
		t.Errorf("mask ref %s, nested mask %v", mask.ref, mask.mask != nil)
	}
	if mask.width != 9 || mask.height != 4 || mask.bpc != 8 {
		t.Errorf("mask is %dx%d, %d bits", mask.width, mask.height, mask.bpc)
	}
	if mask.colorSpace != pdf.Name("DeviceGray") || mask.filter != filterDCT {
		t.Errorf("mask stored as %s, %s", pdf.Format(mask.colorSpace), mask.filter.Name())
	}

	_, err = encodeSoftMask(codecs, testImage(raster.RGB, 2, 2), 7)
	if !errors.Is(err, errNoAlpha) {
		t.Errorf("RGB image: got %v", err)
	}

	_, err = encodeImage(codecs, img, 3, 0)
	if !errors.Is(err, errMaskNotPlanned) {
		t.Errorf("missing mask reference: got %v", err)
	}
}

type failingCodec struct{}

func (failingCodec) Encode(w io.Writer, img *raster.Image) error {
	return errBoom
}

var errBoom = errors.New("boom")

func TestCodecError(t *testing.T) {
	codecs := codec.Default(0)
	codecs.Flate = failingCodec{}
	_, err := encodeImage(codecs, testImage(raster.RGBA, 2, 2), 1, 2)
	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("got error %v, want CodecError", err)
	}
	if codecErr.Filter != "FlateDecode" || !errors.Is(err, errBoom) {
		t.Errorf("wrong error: %v", err)
	}
}
