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
	"image"
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/ccitt"

	"seehuhn.de/go/imgpdf/codec"
	"seehuhn.de/go/imgpdf/internal/debug/memfile"
	"seehuhn.de/go/imgpdf/metadata"
	"seehuhn.de/go/imgpdf/pagetree"
	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/imgpdf/raster"
)

// testImage returns an image with a simple, deterministic pattern.
func testImage(mode raster.Mode, width, height int) *raster.Image {
	img := raster.New(mode, width, height)
	ch := mode.Channels()
	for y := range height {
		for x := range width {
			base := (y*width + x) * ch
			for c := range ch {
				img.Pix[base+c] = byte(x*7 + y*13 + c*50)
			}
		}
	}
	switch mode {
	case raster.Bilevel:
		for i := range img.Pix {
			x, y := i%width, i/width
			if (x/4+y/3)%2 == 0 {
				img.Pix[i] = 255
			} else {
				img.Pix[i] = 0
			}
		}
	case raster.Paletted:
		img.Palette = []byte{
			255, 0, 0,
			0, 255, 0,
			0, 0, 255,
			255, 255, 255,
			0, 0, 0,
		}
		for i := range img.Pix {
			img.Pix[i] %= 5
		}
	}
	return img
}

// readDoc opens a PDF file held in memory and returns the reader
// together with the list of pages.
func readDoc(t *testing.T, data []byte) (*pdf.Reader, []pdf.Reference) {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := r.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	root, ok := catalog["Pages"].(pdf.Reference)
	if !ok {
		t.Fatal("catalog has no /Pages reference")
	}
	pages, err := pagetree.FindPages(r, root)
	if err != nil {
		t.Fatal(err)
	}
	return r, pages
}

// pageImage returns the image XObject shown on the given page.
func pageImage(t *testing.T, r *pdf.Reader, page pdf.Reference) (pdf.Reference, *pdf.Stream) {
	t.Helper()
	pageDict, err := pdf.GetDict(r, page)
	if err != nil {
		t.Fatal(err)
	}
	res, err := pdf.GetDict(r, pageDict["Resources"])
	if err != nil {
		t.Fatal(err)
	}
	xobj, err := pdf.GetDict(r, res["XObject"])
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := xobj["image"].(pdf.Reference)
	if !ok {
		t.Fatalf("page %s: no image reference", page)
	}
	stm, err := pdf.GetStream(r, ref)
	if err != nil {
		t.Fatal(err)
	}
	if stm == nil {
		t.Fatalf("page %s: image %s is missing", page, ref)
	}
	return ref, stm
}

func TestSaveModes(t *testing.T) {
	type testCase struct {
		mode       raster.Mode
		filter     pdf.Object
		colorSpace pdf.Object
		hasMask    bool
	}
	cases := []testCase{
		{raster.Bilevel, pdf.Array{pdf.Name("CCITTFaxDecode")}, pdf.Name("DeviceGray"), false},
		{raster.Gray, pdf.Name("DCTDecode"), pdf.Name("DeviceGray"), false},
		{raster.GrayAlpha, pdf.Name("DCTDecode"), pdf.Name("DeviceGray"), true},
		{raster.Paletted, pdf.Name("ASCIIHexDecode"), nil, false},
		{raster.RGB, pdf.Name("DCTDecode"), pdf.Name("DeviceRGB"), false},
		{raster.RGBA, pdf.Name("FlateDecode"), pdf.Name("DeviceRGB"), true},
		{raster.CMYK, pdf.Name("DCTDecode"), pdf.Name("DeviceCMYK"), false},
	}
	for _, c := range cases {
		t.Run(c.mode.String(), func(t *testing.T) {
			img := testImage(c.mode, 33, 17)
			buf := &bytes.Buffer{}
			err := Save(buf, img, "test.pdf", nil)
			if err != nil {
				t.Fatal(err)
			}

			r, pages := readDoc(t, buf.Bytes())
			if len(pages) != 1 {
				t.Fatalf("got %d pages, want 1", len(pages))
			}
			_, stm := pageImage(t, r, pages[0])

			if w, _ := pdf.GetInt(r, stm.Dict["Width"]); w != 33 {
				t.Errorf("/Width = %d, want 33", w)
			}
			if h, _ := pdf.GetInt(r, stm.Dict["Height"]); h != 17 {
				t.Errorf("/Height = %d, want 17", h)
			}
			if d := cmp.Diff(c.filter, stm.Dict["Filter"]); d != "" {
				t.Errorf("/Filter (-want +got):\n%s", d)
			}
			if c.colorSpace != nil {
				if d := cmp.Diff(c.colorSpace, stm.Dict["ColorSpace"]); d != "" {
					t.Errorf("/ColorSpace (-want +got):\n%s", d)
				}
			}

			maskRef, hasMask := stm.Dict["SMask"].(pdf.Reference)
			if hasMask != c.hasMask {
				t.Fatalf("has /SMask = %t, want %t", hasMask, c.hasMask)
			}
			if hasMask {
				mask, err := pdf.GetStream(r, maskRef)
				if err != nil {
					t.Fatal(err)
				}
				if mask.Dict["ColorSpace"] != pdf.Name("DeviceGray") {
					t.Errorf("mask color space %s", pdf.Format(mask.Dict["ColorSpace"]))
				}
				if _, nested := mask.Dict["SMask"]; nested {
					t.Error("soft mask has a soft mask")
				}
				if w, _ := pdf.GetInt(r, mask.Dict["Width"]); w != 33 {
					t.Errorf("mask /Width = %d, want 33", w)
				}
			}
		})
	}
}

func TestPaletteColorSpace(t *testing.T) {
	img := testImage(raster.Paletted, 10, 10)
	buf := &bytes.Buffer{}
	err := Save(buf, img, "test.pdf", nil)
	if err != nil {
		t.Fatal(err)
	}

	r, pages := readDoc(t, buf.Bytes())
	_, stm := pageImage(t, r, pages[0])
	cs, err := pdf.GetArray(r, stm.Dict["ColorSpace"])
	if err != nil {
		t.Fatal(err)
	}
	want := pdf.Array{
		pdf.Name("Indexed"),
		pdf.Name("DeviceRGB"),
		pdf.Integer(4),
		pdf.String(img.Palette),
	}
	if d := cmp.Diff(want, cs); d != "" {
		t.Errorf("color space (-want +got):\n%s", d)
	}

	// the pixel data is stored as hex encoded palette indices
	data, err := pdf.DecodeStream(r, stm)
	if err != nil {
		t.Fatal(err)
	}
	pix, err := io.ReadAll(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pix, img.Pix) {
		t.Error("palette indices differ")
	}
}

func TestPaletteTransparency(t *testing.T) {
	img := testImage(raster.Paletted, 8, 8)
	img.Transparency = []byte{0, 128}
	buf := &bytes.Buffer{}
	err := Save(buf, img, "test.pdf", nil)
	if err != nil {
		t.Fatal(err)
	}

	r, pages := readDoc(t, buf.Bytes())
	_, stm := pageImage(t, r, pages[0])
	if _, ok := stm.Dict["SMask"].(pdf.Reference); !ok {
		t.Error("paletted image with transparency has no soft mask")
	}
}

func TestBilevelFaxAndDCT(t *testing.T) {
	const width, height = 37, 23
	img := testImage(raster.Bilevel, width, height)

	decoded := func(t *testing.T, noFax bool) []byte {
		t.Helper()
		buf := &bytes.Buffer{}
		err := Save(buf, img, "test.pdf", &Options{NoFax: noFax, JPEGQuality: 95})
		if err != nil {
			t.Fatal(err)
		}
		r, pages := readDoc(t, buf.Bytes())
		_, stm := pageImage(t, r, pages[0])

		if noFax {
			body, err := pdf.DecodeStream(r, stm)
			if err != nil {
				t.Fatal(err)
			}
			pix, err := io.ReadAll(body)
			if err != nil {
				t.Fatal(err)
			}
			if len(pix) != width*height {
				t.Fatalf("got %d samples, want %d", len(pix), width*height)
			}
			for i, v := range pix {
				if v > 127 {
					pix[i] = 255
				} else {
					pix[i] = 0
				}
			}
			return pix
		}

		data, err := io.ReadAll(stm.R)
		if err != nil {
			t.Fatal(err)
		}

		parms, err := pdf.GetArray(r, stm.Dict["DecodeParms"])
		if err != nil {
			t.Fatal(err)
		}
		want := pdf.Array{pdf.Dict{
			"K":        pdf.Integer(-1),
			"BlackIs1": pdf.Bool(true),
			"Columns":  pdf.Integer(width),
			"Rows":     pdf.Integer(height),
		}}
		if d := cmp.Diff(want, parms); d != "" {
			t.Errorf("/DecodeParms (-want +got):\n%s", d)
		}
		if bpc, _ := pdf.GetInt(r, stm.Dict["BitsPerComponent"]); bpc != 1 {
			t.Errorf("/BitsPerComponent = %d, want 1", bpc)
		}

		gray := image.NewGray(image.Rect(0, 0, width, height))
		err = ccitt.DecodeIntoGray(gray, bytes.NewReader(data), ccitt.MSB, ccitt.Group4,
			&ccitt.Options{Invert: true})
		if err != nil {
			t.Fatal(err)
		}
		return gray.Pix
	}

	fax := decoded(t, false)
	jpeg := decoded(t, true)
	if d := cmp.Diff(img.Pix, fax); d != "" {
		t.Errorf("fax pixels (-want +got):\n%s", d)
	}
	if d := cmp.Diff(fax, jpeg); d != "" {
		t.Errorf("fax and DCT pixels differ (-fax +dct):\n%s", d)
	}
}

func TestMediaBox(t *testing.T) {
	img := testImage(raster.RGB, 640, 213)
	buf := &bytes.Buffer{}
	err := Save(buf, img, "test.pdf", &Options{DPI: [2]float64{75, 150}})
	if err != nil {
		t.Fatal(err)
	}

	r, pages := readDoc(t, buf.Bytes())
	pageDict, err := pdf.GetDict(r, pages[0])
	if err != nil {
		t.Fatal(err)
	}
	box, err := pdf.GetArray(r, pageDict["MediaBox"])
	if err != nil {
		t.Fatal(err)
	}
	if len(box) != 4 {
		t.Fatalf("MediaBox has %d entries", len(box))
	}
	want := []float64{0, 0, 614.4, 102.24}
	for i, obj := range box {
		x, err := pdf.GetNumber(r, obj)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(x-want[i]) > 1e-9 {
			t.Errorf("MediaBox[%d] = %g, want %g", i, x, want[i])
		}
	}

	contents, err := pdf.GetStream(r, pageDict["Contents"])
	if err != nil {
		t.Fatal(err)
	}
	data, err := pdf.DecodeStream(r, contents)
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(data)
	if err != nil {
		t.Fatal(err)
	}
	wantBody := "q 614.400000 0 0 102.240000 0 0 cm /image Do Q\n"
	if string(body) != wantBody {
		t.Errorf("content stream %q, want %q", body, wantBody)
	}
}

func TestResolution(t *testing.T) {
	cases := []struct {
		opt  *Options
		want float64
	}{
		{nil, 100},
		{&Options{Resolution: 144}, 50},
		{&Options{Resolution: 144, DPI: [2]float64{36, 36}}, 200},
	}
	for _, c := range cases {
		img := testImage(raster.Gray, 100, 100)
		buf := &bytes.Buffer{}
		err := Save(buf, img, "test.pdf", c.opt)
		if err != nil {
			t.Fatal(err)
		}
		r, pages := readDoc(t, buf.Bytes())
		pageDict, err := pdf.GetDict(r, pages[0])
		if err != nil {
			t.Fatal(err)
		}
		box, err := pdf.GetArray(r, pageDict["MediaBox"])
		if err != nil {
			t.Fatal(err)
		}
		w, err := pdf.GetNumber(r, box[2])
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(w-c.want) > 1e-9 {
			t.Errorf("page width %g, want %g", w, c.want)
		}
	}
}

func TestCMYKDecode(t *testing.T) {
	img := testImage(raster.CMYK, 16, 16)
	buf := &bytes.Buffer{}
	err := Save(buf, img, "test.pdf", nil)
	if err != nil {
		t.Fatal(err)
	}

	r, pages := readDoc(t, buf.Bytes())
	_, stm := pageImage(t, r, pages[0])
	decode, err := pdf.GetArray(r, stm.Dict["Decode"])
	if err != nil {
		t.Fatal(err)
	}
	want := pdf.Array{
		pdf.Integer(1), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0),
		pdf.Integer(1), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0),
	}
	if d := cmp.Diff(want, decode); d != "" {
		t.Errorf("/Decode (-want +got):\n%s", d)
	}
}

func TestUnsupportedMode(t *testing.T) {
	for _, mode := range []raster.Mode{raster.HSV, raster.LAB, raster.YCbCr, raster.I16} {
		t.Run(mode.String(), func(t *testing.T) {
			img := raster.New(mode, 4, 4)
			f := memfile.New()
			err := SaveAll(f, img, "test.pdf", nil)
			var modeErr *UnsupportedModeError
			if !errors.As(err, &modeErr) {
				t.Fatalf("got error %v, want UnsupportedModeError", err)
			}
			if modeErr.Mode != mode {
				t.Errorf("error names mode %s, want %s", modeErr.Mode, mode)
			}
			if len(f.Data) != 0 {
				t.Errorf("%d bytes written", len(f.Data))
			}
		})
	}
}

func TestUnsupportedLaterFrame(t *testing.T) {
	// an unsupported frame in the middle must be detected before the
	// first frame is written
	src := &raster.Multi{Frames: []*raster.Image{
		testImage(raster.Gray, 4, 4),
		raster.New(raster.HSV, 4, 4),
	}}
	f := memfile.New()
	err := SaveAll(f, src, "test.pdf", nil)
	if _, ok := err.(*UnsupportedModeError); !ok {
		t.Fatalf("got error %v, want UnsupportedModeError", err)
	}
	if len(f.Data) != 0 {
		t.Errorf("%d bytes written", len(f.Data))
	}
}

func TestBilevelValues(t *testing.T) {
	// 128 is neither black nor white
	img := testImage(raster.Bilevel, 8, 8)
	img.Pix[5] = 128
	for _, noFax := range []bool{false, true} {
		f := memfile.New()
		err := Save(f, img, "test.pdf", &Options{NoFax: noFax})
		if err == nil {
			t.Errorf("noFax=%t: invalid bilevel image accepted", noFax)
		}
		if len(f.Data) != 0 {
			t.Errorf("noFax=%t: %d bytes written", noFax, len(f.Data))
		}
	}
}

func TestSaveAllContiguous(t *testing.T) {
	src := &raster.Multi{Frames: []*raster.Image{
		testImage(raster.Gray, 5, 5),
		testImage(raster.RGBA, 5, 5),
		testImage(raster.RGB, 5, 5),
	}}
	buf := &bytes.Buffer{}
	err := SaveAll(buf, src, "test.pdf", nil)
	if err != nil {
		t.Fatal(err)
	}

	r, pages := readDoc(t, buf.Bytes())
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}

	// catalog and page tree root come first, then image, optional mask,
	// page and contents for each frame
	var got []uint32
	for _, page := range pages {
		ref, stm := pageImage(t, r, page)
		got = append(got, ref.Number())
		if mask, ok := stm.Dict["SMask"].(pdf.Reference); ok {
			got = append(got, mask.Number())
		}
		pageDict, err := pdf.GetDict(r, page)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, page.Number(), pageDict["Contents"].(pdf.Reference).Number())
	}
	want := []uint32{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("object numbers (-want +got):\n%s", d)
	}

	info, ok := r.Trailer()["Info"].(pdf.Reference)
	if !ok || info.Number() != 13 {
		t.Errorf("/Info = %s, want object 13", pdf.Format(r.Trailer()["Info"]))
	}
}

func TestSaveAllAppendImages(t *testing.T) {
	first := &raster.Multi{Frames: []*raster.Image{
		testImage(raster.Gray, 5, 5),
		testImage(raster.Gray, 6, 6),
	}}
	more := []Source{
		testImage(raster.RGB, 7, 7),
		&raster.Multi{Frames: []*raster.Image{
			testImage(raster.CMYK, 8, 8),
			testImage(raster.Bilevel, 9, 9),
		}},
	}
	seq := func(yield func(Source) bool) {
		yield(testImage(raster.Paletted, 10, 10))
	}

	buf := &bytes.Buffer{}
	err := SaveAll(buf, first, "test.pdf", &Options{
		AppendImages: more,
		AppendSeq:    seq,
	})
	if err != nil {
		t.Fatal(err)
	}

	r, pages := readDoc(t, buf.Bytes())
	var widths []pdf.Integer
	for _, page := range pages {
		_, stm := pageImage(t, r, page)
		w, _ := pdf.GetInt(r, stm.Dict["Width"])
		widths = append(widths, w)
	}
	want := []pdf.Integer{5, 6, 7, 8, 9, 10}
	if d := cmp.Diff(want, widths); d != "" {
		t.Errorf("page widths (-want +got):\n%s", d)
	}
}

func TestSaveFirstFrameOnly(t *testing.T) {
	src := &raster.Multi{Frames: []*raster.Image{
		testImage(raster.Gray, 5, 5),
		testImage(raster.Gray, 6, 6),
	}}
	buf := &bytes.Buffer{}
	err := Save(buf, src, "test.pdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, pages := readDoc(t, buf.Bytes())
	if len(pages) != 1 {
		t.Errorf("got %d pages, want 1", len(pages))
	}
}

func TestAppend(t *testing.T) {
	f := memfile.New()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	sv := &Saver{Now: func() time.Time { return created }}
	err := sv.SaveAll(f, &raster.Multi{Frames: []*raster.Image{
		testImage(raster.Gray, 5, 5),
		testImage(raster.RGB, 5, 5),
	}}, "test.pdf", &Options{
		Metadata: Metadata{Title: "Scans", Author: "A. Person"},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, oldPages := readDoc(t, f.Data)
	before := bytes.Clone(f.Data)

	// the file position should not matter
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	err = sv.SaveAll(f, testImage(raster.RGBA, 6, 6), "test.pdf", &Options{
		Append:       true,
		AppendImages: []Source{testImage(raster.Bilevel, 7, 7), testImage(raster.Paletted, 8, 8)},
		Metadata:     Metadata{Subject: "more scans"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.HasPrefix(f.Data, before) {
		t.Fatal("previous revision was modified")
	}

	r, pages := readDoc(t, f.Data)
	if len(pages) != 5 {
		t.Fatalf("got %d pages, want 5", len(pages))
	}
	if d := cmp.Diff(oldPages, pages[:2]); d != "" {
		t.Errorf("old pages (-want +got):\n%s", d)
	}

	info, err := pdf.DecodeInfo(r, r.Trailer()["Info"])
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "Scans" || info.Author != "A. Person" || info.Subject != "more scans" {
		t.Errorf("wrong metadata: %q %q %q", info.Title, info.Author, info.Subject)
	}
	if !info.CreationDate.Equal(created) {
		t.Errorf("creation date %s, want %s", info.CreationDate, created)
	}

	if !bytes.Contains(f.Data[len(before):], []byte("/Prev")) {
		t.Error("update has no /Prev entry")
	}

	oldReader, _ := readDoc(t, before)
	if len(r.ID) != 2 || len(oldReader.ID) != 2 {
		t.Fatal("missing file identifier")
	}
	if !bytes.Equal(r.ID[0], oldReader.ID[0]) {
		t.Error("first part of the file identifier changed")
	}
	if bytes.Equal(r.ID[1], oldReader.ID[1]) {
		t.Error("second part of the file identifier not updated")
	}
}

func TestAppendTwice(t *testing.T) {
	f := memfile.New()
	err := Save(f, testImage(raster.Gray, 5, 5), "test.pdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		err = Save(f, testImage(raster.Gray, 5, 5), "test.pdf", &Options{Append: true})
		if err != nil {
			t.Fatal(err)
		}
	}
	_, pages := readDoc(t, f.Data)
	if len(pages) != 3 {
		t.Errorf("got %d pages, want 3", len(pages))
	}
}

func TestAppendErrors(t *testing.T) {
	img := testImage(raster.Gray, 5, 5)

	err := Save(&bytes.Buffer{}, img, "test.pdf", &Options{Append: true})
	if !errors.Is(err, ErrNotSeekable) {
		t.Errorf("got error %v, want ErrNotSeekable", err)
	}

	f := memfile.New()
	garbage := []byte("this is not a PDF file\n")
	_, err = f.Write(garbage)
	if err != nil {
		t.Fatal(err)
	}
	err = Save(f, img, "test.pdf", &Options{Append: true})
	var malformed *pdf.MalformedFileError
	if !errors.As(err, &malformed) {
		t.Errorf("got error %v, want MalformedFileError", err)
	}
	if !bytes.Equal(f.Data, garbage) {
		t.Error("malformed file was modified")
	}
}

func TestCreateDates(t *testing.T) {
	now := time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
	sv := &Saver{Now: func() time.Time { return now }}
	buf := &bytes.Buffer{}
	err := sv.Save(buf, testImage(raster.Gray, 5, 5), "test.pdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := readDoc(t, buf.Bytes())
	info, err := pdf.DecodeInfo(r, r.Trailer()["Info"])
	if err != nil {
		t.Fatal(err)
	}
	if !info.CreationDate.Equal(now) || !info.ModDate.Equal(now) {
		t.Errorf("dates %s / %s, want %s", info.CreationDate, info.ModDate, now)
	}
	if info.Title != "" {
		t.Errorf("unexpected title %q", info.Title)
	}
}

func TestXMP(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Save(buf, testImage(raster.Gray, 5, 5), "test.pdf", &Options{
		XMP:      true,
		Metadata: Metadata{Title: "Harbour at Dawn"},
	})
	if err != nil {
		t.Fatal(err)
	}

	r, _ := readDoc(t, buf.Bytes())
	catalog, err := r.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	stm, err := pdf.GetStream(r, catalog["Metadata"])
	if err != nil {
		t.Fatal(err)
	}
	if stm == nil || stm.Dict["Subtype"] != pdf.Name("XML") {
		t.Fatal("no XMP metadata stream")
	}
	raw, err := io.ReadAll(stm.R)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(raw, []byte("Harbour at Dawn")) {
		t.Error("title missing from XMP packet")
	}

	m, err := metadata.Extract(r, catalog["Metadata"])
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.Data == nil {
		t.Error("XMP packet could not be parsed")
	}
}

func TestAppendVersion(t *testing.T) {
	// a minimal PDF-1.3 file with one page
	f := memfile.New()
	w := pdf.NewWriter(f, pdf.V1_3)
	catalog := w.Alloc()
	tree := pagetree.NewWriter(w, w.Alloc())
	err := w.WriteHeader()
	if err != nil {
		t.Fatal(err)
	}
	err = tree.AppendPageRef(w.Alloc(), pdf.Dict{
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(100), pdf.Integer(100)},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = tree.Close()
	if err != nil {
		t.Fatal(err)
	}
	err = w.Put(catalog, pdf.Dict{"Type": pdf.Name("Catalog"), "Pages": tree.Root()})
	if err != nil {
		t.Fatal(err)
	}
	err = w.Close(pdf.Dict{"Root": catalog})
	if err != nil {
		t.Fatal(err)
	}

	err = Save(f, testImage(raster.GrayAlpha, 5, 5), "old.pdf", &Options{Append: true})
	if err != nil {
		t.Fatal(err)
	}

	r, pages := readDoc(t, f.Data)
	if len(pages) != 2 {
		t.Errorf("got %d pages, want 2", len(pages))
	}
	if r.Version != pdf.V1_4 {
		t.Errorf("version %d, want PDF 1.4", r.Version)
	}
}

func TestSessionFinalized(t *testing.T) {
	s, err := (&Options{}).validate(testImage(raster.Gray, 5, 5), false)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := newCreateSession(&bytes.Buffer{}, s, codec.Default(0), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if sess.state != stateUninitialized {
		t.Errorf("initial state %d", sess.state)
	}
	err = sess.run()
	if err != nil {
		t.Fatal(err)
	}
	if sess.state != stateFinalized {
		t.Errorf("final state %d", sess.state)
	}
	if len(sess.pages) != 1 {
		t.Errorf("%d pages written", len(sess.pages))
	}

	if err := sess.writeHeader(); !errors.Is(err, ErrFinalized) {
		t.Errorf("writeHeader: got %v", err)
	}
	if err := sess.writeNextPage(); !errors.Is(err, ErrFinalized) {
		t.Errorf("writeNextPage: got %v", err)
	}
	if err := sess.finalize(); !errors.Is(err, ErrFinalized) {
		t.Errorf("finalize: got %v", err)
	}
}

func TestMergeInfo(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	old := &pdf.Info{
		Title:    "old title",
		Producer: "old producer",
		Custom:   pdf.Dict{"Trapped": pdf.Name("False")},
	}

	got := mergeInfo(old, &Metadata{Title: "new title", Keywords: "k"}, now)
	want := &pdf.Info{
		Title:    "new title",
		Keywords: "k",
		Producer: "old producer",
		Custom:   pdf.Dict{"Trapped": pdf.Name("False")},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("append merge (-want +got):\n%s", d)
	}
	if old.Title != "old title" {
		t.Error("old info was modified")
	}

	got = mergeInfo(nil, &Metadata{Author: "me"}, now)
	want = &pdf.Info{Author: "me", CreationDate: now, ModDate: now}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("create merge (-want +got):\n%s", d)
	}
}
