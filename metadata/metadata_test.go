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

package metadata

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/xmp"

	"seehuhn.de/go/imgpdf/internal/debug/memfile"
	"seehuhn.de/go/imgpdf/pdf"
)

func TestRoundTrip(t *testing.T) {
	info := &pdf.Info{
		Title:        "Holiday Photos",
		Author:       "Jochen Voß",
		Subject:      "scanned images",
		Keywords:     "beach, sea",
		Creator:      "scanner",
		Producer:     "img2pdf",
		CreationDate: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	}
	original, err := FromInfo(info, pdf.V1_4)
	if err != nil {
		t.Fatal(err)
	}

	f := memfile.New()
	w := pdf.NewWriter(f, pdf.V1_4)
	catalog := w.Alloc()
	ref := w.Alloc()
	err = w.WriteHeader()
	if err != nil {
		t.Fatal(err)
	}
	err = original.Embed(w, ref)
	if err != nil {
		t.Fatal(err)
	}
	err = w.Put(catalog, pdf.Dict{
		"Type":     pdf.Name("Catalog"),
		"Metadata": ref,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = w.Close(pdf.Dict{"Root": catalog})
	if err != nil {
		t.Fatal(err)
	}

	r, err := pdf.NewReader(f, f.Size())
	if err != nil {
		t.Fatal(err)
	}
	cat, err := r.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	extracted, err := Extract(r, cat["Metadata"])
	if err != nil {
		t.Fatal(err)
	}

	var originalDC, extractedDC xmp.DublinCore
	original.Data.Get(&originalDC)
	extracted.Data.Get(&extractedDC)
	if d := cmp.Diff(originalDC, extractedDC); d != "" {
		t.Errorf("round trip failed (-want +got):\n%s", d)
	}

	if !original.Equal(extracted) {
		t.Error("packets differ")
	}
}

func TestExtractNil(t *testing.T) {
	s, err := Extract(nil, nil)
	if err != nil || s != nil {
		t.Errorf("got %v, %v", s, err)
	}
}
