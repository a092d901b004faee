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
	"math"
	"testing"

	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/imgpdf/raster"
)

func TestValidate(t *testing.T) {
	img := testImage(raster.Gray, 2, 2)
	seq := func(yield func(Source) bool) {
		yield(img)
	}

	cases := []struct {
		name    string
		opt     *Options
		saveAll bool
		field   string // empty if the options are valid
	}{
		{"nil", nil, false, ""},
		{"resolution", &Options{Resolution: 300}, false, ""},
		{"negative resolution", &Options{Resolution: -1}, false, "Resolution"},
		{"infinite resolution", &Options{Resolution: math.Inf(1)}, false, "Resolution"},
		{"dpi", &Options{DPI: [2]float64{100, 200}}, false, ""},
		{"half dpi", &Options{DPI: [2]float64{100, 0}}, false, "DPI"},
		{"quality", &Options{JPEGQuality: 100}, false, ""},
		{"bad quality", &Options{JPEGQuality: 101}, false, "JPEGQuality"},
		{"append images", &Options{AppendImages: []Source{img}}, false, "AppendImages"},
		{"append images all", &Options{AppendImages: []Source{img}}, true, ""},
		{"append images flag", &Options{AppendImages: []Source{img}, SaveAll: true}, false, ""},
		{"nil append image", &Options{AppendImages: []Source{nil}}, true, "AppendImages"},
		{"append seq", &Options{AppendSeq: seq}, false, "AppendImages"},
		{"append seq all", &Options{AppendSeq: seq}, true, ""},
		{"old version", &Options{Version: pdf.V1_3}, false, "Version"},
		{"new version", &Options{Version: pdf.V2_0}, false, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.opt.validate(img, c.saveAll)
			if c.field == "" {
				if err != nil {
					t.Fatal(err)
				}
				return
			}
			var optErr *OptionError
			if !errors.As(err, &optErr) {
				t.Fatalf("got error %v, want OptionError", err)
			}
			if optErr.Field != c.field {
				t.Errorf("error for field %s, want %s", optErr.Field, c.field)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	s, err := (&Options{}).validate(testImage(raster.Gray, 2, 2), false)
	if err != nil {
		t.Fatal(err)
	}
	if s.xRes != 72 || s.yRes != 72 {
		t.Errorf("resolution %gx%g, want 72x72", s.xRes, s.yRes)
	}
	if s.version != pdf.V1_4 {
		t.Errorf("version %d, want PDF 1.4", s.version)
	}
	if s.allFrames || len(s.sources) != 1 {
		t.Errorf("allFrames=%t, %d sources", s.allFrames, len(s.sources))
	}

	_, err = (&Options{}).validate(nil, false)
	if err == nil {
		t.Error("missing image accepted")
	}
}

func TestAppendSeqOrder(t *testing.T) {
	a := testImage(raster.Gray, 1, 1)
	b := testImage(raster.Gray, 2, 2)
	c := testImage(raster.Gray, 3, 3)
	calls := 0
	opt := &Options{
		AppendImages: []Source{b},
		AppendSeq: func(yield func(Source) bool) {
			calls++
			yield(c)
		},
	}
	s, err := opt.validate(a, true)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("sequence consumed %d times", calls)
	}
	if len(s.sources) != 3 || s.sources[0] != a || s.sources[1] != b || s.sources[2] != c {
		t.Error("wrong order of sources")
	}

	// the sequence is not touched if other options are invalid
	calls = 0
	opt.JPEGQuality = -1
	_, err = opt.validate(a, true)
	if err == nil || calls != 0 {
		t.Errorf("err=%v, %d calls", err, calls)
	}
}
