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

package pdf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadObject(t *testing.T) {
	cases := []struct {
		in   string
		want Object
	}{
		{"12", Integer(12)},
		{"-3.5", Real(-3.5)},
		{"/Type", Name("Type")},
		{"(a\\)b)", String("a)b")},
		{"<414>", String("A@")},
		{"[1 /x true]", Array{Integer(1), Name("x"), Bool(true)}},
		{"<</Count 2 /Kids [3 0 R]>>", Dict{"Count": Integer(2), "Kids": Array{NewReference(3, 0)}}},
		{"null", nil},
	}
	for _, c := range cases {
		s := newScanner(strings.NewReader(c.in), 0, nil)
		got, err := s.readObject()
		if err != nil {
			t.Errorf("%q: %v", c.in, err)
			continue
		}
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("%q (-want +got):\n%s", c.in, d)
		}
	}
}

func TestReadInteger(t *testing.T) {
	s := newScanner(strings.NewReader("0000000017 2.5"), 0, nil)
	x, err := s.readInteger()
	if err != nil || x != 17 {
		t.Errorf("got %d, %v", x, err)
	}
	err = s.skipWhiteSpace()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.readInteger(); err == nil {
		t.Error("real number accepted as integer")
	}
}
