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

package memfile

import (
	"io"
	"testing"
)

var (
	_ io.ReadWriteSeeker = (*MemFile)(nil)
	_ io.ReaderAt        = (*MemFile)(nil)
)

func TestReadAt(t *testing.T) {
	f := New()
	f.Data = []byte("Hello, World!")
	f.Offset = 3

	buf := make([]byte, 5)
	n, err := f.ReadAt(buf, 7)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || string(buf) != "World" {
		t.Errorf("ReadAt got %q; want %q", buf[:n], "World")
	}
	if f.Offset != 3 {
		t.Errorf("ReadAt changed the offset to %d", f.Offset)
	}

	n, err = f.ReadAt(buf, 10)
	if err != io.EOF || n != 3 {
		t.Errorf("ReadAt near end: n=%d, err=%v", n, err)
	}
	_, err = f.ReadAt(buf, -1)
	if err != errInvalidOffset {
		t.Errorf("ReadAt(-1): err=%v", err)
	}
}

func TestSeek(t *testing.T) {
	f := New()
	f.Data = []byte("Hello, World!")

	testCases := []struct {
		offset    int64
		whence    int
		wantPos   int64
		wantError error
	}{
		{5, io.SeekStart, 5, nil},
		{2, io.SeekCurrent, 7, nil},
		{-1, io.SeekEnd, 12, nil},
		{0, io.SeekStart, 0, nil},
		{100, io.SeekStart, 100, nil},
		{-1, io.SeekStart, 0, errInvalidOffset},
		{0, 99, 0, errInvalidWhence},
	}
	for i, tc := range testCases {
		got, err := f.Seek(tc.offset, tc.whence)
		if err != tc.wantError {
			t.Errorf("case %d: Seek(%d, %d) error = %v; want %v", i, tc.offset, tc.whence, err, tc.wantError)
		}
		if got != tc.wantPos {
			t.Errorf("case %d: Seek(%d, %d) = %d; want %d", i, tc.offset, tc.whence, got, tc.wantPos)
		}
	}
}

func TestAppend(t *testing.T) {
	f := New()
	f.Write([]byte("Hello, World!"))
	f.Seek(7, io.SeekStart)
	f.Write([]byte("Universe!"))
	if string(f.Data) != "Hello, Universe!" {
		t.Errorf("got %q", f.Data)
	}

	f.Seek(0, io.SeekEnd)
	f.Write([]byte("\n"))
	if f.Size() != 17 {
		t.Errorf("Size() = %d; want 17", f.Size())
	}
}

func TestLoad(t *testing.T) {
	f := Load([]byte("%PDF-1.4\n"))
	_, err := f.Write([]byte("%%EOF\n"))
	if err != nil {
		t.Fatal(err)
	}
	if string(f.Data) != "%PDF-1.4\n%%EOF\n" {
		t.Errorf("got %q", f.Data)
	}

	buf := make([]byte, 4)
	_, err = f.Seek(1, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	n, err := f.Read(buf)
	if err != nil || string(buf[:n]) != "PDF-" {
		t.Errorf("Read got %q, %v", buf[:n], err)
	}
}

func TestWriteGap(t *testing.T) {
	f := New()
	f.Seek(3, io.SeekStart)
	f.Write([]byte("x"))
	if string(f.Data) != "\x00\x00\x00x" {
		t.Errorf("got %q", f.Data)
	}
}
