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
	"errors"
	"io"
)

// MemFile holds the contents of a file in memory.  The zero value is an
// empty file, positioned at the start.
type MemFile struct {
	Data   []byte
	Offset int64
}

// New returns an empty file.
func New() *MemFile {
	return &MemFile{}
}

// Load returns a file holding data, positioned at the end so that writes
// extend the existing contents.  The file takes ownership of data.
func Load(data []byte) *MemFile {
	return &MemFile{Data: data, Offset: int64(len(data))}
}

// Write implements [io.Writer].  Writing past the end of the file fills
// the gap with zero bytes.
func (f *MemFile) Write(p []byte) (int, error) {
	end := f.Offset + int64(len(p))
	if grow := end - int64(len(f.Data)); grow > 0 {
		f.Data = append(f.Data, make([]byte, grow)...)
	}
	copy(f.Data[f.Offset:end], p)
	f.Offset = end
	return len(p), nil
}

// Read implements [io.Reader].
func (f *MemFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.Offset)
	f.Offset += int64(n)
	return n, err
}

// ReadAt implements [io.ReaderAt].  The file offset is not changed.
func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errInvalidOffset
	}
	if off >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n := copy(p, f.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the current length of the file.
func (f *MemFile) Size() int64 {
	return int64(len(f.Data))
}

// Seek implements [io.Seeker].
func (f *MemFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.Offset
	case io.SeekEnd:
		offset += int64(len(f.Data))
	default:
		return 0, errInvalidWhence
	}
	if offset < 0 {
		return 0, errInvalidOffset
	}
	f.Offset = offset
	return offset, nil
}

var (
	errInvalidWhence = errors.New("invalid whence")
	errInvalidOffset = errors.New("invalid offset")
)
