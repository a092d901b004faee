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

package asciihex

import (
	"encoding/hex"
	"io"
)

// Encode returns a new WriteCloser which encodes data in ASCII hexadecimal
// form.  Output lines are at most width characters long.  The returned
// WriteCloser must be closed to write the end-of-data marker; this also
// closes the underlying writer.
func Encode(w io.WriteCloser, width int) io.WriteCloser {
	return &hexWriter{w: w, width: max(width, 2)}
}

type hexWriter struct {
	w     io.WriteCloser
	width int
	col   int
	buf   []byte
}

// Write implements the io.Writer interface.
func (w *hexWriter) Write(p []byte) (n int, err error) {
	for n < len(p) {
		w.buf = w.buf[:0]
		for n < len(p) && len(w.buf) < 1024 {
			if w.col+2 > w.width {
				w.buf = append(w.buf, '\n')
				w.col = 0
			}
			w.buf = hex.AppendEncode(w.buf, p[n:n+1])
			w.col += 2
			n++
		}
		_, err = w.w.Write(w.buf)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Close writes the end-of-data marker and closes the underlying writer.
func (w *hexWriter) Close() error {
	marker := ">"
	if w.col+1 > w.width {
		marker = "\n>"
	}
	_, err := io.WriteString(w.w, marker)
	if err != nil {
		return err
	}
	return w.w.Close()
}
