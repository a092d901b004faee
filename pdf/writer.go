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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Writer represents a PDF file open for writing.
// Use [NewWriter] to start a new file, or [NewIncrementalWriter] to append
// an incremental update to an existing file.
type Writer struct {
	// Version is the PDF version given in the file header.
	Version Version

	w       *posWriter
	xref    map[uint32]*xRefEntry
	nextRef uint32

	prev          int64 // position of the previous xref section, or -1
	useXRefStream bool
	needsNewline  bool
	oldTrailer    Dict

	headerWritten bool
	closed        bool
}

// NewWriter prepares a new PDF file for writing.  No data is written
// to w until [Writer.WriteHeader] is called.
func NewWriter(w io.Writer, ver Version) *Writer {
	pdf := &Writer{
		Version:       ver,
		w:             newPosWriter(w, 0),
		xref:          make(map[uint32]*xRefEntry),
		nextRef:       1,
		prev:          -1,
		useXRefStream: ver >= V1_5,
	}
	pdf.xref[0] = &xRefEntry{
		Pos:        -1,
		Generation: 65535,
	}
	return pdf
}

// NewIncrementalWriter prepares an incremental update of the file read by r.
// The writer w must append to the end of the same file.  New objects are
// numbered starting at the /Size of the existing cross-reference table.
// The cross-reference section uses the same format (table or stream) as the
// most recent section of the existing file.
func NewIncrementalWriter(w io.Writer, r *Reader) *Writer {
	pdf := &Writer{
		Version:       r.Version,
		w:             newPosWriter(w, r.size),
		xref:          make(map[uint32]*xRefEntry),
		nextRef:       r.NextRef(),
		prev:          r.startXRef,
		useXRefStream: r.xRefIsStream,
		needsNewline:  !r.endsWithEOL(),
		oldTrailer:    r.trailer,
		headerWritten: true,
	}
	return pdf
}

// WriteHeader writes the "%PDF-x.y" file header.
func (pdf *Writer) WriteHeader() error {
	if pdf.headerWritten {
		return errors.New("PDF header already written")
	}
	verString, err := pdf.Version.ToString()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(pdf.w, "%%PDF-%s\n%%\x80\x80\x80\x80\n", verString)
	if err != nil {
		return err
	}
	pdf.headerWritten = true
	return nil
}

// Alloc allocates an object number for an indirect object.
func (pdf *Writer) Alloc() Reference {
	ref := NewReference(pdf.nextRef, 0)
	pdf.nextRef++
	return ref
}

// Put writes an indirect object to the file, using the object number
// obtained from a previous call to [Writer.Alloc].  In an incremental
// update, Put can also be used to replace objects of the original file.
func (pdf *Writer) Put(ref Reference, obj Object) error {
	if err := pdf.checkRef(ref); err != nil {
		return err
	}
	return pdf.writeIndirect(ref, obj)
}

func (pdf *Writer) checkRef(ref Reference) error {
	if pdf.closed {
		return errClosed
	}
	if !pdf.headerWritten {
		return errors.New("PDF header not written")
	}
	if _, seen := pdf.xref[ref.Number()]; seen {
		return fmt.Errorf("object %s already written", ref)
	}
	if ref.Number() == 0 || ref.Number() >= pdf.nextRef {
		return fmt.Errorf("object %s was not allocated", ref)
	}
	return nil
}

func (pdf *Writer) writeIndirect(ref Reference, obj Object) error {
	if pdf.needsNewline {
		_, err := io.WriteString(pdf.w, "\n")
		if err != nil {
			return err
		}
		pdf.needsNewline = false
	}

	pos := pdf.w.pos
	_, err := fmt.Fprintf(pdf.w, "%d %d obj\n", ref.Number(), ref.Generation())
	if err != nil {
		return err
	}
	err = writeObject(pdf.w, obj)
	if err != nil {
		return err
	}
	_, err = io.WriteString(pdf.w, "\nendobj\n")
	if err != nil {
		return err
	}

	pdf.xref[ref.Number()] = &xRefEntry{Pos: pos, Generation: ref.Generation()}
	return nil
}

// OpenStream adds a PDF stream to the file and returns an io.Writer which
// can be used to add the stream's data.  The filters are applied in the
// given order, i.e. the first filter is the last one to be undone by a
// reader.  The stream object is written when the returned WriteCloser is
// closed.
func (pdf *Writer) OpenStream(ref Reference, dict Dict, filters ...Filter) (io.WriteCloser, error) {
	if err := pdf.checkRef(ref); err != nil {
		return nil, err
	}

	dict = dict.Clone()
	if dict == nil {
		dict = Dict{}
	}

	buf := &bytes.Buffer{}
	var w io.WriteCloser = nopCloser{buf}
	var names Array
	var parms Array
	hasParms := false
	for _, filter := range filters {
		name, parm := filter.Info()
		var err error
		w, err = filter.Encode(w)
		if err != nil {
			return nil, err
		}
		names = append(Array{name}, names...)
		if parm != nil {
			parms = append(Array{parm}, parms...)
			hasParms = true
		} else {
			parms = append(Array{nil}, parms...)
		}
	}
	switch len(names) {
	case 0:
		// pass
	case 1:
		dict["Filter"] = names[0]
		if hasParms {
			dict["DecodeParms"] = parms[0]
		}
	default:
		dict["Filter"] = names
		if hasParms {
			dict["DecodeParms"] = parms
		}
	}

	return &streamWriter{
		pdf:  pdf,
		ref:  ref,
		dict: dict,
		buf:  buf,
		w:    w,
	}, nil
}

type streamWriter struct {
	pdf  *Writer
	ref  Reference
	dict Dict
	buf  *bytes.Buffer
	w    io.WriteCloser
}

func (w *streamWriter) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

func (w *streamWriter) Close() error {
	err := w.w.Close()
	if err != nil {
		return err
	}
	if err := w.pdf.checkRef(w.ref); err != nil {
		return err
	}
	w.dict["Length"] = Integer(w.buf.Len())
	return w.pdf.writeIndirect(w.ref, &Stream{Dict: w.dict, R: w.buf})
}

// Close writes the cross-reference section and the trailer, and flushes
// all buffered data to the underlying writer.  The trailer dictionary must
// contain the /Root entry; /Size and (for incremental updates) /Prev are
// filled in automatically.  For incremental updates, /Root, /Info and /ID
// entries missing from trailer are copied from the previous trailer.
// The underlying writer is not closed.
func (pdf *Writer) Close(trailer Dict) error {
	if pdf.closed {
		return errClosed
	}
	trailer = trailer.Clone()
	for _, key := range []Name{"Root", "Info", "ID"} {
		if _, ok := trailer[key]; !ok && pdf.oldTrailer[key] != nil {
			if trailer == nil {
				trailer = Dict{}
			}
			trailer[key] = pdf.oldTrailer[key]
		}
	}
	if _, ok := trailer["Root"].(Reference); !ok {
		return errMissingRoot
	}
	if !pdf.headerWritten {
		return errors.New("PDF header not written")
	}

	trailer["Size"] = Integer(pdf.nextRef)
	if pdf.prev >= 0 {
		trailer["Prev"] = Integer(pdf.prev)
	}

	if pdf.needsNewline {
		_, err := io.WriteString(pdf.w, "\n")
		if err != nil {
			return err
		}
		pdf.needsNewline = false
	}

	xRefPos := pdf.w.pos
	var err error
	if pdf.useXRefStream {
		err = pdf.writeXRefStream(trailer)
	} else {
		err = pdf.writeXRefTable(trailer)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(pdf.w, "\nstartxref\n%d\n%%%%EOF\n", xRefPos)
	if err != nil {
		return err
	}
	pdf.closed = true
	return pdf.w.Flush()
}

var errClosed = errors.New("PDF writer already closed")

// Filter represents a PDF stream filter used when writing streams.
type Filter interface {
	// Info returns the name of the filter and its decode parameters (or nil).
	Info() (Name, Dict)

	// Encode returns a writer which encodes the data written to it and
	// passes the result on to w.  Closing the returned writer must close w.
	Encode(w io.WriteCloser) (io.WriteCloser, error)
}

// FilterFlate is the FlateDecode filter, without predictor.
type FilterFlate struct{}

// Info implements the [Filter] interface.
func (FilterFlate) Info() (Name, Dict) {
	return "FlateDecode", nil
}

// Encode implements the [Filter] interface.
func (FilterFlate) Encode(w io.WriteCloser) (io.WriteCloser, error) {
	zw, err := zlib.NewWriterLevel(w, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	return &closeBoth{zw, w}, nil
}

type closeBoth struct {
	io.WriteCloser
	next io.Closer
}

func (c *closeBoth) Close() error {
	err := c.WriteCloser.Close()
	err2 := c.next.Close()
	if err == nil {
		err = err2
	}
	return err
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

type posWriter struct {
	w   *bufio.Writer
	pos int64
}

func newPosWriter(w io.Writer, pos int64) *posWriter {
	return &posWriter{w: bufio.NewWriter(w), pos: pos}
}

func (w *posWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}

func (w *posWriter) Flush() error {
	return w.w.Flush()
}
