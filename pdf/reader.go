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
	"errors"
	"io"
)

// Reader gives access to the objects of an existing PDF file.
// Use [NewReader] to create a new Reader.
type Reader struct {
	// Version is the PDF version used in this file.  This is specified in
	// the file header, and may be overridden by the /Version entry in the
	// document catalog.
	Version Version

	// ID is the file identifier, a slice of two byte slices (the original
	// ID of the file and the ID of the current version), or nil if the file
	// does not specify an ID.
	ID [][]byte

	size int64
	r    io.ReaderAt

	xref         map[uint32]*xRefEntry
	trailer      Dict
	startXRef    int64
	xRefIsStream bool

	level int
}

// NewReader creates a new Reader object.  The argument size is the length
// of the file in bytes.
//
// Errors caused by invalid file contents are of type [*MalformedFileError].
// Encrypted files are rejected with an error wrapping [ErrEncrypted].
func NewReader(data io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{
		size: size,
		r:    data,
	}

	s := r.scannerAt(0)
	version, err := s.readHeaderVersion()
	if err != nil {
		return nil, err
	}
	r.Version = version

	xref, trailer, err := r.readXRef()
	if err != nil {
		return nil, err
	}
	r.xref = xref
	r.trailer = trailer

	if _, ok := trailer["Encrypt"]; ok {
		return nil, &MalformedFileError{Err: ErrEncrypted}
	}

	if ID, ok := trailer["ID"].(Array); ok && len(ID) >= 2 {
		for i := 0; i < 2; i++ {
			s, ok := ID[i].(String)
			if !ok {
				break
			}
			r.ID = append(r.ID, []byte(s))
		}
		if len(r.ID) != 2 {
			r.ID = nil
		}
	}

	catalog, err := r.Catalog()
	if err != nil {
		return nil, err
	}
	if verName, _ := catalog["Version"].(Name); verName != "" {
		v, err := ParseVersion(string(verName))
		if err == nil && v > r.Version {
			r.Version = v
		}
	}

	return r, nil
}

// Trailer returns the merged trailer dictionary of the file.  The /Root,
// /Info and /ID entries are taken from the most recent trailer, /Size
// is the largest value found in the chain of trailers.
func (r *Reader) Trailer() Dict {
	return r.trailer
}

// Catalog returns the document catalog.
func (r *Reader) Catalog() (Dict, error) {
	ref, ok := r.trailer["Root"].(Reference)
	if !ok {
		return nil, &MalformedFileError{Pos: r.startXRef, Err: errMissingRoot}
	}
	catalog, err := GetDict(r, ref)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, &MalformedFileError{Pos: r.startXRef, Err: errMissingRoot}
	}
	return catalog, nil
}

// Size returns the length of the file in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// NextRef returns the smallest object number which is not used in the
// file.
func (r *Reader) NextRef() uint32 {
	next := uint32(0)
	if size, ok := r.trailer["Size"].(Integer); ok && size > 0 && size < 1<<32 {
		next = uint32(size)
	}
	for n := range r.xref {
		if n >= next {
			next = n + 1
		}
	}
	return max(next, 1)
}

// endsWithEOL reports whether the file ends with an end-of-line marker.
func (r *Reader) endsWithEOL() bool {
	if r.size == 0 {
		return false
	}
	buf := make([]byte, 1)
	_, err := r.r.ReadAt(buf, r.size-1)
	if err != nil {
		return false
	}
	return buf[0] == '\n' || buf[0] == '\r'
}

// Get reads an indirect object from the file.  References to free or
// missing objects resolve to nil.
//
// This implements the [Getter] interface.
func (r *Reader) Get(ref Reference) (Object, error) {
	return r.doGet(ref, true)
}

func (r *Reader) doGet(ref Reference, canStream bool) (Object, error) {
	entry := r.xref[ref.Number()]
	if entry.IsFree() {
		return nil, nil
	}

	if entry.InStream != 0 {
		if !canStream {
			return nil, &MalformedFileError{
				Err: errors.New("object streams inside streams not allowed"),
			}
		}
		return r.getFromObjectStream(ref.Number(), entry.InStream)
	}
	if entry.Generation != ref.Generation() {
		return nil, nil
	}

	s := r.scannerAt(entry.Pos)
	obj, fileRef, err := s.readIndirectObject()
	if err != nil {
		return nil, err
	}
	if ref != fileRef {
		return nil, &MalformedFileError{
			Pos: entry.Pos,
			Err: errors.New("xref corrupted"),
		}
	}

	return obj, nil
}

type stmObj struct {
	number uint32
	offs   int64
}

func (r *Reader) getFromObjectStream(number uint32, sRef Reference) (Object, error) {
	container, err := r.doGet(sRef, false)
	if err != nil {
		return nil, err
	}
	stream, ok := container.(*Stream)
	if !ok {
		return nil, &MalformedFileError{
			Pos: r.errPos(sRef),
			Err: errors.New("wrong type for object stream"),
		}
	}

	N, ok := stream.Dict["N"].(Integer)
	if !ok || N < 0 || N > 1_000_000 {
		return nil, &MalformedFileError{
			Pos: r.errPos(sRef),
			Err: errors.New("no valid /N for ObjStm"),
		}
	}
	first, ok := stream.Dict["First"].(Integer)
	if !ok || first < 0 {
		return nil, &MalformedFileError{
			Pos: r.errPos(sRef),
			Err: errors.New("no valid /First for ObjStm"),
		}
	}

	decoded, err := DecodeStream(r, stream)
	if err != nil {
		return nil, errPos(r.errPos(sRef), err)
	}
	s := newScanner(decoded, 0, r.safeGetInt)

	idx := make([]stmObj, N)
	for i := range idx {
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}
		no, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}
		offs, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		idx[i].number = uint32(no)
		idx[i].offs = int64(offs) + int64(first)
	}

	for _, info := range idx {
		if info.number != number {
			continue
		}
		delta := info.offs - s.bytesRead()
		if delta < 0 {
			break
		}
		err = s.discard(delta)
		if err != nil {
			return nil, err
		}
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}
		obj, err := s.readObject()
		if err != nil {
			return nil, err
		}
		if a, isInt := obj.(Integer); isInt {
			// a reference stored in an object stream
			err = s.skipWhiteSpace()
			if err != nil {
				return nil, err
			}
			buf, _ := s.peek(1)
			if len(buf) > 0 && buf[0] >= '0' && buf[0] <= '9' {
				b, err := s.readInteger()
				if err != nil {
					return nil, err
				}
				err = s.skipWhiteSpace()
				if err != nil {
					return nil, err
				}
				if s.skipString("R") == nil {
					obj = NewReference(uint32(a), uint16(b))
				}
			}
		}
		return obj, nil
	}

	return nil, &MalformedFileError{
		Pos: r.errPos(sRef),
		Err: errors.New("object missing from stream"),
	}
}

func (r *Reader) safeGetInt(obj Object) (Integer, error) {
	if x, ok := obj.(Integer); ok {
		return x, nil
	}

	if r.level > 2 {
		return 0, &MalformedFileError{
			Err: errors.New("too many nested stream lengths"),
		}
	}
	r.level++
	val, err := GetInt(r, obj)
	r.level--
	return val, err
}

func (r *Reader) scannerAt(pos int64) *scanner {
	s := newScanner(io.NewSectionReader(r.r, pos, r.size-pos), pos, r.safeGetInt)
	s.ra = r.r
	return s
}

func (r *Reader) errPos(ref Reference) int64 {
	number := ref.Number()
	for range 2 {
		entry := r.xref[number]
		if entry.IsFree() {
			return 0
		}
		if entry.InStream == 0 {
			return entry.Pos
		}
		number = entry.InStream.Number()
	}
	return 0
}
