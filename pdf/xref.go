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
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"slices"
	"strconv"

	"golang.org/x/exp/maps"
)

type xRefEntry struct {
	InStream   Reference // object stream containing the object, or 0
	Pos        int64     // byte offset, or index within the object stream
	Generation uint16
}

func (entry *xRefEntry) IsFree() bool {
	return entry == nil || entry.Pos < 0
}

type xRefSubSection struct {
	Start, Size int
}

func (r *Reader) findXRef() (int64, error) {
	pos, err := r.lastOccurence("startxref")
	if err != nil {
		return 0, err
	}
	s := r.scannerAt(pos + 9)
	err = s.skipWhiteSpace()
	if err != nil {
		return 0, err
	}
	xRefPos, err := s.readInteger()
	if err != nil {
		return 0, err
	}
	if xRefPos <= 0 || int64(xRefPos) >= r.size {
		return 0, &MalformedFileError{
			Pos: s.filePos(),
			Err: errors.New("invalid xref position"),
		}
	}
	return int64(xRefPos), nil
}

func (r *Reader) lastOccurence(pat string) (int64, error) {
	const chunkSize = 1024

	buf := make([]byte, chunkSize)
	k := int64(len(pat))
	pos := r.size
	for pos >= k {
		start := max(pos-chunkSize, 0)
		n, err := r.r.ReadAt(buf[:pos-start], start)
		if err != nil && err != io.EOF {
			return 0, err
		}

		idx := bytes.LastIndex(buf[:n], []byte(pat))
		if idx >= 0 {
			return start + int64(idx), nil
		}

		if start == 0 {
			break
		}
		pos = start + k - 1
	}
	return 0, &MalformedFileError{
		Err: errors.New("startxref not found"),
	}
}

// readXRef reads the chain of cross-reference sections, starting with the
// most recent one.  Entries from newer sections take precedence.
func (r *Reader) readXRef() (map[uint32]*xRefEntry, Dict, error) {
	start, err := r.findXRef()
	if err != nil {
		return nil, nil, err
	}
	r.startXRef = start

	xref := make(map[uint32]*xRefEntry)
	trailer := Dict{}
	first := true
	size := Integer(0)
	seen := make(map[int64]bool)
	for {
		// avoid xref loops
		if seen[start] {
			break
		}
		seen[start] = true

		s := r.scannerAt(start)
		buf, err := s.peek(4)
		if err != nil {
			return nil, nil, err
		}
		var dict Dict
		isStream := false
		if bytes.Equal(buf, []byte("xref")) {
			dict, err = r.readXRefTable(xref, s)
			if err != nil {
				return nil, nil, err
			}
			if xRefStm, ok := dict["XRefStm"]; ok {
				zStart, ok := xRefStm.(Integer)
				if !ok || zStart <= 0 || int64(zStart) >= r.size {
					return nil, nil, &MalformedFileError{
						Pos: start,
						Err: errors.New("invalid /XRefStm"),
					}
				}
				_, err = r.readXRefStream(xref, r.scannerAt(int64(zStart)))
				if err != nil {
					return nil, nil, err
				}
			}
		} else {
			dict, err = r.readXRefStream(xref, s)
			if err != nil {
				return nil, nil, err
			}
			isStream = true
		}

		if first {
			for _, key := range []Name{"Root", "Encrypt", "Info", "ID"} {
				if val, ok := dict[key]; ok {
					trailer[key] = val
				}
			}
			r.xRefIsStream = isStream
			first = false
		}
		if sz, ok := dict["Size"].(Integer); ok && sz > size {
			size = sz
		}

		prev := dict["Prev"]
		if prev == nil {
			break
		}
		prevStart, ok := prev.(Integer)
		if !ok || prevStart <= 0 || int64(prevStart) >= r.size {
			return nil, nil, &MalformedFileError{
				Pos: start,
				Err: fmt.Errorf("invalid /Prev value %s", Format(prev)),
			}
		}
		start = int64(prevStart)
	}
	trailer["Size"] = size

	return xref, trailer, nil
}

func (r *Reader) readXRefTable(xref map[uint32]*xRefEntry, s *scanner) (Dict, error) {
	err := s.skipString("xref")
	if err != nil {
		return nil, err
	}
	err = s.skipWhiteSpace()
	if err != nil {
		return nil, err
	}

	for {
		buf, err := s.peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 || buf[0] < '0' || buf[0] > '9' {
			break
		}

		start, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}
		length, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		if start < 0 || length < 0 || start+length > 1<<32 {
			return nil, &MalformedFileError{
				Pos: s.filePos(),
				Err: errors.New("invalid xref subsection"),
			}
		}
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}

		err = decodeXRefSection(xref, s, int(start), int(start+length))
		if err != nil {
			return nil, err
		}
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}
	}

	err = s.skipString("trailer")
	if err != nil {
		return nil, err
	}
	err = s.skipWhiteSpace()
	if err != nil {
		return nil, err
	}
	return s.readDict()
}

func decodeXRefSection(xref map[uint32]*xRefEntry, s *scanner, start, end int) error {
	for i := start; i < end; i++ {
		buf, err := s.peek(20)
		if err != nil {
			return err
		}
		if len(buf) < 20 {
			return &MalformedFileError{
				Pos: s.filePos(),
				Err: io.ErrUnexpectedEOF,
			}
		}
		if xref[uint32(i)] != nil {
			s.pos += 20
			continue
		}

		a, err := strconv.ParseInt(string(buf[:10]), 10, 64)
		if err != nil {
			return errPos(s.filePos(), err)
		}
		b, err := strconv.ParseUint(string(buf[11:16]), 10, 16)
		if err != nil {
			// fix a common error in some PDF files
			if bytes.HasPrefix(buf, []byte("0000000000 65536 ")) {
				b = 65535
				buf[17] = 'f'
			} else {
				return errPos(s.filePos(), err)
			}
		}
		switch buf[17] {
		case 'f':
			xref[uint32(i)] = &xRefEntry{
				Pos:        -1,
				Generation: uint16(b),
			}
		case 'n':
			xref[uint32(i)] = &xRefEntry{
				Pos:        a,
				Generation: uint16(b),
			}
		default:
			return &MalformedFileError{
				Pos: s.filePos(),
				Err: errors.New("malformed xref table"),
			}
		}

		s.pos += 20
	}
	return nil
}

func (r *Reader) readXRefStream(xref map[uint32]*xRefEntry, s *scanner) (Dict, error) {
	pos := s.filePos()
	obj, _, err := s.readIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok || stream.Dict["Type"] != Name("XRef") {
		return nil, &MalformedFileError{
			Pos: pos,
			Err: errors.New("invalid xref stream"),
		}
	}
	dict := stream.Dict

	w, ss, err := checkXRefStreamDict(dict)
	if err != nil {
		return nil, errPos(pos, err)
	}
	data, err := DecodeStream(r, stream)
	if err != nil {
		return nil, errPos(pos, err)
	}
	err = decodeXRefStream(xref, data, w, ss)
	if err != nil {
		return nil, errPos(pos, err)
	}

	return dict, nil
}

func checkXRefStreamDict(dict Dict) ([]int, []*xRefSubSection, error) {
	size, ok := dict["Size"].(Integer)
	if !ok || size < 0 {
		return nil, nil, errors.New("invalid /Size in xref stream")
	}
	W, ok := dict["W"].(Array)
	if !ok || len(W) < 3 {
		return nil, nil, errors.New("invalid /W in xref stream")
	}
	var w []int
	for i, Wi := range W {
		wi, ok := Wi.(Integer)
		if !ok || i < 3 && (wi < 0 || wi > 8) {
			return nil, nil, errors.New("invalid /W in xref stream")
		}
		w = append(w, int(wi))
	}

	var ss []*xRefSubSection
	if Index := dict["Index"]; Index == nil {
		ss = append(ss, &xRefSubSection{0, int(size)})
	} else {
		ind, ok := Index.(Array)
		if !ok || len(ind)%2 != 0 {
			return nil, nil, errors.New("invalid /Index in xref stream")
		}
		for i := 0; i < len(ind); i += 2 {
			start, ok1 := ind[i].(Integer)
			size, ok2 := ind[i+1].(Integer)
			if !ok1 || !ok2 || start < 0 || size < 0 {
				return nil, nil, errors.New("invalid /Index in xref stream")
			}
			ss = append(ss, &xRefSubSection{int(start), int(size)})
		}
	}
	return w, ss, nil
}

func decodeXRefStream(xref map[uint32]*xRefEntry, r io.Reader, w []int, ss []*xRefSubSection) error {
	wTotal := 0
	for _, wi := range w {
		wTotal += wi
	}
	buf := make([]byte, wTotal)

	w0 := w[0]
	w1 := w[1]
	w2 := w[2]
	for _, sec := range ss {
		for i := sec.Start; i < sec.Start+sec.Size; i++ {
			_, err := io.ReadFull(r, buf)
			if err != nil {
				return err
			}

			if xref[uint32(i)] != nil {
				continue
			}

			tp := decodeInt(buf[:w0])
			if w0 == 0 {
				tp = 1
			}
			a := decodeInt(buf[w0 : w0+w1])
			b := decodeInt(buf[w0+w1 : w0+w1+w2])
			switch tp {
			case 0:
				// free object
				xref[uint32(i)] = &xRefEntry{
					Pos:        -1,
					Generation: uint16(b),
				}
			case 1:
				// used object, not compressed
				xref[uint32(i)] = &xRefEntry{
					Pos:        a,
					Generation: uint16(b),
				}
			case 2:
				// used object, stored in object stream a at index b
				xref[uint32(i)] = &xRefEntry{
					Pos:      b,
					InStream: NewReference(uint32(a), 0),
				}
			}
		}
	}
	return nil
}

func decodeInt(buf []byte) (res int64) {
	for _, x := range buf {
		res = res<<8 | int64(x)
	}
	return res
}

// subsections groups the object numbers of the entries into contiguous
// runs.
func subsections(xref map[uint32]*xRefEntry) []*xRefSubSection {
	var res []*xRefSubSection
	numbers := maps.Keys(xref)
	slices.Sort(numbers)
	for _, n := range numbers {
		k := len(res)
		if k > 0 && res[k-1].Start+res[k-1].Size == int(n) {
			res[k-1].Size++
			continue
		}
		res = append(res, &xRefSubSection{Start: int(n), Size: 1})
	}
	return res
}

func (pdf *Writer) writeXRefTable(trailer Dict) error {
	_, err := io.WriteString(pdf.w, "xref\n")
	if err != nil {
		return err
	}
	for _, sec := range subsections(pdf.xref) {
		_, err = fmt.Fprintf(pdf.w, "%d %d\n", sec.Start, sec.Size)
		if err != nil {
			return err
		}
		for i := sec.Start; i < sec.Start+sec.Size; i++ {
			entry := pdf.xref[uint32(i)]
			if entry.Pos >= 0 {
				_, err = fmt.Fprintf(pdf.w, "%010d %05d n\r\n",
					entry.Pos, entry.Generation)
			} else {
				_, err = fmt.Fprintf(pdf.w, "0000000000 %05d f\r\n",
					entry.Generation)
			}
			if err != nil {
				return err
			}
		}
	}

	_, err = io.WriteString(pdf.w, "trailer\n")
	if err != nil {
		return err
	}
	return trailer.PDF(pdf.w)
}

func (pdf *Writer) writeXRefStream(trailer Dict) error {
	ref := pdf.Alloc()
	pdf.xref[ref.Number()] = &xRefEntry{Pos: pdf.w.pos}
	trailer["Size"] = Integer(pdf.nextRef)

	ss := subsections(pdf.xref)
	var index Array
	maxField2 := int64(0)
	maxField3 := uint16(0)
	for _, entry := range pdf.xref {
		var f2 int64
		var f3 uint16
		if entry.Pos >= 0 {
			f2 = entry.Pos
			f3 = entry.Generation
		} else if entry.Generation != 65535 {
			f3 = entry.Generation
		}
		maxField2 = max(maxField2, f2)
		maxField3 = max(maxField3, f3)
	}
	w2 := max((bits.Len64(uint64(maxField2))+7)/8, 1)
	w3 := (bits.Len16(maxField3) + 7) / 8

	data := &bytes.Buffer{}
	for _, sec := range ss {
		index = append(index, Integer(sec.Start), Integer(sec.Size))
		for i := sec.Start; i < sec.Start+sec.Size; i++ {
			entry := pdf.xref[uint32(i)]
			if entry.Pos < 0 {
				gen := entry.Generation
				if gen == 65535 {
					gen = 0
				}
				data.WriteByte(0)
				encodeInt(data, 0, w2)
				encodeInt(data, uint64(gen), w3)
			} else {
				data.WriteByte(1)
				encodeInt(data, uint64(entry.Pos), w2)
				encodeInt(data, uint64(entry.Generation), w3)
			}
		}
	}

	dict := trailer.Clone()
	dict["Type"] = Name("XRef")
	dict["W"] = Array{Integer(1), Integer(w2), Integer(w3)}
	dict["Index"] = index

	body := &bytes.Buffer{}
	zw, err := FilterFlate{}.Encode(nopCloser{body})
	if err != nil {
		return err
	}
	_, err = zw.Write(data.Bytes())
	if err != nil {
		return err
	}
	err = zw.Close()
	if err != nil {
		return err
	}
	name, _ := FilterFlate{}.Info()
	dict["Filter"] = name
	dict["Length"] = Integer(body.Len())
	return pdf.writeIndirect(ref, &Stream{Dict: dict, R: body})
}

func encodeInt(data *bytes.Buffer, x uint64, w int) {
	for i := w - 1; i >= 0; i-- {
		data.WriteByte(byte(x >> (i * 8)))
	}
}
