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
	"strconv"
)

const scannerBufSize = 1024

type scanner struct {
	r    io.Reader
	ra   io.ReaderAt // used for stream data, may be nil
	base int64       // file position of the first byte read from r

	buf       []byte
	used, pos int
	total     int64
	getInt    func(Object) (Integer, error)
}

func newScanner(r io.Reader, base int64, getInt func(Object) (Integer, error)) *scanner {
	return &scanner{
		r:      r,
		base:   base,
		buf:    make([]byte, scannerBufSize),
		getInt: getInt,
	}
}

// filePos returns the file position of the next unread byte.
func (s *scanner) filePos() int64 {
	return s.base + s.total + int64(s.pos)
}

// bytesRead returns the number of bytes consumed so far.
func (s *scanner) bytesRead() int64 {
	return s.total + int64(s.pos)
}

// readIndirectObject reads an object of the form "n g obj ... endobj".
func (s *scanner) readIndirectObject() (Object, Reference, error) {
	// Some files point the xref entries at the end of the previous line.
	err := s.skipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}

	number, err := s.readInteger()
	if err != nil {
		return nil, 0, err
	}
	err = s.skipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}
	generation, err := s.readInteger()
	if err != nil {
		return nil, 0, err
	}
	if number < 0 || number > 0xFFFFFFFF || generation < 0 || generation > 0xFFFF {
		return nil, 0, &MalformedFileError{
			Pos: s.filePos(),
			Err: errors.New("invalid object number"),
		}
	}
	ref := NewReference(uint32(number), uint16(generation))

	err = s.skipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}
	err = s.skipString("obj")
	if err != nil {
		return nil, 0, err
	}
	err = s.skipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}

	obj, err := s.readObject()
	if err != nil {
		return nil, 0, err
	}
	err = s.skipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}

	if a, ok := obj.(Integer); ok {
		// check whether this is the start of a reference
		buf, err := s.peek(6)
		if err != nil {
			return nil, 0, err
		}
		if !bytes.Equal(buf, []byte("endobj")) {
			b, err := s.readInteger()
			if err != nil {
				return nil, 0, err
			}
			err = s.skipWhiteSpace()
			if err != nil {
				return nil, 0, err
			}
			err = s.skipString("R")
			if err != nil {
				return nil, 0, err
			}
			err = s.skipWhiteSpace()
			if err != nil {
				return nil, 0, err
			}
			obj = NewReference(uint32(a), uint16(b))
		}
	}

	if _, isStream := obj.(*Stream); !isStream {
		err = s.skipString("endobj")
		if err != nil {
			return nil, 0, err
		}
	}

	return obj, ref, nil
}

// readObject reads a direct object.  Integers are returned as they are; it
// is the caller's responsibility to check whether they start a reference.
func (s *scanner) readObject() (Object, error) {
	buf, err := s.peek(5) // len("false") == 5
	if err == nil {
		// Below, we return `err` if we cannot detect an object.
		if len(buf) < 5 {
			err = &MalformedFileError{Pos: s.filePos(), Err: io.ErrUnexpectedEOF}
		} else {
			err = &MalformedFileError{Pos: s.filePos(), Err: errors.New("object expected")}
		}
	}

	switch {
	case len(buf) == 0:
		return nil, err
	case bytes.HasPrefix(buf, []byte("null")):
		s.pos += 4
		return nil, nil
	case bytes.HasPrefix(buf, []byte("true")):
		s.pos += 4
		return Bool(true), nil
	case bytes.HasPrefix(buf, []byte("false")):
		s.pos += 5
		return Bool(false), nil
	case buf[0] == '/':
		return s.readName()
	case buf[0] >= '0' && buf[0] <= '9', buf[0] == '+', buf[0] == '-', buf[0] == '.':
		return s.readNumber()
	case bytes.HasPrefix(buf, []byte("<<")):
		dict, err := s.readDict()
		if err != nil {
			return nil, err
		}

		// check whether this is the start of a stream
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, _ = s.peek(6) // len("stream") == 6
		if !bytes.HasPrefix(buf, []byte("stream")) {
			return dict, nil
		}
		return s.readStreamData(dict)
	case buf[0] == '(':
		s.pos++
		return s.readQuotedString()
	case buf[0] == '<':
		s.pos++
		return s.readHexString()
	case buf[0] == '[':
		s.pos++
		return s.readArray()
	}
	return nil, err
}

// readInteger reads an integer.
func (s *scanner) readInteger() (Integer, error) {
	obj, err := s.readNumber()
	if err != nil {
		return 0, err
	}
	x, ok := obj.(Integer)
	if !ok {
		return 0, &MalformedFileError{Pos: s.filePos(), Err: errors.New("integer expected")}
	}
	return x, nil
}

// readNumber reads an integer or real number.
func (s *scanner) readNumber() (Object, error) {
	hasDot := false
	first := true
	var res []byte
	err := s.scanBytes(func(c byte) bool {
		if !hasDot && c == '.' {
			hasDot = true
			res = append(res, c)
		} else if first && (c == '+' || c == '-') {
			res = append(res, c)
		} else if c >= '0' && c <= '9' {
			res = append(res, c)
		} else {
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return nil, err
	}

	if hasDot {
		x, err := strconv.ParseFloat(string(res), 64)
		if err != nil {
			return nil, &MalformedFileError{Pos: s.filePos(), Err: err}
		}
		return Real(x), nil
	}

	x, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		return nil, &MalformedFileError{Pos: s.filePos(), Err: err}
	}
	return Integer(x), nil
}

// readQuotedString reads a ()-delimited string, starting after the opening
// bracket.
func (s *scanner) readQuotedString() (String, error) {
	var res []byte
	parentCount := 0
	escape := false
	ignoreLF := false
	isOctal := 0
	octalVal := byte(0)
	err := s.scanBytes(func(c byte) bool {
		if ignoreLF {
			ignoreLF = false
			if c == '\n' {
				return true
			}
		}
		if isOctal > 0 {
			if c >= '0' && c <= '7' {
				octalVal = octalVal*8 + (c - '0')
				isOctal--
				if isOctal > 0 {
					return true
				}
				res = append(res, octalVal)
				return true
			}
			// octal escapes may have fewer than three digits
			res = append(res, octalVal)
			isOctal = 0
		}
		if escape {
			escape = false
			switch c {
			case '\n':
				return true
			case '\r':
				ignoreLF = true
				return true
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			}
			if c >= '0' && c <= '7' {
				isOctal = 2
				octalVal = c - '0'
				return true
			}
		} else if c == '\\' {
			escape = true
			return true
		} else if c == '(' {
			parentCount++
		} else if c == ')' {
			if parentCount > 0 {
				parentCount--
			} else {
				return false
			}
		} else if c == '\r' {
			c = '\n'
			ignoreLF = true
		}
		res = append(res, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	if isOctal > 0 {
		res = append(res, octalVal)
	}

	err = s.skipString(")")
	if err != nil {
		return nil, err
	}
	return String(res), nil
}

// readHexString reads a <>-delimited string, starting after the opening
// angled bracket.
func (s *scanner) readHexString() (String, error) {
	var res []byte
	var hexVal byte
	first := true
	err := s.scanBytes(func(c byte) bool {
		var d byte
		if c >= '0' && c <= '9' {
			d = c - '0'
		} else if c >= 'A' && c <= 'F' {
			d = c - 'A' + 10
		} else if c >= 'a' && c <= 'f' {
			d = c - 'a' + 10
		} else if c == '>' {
			return false
		} else {
			return true
		}
		if first {
			hexVal = d
		} else {
			res = append(res, 16*hexVal+d)
		}
		first = !first
		return true
	})
	if err != nil {
		return nil, err
	}
	if !first {
		res = append(res, 16*hexVal)
	}

	err = s.skipString(">")
	if err != nil {
		return nil, err
	}
	return String(res), nil
}

// readName reads a PDF name object.
func (s *scanner) readName() (Name, error) {
	err := s.skipString("/")
	if err != nil {
		return "", err
	}

	hex := 0
	var hexByte byte
	var res []byte
	err = s.scanBytes(func(c byte) bool {
		if hex > 0 {
			var val byte
			if c >= '0' && c <= '9' {
				val = c - '0'
			} else if c >= 'A' && c <= 'F' {
				val = c - 'A' + 10
			} else if c >= 'a' && c <= 'f' {
				val = c - 'a' + 10
			}
			hexByte = 16*hexByte + val
			hex--
			if hex == 0 {
				res = append(res, hexByte)
			}
		} else if c == '#' {
			hexByte = 0
			hex = 2
		} else if isSpace[c] || isDelimiter[c] {
			return false
		} else {
			res = append(res, c)
		}
		return true
	})
	if err != nil && err != io.EOF {
		return "", err
	}

	return Name(res), nil
}

// readArray reads an array, starting after the opening "[".
func (s *scanner) readArray() (Array, error) {
	var array Array
	integersSeen := 0
	for {
		err := s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}

		buf, err := s.peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			return nil, &MalformedFileError{Pos: s.filePos(), Err: io.ErrUnexpectedEOF}
		}
		if buf[0] == ']' {
			break
		}
		if integersSeen >= 2 && buf[0] == 'R' {
			s.pos++
			k := len(array)
			a := uint32(array[k-2].(Integer))
			b := uint16(array[k-1].(Integer))
			array = append(array[:k-2], NewReference(a, b))
			integersSeen = 0
			continue
		}

		obj, err := s.readObject()
		if err != nil {
			return nil, err
		}

		if _, isInt := obj.(Integer); isInt {
			integersSeen++
		} else {
			integersSeen = 0
		}

		array = append(array, obj)
	}
	s.pos++ // we have already seen the closing "]"

	return array, nil
}

// readDict reads a PDF dictionary.
func (s *scanner) readDict() (Dict, error) {
	err := s.skipString("<<")
	if err != nil {
		return nil, err
	}
	err = s.skipWhiteSpace()
	if err != nil {
		return nil, err
	}

	dict := make(Dict)
	for {
		buf, err := s.peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 || buf[0] != '/' {
			break
		}
		key, err := s.readName()
		if err != nil {
			return nil, err
		}
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}

		val, err := s.readObject()
		if err != nil {
			return nil, err
		}
		err = s.skipWhiteSpace()
		if err != nil {
			return nil, err
		}

		// If we found an integer, check whether this is a reference to an
		// indirect object.
		if a, isInt := val.(Integer); isInt {
			buf, err := s.peek(1)
			if err != nil {
				return nil, err
			}
			if len(buf) == 0 {
				return nil, &MalformedFileError{
					Pos: s.filePos(),
					Err: io.ErrUnexpectedEOF,
				}
			}
			if buf[0] >= '0' && buf[0] <= '9' {
				b, err := s.readInteger()
				if err != nil {
					return nil, err
				}
				err = s.skipWhiteSpace()
				if err != nil {
					return nil, err
				}
				err = s.skipString("R")
				if err != nil {
					return nil, err
				}
				err = s.skipWhiteSpace()
				if err != nil {
					return nil, err
				}
				val = NewReference(uint32(a), uint16(b))
			}
		}

		if val != nil {
			dict[key] = val
		}
	}
	err = s.skipString(">>")
	if err != nil {
		return nil, err
	}

	return dict, nil
}

// readStreamData reads the data of a PDF Stream, starting after the Dict.
func (s *scanner) readStreamData(dict Dict) (*Stream, error) {
	if s.ra == nil {
		return nil, &MalformedFileError{
			Pos: s.filePos(),
			Err: errors.New("unexpected stream"),
		}
	}

	length, err := s.getInt(dict["Length"])
	if err != nil {
		return nil, err
	} else if length < 0 {
		return nil, &MalformedFileError{
			Pos: s.filePos(),
			Err: errors.New("stream with negative length"),
		}
	}

	err = s.skipString("stream")
	if err != nil {
		return nil, err
	}
	buf, err := s.peek(2)
	if err != nil {
		return nil, err
	}
	if len(buf) >= 1 && buf[0] == '\n' {
		s.pos++
	} else if len(buf) >= 2 && buf[0] == '\r' && buf[1] == '\n' {
		s.pos += 2
	} else {
		return nil, &MalformedFileError{
			Pos: s.filePos(),
			Err: errors.New("missing end of line after \"stream\""),
		}
	}

	start := s.filePos()
	l := int64(length)
	streamData := io.NewSectionReader(s.ra, start, l)
	err = s.discard(l)
	if err != nil {
		return nil, err
	}

	err = s.skipWhiteSpace()
	if err != nil {
		return nil, err
	}
	err = s.skipString("endstream")
	if err != nil {
		return nil, err
	}

	return &Stream{
		Dict: dict,
		R:    streamData,
	}, nil
}

func (s *scanner) readHeaderVersion() (Version, error) {
	buf, err := s.peek(16)
	if err != nil {
		return 0, err
	}

	idx := bytes.Index(buf, []byte("%PDF-"))
	if idx < 0 || len(buf) < idx+8 {
		return 0, &MalformedFileError{
			Err: errors.New("PDF header not found"),
		}
	}
	version, err := ParseVersion(string(buf[idx+5 : idx+8]))
	if err != nil {
		return 0, &MalformedFileError{Pos: int64(idx + 5), Err: err}
	}
	return version, nil
}

// refill discards the read part of the buffer and reads as much new data as
// possible.  Once the end of file is reached, s.used will be smaller than the
// buffer size, but no error will be returned.
func (s *scanner) refill() error {
	s.total += int64(s.pos)
	copy(s.buf, s.buf[s.pos:s.used])
	s.used -= s.pos
	s.pos = 0

	n, err := io.ReadFull(s.r, s.buf[s.used:])
	s.used += n

	if s.used > 0 || err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}

	return err
}

// peek returns a view of the next n bytes of input.  The function panics, if n
// is larger than scannerBufSize.  On EOF, short buffers without an error code
// will be returned.
func (s *scanner) peek(n int) ([]byte, error) {
	if n > scannerBufSize {
		panic("peek window too large")
	}

	var err error
	if s.pos+n > s.used {
		err = s.refill()
	}

	if s.pos+n > s.used {
		return s.buf[s.pos:s.used], err
	}

	return s.buf[s.pos : s.pos+n], nil
}

// discard skips the next n bytes of input.
func (s *scanner) discard(n int64) error {
	if n < 0 {
		panic("negative offset for Discard()")
	}
	unread := int64(s.used - s.pos)
	if n <= unread {
		s.pos += int(n)
		return nil
	}

	n -= unread
	s.total += int64(s.used)
	s.pos = 0
	s.used = 0

	m, err := io.CopyN(io.Discard, s.r, n)
	s.total += m
	return err
}

// scanBytes consumes bytes as long as accept returns true.
func (s *scanner) scanBytes(accept func(c byte) bool) error {
	for {
		for s.pos < s.used {
			if !accept(s.buf[s.pos]) {
				return nil
			}
			s.pos++
		}
		err := s.refill()
		if err != nil {
			return err
		}
		if s.used == 0 {
			return nil
		}
	}
}

// skipWhiteSpace skips white space and comments.
func (s *scanner) skipWhiteSpace() error {
	isComment := false
	return s.scanBytes(func(c byte) bool {
		if isComment {
			if c == '\r' || c == '\n' {
				isComment = false
			}
		} else if c == '%' {
			isComment = true
		} else {
			return isSpace[c]
		}
		return true
	})
}

// skipString consumes pat, or returns an error if the input does not
// start with pat.
func (s *scanner) skipString(pat string) error {
	patBytes := []byte(pat)
	n := len(patBytes)
	buf, err := s.peek(n)
	if err != nil {
		return err
	}
	if !bytes.Equal(buf, patBytes) {
		return &MalformedFileError{
			Pos: s.filePos(),
			Err: fmt.Errorf("expected %q but found %q", pat, string(buf)),
		}
	}
	s.pos += n
	return nil
}

var (
	isSpace = map[byte]bool{
		0:  true,
		9:  true,
		10: true,
		12: true,
		13: true,
		32: true,
	}
	isDelimiter = map[byte]bool{
		'(': true,
		')': true,
		'<': true,
		'>': true,
		'[': true,
		']': true,
		'{': true,
		'}': true,
		'/': true,
		'%': true,
	}
)
