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
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// TextString creates a String object using the "text string" encoding,
// i.e. using either PDFDocEncoding or UTF-16BE with a byte order mark.
func TextString(s string) String {
	if buf, ok := pdfDocEncode(s); ok {
		return buf
	}
	buf, err := utf16.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// s is not valid UTF-8; replace the invalid bytes and try again
		buf, _ = utf16.NewEncoder().Bytes([]byte(strings.ToValidUTF8(s, "�")))
	}
	return String(buf)
}

// AsTextString interprets x as a PDF "text string" and returns
// the corresponding utf-8 encoded string.
func (x String) AsTextString() string {
	if len(x) >= 2 && x[0] == 0xFE && x[1] == 0xFF {
		buf, err := utf16.NewDecoder().Bytes(x)
		if err == nil {
			return string(buf)
		}
	}
	return pdfDocDecode(x)
}

var utf16 = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// Date creates a PDF String object encoding the given date and time.
func Date(t time.Time) String {
	s := t.Format("D:20060102150405-0700")
	k := len(s) - 2
	s = s[:k] + "'" + s[k:] + "'"
	if strings.HasSuffix(s, "+00'00'") && t.Location() == time.UTC {
		s = s[:len(s)-7] + "Z"
	}
	return String(s)
}

// AsDate converts a PDF date string to a time.Time object.
// If the string does not have the correct format, an error is returned.
func (x String) AsDate() (time.Time, error) {
	s := x.AsTextString()
	s = strings.ReplaceAll(s, "'", "")
	s = strings.TrimSpace(s)
	if s == "D:" || s == "" {
		return time.Time{}, errNoDate
	}
	if !strings.HasPrefix(s, "D:") {
		s = "D:" + s
	}

	formats := []string{
		"D:20060102150405-0700",
		"D:20060102150405-07",
		"D:20060102150405Z0000",
		"D:20060102150405Z00",
		"D:20060102150405Z",
		"D:20060102150405",
		"D:200601021504",
		"D:2006010215",
		"D:20060102",
		"D:200601",
		"D:2006",
	}
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNoDate
}

var errNoDate = errors.New("not a valid date string")

func pdfDocEncode(s string) (String, bool) {
	res := make([]byte, 0, len(s))
	for _, r := range s {
		c, ok := toPDFDoc[r]
		if !ok {
			if r >= 0x20 && r < 0x7f || r == '\t' || r == '\n' || r == '\r' ||
				r >= 0xA1 && r <= 0xFF && r != 0xAD {
				c = byte(r)
			} else {
				return nil, false
			}
		}
		res = append(res, c)
	}
	return res, true
}

func pdfDocDecode(s String) string {
	r := make([]rune, len(s))
	for i, c := range s {
		if x, ok := fromPDFDoc[c]; ok {
			r[i] = x
		} else {
			r[i] = rune(c)
		}
	}
	return string(r)
}

// fromPDFDoc lists the PDFDocEncoding code points which differ from
// ISO Latin-1.
var fromPDFDoc = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
	0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
	0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
	0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0xA0: '€',
}

var toPDFDoc = func() map[rune]byte {
	res := make(map[rune]byte, len(fromPDFDoc))
	for c, r := range fromPDFDoc {
		res[r] = c
	}
	return res
}()
