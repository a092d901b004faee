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
	"time"
)

// Info represents a PDF Document Information Dictionary.
//
// All fields in this structure are optional.  The zero value represents
// an empty information dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string

	// Creator gives the name of the application that created the original
	// document, if the document was converted to PDF from another format.
	Creator string

	// Producer gives the name of the application that converted the document,
	// if the document was converted to PDF from another format.
	Producer string

	// CreationDate gives the date and time the document was created.
	CreationDate time.Time

	// ModDate gives the date and time the document was most recently modified.
	ModDate time.Time

	// Custom contains the remaining entries of the dictionary.
	Custom Dict
}

var infoTextKeys = []Name{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"}

// DecodeInfo reads an Info dictionary from a PDF file.
//
// If obj is nil, the function returns nil.  Malformed entries are
// ignored.
func DecodeInfo(r Getter, obj Object) (*Info, error) {
	dict, err := GetDict(r, obj)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, nil
	}

	info := &Info{}
	for key, val := range dict {
		switch key {
		case "Title", "Author", "Subject", "Keywords", "Creator", "Producer":
			s, err := GetString(r, val)
			if err != nil {
				continue
			}
			*info.textField(key) = s.AsTextString()
		case "CreationDate", "ModDate":
			s, err := GetString(r, val)
			if err != nil {
				continue
			}
			t, err := s.AsDate()
			if err != nil {
				continue
			}
			if key == "CreationDate" {
				info.CreationDate = t
			} else {
				info.ModDate = t
			}
		default:
			if info.Custom == nil {
				info.Custom = Dict{}
			}
			info.Custom[key] = val
		}
	}
	return info, nil
}

func (info *Info) textField(key Name) *string {
	switch key {
	case "Title":
		return &info.Title
	case "Author":
		return &info.Author
	case "Subject":
		return &info.Subject
	case "Keywords":
		return &info.Keywords
	case "Creator":
		return &info.Creator
	case "Producer":
		return &info.Producer
	}
	panic("unknown Info field " + string(key))
}

// AsDict converts the Info structure into a PDF dictionary.
// Empty fields are omitted.
func (info *Info) AsDict() Dict {
	dict := Dict{}
	for key, val := range info.Custom {
		dict[key] = val
	}
	for _, key := range infoTextKeys {
		if s := *info.textField(key); s != "" {
			dict[key] = TextString(s)
		}
	}
	if !info.CreationDate.IsZero() {
		dict["CreationDate"] = Date(info.CreationDate)
	}
	if !info.ModDate.IsZero() {
		dict["ModDate"] = Date(info.ModDate)
	}
	return dict
}
