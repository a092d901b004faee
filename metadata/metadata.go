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

// Package metadata implements XMP metadata streams for PDF documents.
package metadata

import (
	"golang.org/x/text/language"
	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/xmp"
)

// Stream represents an XMP metadata stream.
type Stream struct {
	Data *xmp.Packet
}

// Basic is the XMP basic namespace.
type Basic struct {
	_ xmp.Namespace `xmp:"http://ns.adobe.com/xap/1.0/"`
	_ xmp.Prefix    `xmp:"xmp"`

	CreateDate  xmp.Date
	ModifyDate  xmp.Date
	CreatorTool xmp.AgentName
}

// PDF is the XMP namespace for PDF metadata.
type PDF struct {
	_ xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_ xmp.Prefix    `xmp:"pdf"`

	Keywords   xmp.Text
	PDFVersion xmp.Text
	Producer   xmp.AgentName
}

// FromInfo creates an XMP packet which mirrors the entries of a document
// information dictionary.  The author is recorded as dc:creator and the
// subject as dc:description.
func FromInfo(info *pdf.Info, ver pdf.Version) (*Stream, error) {
	dc := &xmp.DublinCore{}
	if info.Title != "" {
		dc.Title.Set(language.Und, info.Title)
	}
	if info.Author != "" {
		dc.Creator.Append(xmp.NewProperName(info.Author))
	}
	if info.Subject != "" {
		dc.Description.Set(language.Und, info.Subject)
	}

	basic := &Basic{}
	if !info.CreationDate.IsZero() {
		basic.CreateDate = xmp.NewDate(info.CreationDate)
	}
	if !info.ModDate.IsZero() {
		basic.ModifyDate = xmp.NewDate(info.ModDate)
	}
	if info.Creator != "" {
		basic.CreatorTool = xmp.NewAgentName(info.Creator)
	}

	pdfNS := &PDF{}
	if info.Keywords != "" {
		pdfNS.Keywords = xmp.NewText(info.Keywords)
	}
	if info.Producer != "" {
		pdfNS.Producer = xmp.NewAgentName(info.Producer)
	}
	if verString, err := ver.ToString(); err == nil {
		pdfNS.PDFVersion = xmp.NewText(verString)
	}

	packet := xmp.NewPacket()
	err := packet.Set(dc, basic, pdfNS)
	if err != nil {
		return nil, err
	}
	return &Stream{Data: packet}, nil
}

// Extract reads an XMP metadata stream from a PDF file.
// If ref is nil, the function returns nil.
func Extract(r pdf.Getter, ref pdf.Object) (*Stream, error) {
	if ref == nil {
		return nil, nil
	}
	stm, err := pdf.GetStream(r, ref)
	if err != nil {
		return nil, err
	}
	if stm == nil {
		return nil, nil
	}
	body, err := pdf.DecodeStream(r, stm)
	if err != nil {
		return nil, err
	}

	packet, err := xmp.Read(body)
	if err != nil {
		return nil, err
	}

	return &Stream{Data: packet}, nil
}

// Embed writes the XMP metadata stream to the PDF file, using the given
// object reference.  The stream is left uncompressed, so that the packet
// can be found by tools which do not parse PDF.
func (s *Stream) Embed(w pdf.Putter, ref pdf.Reference) error {
	dict := pdf.Dict{
		"Type":    pdf.Name("Metadata"),
		"Subtype": pdf.Name("XML"),
	}
	body, err := w.OpenStream(ref, dict)
	if err != nil {
		return err
	}

	err = s.Data.Write(body, nil)
	if err != nil {
		return err
	}

	return body.Close()
}

// Equal reports whether s and other represent the same XMP metadata.
func (s *Stream) Equal(other *Stream) bool {
	if s == nil || other == nil {
		return s == other
	}

	return s.Data.Equal(other.Data)
}
