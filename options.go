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

package imgpdf

import (
	"iter"
	"math"
	"time"

	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/imgpdf/raster"
)

// Source is an image with one or more frames.  Both [*raster.Image] and
// [*raster.Multi] implement this interface.
type Source interface {
	NumFrames() int
	Frame(i int) (*raster.Image, error)
}

// Options control how images are written to a PDF file.
// The zero value gives a new document at 72 dpi.
type Options struct {
	// Append adds the pages to an existing PDF file using an incremental
	// update.  The output must then implement io.ReadWriteSeeker.
	Append bool

	// SaveAll writes every frame of multi-frame sources and enables
	// AppendImages and AppendSeq.
	SaveAll bool

	// AppendImages lists additional images, written after the primary
	// image.  It is only valid together with SaveAll or [Saver.SaveAll];
	// otherwise the save fails with an [OptionError] instead of
	// dropping the images without notice.
	AppendImages []Source

	// AppendSeq optionally gives more images, written after AppendImages.
	// Like AppendImages, it requires SaveAll.
	// The sequence is consumed exactly once, when the options are
	// validated.  It must not be reused for another save.
	AppendSeq iter.Seq[Source]

	// DPI gives the horizontal and vertical resolution in dots per inch.
	// If set, this overrides Resolution.
	DPI [2]float64

	// Resolution is used for both axes if DPI is not set.
	// The default is 72.  The page size depends only on DPI and
	// Resolution; resolution information stored in image files is not
	// used.
	Resolution float64

	// Metadata holds the values for the document information dictionary.
	Metadata Metadata

	// JPEGQuality sets the quality of DCT compressed images, from 1 to 100.
	// Zero selects the codec default.  This is only used when the
	// [Saver] has no codec set configured.
	JPEGQuality int

	// NoFax disables CCITT fax compression for bilevel images.
	NoFax bool

	// XMP adds an XMP metadata stream which mirrors the document
	// information dictionary.
	XMP bool

	// Version is the PDF version for new documents.  The default is
	// PDF 1.4, which is the lowest version supporting soft masks.
	Version pdf.Version
}

// Metadata holds the fields of the document information dictionary.
// Empty strings and zero times mean that the value is not supplied.
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate time.Time
	ModDate      time.Time
}

// settings are the validated options of one save.
type settings struct {
	appendMode bool
	sources    []Source
	allFrames  bool
	xRes, yRes float64
	meta       Metadata
	quality    int
	noFax      bool
	xmp        bool
	version    pdf.Version
}

func (opt *Options) validate(src Source, saveAll bool) (*settings, error) {
	if opt == nil {
		opt = &Options{}
	}
	if src == nil {
		return nil, &OptionError{Field: "image", Reason: "missing"}
	}

	s := &settings{
		appendMode: opt.Append,
		sources:    []Source{src},
		allFrames:  saveAll || opt.SaveAll,
		meta:       opt.Metadata,
		quality:    opt.JPEGQuality,
		noFax:      opt.NoFax,
		xmp:        opt.XMP,
		version:    opt.Version,
	}

	if !s.allFrames && (len(opt.AppendImages) > 0 || opt.AppendSeq != nil) {
		return nil, &OptionError{Field: "AppendImages", Reason: "requires SaveAll"}
	}
	for _, img := range opt.AppendImages {
		if img == nil {
			return nil, &OptionError{Field: "AppendImages", Reason: "nil image"}
		}
		s.sources = append(s.sources, img)
	}

	switch dpi := opt.DPI; {
	case dpi == [2]float64{}:
		res := opt.Resolution
		if res == 0 {
			res = 72
		}
		if !isPositive(res) {
			return nil, &OptionError{Field: "Resolution", Reason: "must be positive"}
		}
		s.xRes, s.yRes = res, res
	case isPositive(dpi[0]) && isPositive(dpi[1]):
		s.xRes, s.yRes = dpi[0], dpi[1]
	default:
		return nil, &OptionError{Field: "DPI", Reason: "both values must be positive"}
	}

	if opt.JPEGQuality < 0 || opt.JPEGQuality > 100 {
		return nil, &OptionError{Field: "JPEGQuality", Reason: "must be between 1 and 100"}
	}

	if s.version == 0 {
		s.version = pdf.V1_4
	}
	if _, err := s.version.ToString(); err != nil || s.version < pdf.V1_4 {
		return nil, &OptionError{Field: "Version", Reason: "must be PDF 1.4 or newer"}
	}

	// consume the sequence last, so that it is not touched if the other
	// options are invalid
	if opt.AppendSeq != nil {
		for img := range opt.AppendSeq {
			if img == nil {
				return nil, &OptionError{Field: "AppendSeq", Reason: "nil image"}
			}
			s.sources = append(s.sources, img)
		}
	}

	return s, nil
}

func isPositive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}
