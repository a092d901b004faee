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
	"io"
	"time"

	"seehuhn.de/go/imgpdf/codec"
)

// Saver writes images to PDF files using a fixed set of codecs.
// The zero value uses [codec.Default] with the JPEG quality from the
// options.
type Saver struct {
	// Codecs gives the pixel encoders.  If this is nil, the codecs from
	// [codec.Default] are used.
	Codecs *codec.Set

	// Now returns the current time, used for the dates of new documents.
	// If this is nil, [time.Now] is used.
	Now func() time.Time
}

// Save writes the first frame of src to w, as a single page.
// Additional images can only be given together with SaveAll.
//
// If opt.Append is set, w must be an io.ReadWriteSeeker holding an existing
// PDF file, and the new pages are added using an incremental update.
// The name is only used in error messages.
func (sv *Saver) Save(w io.Writer, src Source, name string, opt *Options) error {
	return sv.save(w, src, name, opt, false)
}

// SaveAll is like Save, but writes every frame of src, followed by every
// frame of opt.AppendImages and opt.AppendSeq.  Each frame becomes one page.
func (sv *Saver) SaveAll(w io.Writer, src Source, name string, opt *Options) error {
	return sv.save(w, src, name, opt, true)
}

func (sv *Saver) save(w io.Writer, src Source, name string, opt *Options, all bool) error {
	s, err := opt.validate(src, all)
	if err != nil {
		return err
	}

	codecs := sv.Codecs
	if codecs == nil {
		codecs = codec.Default(s.quality)
	}
	if err := codecs.Check(); err != nil {
		return err
	}
	if s.noFax && codecs.Fax != nil {
		c := *codecs
		c.Fax = nil
		codecs = &c
	}

	var sess *session
	if s.appendMode {
		f, ok := w.(io.ReadWriteSeeker)
		if !ok {
			return ErrNotSeekable
		}
		sess, err = newAppendSession(f, name, s, codecs)
	} else {
		now := time.Now
		if sv.Now != nil {
			now = sv.Now
		}
		sess, err = newCreateSession(w, s, codecs, now())
	}
	if err != nil {
		return err
	}
	return sess.run()
}

// Save writes the first frame of src to w, using the default codecs.
// See [Saver.Save] for details.
func Save(w io.Writer, src Source, name string, opt *Options) error {
	return (&Saver{}).Save(w, src, name, opt)
}

// SaveAll writes all frames of src, and of any additional images, to w,
// using the default codecs.  See [Saver.SaveAll] for details.
func SaveAll(w io.Writer, src Source, name string, opt *Options) error {
	return (&Saver{}).SaveAll(w, src, name, opt)
}
