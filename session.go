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
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"seehuhn.de/go/imgpdf/codec"
	"seehuhn.de/go/imgpdf/metadata"
	"seehuhn.de/go/imgpdf/pagetree"
	"seehuhn.de/go/imgpdf/pdf"
)

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateHeaderWritten
	stateAccumulating
	stateFinalized
)

// session writes the pages of one save.  A new document passes through
// all states in order; an append session starts in stateAccumulating,
// since no header is written.
type session struct {
	state  sessionState
	s      *settings
	codecs *codec.Set

	out *pdf.Writer
	in  *pdf.Reader // nil for new documents

	catalog    pdf.Reference
	oldCatalog pdf.Dict
	tree       *pagetree.Writer
	inherited  pdf.Dict
	info       *pdf.Info

	plan  *plan
	pages []*pageRecord
	next  int // index of the next frame to write
}

// newCreateSession prepares a new document.  Nothing is written to w until
// the header is written.
func newCreateSession(w io.Writer, s *settings, codecs *codec.Set, now time.Time) (*session, error) {
	out := pdf.NewWriter(w, s.version)
	catalog := out.Alloc()
	root := out.Alloc()

	p, err := makePlan(out, s, codecs.Fax != nil)
	if err != nil {
		return nil, err
	}

	sess := &session{
		state:   stateUninitialized,
		s:       s,
		codecs:  codecs,
		out:     out,
		catalog: catalog,
		tree:    pagetree.NewWriter(out, root),
		info:    mergeInfo(nil, &s.meta, now),
		plan:    p,
	}
	sess.inherited = sess.tree.Inherited()
	return sess, nil
}

// newAppendSession reads the existing document from f and prepares an
// incremental update.  If the document cannot be read, f is not modified.
func newAppendSession(f io.ReadWriteSeeker, name string, s *settings, codecs *codec.Set) (*session, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	in, err := pdf.NewReader(asReaderAt(f), size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	catalog, _ := in.Trailer()["Root"].(pdf.Reference)
	oldCatalog, err := in.Catalog()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	root, ok := oldCatalog["Pages"].(pdf.Reference)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, &pdf.MalformedFileError{Err: errNoPageTree})
	}
	oldInfo, err := pdf.DecodeInfo(in, in.Trailer()["Info"])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	// reading may have moved the file position
	_, err = f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	out := pdf.NewIncrementalWriter(f, in)
	tree, err := pagetree.Extend(out, in, root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	p, err := makePlan(out, s, codecs.Fax != nil)
	if err != nil {
		return nil, err
	}

	sess := &session{
		state:      stateAccumulating,
		s:          s,
		codecs:     codecs,
		out:        out,
		in:         in,
		catalog:    catalog,
		oldCatalog: oldCatalog,
		tree:       tree,
		inherited:  tree.Inherited(),
		info:       mergeInfo(oldInfo, &s.meta, time.Time{}),
		plan:       p,
	}
	return sess, nil
}

var errNoPageTree = errors.New("catalog has no page tree")

// run writes the complete document.
func (sess *session) run() error {
	if sess.state == stateUninitialized {
		err := sess.writeHeader()
		if err != nil {
			return err
		}
	}
	for sess.next < len(sess.plan.frames) {
		err := sess.writeNextPage()
		if err != nil {
			return err
		}
	}
	return sess.finalize()
}

func (sess *session) writeHeader() error {
	switch sess.state {
	case stateFinalized:
		return ErrFinalized
	case stateUninitialized:
		// pass
	default:
		return errors.New("PDF header already written")
	}
	err := sess.out.WriteHeader()
	if err != nil {
		return err
	}
	sess.state = stateHeaderWritten
	return nil
}

// writeNextPage encodes the next frame and writes the image, the content
// stream and the page.
func (sess *session) writeNextPage() error {
	switch sess.state {
	case stateFinalized:
		return ErrFinalized
	case stateUninitialized:
		return errors.New("PDF header not written")
	}
	sess.state = stateAccumulating

	k := sess.next
	if k >= len(sess.plan.frames) {
		return errors.New("no more frames")
	}
	frame := sess.plan.frames[k]
	info := sess.plan.modes[k]

	ref, maskRef, err := sess.plan.nextImage(info.softMask)
	if err != nil {
		return err
	}
	img, err := encodeImage(sess.codecs, frame, ref, maskRef)
	if err != nil {
		return err
	}
	err = img.write(sess.out)
	if err != nil {
		return err
	}

	page := newPageRecord(sess.plan.pageIDs[k], sess.plan.contentsIDs[k], ref,
		info.procSet, frame.Width, frame.Height, sess.s.xRes, sess.s.yRes)
	err = page.write(sess.out, sess.tree, sess.inherited)
	if err != nil {
		return err
	}
	sess.pages = append(sess.pages, page)
	sess.next++
	return nil
}

// finalize writes the page tree root, the catalog, the document
// information dictionary and the cross-reference section.
func (sess *session) finalize() error {
	if sess.state == stateFinalized {
		return ErrFinalized
	}
	if sess.state != stateAccumulating {
		return errors.New("PDF header not written")
	}
	sess.state = stateFinalized

	err := sess.tree.Close()
	if err != nil {
		return err
	}

	catalog := sess.oldCatalog.Clone()
	if catalog == nil {
		catalog = pdf.Dict{"Type": pdf.Name("Catalog")}
	}
	catalog["Pages"] = sess.tree.Root()
	if sess.in != nil && sess.out.Version < pdf.V1_4 && (sess.plan.hasMask || sess.s.xmp) {
		catalog["Version"] = pdf.Name("1.4")
	}

	if sess.plan.xmp != 0 {
		xmp, err := metadata.FromInfo(sess.info, max(sess.out.Version, pdf.V1_4))
		if err != nil {
			return err
		}
		err = xmp.Embed(sess.out, sess.plan.xmp)
		if err != nil {
			return err
		}
		catalog["Metadata"] = sess.plan.xmp
	}

	err = sess.out.Put(sess.catalog, catalog)
	if err != nil {
		return err
	}
	err = sess.out.Put(sess.plan.info, sess.info.AsDict())
	if err != nil {
		return err
	}

	return sess.out.Close(pdf.Dict{
		"Root": sess.catalog,
		"Info": sess.plan.info,
		"ID":   sess.fileID(),
	})
}

// fileID returns the file identifier for the trailer.  An incremental
// update keeps the first part of an existing identifier.
func (sess *session) fileID() pdf.Array {
	update := uuid.New()
	first := pdf.String(update[:])
	if sess.in != nil && len(sess.in.ID) == 2 {
		first = pdf.String(sess.in.ID[0])
	} else if sess.in == nil {
		orig := uuid.New()
		first = pdf.String(orig[:])
	}
	return pdf.Array{first, pdf.String(update[:])}
}

// mergeInfo combines the existing document information (nil for a new
// document) with the values supplied by the caller.  For new documents,
// missing dates are set to now.
func mergeInfo(old *pdf.Info, meta *Metadata, now time.Time) *pdf.Info {
	info := &pdf.Info{}
	if old != nil {
		*info = *old
		info.Custom = old.Custom.Clone()
	}

	for _, f := range []struct {
		dst *string
		val string
	}{
		{&info.Title, meta.Title},
		{&info.Author, meta.Author},
		{&info.Subject, meta.Subject},
		{&info.Keywords, meta.Keywords},
		{&info.Creator, meta.Creator},
		{&info.Producer, meta.Producer},
	} {
		if f.val != "" {
			*f.dst = f.val
		}
	}

	if !meta.CreationDate.IsZero() {
		info.CreationDate = meta.CreationDate
	} else if old == nil {
		info.CreationDate = now
	}
	if !meta.ModDate.IsZero() {
		info.ModDate = meta.ModDate
	} else if old == nil {
		info.ModDate = now
	}
	return info
}

// asReaderAt gives random access to a seekable file.
func asReaderAt(f io.ReadSeeker) io.ReaderAt {
	if ra, ok := f.(io.ReaderAt); ok {
		return ra
	}
	return &seekReaderAt{f}
}

type seekReaderAt struct {
	f io.ReadSeeker
}

func (r *seekReaderAt) ReadAt(p []byte, off int64) (int, error) {
	_, err := r.f.Seek(off, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return io.ReadFull(r.f, p)
}
