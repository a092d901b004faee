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

package pagetree

import (
	"errors"

	"seehuhn.de/go/imgpdf/pdf"
)

// Inheritable lists the page attributes which can be inherited from the
// page tree root.
var Inheritable = []pdf.Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// Writer adds pages to a page tree.
type Writer struct {
	out  pdf.Putter
	root pdf.Reference

	old      pdf.Dict  // previous root node, when extending a tree
	oldKids  pdf.Array // kids of the previous root node
	oldCount int

	kids     pdf.Array
	isClosed bool
}

// NewWriter starts a new page tree with the given root reference.
func NewWriter(w pdf.Putter, root pdf.Reference) *Writer {
	return &Writer{
		out:  w,
		root: root,
	}
}

// Extend prepares to add pages to the existing page tree of a document.
// The previous root node is read from r, new pages are written to w.
func Extend(w pdf.Putter, r pdf.Getter, root pdf.Reference) (*Writer, error) {
	old, err := pdf.GetDict(r, root)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, errInvalidPageTree
	}
	if tp, _ := pdf.GetName(r, old["Type"]); tp != "Pages" {
		return nil, errInvalidPageTree
	}
	kids, err := pdf.GetArray(r, old["Kids"])
	if err != nil {
		return nil, err
	}
	count, err := NumPages(r, root)
	if err != nil {
		return nil, err
	}

	t := &Writer{
		out:      w,
		root:     root,
		old:      old,
		oldKids:  kids,
		oldCount: count,
	}
	return t, nil
}

// Root returns the reference of the root node.
func (t *Writer) Root() pdf.Reference {
	return t.root
}

// Inherited returns the inheritable attributes set on the existing root
// node.  For a new tree the result is empty.
func (t *Writer) Inherited() pdf.Dict {
	res := pdf.Dict{}
	for _, key := range Inheritable {
		if val, ok := t.old[key]; ok && val != nil {
			res[key] = val
		}
	}
	return res
}

// AppendPageRef writes the page dictionary to the file, using the given
// reference, and adds the page at the end of the tree.  The /Type and
// /Parent entries are filled in automatically.
func (t *Writer) AppendPageRef(ref pdf.Reference, page pdf.Dict) error {
	if t.isClosed {
		return errClosed
	}
	page = page.Clone()
	page["Type"] = pdf.Name("Page")
	page["Parent"] = t.root
	err := t.out.Put(ref, page)
	if err != nil {
		return err
	}
	t.kids = append(t.kids, ref)
	return nil
}

// NumPages returns the total number of pages in the tree, including pages
// from the existing tree.
func (t *Writer) NumPages() int {
	return t.oldCount + len(t.kids)
}

// Close writes the root node.  For an extended tree, all entries of the
// previous root node are kept, and the new pages are added after the
// existing kids.
func (t *Writer) Close() error {
	if t.isClosed {
		return errClosed
	}
	t.isClosed = true

	node := t.old.Clone()
	if node == nil {
		node = pdf.Dict{}
	}
	kids := make(pdf.Array, 0, len(t.oldKids)+len(t.kids))
	kids = append(kids, t.oldKids...)
	kids = append(kids, t.kids...)

	node["Type"] = pdf.Name("Pages")
	node["Kids"] = kids
	node["Count"] = pdf.Integer(t.NumPages())
	return t.out.Put(t.root, node)
}

var errClosed = errors.New("page tree already closed")
