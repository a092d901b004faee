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

// Package pagetree reads and writes PDF page trees.
//
// New documents get a flat page tree, with all pages as direct children of
// the root node.  When pages are appended to an existing document, the
// root node is rewritten under its original object number and the new
// pages are added after the existing kids.
package pagetree

import (
	"errors"
	"math"

	"seehuhn.de/go/imgpdf/pdf"
)

// FindPages returns the references of all pages in the tree with the given
// root node, in document order.  Pages which are stored as direct objects
// are reported as reference 0.
func FindPages(r pdf.Getter, root pdf.Reference) ([]pdf.Reference, error) {
	if root == 0 {
		return nil, errInvalidPageTree
	}

	var res []pdf.Reference
	todo := []pdf.Reference{root}
	seen := map[pdf.Reference]bool{
		root: true,
	}
	for len(todo) > 0 {
		k := len(todo) - 1
		ref := todo[k]
		todo = todo[:k]

		node, err := pdf.GetDict(r, ref)
		if err != nil {
			return nil, err
		}
		tp, err := pdf.GetName(r, node["Type"])
		if err != nil {
			return nil, err
		}
		switch tp {
		case "Page":
			res = append(res, ref)
		case "Pages":
			kids, err := pdf.GetArray(r, node["Kids"])
			if err != nil {
				return nil, err
			}
			for i := len(kids) - 1; i >= 0; i-- {
				kid := kids[i]
				if kidRef, ok := kid.(pdf.Reference); ok && !seen[kidRef] {
					todo = append(todo, kidRef)
					seen[kidRef] = true
				} else {
					res = append(res, 0)
				}
			}
		default:
			return nil, errInvalidPageTree
		}
	}

	return res, nil
}

// NumPages returns the page count recorded in the root node of a page tree.
func NumPages(r pdf.Getter, root pdf.Reference) (int, error) {
	node, err := pdf.GetDict(r, root)
	if err != nil {
		return 0, err
	}
	if node == nil {
		return 0, errInvalidPageTree
	}

	count, err := pdf.GetInt(r, node["Count"])
	if err != nil {
		return 0, err
	}
	if count < 0 || count > math.MaxInt32 {
		return 0, errInvalidPageTree
	}

	return int(count), nil
}

var errInvalidPageTree = &pdf.MalformedFileError{Err: errors.New("invalid page tree")}
