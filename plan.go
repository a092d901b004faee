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

	"seehuhn.de/go/imgpdf/pdf"
	"seehuhn.de/go/imgpdf/raster"
)

// allocator hands out object numbers in increasing order.
type allocator interface {
	Alloc() pdf.Reference
}

// plan holds the frames of one save, together with all object numbers
// needed to write them.  All numbers are reserved before the first byte of
// image data is written.
type plan struct {
	frames []*raster.Image
	modes  []*modeInfo

	// imageIDs is consumed from the front, two at a time for images
	// with a soft mask (parent first) and one at a time otherwise.
	imageIDs    []pdf.Reference
	pageIDs     []pdf.Reference
	contentsIDs []pdf.Reference

	info pdf.Reference
	xmp  pdf.Reference // zero if no XMP stream is written

	hasMask bool
}

// makePlan collects the frames of all sources and reserves the object
// numbers for images, pages, the information dictionary and the optional
// XMP stream.  Invalid frames and unsupported colour modes are reported
// before any number is reserved.
func makePlan(alloc allocator, s *settings, fax bool) (*plan, error) {
	p := &plan{}
	for k, src := range s.sources {
		n := 1
		if s.allFrames {
			n = src.NumFrames()
		}
		if n < 1 {
			return nil, fmt.Errorf("image %d: no frames", k)
		}
		for i := range n {
			frame, err := src.Frame(i)
			if err != nil {
				return nil, fmt.Errorf("image %d, frame %d: %w", k, i, err)
			}
			if frame == nil {
				return nil, fmt.Errorf("image %d, frame %d: %w", k, i, errNoFrame)
			}
			info, err := resolveMode(frame, fax)
			if err != nil {
				return nil, err
			}
			if err := frame.Check(); err != nil {
				return nil, fmt.Errorf("image %d, frame %d: %w", k, i, err)
			}
			p.frames = append(p.frames, frame)
			p.modes = append(p.modes, info)
		}
	}

	for _, info := range p.modes {
		p.imageIDs = append(p.imageIDs, alloc.Alloc())
		if info.softMask {
			p.imageIDs = append(p.imageIDs, alloc.Alloc())
			p.hasMask = true
		}
		p.pageIDs = append(p.pageIDs, alloc.Alloc())
		p.contentsIDs = append(p.contentsIDs, alloc.Alloc())
	}
	p.info = alloc.Alloc()
	if s.xmp {
		p.xmp = alloc.Alloc()
	}

	return p, nil
}

// nextImage removes the object numbers for the next image from the queue.
// If mask is true, the number reserved for the soft mask is returned as
// well.
func (p *plan) nextImage(mask bool) (parent, maskRef pdf.Reference, err error) {
	need := 1
	if mask {
		need = 2
	}
	if len(p.imageIDs) < need {
		return 0, 0, errPlanExhausted
	}
	parent = p.imageIDs[0]
	if mask {
		maskRef = p.imageIDs[1]
	}
	p.imageIDs = p.imageIDs[need:]
	return parent, maskRef, nil
}

var (
	errNoFrame       = errors.New("missing frame")
	errPlanExhausted = errors.New("no object number reserved for image")
)
