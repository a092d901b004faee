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

// Package imgpdf converts raster images to PDF files.
//
// Each frame of an image becomes one page, sized so that the image is shown
// at the requested resolution.  Images are stored using DCT (JPEG)
// compression, CCITT Group 4 fax compression for bilevel images, or
// hex-encoded Flate compression for paletted images.  Images with an alpha
// channel are written with a soft mask.
//
// A new document is written to any [io.Writer]:
//
//	img, err := raster.Decode(in)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = imgpdf.SaveAll(out, img, "out.pdf", &imgpdf.Options{
//		Resolution: 300,
//		Metadata:   imgpdf.Metadata{Title: "Scan"},
//	})
//
// With [Options.Append], the pages are instead added to an existing PDF
// file using an incremental update.  The earlier revisions of the file are
// left unchanged.
package imgpdf
