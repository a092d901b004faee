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

// UnsupportedModeError is returned when an image uses a colour mode which
// cannot be stored in a PDF file.  The error is detected before any data
// is written.
type UnsupportedModeError struct {
	Mode raster.Mode
}

func (err *UnsupportedModeError) Error() string {
	return "cannot save mode " + err.Mode.String()
}

// CodecError indicates that a pixel codec failed to encode an image.
type CodecError struct {
	Filter pdf.Name
	Err    error
}

func (err *CodecError) Error() string {
	return fmt.Sprintf("%s encoding failed: %v", err.Filter, err.Err)
}

func (err *CodecError) Unwrap() error {
	return err.Err
}

// OptionError is returned when a save is attempted with invalid options.
type OptionError struct {
	Field  string
	Reason string
}

func (err *OptionError) Error() string {
	return fmt.Sprintf("invalid option %s: %s", err.Field, err.Reason)
}

var (
	// ErrNotSeekable is returned when Append mode is requested but the
	// output does not implement io.ReadWriteSeeker.
	ErrNotSeekable = errors.New("appending requires a readable and seekable output")

	// ErrFinalized is returned when a session is used after the document
	// has been finalized.
	ErrFinalized = errors.New("document already finalized")
)
