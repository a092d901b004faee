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

// Img2pdf converts raster images to a PDF file, one page per image.
//
// Usage:
//
//	img2pdf [flags] image...
//
// With -append the pages are added to an existing PDF file using an
// incremental update.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio"
	"golang.org/x/term"

	"seehuhn.de/go/imgpdf"
	"seehuhn.de/go/imgpdf/internal/debug/memfile"
	"seehuhn.de/go/imgpdf/raster"
)

var (
	outFile    = flag.String("o", "out.pdf", "name of the output file, or - for stdout")
	appendMode = flag.Bool("append", false, "add the pages to an existing PDF file")
	allFrames  = flag.Bool("all", false, "convert all frames of multi-frame images")
	dpiFlag    = flag.String("dpi", "", "resolution as `x,y` in dots per inch")
	resolution = flag.Float64("resolution", 0, "resolution in dots per inch (default 72)")
	title      = flag.String("title", "", "document title (default: name of the first image)")
	author     = flag.String("author", "", "document author")
	subject    = flag.String("subject", "", "document subject")
	keywords   = flag.String("keywords", "", "document keywords")
	creator    = flag.String("creator", "", "application which created the images")
	modeFlag   = flag.String("mode", "", "convert all images to the given colour `mode` (1, L, P, RGB, CMYK, ...)")
	noFax      = flag.Bool("nofax", false, "store bilevel images using JPEG instead of CCITT fax compression")
	quality    = flag.Int("quality", 0, "JPEG quality, 1-100 (default 75)")
	withXMP    = flag.Bool("xmp", false, "include an XMP metadata stream")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	err := run(flag.Args())
	if err != nil {
		log.Fatal(err)
	}
}

func run(names []string) error {
	opt := &imgpdf.Options{
		Append:      *appendMode,
		SaveAll:     *allFrames,
		Resolution:  *resolution,
		JPEGQuality: *quality,
		NoFax:       *noFax,
		XMP:         *withXMP,
		Metadata: imgpdf.Metadata{
			Title:    *title,
			Author:   *author,
			Subject:  *subject,
			Keywords: *keywords,
			Creator:  *creator,
			Producer: "img2pdf",
		},
	}
	if *dpiFlag != "" {
		dpi, err := parseDPI(*dpiFlag)
		if err != nil {
			return err
		}
		opt.DPI = dpi
	}
	if opt.Metadata.Title == "" && !opt.Append {
		base := filepath.Base(names[0])
		opt.Metadata.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var mode raster.Mode
	if *modeFlag != "" {
		var err error
		mode, err = raster.ParseMode(*modeFlag)
		if err != nil {
			return err
		}
	}

	var images []imgpdf.Source
	for _, name := range names {
		img, err := readImage(name, mode)
		if err != nil {
			return err
		}
		images = append(images, img)
	}
	if len(images) > 1 {
		// AppendImages needs SaveAll; without -all every source
		// has been cut down to its first frame
		opt.SaveAll = true
		opt.AppendImages = images[1:]
	}

	if *outFile == "-" {
		if opt.Append {
			return errors.New("cannot append to standard output")
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("refusing to write PDF data to a terminal")
		}
		buf := &bytes.Buffer{}
		err := save(buf, images[0], "stdout", opt)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}

	out := memfile.New()
	if opt.Append {
		data, err := os.ReadFile(*outFile)
		if err != nil {
			return err
		}
		out = memfile.Load(data)
	}
	err := save(out, images[0], *outFile, opt)
	if err != nil {
		return err
	}
	return publish(*outFile, out.Data)
}

func save(w io.Writer, src imgpdf.Source, name string, opt *imgpdf.Options) error {
	if opt.SaveAll {
		return imgpdf.SaveAll(w, src, name, opt)
	}
	return imgpdf.Save(w, src, name, opt)
}

// readImage decodes an image file.  Only the first frame is kept unless
// -all is given.  If mode is set, every frame is converted to this mode.
func readImage(name string, mode raster.Mode) (*raster.Multi, error) {
	fd, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	img, err := raster.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if !*allFrames && len(img.Frames) > 1 {
		img.Frames = img.Frames[:1]
	}
	if mode == 0 {
		return img, nil
	}
	for i, frame := range img.Frames {
		img.Frames[i], err = frame.Convert(mode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return img, nil
}

// publish atomically replaces the file fname with the given contents.
func publish(fname string, data []byte) error {
	o, err := renameio.TempFile("", fname)
	if err != nil {
		return err
	}
	defer o.Cleanup()

	_, err = o.Write(data)
	if err != nil {
		return err
	}
	return o.CloseAtomicallyReplace()
}

func parseDPI(s string) ([2]float64, error) {
	var res [2]float64
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return res, fmt.Errorf("invalid resolution %q", s)
	}
	for i, part := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return res, fmt.Errorf("invalid resolution %q", s)
		}
		res[i] = x
	}
	return res, nil
}
