// Package source streams raw lines from a list of input files, in
// file-then-line order, the way a shell filter reads its arguments.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Stdin is the name used for standard input, both as argument and in Line.File.
const Stdin = "-"

// Line is a single raw input line and where it came from.
type Line struct {
	File   string // Name of the file the line was read from
	Number int    // 1-based line number within File
	Text   string // Line content without its terminator
}

// LineSource yields lines until io.EOF.
type LineSource interface {
	Next() (Line, error)
}

// Reader reads the named inputs one after another. Files are opened lazily
// and each is closed as soon as it is exhausted.
type Reader struct {
	paths []string
	stdin io.Reader

	idx     int
	name    string
	lineNo  int
	br      *bufio.Reader
	closers []func() error
}

// Ensure Reader implements LineSource
var _ LineSource = (*Reader)(nil)

// Open returns a Reader over paths. An empty list reads standard input.
func Open(paths []string) *Reader {
	if len(paths) == 0 {
		paths = []string{Stdin}
	}
	return &Reader{paths: paths, stdin: os.Stdin, idx: -1}
}

// NewReader returns a Reader over a single already open stream.
func NewReader(name string, r io.Reader) *Reader {
	return &Reader{paths: []string{Stdin}, stdin: r, idx: -1, name: name}
}

// Next returns the next line. It returns io.EOF after the last line of the last input.
func (r *Reader) Next() (Line, error) {
	for {
		if r.br == nil {
			if err := r.advance(); err != nil {
				return Line{}, err
			}
		}

		text, err := r.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			// text is a partial line here and must not be imported.
			return Line{}, fmt.Errorf("failed to read %s at line %d: %w", r.name, r.lineNo+1, err)
		}
		if len(text) > 0 {
			r.lineNo++
			return Line{File: r.name, Number: r.lineNo, Text: trimEOL(text)}, nil
		}

		// Current input is exhausted, move on.
		if err := r.closeCurrent(); err != nil {
			return Line{}, err
		}
	}
}

// Close releases the input currently being read.
func (r *Reader) Close() error {
	return r.closeCurrent()
}

func (r *Reader) advance() error {
	r.idx++
	if r.idx >= len(r.paths) {
		return io.EOF
	}

	path := r.paths[r.idx]
	var in io.Reader
	if path == Stdin {
		in = r.stdin
		if r.name == "" || r.idx > 0 {
			r.name = Stdin
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		r.closers = append(r.closers, f.Close)
		in = f
		r.name = path
	}

	dec, closeDec, err := NewDecompressReader(in, DetectCompression(path))
	if err != nil {
		r.closeCurrent()
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	r.closers = append(r.closers, closeDec)

	r.br = bufio.NewReaderSize(dec, 65536)
	r.lineNo = 0
	return nil
}

func (r *Reader) closeCurrent() error {
	var errs []error
	// Decoder first, then the file underneath it.
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	r.br = nil
	return errors.Join(errs...)
}

func trimEOL(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
		if n := len(s); n > 0 && s[n-1] == '\r' {
			s = s[:n-1]
		}
	}
	return s
}
