// Package textio opens spectral library text files, optionally decoding them
// from a legacy character set to UTF-8.
package textio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// MaxLineSize bounds the length of a single line; library comment lines can
// be far longer than bufio's default.
const MaxLineSize = 16 * 1024 * 1024

// File is an opened text file. Close releases the underlying handle.
type File struct {
	io.Reader
	f *os.File
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

// Open opens path for reading. An empty label, "ascii" or "utf-8" reads the
// bytes as they are; any other WHATWG label (e.g. "latin1", "shift_jis")
// decodes through golang.org/x/net/html/charset.
func Open(path, label string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	r, err := Decode(f, label)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{Reader: r, f: f}, nil
}

// Decode wraps r so that it yields UTF-8 text.
func Decode(r io.Reader, label string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "ascii", "us-ascii", "utf-8", "utf8":
		return r, nil
	}
	dr, err := charset.NewReaderLabel(label, r)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding '%s': %w", label, err)
	}
	return dr, nil
}

// NewScanner returns a line scanner with a buffer large enough for long
// library lines.
func NewScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return s
}
