package msf

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// Index locates one compound's peaks and carries the metadata needed to
// search without reading them.
type Index struct {
	ScanID      int
	Name        string
	PrecursorMz float64
	AdductType  string
	IonMode     core.IonMode
	ChromXs     core.ChromXs
	Seekpoint   int64
}

// sink is a buffered writer that tracks the offset of the next byte.
type sink struct {
	w      *bufio.Writer
	closer io.Closer
	offset int64
}

func newSink(w io.Writer, closer io.Closer) (*sink, error) {
	s := &sink{w: bufio.NewWriter(w), closer: closer}
	var tag [int32Size]byte
	byteOrder.PutUint32(tag[:], uint32(Version1))
	if _, err := s.write(tag[:]); err != nil {
		return nil, fmt.Errorf("failed to write version: %w", err)
	}
	return s, nil
}

// write appends p and returns the offset it starts at.
func (s *sink) write(p []byte) (int64, error) {
	at := s.offset
	n, err := s.w.Write(p)
	s.offset += int64(n)
	return at, err
}

func (s *sink) close() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Writer appends peak blocks to a store. It is not safe for concurrent use;
// the caller owns it and must Close it.
type Writer struct {
	s *sink
}

// Create truncates or creates path and writes the version tag.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create peak store: %w", err)
	}
	s, err := newSink(file, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &Writer{s: s}, nil
}

// NewWriter writes the version tag to w. Close flushes but does not close w.
func NewWriter(w io.Writer) (*Writer, error) {
	s, err := newSink(w, nil)
	if err != nil {
		return nil, err
	}
	return &Writer{s: s}, nil
}

// Write appends the peaks of m and returns its index entry.
func (w *Writer) Write(m *core.Molecule) (Index, error) {
	seekpoint, err := w.s.write(encodePeaks(m.Spectrum))
	if err != nil {
		return Index{}, fmt.Errorf("failed to write peaks of %s: %w", m.Label(), err)
	}
	return Index{
		ScanID:      m.ScanID,
		Name:        m.Name,
		PrecursorMz: m.PrecursorMz,
		AdductType:  m.AdductType,
		IonMode:     m.IonMode,
		ChromXs:     m.ChromXs,
		Seekpoint:   seekpoint,
	}, nil
}

// WriteAll writes molecules in order.
func (w *Writer) WriteAll(molecules []*core.Molecule) ([]Index, error) {
	index := make([]Index, 0, len(molecules))
	for _, m := range molecules {
		entry, err := w.Write(m)
		if err != nil {
			return index, err
		}
		index = append(index, entry)
	}
	return index, nil
}

// Offset returns the position the next block will be written at.
func (w *Writer) Offset() int64 {
	return w.s.offset
}

// Close flushes buffered data and closes the file opened by Create.
func (w *Writer) Close() error {
	return w.s.close()
}
