package msf

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// ReadPeaks reads the block at seekpoint: it seeks to the start, reads the
// version tag, seeks to seekpoint and decodes the block. Unknown versions are
// read with the version 1 layout and logged through the standard logger.
func ReadPeaks(rs io.ReadSeeker, seekpoint int64) ([]core.SpectrumPeak, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	version, err := readInt32(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to read version: %w", unexpected(err))
	}
	decode, ok := decoderFor(version)
	if !ok {
		log.Printf("msf: unknown version %d, reading as version %d", version, Version1)
	}

	if _, err := rs.Seek(seekpoint, io.SeekStart); err != nil {
		return nil, err
	}
	n, err := readInt32(rs)
	if err != nil {
		return nil, fmt.Errorf("offset %d: failed to read peak count: %w", seekpoint, unexpected(err))
	}
	count, err := checkCount(n, seekpoint)
	if err != nil {
		return nil, err
	}
	if err := fitsAhead(rs, int64(count)*peakSize); err != nil {
		return nil, fmt.Errorf("offset %d: %d peaks: %w", seekpoint, count, err)
	}
	buf := make([]byte, count*peakSize)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return nil, fmt.Errorf("offset %d: failed to read %d peaks: %w", seekpoint, count, unexpected(err))
	}
	return decode(buf, count), nil
}

// ReadResidues reads the peptide sequence stored at seekpoint of a residue
// file, following the same protocol as ReadPeaks.
func ReadResidues(rs io.ReadSeeker, seekpoint int64) (string, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if _, err := readInt32(rs); err != nil {
		return "", fmt.Errorf("failed to read version: %w", unexpected(err))
	}
	if _, err := rs.Seek(seekpoint, io.SeekStart); err != nil {
		return "", err
	}
	n, err := readInt32(rs)
	if err != nil {
		return "", fmt.Errorf("offset %d: failed to read residue count: %w", seekpoint, unexpected(err))
	}
	count, err := checkCount(n, seekpoint)
	if err != nil {
		return "", err
	}
	if err := fitsAhead(rs, int64(count)*int32Size); err != nil {
		return "", fmt.Errorf("offset %d: %d residues: %w", seekpoint, count, err)
	}
	buf := make([]byte, count*int32Size)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return "", fmt.Errorf("offset %d: failed to read %d residues: %w", seekpoint, count, unexpected(err))
	}
	return decodeResidues(buf, count), nil
}

// Reader reads peak blocks with positional reads only, so one Reader can
// serve many goroutines once the file is fully written.
type Reader struct {
	r         io.ReaderAt
	closer    io.Closer
	logger    *log.Logger
	fallbacks atomic.Int64
}

// NewReader reads from r. A nil logger uses log.Default().
func NewReader(r io.ReaderAt, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.Default()
	}
	return &Reader{r: r, logger: logger}
}

// OpenReader opens a store file for reading.
func OpenReader(path string, logger *log.Logger) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open peak store: %w", err)
	}
	r := NewReader(file, logger)
	r.closer = file
	return r, nil
}

// Close closes the file opened by OpenReader.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Fallbacks returns how many reads met an unknown version and used the
// version 1 layout.
func (r *Reader) Fallbacks() int64 {
	return r.fallbacks.Load()
}

func (r *Reader) int32At(off int64) (int32, error) {
	var b [int32Size]byte
	if err := readFullAt(r.r, b[:], off); err != nil {
		return 0, err
	}
	return int32(byteOrder.Uint32(b[:])), nil
}

// Peaks reads the block at seekpoint.
func (r *Reader) Peaks(seekpoint int64) ([]core.SpectrumPeak, error) {
	version, err := r.int32At(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	decode, ok := decoderFor(version)
	if !ok {
		r.fallbacks.Add(1)
		r.logger.Printf("msf: unknown version %d at seekpoint %d, reading as version %d", version, seekpoint, Version1)
	}

	n, err := r.int32At(seekpoint)
	if err != nil {
		return nil, fmt.Errorf("offset %d: failed to read peak count: %w", seekpoint, err)
	}
	count, err := checkCount(n, seekpoint)
	if err != nil {
		return nil, err
	}
	if err := fitsAt(r.r, seekpoint+int32Size, int64(count)*peakSize); err != nil {
		return nil, fmt.Errorf("offset %d: %d peaks: %w", seekpoint, count, err)
	}
	buf := make([]byte, count*peakSize)
	if err := readFullAt(r.r, buf, seekpoint+int32Size); err != nil {
		return nil, fmt.Errorf("offset %d: failed to read %d peaks: %w", seekpoint, count, err)
	}
	return decode(buf, count), nil
}

// Molecule rebuilds a molecule from its index entry and stored peaks.
func (r *Reader) Molecule(entry Index) (*core.Molecule, error) {
	peaks, err := r.Peaks(entry.Seekpoint)
	if err != nil {
		return nil, err
	}
	m := core.NewMolecule("msf")
	m.ScanID = entry.ScanID
	m.Name = entry.Name
	m.PrecursorMz = entry.PrecursorMz
	m.AdductType = entry.AdductType
	m.PrecursorCharge = core.AdductCharge(entry.AdductType)
	m.IonMode = entry.IonMode
	m.ChromXs = entry.ChromXs
	m.Spectrum = peaks
	return m, nil
}
