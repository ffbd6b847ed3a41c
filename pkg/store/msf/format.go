// Package msf stores MS/MS peak lists in a compact binary file addressed by
// byte offsets.
//
// Layout, little-endian:
//
//	[int32 version]
//	per compound: [int32 peakCount] then peakCount times
//	              [float32 mass][float32 intensity][int32 commentCode][int32 peakID]
//
// The residue file of a peptide library has the same version tag followed by
// [int32 length][int32 residueCode]* per peptide.
package msf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// Version1 is the only defined layout.
const Version1 int32 = 1

const (
	int32Size = 4
	peakSize  = 4 * int32Size
)

var byteOrder = binary.LittleEndian

// ErrInvalidCount is returned when a block length is negative.
var ErrInvalidCount = errors.New("invalid block length")

// peakDecoder decodes count peaks from a block of count*peakSize bytes.
type peakDecoder func(buf []byte, count int) []core.SpectrumPeak

// decoderFor returns the decoder of a version. Unknown versions use the
// version 1 layout and report ok=false.
func decoderFor(version int32) (dec peakDecoder, ok bool) {
	switch version {
	case Version1:
		return decodePeaksV1, true
	}
	return decodePeaksV1, false
}

func encodePeaks(peaks []core.SpectrumPeak) []byte {
	buf := make([]byte, int32Size+len(peaks)*peakSize)
	byteOrder.PutUint32(buf, uint32(int32(len(peaks))))
	p := buf[int32Size:]
	for _, peak := range peaks {
		byteOrder.PutUint32(p[0:], math.Float32bits(float32(peak.Mass)))
		byteOrder.PutUint32(p[4:], math.Float32bits(float32(peak.Intensity)))
		byteOrder.PutUint32(p[8:], uint32(int32(peak.SpectrumComment)))
		byteOrder.PutUint32(p[12:], uint32(int32(peak.PeakID)))
		p = p[peakSize:]
	}
	return buf
}

func decodePeaksV1(buf []byte, count int) []core.SpectrumPeak {
	peaks := make([]core.SpectrumPeak, count)
	for i := range peaks {
		p := buf[i*peakSize:]
		mass := float64(math.Float32frombits(byteOrder.Uint32(p[0:])))
		intensity := float64(math.Float32frombits(byteOrder.Uint32(p[4:])))
		peaks[i] = core.NewSpectrumPeak(mass, intensity, "")
		peaks[i].SpectrumComment = core.SpectrumComment(int32(byteOrder.Uint32(p[8:])))
		peaks[i].PeakID = int(int32(byteOrder.Uint32(p[12:])))
	}
	return peaks
}

func encodeResidues(sequence string) []byte {
	codes := []rune(sequence)
	buf := make([]byte, int32Size*(1+len(codes)))
	byteOrder.PutUint32(buf, uint32(int32(len(codes))))
	for i, aa := range codes {
		byteOrder.PutUint32(buf[int32Size*(i+1):], uint32(int32(core.ResidueCode(aa))))
	}
	return buf
}

func decodeResidues(buf []byte, count int) string {
	seq := make([]rune, count)
	for i := range seq {
		seq[i] = core.ResidueFromCode(int(int32(byteOrder.Uint32(buf[i*int32Size:]))))
	}
	return string(seq)
}

// readInt32 reads one little-endian int32 from the current position.
func readInt32(r io.Reader) (int32, error) {
	var b [int32Size]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(byteOrder.Uint32(b[:])), nil
}

// readFullAt is io.ReadFull for positional reads: a short read is
// io.ErrUnexpectedEOF.
func readFullAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// fitsAhead reports io.ErrUnexpectedEOF when fewer than size bytes follow the
// current position of rs. The position is left unchanged.
func fitsAhead(rs io.Seeker, size int64) error {
	cur, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := rs.Seek(cur, io.SeekStart); err != nil {
		return err
	}
	if end-cur < size {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// fitsAt reports io.ErrUnexpectedEOF when the size bytes at off run past the
// end of r, by reading the last of them.
func fitsAt(r io.ReaderAt, off, size int64) error {
	if size == 0 {
		return nil
	}
	var b [1]byte
	return readFullAt(r, b[:], off+size-1)
}

func checkCount(count int32, at int64) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("offset %d: %w %d", at, ErrInvalidCount, count)
	}
	return int(count), nil
}

// unexpected turns a bare io.EOF inside a block into io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
