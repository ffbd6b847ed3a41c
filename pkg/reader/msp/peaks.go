package msp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
)

// fragmentMarker separates a peak comment from a fragment formula that is
// not kept, e.g. "M-H2O_f_C6H10O5".
const fragmentMarker = "_f_"

type peakState int

const (
	seekMass peakState = iota
	seekIntensity
	inQuote
)

// PeakBlock tokenizes the peak lines that follow "Num Peaks: n".
//
// Digits and '.' build a number, any other character separates numbers, and
// numbers alternate between mass and intensity. A double-quoted string is the
// comment of the peak completed last. State carries over from one line to
// the next until n peaks are complete.
type PeakBlock struct {
	want   int
	state  peakState
	resume peakState
	num    []byte
	mass   float64
	quote  []byte
	peaks  []core.SpectrumPeak
}

// NewPeakBlock returns a tokenizer expecting n peaks.
func NewPeakBlock(n int) *PeakBlock {
	if n < 0 {
		n = 0
	}
	return &PeakBlock{
		want:  n,
		peaks: make([]core.SpectrumPeak, 0, n),
	}
}

// Full reports whether all expected peaks have been read.
func (b *PeakBlock) Full() bool {
	return len(b.peaks) >= b.want
}

// Peaks returns the peaks read so far, in input order.
func (b *PeakBlock) Peaks() []core.SpectrumPeak {
	return b.peaks
}

// Feed tokenizes one line. A malformed number is returned as an error and
// must abort the parse.
func (b *PeakBlock) Feed(line string) error {
	for i := 0; i < len(line); i++ {
		c := line[i]

		if b.state == inQuote {
			if c == '"' {
				b.closeQuote()
			} else {
				b.quote = append(b.quote, c)
			}
			continue
		}

		switch {
		case b.isNumeric(line, i):
			b.num = append(b.num, c)
		case c == '"':
			if err := b.flush(); err != nil {
				return err
			}
			b.resume = b.state
			b.state = inQuote
			b.quote = b.quote[:0]
		default:
			if err := b.flush(); err != nil {
				return err
			}
		}
	}

	// An unterminated quote ends with the line.
	if b.state == inQuote {
		b.closeQuote()
	}
	return b.flush()
}

// isNumeric reports whether line[i] continues a number: a digit, a '.', or an
// exponent "e5", "e+5", "e-5" directly after digits. An exponent marker not
// followed by a digit (after an optional sign) is a separator.
func (b *PeakBlock) isNumeric(line string, i int) bool {
	c := line[i]
	switch {
	case isDigit(line, i), c == '.':
		return true
	case (c == 'e' || c == 'E') && len(b.num) > 0:
		if isDigit(line, i+1) {
			return true
		}
		return isSign(line, i+1) && isDigit(line, i+2)
	case (c == '+' || c == '-') && len(b.num) > 0:
		last := b.num[len(b.num)-1]
		return (last == 'e' || last == 'E') && isDigit(line, i+1)
	}
	return false
}

func isDigit(line string, i int) bool {
	return i < len(line) && line[i] >= '0' && line[i] <= '9'
}

func isSign(line string, i int) bool {
	return i < len(line) && (line[i] == '+' || line[i] == '-')
}

func (b *PeakBlock) flush() error {
	if len(b.num) == 0 {
		return nil
	}
	token := string(b.num)
	b.num = b.num[:0]

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return fmt.Errorf("invalid peak value '%s': %w", token, err)
	}
	if b.Full() {
		return nil
	}

	switch b.state {
	case seekMass:
		b.mass = v
		b.state = seekIntensity
	case seekIntensity:
		peak := core.NewSpectrumPeak(b.mass, v, "")
		peak.PeakID = len(b.peaks)
		b.peaks = append(b.peaks, peak)
		b.state = seekMass
	}
	return nil
}

func (b *PeakBlock) closeQuote() {
	comment := string(b.quote)
	if i := strings.Index(comment, fragmentMarker); i >= 0 {
		comment = comment[:i]
	}
	if comment != "" && len(b.peaks) > 0 {
		b.peaks[len(b.peaks)-1].Comment = comment
	}
	b.state = b.resume
}
