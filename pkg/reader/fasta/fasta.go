// Package fasta reads protein FASTA files with UniProt style headers.
package fasta

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/reader/textio"
)

// Record is one FASTA entry.
type Record struct {
	Index  int
	Header string

	DB               string // "sp", "tr"
	UniqueIdentifier string // accession
	Description      string

	ProteinName        string
	OrganismName       string
	OrganismIdentifier string
	GeneName           string
	ProteinExistence   string
	SequenceVersion    string

	Sequence    string
	IsValidated bool // false when the sequence has X, '*' or '-'
}

var descriptionPattern = regexp.MustCompile(
	`^(?P<ProteinName>.+?)` +
		`(?: OS=(?P<OrganismName>.+?))?` +
		`(?: OX=(?P<OrganismIdentifier>.+?))?` +
		`(?: GN=(?P<GeneName>.+?))?` +
		`(?: PE=(?P<ProteinExistence>.+?))?` +
		`(?: SV=(?P<SequenceVersion>.+?))?$`)

// ParseHeader fills the header fields of rec from a header line without '>'.
func ParseHeader(rec *Record, header string) {
	rec.Header = header

	parts := strings.SplitN(header, "|", 3)
	if len(parts) == 3 {
		rec.DB = parts[0]
		rec.UniqueIdentifier = parts[1]
		rec.Description = parts[2]
	} else {
		rec.Description = header
	}

	// UniProt descriptions start with the entry name, e.g. "ALBU_HUMAN Albumin".
	desc := rec.Description
	if len(parts) == 3 {
		if _, rest, ok := strings.Cut(desc, " "); ok {
			desc = rest
		}
	}

	match := descriptionPattern.FindStringSubmatch(desc)
	if match == nil {
		rec.ProteinName = desc
		return
	}
	for i, name := range descriptionPattern.SubexpNames() {
		value := strings.TrimSpace(match[i])
		switch name {
		case "ProteinName":
			rec.ProteinName = value
		case "OrganismName":
			rec.OrganismName = value
		case "OrganismIdentifier":
			rec.OrganismIdentifier = value
		case "GeneName":
			rec.GeneName = value
		case "ProteinExistence":
			rec.ProteinExistence = value
		case "SequenceVersion":
			rec.SequenceVersion = value
		}
	}
}

// IsValidSequence reports whether seq is free of ambiguous residues (X),
// stops (*) and gaps (-).
func IsValidSequence(seq string) bool {
	return !strings.ContainsAny(seq, "X*-")
}

// Reader provides streaming access to FASTA files.
type Reader struct {
	scanner *bufio.Scanner
	header  string
	inEntry bool
	count   int
	current *Record
	err     error
}

// NewReader creates a FASTA reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: textio.NewScanner(r)}
}

// Next advances to the next record. Returns false at EOF or on error.
func (r *Reader) Next() bool {
	r.current = nil
	if r.err != nil {
		return false
	}

	var seq strings.Builder
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if strings.HasPrefix(line, ">") {
			if r.inEntry {
				r.emit(seq.String())
				r.header = line[1:]
				return true
			}
			r.header = line[1:]
			r.inEntry = true
			continue
		}
		if r.inEntry {
			seq.WriteString(line)
		}
	}
	if err := r.scanner.Err(); err != nil {
		r.err = err
		return false
	}
	if r.inEntry {
		r.emit(seq.String())
		r.inEntry = false
		return true
	}
	return false
}

func (r *Reader) emit(seq string) {
	rec := &Record{Index: r.count, Sequence: seq, IsValidated: IsValidSequence(seq)}
	ParseHeader(rec, strings.TrimSpace(r.header))
	r.count++
	r.current = rec
}

// Record returns the current record.
func (r *Reader) Record() *Record {
	return r.current
}

// Err returns any error encountered during reading.
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every record of a FASTA stream.
func ReadAll(r io.Reader) ([]*Record, error) {
	reader := NewReader(r)
	var out []*Record
	for reader.Next() {
		out = append(out, reader.Record())
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
