package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/LibKey/pkg/core"
	"github.com/ChrisMcGann/LibKey/pkg/filter"
	"github.com/ChrisMcGann/LibKey/pkg/isotope"
	"github.com/ChrisMcGann/LibKey/pkg/store/msf"
	mspwriter "github.com/ChrisMcGann/LibKey/pkg/writer/msp"
	"github.com/ChrisMcGann/LibKey/pkg/writer/sqlite"
)

// moleculeSink is one of the output formats.
type moleculeSink interface {
	WriteMolecule(m *core.Molecule) error
	Close() error
}

func runConvert(cmd *cobra.Command, args []string) error {
	// Validate input file exists
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	fmt.Printf("Converting %s to %s...\n", inputFile, outputFile)
	if topN > 0 {
		fmt.Printf("Top N filter: %d\n", topN)
	}
	if cutoffPercent > 0 {
		fmt.Printf("Intensity cutoff: %.1f%%\n", cutoffPercent)
	}
	if len(commentPrefixes) > 0 {
		fmt.Printf("Annotation prefixes: %s\n", strings.Join(commentPrefixes, ","))
	}

	molecules, err := loadLibrary(inputFile)
	if err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}
	fmt.Printf("Read %d molecules\n", len(molecules))

	// Load mass offset mapping if provided
	massOffsetMap := make(map[string]float64)
	if massOffsetCSV != "" {
		massOffsetMap, err = loadMassOffsetCSV(massOffsetCSV)
		if err != nil {
			return fmt.Errorf("failed to load mass offset CSV: %w", err)
		}
		fmt.Printf("Loaded %d mass offset mappings\n", len(massOffsetMap))
	}

	// Load compound class mapping if provided
	compoundClassMap := make(map[string]string)
	if compoundClassCSV != "" {
		compoundClassMap, err = loadCompoundClassCSV(compoundClassCSV)
		if err != nil {
			return fmt.Errorf("failed to load compound class CSV: %w", err)
		}
		fmt.Printf("Loaded %d compound class mappings\n", len(compoundClassMap))
	}

	sink, err := openSink(outputFile)
	if err != nil {
		return err
	}
	defer sink.Close()

	filterConfig := &filter.Config{
		TopN:            topN,
		IntensityCutoff: cutoffPercent,
		CommentPrefixes: commentPrefixes,
		OldModMass:      oldModMass,
		NewModMass:      newModMass,
	}

	count := 0
	skipped := 0

	for _, m := range molecules {
		if class, ok := compoundClassMap[m.Name]; ok {
			m.CompoundClass = class
		}

		if offset, ok := massOffsetMap[m.Name]; ok {
			charge := m.PrecursorCharge
			if charge <= 0 {
				charge = 1
			}
			m.PrecursorMz += offset / float64(charge)
		}

		// Remove zero intensity peaks
		filter.RemoveZeroIntensityPeaks(m)

		if err := filterConfig.Apply(m); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to filter %s: %v\n", m.Label(), err)
			skipped++
			continue
		}

		if err := m.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid molecule %s: %v\n", m.Label(), err)
			skipped++
			continue
		}

		if err := sink.WriteMolecule(m); err != nil {
			return fmt.Errorf("failed to write %s: %w", m.Label(), err)
		}

		count++
		if count%1000 == 0 {
			fmt.Printf("Processed %d molecules...\n", count)
		}
	}

	if err := sink.Close(); err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}

	fmt.Printf("\nConversion complete!\n")
	fmt.Printf("Processed: %d molecules\n", count)
	if skipped > 0 {
		fmt.Printf("Skipped: %d molecules (validation errors)\n", skipped)
	}
	fmt.Printf("Output: %s\n", outputFile)

	return nil
}

// openSink picks the writer from the output extension.
func openSink(path string) (moleculeSink, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".db", ".sqlite":
		table, err := isotope.Default()
		if err != nil {
			return nil, err
		}
		w, err := sqlite.NewWriter(path, table)
		if err != nil {
			return nil, fmt.Errorf("failed to create output database: %w", err)
		}
		return w, nil

	case ".msf":
		return newStoreSink(path, peptideStore)

	case ".msp":
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		return &mspSink{file: f, w: mspwriter.NewWriter(f)}, nil

	default:
		return nil, fmt.Errorf("cannot pick output format from extension '%s', use .db, .msf or .msp", ext)
	}
}

type mspSink struct {
	file   *os.File
	w      *mspwriter.Writer
	closed bool
}

func (s *mspSink) WriteMolecule(m *core.Molecule) error {
	return s.w.WriteMolecule(m)
}

func (s *mspSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// storeSink writes a peak store and its index as a tab-separated file with
// the same base name and an .idx extension.
type storeSink struct {
	spectra  *msf.Writer
	peptides *msf.PeptideWriter
	index    *os.File
	idx      *bufio.Writer
	closed   bool
}

func newStoreSink(path string, withResidues bool) (*storeSink, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	s := &storeSink{}

	var err error
	if withResidues {
		s.peptides, err = msf.CreatePeptide(path, base+".res")
	} else {
		s.spectra, err = msf.Create(path)
	}
	if err != nil {
		return nil, err
	}

	s.index, err = os.Create(base + ".idx")
	if err != nil {
		s.closeStore()
		return nil, fmt.Errorf("failed to create index file: %w", err)
	}
	s.idx = bufio.NewWriter(s.index)
	fmt.Fprintln(s.idx, "ScanID\tName\tPrecursorMz\tAdduct\tIonMode\tRT\tSeekpoint\tSequence\tResidueSeekpoint")
	return s, nil
}

func (s *storeSink) WriteMolecule(m *core.Molecule) error {
	var (
		entry    msf.Index
		sequence string
		resSeek  int64 = -1
	)
	if s.peptides != nil {
		pep, err := s.peptides.Write(m)
		if err != nil {
			return err
		}
		entry, sequence, resSeek = pep.Index, pep.Sequence, pep.ResidueSeekpoint
	} else {
		var err error
		if entry, err = s.spectra.Write(m); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(s.idx, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%d\n",
		entry.ScanID, entry.Name,
		strconv.FormatFloat(entry.PrecursorMz, 'f', -1, 64),
		entry.AdductType, entry.IonMode,
		strconv.FormatFloat(entry.ChromXs.RT, 'f', -1, 64),
		entry.Seekpoint, sequence, resSeek)
	return err
}

func (s *storeSink) closeStore() error {
	if s.peptides != nil {
		return s.peptides.Close()
	}
	return s.spectra.Close()
}

func (s *storeSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.closeStore()
	if ferr := s.idx.Flush(); err == nil {
		err = ferr
	}
	if cerr := s.index.Close(); err == nil {
		err = cerr
	}
	return err
}

func loadMassOffsetCSV(path string) (map[string]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := make(map[string]float64)
	scanner := bufio.NewScanner(file)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields (Name,massOffset), got %d", lineNum, len(parts))
		}

		name := strings.TrimSpace(parts[0])
		offsetStr := strings.TrimSpace(parts[1])

		offset, err := strconv.ParseFloat(offsetStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid mass offset value '%s': %w", lineNum, offsetStr, err)
		}

		result[name] = offset
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return result, nil
}

func loadCompoundClassCSV(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(file)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields (Name,CompoundClass), got %d", lineNum, len(parts))
		}

		result[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return result, nil
}
