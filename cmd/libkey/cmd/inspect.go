package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/LibKey/pkg/isotope"
	"github.com/ChrisMcGann/LibKey/pkg/reader/fasta"
	"github.com/ChrisMcGann/LibKey/pkg/reader/textio"
	"github.com/ChrisMcGann/LibKey/pkg/store/msf"
	"github.com/ChrisMcGann/LibKey/pkg/summary"
)

func runValidate(cmd *cobra.Command, args []string) error {
	molecules, err := loadLibrary(args[0])
	if err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	invalid := 0
	for _, m := range molecules {
		if err := m.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			invalid++
		}
	}

	fmt.Printf("Molecules: %d\n", len(molecules))
	fmt.Printf("Invalid: %d\n", invalid)
	if invalid > 0 {
		return fmt.Errorf("%d of %d molecules failed validation", invalid, len(molecules))
	}
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	molecules, err := loadLibrary(args[0])
	if err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}
	return summary.Summarize(molecules).Write(os.Stdout, summaryLimit)
}

func runFasta(cmd *cobra.Command, args []string) error {
	in, err := textio.Open(args[0], "")
	if err != nil {
		return err
	}
	defer in.Close()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Accession\tProtein\tGene\tOrganism\tLength\tValid")

	reader := fasta.NewReader(in)
	count, invalid := 0, 0
	for reader.Next() {
		rec := reader.Record()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\n",
			rec.UniqueIdentifier, rec.ProteinName, rec.GeneName, rec.OrganismName,
			len(rec.Sequence), rec.IsValidated)
		count++
		if !rec.IsValidated {
			invalid++
		}
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("error reading FASTA file: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nProteins: %d (%d with ambiguous residues, stops or gaps)\n", count, invalid)
	return nil
}

func loadIsotopeTable() (*isotope.Table, error) {
	if isotopeTable == "" {
		return isotope.Default()
	}
	f, err := os.Open(isotopeTable)
	if err != nil {
		return nil, fmt.Errorf("failed to open isotope table: %w", err)
	}
	defer f.Close()
	return isotope.Load(f)
}

func runIsotopes(cmd *cobra.Command, args []string) error {
	table, err := loadIsotopeTable()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, arg := range args {
		f, err := isotope.ParseFormula(arg)
		if err != nil {
			return err
		}
		mono, err := f.MonoisotopicMass(table)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		peaks, err := table.IsotopicPeaks(f, isotopeOffsets)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}

		fmt.Fprintf(tw, "%s\tmonoisotopic\t%.6f\n", f, mono)
		for _, p := range peaks {
			fmt.Fprintf(tw, "\tM+%d\t%.6f\t%.4f\n", p.Offset, p.Mass, p.RelativeAbundance)
		}
	}
	return tw.Flush()
}

func runPeaks(cmd *cobra.Command, args []string) error {
	reader, err := msf.OpenReader(args[0], log.New(os.Stderr, "Warning: ", 0))
	if err != nil {
		return err
	}
	defer reader.Close()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, arg := range args[1:] {
		seekpoint, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seekpoint '%s': %w", arg, err)
		}
		peaks, err := reader.Peaks(seekpoint)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "# seekpoint %d\t%d peaks\n", seekpoint, len(peaks))
		for _, p := range peaks {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
				strconv.FormatFloat(p.Mass, 'f', 4, 64),
				strconv.FormatFloat(p.Intensity, 'f', -1, 64),
				p.SpectrumComment, p.PeakID)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n := reader.Fallbacks(); n > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d read(s) used the version %d layout for an unknown version\n", n, msf.Version1)
	}
	return nil
}
