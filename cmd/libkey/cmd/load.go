package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChrisMcGann/LibKey/pkg/core"
	"github.com/ChrisMcGann/LibKey/pkg/isotope"
	"github.com/ChrisMcGann/LibKey/pkg/reader/lbm"
	"github.com/ChrisMcGann/LibKey/pkg/reader/mgf"
	"github.com/ChrisMcGann/LibKey/pkg/reader/msp"
	"github.com/ChrisMcGann/LibKey/pkg/reader/targetlist"
	"github.com/ChrisMcGann/LibKey/pkg/reader/textio"
)

// detectFormat returns the --from value, or guesses it from the extension.
func detectFormat(path string) (string, error) {
	if inputFormat != "" {
		format := strings.ToLower(inputFormat)
		switch format {
		case "msp", "lbm", "mgf", "txt":
			return format, nil
		}
		return "", fmt.Errorf("invalid input format '%s', must be msp, lbm, mgf or txt", inputFormat)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".msp":
		return "msp", nil
	case ".lbm", ".lbm2":
		return "lbm", nil
	case ".mgf":
		return "mgf", nil
	case ".txt", ".tsv":
		return "txt", nil
	}
	return "", fmt.Errorf("cannot auto-detect format from extension '%s', please specify --from", ext)
}

func parseIonModeFlag() (core.IonMode, error) {
	if ionModeFlag == "" {
		return core.IonModeUnknown, nil
	}
	mode, ok := core.ParseIonMode(ionModeFlag)
	if !ok {
		return core.IonModeUnknown, fmt.Errorf("invalid ion mode '%s', must be positive or negative", ionModeFlag)
	}
	return mode, nil
}

// loadModDatabase returns the built-in modifications plus --mods and, as
// before, unimod_custom.csv from the working directory when present.
func loadModDatabase() (*core.ModDatabase, error) {
	modDB := core.DefaultModDatabase()

	if _, err := os.Stat("unimod_custom.csv"); err == nil {
		f, err := os.Open("unimod_custom.csv")
		if err == nil {
			if err := modDB.LoadFromCSV(f); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to load unimod_custom.csv: %v\n", err)
			}
			f.Close()
		}
	}

	if modsCSV != "" {
		f, err := os.Open(modsCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to open modification CSV: %w", err)
		}
		defer f.Close()
		if err := modDB.LoadFromCSV(f); err != nil {
			return nil, fmt.Errorf("failed to load modification CSV: %w", err)
		}
	}

	return modDB, nil
}

// loadLibrary reads every molecule of path in the detected format.
func loadLibrary(path string) ([]*core.Molecule, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	ionMode, err := parseIonModeFlag()
	if err != nil {
		return nil, err
	}

	in, err := textio.Open(path, encoding)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	switch format {
	case "msp":
		modDB, err := loadModDatabase()
		if err != nil {
			return nil, err
		}
		return msp.ReadAll(in, modDB)

	case "mgf":
		return mgf.ReadAll(in)

	case "lbm":
		return loadLBM(in, ionMode)

	case "txt":
		table, err := isotope.Default()
		if err != nil {
			return nil, err
		}
		molecules, err := targetlist.Read(in, table, targetlist.Options{IonMode: ionMode})
		var report *targetlist.ReportError
		if errors.As(err, &report) {
			fmt.Fprintln(os.Stderr, report.Error())
			return nil, fmt.Errorf("target list rejected: %d row error(s)", len(report.Messages))
		}
		return molecules, err
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

func loadLBM(in *textio.File, ionMode core.IonMode) ([]*core.Molecule, error) {
	solventType, err := lbm.ParseSolventType(solvent)
	if err != nil {
		return nil, err
	}
	opts := lbm.Options{IonMode: ionMode, SolventType: solventType}

	if queriesCSV != "" {
		if ionMode == core.IonModeUnknown {
			return nil, fmt.Errorf("--queries needs --ion-mode")
		}
		opts.Queries, err = loadQueriesCSV(queriesCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to load query CSV: %w", err)
		}
		fmt.Printf("Loaded %d LBM queries\n", len(opts.Queries))
		if len(opts.Queries) == 0 {
			return nil, fmt.Errorf("no LBM query is selected")
		}
	}

	res, err := lbm.Read(in, opts)
	if err != nil {
		return nil, err
	}
	switch res.Outcome {
	case lbm.NoQueriesSelected:
		return nil, fmt.Errorf("no LBM query is selected")
	case lbm.ZeroMatches:
		fmt.Fprintf(os.Stderr, "Warning: no LBM record matched the selected queries\n")
	}
	return res.Molecules, nil
}

// loadQueriesCSV reads "CompoundClass,Adduct,IonMode[,Selected]" rows. A
// missing Selected column means selected.
func loadQueriesCSV(path string) ([]lbm.Query, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := []lbm.Query{}
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
		if len(parts) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 fields (CompoundClass,Adduct,IonMode), got %d", lineNum, len(parts))
		}

		mode, ok := core.ParseIonMode(parts[2])
		if !ok {
			return nil, fmt.Errorf("line %d: invalid ion mode '%s'", lineNum, strings.TrimSpace(parts[2]))
		}

		selected := true
		if len(parts) > 3 {
			switch strings.ToLower(strings.TrimSpace(parts[3])) {
			case "false", "0", "no":
				selected = false
			}
		}

		result = append(result, lbm.Query{
			CompoundClass: strings.TrimSpace(parts[0]),
			AdductName:    strings.TrimSpace(parts[1]),
			IonMode:       mode,
			IsSelected:    selected,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return result, nil
}
