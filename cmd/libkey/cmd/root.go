// Package cmd provides CLI command implementations
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Input flags shared by convert, summarize and validate
	inputFile   string
	inputFormat string
	encoding    string
	ionModeFlag string
	solvent     string
	queriesCSV  string
	modsCSV     string

	// Flags for convert command
	outputFile       string
	topN             int
	cutoffPercent    float64
	commentPrefixes  []string
	massOffsetCSV    string
	compoundClassCSV string
	oldModMass       float64
	newModMass       float64
	peptideStore     bool

	// Flags for summarize command
	summaryLimit int

	// Flags for isotopes command
	isotopeTable   string
	isotopeOffsets int
)

var rootCmd = &cobra.Command{
	Use:   "libkey",
	Short: "LibKey - Spectral library toolkit",
	Long: `LibKey reads metabolomics, lipidomics and proteomics spectral libraries
(MSP, LipidBlast LBM, MGF, tab-separated target lists) and converts them to
mzVault compatible SQLite databases, compact binary peak stores or MSP text.

Also included:
- Peak filtering (top-N, intensity cutoff, annotation prefixes)
- Library summaries and validation
- FASTA header parsing
- Isotope patterns from molecular formulas`,
	Version: "0.3.0",
	// Errors are printed by main.
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

// addInputFlags registers the flags every library-reading command needs.
func addInputFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&inputFormat, "from", "f", "", "Input format: msp, lbm, mgf, txt (auto-detect if not specified)")
	fs.StringVar(&encoding, "encoding", "", "Input text encoding, e.g. latin1 or windows-1252 (default UTF-8)")
	fs.StringVar(&ionModeFlag, "ion-mode", "", "Ion mode: positive or negative (LBM filter, target list default adduct)")
	fs.StringVar(&solvent, "solvent", "HCOONH4", "LBM solvent type: HCOONH4 or CH3COONH4")
	fs.StringVar(&queriesCSV, "queries", "", "LBM query CSV (CompoundClass,Adduct,IonMode)")
	fs.StringVar(&modsCSV, "mods", "", "Additional modification CSV (name,massshift) for peptide MSP entries")
}

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(fastaCmd)
	rootCmd.AddCommand(isotopesCmd)
	rootCmd.AddCommand(peaksCmd)

	// Convert command flags
	convertCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input file path (required)")
	convertCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file: .db (SQLite), .msf (peak store) or .msp (required)")
	addInputFlags(convertCmd.Flags())
	convertCmd.Flags().IntVar(&topN, "top-n", 0, "Keep only top N most intense peaks (0 = no limit)")
	convertCmd.Flags().Float64Var(&cutoffPercent, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	convertCmd.Flags().StringSliceVar(&commentPrefixes, "comment-prefixes", nil, "Keep only peaks whose annotation starts with one of these (e.g., 'b,y')")
	convertCmd.Flags().StringVar(&massOffsetCSV, "mass-offset", "", "Path to mass offset CSV file (Name,massOffset)")
	convertCmd.Flags().StringVar(&compoundClassCSV, "compound-class", "", "Path to compound class CSV file (Name,CompoundClass)")
	convertCmd.Flags().Float64Var(&oldModMass, "adjust-fragments-old", 0, "Old modification mass for fragment adjustment")
	convertCmd.Flags().Float64Var(&newModMass, "adjust-fragments-new", 0, "New modification mass for fragment adjustment")
	convertCmd.Flags().BoolVar(&peptideStore, "peptides", false, "With .msf output, also write a residue store (.res) next to it")

	convertCmd.MarkFlagRequired("in")
	convertCmd.MarkFlagRequired("out")

	addInputFlags(summarizeCmd.Flags())
	summarizeCmd.Flags().IntVar(&summaryLimit, "limit", 20, "Rows per count table (0 = all)")

	addInputFlags(validateCmd.Flags())

	isotopesCmd.Flags().StringVar(&isotopeTable, "table", "", "IUPAC isotope table file (default: built-in)")
	isotopesCmd.Flags().IntVar(&isotopeOffsets, "offsets", 2, "Number of isotopic peaks past M+0")
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a spectral library",
	Long: `Convert MSP, LBM, MGF or target-list libraries to SQLite (.db), binary peak
stores (.msf) or MSP text (.msp). The output format follows the extension.

Examples:
  # Convert an MS-DIAL MSP library to an mzVault database
  libkey convert --in library.msp --out library.db

  # Keep negative mode lipids of the selected classes, acetate buffer
  libkey convert --in lipids.lbm --out lipids.msp --ion-mode negative --solvent CH3COONH4 --queries classes.csv

  # Write a peak store for a Prosit peptide library with filtering
  libkey convert --in prosit.msp --out prosit.msf --peptides --top-n 12 --cutoff 1`,
	RunE: runConvert,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate input file format and contents",
	Long:  `Validate that an input file parses and that every molecule has a name, a sane precursor m/z and well-formed peaks.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize spectral library contents",
	Long:  `Print summary statistics about a spectral library including molecule counts by ion mode, adduct and class, and the precursor m/z distribution.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var fastaCmd = &cobra.Command{
	Use:   "fasta [file]",
	Short: "Parse a FASTA file and list its proteins",
	Args:  cobra.ExactArgs(1),
	RunE:  runFasta,
}

var isotopesCmd = &cobra.Command{
	Use:   "isotopes [formula...]",
	Short: "Print monoisotopic mass and isotope pattern of formulas",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIsotopes,
}

var peaksCmd = &cobra.Command{
	Use:   "peaks [store.msf] [seekpoint...]",
	Short: "Print the peaks stored at seekpoints of a binary peak store",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPeaks,
}
