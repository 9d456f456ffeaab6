package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/payout-ledger/internal/extractor"
	"github.com/insightdelivered/payout-ledger/internal/models"
	"github.com/insightdelivered/payout-ledger/internal/observability"
	"github.com/insightdelivered/payout-ledger/internal/pipeline"
	"github.com/insightdelivered/payout-ledger/internal/writer"
)

var (
	outputPath string
	format     string
	noHeader   bool
	forceOCR   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <statement.txt|statement.pdf|->",
	Short: "Convert a payout statement into ledger import rows",
	Long: `Convert reads one payout statement and writes its journal entries.

Input is a text file, a PDF (text layer, falling back to pdftotext and then
Tesseract OCR), or "-" for stdin. Output defaults to the input filename with a
.csv or .json extension; with stdin input it goes to stdout.`,
	Example: `  # Convert a PDF statement
  payout-ledger convert statement.pdf

  # Pasted text from stdin, CSV to stdout
  pbpaste | payout-ledger convert -

  # Scanned PDF, JSON output
  payout-ledger convert --ocr --format=json --output=deposits.json scan.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path, or - for stdout")
	convertCmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	convertCmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the CSV column header row")
	convertCmd.Flags().BoolVar(&forceOCR, "ocr", false, "skip the PDF text layer and run OCR")
	rootCmd.AddCommand(convertCmd)
}

// convertOutput is the --format=json document.
type convertOutput struct {
	Deposits []models.Deposit      `json:"deposits"`
	Entries  []models.JournalEntry `json:"entries"`
	Warnings []models.Warning      `json:"warnings"`
}

func runConvert(cmd *cobra.Command, args []string) error {
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown format %q: want csv or json", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := observability.NewLogger(cfg.Log.Level)
	defer log.Sync()

	input := args[0]
	if forceOCR && strings.ToLower(filepath.Ext(input)) != ".pdf" {
		return fmt.Errorf("--ocr only applies to PDF input, got %q", input)
	}
	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Processing: %s\n", input)

	text, err := readStatement(input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	res := pipeline.Run(text, cfg.Accounts, log)
	fmt.Fprintf(stderr, "  Found %d deposit(s)\n", len(res.Deposits))
	if len(res.Deposits) == 0 {
		fmt.Fprintln(stderr, "  Warning: No deposits found. Each deposit must start with a \"Deposit MM/DD/YYYY\" line and show a \"Total collected\" amount.")
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stderr, "  Warning (section %d, %s): %s\n", w.Section, w.Kind, w.Message)
	}

	out := resolveOutputPath(input, outputPath, format)
	if err := writeOutput(cmd.OutOrStdout(), out, res); err != nil {
		return fmt.Errorf("%s write failed: %w", strings.ToUpper(format), err)
	}

	if out != "-" {
		fmt.Fprintf(stderr, "  Output: %s\n", out)
	}
	if n := len(res.Unbalanced()); n > 0 {
		fmt.Fprintf(stderr, "  %d journal entr(ies) do not balance; review before import.\n", n)
	}
	fmt.Fprintln(stderr, "  Done.")
	return nil
}

// writeOutput writes res to stdout or to the file at out. File errors,
// including a failed close, are returned.
func writeOutput(stdout io.Writer, out string, res pipeline.Result) error {
	if format == "csv" {
		w := &writer.LedgerWriter{IncludeHeader: !noHeader}
		if out == "-" {
			return w.Write(stdout, res.Entries)
		}
		return w.WriteToFile(out, res.Entries)
	}

	doc := convertOutput{Deposits: res.Deposits, Entries: res.Entries, Warnings: res.Warnings}
	if out == "-" {
		return encodeJSON(stdout, doc)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", out, err)
	}
	if err := encodeJSON(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeJSON(w io.Writer, doc convertOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// readStatement returns the statement text from stdin, a PDF or a text file.
func readStatement(input string, stdin io.Reader) (string, error) {
	if input == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	if _, err := os.Stat(input); err != nil {
		return "", fmt.Errorf("input file not found: %s", input)
	}

	if strings.ToLower(filepath.Ext(input)) != ".pdf" {
		data, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", input, err)
		}
		return string(data), nil
	}

	if forceOCR {
		pages, err := extractor.ExtractTextOCR(input)
		if err != nil {
			return "", fmt.Errorf("OCR failed: %w", err)
		}
		return strings.Join(pages, "\n"), nil
	}
	text, err := extractor.ExtractTextCombined(input)
	if err != nil {
		return "", fmt.Errorf("PDF extraction failed: %w", err)
	}
	return text, nil
}

// resolveOutputPath picks the output destination; "-" means stdout.
func resolveOutputPath(input, output, format string) string {
	if output != "" {
		return output
	}
	if input == "-" {
		return "-"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}
