package montecarlo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/yourusername/valuation-engine/internal/models"
)

// Rows flattens every trial of output, in trial order, including failed and
// not-run trials
func Rows(output models.SimulationOutput) []models.TrialRow {
	rows := make([]models.TrialRow, len(output.Trials))
	for i, trial := range output.Trials {
		rows[i] = trial.Row()
	}
	return rows
}

// WriteTrialsCSV writes one CSV row per trial with a header line
func WriteTrialsCSV(w io.Writer, output models.SimulationOutput) error {
	rows := Rows(output)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to marshal trial rows: %w", err)
	}
	return nil
}

// WriteSummaryJSON writes the summary record as indented JSON
func WriteSummaryJSON(w io.Writer, summary models.SummaryStatistics) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return nil
}

// ExportTrialsCSV writes the per-trial table to outputPath
func ExportTrialsCSV(output models.SimulationOutput, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return WriteTrialsCSV(w, output)
	})
}

// ExportSummaryJSON writes the summary record to outputPath
func ExportSummaryJSON(summary models.SummaryStatistics, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return WriteSummaryJSON(w, summary)
	})
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	if outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
