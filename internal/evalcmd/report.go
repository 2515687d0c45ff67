package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/skncr-ai/scanner/internal/eval/results"
)

func executeReport(w io.Writer, path, format string) error {
	spec, err := results.LoadYAML(path)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(w, spec)
	case "json":
		return printJSONReport(w, spec)
	case "csv":
		return printCSVReport(w, spec)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, spec *results.EvalSpec) error {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Scan Evaluation Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Provider: %s\n", spec.Config.Provider)
	fmt.Fprintf(w, "Model:    %s\n", spec.Config.Model)
	fmt.Fprintf(w, "Dataset:  %s\n", spec.Config.DatasetPath)
	fmt.Fprintf(w, "Run at:   %s\n", spec.Config.Timestamp)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records:  %d (%d failed)\n", spec.Summary.Total, spec.Summary.Failed)
	fmt.Fprintf(w, "Average:  %.2f%%\n", spec.Summary.AverageScore*100)

	fmt.Fprintln(w, "\nDetailed Results:")
	fmt.Fprintln(w, "========================================")

	for i, r := range spec.Results {
		fmt.Fprintf(w, "\n[%d] %s (%s) %s\n", i+1, r.Identifier, r.Kind, r.Image)

		if r.Error != "" {
			kind := r.FailureKind
			if kind == "" {
				kind = "Error"
			}
			fmt.Fprintf(w, "  ❌ %s: %s\n", kind, truncate(r.Error, 120))
			continue
		}

		fmt.Fprintf(w, "  Score: %.2f%%\n", r.Score*100)
		if r.VerdictMatch != nil {
			fmt.Fprintf(w, "  Verdict Match: %t\n", *r.VerdictMatch)
		}
		if len(r.MissedAvoid) > 0 {
			fmt.Fprintf(w, "  Missed Avoid: %s\n", strings.Join(r.MissedAvoid, ", "))
		}
		if len(r.MissedConcerns) > 0 {
			fmt.Fprintf(w, "  Missed Concerns: %s\n", strings.Join(r.MissedConcerns, ", "))
		}
		if len(r.ExtraConcerns) > 0 {
			fmt.Fprintf(w, "  Extra Concerns: %s\n", strings.Join(r.ExtraConcerns, ", "))
		}
	}

	return nil
}

func printJSONReport(w io.Writer, spec *results.EvalSpec) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(spec)
}

func printCSVReport(w io.Writer, spec *results.EvalSpec) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"ID", "Kind", "Image", "Score", "Verdict Match", "Missed Avoid", "Missed Concerns", "Extra Concerns", "Seconds", "Failure Kind", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range spec.Results {
		verdict := ""
		if r.VerdictMatch != nil {
			verdict = fmt.Sprintf("%t", *r.VerdictMatch)
		}
		row := []string{
			r.Identifier,
			r.Kind,
			r.Image,
			fmt.Sprintf("%.4f", r.Score),
			verdict,
			strings.Join(r.MissedAvoid, ";"),
			strings.Join(r.MissedConcerns, ";"),
			strings.Join(r.ExtraConcerns, ";"),
			fmt.Sprintf("%.2f", r.Seconds),
			r.FailureKind,
			r.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
