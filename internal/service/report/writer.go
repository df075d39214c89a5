// internal/service/report/writer.go

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// WriteText prints the rendered report
func WriteText(w io.Writer, res *Result) error {
	for _, s := range res.Sections {
		for _, l := range s.Lines {
			if _, err := fmt.Fprintln(w, l); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
	}
	return nil
}

// WriteJSON encodes the structured result on one line
func WriteJSON(w io.Writer, res *Result) error {
	if err := json.NewEncoder(w).Encode(res); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// ExportText returns the flat-text export: escape codes and non-ASCII characters removed
func ExportText(res *Result) string {
	var sb strings.Builder
	for _, s := range res.Sections {
		lines := s.Export
		if lines == nil {
			lines = s.Lines
		}
		for _, l := range lines {
			sb.WriteString(l)
			sb.WriteByte('\n')
		}
	}
	return ASCII(ansi.Strip(sb.String()))
}

// ASCII drops every non-ASCII rune
func ASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x80 {
			return -1
		}
		return r
	}, s)
}

// Export writes the report to path, as JSON when asJSON is set
func Export(path string, res *Result, asJSON bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if asJSON {
		if err := WriteJSON(f, res); err != nil {
			return err
		}
	} else if _, err := io.WriteString(f, ExportText(res)); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	return f.Close()
}
