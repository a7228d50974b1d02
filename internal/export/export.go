// Package export renders assembled tables as XLSX or CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"jobmate/rome-service/internal/flatten"
	"jobmate/rome-service/internal/model"
)

// SheetName is the worksheet holding the table.
const SheetName = "Metier_ROME"

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// Format is a download format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "xlsx" or "csv" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return ContentTypeCSV
	}
	return ContentTypeXLSX
}

// Write renders t in format f.
func Write(w io.Writer, t *model.Table, f Format) error {
	if f == FormatCSV {
		return WriteCSV(w, t)
	}
	return WriteXLSX(w, t)
}

// WriteXLSX writes t as a single-sheet workbook with a frozen header row.
// Strings are stored as literal text, never as formulas.
func WriteXLSX(w io.Writer, t *model.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, row := range t.Rows {
		for c, col := range t.Columns {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := setCell(f, cell, v); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, cell string, v any) error {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return f.SetCellValue(SheetName, cell, v)
	}
	return f.SetCellStr(SheetName, cell, flatten.ScalarText(v))
}

// WriteCSV writes t as UTF-8 CSV with a byte-order mark so spreadsheet
// software detects the encoding.
func WriteCSV(w io.Writer, t *model.Table) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = flatten.ScalarText(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const maxSlugRunes = 40

// MetierFilename names a single-occupation download,
// e.g. "A1413_Chef_de_projet.xlsx" or "A1413_metier.csv".
func MetierFilename(code, libelle string, f Format) string {
	if f == FormatCSV {
		return code + "_metier.csv"
	}
	if strings.TrimSpace(libelle) == "" {
		libelle = "Sans libellé"
	}
	return code + "_" + Slug(libelle) + "." + string(f)
}

// BatchFilename names a batch download by its creation time.
func BatchFilename(created time.Time, f Format) string {
	return "rome_batch_" + created.UTC().Format("20060102_150405") + "." + string(f)
}

// Slug folds accents, turns spaces into underscores, keeps only
// [A-Za-z0-9_-] and truncates to 40 characters.
func Slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(folded) {
		if n == maxSlugRunes {
			break
		}
		switch {
		case r == ' ':
			r = '_'
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'):
		default:
			continue
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
