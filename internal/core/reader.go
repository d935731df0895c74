package core

// reader.go turns an uploaded spreadsheet into canonical rows.
//
// Both entry points share one pipeline:
//
//  1. The whole file is read into memory (a failed read is a *ReadError).
//  2. The first sheet (xlsx) or the whole document (csv) becomes a grid
//     of text cells.
//  3. The first grid row is the header; blank and duplicated labels are
//     renamed the way common spreadsheet tools do (__EMPTY, label_1, ...).
//  4. Each non-blank data row becomes a Row keyed by header label, with
//     missing cells filled by "", then mapped through MapRow.

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyWorkbook is returned when a workbook contains no sheets.
var ErrEmptyWorkbook = errors.New("workbook contains no sheets")

// ReadError reports that the input file could not be read.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "failed to read file: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseResult holds the canonical rows of an imported file.
type ParseResult struct {
	// Sheet is the name of the sheet that was read ("" for CSV input).
	Sheet string
	// Header holds the source labels after blank/duplicate renaming.
	Header []string
	// Fields holds the identifiers the header mapped to, in column order.
	Fields []string
	// Rows are the canonical rows in file order.
	Rows []Row
	// Lines holds the 1-based source line of each entry in Rows.
	Lines []int
	// Collisions lists labels that mapped to the same field.
	Collisions []Collision
}

// workbook is the subset of *excelize.File used by the reader.
type workbook interface {
	GetSheetList() []string
	GetRows(sheet string, opts ...excelize.Options) ([][]string, error)
	Close() error
}

// openWorkbook opens xlsx bytes. Replaced in tests.
var openWorkbook = func(data []byte) (workbook, error) {
	return excelize.OpenReader(bytes.NewReader(data))
}

// Parse reads a spreadsheet workbook and returns the canonical rows of its
// first sheet. The reader is consumed but never modified otherwise.
func Parse(ctx context.Context, r io.Reader) (*ParseResult, error) {
	data, err := readAll(ctx, r)
	if err != nil {
		return nil, err
	}

	wb, err := openWorkbook(data)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	return parseWorkbook(ctx, wb)
}

func parseWorkbook(ctx context.Context, wb workbook) (*ParseResult, error) {
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheet := sheets[0]

	grid, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	result, err := buildRows(ctx, grid)
	if err != nil {
		return nil, err
	}
	result.Sheet = sheet
	return result, nil
}

// ParseCSV reads a comma-separated document with a header line.
// A leading UTF-8 BOM is skipped and invalid UTF-8 is replaced.
func ParseCSV(ctx context.Context, r io.Reader) (*ParseResult, error) {
	data, err := readAll(ctx, r)
	if err != nil {
		return nil, err
	}

	text := strings.ToValidUTF8(string(bytes.TrimPrefix(data, []byte(UTF8BOM))), "\uFFFD")

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	return buildRows(ctx, grid)
}

// ParseFile picks the parser from the file name extension.
func ParseFile(ctx context.Context, name string, r io.Reader) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return ParseCSV(ctx, r)
	case ".xlsx", ".xlsm", ".xltx", ".xltm", "":
		return Parse(ctx, r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &ReadError{Err: errors.New("no file provided")}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return data, nil
}

// buildRows converts a text grid (header first) into canonical rows.
func buildRows(ctx context.Context, grid [][]string) (*ParseResult, error) {
	result := &ParseResult{Rows: []Row{}, Lines: []int{}}
	if len(grid) == 0 {
		return result, nil
	}

	width := 0
	for _, rec := range grid {
		width = max(width, len(rec))
	}

	header := headerLabels(grid[0], width)
	result.Header = header

	// Collisions depend only on the header, so compute them once.
	probe := make([]Field, len(header))
	for i, h := range header {
		probe[i] = Field{Key: h}
	}
	_, result.Collisions = MapRow(NewRow(probe...))

	result.Fields = make([]string, len(header))
	for i, h := range header {
		result.Fields[i] = MapLabel(h)
	}

	for i, rec := range grid[1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlankRecord(rec) {
			continue
		}

		b := newRowBuilder(width)
		for col, label := range header {
			value := ""
			if col < len(rec) {
				value = rec[col]
			}
			b.set(label, value)
		}

		row, _ := MapRow(b.row())
		result.Rows = append(result.Rows, row)
		result.Lines = append(result.Lines, i+2)
	}

	return result, nil
}

// headerLabels pads the header to width and renames blank and repeated
// labels: blanks become __EMPTY, __EMPTY_1, ...; repeats get _1, _2, ...
func headerLabels(raw []string, width int) []string {
	labels := make([]string, width)
	seen := make(map[string]bool, width)
	counts := make(map[string]int, width)

	for i := 0; i < width; i++ {
		base := ""
		if i < len(raw) {
			base = raw[i]
		}
		if strings.TrimSpace(base) == "" {
			base = "__EMPTY"
		}

		label := base
		for seen[label] {
			counts[base]++
			label = base + "_" + strconv.Itoa(counts[base])
		}
		seen[label] = true
		labels[i] = label
	}

	return labels
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if cell != "" {
			return false
		}
	}
	return true
}
