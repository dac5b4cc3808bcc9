package common

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ReadTable loads the first sheet of an xlsx workbook, or a csv file, into a
// Table. The format is chosen by the file name's extension.
func ReadTable(reader io.Reader, filename string) (Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		return readWorkbook(reader, filename)
	case ".csv":
		return readCSV(reader, filename)
	default:
		return Table{}, fmt.Errorf("%s: %w (%q)", filename, ErrUnsupportedFormat, ext)
	}
}

// ReadTableFile opens path and calls ReadTable.
func ReadTableFile(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer file.Close()
	return ReadTable(file, filepath.Base(path))
}

func readWorkbook(reader io.Reader, filename string) (Table, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return Table{}, fmt.Errorf("%s: failed to open workbook: %w", filename, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("%s: no sheets found", filename)
	}

	// Raw values keep numbers unformatted and dates as serials.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("%s: failed to read rows: %w", filename, err)
	}

	zap.L().Debug("loaded workbook",
		zap.String("file", filename),
		zap.String("sheet", sheets[0]),
		zap.Int("rows", len(rows)))
	return Table{Name: filename, Rows: rows}, nil
}

func readCSV(reader io.Reader, filename string) (Table, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return Table{}, fmt.Errorf("%s: failed to read file: %w", filename, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	csvReader := csv.NewReader(bytes.NewReader(data))
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.Comma = sniffDelimiter(data)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%s: failed to parse csv: %w", filename, err)
	}

	zap.L().Debug("loaded csv", zap.String("file", filename), zap.Int("rows", len(rows)))
	return Table{Name: filename, Rows: rows}, nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than
// commas, which is what spreadsheet exports in an Indonesian locale produce.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
