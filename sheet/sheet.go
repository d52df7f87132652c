// Copyright 2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvreports/data"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// SymbolColumn is the header of the column holding ticker symbols
const SymbolColumn = "Stock Symbol"

// byteOrderMark prefixes "CSV UTF-8" exports
const byteOrderMark = "\ufeff"

var (
	ErrUnsupportedFormat   = errors.New("unsupported input format")
	ErrMissingSymbolColumn = errors.New("missing '" + SymbolColumn + "' column")
	ErrEmptySheet          = errors.New("input has no header row")
)

// Table is the parsed input: the year columns present in the header and one
// ReportRow per symbol row
type Table struct {
	Years []int
	Rows  []*data.ReportRow
}

// Load reads the report table from an .xlsx or .csv file
func Load(fn string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".xlsx", ".xlsm":
		return loadExcel(fn)
	case ".csv":
		return loadCSV(fn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(fn))
	}
}

func loadCSV(fn string) (*Table, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	rows, err := newCSVReader(fh).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", fn, err)
	}

	return FromRows(rows)
}

// newCSVReader is gocsv's lazy reader with the field count check turned off;
// trailing empty cells are often dropped by spreadsheet exports
func newCSVReader(in io.Reader) gocsv.CSVReader {
	reader := gocsv.LazyCSVReader(in)
	if csvReader, ok := reader.(*csv.Reader); ok {
		csvReader.FieldsPerRecord = -1
	}
	return reader
}

func loadExcel(fn string) (*Table, error) {
	workbook, err := excelize.OpenFile(fn)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", fn, err)
	}
	defer func() {
		if err := workbook.Close(); err != nil {
			log.Error().Err(err).Str("FileName", fn).Msg("could not close workbook")
		}
	}()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return FromRows(rows)
}

// FromRows converts a header row followed by data rows into a Table
func FromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	header := make([]string, len(rows[0]))
	copy(header, rows[0])
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], byteOrderMark)
	}

	if !contains(header, SymbolColumn) {
		return nil, ErrMissingSymbolColumn
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for idx, column := range header {
			if idx < len(row) {
				record[strings.TrimSpace(column)] = row[idx]
			}
		}
		records = append(records, record)
	}

	return fromRecords(records, header), nil
}

func fromRecords(records []map[string]string, header []string) *Table {
	years := make([]int, 0, len(header))
	yearColumns := make(map[int]string, len(header))
	for _, column := range header {
		year, err := strconv.Atoi(strings.TrimSpace(column))
		if err != nil {
			continue
		}
		if _, ok := yearColumns[year]; !ok {
			years = append(years, year)
		}
		yearColumns[year] = strings.TrimSpace(column)
	}
	sort.Ints(years)

	table := &Table{
		Years: years,
		Rows:  make([]*data.ReportRow, 0, len(records)),
	}

	for idx, record := range records {
		symbol := strings.TrimSpace(record[SymbolColumn])
		if symbol == "" {
			log.Warn().Int("Row", idx+2).Msg("skipping row without a stock symbol")
			continue
		}

		row := &data.ReportRow{
			Symbol: symbol,
			URLs:   make(map[int]string, len(years)),
		}

		for year, column := range yearColumns {
			if u := strings.TrimSpace(record[column]); u != "" {
				row.URLs[year] = u
			}
		}

		table.Rows = append(table.Rows, row)
	}

	return table
}

func contains(header []string, column string) bool {
	for _, h := range header {
		if strings.TrimSpace(h) == column {
			return true
		}
	}
	return false
}
