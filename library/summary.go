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
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pvreports/data"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// YearReports lists which quarters have a report on disk for a single year
type YearReports struct {
	Year     int
	Quarters []string
}

// SymbolReports is the inventory of a single symbol directory
type SymbolReports struct {
	Symbol string
	Years  []*YearReports
}

// NumReports is the number of report files saved for the symbol
func (symbolReports *SymbolReports) NumReports() int {
	cnt := 0
	for _, year := range symbolReports.Years {
		cnt += len(year.Quarters)
	}
	return cnt
}

// Inventory walks the library and returns the reports found on disk along
// with the most recent modification time of any report
func (myLibrary *Library) Inventory() ([]*SymbolReports, time.Time, error) {
	var lastUpdated time.Time

	symbolEntries, err := os.ReadDir(myLibrary.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*SymbolReports{}, lastUpdated, nil
		}
		return nil, lastUpdated, err
	}

	inventory := make([]*SymbolReports, 0, len(symbolEntries))
	for _, symbolEntry := range symbolEntries {
		if !symbolEntry.IsDir() {
			continue
		}

		symbolReports := &SymbolReports{Symbol: symbolEntry.Name()}
		yearEntries, err := os.ReadDir(filepath.Join(myLibrary.Root, symbolEntry.Name()))
		if err != nil {
			return nil, lastUpdated, err
		}

		for _, yearEntry := range yearEntries {
			year, err := strconv.Atoi(yearEntry.Name())
			if err != nil || !yearEntry.IsDir() {
				continue
			}

			yearReports := &YearReports{Year: year, Quarters: make([]string, 0, len(data.Quarters))}
			quarterEntries, err := os.ReadDir(filepath.Join(myLibrary.Root, symbolEntry.Name(), yearEntry.Name()))
			if err != nil {
				return nil, lastUpdated, err
			}

			for _, quarterEntry := range quarterEntries {
				if !quarterEntry.IsDir() {
					continue
				}

				info, err := os.Stat(myLibrary.ReportPath(symbolReports.Symbol, year, quarterEntry.Name()))
				if err != nil {
					continue
				}

				if info.ModTime().After(lastUpdated) {
					lastUpdated = info.ModTime()
				}

				yearReports.Quarters = append(yearReports.Quarters, quarterEntry.Name())
			}

			sort.Strings(yearReports.Quarters)
			symbolReports.Years = append(symbolReports.Years, yearReports)
		}

		sort.Slice(symbolReports.Years, func(i, j int) bool {
			return symbolReports.Years[i].Year < symbolReports.Years[j].Year
		})

		inventory = append(inventory, symbolReports)
	}

	sort.Slice(inventory, func(i, j int) bool {
		return inventory[i].Symbol < inventory[j].Symbol
	})

	return inventory, lastUpdated, nil
}

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary() (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	inventory, lastUpdated, err := myLibrary.Inventory()
	if err != nil {
		return "", err
	}

	totalReports := 0
	for _, symbolReports := range inventory {
		totalReports += symbolReports.NumReports()
	}

	builder.WriteString(fmt.Sprintf("# %s\n", myLibrary.Root))
	builder.WriteString("## Details\n\n")
	builder.WriteString(p.Sprintf("  * Companies: %d\n", len(inventory)))
	builder.WriteString(p.Sprintf("  * Reports: %d\n\n", totalReports))

	if lastUpdated.IsZero() {
		builder.WriteString("Last Updated: Never\n\n")
	} else {
		age := timeago.English.Format(lastUpdated)
		builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, lastUpdated.Local().Format("01/02/2006")))
	}

	builder.WriteString("## Companies\n\n")
	for _, symbolReports := range inventory {
		builder.WriteString(p.Sprintf("  * %s (%d reports)\n", symbolReports.Symbol, symbolReports.NumReports()))
		for _, year := range symbolReports.Years {
			quarters := "none"
			if len(year.Quarters) > 0 {
				quarters = strings.Join(year.Quarters, ", ")
			}
			builder.WriteString(fmt.Sprintf("    * %d: %s\n", year.Year, quarters))
		}
	}

	return builder.String(), nil
}
