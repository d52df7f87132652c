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
package data

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Quarters lists the canonical fiscal-quarter labels. They are used both as
// directory names and as keys of a QuarterLinkSet.
var Quarters = []string{"Q1", "Q2", "Q3", "Q4"}

// ReportFilename is the name every downloaded report is saved under
const ReportFilename = "report.pdf"

type OutcomeStatus string

const (
	Downloaded OutcomeStatus = "downloaded"
	Failed     OutcomeStatus = "failed"
)

// ReportRow is one record of the input table: a ticker symbol and the
// listing page URL to scrape for each year
type ReportRow struct {
	Symbol string
	URLs   map[int]string
}

// URL returns the listing page for year. Blank cells are treated the same as
// a missing year column.
func (row *ReportRow) URL(year int) (string, bool) {
	if row.URLs == nil {
		return "", false
	}

	u, ok := row.URLs[year]
	if !ok {
		return "", false
	}

	u = strings.TrimSpace(u)
	return u, u != ""
}

// QuarterLinkSet maps a quarter label to the PDF url discovered for it
type QuarterLinkSet map[string]string

// Quarters returns the labels in the set in sorted order
func (links QuarterLinkSet) Quarters() []string {
	quarters := make([]string, 0, len(links))
	for k := range links {
		quarters = append(quarters, k)
	}

	sort.Strings(quarters)
	return quarters
}

// Outcome records what happened to a single report download
type Outcome struct {
	Symbol  string        `json:"symbol" csv:"symbol"`
	Year    int           `json:"year" csv:"year"`
	Quarter string        `json:"quarter" csv:"quarter"`
	URL     string        `json:"url" csv:"url"`
	Path    string        `json:"path" csv:"path"`
	Status  OutcomeStatus `json:"status" csv:"status"`
	Error   string        `json:"error,omitempty" csv:"error"`
}

func (outcome *Outcome) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", outcome.Symbol)
	e.Int("Year", outcome.Year)
	e.Str("Quarter", outcome.Quarter)
	e.Str("URL", outcome.URL)
	e.Str("Path", outcome.Path)
	e.Str("Status", string(outcome.Status))
	if outcome.Error != "" {
		e.Str("Error", outcome.Error)
	}
}
