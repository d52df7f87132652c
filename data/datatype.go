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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunSummary describes a completed (or interrupted) batch run. Companies,
// Years and Quarters describe the configured scope of the run; the remaining
// counters describe what actually happened.
type RunSummary struct {
	RunID     uuid.UUID `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Companies int `json:"companies"`
	Years     int `json:"years"`
	Quarters  int `json:"quarters"`

	Attempted       int `json:"attempted"`
	Downloaded      int `json:"downloaded"`
	Failed          int `json:"failed"`
	Skipped         int `json:"skipped"`
	DiscoveryErrors int `json:"discovery_errors"`

	Outcomes []*Outcome `json:"outcomes"`
}

func NewRunSummary() *RunSummary {
	return &RunSummary{
		RunID:     uuid.New(),
		StartTime: time.Now(),
		Outcomes:  make([]*Outcome, 0),
	}
}

// Add records outcomes and updates the attempt counters
func (summary *RunSummary) Add(outcomes ...*Outcome) {
	for _, outcome := range outcomes {
		summary.Attempted++
		switch outcome.Status {
		case Downloaded:
			summary.Downloaded++
		case Failed:
			summary.Failed++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
}

// FailedOutcomes returns the outcomes that did not produce a file
func (summary *RunSummary) FailedOutcomes() []*Outcome {
	failed := make([]*Outcome, 0, summary.Failed)
	for _, outcome := range summary.Outcomes {
		if outcome.Status == Failed {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Message is the scope based notice shown to the user at the end of a run
func (summary *RunSummary) Message() string {
	return fmt.Sprintf("%d companies, %d years, %d quarterly reports collected and placed in the dataset.",
		summary.Companies, summary.Years, summary.Quarters)
}

func (summary *RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", summary.RunID.String())
	e.Int("Companies", summary.Companies)
	e.Int("Years", summary.Years)
	e.Int("Quarters", summary.Quarters)
	e.Int("Attempted", summary.Attempted)
	e.Int("Downloaded", summary.Downloaded)
	e.Int("Failed", summary.Failed)
	e.Int("Skipped", summary.Skipped)
	e.Int("DiscoveryErrors", summary.DiscoveryErrors)
}
