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

	"github.com/rs/zerolog"
)

type EventKind string

const (
	ProvisionFailed EventKind = "provision-failed"
	DataMissing     EventKind = "data-missing"
	DiscoverStarted EventKind = "discover-started"
	DiscoverFailed  EventKind = "discover-failed"
	FetchStarted    EventKind = "fetch-started"
	FetchSucceeded  EventKind = "fetch-succeeded"
	FetchFailed     EventKind = "fetch-failed"
)

// Event is a progress notice emitted while a batch runs
type Event struct {
	Kind    EventKind
	Symbol  string
	Year    int
	Quarter string
	URL     string
	Err     error
}

// Emit sends event on ch; a nil channel discards the event
func Emit(ch chan<- *Event, event *Event) {
	if ch == nil {
		return
	}

	ch <- event
}

// IsFailure reports whether the event describes something that went wrong
func (event *Event) IsFailure() bool {
	switch event.Kind {
	case ProvisionFailed, DataMissing, DiscoverFailed, FetchFailed:
		return true
	default:
		return false
	}
}

// String renders the event as a human readable notice
func (event *Event) String() string {
	switch event.Kind {
	case ProvisionFailed:
		return fmt.Sprintf("Could not create directories for company %s: %v", event.Symbol, event.Err)
	case DataMissing:
		return fmt.Sprintf("Data for year %d not found for company %s. Skipping...", event.Year, event.Symbol)
	case DiscoverStarted:
		return fmt.Sprintf("Looking for quarterly reports for %d and company %s at %s", event.Year, event.Symbol, event.URL)
	case DiscoverFailed:
		return fmt.Sprintf("Failed to read listing page %s for %d and company %s: %v", event.URL, event.Year, event.Symbol, event.Err)
	case FetchStarted:
		return fmt.Sprintf("Accessing quarterly reports for %d %s and company %s...", event.Year, event.Quarter, event.Symbol)
	case FetchSucceeded:
		return "Download successful"
	case FetchFailed:
		return fmt.Sprintf("Failed to download %s: %v", event.URL, event.Err)
	default:
		return string(event.Kind)
	}
}

func (event *Event) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Kind", string(event.Kind))
	e.Str("Symbol", event.Symbol)
	if event.Year != 0 {
		e.Int("Year", event.Year)
	}
	if event.Quarter != "" {
		e.Str("Quarter", event.Quarter)
	}
	if event.URL != "" {
		e.Str("URL", event.URL)
	}
	if event.Err != nil {
		e.AnErr("Error", event.Err)
	}
}
