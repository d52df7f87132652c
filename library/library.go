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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/penny-vault/pvreports/data"
	"github.com/rs/zerolog/log"
)

const DefaultRoot = "./qReports"

var (
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// ProvisionError is returned when the directory tree for a symbol could not
// be created
type ProvisionError struct {
	Symbol string
	Path   string
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision %s (%s): %v", e.Symbol, e.Path, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Library is the on-disk tree of downloaded reports, laid out as
// root/symbol/year/quarter/report.pdf
type Library struct {
	Root string
}

func New(root string) *Library {
	if root == "" {
		root = DefaultRoot
	}

	return &Library{
		Root: root,
	}
}

// EnsureRoot creates the root directory if it does not exist
func (myLibrary *Library) EnsureRoot() error {
	if err := os.MkdirAll(myLibrary.Root, 0755); err != nil {
		return &ProvisionError{Path: myLibrary.Root, Err: err}
	}

	return nil
}

// EnsureSymbol creates every symbol/year/quarter directory for symbol. Existing
// directories are left alone. The first failure stops provisioning for the
// symbol.
func (myLibrary *Library) EnsureSymbol(symbol string, years []int, quarters []string) error {
	if err := ValidateSymbol(symbol); err != nil {
		return &ProvisionError{Symbol: symbol, Err: err}
	}

	for _, year := range years {
		for _, quarter := range quarters {
			dir := myLibrary.QuarterDir(symbol, year, quarter)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return &ProvisionError{Symbol: symbol, Path: dir, Err: err}
			}
		}
	}

	log.Debug().Str("Symbol", symbol).Int("NumYears", len(years)).Int("NumQuarters", len(quarters)).Msg("provisioned report directories")

	return nil
}

// EnsureTree provisions the full symbol x year x quarter cross product. A
// failing symbol does not prevent the remaining symbols from being
// provisioned; all failures are returned together.
func (myLibrary *Library) EnsureTree(symbols []string, years []int, quarters []string) error {
	if err := myLibrary.EnsureRoot(); err != nil {
		return err
	}

	var errs []error
	for _, symbol := range symbols {
		if err := myLibrary.EnsureSymbol(symbol, years, quarters); err != nil {
			log.Error().Err(err).Str("Symbol", symbol).Msg("could not create report directories")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (myLibrary *Library) QuarterDir(symbol string, year int, quarter string) string {
	return filepath.Join(myLibrary.Root, symbol, strconv.Itoa(year), quarter)
}

// ReportPath returns the location a report for symbol, year and quarter is saved to
func (myLibrary *Library) ReportPath(symbol string, year int, quarter string) string {
	return filepath.Join(myLibrary.QuarterDir(symbol, year, quarter), data.ReportFilename)
}

// ValidateSymbol rejects symbols that cannot be used as a single directory name
func ValidateSymbol(symbol string) error {
	switch {
	case strings.TrimSpace(symbol) == "":
		return fmt.Errorf("%w: symbol is empty", ErrInvalidSymbol)
	case symbol == "." || symbol == "..":
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	case strings.ContainsAny(symbol, `/\`) || strings.ContainsRune(symbol, os.PathSeparator):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidSymbol, symbol)
	case strings.ContainsRune(symbol, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidSymbol, symbol)
	}

	return nil
}
