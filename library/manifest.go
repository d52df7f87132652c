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
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvreports/data"
	"github.com/rs/zerolog/log"
)

const ManifestFilename = "manifest.csv"

// WriteManifest saves the outcomes of a run as csv in the library root and
// returns the path of the file written
func (myLibrary *Library) WriteManifest(outcomes []*data.Outcome) (string, error) {
	fn := filepath.Join(myLibrary.Root, ManifestFilename)

	fh, err := os.Create(fn)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	if err := gocsv.MarshalFile(&outcomes, fh); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not write manifest")
		return "", err
	}

	log.Info().Str("FileName", fn).Int("NumOutcomes", len(outcomes)).Msg("wrote manifest")

	return fn, nil
}
