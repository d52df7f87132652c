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
package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvreports/library"
	"github.com/penny-vault/pvreports/summarize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ErrInvalidYear = errors.New("year must be a whole number")

type yearsConfig struct {
	Start int `toml:"start"`
	End   int `toml:"end"`
}

type aiConfig struct {
	Model string `toml:"model"`
}

type fileConfig struct {
	OutputDir    string      `toml:"output_dir"`
	GoogleAPIKey string      `toml:"google_api_key,omitempty"`
	Years        yearsConfig `toml:"years"`
	AI           aiConfig    `toml:"ai"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather settings and write the configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			startYear = "2019"
			endYear   = "2023"
		)

		config := fileConfig{
			OutputDir: library.DefaultRoot,
			AI:        aiConfig{Model: summarize.DefaultModel},
		}

		form := huh.NewForm(
			// Where reports are saved and which years to collect
			huh.NewGroup(
				huh.NewInput().
					Title("Where should reports be saved?").
					Value(&config.OutputDir),

				huh.NewInput().
					Title("First year to download:").
					Value(&startYear).
					Validate(validateYear),

				huh.NewInput().
					Title("Last year to download:").
					Value(&endYear).
					Validate(validateYear),
			),

			// Gemini settings used for the run summary
			huh.NewGroup(
				huh.NewInput().
					Title("Google API key (leave blank to skip AI summaries):").
					Password(true).
					Value(&config.GoogleAPIKey),

				huh.NewInput().
					Title("Gemini model:").
					Value(&config.AI.Model),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		config.Years.Start, _ = strconv.Atoi(startYear)
		config.Years.End, _ = strconv.Atoi(endYear)

		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvreports.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving settings to config file")
		configData, err := toml.Marshal(config)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("pvreports has been configured")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func validateYear(val string) error {
	if _, err := strconv.Atoi(val); err != nil {
		return ErrInvalidYear
	}
	return nil
}
