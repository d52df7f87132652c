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
	"os"
	"strings"
	"time"

	"github.com/penny-vault/pvreports/library"
	"github.com/penny-vault/pvreports/summarize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvreports",
	Short: "pvreports collects quarterly financial reports for a list of companies",
	Long: `pvreports is a command line utility for building a library of quarterly
financial reports. It reads a spreadsheet listing, for every company, the web
page where each year's reports are published, finds the links to the
quarterly PDFs on those pages and saves them into a directory tree:

	<output_dir>/<symbol>/<year>/<quarter>/report.pdf

When a Google API key is configured the results of each run are summarized
by a Gemini model.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvreports.toml)")
	rootCmd.PersistentFlags().String("output", library.DefaultRoot, "directory the report library is written to")
	if err := viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for output failed")
	}

	viper.SetDefault("output_dir", library.DefaultRoot)
	viper.SetDefault("years.start", 2019)
	viper.SetDefault("years.end", 2023)
	viper.SetDefault("ai.model", summarize.DefaultModel)
	viper.SetDefault("http.timeout", 60*time.Second)
	viper.SetDefault("http.user_agent", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvreports" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvreports")
	}

	// ai.model is read from AI_MODEL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
