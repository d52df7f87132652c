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
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvreports/sheet"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources <input-file>",
	Short: "Show the companies and years found in an input file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		table, err := sheet.Load(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not read input file")
		}

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(120),
		)

		out, err := r.Render(sourcesDocument(table))
		if err != nil {
			log.Fatal().Err(err).Msg("could not render sources document")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func sourcesDocument(table *sheet.Table) string {
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# Sources\n\n%d companies, %d year columns\n\n", len(table.Rows), len(table.Years)))
	if len(table.Years) == 0 {
		builder.WriteString("No year columns were found.\n")
		return builder.String()
	}

	builder.WriteString("| Symbol |")
	for _, year := range table.Years {
		builder.WriteString(fmt.Sprintf(" %d |", year))
	}
	builder.WriteString("\n|---|")
	for range table.Years {
		builder.WriteString("---|")
	}
	builder.WriteString("\n")

	for _, row := range table.Rows {
		builder.WriteString(fmt.Sprintf("| %s |", row.Symbol))
		for _, year := range table.Years {
			if _, ok := row.URL(year); ok {
				builder.WriteString(" yes |")
			} else {
				builder.WriteString(" - |")
			}
		}
		builder.WriteString("\n")
	}

	return builder.String()
}
