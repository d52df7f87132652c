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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvreports/backblaze"
	"github.com/penny-vault/pvreports/batch"
	"github.com/penny-vault/pvreports/data"
	"github.com/penny-vault/pvreports/fetcher"
	"github.com/penny-vault/pvreports/healthcheck"
	"github.com/penny-vault/pvreports/library"
	"github.com/penny-vault/pvreports/pkginfo"
	"github.com/penny-vault/pvreports/scraper"
	"github.com/penny-vault/pvreports/sheet"
	"github.com/penny-vault/pvreports/summarize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	noSummary     bool
	writeManifest bool
	jsonOutput    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <input-file>",
	Short: "Download the quarterly reports listed in an input file",
	Long: `The run sub-command reads a .csv or .xlsx file with a "Stock Symbol" column and one
column per year. Each year column holds the URL of the page listing that year's quarterly
reports. Every quarterly PDF linked from those pages is saved into the report library.
Missing years, unreadable pages and failed downloads are reported but never stop the run.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return runReports(ctx, args[0])
	},
}

// closingTimeout bounds the work done after a run ends: the AI summary and
// the final healthcheck ping
const closingTimeout = 2 * time.Minute

var ErrNoYears = errors.New("no years requested")

// runReports downloads every report listed in the input file. The returned
// error is non-nil when the run could not start or did not complete.
func runReports(ctx context.Context, input string) error {
	ctx = log.Logger.WithContext(ctx)

	table, err := sheet.Load(input)
	if err != nil {
		return fmt.Errorf("read input file %s: %w", input, err)
	}

	years := yearRange(viper.GetInt("years.start"), viper.GetInt("years.end"))
	if len(years) == 0 {
		return fmt.Errorf("%w: %d to %d", ErrNoYears, viper.GetInt("years.start"), viper.GetInt("years.end"))
	}

	userAgent := viper.GetString("http.user_agent")
	client := resty.New().SetTimeout(viper.GetDuration("http.timeout"))
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	} else {
		client.SetHeader("User-Agent", pkginfo.UserAgent())
	}

	myLibrary := library.New(viper.GetString("output_dir"))

	var source scraper.PageSource = scraper.NewHTTPSource(client)
	if viper.GetBool("browser") {
		browserSource, err := scraper.StartBrowser(true, userAgent)
		if err != nil {
			return fmt.Errorf("start browser: %w", err)
		}
		defer func() {
			if err := browserSource.Close(); err != nil {
				log.Error().Err(err).Msg("could not stop playwright")
			}
		}()
		source = browserSource
	}

	reportFetcher := fetcher.New(client, myLibrary)
	if keyID := viper.GetString("backblaze.application_id"); keyID != "" {
		archiver, err := backblaze.NewArchiver(keyID, viper.GetString("backblaze.application_key"), viper.GetString("backblaze.bucket"))
		if err != nil {
			log.Error().Err(err).Str("BucketName", viper.GetString("backblaze.bucket")).Msg("backblaze archive disabled")
		} else {
			reportFetcher.Archiver = archiver
		}
	}

	var monitor *healthcheck.Monitor
	if checkID := viper.GetString("healthchecks.check_id"); checkID != "" {
		monitor = healthcheck.New(client, viper.GetString("healthchecks.ping_url"), checkID)
		if err := monitor.Ping(ctx, healthcheck.Start, ""); err != nil {
			log.Warn().Err(err).Str("CheckID", checkID).Msg("healthcheck start ping failed")
		}
	}

	events := make(chan *data.Event, 100)
	done := make(chan struct{})
	go logEvents(events, done)

	reportFetcher.Events = events
	orchestrator := batch.New(myLibrary, scraper.NewDiscoverer(source), reportFetcher)
	orchestrator.Events = events

	summary, runErr := orchestrator.Run(ctx, table.Rows, years, data.Quarters)

	close(events)
	<-done

	if runErr != nil {
		log.Error().Err(runErr).Msg("run did not complete")
	}

	runTime := summary.EndTime.Sub(summary.StartTime)
	log.Info().EmbedObject(summary).Str("RunTime", durafmt.Parse(runTime).LimitFirstN(2).String()).Msg("run finished")

	if writeManifest {
		if _, err := myLibrary.WriteManifest(summary.Outcomes); err != nil {
			log.Error().Err(err).Msg("could not write manifest")
		}
	}

	if jsonOutput {
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal run summary: %w", err)
		}
		fmt.Println(string(out))
	} else {
		printSummary(summary, runTime)
	}

	// ctx is cancelled when the run was interrupted
	closingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closingTimeout)
	defer cancel()

	if !noSummary {
		aiSummary(closingCtx, summary)
	}

	if monitor != nil {
		reportOutcome(closingCtx, monitor, runErr, summary.Message())
	}

	return runErr
}

// reportOutcome sends the closing healthcheck ping for a run
func reportOutcome(ctx context.Context, monitor *healthcheck.Monitor, runErr error, message string) {
	state := healthcheck.Success
	if runErr != nil {
		state = healthcheck.Fail
		message = fmt.Sprintf("%s\n%v", message, runErr)
	}

	if err := monitor.Ping(ctx, state, message); err != nil {
		log.Warn().Err(err).Str("CheckID", monitor.CheckID).Str("State", string(state)).Msg("healthcheck ping failed")
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("start-year", 2019, "first year to download")
	runCmd.Flags().Int("end-year", 2023, "last year to download (inclusive)")
	runCmd.Flags().Bool("browser", false, "render listing pages in a headless browser")
	runCmd.Flags().Duration("timeout", 60*time.Second, "timeout for each http request")

	for key, flag := range map[string]string{
		"years.start":  "start-year",
		"years.end":    "end-year",
		"browser":      "browser",
		"http.timeout": "timeout",
	} {
		if err := viper.BindPFlag(key, runCmd.Flags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("Flag", flag).Msg("BindPFlag failed")
		}
	}

	runCmd.Flags().BoolVar(&noSummary, "no-summary", false, "do not ask the AI model for a summary of the run")
	runCmd.Flags().BoolVar(&writeManifest, "manifest", false, "write manifest.csv describing every download to the output directory")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the run summary as JSON")
}

func yearRange(start, end int) []int {
	if end < start {
		return nil
	}

	years := make([]int, 0, end-start+1)
	for year := start; year <= end; year++ {
		years = append(years, year)
	}
	return years
}

func logEvents(events <-chan *data.Event, done chan<- struct{}) {
	defer close(done)
	for event := range events {
		if event.IsFailure() {
			log.Warn().EmbedObject(event).Msg(event.String())
		} else {
			log.Info().EmbedObject(event).Msg(event.String())
		}
	}
}

func printSummary(summary *data.RunSummary, runTime time.Duration) {
	var sb strings.Builder
	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}

	fmt.Fprintf(&sb,
		"%s\n\n%s\n\nDownloaded: %s\nFailed: %s\nSkipped years: %s\nUnreadable pages: %s\nRun time: %s",
		lipgloss.NewStyle().Bold(true).Render("RUN COMPLETE"),
		summary.Message(),
		keyword(fmt.Sprintf("%d", summary.Downloaded)),
		keyword(fmt.Sprintf("%d", summary.Failed)),
		keyword(fmt.Sprintf("%d", summary.Skipped)),
		keyword(fmt.Sprintf("%d", summary.DiscoveryErrors)),
		keyword(durafmt.Parse(runTime).LimitFirstN(2).String()),
	)

	fmt.Println(
		lipgloss.NewStyle().
			Width(60).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Render(sb.String()),
	)
}

// aiSummary asks the configured model to describe the run. Failures are
// logged and otherwise ignored.
func aiSummary(ctx context.Context, summary *data.RunSummary) {
	gemini, err := summarize.NewGemini(ctx, summarize.Config{
		APIKey: viper.GetString("google_api_key"),
		Model:  viper.GetString("ai.model"),
	})
	if err != nil {
		log.Warn().Err(err).Msg("ai summary unavailable")
		return
	}

	text, err := gemini.Summarize(ctx, summary)
	if err != nil {
		log.Error().Err(err).Msg("could not generate ai summary")
		return
	}

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	out, err := r.Render("## Summary\n\n" + text)
	if err != nil {
		log.Error().Err(err).Msg("could not render ai summary")
		fmt.Println(text)
		return
	}

	fmt.Print(out)
}
