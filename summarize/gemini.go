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
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvreports/data"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-pro-latest"

var (
	ErrMissingAPIKey = errors.New("google api key is not configured")
	ErrEmptySummary  = errors.New("model returned an empty summary")
)

// Summarizer turns the statistics of a run into prose
type Summarizer interface {
	Summarize(ctx context.Context, summary *data.RunSummary) (string, error)
}

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini endpoint; empty uses the default
	BaseURL string
}

type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini backed Summarizer using the credentials in cfg
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}

	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

func (gemini *Gemini) Summarize(ctx context.Context, summary *data.RunSummary) (string, error) {
	logger := zerolog.Ctx(ctx)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}

	prompt := Prompt(summary)
	logger.Debug().Str("Model", gemini.model).Int("PromptLength", len(prompt)).Msg("requesting run summary")

	result, err := gemini.client.Models.GenerateContent(ctx, gemini.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptySummary
	}

	return text, nil
}

// Prompt builds the request sent to the model from the statistics of a run
func Prompt(summary *data.RunSummary) string {
	var sb strings.Builder

	sb.WriteString("Summarize the results of the stock report download process.\n\n")
	sb.WriteString(summary.Message())
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Companies: %d\n", summary.Companies)
	fmt.Fprintf(&sb, "Years: %d\n", summary.Years)
	fmt.Fprintf(&sb, "Quarters per year: %d\n", summary.Quarters)
	fmt.Fprintf(&sb, "Reports attempted: %d\n", summary.Attempted)
	fmt.Fprintf(&sb, "Reports downloaded: %d\n", summary.Downloaded)
	fmt.Fprintf(&sb, "Reports failed: %d\n", summary.Failed)
	fmt.Fprintf(&sb, "Years skipped for missing data: %d\n", summary.Skipped)
	fmt.Fprintf(&sb, "Listing pages that could not be read: %d\n", summary.DiscoveryErrors)

	if !summary.StartTime.IsZero() && !summary.EndTime.IsZero() {
		fmt.Fprintf(&sb, "Run time: %s\n", summary.EndTime.Sub(summary.StartTime).Round(time.Second))
	}

	failed := summary.FailedOutcomes()
	if len(failed) > 0 {
		sb.WriteString("\nFailed downloads:\n")
		for _, outcome := range failed {
			fmt.Fprintf(&sb, "- %s %d %s %s: %s\n", outcome.Symbol, outcome.Year, outcome.Quarter, outcome.URL, outcome.Error)
		}
	}

	return sb.String()
}
