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
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/penny-vault/pvreports/data"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Discoverer finds the quarterly report links on a listing page
type Discoverer struct {
	Source   PageSource
	Quarters []string
}

func NewDiscoverer(source PageSource) *Discoverer {
	return &Discoverer{
		Source:   source,
		Quarters: data.Quarters,
	}
}

// Discover fetches baseURL and returns the quarter -> pdf url mapping found
// on it. Only the single page is read.
func (discoverer *Discoverer) Discover(ctx context.Context, baseURL string) (data.QuarterLinkSet, error) {
	logger := zerolog.Ctx(ctx)

	body, err := discoverer.Source.Page(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing page %s: %w", baseURL, err)
	}

	links, err := ExtractLinks(bytes.NewReader(body), baseURL, discoverer.Quarters)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("URL", baseURL).Int("NumLinks", len(links)).Msg("discovered quarterly report links")

	return links, nil
}

// ExtractLinks parses an html document and returns every anchor that links to
// a quarterly pdf. Relative hrefs are resolved against baseURL. When two
// anchors map to the same quarter the later one in the document wins.
func ExtractLinks(body io.Reader, baseURL string, quarters []string) (data.QuarterLinkSet, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse listing page %s: %w", baseURL, err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		log.Warn().Err(err).Str("URL", baseURL).Msg("could not parse base url; relative links will not be resolved")
		base = nil
	}

	links := make(data.QuarterLinkSet)
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		resolved := resolve(base, href)
		if !isPDF(resolved) || !containsQuarter(href, quarters) {
			return
		}

		quarter, ok := QuarterLabel(href, quarters)
		if !ok {
			return
		}

		if previous, exists := links[quarter]; exists && previous != resolved {
			log.Warn().Str("Quarter", quarter).Str("Previous", previous).Str("URL", resolved).
				Msg("multiple reports found for quarter; keeping the last one")
		}

		links[quarter] = resolved
	})

	return links, nil
}

// QuarterLabel derives the quarter a report link belongs to. The file name
// without its extension is split on underscores and the last piece is used
// when it is one of quarters (e.g. 2023_Q1.pdf -> Q1). Otherwise the first
// quarter tag contained in the file name, or failing that the href, is used.
func QuarterLabel(href string, quarters []string) (string, bool) {
	p := href
	if u, err := url.Parse(href); err == nil {
		p = u.Path
	}

	name := path.Base(p)
	stem := strings.TrimSuffix(name, path.Ext(name))

	derived := stem
	if idx := strings.LastIndex(stem, "_"); idx >= 0 {
		derived = stem[idx+1:]
	}

	for _, quarter := range quarters {
		if derived == quarter {
			return quarter, true
		}
	}

	for _, candidate := range []string{stem, href} {
		for _, quarter := range quarters {
			if strings.Contains(candidate, quarter) {
				return quarter, true
			}
		}
	}

	return "", false
}

func containsQuarter(href string, quarters []string) bool {
	for _, quarter := range quarters {
		if strings.Contains(href, quarter) {
			return true
		}
	}
	return false
}

func isPDF(link string) bool {
	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
	}
	return strings.HasSuffix(strings.ToLower(p), ".pdf")
}

func resolve(base *url.URL, href string) string {
	if base == nil {
		return href
	}

	resolved, err := base.Parse(href)
	if err != nil {
		return href
	}

	return resolved.String()
}
