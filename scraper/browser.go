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
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-rod/stealth"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
)

// trackerDomains are aborted when rendering listing pages
var trackerDomains = []string{
	"googletagmanager.com",
	"google-analytics.com",
	"googlesyndication.com",
	"doubleclick.net",
	"facebook.com",
	"adsystem.com",
	"adnxs.com",
	"hotjar.com",
}

// BrowserSource renders listing pages in headless chromium so that links
// inserted by javascript are visible to the discoverer
type BrowserSource struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// StartBrowser launches playwright and chromium. If userAgent is empty the
// browser's own user agent is used with the headless marker removed.
func StartBrowser(headless bool, userAgent string) (*BrowserSource, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("launch playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	log.Info().Bool("Headless", headless).Str("BrowserVersion", browser.Version()).Msg("starting playwright")

	if userAgent == "" {
		userAgent = buildUserAgent(browser)
	}
	log.Info().Str("UserAgent", userAgent).Msg("using user-agent")

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := page.AddInitScript(playwright.Script{
		Content: playwright.String(stealth.JS),
	}); err != nil {
		log.Error().Err(err).Msg("could not load stealth mode")
	}

	blockTrackers(page)

	return &BrowserSource{
		pw:      pw,
		browser: browser,
		context: browserContext,
		page:    page,
	}, nil
}

func (source *BrowserSource) Page(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := source.page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		return nil, err
	}

	if resp != nil && (resp.Status() < 200 || resp.Status() >= 300) {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.Status())
	}

	content, err := source.page.Content()
	if err != nil {
		return nil, err
	}

	return []byte(content), nil
}

// Close shuts down the browser and the playwright driver
func (source *BrowserSource) Close() error {
	log.Info().Msg("closing browser")
	if err := source.browser.Close(); err != nil {
		log.Error().Err(err).Msg("error encountered when closing browser")
	}

	log.Info().Msg("stopping playwright")
	return source.pw.Stop()
}

func buildUserAgent(browser playwright.Browser) string {
	browserContext, err := browser.NewContext()
	if err != nil {
		log.Error().Err(err).Msg("could not create context for building user agent")
		return ""
	}
	defer browserContext.Close()

	page, err := browserContext.NewPage()
	if err != nil {
		log.Error().Err(err).Msg("could not create page for building user agent")
		return ""
	}

	userAgent, err := page.Evaluate("() => navigator.userAgent")
	if err != nil {
		log.Error().Err(err).Msg("could not read navigator.userAgent")
		return ""
	}

	ua, _ := userAgent.(string)
	return strings.Replace(ua, "Headless", "", -1)
}

func blockTrackers(page playwright.Page) {
	err := page.Route("**/*", func(route playwright.Route) {
		if isTracker(route.Request().URL()) {
			if err := route.Abort("failed"); err != nil {
				log.Error().Err(err).Msg("failed blocking route")
			}
			return
		}

		if err := route.Continue(); err != nil {
			log.Error().Err(err).Msg("failed continuing route")
		}
	})

	if err != nil {
		log.Error().Err(err).Msg("page route errored")
	}
}

// isTracker reports whether requestURL is served from one of trackerDomains
// or a subdomain of one
func isTracker(requestURL string) bool {
	u, err := url.Parse(requestURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, domain := range trackerDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}

	return false
}
