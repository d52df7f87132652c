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
package batch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvreports/batch"
	"github.com/penny-vault/pvreports/data"
	"github.com/penny-vault/pvreports/fetcher"
	"github.com/penny-vault/pvreports/library"
	"github.com/penny-vault/pvreports/scraper"
)

type fakeProvisioner struct {
	calls   []string
	failFor map[string]bool
	rootErr error
}

func (provisioner *fakeProvisioner) EnsureRoot() error {
	provisioner.calls = append(provisioner.calls, "root")
	return provisioner.rootErr
}

func (provisioner *fakeProvisioner) EnsureSymbol(symbol string, years []int, quarters []string) error {
	provisioner.calls = append(provisioner.calls, symbol)
	if provisioner.failFor[symbol] {
		return errors.New("permission denied")
	}
	return nil
}

type fakeDiscoverer struct {
	calls []string
	links map[string]data.QuarterLinkSet
	errs  map[string]error
}

func (discoverer *fakeDiscoverer) Discover(ctx context.Context, baseURL string) (data.QuarterLinkSet, error) {
	discoverer.calls = append(discoverer.calls, baseURL)
	if err, ok := discoverer.errs[baseURL]; ok {
		return nil, err
	}
	return discoverer.links[baseURL], nil
}

type fakeFetcher struct {
	calls []string
}

func (f *fakeFetcher) FetchAll(ctx context.Context, symbol string, year int, links data.QuarterLinkSet) []*data.Outcome {
	f.calls = append(f.calls, fmt.Sprintf("%s/%d", symbol, year))
	outcomes := make([]*data.Outcome, 0, len(links))
	for _, quarter := range links.Quarters() {
		outcomes = append(outcomes, &data.Outcome{Symbol: symbol, Year: year, Quarter: quarter, URL: links[quarter], Status: data.Downloaded})
	}
	return outcomes
}

func collect(events chan *data.Event) []*data.Event {
	close(events)
	result := make([]*data.Event, 0, len(events))
	for event := range events {
		result = append(result, event)
	}
	return result
}

func ofKind(events []*data.Event, kind data.EventKind) []*data.Event {
	result := make([]*data.Event, 0)
	for _, event := range events {
		if event.Kind == kind {
			result = append(result, event)
		}
	}
	return result
}

var _ = Describe("Orchestrator", func() {
	var (
		ctx          context.Context
		provisioner  *fakeProvisioner
		discoverer   *fakeDiscoverer
		myFetcher    *fakeFetcher
		events       chan *data.Event
		orchestrator *batch.Orchestrator
	)

	BeforeEach(func() {
		ctx = context.Background()
		provisioner = &fakeProvisioner{failFor: map[string]bool{}}
		discoverer = &fakeDiscoverer{
			links: map[string]data.QuarterLinkSet{
				"https://example.com/AAPL/2019.html": {"Q1": "https://example.com/AAPL/2019_Q1.pdf"},
				"https://example.com/AAPL/2020.html": {"Q1": "https://example.com/AAPL/2020_Q1.pdf", "Q2": "https://example.com/AAPL/2020_Q2.pdf"},
				"https://example.com/MSFT/2020.html": {"Q4": "https://example.com/MSFT/2020_Q4.pdf"},
			},
			errs: map[string]error{},
		}
		myFetcher = &fakeFetcher{}
		events = make(chan *data.Event, 100)
		orchestrator = batch.New(provisioner, discoverer, myFetcher)
		orchestrator.Events = events
	})

	It("returns distinct symbols in input order", func() {
		rows := []*data.ReportRow{{Symbol: "MSFT"}, {Symbol: "AAPL"}, {Symbol: "MSFT"}}
		Expect(batch.Symbols(rows)).To(Equal([]string{"MSFT", "AAPL"}))
	})

	It("provisions every symbol before any discovery", func() {
		rows := []*data.ReportRow{
			{Symbol: "AAPL", URLs: map[int]string{2020: "https://example.com/AAPL/2020.html"}},
			{Symbol: "MSFT", URLs: map[int]string{2020: "https://example.com/MSFT/2020.html"}},
		}

		summary, err := orchestrator.Run(ctx, rows, []int{2020}, data.Quarters)
		Expect(err).NotTo(HaveOccurred())
		Expect(provisioner.calls).To(Equal([]string{"root", "AAPL", "MSFT"}))
		Expect(myFetcher.calls).To(Equal([]string{"AAPL/2020", "MSFT/2020"}))
		Expect(summary.Downloaded).To(Equal(3))
		Expect(summary.Message()).To(Equal("2 companies, 1 years, 4 quarterly reports collected and placed in the dataset."))
	})

	It("skips years without a url without discovering or fetching", func() {
		rows := []*data.ReportRow{
			{Symbol: "AAPL", URLs: map[int]string{2019: "https://example.com/AAPL/2019.html", 2020: ""}},
		}

		summary, err := orchestrator.Run(ctx, rows, []int{2019, 2020, 2021}, data.Quarters)
		Expect(err).NotTo(HaveOccurred())
		Expect(discoverer.calls).To(Equal([]string{"https://example.com/AAPL/2019.html"}))
		Expect(myFetcher.calls).To(Equal([]string{"AAPL/2019"}))
		Expect(summary.Skipped).To(Equal(2))

		missing := ofKind(collect(events), data.DataMissing)
		Expect(missing).To(HaveLen(2))
		Expect(missing[0].Year).To(Equal(2020))
		Expect(missing[1].Year).To(Equal(2021))
		Expect(missing[0].String()).To(Equal("Data for year 2020 not found for company AAPL. Skipping..."))
	})

	It("continues after a discovery error", func() {
		discoverer.errs["https://example.com/AAPL/2019.html"] = errors.New("connection reset")
		rows := []*data.ReportRow{
			{Symbol: "AAPL", URLs: map[int]string{2019: "https://example.com/AAPL/2019.html", 2020: "https://example.com/AAPL/2020.html"}},
		}

		summary, err := orchestrator.Run(ctx, rows, []int{2019, 2020}, data.Quarters)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.DiscoveryErrors).To(Equal(1))
		Expect(myFetcher.calls).To(Equal([]string{"AAPL/2020"}))

		failed := ofKind(collect(events), data.DiscoverFailed)
		Expect(failed).To(HaveLen(1))
		Expect(failed[0].URL).To(Equal("https://example.com/AAPL/2019.html"))
	})

	It("does not download for symbols whose directories could not be created", func() {
		provisioner.failFor["AAPL"] = true
		rows := []*data.ReportRow{
			{Symbol: "AAPL", URLs: map[int]string{2020: "https://example.com/AAPL/2020.html"}},
			{Symbol: "MSFT", URLs: map[int]string{2020: "https://example.com/MSFT/2020.html"}},
		}

		summary, err := orchestrator.Run(ctx, rows, []int{2020}, data.Quarters)
		Expect(err).NotTo(HaveOccurred())
		Expect(myFetcher.calls).To(Equal([]string{"MSFT/2020"}))
		Expect(summary.Companies).To(Equal(2))
		Expect(ofKind(collect(events), data.ProvisionFailed)).To(HaveLen(1))
	})

	It("stops when the library root cannot be created", func() {
		provisioner.rootErr = errors.New("read-only file system")
		rows := []*data.ReportRow{{Symbol: "AAPL", URLs: map[int]string{2020: "https://example.com/AAPL/2020.html"}}}

		_, err := orchestrator.Run(ctx, rows, []int{2020}, data.Quarters)
		Expect(err).To(MatchError("read-only file system"))
		Expect(discoverer.calls).To(BeEmpty())
	})

	It("stops when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		rows := []*data.ReportRow{{Symbol: "AAPL", URLs: map[int]string{2020: "https://example.com/AAPL/2020.html"}}}
		summary, err := orchestrator.Run(cancelled, rows, []int{2020}, data.Quarters)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(summary).NotTo(BeNil())
		Expect(discoverer.calls).To(BeEmpty())
	})
})

var _ = Describe("End to end", func() {
	It("downloads the reports found on the listing pages", func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/AAPL/2020.html", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body>
<a href="/files/2020_Q1.pdf">Q1</a>
<a href="/files/2020_Q2.pdf">Q2</a>
<a href="/files/press.docx">press</a>
</body></html>`))
		})
		mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("%PDF " + r.URL.Path))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		myLibrary := library.New(filepath.Join(GinkgoT().TempDir(), "qReports"))
		reportFetcher := fetcher.New(nil, myLibrary)
		orchestrator := batch.New(myLibrary, scraper.NewDiscoverer(scraper.NewHTTPSource(nil)), reportFetcher)

		rows := []*data.ReportRow{
			{Symbol: "AAPL", URLs: map[int]string{2020: server.URL + "/AAPL/2020.html"}},
			{Symbol: "MSFT", URLs: map[int]string{2020: ""}},
		}

		summary, err := orchestrator.Run(context.Background(), rows, []int{2020}, data.Quarters)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Message()).To(Equal("2 companies, 1 years, 4 quarterly reports collected and placed in the dataset."))
		Expect(summary.Downloaded).To(Equal(2))
		Expect(summary.Skipped).To(Equal(1))

		var files []string
		err = filepath.Walk(myLibrary.Root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(ConsistOf(
			myLibrary.ReportPath("AAPL", 2020, "Q1"),
			myLibrary.ReportPath("AAPL", 2020, "Q2"),
		))

		content, err := os.ReadFile(myLibrary.ReportPath("AAPL", 2020, "Q2"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("%PDF /files/2020_Q2.pdf"))

		Expect(filepath.Join(myLibrary.Root, "MSFT", "2020", "Q4")).To(BeADirectory())
	})
})
