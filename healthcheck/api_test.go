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
package healthcheck_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-resty/resty/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvreports/healthcheck"
)

var _ = Describe("Monitor", func() {
	var (
		server *httptest.Server
		paths  []string
		bodies []string
		status int
	)

	BeforeEach(func() {
		paths = nil
		bodies = nil
		status = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			paths = append(paths, r.Method+" "+r.URL.Path)
			bodies = append(bodies, string(raw))
			w.WriteHeader(status)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	DescribeTable("posts to the endpoint for each state",
		func(state healthcheck.State, expected string) {
			monitor := healthcheck.New(resty.New(), server.URL+"/", "abc-123")
			Expect(monitor.Ping(context.Background(), state, "")).To(Succeed())
			Expect(paths).To(Equal([]string{expected}))
		},
		Entry("start", healthcheck.Start, "POST /abc-123/start"),
		Entry("success", healthcheck.Success, "POST /abc-123"),
		Entry("fail", healthcheck.Fail, "POST /abc-123/fail"),
	)

	It("sends the body", func() {
		monitor := healthcheck.New(nil, server.URL, "abc-123")
		Expect(monitor.Ping(context.Background(), healthcheck.Success, "4 reports")).To(Succeed())
		Expect(bodies).To(Equal([]string{"4 reports"}))
	})

	It("rejects unknown states", func() {
		monitor := healthcheck.New(nil, server.URL, "abc-123")
		err := monitor.Ping(context.Background(), healthcheck.State("paused"), "")
		Expect(errors.Is(err, healthcheck.ErrUnknownState)).To(BeTrue())
		Expect(paths).To(BeEmpty())
	})

	It("returns ErrStatus on a non-200 response", func() {
		status = http.StatusNotFound
		monitor := healthcheck.New(nil, server.URL, "abc-123")
		err := monitor.Ping(context.Background(), healthcheck.Start, "")
		Expect(errors.Is(err, healthcheck.ErrStatus)).To(BeTrue())
	})

	It("defaults the ping url", func() {
		monitor := healthcheck.New(nil, "", "abc-123")
		Expect(monitor.BaseURL).To(Equal(healthcheck.DefaultPingURL))
	})
})
