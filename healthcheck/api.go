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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const DefaultPingURL = "https://hc-ping.com"

var (
	ErrStatus       = errors.New("status code is invalid")
	ErrUnknownState = errors.New("unknown check state")
)

type State string

const (
	Start   State = "start"
	Success State = "success"
	Fail    State = "fail"
)

// Monitor reports the lifecycle of a run to a healthchecks.io check
type Monitor struct {
	Client  *resty.Client
	BaseURL string
	CheckID string
}

func New(client *resty.Client, baseURL, checkID string) *Monitor {
	if client == nil {
		client = resty.New()
	}

	if baseURL == "" {
		baseURL = DefaultPingURL
	}

	return &Monitor{
		Client:  client,
		BaseURL: strings.TrimRight(baseURL, "/"),
		CheckID: checkID,
	}
}

// Ping signals state for the configured check. A body, when given, is
// attached to the ping and shown in the check's log.
func (monitor *Monitor) Ping(ctx context.Context, state State, body string) error {
	var endpoint string
	switch state {
	case Start:
		endpoint = fmt.Sprintf("%s/%s/start", monitor.BaseURL, monitor.CheckID)
	case Success:
		endpoint = fmt.Sprintf("%s/%s", monitor.BaseURL, monitor.CheckID)
	case Fail:
		endpoint = fmt.Sprintf("%s/%s/fail", monitor.BaseURL, monitor.CheckID)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownState, state)
	}

	resp, err := monitor.Client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(endpoint)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
