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
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// PageSource retrieves the html of a listing page
type PageSource interface {
	Page(ctx context.Context, pageURL string) ([]byte, error)
}

// HTTPSource fetches listing pages with a single GET request
type HTTPSource struct {
	Client *resty.Client
}

func NewHTTPSource(client *resty.Client) *HTTPSource {
	if client == nil {
		client = resty.New()
	}

	return &HTTPSource{
		Client: client,
	}
}

func (source *HTTPSource) Page(ctx context.Context, pageURL string) ([]byte, error) {
	resp, err := source.Client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get(pageURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return resp.Body(), nil
}
