/*
Copyright © 2025 the ooicarbon authors.
This file is part of ooicarbon.

ooicarbon is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ooicarbon is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ooicarbon.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package erddap requests instrument data files from an ERDDAP tabledap
// service, such as the OOI "Data Explorer". It builds request URLs and
// stages the responses as local NetCDF files; it does not interpret
// them.
package erddap

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/oceandata/ooicarbon"
)

// queryTimeFormat is the timestamp encoding tabledap constraints use.
const queryTimeFormat = "2006-01-02T15:04:05Z"

// Client requests data from one ERDDAP server.
type Client struct {
	// BaseURL is the server root, for example
	// "https://erddap.dataexplorer.oceanobservatories.org/erddap".
	BaseURL string

	// HTTPClient is the client requests are sent with; if nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client
}

// Query describes one tabledap request.
type Query struct {
	// DatasetID identifies the dataset on the server, for example
	// "ooi-ce01issm-rid16-05-pco2wb000".
	DatasetID string

	// Variables are the variables to request; if empty, the server
	// returns all of them.
	Variables []string

	// Span restricts the request to samples within the given time
	// interval. A zero Span.End leaves the request unbounded on the
	// right.
	Span ooicarbon.Interval
}

// URL returns the tabledap request URL for q, asking for a NetCDF
// response.
func (c *Client) URL(q Query) (string, error) {
	if q.DatasetID == "" {
		return "", fmt.Errorf("erddap: query has no dataset id")
	}
	var parts []string
	if len(q.Variables) > 0 {
		parts = append(parts, strings.Join(q.Variables, ","))
	}
	if !q.Span.Start.IsZero() {
		parts = append(parts, fmt.Sprintf("time>=%s", q.Span.Start.UTC().Format(queryTimeFormat)))
	}
	if !q.Span.End.IsZero() {
		parts = append(parts, fmt.Sprintf("time<%s", q.Span.End.UTC().Format(queryTimeFormat)))
	}
	u := fmt.Sprintf("%s/tabledap/%s.nc", c.BaseURL, q.DatasetID)
	if len(parts) > 0 {
		// tabledap separates constraints with literal ampersands;
		// comparison operators within each constraint must be
		// percent-encoded.
		for i, p := range parts {
			parts[i] = url.PathEscape(p)
		}
		u += "?" + strings.Join(parts, "&")
	}
	return u, nil
}

// Download requests q and writes the response to filename, retrying
// transient failures. The response is written atomically: the file
// appears only once the download has completed.
func (c *Client) Download(q Query, filename string) error {
	u, err := c.URL(q)
	if err != nil {
		return err
	}
	var body []byte
	err = backoff.RetryNotify(
		func() error {
			client := c.HTTPClient
			if client == nil {
				client = http.DefaultClient
			}
			resp, err := client.Get(u)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("%s returned status %s", q.DatasetID, resp.Status)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return backoff.Permanent(err)
				}
				return err
			}
			body, err = io.ReadAll(resp.Body)
			return err
		},
		backoff.NewExponentialBackOff(),
		func(err error, d time.Duration) {
			log.Printf("erddap: %v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return fmt.Errorf("erddap: downloading %s: %v", q.DatasetID, err)
	}
	tmp := filename + ".download"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return fmt.Errorf("erddap: staging %s: %v", q.DatasetID, err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return fmt.Errorf("erddap: staging %s: %v", q.DatasetID, err)
	}
	return nil
}
