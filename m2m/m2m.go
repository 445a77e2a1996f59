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

// Package m2m reads instrument metadata from the OOI machine-to-machine
// (M2M) web services: deployment events, stream catalogs, stream
// parameters, and operator annotations.
package m2m

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/ctessum/requestcache"

	"github.com/oceandata/ooicarbon"
)

// DefaultBaseURL is the production M2M service root.
const DefaultBaseURL = "https://ooinet.oceanobservatories.org/api/m2m"

// Service route prefixes under the M2M root.
const (
	deploymentAPI = "/12587/events/deployment/inv"
	sensorAPI     = "/12576/sensor/inv"
	streamAPI     = "/12575/stream/byname"
	annotationAPI = "/12580/anno/find"
)

// Client queries the OOI M2M metadata services. Responses are cached in
// memory and identical in-flight requests are deduplicated, so the
// catalog walks the command-line tools perform do not hammer the
// service. Requests that fail are retried with exponential backoff,
// except for client errors, which fail immediately.
type Client struct {
	// BaseURL is the service root; if empty, DefaultBaseURL is used.
	BaseURL string

	// Login and Key are the API credentials, sent as HTTP basic
	// authentication with each request. They are supplied by the caller;
	// this package does not store or persist them.
	Login, Key string

	// HTTPClient is the client requests are sent with; if nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// CacheSize specifies the number of responses to be held in the
	// memory cache. The default is 100. CacheSize can only be changed
	// before the Client sends its first request.
	CacheSize int

	cache     *requestcache.Cache
	cacheInit sync.Once
}

// get returns the body of the M2M resource at path, from cache when
// possible.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	c.cacheInit.Do(func() {
		size := c.CacheSize
		if size == 0 {
			size = 100
		}
		c.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return c.fetch(ctx, request.(string))
		}, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(size))
	})
	req := c.cache.NewRequest(ctx, path, path)
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// fetch performs one GET against the service, retrying transient
// failures. A 4xx status is not retried.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	err := backoff.RetryNotify(
		func() error {
			base := c.BaseURL
			if base == "" {
				base = DefaultBaseURL
			}
			req, err := http.NewRequest(http.MethodGet, base+path, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			req = req.WithContext(ctx)
			if c.Login != "" {
				req.SetBasicAuth(c.Login, c.Key)
			}
			client := c.HTTPClient
			if client == nil {
				client = http.DefaultClient
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("%s returned status %s", path, resp.Status)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return backoff.Permanent(err)
				}
				return err
			}
			return nil
		},
		backoff.WithContext(backoff.NewExponentialBackOff(), ctx),
		func(err error, d time.Duration) {
			log.Printf("m2m: %v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// msTime converts a millisecond epoch timestamp, the encoding the M2M
// services use, to a time.
func msTime(ms int64) time.Time {
	return time.Unix(ms/1000, ms%1000*int64(time.Millisecond)).UTC()
}

// Deployments returns the instrument's deployment events, ordered by
// deployment number. A deployment with no recorded stop time is still in
// the water and gets a zero End.
func (c *Client) Deployments(ctx context.Context, r ooicarbon.RefDes) ([]ooicarbon.Deployment, error) {
	site, node, sensor, err := r.Parts()
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, fmt.Sprintf("%s/%s/%s/%s/-1", deploymentAPI, site, node, sensor))
	if err != nil {
		return nil, fmt.Errorf("m2m: listing deployments for %s: %v", r, err)
	}
	var records []struct {
		DeploymentNumber int    `json:"deploymentNumber"`
		EventStartTime   *int64 `json:"eventStartTime"`
		EventStopTime    *int64 `json:"eventStopTime"`
	}
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("m2m: parsing deployments for %s: %v", r, err)
	}
	deployments := make([]ooicarbon.Deployment, len(records))
	for i, rec := range records {
		d := ooicarbon.Deployment{Number: rec.DeploymentNumber}
		if rec.EventStartTime != nil {
			d.Start = msTime(*rec.EventStartTime)
		}
		if rec.EventStopTime != nil {
			d.End = msTime(*rec.EventStopTime)
		}
		deployments[i] = d
	}
	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].Number < deployments[j].Number
	})
	return deployments, nil
}

// Streams returns every (delivery method, stream) pair the instrument
// reports data under, in the service's order.
func (c *Client) Streams(ctx context.Context, r ooicarbon.RefDes) ([]ooicarbon.Stream, error) {
	site, node, sensor, err := r.Parts()
	if err != nil {
		return nil, err
	}
	base := fmt.Sprintf("%s/%s/%s/%s", sensorAPI, site, node, sensor)
	body, err := c.get(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("m2m: listing methods for %s: %v", r, err)
	}
	var methods []string
	if err := json.Unmarshal(body, &methods); err != nil {
		return nil, fmt.Errorf("m2m: parsing methods for %s: %v", r, err)
	}
	var streams []ooicarbon.Stream
	for _, m := range methods {
		body, err := c.get(ctx, base+"/"+m)
		if err != nil {
			return nil, fmt.Errorf("m2m: listing %s streams for %s: %v", m, r, err)
		}
		var names []string
		if err := json.Unmarshal(body, &names); err != nil {
			return nil, fmt.Errorf("m2m: parsing %s streams for %s: %v", m, r, err)
		}
		for _, n := range names {
			streams = append(streams, ooicarbon.Stream{Method: m, Name: n})
		}
	}
	return streams, nil
}

// Parameters returns the parameters of the named stream with their units
// and data levels. Parameters with no declared data level get level 0.
func (c *Client) Parameters(ctx context.Context, stream string) ([]ooicarbon.Parameter, error) {
	body, err := c.get(ctx, streamAPI+"/"+stream)
	if err != nil {
		return nil, fmt.Errorf("m2m: describing stream %s: %v", stream, err)
	}
	var record struct {
		Parameters []struct {
			Name string `json:"name"`
			Unit struct {
				Value string `json:"value"`
			} `json:"unit"`
			DataLevel *int `json:"data_level"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("m2m: parsing stream %s: %v", stream, err)
	}
	params := make([]ooicarbon.Parameter, len(record.Parameters))
	for i, rec := range record.Parameters {
		p := ooicarbon.Parameter{Name: rec.Name, Units: rec.Unit.Value}
		if rec.DataLevel != nil {
			p.DataLevel = *rec.DataLevel
		}
		params[i] = p
	}
	return params, nil
}

// Annotations returns the operator annotations attached to the
// instrument. An annotation with no recorded end time gets a zero
// Span.End.
func (c *Client) Annotations(ctx context.Context, r ooicarbon.RefDes) ([]ooicarbon.Annotation, error) {
	q := url.Values{}
	q.Set("refdes", string(r))
	body, err := c.get(ctx, annotationAPI+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("m2m: listing annotations for %s: %v", r, err)
	}
	var records []struct {
		BeginDT    *int64 `json:"beginDT"`
		EndDT      *int64 `json:"endDT"`
		Source     string `json:"source"`
		Annotation string `json:"annotation"`
	}
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("m2m: parsing annotations for %s: %v", r, err)
	}
	annotations := make([]ooicarbon.Annotation, len(records))
	for i, rec := range records {
		a := ooicarbon.Annotation{
			RefDes:  r,
			Source:  rec.Source,
			Comment: rec.Annotation,
		}
		if rec.BeginDT != nil {
			a.Span.Start = msTime(*rec.BeginDT)
		}
		if rec.EndDT != nil {
			a.Span.End = msTime(*rec.EndDT)
		}
		annotations[i] = a
	}
	return annotations, nil
}
