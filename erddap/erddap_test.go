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

package erddap

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oceandata/ooicarbon"
)

func TestURL(t *testing.T) {
	c := &Client{BaseURL: "https://erddap.example.org/erddap"}
	tests := []struct {
		q    Query
		want string
	}{
		{
			q:    Query{DatasetID: "ooi-ce01issm-rid16-05-pco2wb000"},
			want: "https://erddap.example.org/erddap/tabledap/ooi-ce01issm-rid16-05-pco2wb000.nc",
		},
		{
			q: Query{
				DatasetID: "ooi-ce01issm-rid16-05-pco2wb000",
				Variables: []string{"time", "pCO2_water"},
				Span: ooicarbon.Interval{
					Start: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
					End:   time.Date(2017, 2, 1, 0, 0, 0, 0, time.UTC),
				},
			},
			want: "https://erddap.example.org/erddap/tabledap/ooi-ce01issm-rid16-05-pco2wb000.nc" +
				"?time%2CpCO2_water&time%3E=2017-01-01T00:00:00Z&time%3C2017-02-01T00:00:00Z",
		},
		{
			q: Query{
				DatasetID: "ooi-ce01issm-rid16-05-pco2wb000",
				Span: ooicarbon.Interval{
					Start: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
				},
			},
			want: "https://erddap.example.org/erddap/tabledap/ooi-ce01issm-rid16-05-pco2wb000.nc" +
				"?time%3E=2017-01-01T00:00:00Z",
		},
	}
	for _, test := range tests {
		have, err := c.URL(test.q)
		if err != nil {
			t.Fatal(err)
		}
		if have != test.want {
			t.Errorf("have %s, want %s", have, test.want)
		}
	}
	if _, err := c.URL(Query{}); err == nil {
		t.Error("expected error for query without a dataset id")
	}
}

func TestDownload(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("netcdf bytes"))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	filename := filepath.Join(t.TempDir(), "chunk.nc")
	q := Query{
		DatasetID: "ooi-ce01issm-rid16-05-pco2wb000",
		Span: ooicarbon.Interval{
			Start: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	if err := c.Download(q, filename); err != nil {
		t.Fatal(err)
	}
	body, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "netcdf bytes" {
		t.Errorf("have %q, want %q", body, "netcdf bytes")
	}
	if want := "time%3E=2017-01-01T00:00:00Z"; gotQuery != want {
		t.Errorf("have query %q, want %q", gotQuery, want)
	}
}

func TestDownloadClientError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	filename := filepath.Join(t.TempDir(), "chunk.nc")
	if err := c.Download(Query{DatasetID: "nope"}, filename); err == nil {
		t.Fatal("expected error for missing dataset")
	}
	if hits != 1 {
		t.Errorf("have %d requests, want 1", hits)
	}
	if _, err := os.Stat(filename); !os.IsNotExist(err) {
		t.Error("a failed download should not leave a file behind")
	}
}
