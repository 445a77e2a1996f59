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

package ooicarbonutil

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lnashier/viper"
)

func TestGetStringMapString(t *testing.T) {
	want := map[string]string{"delta_pco2": "pCO2_water - pCO2_air"}

	cfg := viper.New()
	cfg.Set("OutputVariables", want)
	if have := GetStringMapString("OutputVariables", cfg); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}

	// As set from a command-line argument.
	cfg.Set("OutputVariables", `{"delta_pco2": "pCO2_water - pCO2_air"}`)
	if have := GetStringMapString("OutputVariables", cfg); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("expected error for empty output file")
	}
	if _, err := checkOutputFile(filepath.Join("no", "such", "dir", "out.nc")); err == nil {
		t.Error("expected error for missing output directory")
	}
	f := filepath.Join(t.TempDir(), "out.nc")
	have, err := checkOutputFile(f)
	if err != nil {
		t.Fatal(err)
	}
	if have != f {
		t.Errorf("have %s, want %s", have, f)
	}
}

func TestExpandStringSlice(t *testing.T) {
	os.Setenv("OOICARBON_TEST_DIR", "/data")
	defer os.Unsetenv("OOICARBON_TEST_DIR")
	have := expandStringSlice([]string{"${OOICARBON_TEST_DIR}/chunk.nc"})
	if want := []string{"/data/chunk.nc"}; !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestStreamFilterConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("StreamFilter.ExcludeSubstrings", []string{"blank"})
	cfg.Set("StreamFilter.MinDataLevel", 1)
	f := streamFilter(cfg)
	if f.KeepStream("pco2w_abc_instrument_blank") {
		t.Error("excluded stream kept")
	}
	if !f.KeepStream("pco2w_abc_instrument") {
		t.Error("science stream dropped")
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "ooicarbon v"; !bytes.Contains(buf.Bytes(), []byte(want)) {
		t.Errorf("have %q, want prefix %q", buf.String(), want)
	}
}
