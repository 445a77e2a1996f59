/*
Copyright © 2024 the ooicarbon authors.
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

package ooicarbon

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func hourlyDataset(startHour, n int, vars map[string][]float64) *Dataset {
	origin := date(2017, 1, 1)
	d := NewDataset(make([]time.Time, n))
	for i := range d.Times {
		d.Times[i] = origin.Add(time.Duration(startHour+i) * time.Hour)
	}
	for v, vals := range vars {
		d.Data[v] = vals
	}
	return d
}

func TestCopyIsDeep(t *testing.T) {
	d := hourlyDataset(0, 2, map[string][]float64{"pCO2_water": {401, 402}})
	d.Deployments = []int{1, 1}
	d.Attrs["refDes"] = "CE01ISSM-RID16-05-PCO2WB000"
	c := d.Copy()
	if !reflect.DeepEqual(c, d) {
		t.Fatalf("have %v, want %v", c, d)
	}
	c.Data["pCO2_water"][0] = -1
	c.Deployments[0] = 9
	c.Attrs["refDes"] = "changed"
	if d.Data["pCO2_water"][0] != 401 || d.Deployments[0] != 1 || d.Attrs["refDes"] != "CE01ISSM-RID16-05-PCO2WB000" {
		t.Error("copy shares storage with the original")
	}
}

func TestSelect(t *testing.T) {
	d := hourlyDataset(0, 5, map[string][]float64{"pCO2_water": {400, 401, 402, 403, 404}})
	d.Deployments = []int{1, 1, 1, 2, 2}
	iv := Interval{
		Start: d.Times[1],
		End:   d.Times[3],
	}
	s := d.Select(iv)
	if want := []time.Time{d.Times[1], d.Times[2]}; !reflect.DeepEqual(s.Times, want) {
		t.Errorf("have %v, want %v", s.Times, want)
	}
	if want := []float64{401, 402}; !reflect.DeepEqual(s.Data["pCO2_water"], want) {
		t.Errorf("have %v, want %v", s.Data["pCO2_water"], want)
	}
	if want := []int{1, 1}; !reflect.DeepEqual(s.Deployments, want) {
		t.Errorf("have %v, want %v", s.Deployments, want)
	}
	if d.Len() != 5 {
		t.Error("select modified the receiver")
	}
}

func TestConcat(t *testing.T) {
	a := hourlyDataset(0, 2, map[string][]float64{"pCO2_water": {400, 401}})
	a.Attrs["refDes"] = "CE01ISSM-RID16-05-PCO2WB000"
	b := hourlyDataset(2, 2, map[string][]float64{
		"pCO2_water": {402, 403},
		"pCO2_air":   {700, 701},
	})
	// Out-of-order input is sorted by first timestamp.
	c, err := Concat(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 4 {
		t.Fatalf("have %d samples, want 4", c.Len())
	}
	if want := []float64{400, 401, 402, 403}; !reflect.DeepEqual(c.Data["pCO2_water"], want) {
		t.Errorf("have %v, want %v", c.Data["pCO2_water"], want)
	}
	air := c.Data["pCO2_air"]
	if !math.IsNaN(air[0]) || !math.IsNaN(air[1]) || air[2] != 700 || air[3] != 701 {
		t.Errorf("pCO2_air: have %v, want NaN fill then values", air)
	}
	if c.Attrs["refDes"] != "CE01ISSM-RID16-05-PCO2WB000" {
		t.Errorf("attrs not carried: %v", c.Attrs)
	}
}

func TestConcatOverlap(t *testing.T) {
	a := hourlyDataset(0, 3, map[string][]float64{"pCO2_water": {400, 401, 402}})
	b := hourlyDataset(2, 2, map[string][]float64{"pCO2_water": {402, 403}})
	if _, err := Concat(a, b); err == nil {
		t.Error("expected error for overlapping time ranges")
	}
}

func TestConcatSkipsEmpty(t *testing.T) {
	a := hourlyDataset(0, 2, map[string][]float64{"pCO2_water": {400, 401}})
	empty := NewDataset(nil)
	c, err := Concat(empty, a)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("have %d samples, want 2", c.Len())
	}
}

func TestVariables(t *testing.T) {
	d := hourlyDataset(0, 1, map[string][]float64{
		"pCO2_water":         {400},
		"ph_seawater":        {8.1},
		"sea_water_pressure": {2.5},
	})
	want := []string{"pCO2_water", "ph_seawater", "sea_water_pressure"}
	if !reflect.DeepEqual(d.Variables(), want) {
		t.Errorf("have %v, want %v", d.Variables(), want)
	}
}
