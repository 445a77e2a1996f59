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

// mergeTestSource builds a source whose samples fall on the given hours
// after a fixed origin, with one value per sample for each variable.
func mergeTestSource(m Method, hours []int, vars map[string][]float64) *TimeSeriesSource {
	origin := date(2017, 1, 1)
	d := NewDataset(make([]time.Time, len(hours)))
	for i, h := range hours {
		d.Times[i] = origin.Add(time.Duration(h) * time.Hour)
	}
	for v, vals := range vars {
		d.Data[v] = vals
	}
	return &TimeSeriesSource{Method: m, Data: d}
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergePriority(t *testing.T) {
	nan := math.NaN()
	// The instrument record is authoritative but has a gap at hours 3
	// and 5; the host record fills hour 3, telemetry fills hour 5.
	inst := mergeTestSource(RecoveredInst, []int{1, 2, 4},
		map[string][]float64{"pCO2_water": {401, 402, 404}})
	host := mergeTestSource(RecoveredHost, []int{1, 2, 3, 4},
		map[string][]float64{"pCO2_water": {501, 502, 503, 504}})
	tele := mergeTestSource(Telemetered, []int{1, 2, 3, 4, 5},
		map[string][]float64{"pCO2_water": {601, 602, 603, 604, 605}})

	merged, err := Merge(inst, host, tele)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Len() != 5 {
		t.Fatalf("have %d samples, want 5", merged.Len())
	}
	want := []float64{401, 402, 503, 404, 605}
	if !floatsEqual(merged.Data["pCO2_water"], want) {
		t.Errorf("have %v, want %v", merged.Data["pCO2_water"], want)
	}
	if want := "recovered_inst,recovered_host,telemetered"; merged.Attrs["methods"] != want {
		t.Errorf("methods attribute: have %q, want %q", merged.Attrs["methods"], want)
	}
	// A NaN reported by a higher-priority source does not mask a real
	// value from a lower-priority one.
	inst2 := mergeTestSource(RecoveredInst, []int{1, 2, 3},
		map[string][]float64{"pCO2_water": {401, nan, 403}})
	host2 := mergeTestSource(RecoveredHost, []int{1, 2, 3},
		map[string][]float64{"pCO2_water": {501, 502, 503}})
	merged, err = Merge(inst2, host2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{401, 502, 403}; !floatsEqual(merged.Data["pCO2_water"], want) {
		t.Errorf("have %v, want %v", merged.Data["pCO2_water"], want)
	}
}

func TestMergeVariableUnion(t *testing.T) {
	inst := mergeTestSource(RecoveredInst, []int{1, 2},
		map[string][]float64{"pCO2_water": {401, 402}})
	tele := mergeTestSource(Telemetered, []int{2, 3},
		map[string][]float64{"pCO2_air": {701, 702}})
	merged, err := Merge(inst, tele)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"pCO2_air", "pCO2_water"}; !reflect.DeepEqual(merged.Variables(), want) {
		t.Fatalf("have %v, want %v", merged.Variables(), want)
	}
	nan := math.NaN()
	if want := []float64{401, 402, nan}; !floatsEqual(merged.Data["pCO2_water"], want) {
		t.Errorf("pCO2_water: have %v, want %v", merged.Data["pCO2_water"], want)
	}
	if want := []float64{nan, 701, 702}; !floatsEqual(merged.Data["pCO2_air"], want) {
		t.Errorf("pCO2_air: have %v, want %v", merged.Data["pCO2_air"], want)
	}
}

func TestMergeIdentity(t *testing.T) {
	src := mergeTestSource(RecoveredHost, []int{1, 2, 3},
		map[string][]float64{"pCO2_water": {501, 502, 503}})
	src.Data.Deployments = []int{1, 1, 2}
	merged, err := Merge(src)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(merged.Times, src.Data.Times) {
		t.Errorf("have %v, want %v", merged.Times, src.Data.Times)
	}
	if !floatsEqual(merged.Data["pCO2_water"], src.Data.Data["pCO2_water"]) {
		t.Errorf("have %v, want %v", merged.Data["pCO2_water"], src.Data.Data["pCO2_water"])
	}
	if !reflect.DeepEqual(merged.Deployments, src.Data.Deployments) {
		t.Errorf("have %v, want %v", merged.Deployments, src.Data.Deployments)
	}
}

func TestMergeSelfIsNoOp(t *testing.T) {
	src := mergeTestSource(RecoveredInst, []int{1, 2, 3},
		map[string][]float64{"pCO2_water": {401, 402, 403}})
	a, err := Merge(src)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Merge(src, src)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Times, b.Times) || !floatsEqual(a.Data["pCO2_water"], b.Data["pCO2_water"]) {
		t.Errorf("merging a source with itself changed the result: %v vs %v", a, b)
	}
}

func TestMergeAssociativity(t *testing.T) {
	nan := math.NaN()
	inst := mergeTestSource(RecoveredInst, []int{1, 3},
		map[string][]float64{"pCO2_water": {401, 403}})
	host := mergeTestSource(RecoveredHost, []int{2, 3},
		map[string][]float64{"pCO2_water": {502, nan}})
	tele := mergeTestSource(Telemetered, []int{1, 2, 3, 4},
		map[string][]float64{"pCO2_water": {601, 602, 603, 604}})

	all, err := Merge(inst, host, tele)
	if err != nil {
		t.Fatal(err)
	}
	ih, err := Merge(inst, host)
	if err != nil {
		t.Fatal(err)
	}
	grouped, err := Merge(&TimeSeriesSource{Method: RecoveredInst, Data: ih}, tele)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(all.Times, grouped.Times) {
		t.Fatalf("have %v, want %v", grouped.Times, all.Times)
	}
	if !floatsEqual(all.Data["pCO2_water"], grouped.Data["pCO2_water"]) {
		t.Errorf("have %v, want %v", grouped.Data["pCO2_water"], all.Data["pCO2_water"])
	}
}

func TestMergeInputsUnmodified(t *testing.T) {
	inst := mergeTestSource(RecoveredInst, []int{1, 2},
		map[string][]float64{"pCO2_water": {401, 402}})
	tele := mergeTestSource(Telemetered, []int{1, 2},
		map[string][]float64{"pCO2_air": {701, 702}})
	if _, err := Merge(inst, tele); err != nil {
		t.Fatal(err)
	}
	if _, ok := inst.Data.Data["pCO2_air"]; ok {
		t.Error("merge added a variable to an input source")
	}
	if _, ok := tele.Data.Data["pCO2_water"]; ok {
		t.Error("merge added a variable to an input source")
	}
}

func TestMergeNoSources(t *testing.T) {
	_, err := Merge()
	if _, ok := err.(*EmptySourceSetError); !ok {
		t.Errorf("have %v, want EmptySourceSetError", err)
	}
}

func TestMergeNonMonotonic(t *testing.T) {
	src := mergeTestSource(Telemetered, []int{1, 3, 2},
		map[string][]float64{"pCO2_water": {601, 603, 602}})
	_, err := Merge(src)
	me, ok := err.(*TimestampMonotonicityError)
	if !ok {
		t.Fatalf("have %v, want TimestampMonotonicityError", err)
	}
	if me.Method != Telemetered || me.Index != 2 {
		t.Errorf("have method %v index %d, want telemetered index 2", me.Method, me.Index)
	}
}

func TestParseMethod(t *testing.T) {
	for m, name := range map[Method]string{
		Telemetered:   "telemetered",
		RecoveredHost: "recovered_host",
		RecoveredInst: "recovered_inst",
	} {
		have, err := ParseMethod(name)
		if err != nil {
			t.Fatal(err)
		}
		if have != m {
			t.Errorf("%s: have %v, want %v", name, have, m)
		}
	}
	if _, err := ParseMethod("streamed"); err == nil {
		t.Error("expected error for unknown method")
	}
}
