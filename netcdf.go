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

package ooicarbon

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

const (
	timeVar       = "time"
	deploymentVar = "deployment"

	// timeUnits is the time encoding the OOI services use.
	timeUnits = "seconds since 1900-01-01 00:00:00"
)

var timeEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// parseTimeUnits returns the epoch from a "seconds since ..." units
// attribute, defaulting to the OOI epoch when the attribute is absent or
// unrecognized.
func parseTimeUnits(units string) time.Time {
	x := strings.SplitN(units, " since ", 2)
	if len(x) != 2 || x[0] != "seconds" {
		return timeEpoch
	}
	for _, format := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z", "2006-01-02"} {
		if t, err := time.Parse(format, strings.TrimSpace(x[1])); err == nil {
			return t
		}
	}
	return timeEpoch
}

// ReadDataset reads a time-indexed dataset from the NetCDF file at the
// given path. The file must have a "time" variable; a "deployment"
// variable, if present, becomes the per-sample deployment tags, and all
// other floating-point variables dimensioned by time become dataset
// variables. Global text attributes are carried into the dataset's
// attribute map.
func ReadDataset(filename string) (*Dataset, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("ooicarbon: opening dataset file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("ooicarbon: reading dataset file %s: %v", filename, err)
	}

	seconds, err := readVar64(ff, timeVar)
	if err != nil {
		return nil, fmt.Errorf("ooicarbon: reading dataset file %s: %v", filename, err)
	}
	epoch := timeEpoch
	if u, ok := ff.Header.GetAttribute(timeVar, "units").(string); ok {
		epoch = parseTimeUnits(u)
	}
	d := NewDataset(make([]time.Time, len(seconds)))
	for i, s := range seconds {
		// Split whole seconds from the fraction so that the conversion to
		// nanoseconds stays within float64's exact integer range.
		whole := math.Floor(s)
		frac := time.Duration((s - whole) * float64(time.Second))
		d.Times[i] = epoch.Add(time.Duration(whole)*time.Second + frac).UTC()
	}

	for _, v := range ff.Header.Variables() {
		if v == timeVar {
			continue
		}
		dims := ff.Header.Dimensions(v)
		if len(dims) != 1 || dims[0] != timeVar {
			continue
		}
		if v == deploymentVar {
			tags, err := readVarInt(ff, v)
			if err != nil {
				return nil, fmt.Errorf("ooicarbon: reading dataset file %s: %v", filename, err)
			}
			d.Deployments = tags
			continue
		}
		vals, err := readVar64(ff, v)
		if err != nil {
			return nil, fmt.Errorf("ooicarbon: reading dataset file %s: %v", filename, err)
		}
		d.Data[v] = vals
	}

	for _, a := range ff.Header.Attributes("") {
		if s, ok := ff.Header.GetAttribute("", a).(string); ok {
			d.Attrs[a] = s
		}
	}
	return d, nil
}

// readVar64 reads a 1-D float variable as float64 values, staging them
// through a dense array.
func readVar64(ff *cdf.File, v string) ([]float64, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %v not in file", v)
	}
	n := dims[0]
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(n)
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("variable %s has non-float type %T", v, buf)
	}
	return data.Elements, nil
}

// readVarInt reads a 1-D integer variable.
func readVarInt(ff *cdf.File, v string) ([]int, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %v not in file", v)
	}
	n := dims[0]
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", v, err)
	}
	b, ok := buf.([]int32)
	if !ok {
		return nil, fmt.Errorf("variable %s has non-integer type %T", v, buf)
	}
	out := make([]int, n)
	for i, val := range b {
		out[i] = int(val)
	}
	return out, nil
}

// WriteDataset writes a dataset to a NetCDF file at the given path.
// units, which may be nil, maps variable names to a units attribute for
// each. The dataset's attributes become global attributes of the file.
func WriteDataset(filename string, d *Dataset, units map[string]string) error {
	h := cdf.NewHeader([]string{timeVar}, []int{d.Len()})
	h.AddVariable(timeVar, []string{timeVar}, []float64{0})
	h.AddAttribute(timeVar, "units", timeUnits)
	if d.Deployments != nil {
		h.AddVariable(deploymentVar, []string{timeVar}, []int32{0})
		h.AddAttribute(deploymentVar, "comment", "deployment number each sample was collected during")
	}
	vars := d.Variables()
	for _, v := range vars {
		h.AddVariable(v, []string{timeVar}, []float64{0})
		if u, ok := units[v]; ok {
			h.AddAttribute(v, "units", u)
		}
	}
	attrNames := make([]string, 0, len(d.Attrs))
	for a := range d.Attrs {
		attrNames = append(attrNames, a)
	}
	sort.Strings(attrNames)
	for _, a := range attrNames {
		h.AddAttribute("", a, d.Attrs[a])
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("ooicarbon: creating dataset file: %v", err)
	}

	ff, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("ooicarbon: creating dataset file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("ooicarbon: creating dataset file: %v", err)
	}

	seconds := make([]float64, d.Len())
	for i, t := range d.Times {
		seconds[i] = t.Sub(timeEpoch).Seconds()
	}
	w := f.Writer(timeVar, []int{0}, []int{d.Len()})
	if _, err := w.Write(seconds); err != nil {
		return fmt.Errorf("ooicarbon: writing time to dataset file: %v", err)
	}
	if d.Deployments != nil {
		tags := make([]int32, d.Len())
		for i, n := range d.Deployments {
			tags[i] = int32(n)
		}
		w := f.Writer(deploymentVar, []int{0}, []int{d.Len()})
		if _, err := w.Write(tags); err != nil {
			return fmt.Errorf("ooicarbon: writing deployment tags to dataset file: %v", err)
		}
	}
	for _, v := range vars {
		w := f.Writer(v, []int{0}, []int{d.Len()})
		if _, err := w.Write(d.Data[v]); err != nil {
			return fmt.Errorf("ooicarbon: writing variable %s to dataset file: %v", v, err)
		}
	}
	return nil
}
