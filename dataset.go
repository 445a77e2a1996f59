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
	"fmt"
	"math"
	"sort"
	"time"
)

// Dataset is an in-memory, time-indexed collection of variables for one
// instrument. Values are aligned to the shared time index; a NaN value
// means the variable was not reported at that timestamp.
type Dataset struct {
	// Times is the sample time index, strictly increasing.
	Times []time.Time

	// Deployments tags each sample with the number of the deployment it
	// was collected during. It may be nil if the provenance of the
	// samples is unknown; a tag of zero means the same.
	Deployments []int

	// Data maps variable names to per-sample values. Every slice has one
	// element per entry in Times.
	Data map[string][]float64

	// Attrs holds free-form provenance attributes, such as the location
	// name and reference designator.
	Attrs map[string]string
}

// NewDataset initializes an empty dataset with the given time index.
func NewDataset(times []time.Time) *Dataset {
	return &Dataset{
		Times: times,
		Data:  make(map[string][]float64),
		Attrs: make(map[string]string),
	}
}

// Len returns the number of samples in the dataset.
func (d *Dataset) Len() int { return len(d.Times) }

// Variables returns the sorted names of the variables in the dataset.
func (d *Dataset) Variables() []string {
	vars := make([]string, 0, len(d.Data))
	for v := range d.Data {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// Copy returns a deep copy of the dataset.
func (d *Dataset) Copy() *Dataset {
	o := &Dataset{
		Times: append([]time.Time{}, d.Times...),
		Data:  make(map[string][]float64, len(d.Data)),
	}
	if d.Deployments != nil {
		o.Deployments = append([]int{}, d.Deployments...)
	}
	for v, vals := range d.Data {
		o.Data[v] = append([]float64{}, vals...)
	}
	if d.Attrs != nil {
		o.Attrs = make(map[string]string, len(d.Attrs))
		for k, v := range d.Attrs {
			o.Attrs[k] = v
		}
	}
	return o
}

// Select returns a new dataset containing only the samples whose
// timestamps fall within iv. The receiver is not modified.
func (d *Dataset) Select(iv Interval) *Dataset {
	keep := make([]int, 0, len(d.Times))
	for i, t := range d.Times {
		if iv.Contains(t) {
			keep = append(keep, i)
		}
	}
	o := &Dataset{
		Times: make([]time.Time, len(keep)),
		Data:  make(map[string][]float64, len(d.Data)),
	}
	if d.Deployments != nil {
		o.Deployments = make([]int, len(keep))
	}
	for j, i := range keep {
		o.Times[j] = d.Times[i]
		if d.Deployments != nil {
			o.Deployments[j] = d.Deployments[i]
		}
	}
	for v, vals := range d.Data {
		sel := make([]float64, len(keep))
		for j, i := range keep {
			sel[j] = vals[i]
		}
		o.Data[v] = sel
	}
	if d.Attrs != nil {
		o.Attrs = make(map[string]string, len(d.Attrs))
		for k, v := range d.Attrs {
			o.Attrs[k] = v
		}
	}
	return o
}

// timesIncreasing reports whether the dataset's time index is strictly
// increasing, and if not, the index of the first offending sample.
func (d *Dataset) timesIncreasing() (bool, int) {
	for i := 1; i < len(d.Times); i++ {
		if !d.Times[i].After(d.Times[i-1]) {
			return false, i
		}
	}
	return true, 0
}

// Concat concatenates datasets along the time dimension, returning a new
// dataset covering all input samples. The inputs are reordered by their
// first timestamps but are otherwise not modified; their time ranges must
// not overlap. The output variable set is the union of the input variable
// sets, with NaN filled in where a chunk did not carry a variable.
func Concat(chunks ...*Dataset) (*Dataset, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ooicarbon: no datasets to concatenate")
	}
	nonEmpty := make([]*Dataset, 0, len(chunks))
	n := 0
	hasTags := false
	for _, c := range chunks {
		if c.Len() == 0 {
			continue
		}
		nonEmpty = append(nonEmpty, c)
		n += c.Len()
		if c.Deployments != nil {
			hasTags = true
		}
	}
	sort.SliceStable(nonEmpty, func(i, j int) bool {
		return nonEmpty[i].Times[0].Before(nonEmpty[j].Times[0])
	})

	varSet := make(map[string]struct{})
	for _, c := range nonEmpty {
		for v := range c.Data {
			varSet[v] = struct{}{}
		}
	}

	o := &Dataset{
		Times: make([]time.Time, 0, n),
		Data:  make(map[string][]float64, len(varSet)),
		Attrs: make(map[string]string),
	}
	if hasTags {
		o.Deployments = make([]int, 0, n)
	}
	for v := range varSet {
		o.Data[v] = make([]float64, 0, n)
	}
	for _, c := range nonEmpty {
		o.Times = append(o.Times, c.Times...)
		if hasTags {
			if c.Deployments != nil {
				o.Deployments = append(o.Deployments, c.Deployments...)
			} else {
				o.Deployments = append(o.Deployments, make([]int, c.Len())...)
			}
		}
		for v := range varSet {
			if vals, ok := c.Data[v]; ok {
				o.Data[v] = append(o.Data[v], vals...)
			} else {
				fill := make([]float64, c.Len())
				for i := range fill {
					fill[i] = math.NaN()
				}
				o.Data[v] = append(o.Data[v], fill...)
			}
		}
		for k, v := range c.Attrs {
			if _, ok := o.Attrs[k]; !ok {
				o.Attrs[k] = v
			}
		}
	}
	if ok, i := o.timesIncreasing(); !ok {
		return nil, fmt.Errorf("ooicarbon: concatenated datasets overlap in time at %v",
			o.Times[i])
	}
	return o, nil
}
