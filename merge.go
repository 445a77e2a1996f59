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
	"strings"
	"time"
)

// Method identifies the data-delivery path that produced a time series.
// Higher values are more trustworthy: data recovered from the
// instrument's own memory is authoritative over data recovered from the
// mooring host computer, which in turn is authoritative over real-time
// telemetry.
type Method int

const (
	// Telemetered data arrived over the mooring's real-time link.
	Telemetered Method = iota
	// RecoveredHost data was read from the mooring host computer after
	// recovery.
	RecoveredHost
	// RecoveredInst data was read from the instrument's internal memory
	// after recovery.
	RecoveredInst
)

// methodNames are the identifiers the OOI services use for each method.
var methodNames = map[Method]string{
	Telemetered:   "telemetered",
	RecoveredHost: "recovered_host",
	RecoveredInst: "recovered_inst",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts an OOI delivery method identifier to a Method.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("ooicarbon: unknown delivery method '%s'", s)
}

// MethodsByRank returns all methods in decreasing order of
// trustworthiness.
func MethodsByRank() []Method {
	return []Method{RecoveredInst, RecoveredHost, Telemetered}
}

// TimeSeriesSource is one delivery method's series for an instrument.
type TimeSeriesSource struct {
	Method Method
	Data   *Dataset
}

// EmptySourceSetError indicates that a merge was requested with no
// sources.
type EmptySourceSetError struct{}

func (e *EmptySourceSetError) Error() string {
	return "ooicarbon: merge requires at least one source"
}

// TimestampMonotonicityError indicates that a source's timestamps are not
// strictly increasing. This is a precondition of merging; it is not
// repaired.
type TimestampMonotonicityError struct {
	Method Method
	Index  int
}

func (e *TimestampMonotonicityError) Error() string {
	return fmt.Sprintf("ooicarbon: %s source timestamps are not strictly increasing at index %d",
		e.Method, e.Index)
}

// Merge combines the given sources into one record covering the union of
// their timestamps and variables. The sources must be ordered by
// decreasing priority: for every timestamp and variable, the merged value
// is the value from the earliest listed source that reported one, and
// values from later sources are used only to fill the gaps. Sources that
// were not collected are simply omitted from the list.
//
// Before combining, every source's variable set is aligned to the union
// of all variable sets: a variable absent from a source is synthesized as
// all-missing (NaN) at that source's timestamps. This broadcast policy
// never fabricates a measurement a method did not report.
//
// Merge is a pure transform: the inputs are not modified, and for fixed
// inputs and ordering the output is exactly reproducible.
func Merge(sources ...*TimeSeriesSource) (*Dataset, error) {
	if len(sources) == 0 {
		return nil, &EmptySourceSetError{}
	}
	for _, src := range sources {
		if ok, i := src.Data.timesIncreasing(); !ok {
			return nil, &TimestampMonotonicityError{Method: src.Method, Index: i}
		}
	}

	aligned := alignVariables(sources)

	times := timeUnion(aligned)
	index := make(map[int64]int, len(times))
	for i, t := range times {
		index[t.UnixNano()] = i
	}

	o := &Dataset{
		Times:       times,
		Deployments: make([]int, len(times)),
		Data:        make(map[string][]float64),
		Attrs:       make(map[string]string),
	}
	for v := range aligned[0].Data.Data {
		vals := make([]float64, len(times))
		for i := range vals {
			vals[i] = math.NaN()
		}
		o.Data[v] = vals
	}

	// Overlay each source onto the result, lowest priority first, so
	// that by the end every cell holds the highest-priority value that
	// was reported for it.
	for i := len(aligned) - 1; i >= 0; i-- {
		src := aligned[i]
		for j, t := range src.Data.Times {
			k := index[t.UnixNano()]
			for v, vals := range src.Data.Data {
				if !math.IsNaN(vals[j]) {
					o.Data[v][k] = vals[j]
				}
			}
			if src.Data.Deployments != nil && src.Data.Deployments[j] != 0 {
				o.Deployments[k] = src.Data.Deployments[j]
			}
		}
		for k, v := range src.Data.Attrs {
			o.Attrs[k] = v
		}
	}
	names := make([]string, len(aligned))
	for i, src := range aligned {
		names[i] = src.Method.String()
	}
	o.Attrs["methods"] = strings.Join(names, ",")
	return o, nil
}

// alignVariables gives every source an identical variable set, the union
// of all the sources' variable sets, synthesizing missing variables as
// all-NaN. The inputs are not modified.
func alignVariables(sources []*TimeSeriesSource) []*TimeSeriesSource {
	varSet := make(map[string]struct{})
	for _, src := range sources {
		for v := range src.Data.Data {
			varSet[v] = struct{}{}
		}
	}
	out := make([]*TimeSeriesSource, len(sources))
	for i, src := range sources {
		d := src.Data.Copy()
		for v := range varSet {
			if _, ok := d.Data[v]; !ok {
				fill := make([]float64, d.Len())
				for j := range fill {
					fill[j] = math.NaN()
				}
				d.Data[v] = fill
			}
		}
		out[i] = &TimeSeriesSource{Method: src.Method, Data: d}
	}
	return out
}

// timeUnion returns the sorted union of the sources' time indexes.
func timeUnion(sources []*TimeSeriesSource) []time.Time {
	seen := make(map[int64]struct{})
	var times []time.Time
	for _, src := range sources {
		for _, t := range src.Data.Times {
			if _, ok := seen[t.UnixNano()]; !ok {
				seen[t.UnixNano()] = struct{}{}
				times = append(times, t)
			}
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}
