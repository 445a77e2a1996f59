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

import "strings"

// StreamFilter retains only scientifically meaningful streams and
// parameters from an instrument's catalog. Streams whose identifiers
// contain any of the excluded substrings (calibration blanks, air
// measurements, engineering metadata, and similar) are dropped, as are
// parameters below the minimum data level.
type StreamFilter struct {
	// ExcludeSubstrings drops any stream whose identifier contains one
	// of these substrings.
	ExcludeSubstrings []string

	// MinDataLevel drops any parameter with a declared data level below
	// this value. Level 0 is raw engineering output; levels ≥1 are
	// processed science data.
	MinDataLevel int
}

// DefaultStreamFilter returns the filter configuration used for the OOI
// carbon-system instruments.
func DefaultStreamFilter() StreamFilter {
	return StreamFilter{
		ExcludeSubstrings: []string{"blank", "air", "metadata", "power"},
		MinDataLevel:      1,
	}
}

// KeepStream reports whether the named stream passes the filter.
func (f StreamFilter) KeepStream(name string) bool {
	for _, sub := range f.ExcludeSubstrings {
		if strings.Contains(name, sub) {
			return false
		}
	}
	return true
}

// KeepParameter reports whether the parameter passes the filter.
func (f StreamFilter) KeepParameter(p Parameter) bool {
	return p.DataLevel >= f.MinDataLevel
}

// Streams returns the streams in the catalog that pass the filter.
func (f StreamFilter) Streams(catalog []Stream) []Stream {
	var out []Stream
	for _, s := range catalog {
		if f.KeepStream(s.Name) {
			out = append(out, s)
		}
	}
	return out
}

// Parameters returns the parameters that pass the filter.
func (f StreamFilter) Parameters(params []Parameter) []Parameter {
	var out []Parameter
	for _, p := range params {
		if f.KeepParameter(p) {
			out = append(out, p)
		}
	}
	return out
}
