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

// Package ooicarbon assembles composite records for Ocean Observatories
// Initiative (OOI) carbon-system instruments. An instrument's data arrives
// in per-deployment, per-delivery-method NetCDF chunks; this package trims
// each chunk to the time interval its deployment owns, concatenates the
// chunks for each delivery method into one series, and merges the
// per-method series into a single record, preferring the most trustworthy
// delivery method wherever more than one reported a value.
package ooicarbon

import (
	"fmt"
	"strings"
)

// Version gives the version of this library.
const Version = "0.3.1"

// A RefDes is an OOI reference designator: a compound identifier denoting
// a specific instrument at a specific location and depth, for example
// "CE01ISSM-RID16-05-PCO2WB000".
type RefDes string

// Parts splits the reference designator into its site, node, and sensor
// components.
func (r RefDes) Parts() (site, node, sensor string, err error) {
	x := strings.SplitN(string(r), "-", 3)
	if len(x) != 3 || x[0] == "" || x[1] == "" || x[2] == "" {
		return "", "", "", fmt.Errorf("ooicarbon: invalid reference designator '%s'", r)
	}
	return x[0], x[1], x[2], nil
}

// Stream is a named grouping of related variables produced by one
// instrument and delivery method.
type Stream struct {
	Method string // delivery method identifier, e.g. "telemetered"
	Name   string // stream identifier, e.g. "pco2w_abc_dcl_instrument"
}

// Parameter describes one variable within a stream. DataLevel
// distinguishes raw engineering output (0) from processed science
// data (≥1).
type Parameter struct {
	Name      string
	Units     string
	DataLevel int
}

// Annotation is a free-form operator note attached to an instrument for
// some time span.
type Annotation struct {
	RefDes  RefDes
	Span    Interval
	Source  string
	Comment string
}
