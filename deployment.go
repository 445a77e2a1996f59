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
	"sort"
	"time"
)

// Deployment describes one physical installation period of an instrument.
type Deployment struct {
	// Number is the deployment number, unique and totally ordered within
	// one reference designator.
	Number int

	// Start is the time the instrument went into the water.
	Start time.Time

	// End is the time the instrument was recovered. A zero End means the
	// instrument is still deployed.
	End time.Time
}

// Interval is a half-open time span [Start, End). A zero End means the
// interval is unbounded on the right.
type Interval struct {
	Start, End time.Time
}

// Contains reports whether t falls within the interval.
func (iv Interval) Contains(t time.Time) bool {
	if t.Before(iv.Start) {
		return false
	}
	return iv.End.IsZero() || t.Before(iv.End)
}

// UnknownDeploymentError indicates that a dataset references a deployment
// number that is absent from the deployment metadata.
type UnknownDeploymentError struct {
	Number int
}

func (e *UnknownDeploymentError) Error() string {
	return fmt.Sprintf("ooicarbon: dataset references deployment %d, which is not in the deployment metadata", e.Number)
}

// AmbiguousDeploymentError indicates that a dataset chunk given to Trim
// spans more than one deployment; a chunk is expected to map to exactly
// one deployment.
type AmbiguousDeploymentError struct {
	Numbers []int
}

func (e *AmbiguousDeploymentError) Error() string {
	return fmt.Sprintf("ooicarbon: dataset spans deployments %v; expected exactly one", e.Numbers)
}

// Schedule resolves a set of deployments into non-overlapping time
// ownership intervals, one per deployment, so that exactly one deployment
// owns each instant of the combined record's timeline.
//
// The deployment metadata sometimes records two consecutive deployments
// as overlapping. The schedule resolves that by clipping the earlier
// deployment's interval to the start of the later one: the later
// deployment owns the boundary.
type Schedule struct {
	deployments []Deployment
	intervals   map[int]Interval
}

// NewSchedule creates a schedule from the given deployments. The
// deployments must have unique numbers, and increasing numbers must have
// non-decreasing start times.
func NewSchedule(deployments []Deployment) (*Schedule, error) {
	s := &Schedule{
		deployments: append([]Deployment{}, deployments...),
		intervals:   make(map[int]Interval, len(deployments)),
	}
	sort.Slice(s.deployments, func(i, j int) bool {
		return s.deployments[i].Number < s.deployments[j].Number
	})
	for i, dep := range s.deployments {
		if i > 0 {
			prev := s.deployments[i-1]
			if dep.Number == prev.Number {
				return nil, fmt.Errorf("ooicarbon: duplicate deployment number %d", dep.Number)
			}
			if dep.Start.Before(prev.Start) {
				return nil, fmt.Errorf("ooicarbon: deployment %d starts before deployment %d",
					dep.Number, prev.Number)
			}
		}
		end := dep.End
		if i+1 < len(s.deployments) {
			next := s.deployments[i+1]
			if end.IsZero() || next.Start.Before(end) {
				end = next.Start
			}
		}
		s.intervals[dep.Number] = Interval{Start: dep.Start, End: end}
	}
	return s, nil
}

// Deployments returns the schedule's deployments, ordered by number.
func (s *Schedule) Deployments() []Deployment {
	return append([]Deployment{}, s.deployments...)
}

// Interval returns the time interval owned by the given deployment.
func (s *Schedule) Interval(number int) (Interval, bool) {
	iv, ok := s.intervals[number]
	return iv, ok
}

// Trim returns a copy of the dataset containing only the samples that
// fall within the interval owned by the dataset's deployment. Samples
// outside the interval are dropped, not errored. The dataset must be
// tagged with exactly one deployment number; Trim returns an
// AmbiguousDeploymentError if it carries more than one and an
// UnknownDeploymentError if the number is not in the schedule.
func (s *Schedule) Trim(d *Dataset) (*Dataset, error) {
	if d.Len() == 0 {
		return d.Copy(), nil
	}
	if d.Deployments == nil {
		return nil, fmt.Errorf("ooicarbon: dataset has no deployment tags")
	}
	numbers := []int{d.Deployments[0]}
	for _, n := range d.Deployments[1:] {
		if n != numbers[len(numbers)-1] {
			found := false
			for _, m := range numbers {
				if m == n {
					found = true
					break
				}
			}
			if !found {
				numbers = append(numbers, n)
			}
		}
	}
	if len(numbers) > 1 {
		sort.Ints(numbers)
		return nil, &AmbiguousDeploymentError{Numbers: numbers}
	}
	iv, ok := s.intervals[numbers[0]]
	if !ok {
		return nil, &UnknownDeploymentError{Number: numbers[0]}
	}
	return d.Select(iv), nil
}
