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

import "fmt"

// Assemble produces one composite record from per-deployment,
// per-delivery-method dataset chunks. Each chunk is trimmed to the time
// interval its deployment owns, the chunks for each method are
// concatenated along time, and the per-method series are merged in
// decreasing order of method trustworthiness.
//
// msgChan, if not nil, receives progress messages.
//
// Assemble either returns a complete record or fails without partial
// output; the input chunks are never modified.
func Assemble(schedule *Schedule, chunks map[Method][]*Dataset, msgChan chan string) (*Dataset, error) {
	var sources []*TimeSeriesSource
	for _, m := range MethodsByRank() {
		cs := chunks[m]
		if len(cs) == 0 {
			continue
		}
		trimmed := make([]*Dataset, 0, len(cs))
		for _, c := range cs {
			t, err := schedule.Trim(c)
			if err != nil {
				return nil, err
			}
			if t.Len() == 0 {
				if msgChan != nil {
					msgChan <- fmt.Sprintf("Dropping empty %s chunk after deployment trim.", m)
				}
				continue
			}
			trimmed = append(trimmed, t)
		}
		if len(trimmed) == 0 {
			continue
		}
		series, err := Concat(trimmed...)
		if err != nil {
			return nil, fmt.Errorf("ooicarbon: concatenating %s chunks: %v", m, err)
		}
		if msgChan != nil {
			msgChan <- fmt.Sprintf("Assembled %d %s samples from %d chunks.",
				series.Len(), m, len(trimmed))
		}
		sources = append(sources, &TimeSeriesSource{Method: m, Data: series})
	}
	merged, err := Merge(sources...)
	if err != nil {
		return nil, err
	}
	if msgChan != nil {
		msgChan <- fmt.Sprintf("Merged record has %d samples and %d variables.",
			merged.Len(), len(merged.Data))
	}
	return merged, nil
}
