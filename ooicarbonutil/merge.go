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
	"context"
	"fmt"
	"os"

	"github.com/oceandata/ooicarbon"
	"github.com/oceandata/ooicarbon/m2m"
)

// Merge assembles one composite record for an instrument and writes it to
// outputFile as NetCDF.
//
// The deployment schedule is read from the csv table at deploymentsFile
// when it is non-empty, and queried from the M2M deployment service
// otherwise. inputs lists the NetCDF chunk files for each delivery
// method; entries may be local paths, http addresses, or blob storage
// addresses, and are staged locally before reading. outputVariables, if
// non-empty, defines derived variables to add to the merged record, and
// variableUnits supplies the units attributes for the output file.
//
// msgChan, if not nil, receives progress messages.
func Merge(ctx context.Context, refDes ooicarbon.RefDes, deploymentsFile string,
	inputs map[ooicarbon.Method][]string, outputFile, locationName string,
	outputVariables, variableUnits map[string]string,
	client *m2m.Client, msgChan chan string) error {

	deployments, err := loadDeployments(ctx, refDes, deploymentsFile, client)
	if err != nil {
		return err
	}
	schedule, err := ooicarbon.NewSchedule(deployments)
	if err != nil {
		return err
	}
	if msgChan != nil {
		msgChan <- fmt.Sprintf("Resolved %d deployment intervals for %s.", len(deployments), refDes)
	}

	chunks := make(map[ooicarbon.Method][]*ooicarbon.Dataset)
	for method, files := range inputs {
		for _, file := range files {
			local := maybeDownload(ctx, file, msgChan)
			d, err := ooicarbon.ReadDataset(local)
			if err != nil {
				return err
			}
			chunks[method] = append(chunks[method], d)
		}
	}

	merged, err := ooicarbon.Assemble(schedule, chunks, msgChan)
	if err != nil {
		return err
	}

	if len(outputVariables) > 0 {
		o, err := ooicarbon.NewOutputter(outputVariables, nil)
		if err != nil {
			return err
		}
		merged, err = o.Append(merged)
		if err != nil {
			return err
		}
	}

	if refDes != "" {
		merged.Attrs["refDes"] = string(refDes)
	}
	if locationName != "" {
		merged.Attrs["location_name"] = locationName
	}

	if msgChan != nil {
		summaries := ooicarbon.Summarize(merged)
		for _, v := range merged.Variables() {
			s := summaries[v]
			msgChan <- fmt.Sprintf("%s: %d values, mean %g, range [%g, %g].",
				v, s.N, s.Mean, s.Min, s.Max)
		}
	}
	return ooicarbon.WriteDataset(outputFile, merged, variableUnits)
}

// loadDeployments reads the deployment table from a file when one is
// given and from the M2M service otherwise.
func loadDeployments(ctx context.Context, refDes ooicarbon.RefDes, deploymentsFile string,
	client *m2m.Client) ([]ooicarbon.Deployment, error) {
	if deploymentsFile == "" {
		return client.Deployments(ctx, refDes)
	}
	f, err := os.Open(deploymentsFile)
	if err != nil {
		return nil, fmt.Errorf("ooicarbon: opening deployment table: %v", err)
	}
	defer f.Close()
	return ooicarbon.ReadDeploymentsCSV(f)
}
