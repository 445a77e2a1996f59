package ooicarbon

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

const csvTimeFormat = time.RFC3339

// WriteDeploymentsCSV writes a deployment table as delimited text with a
// header row. An empty stop time means the deployment is still active.
func WriteDeploymentsCSV(w io.Writer, deployments []Deployment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"deploymentNumber", "startTime", "stopTime"}); err != nil {
		return fmt.Errorf("ooicarbon: writing deployment table: %v", err)
	}
	for _, dep := range deployments {
		stop := ""
		if !dep.End.IsZero() {
			stop = dep.End.UTC().Format(csvTimeFormat)
		}
		row := []string{
			strconv.Itoa(dep.Number),
			dep.Start.UTC().Format(csvTimeFormat),
			stop,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ooicarbon: writing deployment table: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadDeploymentsCSV reads a deployment table written by
// WriteDeploymentsCSV.
func ReadDeploymentsCSV(r io.Reader) ([]Deployment, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ooicarbon: reading deployment table: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ooicarbon: deployment table is empty")
	}
	var deployments []Deployment
	for i, row := range rows[1:] { // skip header
		if len(row) != 3 {
			return nil, fmt.Errorf("ooicarbon: deployment table row %d has %d fields; want 3", i+2, len(row))
		}
		number, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("ooicarbon: deployment table row %d: %v", i+2, err)
		}
		start, err := time.Parse(csvTimeFormat, row[1])
		if err != nil {
			return nil, fmt.Errorf("ooicarbon: deployment table row %d: %v", i+2, err)
		}
		dep := Deployment{Number: number, Start: start}
		if row[2] != "" {
			dep.End, err = time.Parse(csvTimeFormat, row[2])
			if err != nil {
				return nil, fmt.Errorf("ooicarbon: deployment table row %d: %v", i+2, err)
			}
		}
		deployments = append(deployments, dep)
	}
	return deployments, nil
}

// WriteAnnotationsCSV writes instrument annotations as delimited text
// with a header row.
func WriteAnnotationsCSV(w io.Writer, annotations []Annotation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"refDes", "startTime", "stopTime", "source", "comment"}); err != nil {
		return fmt.Errorf("ooicarbon: writing annotation table: %v", err)
	}
	for _, a := range annotations {
		stop := ""
		if !a.Span.End.IsZero() {
			stop = a.Span.End.UTC().Format(csvTimeFormat)
		}
		row := []string{
			string(a.RefDes),
			a.Span.Start.UTC().Format(csvTimeFormat),
			stop,
			a.Source,
			a.Comment,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ooicarbon: writing annotation table: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
