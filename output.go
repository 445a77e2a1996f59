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
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/Knetic/govaluate"
	"gonum.org/v1/gonum/floats"
)

// Outputter computes derived output variables from a merged record.
//
// outputVariables maps the names of the variables to be added to
// expressions that define how they should be calculated from the
// record's existing variables, for example
// "delta_pco2": "pCO2_water - pCO2_air". Expressions are evaluated once
// per timestamp; a NaN operand produces a NaN result at that timestamp.
type Outputter struct {
	outputVariables map[string]string
	outputFunctions map[string]govaluate.ExpressionFunction
}

// NewOutputter initializes a new Outputter and adds a set of default
// expression functions: 'exp(x)', 'log(x)', 'log10(x)', 'sqrt(x)', and
// 'abs(x)'. Functions given in outputFunctions override the defaults.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	scalarFunc := func(name string, f func(float64) float64) govaluate.ExpressionFunction {
		return func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("ooicarbon: got %d arguments for function '%s', but needs 1", len(arg), name)
			}
			return f(arg[0].(float64)), nil
		}
	}
	defaultOutputFuncs := map[string]govaluate.ExpressionFunction{
		"exp":   scalarFunc("exp", math.Exp),
		"log":   scalarFunc("log", math.Log),
		"log10": scalarFunc("log10", math.Log10),
		"sqrt":  scalarFunc("sqrt", math.Sqrt),
		"abs":   scalarFunc("abs", math.Abs),
	}
	for key, val := range outputFunctions {
		defaultOutputFuncs[key] = val
	}
	o := &Outputter{
		outputVariables: outputVariables,
		outputFunctions: defaultOutputFuncs,
	}
	for name, expr := range o.outputVariables {
		if _, err := govaluate.NewEvaluableExpressionWithFunctions(expr, o.outputFunctions); err != nil {
			return nil, fmt.Errorf("ooicarbon: output variable %s: %v", name, err)
		}
	}
	return o, nil
}

// Append evaluates the output variable expressions against d and returns
// a copy of d with the results added. Expression variables must be
// variables of d; referencing an undefined variable is an error.
// Output variables are evaluated in name order and may reference output
// variables that sort before them.
func (o *Outputter) Append(d *Dataset) (*Dataset, error) {
	out := d.Copy()
	names := make([]string, 0, len(o.outputVariables))
	for name := range o.outputVariables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(o.outputVariables[name], o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("ooicarbon: output variable %s: %v", name, err)
		}
		for _, v := range expression.Vars() {
			if _, ok := out.Data[v]; !ok {
				return nil, fmt.Errorf("ooicarbon: output variable %s: undefined variable name '%s'", name, v)
			}
		}
		vals := make([]float64, out.Len())
		params := make(map[string]interface{}, len(expression.Vars()))
		for i := range out.Times {
			for _, v := range expression.Vars() {
				params[v] = out.Data[v][i]
			}
			result, err := expression.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("ooicarbon: evaluating output variable %s: %v", name, err)
			}
			val, ok := result.(float64)
			if !ok {
				return nil, fmt.Errorf("ooicarbon: output variable %s: expression result is %T, not a number", name, result)
			}
			vals[i] = val
		}
		out.Data[name] = vals
	}
	return out, nil
}

// VariableSummary holds whole-series statistics for one variable,
// computed over its non-missing values.
type VariableSummary struct {
	// N is the number of non-missing values.
	N int

	Sum, Mean, StdDev, Min, Max float64
}

// Summarize computes per-variable statistics for a record, skipping
// missing values. Variables with no non-missing values get an all-NaN
// summary.
func Summarize(d *Dataset) map[string]VariableSummary {
	out := make(map[string]VariableSummary, len(d.Data))
	for _, v := range d.Variables() {
		vals := make([]float64, 0, d.Len())
		for _, x := range d.Data[v] {
			if !math.IsNaN(x) {
				vals = append(vals, x)
			}
		}
		s := VariableSummary{N: len(vals)}
		if len(vals) == 0 {
			s.Sum = math.NaN()
			s.Mean = math.NaN()
			s.StdDev = math.NaN()
			s.Min = math.NaN()
			s.Max = math.NaN()
		} else {
			s.Sum = floats.Sum(vals)
			s.Mean = stats.StatsMean(vals)
			s.Min = stats.StatsMin(vals)
			s.Max = stats.StatsMax(vals)
			if len(vals) > 1 {
				s.StdDev = stats.StatsSampleStandardDeviation(vals)
			}
		}
		out[v] = s
	}
	return out
}
