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

// Package ooicarbonutil glues the ooicarbon library to its command-line
// interface: configuration handling, input staging, and the commands
// themselves.
package ooicarbonutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oceandata/ooicarbon"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var logger *logrus.Logger

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	logger = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})

	// Options are the configuration options available to ooicarbon.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "RefDes",
			usage: `
              RefDes is the reference designator of the instrument to work
              with, for example "CE01ISSM-RID16-05-PCO2WB000".`,
			shorthand:  "r",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "M2M.BaseURL",
			usage: `
              M2M.BaseURL is the root URL of the OOI machine-to-machine
              web services.`,
			defaultVal: "https://ooinet.oceanobservatories.org/api/m2m",
			flagsets:   []*pflag.FlagSet{streamsCmd.Flags(), deploymentsCmd.Flags(), annotationsCmd.Flags(), mergeCmd.Flags()},
		},
		{
			name: "M2M.Login",
			usage: `
              M2M.Login is the API username for the OOI machine-to-machine
              web services, from the ooinet.oceanobservatories.org user
              profile page.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{streamsCmd.Flags(), deploymentsCmd.Flags(), annotationsCmd.Flags(), mergeCmd.Flags()},
		},
		{
			name: "M2M.Key",
			usage: `
              M2M.Key is the API token matching M2M.Login.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{streamsCmd.Flags(), deploymentsCmd.Flags(), annotationsCmd.Flags(), mergeCmd.Flags()},
		},
		{
			name: "StreamFilter.ExcludeSubstrings",
			usage: `
              StreamFilter.ExcludeSubstrings lists substrings that mark a
              stream as non-science; any stream whose identifier contains
              one of them is skipped.`,
			defaultVal: []string{"blank", "air", "metadata", "power"},
			flagsets:   []*pflag.FlagSet{streamsCmd.Flags()},
		},
		{
			name: "StreamFilter.MinDataLevel",
			usage: `
              StreamFilter.MinDataLevel is the minimum data level of the
              parameters to list; level 0 is raw engineering output.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{streamsCmd.Flags()},
		},
		{
			name: "Deployments.File",
			usage: `
              Deployments.File is a csv deployment table, as written by the
              deployments command, to use in place of querying the M2M
              deployment service.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "Input.Telemetered",
			usage: `
              Input.Telemetered lists the telemetered NetCDF chunk files to
              assemble. Entries may be local paths, http addresses, or
              blob storage addresses (gs:// or s3://).`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "Input.RecoveredHost",
			usage: `
              Input.RecoveredHost lists the recovered_host NetCDF chunk
              files to assemble.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "Input.RecoveredInst",
			usage: `
              Input.RecoveredInst lists the recovered_inst NetCDF chunk
              files to assemble.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the file to write results to. The
              merge command writes NetCDF; the deployments and annotations
              commands write csv, to standard output when OutputFile is
              empty.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags(), deploymentsCmd.Flags(), annotationsCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables maps the names of derived variables to add to
              the merged record to the expressions that calculate them, for
              example {"delta_pco2": "pCO2_water - pCO2_air"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "VariableUnits",
			usage: `
              VariableUnits maps variable names to the units attribute each
              should carry in the output file.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "LocationName",
			usage: `
              LocationName is a human-readable name for the instrument's
              location, stored as an attribute of the merged record.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("OOICARBON")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(streamsCmd)
	Root.AddCommand(deploymentsCmd)
	Root.AddCommand(annotationsCmd)
	Root.AddCommand(mergeCmd)
}

// outChan returns a channel that logs progress messages.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			logger.Info(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ooicarbon: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ooicarbon",
	Short: "Assemble OOI carbon-system instrument records.",
	Long: `ooicarbon assembles composite data records for Ocean Observatories
Initiative (OOI) carbon-system instruments from per-deployment,
per-delivery-method NetCDF chunks.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'OOICARBON_var' where 'var'
is the name of the variable to be set. Many configuration variables are
additionally allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of ooicarbon.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ooicarbon v%s\n", ooicarbon.Version)
	},
	DisableAutoGenTag: true,
}

// streamsCmd lists the science streams an instrument reports data under.
var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List an instrument's science streams",
	Long: `streams queries the M2M sensor catalog for the delivery methods and
streams of the instrument given by RefDes, drops the non-science
streams according to the StreamFilter configuration, and prints the
rest as 'method stream' pairs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := m2mClient(Cfg)
		filter := streamFilter(Cfg)
		streams, err := client.Streams(context.Background(), ooicarbon.RefDes(Cfg.GetString("RefDes")))
		if err != nil {
			return err
		}
		for _, s := range filter.Streams(streams) {
			cmd.Printf("%s %s\n", s.Method, s.Name)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// deploymentsCmd writes an instrument's deployment table.
var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "Write an instrument's deployment table",
	Long: `deployments queries the M2M deployment service for the deployment
events of the instrument given by RefDes and writes them as a csv
table, to OutputFile if set and to standard output otherwise. The
table can later be given to the merge command as Deployments.File.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := m2mClient(Cfg)
		deployments, err := client.Deployments(context.Background(), ooicarbon.RefDes(Cfg.GetString("RefDes")))
		if err != nil {
			return err
		}
		w, closer, err := outputWriter(cmd, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		defer closer()
		return ooicarbon.WriteDeploymentsCSV(w, deployments)
	},
	DisableAutoGenTag: true,
}

// annotationsCmd writes an instrument's operator annotations.
var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "Write an instrument's operator annotations",
	Long: `annotations queries the M2M annotation service for the notes
operators have attached to the instrument given by RefDes and writes
them as a csv table, to OutputFile if set and to standard output
otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := m2mClient(Cfg)
		annotations, err := client.Annotations(context.Background(), ooicarbon.RefDes(Cfg.GetString("RefDes")))
		if err != nil {
			return err
		}
		w, closer, err := outputWriter(cmd, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		defer closer()
		return ooicarbon.WriteAnnotationsCSV(w, annotations)
	},
	DisableAutoGenTag: true,
}

// mergeCmd assembles a composite record from NetCDF chunks.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Assemble a composite record from NetCDF chunks",
	Long: `merge trims the NetCDF chunks listed in the Input configuration to
the time intervals their deployments own, merges the per-method series
in decreasing order of method trustworthiness, evaluates the
OutputVariables expressions, and writes the result to OutputFile as
NetCDF. Deployment intervals come from Deployments.File when set and
from the M2M deployment service otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()

		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		inputs := map[ooicarbon.Method][]string{
			ooicarbon.Telemetered:   expandStringSlice(Cfg.GetStringSlice("Input.Telemetered")),
			ooicarbon.RecoveredHost: expandStringSlice(Cfg.GetStringSlice("Input.RecoveredHost")),
			ooicarbon.RecoveredInst: expandStringSlice(Cfg.GetStringSlice("Input.RecoveredInst")),
		}
		return Merge(
			context.Background(),
			ooicarbon.RefDes(Cfg.GetString("RefDes")),
			os.ExpandEnv(Cfg.GetString("Deployments.File")),
			inputs,
			outputFile,
			Cfg.GetString("LocationName"),
			GetStringMapString("OutputVariables", Cfg),
			GetStringMapString("VariableUnits", Cfg),
			m2mClient(Cfg),
			outChan,
		)
	},
	DisableAutoGenTag: true,
}
