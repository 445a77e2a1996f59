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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/oceandata/ooicarbon"
	"github.com/oceandata/ooicarbon/m2m"
)

// m2mClient builds an M2M client from a viper configuration. Credentials
// are passed through; they are not stored anywhere.
func m2mClient(cfg *viper.Viper) *m2m.Client {
	return &m2m.Client{
		BaseURL: os.ExpandEnv(cfg.GetString("M2M.BaseURL")),
		Login:   os.ExpandEnv(cfg.GetString("M2M.Login")),
		Key:     os.ExpandEnv(cfg.GetString("M2M.Key")),
	}
}

// streamFilter builds a stream filter from a viper configuration.
func streamFilter(cfg *viper.Viper) ooicarbon.StreamFilter {
	return ooicarbon.StreamFilter{
		ExcludeSubstrings: expandStringSlice(cfg.GetStringSlice("StreamFilter.ExcludeSubstrings")),
		MinDataLevel:      cfg.GetInt("StreamFilter.MinDataLevel"),
	}
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="merged.nc")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		url, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		_, err = OpenBucket(context.TODO(), url.Scheme+"://"+url.Host)
		if err != nil {
			return f, fmt.Errorf("ooicarbon: error when checking OutputFile location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("ooicarbon: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// outputWriter opens the named file for writing, or returns the command's
// standard output when the name is empty.
func outputWriter(cmd *cobra.Command, f string) (io.Writer, func() error, error) {
	if f == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := checkOutputFile(f)
	if err != nil {
		return nil, nil, err
	}
	w, err := os.Create(f)
	if err != nil {
		return nil, nil, fmt.Errorf("ooicarbon: creating output file: %v", err)
	}
	return w, w.Close, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for getStringMapString variable %s: %#v", varName, i))
	}
}
