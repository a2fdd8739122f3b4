// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand_Flags(t *testing.T) {
	cmd := NewParseCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	expectedFlags := []string{
		"--model",
		"--input",
		"--base_dir",
		"--timeseries_dir",
		"--reference_year",
		"--horizon_year",
		"--log_format",
		"--log_level",
		"--metrics_addr",
	}
	for _, flag := range expectedFlags {
		assert.Contains(t, output, flag, "Help missing %q flag", flag)
	}
}

func TestParseCommand_FlagNormalization(t *testing.T) {
	cmd := NewParseCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--base-dir=/data", "--reference-year=2030"}))

	baseDir, err := cmd.Flags().GetString("base_dir")
	require.NoError(t, err)
	assert.Equal(t, "/data", baseDir)

	year, err := cmd.Flags().GetInt("reference_year")
	require.NoError(t, err)
	assert.Equal(t, 2030, year)
}

func TestParseCommand_InvalidConfigFails(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing input",
			args: []string{"parse", "--model", "base", "--reference_year", "2030"},
			want: "input",
		},
		{
			name: "missing model",
			args: []string{"parse", "--input", "in.db", "--reference_year", "2030"},
			want: "model",
		},
		{
			name: "missing reference year",
			args: []string{"parse", "--input", "in.db", "--model", "base"},
			want: "reference year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""

			cmd := NewRootCmd()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want),
				"error %q should mention %q", err.Error(), tt.want)
		})
	}
}

func TestParseCommand_MissingDatabaseFails(t *testing.T) {
	configFile = ""

	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{
		"parse",
		"--input", filepath.Join(t.TempDir(), "absent.db"),
		"--model", "base_model",
		"--reference_year", "2030",
		"--log_format", "text",
	})

	require.Error(t, cmd.Execute())
}
