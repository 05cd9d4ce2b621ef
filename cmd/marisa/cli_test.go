// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestBuildThenLookup(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "dict.marisa")

	runCLI(t, "a\napp\napple\napplication\napply\nbanana\nband\n", "build", "-o", dict)

	got := runCLI(t, "app\nbanana\nmissing\n", "lookup", dict)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasSuffix(lines[0], "\tapp"))
	require.True(t, strings.HasSuffix(lines[1], "\tbanana"))
	require.Equal(t, "-1\tmissing", lines[2])
}

func TestBuildThenDump(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "dict.marisa")
	words := []string{"a", "app", "apple"}
	runCLI(t, strings.Join(words, "\n")+"\n", "build", "-o", dict)

	got := runCLI(t, "", "dump", dict)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, len(words))

	var dumped []string
	for _, l := range lines {
		parts := strings.SplitN(l, "\t", 2)
		require.Len(t, parts, 2)
		dumped = append(dumped, parts[1])
	}
	require.ElementsMatch(t, words, dumped)
}

func TestBuildThenDumpJSON(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "dict.marisa")
	runCLI(t, "a\nab\nabc\n", "build", "-o", dict)

	got := runCLI(t, "", "dump", dict, "--json")
	require.Contains(t, got, `"key":"a"`)
	require.Contains(t, got, `"key":"ab"`)
	require.Contains(t, got, `"key":"abc"`)
}

func TestBuildThenCommonPrefixSearch(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "dict.marisa")
	runCLI(t, "a\napp\napplication\n", "build", "-o", dict)

	got := runCLI(t, "applications\n", "common-prefix-search", dict)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Equal(t, "3", lines[0])
	require.Len(t, lines, 4)
}

func TestBuildThenPredictiveSearch(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "dict.marisa")
	runCLI(t, "app\napple\napplication\napply\nbanana\n", "build", "-o", dict)

	got := runCLI(t, "app\n", "predictive-search", dict)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Equal(t, "4", lines[0])
}

func TestBuildThenReverseLookup(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "dict.marisa")
	runCLI(t, "a\napp\napple\n", "build", "-o", dict)

	lookedUp := runCLI(t, "app\n", "lookup", dict)
	id := strings.SplitN(lookedUp, "\t", 2)[0]

	got := runCLI(t, id+"\n", "reverse-lookup", dict)
	require.Equal(t, id+"\tapp\n", got)
}

func TestBuildRejectsMissingOutFlag(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"build"})
	cmd.SetIn(strings.NewReader("a\n"))
	cmd.SetOut(&bytes.Buffer{})
	require.Error(t, cmd.Execute())
}
