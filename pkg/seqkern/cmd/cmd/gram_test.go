// Copyright 2026 Strandlab, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseSequences(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    [][]int
		wantErr bool
	}{
		{
			name: "two sequences",
			args: []string{"3,2,1,7,5", "3,2,3,4,2"},
			want: [][]int{{3, 2, 1, 7, 5}, {3, 2, 3, 4, 2}},
		},
		{
			name: "single token",
			args: []string{"4"},
			want: [][]int{{4}},
		},
		{
			name: "spaces around tokens",
			args: []string{"1, 2, 3"},
			want: [][]int{{1, 2, 3}},
		},
		{
			name:    "non-numeric token",
			args:    []string{"1,x,3"},
			wantErr: true,
		},
		{
			name:    "empty token",
			args:    []string{"1,,3"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSequences(tc.args)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGramCommand(t *testing.T) {
	out, err := execute(t, "gram", "--vocab-size", "8", "3,2,1,7,5", "3,2,3,4,2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	a := math.Ln2
	wantDiag := fmt.Sprintf("%.6f", math.Pow((1+a)/a, a))
	wantOff := fmt.Sprintf("%.6f", math.Pow((1+a)/(a+3), a))

	row := strings.Fields(lines[0])
	require.Len(t, row, 2)
	assert.Equal(t, wantDiag, row[0])
	assert.Equal(t, wantOff, row[1])

	// Symmetric matrix: second row mirrors the first.
	assert.Equal(t, strings.Fields(lines[0])[1], strings.Fields(lines[1])[0])
}

func TestGramCommandDiagonal(t *testing.T) {
	defer func() { diagOnly = false }()

	out, err := execute(t, "gram", "--vocab-size", "8", "--alpha", "1", "--beta", "2", "--diag", "3,2,1,7,5", "3,2,3,4,2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, "4.000000", line)
	}
}

func TestGramCommandMissingVocab(t *testing.T) {
	_, err := execute(t, "gram", "--vocab-size", "0", "1,2,3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vocab size")
}

func TestKernelsCommand(t *testing.T) {
	out, err := execute(t, "kernels")
	require.NoError(t, err)
	assert.Contains(t, out, "hamming-imq")
	assert.Contains(t, out, "hamming-imq-scaled")
}
