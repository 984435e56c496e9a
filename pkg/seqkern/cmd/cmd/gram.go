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
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/strandlab/seqkern/pkg/seqkern"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/logging"
)

var diagOnly bool

var gramCmd = &cobra.Command{
	Use:   "gram SEQUENCE [SEQUENCE...]",
	Short: "Compute the Gram matrix of comma-separated token sequences",
	Long: `One-hot encode the argument sequences against the configured
vocabulary and print the kernel Gram matrix between them, one row per line.

Each SEQUENCE is comma-separated integer tokens in [0, vocab-size); all
sequences must share the same length.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGram,
}

func init() {
	rootCmd.AddCommand(gramCmd)

	gramCmd.Flags().BoolVar(&diagOnly, "diag", false, "print only the self-comparison diagonal")
}

func runGram(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(&logging.Config{
		Level: logging.Level(viper.GetString("log.level")),
		Style: logging.Style(viper.GetString("log.style")),
	})
	defer func() {
		_ = logger.Sync()
	}()

	seqs, err := parseSequences(args)
	if err != nil {
		return err
	}

	cfg := seqkern.Config{
		VocabSize: viper.GetInt("vocab_size"),
		Kernel:    viper.GetString("kernel"),
		Alpha:     viper.GetFloat64("alpha"),
		Beta:      viper.GetFloat64("beta"),
		Workers:   viper.GetInt("workers"),
	}
	svc, err := seqkern.Open(cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if diagOnly {
		diag, err := svc.GramDiagonal(cmd.Context(), seqs)
		if err != nil {
			return err
		}
		for _, v := range diag {
			fmt.Fprintf(out, "%.6f\n", v)
		}
		return nil
	}

	gram, err := svc.Gram(cmd.Context(), seqs)
	if err != nil {
		return err
	}
	rows, cols := gram.Dims()
	for i := 0; i < rows; i++ {
		fields := make([]string, cols)
		for j := 0; j < cols; j++ {
			fields[j] = fmt.Sprintf("%.6f", gram.At(i, j))
		}
		fmt.Fprintln(out, strings.Join(fields, " "))
	}
	return nil
}

// parseSequences turns argv tokens like "3,2,1,7,5" into token sequences.
func parseSequences(args []string) ([][]int, error) {
	seqs := make([][]int, len(args))
	for i, arg := range args {
		parts := strings.Split(arg, ",")
		seq := make([]int, len(parts))
		for j, part := range parts {
			tok, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("parsing sequence %q: %w", arg, err)
			}
			seq[j] = tok
		}
		seqs[i] = seq
	}
	return seqs, nil
}
