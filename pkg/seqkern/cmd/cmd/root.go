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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seqkern",
	Short: "Evaluate covariance kernels over discrete sequences",
	Long: `Compute inverse multiquadratic Hamming kernel matrices over
one-hot encoded discrete sequences, for Gaussian-process modeling.

Examples:
  # Gram matrix of two length-5 sequences over an 8-symbol vocabulary
  seqkern gram --vocab-size 8 3,2,1,7,5 3,2,3,4,2

  # Diagonal mode only
  seqkern gram --vocab-size 8 --diag 3,2,1,7,5 3,2,3,4,2

  # Seed the kernel parameters
  seqkern gram --vocab-size 8 --alpha 1.5 --beta 2 3,2,1,7,5 3,2,3,4,2

  # List registered kernels
  seqkern kernels`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = Version
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file path (e.g. seqkern.yaml)")
	rootCmd.PersistentFlags().
		String("log-level", "info", "set the logging level (e.g. debug, info, warn, error)")
	rootCmd.PersistentFlags().
		String("log-style", "terminal", "set the logging output style (terminal, json, noop)")
	rootCmd.PersistentFlags().
		Int("vocab-size", 0, "vocabulary size sequences are encoded against (required)")
	rootCmd.PersistentFlags().
		String("kernel", "", "registered kernel name (default: hamming-imq)")
	rootCmd.PersistentFlags().
		Float64("alpha", 0, "alpha seed; 0 keeps the kernel default (ln 2)")
	rootCmd.PersistentFlags().
		Float64("beta", 0, "beta seed; 0 keeps the kernel default (ln 2)")
	rootCmd.PersistentFlags().
		Int("workers", 0, "concurrent Gram row blocks; 0 uses all CPUs")

	// Bind to viper
	mustBindFlag("config", "config")
	mustBindFlag("log-level", "log.level")
	mustBindFlag("log-style", "log.style")
	mustBindFlag("vocab-size", "vocab_size")
	mustBindFlag("kernel", "kernel")
	mustBindFlag("alpha", "alpha")
	mustBindFlag("beta", "beta")
	mustBindFlag("workers", "workers")

	// Default values
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.style", "terminal")
}

func mustBindFlag(flagName, viperKey string) {
	if err := viper.BindPFlag(viperKey, rootCmd.PersistentFlags().Lookup(flagName)); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			fmt.Fprintf(os.Stderr, "Config file not found: %s\n", cfgFile)
			os.Exit(1)
		}

		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config file in home directory and current directory
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".seqkern")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("seqkern")
	}

	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("SEQKERN")                          // SEQKERN_ prefix for env vars
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace . with _ in env var names
	viper.AutomaticEnv()                                   // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		// Only error if user explicitly specified a config file
		fmt.Fprintf(os.Stderr, "Error reading config file [%s]: %v\n", viper.ConfigFileUsed(), err)
		os.Exit(1)
	}
}
