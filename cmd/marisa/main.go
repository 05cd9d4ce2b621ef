// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command marisa is the thin CLI front-end over the marisa dictionary
// engine: build, lookup, common-prefix-search, predictive-search,
// reverse-lookup and dump. It only frames stdin/stdout and calls the core
// API; the actual trie construction and search logic live in the root
// package and internal/louds.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
)

type loggerKey struct{}

func loggerFrom(cmd *cobra.Command) *zap.SugaredLogger {
	l, _ := cmd.Context().Value(loggerKey{}).(*zap.SugaredLogger)
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "marisa",
		Short:         "static, read-mostly dictionary engine built on a recursive LOUDS trie",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var logger *zap.Logger
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			if err != nil {
				return fmt.Errorf("marisa: build logger: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger.Sugar()))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable development (human-readable, debug-level) logging")

	root.AddCommand(
		buildCmd(),
		lookupCmd(),
		commonPrefixSearchCmd(),
		predictiveSearchCmd(),
		reverseLookupCmd(),
		dumpCmd(),
	)
	return root
}
