// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaissmai/marisa"
)

func buildCmd() *cobra.Command {
	var (
		numTries   int
		tailMode   string
		weightMode bool
		cacheLevel string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "read keys from stdin (one per line) and write a dictionary file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := loggerFrom(cmd)

			tm, err := parseTailMode(tailMode)
			if err != nil {
				return err
			}
			cl, err := parseCacheLevel(cacheLevel)
			if err != nil {
				return err
			}
			order := marisa.LabelOrder
			if weightMode {
				order = marisa.WeightOrder
			}

			keyset := marisa.NewKeyset()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := scanner.Text()
				if line == "" {
					continue
				}
				keyset.Add([]byte(line), 1)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("marisa build: read stdin: %w", err)
			}
			log.Debugw("read keys", "count", keyset.Len())

			trie, err := marisa.Build(keyset,
				marisa.WithNumTries(numTries),
				marisa.WithTailMode(tm),
				marisa.WithNodeOrder(order),
				marisa.WithCacheLevel(cl),
			)
			if err != nil {
				return fmt.Errorf("marisa build: %w", err)
			}

			if outFile == "" {
				return fmt.Errorf("marisa build: -o out_file is required")
			}
			if err := marisa.Save(trie, outFile); err != nil {
				return fmt.Errorf("marisa build: save %s: %w", outFile, err)
			}

			stat, err := trie.Stat()
			if err != nil {
				return fmt.Errorf("marisa build: %w", err)
			}
			log.Infow("built dictionary", "out", outFile, "num_keys", stat.NumKeys, "num_nodes", stat.NumNodes, "io_size", stat.IOSize)
			return nil
		},
	}

	cmd.Flags().IntVarP(&numTries, "num-tries", "n", 1, "recursion depth of the nested-trie family, in [1,16]")
	cmd.Flags().StringVarP(&tailMode, "tail-mode", "t", "auto", "tail storage mode: auto, text, or binary")
	cmd.Flags().BoolVarP(&weightMode, "weight-order", "w", false, "order siblings by descending weight instead of ascending label")
	cmd.Flags().StringVarP(&cacheLevel, "cache-level", "c", "none", "cache table size: none, tiny, small, normal, large, or huge")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output dictionary file (required)")
	return cmd
}

func parseTailMode(s string) (marisa.TailMode, error) {
	switch s {
	case "auto", "":
		return marisa.AutoTailMode, nil
	case "text":
		return marisa.TextTailMode, nil
	case "binary":
		return marisa.BinaryTailMode, nil
	default:
		return 0, fmt.Errorf("marisa build: unknown tail mode %q", s)
	}
}

func parseCacheLevel(s string) (marisa.CacheLevel, error) {
	switch s {
	case "none", "":
		return marisa.CacheNone, nil
	case "tiny":
		return marisa.CacheTiny, nil
	case "small":
		return marisa.CacheSmall, nil
	case "normal":
		return marisa.CacheNormal, nil
	case "large":
		return marisa.CacheLarge, nil
	case "huge":
		return marisa.CacheHuge, nil
	default:
		return 0, fmt.Errorf("marisa build: unknown cache level %q", s)
	}
}
