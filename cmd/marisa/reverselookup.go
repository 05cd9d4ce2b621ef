// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func reverseLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reverse-lookup <dict>",
		Short: "per stdin line (an integer id), emit <id>\\t<key>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := loggerFrom(cmd)
			trie, err := openDict(args[0])
			if err != nil {
				return err
			}
			defer trie.Close()

			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := scanner.Text()
				id, err := strconv.Atoi(line)
				if err != nil {
					return fmt.Errorf("marisa reverse-lookup: bad id %q: %w", line, err)
				}
				key, err := trie.ReverseLookup(id)
				if err != nil {
					return fmt.Errorf("marisa reverse-lookup: %w", err)
				}
				fmt.Fprintf(out, "%d\t%s\n", id, key)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("marisa reverse-lookup: read stdin: %w", err)
			}
			log.Debugw("reverse-lookup done")
			return nil
		},
	}
	return cmd
}
