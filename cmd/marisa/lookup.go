// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
)

func lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <dict>",
		Short: "per stdin line, emit <key_id>\\t<key> or -1\\t<key>",
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
			var hits, misses int
			for scanner.Scan() {
				key := scanner.Text()
				if id, ok := trie.Lookup([]byte(key)); ok {
					fmt.Fprintf(out, "%d\t%s\n", id, key)
					hits++
				} else {
					fmt.Fprintf(out, "-1\t%s\n", key)
					misses++
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("marisa lookup: read stdin: %w", err)
			}
			log.Debugw("lookup done", "hits", hits, "misses", misses)
			return nil
		},
	}
	return cmd
}
