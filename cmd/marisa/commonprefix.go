// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
)

func commonPrefixSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "common-prefix-search <dict>",
		Short: "per stdin line, emit every stored key that is a prefix of the query",
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
				query := scanner.Text()
				var matches []string
				agent := trie.CommonPrefixSearch([]byte(query))
				for agent.Next() {
					matches = append(matches, fmt.Sprintf("%d\t%s\t%s", agent.ID(), agent.Key(), query))
				}
				fmt.Fprintln(out, len(matches))
				for _, m := range matches {
					fmt.Fprintln(out, m)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("marisa common-prefix-search: read stdin: %w", err)
			}
			log.Debugw("common-prefix-search done")
			return nil
		},
	}
	return cmd
}
