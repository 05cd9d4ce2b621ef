// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type dumpEntry struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
}

func dumpCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dump <dict>",
		Short: "enumerate every stored key in id order",
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

			n := trie.NumKeys()
			if asJSON {
				entries := make([]dumpEntry, 0, n)
				for id := range n {
					key, err := trie.ReverseLookup(id)
					if err != nil {
						return fmt.Errorf("marisa dump: %w", err)
					}
					entries = append(entries, dumpEntry{ID: id, Key: string(key)})
				}
				enc := json.NewEncoder(out)
				if err := enc.Encode(entries); err != nil {
					return fmt.Errorf("marisa dump: encode json: %w", err)
				}
			} else {
				for id := range n {
					key, err := trie.ReverseLookup(id)
					if err != nil {
						return fmt.Errorf("marisa dump: %w", err)
					}
					fmt.Fprintf(out, "%d\t%s\n", id, key)
				}
			}
			log.Debugw("dump done", "num_keys", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit a JSON array of {id,key} objects instead of TSV lines")
	return cmd
}
