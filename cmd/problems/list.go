// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"

	"github.com/z5labs/outcome/problem"

	"github.com/spf13/cobra"
)

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the id of every registered problem, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := withRegistry(cmd, flags, func(_ context.Context, reg *problem.Registry) ([]string, error) {
				return reg.IDs(), nil
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(w, id)
			}
			return nil
		},
	}
}
