// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"encoding/json"

	"github.com/z5labs/outcome/problem"

	"github.com/spf13/cobra"
)

func newSchemaCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <id>",
		Short: "Print the JSON schema info of a registered problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := withRegistry(cmd, flags, func(_ context.Context, reg *problem.Registry) (problem.SchemaInfo, error) {
				info, ok := reg.Schema(args[0])
				if !ok {
					return info, problem.UnknownProblemError{ID: args[0]}
				}
				return info, nil
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
