// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/z5labs/outcome/apiclient"
	"github.com/z5labs/outcome/problem"
	"github.com/z5labs/outcome/result"

	"github.com/spf13/cobra"
)

func newFetchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <base-url> [id]",
		Short: "Fetch problem ids, or the schema of one problem, from a remote error info API",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := readConfig(flags.configPath, nil)
			if err != nil {
				return err
			}

			logHandler := flags.logHandler(cmd)
			reg, err := registryModule.Build(ctx, cfg.Problem)
			if err != nil {
				return err
			}
			tr, err := problem.NewTransformer(reg, problem.NewOTelReporter(problem.LogHandler(logHandler)))
			if err != nil {
				return err
			}

			clientCfg := cfg.Client
			clientCfg.BaseURL = args[0]
			client, err := apiclient.Module("error-info", tr, apiclient.LogHandler(logHandler)).Build(ctx, clientCfg)
			if err != nil {
				return err
			}

			var res result.Result[any, problem.Problem]
			if len(args) == 1 {
				res = result.Map(
					apiclient.GetJSON[[]string](ctx, client, problem.ErrorInfoPath),
					func(ids []string) any { return ids },
				)
			} else {
				res = result.Map(
					apiclient.GetJSON[problem.SchemaInfo](ctx, client, problem.ErrorInfoPath+"/"+url.PathEscape(args[1])),
					func(info problem.SchemaInfo) any { return info },
				)
			}

			v, p, ok := res.Get()
			if !ok {
				enc := json.NewEncoder(cmd.ErrOrStderr())
				enc.SetIndent("", "  ")
				enc.Encode(p)
				return p
			}
			if ids, isList := v.([]string); isList {
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
}
