// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/z5labs/outcome/app"
	"github.com/z5labs/outcome/config"
	"github.com/z5labs/outcome/httpserver"
	"github.com/z5labs/outcome/internal/slogfield"
	"github.com/z5labs/outcome/module"
	"github.com/z5labs/outcome/problem"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var port uint

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the error info API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := config.Map{}
			if cmd.Flags().Changed("port") {
				overrides["http"] = map[string]any{"port": port}
			}
			srcs, err := configSources(flags.configPath, overrides)
			if err != nil {
				return err
			}

			opts := serverOptions{
				log:   flags.logHandler(cmd),
				spans: cmd.ErrOrStderr(),
			}
			b := module.BuilderFunc[Config, app.App](func(ctx context.Context, cfg Config) (app.App, error) {
				return newServer(ctx, cfg, opts)
			})
			return app.Run[Config](cmd.Context(), b, srcs...)
		},
	}
	cmd.Flags().UintVar(&port, "port", 8080, "port to listen on")
	return cmd
}

type serverOptions struct {
	log      slog.Handler
	spans    io.Writer
	listener net.Listener
}

type server struct {
	cfg      Config
	log      *slog.Logger
	registry *module.Provider[problem.Config, *problem.Registry]
	rt       *httpserver.Runtime
	shutdown app.LifecycleHook
}

func newServer(ctx context.Context, cfg Config, opts serverOptions) (*server, error) {
	var tracingOpts []app.TracingOption
	if cfg.Tracing.Stdout {
		tracingOpts = append(tracingOpts, app.WriteSpans(opts.spans))
	}
	shutdown, err := app.InitTracing(ctx, cfg.Tracing.TracingConfig, tracingOpts...)
	if err != nil {
		return nil, err
	}

	registry := module.NewProvider(
		registryModule,
		module.ProviderLogHandler(opts.log),
		module.ProviderDevelopment(cfg.Development),
	)

	errorInfo := func(h func(*problem.Registry) http.Handler) http.Handler {
		return registry.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(module.Use(r.Context(), registryModule)).ServeHTTP(w, r)
		}))
	}

	rtOpts := []httpserver.RuntimeOption{
		httpserver.ListenOnPort(cfg.HTTP.Port),
		httpserver.LogHandler(opts.log),
		httpserver.Readiness(registry),
		httpserver.Handle(
			http.MethodGet+" "+problem.ErrorInfoPath,
			errorInfo((*problem.Registry).ListProblemsHandler),
		),
		httpserver.Handle(
			http.MethodGet+" "+problem.ErrorInfoSchemaPath,
			errorInfo((*problem.Registry).ProblemSchemaHandler),
		),
	}
	if opts.listener != nil {
		rtOpts = append(rtOpts, httpserver.Listener(opts.listener))
	}

	return &server{
		cfg:      cfg,
		log:      slog.New(opts.log),
		registry: registry,
		rt:       httpserver.NewRuntime(rtOpts...),
		shutdown: shutdown,
	}, nil
}

// Run loads the registry and serves until ctx is cancelled. A registry
// which fails to load leaves the server running but not ready.
func (s *server) Run(ctx context.Context) error {
	a := app.WithLifecycleHooks(
		app.Recover(app.RunFunc(func(ctx context.Context) error {
			err := s.registry.Load(ctx, s.cfg.Problem)
			if err != nil {
				s.log.ErrorContext(ctx, "failed to load problem registry", slogfield.Error(err))
			}
			return s.rt.Run(ctx)
		})),
		app.Lifecycle{PostRun: s.shutdown},
	)
	return a.Run(ctx)
}
