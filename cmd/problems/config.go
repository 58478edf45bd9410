// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/z5labs/outcome/apiclient"
	"github.com/z5labs/outcome/app"
	"github.com/z5labs/outcome/config"
	"github.com/z5labs/outcome/module"
	"github.com/z5labs/outcome/problem"
)

//go:embed default_config.yaml
var defaultConfig []byte

// Config is read from the embedded defaults, the optional --config
// file, OUTCOME_* environment variables and finally command flags.
type Config struct {
	Development bool `config:"development"`

	Problem problem.Config `config:"problem"`

	HTTP struct {
		Port uint `config:"port"`
	} `config:"http"`

	Tracing struct {
		app.TracingConfig `config:",squash"`

		Stdout bool `config:"stdout"`
	} `config:"tracing"`

	Client apiclient.Config `config:"client"`
}

func configSources(path string, overrides config.Map) ([]config.Source, error) {
	srcs := []config.Source{
		config.FromYaml(config.RenderTextTemplate(bytes.NewReader(defaultConfig))),
	}
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		src, err := config.FromFile(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}
	srcs = append(srcs, config.FromEnv("OUTCOME"))
	if len(overrides) > 0 {
		srcs = append(srcs, overrides)
	}
	return srcs, nil
}

func readConfig(path string, overrides config.Map) (Config, error) {
	var cfg Config
	srcs, err := configSources(path, overrides)
	if err != nil {
		return cfg, err
	}

	m, err := config.Read(srcs...)
	if err != nil {
		return cfg, app.ConfigReadError{Cause: err}
	}
	err = m.Unmarshal(&cfg)
	if err != nil {
		return cfg, app.ConfigUnmarshalError{Cause: err}
	}
	return cfg, nil
}

var registryModule = module.New(
	"problem registry",
	module.BuilderFunc[problem.Config, *problem.Registry](func(ctx context.Context, cfg problem.Config) (*problem.Registry, error) {
		return problem.NewRegistry(cfg, problem.AppDefinitions(), problem.GenerateInstances())
	}),
)
