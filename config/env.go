// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"

	"github.com/z5labs/outcome/config/key"
)

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a Source which will apply its config from the
// environment variables of the current process named PREFIX_*. The
// remainder of each name is split on underscores into nested keys, so
// OUTCOME_PROBLEM_SERVICE sets problem.service. An empty prefix applies
// every variable as a top level key.
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the Source interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if src.prefix == "" {
			err := store.Set(key.Name(k), v)
			if err != nil {
				return err
			}
			continue
		}

		rest, ok := strings.CutPrefix(k, src.prefix+"_")
		if !ok {
			continue
		}
		chain := key.Split(strings.ToLower(rest), "_")
		if len(chain) == 0 {
			continue
		}
		err := store.Set(chain, v)
		if err != nil {
			return err
		}
	}
	return nil
}
