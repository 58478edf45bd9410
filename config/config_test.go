// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/z5labs/outcome/config/key"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type problemConfig struct {
	BaseURI string `config:"baseUri"`
	Version string `config:"version"`
	Service string `config:"service"`
}

type serverConfig struct {
	Port    uint          `config:"port"`
	Timeout time.Duration `config:"timeout"`
	Dev     bool          `config:"development"`
	Problem problemConfig `config:"problem"`
}

func TestRead(t *testing.T) {
	t.Run("will return a SourceError", func(t *testing.T) {
		t.Run("if a source fails to apply", func(t *testing.T) {
			applyErr := errors.New("failed to apply")

			_, err := Read(Map{}, SourceFunc(func(Store) error {
				return applyErr
			}))

			var serr SourceError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			if !assert.Equal(t, 1, serr.Index) {
				return
			}
			if !assert.ErrorIs(t, err, applyErr) {
				return
			}
		})

		t.Run("if the yaml is invalid", func(t *testing.T) {
			_, err := Read(FromYaml(strings.NewReader("port: [")))

			var ferr InvalidFormatError
			if !assert.ErrorAs(t, err, &ferr) {
				return
			}
			if !assert.Equal(t, YAML, ferr.Format) {
				return
			}
		})

		t.Run("if the json is invalid", func(t *testing.T) {
			_, err := Read(FromJson(strings.NewReader(`{"port":`)))

			var ferr InvalidFormatError
			if !assert.ErrorAs(t, err, &ferr) {
				return
			}
			if !assert.Equal(t, JSON, ferr.Format) {
				return
			}
		})
	})

	t.Run("will let later sources override earlier ones", func(t *testing.T) {
		yml := `
port: 8080
timeout: 5s
problem:
  baseUri: https://errors.example.com
  version: "1"
  service: accounts
`
		env := Env{
			prefix: "OUTCOME",
			environ: func() []string {
				return []string{
					"OUTCOME_PORT=9090",
					"OUTCOME_PROBLEM_SERVICE=billing",
					"OUTCOME_DEVELOPMENT=true",
					"HOME=/root",
				}
			},
		}

		m, err := Read(FromYaml(strings.NewReader(yml)), env)
		require.NoError(t, err)

		var cfg serverConfig
		err = m.Unmarshal(&cfg)
		require.NoError(t, err)

		expected := serverConfig{
			Port:    9090,
			Timeout: 5 * time.Second,
			Dev:     true,
			Problem: problemConfig{
				BaseURI: "https://errors.example.com",
				Version: "1",
				Service: "billing",
			},
		}
		if diff := cmp.Diff(expected, cfg); diff != "" {
			t.Errorf("unexpected config (-want +got):\n%s", diff)
		}
	})

	t.Run("will read json", func(t *testing.T) {
		m, err := Read(FromJson(strings.NewReader(`{"problem":{"baseUri":"https://e.com","version":"2"}}`)))
		require.NoError(t, err)

		var cfg serverConfig
		err = m.Unmarshal(&cfg)
		require.NoError(t, err)
		require.Equal(t, "2", cfg.Problem.Version)
	})

	t.Run("will read a templated file", func(t *testing.T) {
		fsys := fstest.MapFS{
			"config.yaml": &fstest.MapFile{
				Data: []byte(`problem:
  service: {{ env "OUTCOME_TEST_UNSET_VARIABLE" | default "accounts" }}
`),
			},
		}

		m, err := Read(FromYaml(RenderTextTemplate(NewFileReader(fsys, "config.yaml"))))
		require.NoError(t, err)

		var cfg serverConfig
		err = m.Unmarshal(&cfg)
		require.NoError(t, err)
		require.Equal(t, "accounts", cfg.Problem.Service)
	})
}

func TestManager_Unmarshal(t *testing.T) {
	t.Run("will fail to coerce an invalid duration", func(t *testing.T) {
		m, err := Read(Map{"timeout": "five seconds"})
		require.NoError(t, err)

		var cfg serverConfig
		err = m.Unmarshal(&cfg)
		require.ErrorContains(t, err, "failed to coerce value from string to time.Duration")
	})
}

type myKeyer string

func (myKeyer) Key() string {
	return "my key"
}

func TestMemoryStore_Set(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if an unknown key.Keyer is used", func(t *testing.T) {
			store := make(memoryStore)
			err := store.Set(myKeyer("hello"), "world")

			var ierr UnknownKeyerError
			if !assert.ErrorAs(t, err, &ierr) {
				return
			}
			if !assert.NotEmpty(t, ierr.Error()) {
				return
			}
		})

		t.Run("if an empty key.Chain is used", func(t *testing.T) {
			store := make(memoryStore)
			err := store.Set(key.Chain{}, "world")

			var ierr EmptyKeyChainError
			if !assert.ErrorAs(t, err, &ierr) {
				return
			}
		})

		t.Run("if a nested key is set below a plain value", func(t *testing.T) {
			store := make(memoryStore)
			err := store.Set(key.Name("hello"), "world")
			if !assert.Nil(t, err) {
				return
			}

			err = store.Set(key.Chain{key.Name("hello"), key.Name("bob")}, "world")

			var ierr UnexpectedKeyValueTypeError
			if !assert.ErrorAs(t, err, &ierr) {
				return
			}
		})
	})

	t.Run("will match keys case insensitively", func(t *testing.T) {
		store := make(memoryStore)
		err := store.Set(key.Chain{key.Name("problem"), key.Name("baseUri")}, "a")
		require.NoError(t, err)
		err = store.Set(key.Chain{key.Name("PROBLEM"), key.Name("baseuri")}, "b")
		require.NoError(t, err)

		require.Equal(t, memoryStore{"problem": map[string]any{"baseUri": "b"}}, store)
	})
}
