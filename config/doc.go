// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config reads layered configuration sources into typed structs.
//
// Sources are applied in order, later sources overriding keys set by
// earlier ones. Keys are matched case insensitively so an environment
// variable can override a value read from a YAML file:
//
//	src, err := config.FromFile(os.DirFS("."), "config.yaml")
//	if err != nil {
//	    return err
//	}
//
//	m, err := config.Read(
//	    src,
//	    config.FromEnv("OUTCOME"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	var cfg Config
//	err = m.Unmarshal(&cfg)
//
// Files are rendered as text templates and decoded as JSON or YAML by
// extension. Struct fields are mapped with the "config" tag.
package config
