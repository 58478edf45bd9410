// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/z5labs/outcome/config/key"
	"github.com/z5labs/outcome/internal/try"

	"gopkg.in/yaml.v3"
)

// Format names the encoding of a document read by [Encoded].
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// InvalidFormatError occurs if a document does not decode as its [Format].
type InvalidFormatError struct {
	Format Format
	Cause  error
}

// Error implements the error interface.
func (e InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Format, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidFormatError) Unwrap() error {
	return e.Cause
}

// UnsupportedFormatError occurs when [FromFile] cannot tell the [Format]
// of a file from its extension.
type UnsupportedFormatError struct {
	Path string
}

// Error implements the error interface.
func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported config file format: %s", e.Path)
}

// Encoded is a [Source] decoding a single JSON or YAML document. A blank
// document applies nothing, so an empty overrides file is valid.
type Encoded struct {
	format Format
	r      io.Reader
}

// FromJson returns a source which will apply its config
// from JSON values parsed from the given io.Reader.
func FromJson(r io.Reader) Encoded {
	return Encoded{format: JSON, r: r}
}

// FromYaml returns a source which will apply its config
// from YAML values parsed from the given io.Reader.
func FromYaml(r io.Reader) Encoded {
	return Encoded{format: YAML, r: r}
}

// FromFile returns a source reading path from fsys. The file is rendered
// with [RenderTextTemplate] and decoded as JSON or YAML by its extension.
func FromFile(fsys fs.FS, name string) (Encoded, error) {
	r := RenderTextTemplate(NewFileReader(fsys, name))
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FromJson(r), nil
	case ".yaml", ".yml":
		return FromYaml(r), nil
	default:
		return Encoded{}, UnsupportedFormatError{Path: name}
	}
}

// Apply implements the Source interface.
func (src Encoded) Apply(store Store) (err error) {
	defer try.Close(&err, src.r)

	b, err := io.ReadAll(src.r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	m := make(map[string]any)
	switch src.format {
	case JSON:
		err = json.Unmarshal(b, &m)
	default:
		err = yaml.Unmarshal(b, &m)
	}
	if err != nil {
		return InvalidFormatError{Format: src.format, Cause: err}
	}
	return Map(m).Apply(store)
}

// Map is an ordinary map[string]any but implements the Source interface.
type Map map[string]any

// Apply implements the Source interface. It recursively walks the underlying
// map to find key value pairs to set on the given store.
func (m Map) Apply(store Store) error {
	return walkMap(m, store, nil)
}

func walkMap(m map[string]any, store Store, chain key.Chain) error {
	for k, v := range m {
		next := append(chain[:len(chain):len(chain)], key.Name(k))

		var err error
		switch x := v.(type) {
		case map[string]any:
			err = walkMap(x, store, next)
		case Map:
			err = walkMap(x, store, next)
		default:
			err = store.Set(next, x)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// FileReader is an io.Reader that opens its file on the first Read.
type FileReader struct {
	path string

	openOnce sync.Once
	openErr  error
	fs       fs.FS
	file     io.ReadCloser
}

// NewFileReader configures a FileReader.
func NewFileReader(fsys fs.FS, path string) *FileReader {
	return &FileReader{
		path: path,
		fs:   fsys,
	}
}

// Read implements the io.Reader interface.
func (r *FileReader) Read(b []byte) (int, error) {
	r.openOnce.Do(func() {
		r.file, r.openErr = r.fs.Open(r.path)
	})
	if r.openErr != nil {
		return 0, r.openErr
	}
	return r.file.Read(b)
}

// Close implements the io.Closer interface.
func (r *FileReader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	return err
}
