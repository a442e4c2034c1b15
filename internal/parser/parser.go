// Package parser loads declaration files produced by the declaration
// collector.
package parser

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"faktgen/internal/decl"
	"faktgen/internal/errors"
)

// Format is a declaration file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension. Unknown extensions
// return the empty format, which makes Parse try YAML then JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	}
	return ""
}

// Parser reads declaration files.
type Parser struct {
	// Strict rejects unknown fields in YAML, JSON and TOML input.
	Strict bool
}

// New creates a new Parser.
func New() *Parser {
	return &Parser{}
}

// ParseFile parses a single declaration file.
func (p *Parser) ParseFile(path string) (*decl.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	file, err := p.Parse(data, FormatFor(path))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	file.Path = path
	for i := range file.Interfaces {
		if file.Interfaces[i].Location.File == "" {
			file.Interfaces[i].Location.File = path
		}
	}
	return file, nil
}

// Parse decodes declaration data in the given format.
func (p *Parser) Parse(data []byte, format Format) (*decl.File, error) {
	var file decl.File
	switch format {
	case FormatYAML:
		if err := p.decodeYAML(data, &file); err != nil {
			return nil, errors.Wrap(err, "parsing YAML declarations")
		}
	case FormatJSON:
		if err := p.decodeJSON(data, &file); err != nil {
			return nil, errors.Wrap(err, "parsing JSON declarations")
		}
	case FormatTOML:
		if err := p.decodeTOML(data, &file); err != nil {
			return nil, errors.Wrap(err, "parsing TOML declarations")
		}
	default:
		// Try YAML first, then JSON
		if err := p.decodeYAML(data, &file); err != nil {
			file = decl.File{}
			if err := p.decodeJSON(data, &file); err != nil {
				return nil, errors.New("unable to parse declarations as YAML or JSON")
			}
		}
	}
	return &file, nil
}

func (p *Parser) decodeYAML(data []byte, out *decl.File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(p.Strict)
	return dec.Decode(out)
}

func (p *Parser) decodeJSON(data []byte, out *decl.File) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if p.Strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(out)
}

func (p *Parser) decodeTOML(data []byte, out *decl.File) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	if p.Strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(out)
}

// Expand resolves doublestar glob patterns (`decls/**/*.yaml`) to a sorted,
// de-duplicated list of files. Patterns without glob characters are kept
// as literal paths so a missing file surfaces as a read error later.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			add(pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "expanding %q", pattern)
		}
		for _, m := range matches {
			if FormatFor(m) != "" {
				add(m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// ParseAll expands patterns and parses every matched file in order.
func (p *Parser) ParseAll(patterns []string) ([]*decl.File, error) {
	paths, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	files := make([]*decl.File, 0, len(paths))
	for _, path := range paths {
		f, err := p.ParseFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
