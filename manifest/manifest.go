// Package manifest builds compound modules and hosts from declarative
// manifests written in YAML, TOML or HCL.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// Manifest describes a set of modules and, optionally, the host they are
// attached to.
type Manifest struct {
	Modules []ModuleSpec `yaml:"modules" toml:"modules" hcl:"module,block"`
	Host    *HostSpec    `yaml:"host" toml:"host" hcl:"host,block"`
}

type ModuleSpec struct {
	Name    string   `yaml:"name" toml:"name" hcl:"name,label"`
	Include []string `yaml:"include" toml:"include" hcl:"include,optional"`
	// Guard is "", "standalone" or "attach".
	Guard      string          `yaml:"guard" toml:"guard" hcl:"guard,optional"`
	Operations []OperationSpec `yaml:"operations" toml:"operations" hcl:"operation,block"`
}

type OperationSpec struct {
	Name    string     `yaml:"name" toml:"name" hcl:"name,label"`
	Private bool       `yaml:"private" toml:"private" hcl:"private,optional"`
	Steps   []StepSpec `yaml:"steps" toml:"steps" hcl:"step,block"`
}

// StepSpec is one action of an operation body. Exactly one of Value, Call,
// Get or Set is given; Set may carry Value as the value to store.
type StepSpec struct {
	Value *string  `yaml:"value" toml:"value" hcl:"value,optional"`
	Call  string   `yaml:"call" toml:"call" hcl:"call,optional"`
	Args  []string `yaml:"args" toml:"args" hcl:"args,optional"`
	Get   string   `yaml:"get" toml:"get" hcl:"get,optional"`
	Set   string   `yaml:"set" toml:"set" hcl:"set,optional"`
}

type HostSpec struct {
	Kind       string          `yaml:"kind" toml:"kind" hcl:"kind,label"`
	Attach     []string        `yaml:"attach" toml:"attach" hcl:"attach,optional"`
	Operations []OperationSpec `yaml:"operations" toml:"operations" hcl:"operation,block"`
}

// FormatFor picks the manifest format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("manifest: unsupported file extension %q", filepath.Ext(path))
	}
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func Decode(format Format, data []byte) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml manifest: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("decode toml manifest: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml manifest: unknown keys %v", undecoded)
		}
	case FormatHCL:
		if err := hclsimple.Decode("manifest.hcl", data, nil, &m); err != nil {
			return nil, fmt.Errorf("decode hcl manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("manifest: unknown format %q", format)
	}
	return &m, nil
}
