/*
project.go Saved network projects. JSON is the native format; files ending in .yaml or
.yml are read and written as YAML.
*/

package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohowland/lvnet/internal/pkg/network"
	"gopkg.in/yaml.v3"
)

// VoltageType is the nominal voltage label a project is drawn for.
type VoltageType string

const (
	Voltage230 VoltageType = "230V"
	Voltage400 VoltageType = "400V"
)

// Format is a project file encoding.
type Format int

const (
	JSON Format = iota
	YAML
)

// ErrUnknownVoltageType is returned for a voltage label other than 230V or 400V.
var ErrUnknownVoltageType = errors.New("unknown voltage type")

// Project is a named network with the catalog it was drawn with.
type Project struct {
	Name        string              `json:"name" yaml:"name"`
	VoltageType VoltageType         `json:"voltageType" yaml:"voltageType"`
	Nodes       []network.Node      `json:"nodes" yaml:"nodes"`
	Cables      []network.Cable     `json:"cables" yaml:"cables"`
	CableTypes  []network.CableType `json:"cableTypes,omitempty" yaml:"cableTypes,omitempty"`
}

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Network returns the calculation snapshot of the project. A project without its
// own catalog uses network.DefaultCableTypes.
func (p Project) Network() network.Network {
	types := p.CableTypes
	if len(types) == 0 {
		types = network.DefaultCableTypes()
	}
	return network.Network{Nodes: p.Nodes, Cables: p.Cables, CableTypes: types}
}

// Validate checks the voltage label and the network structure.
func (p Project) Validate() error {
	switch p.VoltageType {
	case "", Voltage230, Voltage400:
	default:
		return fmt.Errorf("%w %q", ErrUnknownVoltageType, p.VoltageType)
	}
	return network.Validate(p.Network())
}

// Decode reads a project from r.
func Decode(r io.Reader, f Format) (Project, error) {
	var p Project
	var err error
	switch f {
	case YAML:
		err = yaml.NewDecoder(r).Decode(&p)
	default:
		err = json.NewDecoder(r).Decode(&p)
	}
	if err != nil {
		return Project{}, fmt.Errorf("decode project: %w", err)
	}
	return p, nil
}

// Encode writes p to w.
func Encode(w io.Writer, p Project, f Format) error {
	if f == YAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// Load reads and validates the project file at path.
func Load(path string) (Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return Project{}, err
	}
	defer f.Close()

	p, err := Decode(f, FormatOf(path))
	if err != nil {
		return Project{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Project{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path, replacing any existing file.
func Save(path string, p Project) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, p, FormatOf(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
