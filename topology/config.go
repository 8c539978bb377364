// Package topology builds networks of elements from YAML documents.
//
// A document lists the elements, each with a name, a kind and the
// parameters of the kind, and the links between their gates:
//
//	elements:
//	  - name: Source
//	    kind: ActiveSource
//	    params: {interval: 1, packetLength: 800}
//	  - name: Queue
//	    kind: Queue
//	    params: {frameCapacity: 10, dropper: DropTail}
//	links:
//	  - from: Source.out
//	    to: Queue.in
package topology

import (
	"fmt"
	"os"

	"github.com/sarchlab/pktflow/flow"
	"gopkg.in/yaml.v3"
)

// Config is a parsed topology document.
type Config struct {
	// Until is the virtual time the simulation stops at. Zero runs until no
	// event is left, which pktsim only allows when no element schedules
	// events on its own.
	Until float64 `yaml:"until"`

	Elements []ElementConfig `yaml:"elements"`
	Links    []LinkConfig    `yaml:"links"`
}

// ElementConfig describes one element.
type ElementConfig struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind"`
	Params flow.Params `yaml:"params"`
}

// LinkConfig links an output gate to an input gate. Gates are written as
// the element name, a dot and the gate name, with an index for gate
// vectors, such as "Scheduler.in[1]".
type LinkConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LoadFromPath reads and parses a topology file.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology: %w", err)
	}

	return Parse(data)
}

// Parse parses a topology document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse topology: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Elements {
		if c.Elements[i].Params == nil {
			c.Elements[i].Params = flow.Params{}
		}
	}
}
