// Package config loads the YAML configuration a zrpc-server binary starts
// from, with command-line flags able to override individual fields.
//
// Grounded in the teacher's sibling pack repo cowsql-go-cowsql's
// client.YamlNodeStore (github.com/goccy/go-yaml marshal/unmarshal of a
// plain Go struct against a file on disk), generalized from a node-address
// list to the server's own startup parameters.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Topology selects how a Config's listen addresses are interpreted.
type Topology string

const (
	// TopologyDirect runs a single Server bound at Frontend.
	TopologyDirect Topology = "direct"
	// TopologyProxy runs a LoadBalancer whose backend dials the fixed
	// addresses in Workers.
	TopologyProxy Topology = "proxy"
	// TopologyBroker runs a MultiServer: a broker LoadBalancer fronting
	// NWorkers in-process Servers.
	TopologyBroker Topology = "broker"
)

// Codec selects the wire encoding a Server/Client pair uses.
type Codec string

const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

// Config is the on-disk shape of a zrpc-server's startup parameters.
type Config struct {
	Frontend string   `yaml:"frontend"`
	Topology Topology `yaml:"topology"`
	Workers  []string `yaml:"workers,omitempty"`
	NWorkers int      `yaml:"n_workers,omitempty"`
	Codec    Codec    `yaml:"codec"`

	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		Rate    float64 `yaml:"rate"`
		Burst   int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Discovery struct {
		Enabled   bool     `yaml:"enabled"`
		Endpoints []string `yaml:"endpoints"`
		Service   string   `yaml:"service"`
		TTL       int64    `yaml:"ttl"`
	} `yaml:"discovery"`

	Verbose bool `yaml:"verbose"`
}

// Default returns a Config with reasonable direct-topology defaults.
func Default() *Config {
	c := &Config{
		Frontend: "tcp://127.0.0.1:5555",
		Topology: TopologyDirect,
		Codec:    CodecMsgpack,
	}
	c.RateLimit.Rate = 0
	c.Discovery.TTL = 10
	return c
}

// Load reads and unmarshals a YAML config file. A missing file is not an
// error: Default() is returned instead, so a caller can run entirely off
// flags.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	return cfg, nil
}

// Save writes cfg back out as YAML, overwriting path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "config: encoding")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "config: writing %s", path)
	}
	return nil
}
