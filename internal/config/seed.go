package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// SeedEndpoint is one endpoint entry of a seed file.
type SeedEndpoint struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TLS         bool   `yaml:"tls"`
	Enabled     *bool  `yaml:"enabled"`
}

// Seed is the YAML document used to populate an empty registry:
//
//	endpoints:
//	  - name: Core
//	    host: 192.168.88.1
//	    username: admin
//	    password: secret
//	    tls: true
type Seed struct {
	Endpoints []SeedEndpoint `yaml:"endpoints"`
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Model converts the entry to an Endpoint. Enabled defaults to true.
func (s SeedEndpoint) Model() model.Endpoint {
	transport := model.TransportPlain
	if s.TLS {
		transport = model.TransportTLS
	}
	enabled := true
	if s.Enabled != nil {
		enabled = *s.Enabled
	}

	return model.Endpoint{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Host:        s.Host,
		Port:        s.Port,
		Username:    s.Username,
		Password:    s.Password,
		Transport:   transport,
		Enabled:     enabled,
	}
}

// DefaultEndpoint is registered when the registry is empty and no seed file
// is configured: a factory-default RouterOS address, disabled until edited.
func DefaultEndpoint() model.Endpoint {
	return model.Endpoint{
		Name:        "Default Router",
		Description: "Factory-default RouterOS address",
		Host:        "192.168.88.1",
		Port:        model.DefaultAPIPort,
		Username:    "admin",
		Transport:   model.TransportPlain,
		Enabled:     false,
	}
}
