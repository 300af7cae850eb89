package nav

import (
	"bytes"
	"fmt"
	"os"

	"ArtistStudio/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk navigation definition.
type Config struct {
	Permissions map[model.Role][]string `yaml:"permissions"`
	Routes      []model.RouteDescriptor `yaml:"routes"`
}

// LoadFile reads a YAML navigation file. An empty path yields Default().
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("nav: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML navigation definition. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("nav: decode: %w", err)
	}
	if len(cfg.Routes) == 0 {
		return Config{}, fmt.Errorf("nav: no routes defined")
	}
	return cfg, nil
}

// LoadResolver is LoadFile followed by NewResolver.
func LoadResolver(path string) (*Resolver, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewResolver(cfg)
}
