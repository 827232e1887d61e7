package parser

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sorcio/wotto/domain/entities"
	"github.com/sorcio/wotto/domain/ports"
)

// YamlConfigParser implements ConfigParser for YAML.
type YamlConfigParser struct {
	// Strict rejects keys that do not map to a Config field.
	Strict bool
}

// NewYamlConfigParser creates a new strict YamlConfigParser.
func NewYamlConfigParser() ports.ConfigParser {
	return &YamlConfigParser{Strict: true}
}

// Parse unmarshals YAML bytes over base. An empty document returns base.
// Durations use time.ParseDuration syntax ("5s", "250ms").
func (p *YamlConfigParser) Parse(data []byte, base entities.Config) (entities.Config, error) {
	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(p.Strict)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return base, err
	}
	return cfg, nil
}
