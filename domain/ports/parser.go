package ports

import "github.com/sorcio/wotto/domain/entities"

// ConfigParser parses raw configuration bytes into a Config.
type ConfigParser interface {
	// Parse decodes data over base. Keys absent from data keep the value
	// they have in base.
	Parse(data []byte, base entities.Config) (entities.Config, error)
}
