package signal

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadCatalog reads a YAML signal catalogue from path and validates it.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, eris.Wrapf(err, "signal: read catalog %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML signal catalogue.
func ParseCatalog(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, eris.Wrap(err, "signal: parse catalog")
	}
	if len(cat.Signals) == 0 {
		return Catalog{}, eris.New("signal: catalog has no signals")
	}
	if err := cat.Validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

// MarshalCatalog encodes a catalogue as YAML.
func MarshalCatalog(cat Catalog) ([]byte, error) {
	data, err := yaml.Marshal(cat)
	if err != nil {
		return nil, eris.Wrap(err, "signal: marshal catalog")
	}
	return data, nil
}
