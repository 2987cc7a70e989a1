package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"gopkg.in/yaml.v3"
)

// LoadSeedFromFile loads a catalog seed from a YAML file
func LoadSeedFromFile(path string) (*model.SeedConfig, error) {
	if path == "" {
		return nil, goerr.New("seed file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "seed file not found",
				goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read seed file",
			goerr.V("path", path))
	}

	var config model.SeedConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse seed file",
			goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid seed file",
			goerr.V("path", path))
	}

	return &config, nil
}
