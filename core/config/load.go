package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
//
// After the file is parsed, a .env file in the same directory (if any) is
// loaded and environment variables are overlaid so deployments can override
// paths and devices without editing the file.
func Load(path string) (*Configuration, error) {
	// If given the path to a qfsrun.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := os.ReadFile(filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, err
	}
	out.configurationDir = path

	if err := godotenv.Load(filepath.Join(path, EnvFileName)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("couldn't load %s: %w", EnvFileName, err)
	}
	if err := env.Parse(&out); err != nil {
		return nil, fmt.Errorf("couldn't overlay environment: %w", err)
	}

	return &out, nil
}

// ResolvePath resolves a possibly relative path against the configuration
// directory.
func (c *Configuration) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.configurationDir, path)
}
