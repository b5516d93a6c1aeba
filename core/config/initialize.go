package config

import (
	"log"
	"os"
	"path/filepath"
)

// Initialize writes the default configuration and directory skeleton into
// directory, skipping anything that already exists.
func Initialize(directory string, logger *log.Logger) error {
	configPath := filepath.Join(directory, ConfigurationName)
	if _, err := os.Stat(configPath); err == nil {
		logger.Printf("Config %q already exists, skipping", configPath)
	} else {
		logger.Printf("Writing default config to %q", configPath)
		if err := os.WriteFile(configPath, defaultConfigData, 0644); err != nil {
			return err
		}
	}

	for _, dir := range []string{OutputDirName, "data"} {
		toCreate := filepath.Join(directory, dir)
		logger.Printf("Creating %q", toCreate)
		if err := os.MkdirAll(toCreate, 0755); err != nil {
			return err
		}
	}

	logger.Printf("Done. Edit %q to point at your pipeline checkout.", configPath)
	return nil
}
