package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func initTestDir(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	if err := Initialize(tempDir, log.New(io.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}
	return tempDir
}

func TestLoadAcceptsFilePath(t *testing.T) {
	tempDir := initTestDir(t)

	cfg, err := Load(filepath.Join(tempDir, ConfigurationName))
	assert.Nil(t, err)
	assert.Equal(t, tempDir, cfg.Dir())
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.True(t, os.IsNotExist(err))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	tempDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tempDir, ConfigurationName), []byte("no_such_field: true\n"), 0644)
	assert.Nil(t, err)

	_, loadErr := Load(tempDir)
	assert.Error(t, loadErr)
}

func TestLoadEnvOverlay(t *testing.T) {
	tempDir := initTestDir(t)

	t.Setenv("QFSRUN_PYTHON", "/opt/conda/bin/python")
	t.Setenv("CUDA_VISIBLE_DEVICES", "2,3")

	cfg, err := Load(tempDir)
	assert.Nil(t, err)
	assert.Equal(t, "/opt/conda/bin/python", cfg.Python)
	assert.Equal(t, "2,3", cfg.CUDADevices)
}

func TestLoadDotEnv(t *testing.T) {
	tempDir := initTestDir(t)
	err := os.WriteFile(filepath.Join(tempDir, EnvFileName), []byte("QFSRUN_DATA_DIR=/srv/qfs/data\n"), 0644)
	assert.Nil(t, err)

	// godotenv mutates the process environment.
	t.Cleanup(func() { os.Unsetenv("QFSRUN_DATA_DIR") })

	cfg, loadErr := Load(tempDir)
	assert.Nil(t, loadErr)
	assert.Equal(t, "/srv/qfs/data", cfg.DataDir)
}

func TestResolvePath(t *testing.T) {
	tempDir := initTestDir(t)
	cfg, err := Load(tempDir)
	assert.Nil(t, err)

	assert.Equal(t, filepath.Join(tempDir, "data"), cfg.ResolvePath("data"))
	assert.Equal(t, "/abs/data", cfg.ResolvePath("/abs/data"))
	assert.Equal(t, "", cfg.ResolvePath(""))
}
