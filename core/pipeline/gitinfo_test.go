package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGitInfoSave(t *testing.T) {
	tempDir := t.TempDir()

	info := &GitInfo{
		RepoID: "/srv/qfs/pipeline",
		SHA:    "0123456789abcdef",
		Branch: "main",
	}
	assert.Nil(t, info.Save(tempDir, "git_log.json"))

	content, err := os.ReadFile(filepath.Join(tempDir, "git_log.json"))
	assert.Nil(t, err)

	var got map[string]string
	assert.Nil(t, json.Unmarshal(content, &got))
	assert.Equal(t, map[string]string{
		"repo_id":     "/srv/qfs/pipeline",
		"repo_sha":    "0123456789abcdef",
		"repo_branch": "main",
	}, got)
}
