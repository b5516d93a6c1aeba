package pipeline

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitInfo describes the state of the pipeline checkout for a run.
type GitInfo struct {
	RepoID string `json:"repo_id"`
	SHA    string `json:"repo_sha"`
	Branch string `json:"repo_branch"`
}

// LookupGitInfo asks git about the repository containing dir. It returns an
// error when dir isn't inside a checkout or git isn't installed; callers
// treat that as advisory.
func LookupGitInfo(dir string) (*GitInfo, error) {
	top, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	sha, err := gitOutput(dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}
	branch, err := gitOutput(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}

	return &GitInfo{RepoID: top, SHA: sha, Branch: branch}, nil
}

// Save writes the info into outputDir the way the pipeline's own tooling
// does: a git_log.json with 4-space indentation.
func (g *GitInfo) Save(outputDir, name string) error {
	content, err := json.MarshalIndent(g, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, name), append(content, '\n'), 0644)
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
