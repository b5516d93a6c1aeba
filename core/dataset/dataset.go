// Package dataset validates QFS data directories before a run so the
// external drivers fail fast here instead of partway through an epoch.
//
// The standard layout has, per split, a content file ("document [SEP]
// query" per line), a summary file, and a relevance file holding one score
// per word of the document part. The raw layout keeps the query in its own
// file and has no relevance scores.
package dataset

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Separator splits the document from the query in a content line.
const Separator = "[SEP]"

// Splits are the dataset splits a complete run directory carries.
var Splits = []string{"train", "val", "test"}

// maxLineSize bounds a single dataset line; documents are long but a line
// over this is almost certainly a formatting error.
const maxLineSize = 4 * 1024 * 1024

// Problem is a single defect found in a dataset directory.
type Problem struct {
	Split   string `json:"split"`
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"` // 1-based, 0 for file-level problems
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", p.File, p.Line, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.File, p.Message)
}

// SplitReport is the check result for one split.
type SplitReport struct {
	Split    string    `json:"split"`
	Examples int       `json:"examples"`
	Problems []Problem `json:"problems,omitempty"`
}

// Report is the check result for a whole dataset directory.
type Report struct {
	Dir    string        `json:"dir"`
	Raw    bool          `json:"raw"`
	Splits []SplitReport `json:"splits"`
}

// OK reports whether no problems were found.
func (r *Report) OK() bool {
	for _, split := range r.Splits {
		if len(split.Problems) > 0 {
			return false
		}
	}
	return true
}

// Problems flattens all problems across splits.
func (r *Report) Problems() []Problem {
	var out []Problem
	for _, split := range r.Splits {
		out = append(out, split.Problems...)
	}
	return out
}

// Check validates every split under dir. Raw selects the raw layout with a
// separate query file and no relevance scores.
func Check(fsys afero.Fs, dir string, raw bool) (*Report, error) {
	report := &Report{Dir: dir, Raw: raw}
	for _, split := range Splits {
		sr, err := checkSplit(fsys, dir, split, raw)
		if err != nil {
			return nil, err
		}
		report.Splits = append(report.Splits, *sr)
	}
	return report, nil
}

func checkSplit(fsys afero.Fs, dir, split string, raw bool) (*SplitReport, error) {
	sr := &SplitReport{Split: split}

	names := []string{split + "_content", split + "_summary"}
	if raw {
		names = append(names, split+"_query")
	} else {
		names = append(names, split+"_relevance")
	}

	files := make(map[string][]string)
	for _, name := range names {
		lines, err := readLines(fsys, dir, name)
		if err != nil {
			sr.Problems = append(sr.Problems, Problem{
				Split: split, File: name, Message: "missing file",
			})
			continue
		}
		files[name] = lines
	}
	if len(files) != len(names) {
		return sr, nil
	}

	content := files[split+"_content"]
	sr.Examples = len(content)

	for _, name := range names {
		if got := len(files[name]); got != len(content) {
			sr.Problems = append(sr.Problems, Problem{
				Split: split, File: name,
				Message: fmt.Sprintf("has %d lines, want %d to match %s_content", got, len(content), split),
			})
		}
		for i, line := range files[name] {
			if strings.TrimSpace(line) == "" {
				sr.Problems = append(sr.Problems, Problem{
					Split: split, File: name, Line: i + 1, Message: "empty line",
				})
			}
		}
	}

	if !raw {
		relevance := files[split+"_relevance"]
		for i, line := range content {
			document, _, found := strings.Cut(line, Separator)
			if !found {
				sr.Problems = append(sr.Problems, Problem{
					Split: split, File: split + "_content", Line: i + 1,
					Message: fmt.Sprintf("missing %s query separator", Separator),
				})
				continue
			}
			if i >= len(relevance) {
				continue
			}

			words := len(strings.Fields(document))
			scores := strings.Fields(relevance[i])
			if len(scores) != words {
				sr.Problems = append(sr.Problems, Problem{
					Split: split, File: split + "_relevance", Line: i + 1,
					Message: fmt.Sprintf("has %d scores, want %d to match the document words", len(scores), words),
				})
			}
			for _, score := range scores {
				if _, err := strconv.ParseFloat(score, 64); err != nil {
					sr.Problems = append(sr.Problems, Problem{
						Split: split, File: split + "_relevance", Line: i + 1,
						Message: fmt.Sprintf("bad relevance score %q", score),
					})
					break
				}
			}
		}
	}

	return sr, nil
}

func readLines(fsys afero.Fs, dir, name string) ([]string, error) {
	fd, err := fsys.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	var lines []string
	scanner := bufio.NewScanner(fd)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
