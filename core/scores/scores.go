// Package scores reads and reports the metric files the evaluation driver
// writes: a flat JSON object of metric name to value, ROUGE f-measures
// scaled to 0-100 plus whatever else the driver adds (bleu, timings).
package scores

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/afero"
)

// wellKnown orders the standard metrics ahead of everything else.
var wellKnown = []string{"rouge1", "rouge2", "rougeL", "bleu"}

// Scores holds one score file's metrics.
type Scores map[string]float64

// Load reads a score JSON file. Non-numeric values are rejected so a
// truncated or hand-edited file doesn't silently report zeros.
func Load(fsys afero.Fs, path string) (Scores, error) {
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("couldn't parse %s: %w", path, err)
	}

	out := make(Scores, len(raw))
	for key, value := range raw {
		var num float64
		if err := json.Unmarshal(value, &num); err != nil {
			return nil, fmt.Errorf("%s: metric %q isn't numeric", path, key)
		}
		out[key] = num
	}
	return out, nil
}

// Keys returns metric names with the well-known ROUGE/BLEU keys first and
// the rest sorted.
func (s Scores) Keys() []string {
	seen := make(map[string]bool, len(s))
	var keys []string
	for _, key := range wellKnown {
		if _, ok := s[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}

	var rest []string
	for key := range s {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

var (
	colorMetric = color.New(color.FgCyan)
	colorBetter = color.New(color.FgGreen, color.Bold)
	colorWorse  = color.New(color.FgRed, color.Bold)
)

// WriteTable renders the scores as an aligned table.
func (s Scores) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, key := range s.Keys() {
		fmt.Fprintf(tw, "%s\t%.4f\n", colorMetric.Sprint(key), s[key])
	}
	return tw.Flush()
}

// Delta is the change of one metric between two score files.
type Delta struct {
	Key    string
	Before float64
	After  float64
	// Missing marks a metric present in only one of the files.
	Missing bool
}

// Diff compares two score files key by key. Keys follow the after file's
// ordering, with before-only keys appended.
func Diff(before, after Scores) []Delta {
	var out []Delta
	for _, key := range after.Keys() {
		d := Delta{Key: key, After: after[key]}
		if b, ok := before[key]; ok {
			d.Before = b
		} else {
			d.Missing = true
		}
		out = append(out, d)
	}
	for _, key := range before.Keys() {
		if _, ok := after[key]; !ok {
			out = append(out, Delta{Key: key, Before: before[key], Missing: true})
		}
	}
	return out
}

// WriteDiffTable renders a comparison, coloring improvements green and
// regressions red.
func WriteDiffTable(w io.Writer, deltas []Delta) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range deltas {
		if d.Missing {
			fmt.Fprintf(tw, "%s\t-\t-\t-\n", colorMetric.Sprint(d.Key))
			continue
		}

		change := d.After - d.Before
		rendered := fmt.Sprintf("%+.4f", change)
		switch {
		case change > 0:
			rendered = colorBetter.Sprint(rendered)
		case change < 0:
			rendered = colorWorse.Sprint(rendered)
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\n", colorMetric.Sprint(d.Key), d.Before, d.After, rendered)
	}
	return tw.Flush()
}
