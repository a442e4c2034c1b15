// Package output writes generated artifacts below an output root and
// verifies that the files on disk match them.
package output

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"

	"faktgen/internal/errors"
	"faktgen/internal/generator"
)

// Status is the on-disk state of one artifact.
type Status string

const (
	StatusCurrent Status = "current"
	StatusStale   Status = "stale"
	StatusMissing Status = "missing"
)

// Result is the check outcome for one artifact.
type Result struct {
	Path   string `json:"path" yaml:"path"`
	Status Status `json:"status" yaml:"status"`
}

// Write stores every artifact under root and returns the paths it changed.
// Files whose checksum already matches are left untouched so their
// modification time survives a no-op run.
func Write(root string, artifacts []generator.Artifact) ([]string, error) {
	var written []string
	for _, a := range artifacts {
		target := filepath.Join(root, filepath.FromSlash(a.Path))
		if sum, err := checksum(target); err == nil && sum == a.Checksum {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, errors.Wrapf(err, "creating directory for %s", a.Path)
		}
		if err := os.WriteFile(target, a.Content, 0o644); err != nil {
			return written, errors.Wrapf(err, "writing %s", a.Path)
		}
		written = append(written, a.Path)
	}
	return written, nil
}

// Check compares the artifacts with the files under root. Results are
// sorted by path.
func Check(root string, artifacts []generator.Artifact) ([]Result, error) {
	results := make([]Result, 0, len(artifacts))
	for _, a := range artifacts {
		sum, err := checksum(filepath.Join(root, filepath.FromSlash(a.Path)))
		switch {
		case os.IsNotExist(errors.UnwrapAll(err)):
			results = append(results, Result{Path: a.Path, Status: StatusMissing})
		case err != nil:
			return nil, err
		case sum != a.Checksum:
			results = append(results, Result{Path: a.Path, Status: StatusStale})
		default:
			results = append(results, Result{Path: a.Path, Status: StatusCurrent})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// OutOfDate filters results down to stale and missing files.
func OutOfDate(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Status != StatusCurrent {
			out = append(out, r)
		}
	}
	return out
}

func checksum(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "reading %s", path)
	}
	return xxhash.Sum64(data), nil
}
