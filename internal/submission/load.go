package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads one submission file. The file may contain a single JSON object or an
// array of objects.
func Load(path string) ([]*Submission, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read submission file %q: %w", path, err)
	}
	subs, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("parse submission file %q: %w", path, err)
	}
	for i, s := range subs {
		if len(subs) == 1 {
			s.Source = path
		} else {
			s.Source = fmt.Sprintf("%s#%d", path, i)
		}
	}
	return subs, nil
}

// Decode parses a JSON object or array of objects.
func Decode(raw []byte) ([]*Submission, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '[' {
		var subs []*Submission
		if err := json.Unmarshal(trimmed, &subs); err != nil {
			return nil, err
		}
		out := subs[:0]
		for _, s := range subs {
			if s != nil {
				out = append(out, s)
			}
		}
		return out, nil
	}

	var s Submission
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	return []*Submission{&s}, nil
}

// LoadPaths loads every submission named by paths. Directories are walked
// recursively for *.json files. Results are ordered by file path.
func LoadPaths(paths []string) ([]*Submission, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	var out []*Submission
	for _, f := range files {
		subs, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, subs...)
	}
	return out, nil
}

// ExpandPaths resolves files and directories into a sorted, de-duplicated list of
// submission files.
func ExpandPaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if IsSubmissionFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %q: %w", p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// IsSubmissionFile reports whether path looks like a submission record.
func IsSubmissionFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
