package processor

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pixresize/pkg/imgutil"
)

// Collect expands roots into a list of source files. Directories are walked
// recursively and only files with a supported extension are kept. Files named
// explicitly are kept when their extension is supported or their header sniffs
// as a known image; anything else is returned in skipped. outputDir is skipped
// when it lies inside a root so a second run does not pick up its own output.
func Collect(roots []string, outputDir string) (files []string, skipped []string, err error) {
	var outputAbs string
	if outputDir != "" {
		if abs, err := filepath.Abs(outputDir); err == nil {
			outputAbs = filepath.Clean(abs)
		}
	}

	seen := make(map[string]bool)
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, nil, err
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, nil, err
		}

		if !info.IsDir() {
			if imgutil.Supported(absRoot) {
				add(absRoot)
			} else if kind, err := imgutil.SniffFile(absRoot); err == nil && kind != imgutil.KindUnknown {
				add(absRoot)
			} else {
				skipped = append(skipped, absRoot)
			}
			continue
		}

		fsys := os.DirFS(absRoot)
		err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			fullPath := filepath.Join(absRoot, path)
			if d.IsDir() {
				if outputAbs != "" && path != "." && isWithin(fullPath, outputAbs) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !imgutil.Supported(path) {
				return nil
			}
			add(fullPath)
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	return files, skipped, nil
}

// NewJobs builds one job per source. Output stems are made unique across the
// batch so no two jobs ever write the same file.
func NewJobs(paths []string, opts Options) []Job {
	used := make(map[string]bool, len(paths))
	jobs := make([]Job, 0, len(paths))

	for i, path := range paths {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		candidate := stem
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			candidate = fmt.Sprintf("%s-%d", stem, n)
		}
		used[strings.ToLower(candidate)] = true

		jobs = append(jobs, Job{
			Index:   i,
			Path:    path,
			Display: displayName(path),
			Stem:    candidate,
			Options: opts,
		})
	}
	return jobs
}

func displayName(path string) string {
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return path
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if strings.HasPrefix(rel, "..") || strings.HasPrefix(rel, "..\\") || strings.HasPrefix(rel, "../") {
		return false
	}
	return true
}
