package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"
)

// ErrNoFiles is returned when no JavaScript file was found under the given paths.
var ErrNoFiles = errors.New("no JavaScript files found")

const languageJavaScript = "JavaScript"

// DefaultExtensions are the file extensions treated as JavaScript.
var DefaultExtensions = []string{".js", ".mjs", ".cjs"}

// Collect expands paths into the JavaScript files to process. Files named
// explicitly are always kept; directories are walked and filtered by
// extension, with hidden and vendored entries skipped.
func (r *Runner) Collect(paths []string) ([]string, error) {
	var files []string

	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			add(filepath.Clean(root))

			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}

			if d.IsDir() {
				if path != root && r.skipDir(rel, d.Name()) {
					return filepath.SkipDir
				}

				return nil
			}

			if r.accept(rel) {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	return files, nil
}

// skipDir reports whether a walked directory is pruned. rel is relative to
// the walk root so vendor rules never see the root's own parents.
func (r *Runner) skipDir(rel, name string) bool {
	if isHiddenDir(name) {
		return true
	}

	return !r.opts.IncludeVendored && enry.IsVendor(filepath.ToSlash(rel)+"/")
}

// accept reports whether a walked file is a JavaScript source to process.
func (r *Runner) accept(rel string) bool {
	if !r.opts.IncludeVendored && enry.IsVendor(filepath.ToSlash(rel)) {
		return false
	}

	ext := strings.ToLower(filepath.Ext(rel))
	if slices.Contains(r.opts.Extensions, ext) {
		return true
	}

	return ext == "" && enry.GetLanguage(filepath.Base(rel), nil) == languageJavaScript
}

// isHiddenDir returns true for directories that start with a dot (e.g. .git),
// except for "." and "..".
func isHiddenDir(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}
