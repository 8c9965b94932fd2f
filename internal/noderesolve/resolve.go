// Package noderesolve resolves module identifiers to files on disk the way
// Node's require.resolve does, including package.json exports under the
// require, node and default conditions.
package noderesolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrModuleNotFound is wrapped by every error returned for an identifier
// that does not resolve from any of the search paths.
var ErrModuleNotFound = errors.New("module not found")

// NotFoundError describes a failed lookup.
type NotFoundError struct {
	ID    string
	Paths []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot find module '%s' from %s", e.ID, strings.Join(e.Paths, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrModuleNotFound
}

// DefaultExtensions are tried, in order, when an identifier does not name a file exactly.
var DefaultExtensions = []string{".js", ".json", ".node"}

// Resolver implements the file, directory and node_modules lookup rules.
type Resolver struct {
	extensions []string
}

type Option func(*Resolver)

// WithExtensions replaces the extension list used for file inference.
func WithExtensions(exts ...string) Option {
	return func(r *Resolver) {
		if len(exts) > 0 {
			r.extensions = append([]string(nil), exts...)
		}
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{extensions: DefaultExtensions}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the absolute, symlink-free path of id searched from each
// of paths in turn. Core modules resolve to themselves.
func (r *Resolver) Resolve(id string, paths ...string) (string, error) {
	if id == "" {
		return "", &NotFoundError{ID: id, Paths: paths}
	}
	if IsBuiltin(id) {
		return id, nil
	}

	for _, dir := range paths {
		var (
			found string
			err   error
		)
		if isPathLike(id) {
			base := id
			if !filepath.IsAbs(id) {
				base = filepath.Join(dir, filepath.FromSlash(id))
			}
			found, err = r.loadPath(base, strings.HasSuffix(id, "/"))
		} else {
			found, err = r.loadNodeModules(id, dir)
		}
		if err != nil {
			return "", err
		}
		if found != "" {
			resolved, err := filepath.EvalSymlinks(found)
			if err != nil {
				return "", fmt.Errorf("failed to resolve real path of %s: %w", found, err)
			}
			return resolved, nil
		}
	}

	return "", &NotFoundError{ID: id, Paths: paths}
}

func isPathLike(id string) bool {
	return id == "." || id == ".." ||
		strings.HasPrefix(id, "./") || strings.HasPrefix(id, "../") ||
		strings.HasPrefix(id, "/") || filepath.IsAbs(id)
}

func (r *Resolver) loadPath(base string, dirOnly bool) (string, error) {
	if !dirOnly {
		found, err := r.loadAsFile(base)
		if err != nil || found != "" {
			return found, err
		}
	}
	return r.loadAsDirectory(base)
}

func (r *Resolver) loadNodeModules(id, start string) (string, error) {
	name, subpath := splitPackage(id)
	for _, dir := range nodeModulesPaths(start) {
		found, handled, err := r.loadPackageExports(filepath.Join(dir, filepath.FromSlash(name)), subpath)
		if err != nil || handled {
			return found, err
		}
		found, err = r.loadPath(filepath.Join(dir, filepath.FromSlash(id)), strings.HasSuffix(id, "/"))
		if err != nil || found != "" {
			return found, err
		}
	}
	return "", nil
}

func (r *Resolver) loadAsFile(base string) (string, error) {
	if ok, err := isFile(base); err != nil || ok {
		return pick(base, ok), err
	}
	for _, ext := range r.extensions {
		if ok, err := isFile(base + ext); err != nil || ok {
			return pick(base+ext, ok), err
		}
	}
	return "", nil
}

func (r *Resolver) loadIndex(dir string) (string, error) {
	for _, ext := range r.extensions {
		candidate := filepath.Join(dir, "index"+ext)
		if ok, err := isFile(candidate); err != nil || ok {
			return pick(candidate, ok), err
		}
	}
	return "", nil
}

type packageJSON struct {
	Main    string          `json:"main"`
	Exports json.RawMessage `json:"exports"`
}

func readPackageJSON(pkgPath string) (*packageJSON, bool, error) {
	ok, err := isFile(pkgPath)
	if err != nil || !ok {
		return nil, false, err
	}
	data, err := os.ReadFile(pkgPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", pkgPath, err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", pkgPath, err)
	}
	return &pkg, true, nil
}

func (r *Resolver) loadAsDirectory(dir string) (string, error) {
	pkg, ok, err := readPackageJSON(filepath.Join(dir, "package.json"))
	if err != nil {
		return "", err
	}
	if ok {
		if pkg.Main != "" {
			main := filepath.Join(dir, filepath.FromSlash(pkg.Main))
			if found, err := r.loadAsFile(main); err != nil || found != "" {
				return found, err
			}
			if found, err := r.loadIndex(main); err != nil || found != "" {
				return found, err
			}
		}
	}
	return r.loadIndex(dir)
}

// nodeModulesPaths lists the node_modules directories searched from start,
// innermost first.
func nodeModulesPaths(start string) []string {
	var dirs []string
	dir := filepath.Clean(start)
	for {
		if filepath.Base(dir) != "node_modules" {
			dirs = append(dirs, filepath.Join(dir, "node_modules"))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs
		}
		dir = parent
	}
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if missing(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func missing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func pick(path string, ok bool) string {
	if ok {
		return path
	}
	return ""
}
