package noderesolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Conditions are the export conditions matched by require.resolve.
var Conditions = []string{"require", "node", "default"}

// splitPackage splits a bare identifier into its package name and the
// exports subpath it requests ("." for the package root).
func splitPackage(id string) (name, subpath string) {
	parts := strings.SplitN(id, "/", 3)
	n := 1
	if strings.HasPrefix(id, "@") && len(parts) > 1 {
		n = 2
	}
	if len(parts) <= n {
		return id, "."
	}
	name = strings.Join(parts[:n], "/")
	return name, "./" + strings.TrimPrefix(id, name+"/")
}

type entry struct {
	key   string
	value json.RawMessage
}

// orderedObject decodes a JSON object keeping its key order. It returns
// ok=false when raw is not an object.
func orderedObject(raw json.RawMessage) ([]entry, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, err
	}
	if d, isDelim := tok.(json.Delim); !isDelim || d != '{' {
		return nil, false, nil
	}
	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, true, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, true, err
		}
		entries = append(entries, entry{key: key, value: value})
	}
	return entries, true, nil
}

// exportsTarget returns the package-relative target that exports maps
// subpath to, or "" when the subpath is not exported.
func exportsTarget(exports json.RawMessage, subpath string) (string, error) {
	entries, isObject, err := orderedObject(exports)
	if err != nil {
		return "", err
	}

	subpaths := false
	for i, e := range entries {
		dotted := strings.HasPrefix(e.key, ".")
		if i == 0 {
			subpaths = dotted
		} else if dotted != subpaths {
			return "", fmt.Errorf("exports mixes subpath and condition keys")
		}
	}

	// A string, an array or a conditions object all describe ".".
	if !isObject || !subpaths {
		if subpath != "." {
			return "", nil
		}
		return resolveTarget(exports, "")
	}

	for _, e := range entries {
		if e.key == subpath && !strings.Contains(e.key, "*") {
			return resolveTarget(e.value, "")
		}
	}

	var patterns []entry
	for _, e := range entries {
		if strings.Count(e.key, "*") == 1 {
			patterns = append(patterns, e)
		}
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patternKeyLess(patterns[i].key, patterns[j].key)
	})
	for _, e := range patterns {
		base, trailer, _ := strings.Cut(e.key, "*")
		if !strings.HasPrefix(subpath, base) || subpath == base {
			continue
		}
		if trailer != "" && (!strings.HasSuffix(subpath, trailer) || len(subpath) < len(e.key)) {
			continue
		}
		match := strings.TrimSuffix(strings.TrimPrefix(subpath, base), trailer)
		return resolveTarget(e.value, match)
	}
	return "", nil
}

// patternKeyLess orders pattern keys most specific first.
func patternKeyLess(a, b string) bool {
	baseA := strings.Index(a, "*")
	baseB := strings.Index(b, "*")
	if baseA != baseB {
		return baseA > baseB
	}
	return len(a) > len(b)
}

func resolveTarget(raw json.RawMessage, match string) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var target string
		if err := json.Unmarshal(raw, &target); err != nil {
			return "", err
		}
		if !strings.HasPrefix(target, "./") {
			return "", nil
		}
		target = strings.ReplaceAll(target, "*", match)
		if escapesPackage(target) {
			return "", nil
		}
		return target, nil
	case '[':
		var targets []json.RawMessage
		if err := json.Unmarshal(raw, &targets); err != nil {
			return "", err
		}
		for _, t := range targets {
			found, err := resolveTarget(t, match)
			if err != nil || found != "" {
				return found, err
			}
		}
		return "", nil
	case '{':
		entries, _, err := orderedObject(raw)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if !matchesCondition(e.key) {
				continue
			}
			found, err := resolveTarget(e.value, match)
			if err != nil || found != "" {
				return found, err
			}
		}
		return "", nil
	}
	return "", nil
}

func escapesPackage(target string) bool {
	for _, seg := range strings.Split(target[2:], "/") {
		if seg == "." || seg == ".." || seg == "node_modules" {
			return true
		}
	}
	return false
}

func matchesCondition(key string) bool {
	for _, c := range Conditions {
		if key == c {
			return true
		}
	}
	return false
}

// loadPackageExports resolves subpath through the exports field of the
// package in pkgDir. handled is false when the package has no exports, in
// which case the main/index rules apply.
func (r *Resolver) loadPackageExports(pkgDir, subpath string) (found string, handled bool, err error) {
	pkgPath := filepath.Join(pkgDir, "package.json")
	pkg, ok, err := readPackageJSON(pkgPath)
	if err != nil || !ok {
		return "", false, err
	}
	exports := bytes.TrimSpace(pkg.Exports)
	if len(exports) == 0 || bytes.Equal(exports, []byte("null")) {
		return "", false, nil
	}

	target, err := exportsTarget(exports, subpath)
	if err != nil {
		return "", true, fmt.Errorf("invalid exports in %s: %w", pkgPath, err)
	}
	if target == "" {
		return "", true, fmt.Errorf("package subpath '%s' is not exported by %s: %w", subpath, pkgPath, ErrModuleNotFound)
	}

	file := filepath.Join(pkgDir, filepath.FromSlash(target))
	ok, err = isFile(file)
	if err != nil || !ok {
		return "", true, err
	}
	return file, true, nil
}
