package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
)

// AnalyzeFile reads an esbuild metafile from disk and analyzes it.
func AnalyzeFile(metafilePath string) (*AnalysisResult, error) {
	data, err := os.ReadFile(metafilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metafile: %w", err)
	}
	return Analyze(data)
}

// Analyze extracts the inputs and the server variants bundled in a build.
func Analyze(metafile []byte) (*AnalysisResult, error) {
	var meta Metafile
	if err := json.Unmarshal(metafile, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	result := &AnalysisResult{Overrides: map[string]string{}}
	for input, info := range meta.Inputs {
		result.TotalInputBytes += info.Bytes
		result.Inputs = append(result.Inputs, input)
		if IsServerVariant(input) {
			result.ServerVariants = append(result.ServerVariants, input)
		}
		for _, imp := range info.Imports {
			if imp.Original != "" && !IsServerVariant(imp.Original) && IsServerVariant(imp.Path) {
				result.Overrides[imp.Original] = imp.Path
			}
		}
	}
	for output := range meta.Outputs {
		result.Outputs = append(result.Outputs, output)
	}

	sort.Strings(result.Inputs)
	sort.Strings(result.Outputs)
	sort.Strings(result.ServerVariants)
	return result, nil
}

// IsServerVariant reports whether p names a ".server" module, such as
// "lib/db.server.js" or "lib/db.server".
func IsServerVariant(p string) bool {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.HasSuffix(base, ".server") || strings.Contains(base, ".server.")
}
