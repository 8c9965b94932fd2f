package analyzer

// Metafile is the subset of esbuild's metafile JSON the analyzer reads.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

type MetafileOutput struct {
	Bytes      int    `json:"bytes"`
	EntryPoint string `json:"entryPoint,omitempty"`
}

// AnalysisResult summarizes a server bundle.
type AnalysisResult struct {
	TotalInputBytes int
	Inputs          []string
	Outputs         []string
	// ServerVariants are the bundled inputs that are ".server" modules.
	ServerVariants []string
	// Overrides maps an import as written in source to the server variant it was bundled as.
	Overrides map[string]string
}
