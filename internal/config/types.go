package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/override"
)

// Config models ssr-builder.yaml.
type Config struct {
	EntryPoints []string `yaml:"entryPoints"`
	Outdir      string   `yaml:"outdir"`
	Platform    string   `yaml:"platform"`
	External    []string `yaml:"external,omitempty"`
	Aliases     Aliases  `yaml:"aliases,omitempty"`
	Extensions  []string `yaml:"extensions,omitempty"`
	Minify      bool     `yaml:"minify,omitempty"`
	Storage     Storage  `yaml:"storage,omitempty"`

	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-"`
}

// Storage is the S3-compatible bucket bundles are published to.
type Storage struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
	PublicURL string `yaml:"publicURL,omitempty"`
	UseSSL    bool   `yaml:"useSSL,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
}

// Aliases keeps the document order of the YAML mapping, which is the order
// aliases are matched in.
type Aliases []override.Alias

func (a *Aliases) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: aliases must be a mapping of prefix to path", value.Line)
	}
	out := make(Aliases, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var prefix, replacement string
		if err := value.Content[i].Decode(&prefix); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&replacement); err != nil {
			return err
		}
		out = append(out, override.Alias{Prefix: prefix, Replacement: replacement})
	}
	*a = out
	return nil
}
