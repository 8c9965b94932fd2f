// Package plugins adapts the module resolution stages to esbuild's plugin API.
package plugins

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/override"
)

const (
	ServerModuleOverrideName = "server-module-override"
	AliasName                = "alias"
)

// aliasResolved marks the nested resolve issued by the alias plugin so the
// stages do not run a second time on the rewritten identifier.
type aliasResolved struct{}

// ServerModuleOverride offers every import to interceptor and, when it
// rewrites the request, hands the new absolute path to esbuild. Otherwise
// esbuild continues with the next plugin or its own resolver.
func ServerModuleOverride(interceptor override.Interceptor, logger *slog.Logger) api.Plugin {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return api.Plugin{
		Name: ServerModuleOverrideName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if _, nested := args.PluginData.(aliasResolved); nested || args.ResolveDir == "" {
					return api.OnResolveResult{}, nil
				}

				req, err := interceptor.TryOverride(&override.Request{
					Identifier: args.Path,
					ContextDir: args.ResolveDir,
				})
				if err != nil {
					return api.OnResolveResult{}, err
				}
				if req == nil || req.Identifier == args.Path {
					return api.OnResolveResult{}, nil
				}
				// A server variant importing its own base module must get the base.
				if req.Identifier == args.Importer {
					return api.OnResolveResult{}, nil
				}

				logger.Debug("server module override",
					slog.String("from", args.Path),
					slog.String("to", req.Identifier),
					slog.String("importer", args.Importer))

				return api.OnResolveResult{Path: req.Identifier}, nil
			})
		},
	}
}

// Alias applies table to identifiers esbuild would otherwise fail to find,
// such as "@app/widget.js", by resolving the normalized identifier.
func Alias(table override.AliasTable) api.Plugin {
	return api.Plugin{
		Name: AliasName,
		Setup: func(build api.PluginBuild) {
			if table.Len() == 0 {
				return
			}
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if _, nested := args.PluginData.(aliasResolved); nested {
					return api.OnResolveResult{}, nil
				}
				normalized, ok := table.Normalize(args.Path)
				if !ok {
					return api.OnResolveResult{}, nil
				}

				result := build.Resolve(normalized, api.ResolveOptions{
					Importer:   args.Importer,
					Namespace:  args.Namespace,
					ResolveDir: args.ResolveDir,
					Kind:       args.Kind,
					PluginData: aliasResolved{},
				})
				if len(result.Errors) > 0 {
					texts := make([]string, 0, len(result.Errors))
					for _, msg := range result.Errors {
						texts = append(texts, msg.Text)
					}
					return api.OnResolveResult{}, fmt.Errorf("alias %q -> %q: %s", args.Path, normalized, strings.Join(texts, "; "))
				}

				return api.OnResolveResult{
					Path:      result.Path,
					External:  result.External,
					Namespace: result.Namespace,
					Suffix:    result.Suffix,
				}, nil
			})
		},
	}
}
