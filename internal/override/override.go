// Package override redirects module requests to their ".server" variants
// when bundling for the server platform.
//
// A request for "./foo.js" becomes the resolved path of "./foo.server.js",
// and an extensionless "./foo" becomes the resolved path of "./foo.server",
// provided both the original module and the server variant resolve.
package override

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/noderesolve"
)

// ErrConfiguration marks failures of the module resolver that are not a
// plain "module not found". They are returned to the bundler instead of
// being treated as a missing server variant.
var ErrConfiguration = errors.New("module resolver configuration fault")

type Platform string

const (
	PlatformNode    Platform = "node"
	PlatformBrowser Platform = "browser"
	PlatformNeutral Platform = "neutral"
)

// ParsePlatform accepts the platform names understood by the bundler.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformNode, PlatformBrowser, PlatformNeutral:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q (expected node, browser or neutral)", s)
	}
}

// Request is a pending module resolution: the identifier as written in the
// importing module and the directory the lookup starts from.
type Request struct {
	Identifier string
	ContextDir string
}

// ModuleResolver turns an identifier into an absolute module path. Lookups
// that find nothing must return an error wrapping noderesolve.ErrModuleNotFound.
type ModuleResolver interface {
	Resolve(id string, paths ...string) (string, error)
}

// Interceptor is a resolution stage that may rewrite a request before the
// bundler resolves it.
type Interceptor interface {
	TryOverride(req *Request) (*Request, error)
}

// Resolver is the server module override Interceptor.
type Resolver struct {
	platform Platform
	aliases  AliasTable
	modules  ModuleResolver
}

var _ Interceptor = (*Resolver)(nil)

func New(platform Platform, aliases AliasTable, modules ModuleResolver) *Resolver {
	if modules == nil {
		modules = noderesolve.New()
	}
	return &Resolver{
		platform: platform,
		aliases:  aliases,
		modules:  modules,
	}
}

// TryOverride rewrites req.Identifier to the resolved server variant when
// building for node and both the original and the variant resolve. In every
// other case req is returned untouched. Only resolver faults are returned as
// errors; a missing module is not one.
func (r *Resolver) TryOverride(req *Request) (*Request, error) {
	if req == nil || r.platform != PlatformNode {
		return req, nil
	}

	id, _ := r.aliases.Normalize(req.Identifier)

	original, err := r.resolveIfCan(id, req.ContextDir)
	if err != nil {
		return req, err
	}
	variant, err := r.resolveIfCan(ServerVariant(id), req.ContextDir)
	if err != nil {
		return req, err
	}

	if original != "" && variant != "" {
		req.Identifier = variant
	}
	return req, nil
}

// resolveIfCan returns "" when id does not resolve.
func (r *Resolver) resolveIfCan(id, dir string) (string, error) {
	path, err := r.modules.Resolve(id, dir)
	if err != nil {
		if errors.Is(err, noderesolve.ErrModuleNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: resolving %q from %s: %w", ErrConfiguration, id, dir, err)
	}
	return path, nil
}

// ServerVariant returns the server-specific identifier for id: a trailing
// ".js" becomes ".server.js", anything else gets ".server" appended.
func ServerVariant(id string) string {
	if base, ok := strings.CutSuffix(id, ".js"); ok {
		return base + ".server.js"
	}
	return id + ".server"
}
