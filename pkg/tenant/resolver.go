package tenant

import (
	"net/http"
	"strings"
)

// Resolver extracts the tenant identifier from a request.
// An empty identifier means the request is not tenant-scoped.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc adapts an ordinary function to Resolver.
type ResolverFunc func(r *http.Request) (string, error)

func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// DefaultHeader carries the acting center, set by the upstream auth layer.
const DefaultHeader = "X-Tenant-ID"

// HeaderResolver reads the identifier from a request header.
type HeaderResolver struct {
	HeaderName string
}

// NewHeaderResolver creates a header resolver, DefaultHeader when name is empty.
func NewHeaderResolver(name string) *HeaderResolver {
	if name == "" {
		name = DefaultHeader
	}
	return &HeaderResolver{HeaderName: name}
}

func (r *HeaderResolver) Resolve(req *http.Request) (string, error) {
	return strings.TrimSpace(req.Header.Get(r.HeaderName)), nil
}

// SubdomainResolver reads the identifier from the first label of the host,
// e.g. "alpha" for alpha.centerhub.uz when Suffix is ".centerhub.uz".
type SubdomainResolver struct {
	Suffix string
}

// NewSubdomainResolver creates a subdomain resolver for hosts ending in suffix.
func NewSubdomainResolver(suffix string) *SubdomainResolver {
	return &SubdomainResolver{Suffix: suffix}
}

func (r *SubdomainResolver) Resolve(req *http.Request) (string, error) {
	host := req.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if r.Suffix == "" || !strings.HasSuffix(host, r.Suffix) {
		return "", nil
	}

	sub := strings.TrimSuffix(host, r.Suffix)
	if sub == "" || sub == "www" || strings.Contains(sub, ".") {
		return "", nil
	}
	return sub, nil
}

// CompositeResolver returns the first non-empty identifier.
type CompositeResolver []Resolver

// NewCompositeResolver tries resolvers in order.
func NewCompositeResolver(resolvers ...Resolver) CompositeResolver {
	return CompositeResolver(resolvers)
}

func (c CompositeResolver) Resolve(req *http.Request) (string, error) {
	for _, r := range c {
		id, err := r.Resolve(req)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return "", nil
}
