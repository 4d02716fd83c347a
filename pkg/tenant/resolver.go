package tenant

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

const (
	// MaxIdentifierLength keeps identifiers DNS-compatible and rejects
	// pathological inputs before they reach the store.
	MaxIdentifierLength = 253
	maxLabelLength      = 63
)

// labelPattern ensures DNS-safe labels: alphanumeric start, hyphens allowed.
var labelPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*$`)

// Resolver extracts a tenant lookup identifier from an HTTP request.
// Returns empty string when the request carries no identifier; that is not
// an error (public and unauthenticated paths).
type Resolver func(r *http.Request) (string, error)

func isValidLabel(id string) bool {
	return id != "" && len(id) <= maxLabelLength && labelPattern.MatchString(id)
}

// NewHostResolver extracts the identifier from the request host. Hosts
// under the platform suffix (e.g. ".gestionescolar.app") yield their first
// subdomain label; any other host is returned whole, lowercased, so custom
// domains resolve by exact match.
func NewHostResolver(suffix string) Resolver {
	suffix = strings.ToLower(suffix)
	return func(r *http.Request) (string, error) {
		host := strings.ToLower(r.Host)
		if idx := strings.LastIndex(host, ":"); idx != -1 {
			host = host[:idx]
		}
		if host == "" || len(host) > MaxIdentifierLength {
			return "", nil
		}

		if host == strings.TrimPrefix(suffix, ".") {
			// Bare platform apex carries no tenant.
			return "", nil
		}
		if suffix == "" || !strings.HasSuffix(host, suffix) {
			// Not a platform host: treat the whole host as a custom domain.
			return host, nil
		}

		label := strings.TrimPrefix(strings.TrimSuffix(host, suffix), "www.")
		if label == "" || label == "www" {
			return "", nil
		}
		// Only the first label identifies the tenant.
		label = strings.SplitN(label, ".", 2)[0]
		if !isValidLabel(label) {
			return "", fmt.Errorf("%w: subdomain %q", ErrInvalidIdentifier, label)
		}
		return label, nil
	}
}

// NewHeaderResolver extracts the identifier from a request header,
// defaulting to "X-Tenant-ID". Useful for internal and service-to-service
// traffic where no host-based routing exists.
func NewHeaderResolver(name string) Resolver {
	if name == "" {
		name = "X-Tenant-ID"
	}
	return func(r *http.Request) (string, error) {
		id := strings.TrimSpace(r.Header.Get(name))
		if id == "" {
			return "", nil
		}
		if len(id) > MaxIdentifierLength {
			return "", fmt.Errorf("%w: header %s", ErrInvalidIdentifier, name)
		}
		return id, nil
	}
}

// NewChainResolver tries each resolver in order and returns the first
// non-empty identifier.
func NewChainResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		for _, resolve := range resolvers {
			id, err := resolve(r)
			if err != nil {
				return "", err
			}
			if id != "" {
				return id, nil
			}
		}
		return "", nil
	}
}
