package ratelimit

import (
	"strings"
)

// match kinds, most specific first
const (
	matchNone = iota
	matchPrefix
	matchPrefixSuffix
	matchExact
)

// unlimited is returned for the health check
var unlimited = EndpointConfig{Path: "/health", Method: "GET"}

// MatchEndpoint returns the most specific config for a request, or nil.
// An exact path wins over a prefix with a suffix, which wins over a bare
// prefix. Prefix paths must end in "/" (e.g. "/profiles/" matches
// "/profiles/{id}"). GET /health is never limited.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == unlimited.Path && method == unlimited.Method {
		cfg := unlimited
		return &cfg
	}

	var best *EndpointConfig
	bestKind := matchNone
	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if kind := matchKind(config, path); kind > bestKind {
			best, bestKind = config, kind
		}
	}
	return best
}

func matchKind(config *EndpointConfig, path string) int {
	switch {
	case config.Suffix == "" && config.Path == path:
		return matchExact
	case config.Suffix != "" && strings.HasPrefix(path, config.Path) && strings.HasSuffix(path, config.Suffix):
		return matchPrefixSuffix
	case config.Suffix == "" && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path):
		return matchPrefix
	default:
		return matchNone
	}
}
