package graph

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the public Graph endpoint.
const DefaultBaseURL = "https://graph.microsoft.com"

// Services holds the resolved Graph base URLs.
type Services struct {
	V1   string
	Beta string
}

// serviceDiscovery maps each service id to a single-element list containing the
// base URL.
//
// Example (YAML):
//
//	graph_v1:
//	  - https://graph.microsoft.com/v1.0
//	graph_beta:
//	  - https://graph.microsoft.com/beta
type serviceDiscovery map[string][]string

// ServicesFromBaseURL derives the v1.0 and beta endpoints from a Graph host URL.
func ServicesFromBaseURL(raw string) (Services, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Services{}, fmt.Errorf("graph URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	raw = strings.TrimRight(raw, "/")
	return Services{V1: raw + "/v1.0", Beta: raw + "/beta"}, nil
}

// LoadServicesFromDiscoveryFile reads a YAML service discovery file.
func LoadServicesFromDiscoveryFile(path string) (Services, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Services{}, fmt.Errorf("GRAPH_SERVICE_DISCOVERY is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Services{}, fmt.Errorf("read GRAPH_SERVICE_DISCOVERY file: %w", err)
	}

	var raw serviceDiscovery
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Services{}, fmt.Errorf("parse GRAPH_SERVICE_DISCOVERY YAML: %w", err)
	}

	getOne := func(key string) (string, bool) {
		vals, ok := raw[key]
		if !ok || len(vals) == 0 {
			return "", false
		}
		v := strings.TrimSpace(vals[0])
		return v, v != ""
	}

	v1, ok := getOne("graph_v1")
	if !ok {
		return Services{}, fmt.Errorf("GRAPH_SERVICE_DISCOVERY missing graph_v1")
	}
	beta, ok := getOne("graph_beta")
	if !ok {
		return Services{}, fmt.Errorf("GRAPH_SERVICE_DISCOVERY missing graph_beta")
	}
	return Services{V1: v1, Beta: beta}, nil
}
