package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/palantir/compute-module-people-directory/internal/mockgraph"
)

func main() {
	addr := defaultString("MOCK_GRAPH_ADDR", ":8081")
	fixture := defaultString("MOCK_GRAPH_FIXTURE", "")
	token := defaultString("MOCK_GRAPH_TOKEN", "")

	fs := flag.NewFlagSet("mock-graph", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&fixture, "fixture", fixture, "YAML fixture with users, presence and injected failures (env: MOCK_GRAPH_FIXTURE)")
	fs.StringVar(&token, "token", token, "Require this bearer token on every request (env: MOCK_GRAPH_TOKEN)")
	_ = fs.Parse(os.Args[1:])

	srv := mockgraph.New()
	if fixture != "" {
		f, err := mockgraph.LoadFixture(fixture)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "fixture error: %v\n", err)
			os.Exit(2)
		}
		f.Apply(srv)
	}
	if token != "" {
		srv.RequireBearerToken(token)
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-graph listening on %s (fixture=%s)\n", addr, fixture)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
