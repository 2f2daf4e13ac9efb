// Package app wires configuration, the Graph client and the directory service
// into the fetch, serve and module entry points.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/palantir/compute-module-people-directory/internal/computemodule"
	"github.com/palantir/compute-module-people-directory/internal/config"
	"github.com/palantir/compute-module-people-directory/internal/directory"
	"github.com/palantir/compute-module-people-directory/internal/export"
	"github.com/palantir/compute-module-people-directory/internal/graph"
	"github.com/palantir/compute-module-people-directory/internal/logging"
	"github.com/palantir/compute-module-people-directory/internal/metrics"
	"github.com/palantir/compute-module-people-directory/internal/server"
)

type App struct {
	cfg     config.Config
	logger  *logging.ZerologAdapter
	metrics *metrics.Metrics
	source  directory.Source
}

// New validates cfg and builds the Graph-backed application.
func New(cfg config.Config, logger *logging.ZerologAdapter) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	services, err := resolveServices(cfg.Graph)
	if err != nil {
		return nil, err
	}
	client, err := graph.NewClient(services.V1, services.Beta, graph.TokenFromValueOrFile(cfg.Graph.Token), cfg.Graph.CAPath)
	if err != nil {
		return nil, err
	}
	logger.Info("graph client configured", logging.String("v1", services.V1), logging.String("beta", services.Beta))
	return NewWithSource(cfg, logger, graph.Source{Client: client}), nil
}

// NewWithSource builds an App over an arbitrary directory source.
func NewWithSource(cfg config.Config, logger *logging.ZerologAdapter, source directory.Source) *App {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &App{cfg: cfg, logger: logger, metrics: metrics.NewMetrics(), source: source}
}

func resolveServices(g config.GraphConfig) (graph.Services, error) {
	if p := strings.TrimSpace(g.ServiceDiscovery); p != "" {
		return graph.LoadServicesFromDiscoveryFile(p)
	}
	return graph.ServicesFromBaseURL(g.URL)
}

func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// FetchDirectory runs one directory fetch under a fresh run id.
func (a *App) FetchDirectory(ctx context.Context) ([]directory.EnrichedEntry, error) {
	runLogger := a.logger.With(logging.String("run", uuid.NewString()))
	svc := directory.NewService(a.source, directory.Options{
		Query:      a.cfg.Query(),
		Aggregator: a.cfg.AggregatorOptions(),
		Observer:   directory.Observers{directory.LogObserver{Logger: runLogger}, a.metrics},
	})
	runLogger.Debug("directory run start",
		logging.Int("pageSize", a.cfg.Directory.PageSize),
		logging.Duration("presenceTimeout", a.cfg.Directory.PresenceTimeout),
		logging.Int("maxConcurrency", a.cfg.Directory.MaxConcurrency),
	)
	return svc.FetchDirectory(ctx)
}

// FetchOptions controls a one-shot fetch.
type FetchOptions struct {
	Format     export.Format
	Search     string
	Department string
}

// RunFetch fetches the directory once and writes it to w.
func (a *App) RunFetch(ctx context.Context, w io.Writer, opts FetchOptions) error {
	entries, err := a.FetchDirectory(ctx)
	if err != nil {
		return err
	}
	entries = directory.Filter(entries, opts.Search, opts.Department)
	return export.Write(w, opts.Format, entries)
}

// RunServe serves the HTTP API until ctx is done.
func (a *App) RunServe(ctx context.Context) error {
	scfg := server.DefaultConfig()
	scfg.Addr = a.cfg.Server.Addr
	if len(a.cfg.Server.CORSOrigins) == 0 {
		scfg.Security.EnableCORS = false
	} else {
		scfg.Security.AllowedOrigins = a.cfg.Server.CORSOrigins
	}
	return server.New(a, a.metrics, a.logger, scfg).ListenAndServe(ctx)
}

// RunModule serves compute-module jobs until ctx is done.
func (a *App) RunModule(ctx context.Context) error {
	if err := a.cfg.ValidateModule(); err != nil {
		return err
	}
	getJob, err := computemodule.NormalizeLocalhostURI(a.cfg.Module.GetJobURI)
	if err != nil {
		return fmt.Errorf("invalid GET_JOB_URI: %w", err)
	}
	postResult, err := computemodule.NormalizeLocalhostURI(a.cfg.Module.PostResultURI)
	if err != nil {
		return fmt.Errorf("invalid POST_RESULT_URI: %w", err)
	}
	token := a.cfg.Module.AuthToken
	if t, err := graph.TokenFromValueOrFile(token).Token(ctx); err == nil {
		token = t
	}
	return computemodule.RunLoop(ctx, computemodule.Config{
		GetJobURI:       getJob,
		PostResultURI:   postResult,
		ModuleAuthToken: token,
		DefaultCAPath:   a.cfg.Graph.CAPath,
		PollInterval:    a.cfg.Module.PollInterval,
	}, a.logger, a.HandleJob)
}

// jobQuery is the optional filter carried by a compute-module job.
type jobQuery struct {
	Search     string `json:"search"`
	Department string `json:"department"`
}

type jobResult struct {
	Entries     []directory.EnrichedEntry `json:"entries"`
	Departments []string                  `json:"departments"`
	Count       int                       `json:"count"`
	FetchedAt   time.Time                 `json:"fetchedAt"`
}

// HandleJob runs one directory fetch for a compute-module job and returns the
// JSON result body.
func (a *App) HandleJob(ctx context.Context, job computemodule.Job) ([]byte, error) {
	var q jobQuery
	if len(job.Query) > 0 && string(job.Query) != "null" {
		if err := json.Unmarshal(job.Query, &q); err != nil {
			return nil, fmt.Errorf("parse job query: %w", err)
		}
	}
	entries, err := a.FetchDirectory(ctx)
	if err != nil {
		return nil, err
	}
	departments := directory.Departments(entries)
	entries = directory.Filter(entries, q.Search, q.Department)
	return json.Marshal(jobResult{
		Entries:     entries,
		Departments: departments,
		Count:       len(entries),
		FetchedAt:   time.Now().UTC(),
	})
}
