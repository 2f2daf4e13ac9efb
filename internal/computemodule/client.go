// Package computemodule polls the compute-module runtime for jobs and posts their
// results back.
package computemodule

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/palantir/compute-module-people-directory/internal/logging"
	"github.com/palantir/compute-module-people-directory/internal/redact"
)

type jobEnvelope struct {
	ComputeModuleJobV1 Job `json:"computeModuleJobV1"`
}

// Job is one job handed out by the runtime.
type Job struct {
	JobID     string          `json:"jobId"`
	QueryType string          `json:"queryType"`
	Query     json.RawMessage `json:"query"`
}

// Handler runs one job and returns the result body. On error the body, if
// empty, is replaced with the redacted error text.
type Handler func(ctx context.Context, job Job) ([]byte, error)

// Config controls job polling.
type Config struct {
	GetJobURI       string
	PostResultURI   string
	ModuleAuthToken string
	DefaultCAPath   string

	// PollInterval is the wait after an empty poll. Zero uses 500ms.
	PollInterval time.Duration
	// MaxBackoff caps the wait after failed polls. Zero uses 5s.
	MaxBackoff time.Duration
	// PostAttempts is the number of tries for posting a result. Zero uses 5.
	PostAttempts int
}

// Enabled reports whether both runtime endpoints are configured.
func (c Config) Enabled() bool {
	return c.GetJobURI != "" && c.PostResultURI != ""
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.PostAttempts <= 0 {
		c.PostAttempts = 5
	}
	return c
}

// NormalizeLocalhostURI rewrites localhost and ::1 to 127.0.0.1. The runtime
// sidecar often binds only to IPv4 loopback while Go may resolve localhost to ::1.
func NormalizeLocalhostURI(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	host := strings.TrimSpace(u.Hostname())
	if host == "localhost" || host == "::1" {
		if port := strings.TrimSpace(u.Port()); port != "" {
			u.Host = "127.0.0.1:" + port
		} else {
			u.Host = "127.0.0.1"
		}
	}
	return u.String(), nil
}

// RunLoop polls for jobs until ctx is done. It returns ctx.Err() on shutdown.
func RunLoop(ctx context.Context, cfg Config, logger logging.Logger, handle Handler) error {
	if !cfg.Enabled() {
		return errors.New("GET_JOB_URI and POST_RESULT_URI are required")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	cfg = cfg.withDefaults()

	hc, err := newHTTPClient(cfg.DefaultCAPath)
	if err != nil {
		return err
	}

	logger.Info("compute module client enabled", logging.String("getJobURI", cfg.GetJobURI))

	backoff := cfg.PollInterval
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job, ok, err := getNextJob(ctx, hc, cfg.GetJobURI, cfg.ModuleAuthToken)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("get job failed", errors.New(redact.Secrets(err.Error())), logging.Duration("retryIn", backoff))
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, cfg.MaxBackoff)
			continue
		}
		backoff = cfg.PollInterval
		if !ok {
			if err := sleep(ctx, cfg.PollInterval); err != nil {
				return err
			}
			continue
		}

		jobID := strings.TrimSpace(job.JobID)
		if jobID == "" {
			logger.Info("received job without jobId; skipping")
			if err := sleep(ctx, cfg.PollInterval); err != nil {
				return err
			}
			continue
		}

		logger.Info("received job", logging.String("jobId", jobID), logging.String("queryType", job.QueryType))
		result, jobErr := handle(ctx, job)
		if jobErr != nil {
			msg := redact.Secrets(jobErr.Error())
			logger.Error("job failed", errors.New(msg), logging.String("jobId", jobID))
			if len(result) == 0 {
				result = []byte(msg)
			}
		} else if len(result) == 0 {
			result = []byte("ok")
		}

		if err := postWithRetry(ctx, hc, cfg, jobID, result, logger); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("post result abandoned", errors.New(redact.Secrets(err.Error())), logging.String("jobId", jobID))
		}
	}
}

func postWithRetry(ctx context.Context, hc *http.Client, cfg Config, jobID string, result []byte, logger logging.Logger) error {
	var err error
	for attempt := 1; attempt <= cfg.PostAttempts; attempt++ {
		if err = postResult(ctx, hc, cfg.PostResultURI, cfg.ModuleAuthToken, jobID, result); err == nil {
			return nil
		}
		logger.Error("post result failed", errors.New(redact.Secrets(err.Error())),
			logging.String("jobId", jobID), logging.Int("attempt", attempt))
		if attempt < cfg.PostAttempts {
			if serr := sleep(ctx, time.Duration(attempt)*cfg.PollInterval); serr != nil {
				return serr
			}
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newHTTPClient(caPath string) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if p := strings.TrimSpace(caPath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read DEFAULT_CA_PATH: %w", err)
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(b); !ok {
			return nil, fmt.Errorf("parse DEFAULT_CA_PATH PEM: no certs found")
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{Transport: tr, Timeout: 30 * time.Second}, nil
}

func getNextJob(ctx context.Context, hc *http.Client, getJobURI, moduleAuthToken string) (Job, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getJobURI, nil)
	if err != nil {
		return Job{}, false, err
	}
	req.Header.Set("Module-Auth-Token", moduleAuthToken)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return Job{}, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return Job{}, false, nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Job{}, false, err
	}
	if resp.StatusCode/100 != 2 {
		return Job{}, false, fmt.Errorf("GET job: status=%d body=%s", resp.StatusCode, redact.Truncate(b, 256))
	}

	var env jobEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Job{}, false, fmt.Errorf("parse GET job response: %w (body=%s)", err, redact.Truncate(b, 256))
	}
	return env.ComputeModuleJobV1, true, nil
}

func postResult(ctx context.Context, hc *http.Client, postResultURI, moduleAuthToken, jobID string, result []byte) error {
	base := strings.TrimRight(strings.TrimSpace(postResultURI), "/")
	u := base + "/" + path.Clean("/" + jobID)[1:]

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(result))
	if err != nil {
		return err
	}
	req.Header.Set("Module-Auth-Token", moduleAuthToken)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("POST result: status=%d body=%s", resp.StatusCode, redact.Truncate(b, 256))
	}
	return nil
}
