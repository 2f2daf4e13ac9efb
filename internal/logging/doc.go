// Package logging provides the Logger interface used across the people directory.
// Components receive a Logger instead of calling a process-wide logger, which keeps
// the pipeline testable and lets callers choose the backend.
package logging
