package graph

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TokenSource supplies the bearer token for each Graph request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token. The empty token sends no Authorization header.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(t)), nil
}

// FileToken re-reads the token file on every request so rotated tokens are picked
// up without a restart.
type FileToken struct {
	Path string
}

func (t FileToken) Token(context.Context) (string, error) {
	b, err := os.ReadFile(t.Path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// TokenFromValueOrFile treats v as a file path when it names an existing regular
// file, and as the literal token otherwise.
func TokenFromValueOrFile(v string) TokenSource {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "\r\n") {
		return StaticToken(v)
	}
	if fi, err := os.Stat(v); err == nil && !fi.IsDir() {
		return FileToken{Path: v}
	}
	return StaticToken(v)
}
