package cred

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store resolves an opaque personal-access token for the tracking server.
// Lookup order: environment variable, then a token file in the workspace.
// The token is read once per run and held only in memory.
type Store struct {
	Env       string
	TokenFile string
	Workspace string
}

// Token returns the credential, or an error if neither source yields one.
// Retrieval failure is a reportable condition, not a crash; the caller
// decides whether to continue unauthenticated or abort.
func (s Store) Token() (string, error) {
	if s.Env != "" {
		if v := strings.TrimSpace(os.Getenv(s.Env)); v != "" {
			return v, nil
		}
	}
	if s.TokenFile != "" {
		path := s.TokenFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.Workspace, path)
		}
		data, err := os.ReadFile(path)
		if err == nil {
			if v := strings.TrimSpace(string(data)); v != "" {
				return v, nil
			}
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("read token file %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("no credential found (env %q, file %q)", s.Env, s.TokenFile)
}
