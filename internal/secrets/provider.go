// Package secrets resolves named secrets at runtime. Channels that need
// credentials (like the chat webhook URL) hold a secret reference, not
// the secret itself, and resolve it at dispatch time.
package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider resolves a secret by name.
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
}

// NewProvider returns a file-backed provider when dir is set (mounted
// secret files, one per name), otherwise an environment-backed provider.
func NewProvider(dir string) Provider {
	if dir != "" {
		return &FileProvider{dir: dir}
	}
	return EnvProvider{}
}

// EnvProvider reads secrets from environment variables. The secret name
// is upper-cased with dashes replaced by underscores, e.g.
// "slack-webhook" resolves from SLACK_WEBHOOK.
type EnvProvider struct{}

// Get resolves the named secret from the environment.
func (EnvProvider) Get(_ context.Context, name string) (string, error) {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", fmt.Errorf("secret %q not found in environment", name)
	}
	return val, nil
}

// FileProvider reads secrets from files under a directory, one file per
// secret name.
type FileProvider struct {
	dir string
}

// Get resolves the named secret from <dir>/<name>.
func (p *FileProvider) Get(_ context.Context, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, filepath.Base(name)))
	if err != nil {
		return "", fmt.Errorf("secret %q: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}
