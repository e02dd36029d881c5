package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives finished artifacts.
type Sink interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// DirSink writes artifacts into a downloads directory. An existing file with
// the same name is replaced.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
