package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths lays out the on-disk directories under the configured base dir.
type Paths struct {
	Base        string
	Logs        string
	Screenshots string
	Messages    string
	Tasks       string
}

// NewPaths derives the directory layout from a base directory and creates
// every directory that doesn't exist yet.
func NewPaths(baseDir string) (*Paths, error) {
	p := &Paths{
		Base:        baseDir,
		Logs:        filepath.Join(baseDir, "logs"),
		Screenshots: filepath.Join(baseDir, "screenshots"),
		Messages:    filepath.Join(baseDir, "messages"),
		Tasks:       filepath.Join(baseDir, "tasks"),
	}

	for _, dir := range []string{p.Base, p.Logs, p.Screenshots, p.Messages, p.Tasks} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return p, nil
}
