package session

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/pkg/errors"
)

// FileWatcher follows a credential file: a non-empty token starts or rotates
// the session, a removed or empty file ends it.
type FileWatcher struct {
	path    string
	manager *Manager
	watcher *fsnotify.Watcher
	logger  *zerolog.Logger
}

// NewFileWatcher watches the credential file at path. The file's directory
// is watched rather than the file so editors that replace files on save
// keep working; the file itself need not exist yet.
func NewFileWatcher(path string, m *Manager, logger *zerolog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapResource("watch", "session", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapResource("watch", "session", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, errors.WrapResource("watch", "session", path, err)
	}
	return &FileWatcher{path: abs, manager: m, watcher: w, logger: logger}, nil
}

// Run applies the file's current content, then follows changes until ctx
// ends. The watcher is closed when Run returns.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer func() { _ = fw.watcher.Close() }()

	fw.reload()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			fw.handleEvent(ev)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn().Err(err).Str("path", fw.path).Msg("Credential watcher error")
		}
	}
}

func (fw *FileWatcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != fw.path {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		fw.logger.Debug().Str("path", fw.path).Msg("Credential file removed")
		fw.manager.End()
	case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create):
		fw.reload()
	}
}

// reload reads the token and starts or ends the session accordingly.
func (fw *FileWatcher) reload() {
	data, err := os.ReadFile(fw.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fw.logger.Warn().Err(err).Str("path", fw.path).Msg("Reading credential file")
		}
		fw.manager.End()
		return
	}
	token := string(bytes.TrimSpace(data))
	if token == "" {
		fw.manager.End()
		return
	}
	fw.manager.Start(token)
}
