package scene

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"

	"github.com/Blue-Cardigan/inside-parliament/internal/event"
)

const reloadDebounce = 150 * time.Millisecond

// Loader reads the layout and members files and publishes the resulting
// chamber to a Provider.
type Loader struct {
	layoutPath  string
	membersPath string
	provider    *Provider
	bus         *event.Bus
	lastDigest  uint64
	loaded      bool
}

func NewLoader(layoutPath, membersPath string, provider *Provider, bus *event.Bus) *Loader {
	return &Loader{
		layoutPath:  layoutPath,
		membersPath: membersPath,
		provider:    provider,
		bus:         bus,
	}
}

// Load builds and publishes a snapshot. It reports false without publishing
// when both files are byte-identical to the last successful load. An empty
// members path loads the chamber without avatars.
func (l *Loader) Load(ctx context.Context) (bool, error) {
	if l == nil || l.provider == nil {
		return false, fmt.Errorf("scene loader is nil")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	layoutData, err := os.ReadFile(l.layoutPath)
	if err != nil {
		return false, l.fail(l.layoutPath, fmt.Errorf("read layout: %w", err))
	}
	var membersData []byte
	if l.membersPath != "" {
		membersData, err = os.ReadFile(l.membersPath)
		if err != nil {
			return false, l.fail(l.membersPath, fmt.Errorf("read members: %w", err))
		}
	}

	digest := contentDigest(layoutData, membersData)
	if l.loaded && digest == l.lastDigest {
		slog.Debug("Scene unchanged, skipping publish", "digest", digest)
		return false, nil
	}

	layout, err := ParseLayout(layoutData)
	if err != nil {
		return false, l.fail(l.layoutPath, err)
	}
	var members []Member
	if membersData != nil {
		members, err = ParseMembers(membersData)
		if err != nil {
			return false, l.fail(l.membersPath, err)
		}
	}

	solids := BuildChamber(layout)
	avatars := AssignSeats(layout, members)
	version := l.provider.Publish(solids, avatars, digest)
	l.lastDigest = digest
	l.loaded = true

	slog.Info("Scene published", "version", version, "solids", len(solids), "avatars", len(avatars))
	l.bus.Publish(event.EventSceneLoaded, event.SceneLoadedEvent{
		Version: version,
		Solids:  len(solids),
		Avatars: len(avatars),
		Digest:  digest,
	})
	return true, nil
}

func (l *Loader) fail(path string, err error) error {
	slog.Warn("Scene load failed", "path", path, "error", err)
	l.bus.Publish(event.EventSceneLoadError, event.SceneLoadErrorEvent{Path: path, Err: err})
	return err
}

// Watch reloads whenever either file is written, created or renamed into
// place. Directories are watched rather than files so editors that replace
// the file on save keep triggering reloads. Watch blocks until ctx is done.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	for _, p := range []string{l.layoutPath, l.membersPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !targets[abs] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(reloadDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Scene watcher error", "error", err)
		case <-timer.C:
			if _, err := l.Load(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("Scene reload failed", "error", err)
			}
		}
	}
}

func contentDigest(parts ...[]byte) uint64 {
	h := xxh3.New()
	for _, p := range parts {
		var n [8]byte
		size := uint64(len(p))
		for i := range n {
			n[i] = byte(size >> (8 * i))
		}
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}
	return h.Sum64()
}
