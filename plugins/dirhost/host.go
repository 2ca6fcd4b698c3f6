// Package dirhost provides a host.Context backed by a directory of package
// manifests. Each "<package-id>.toml" file stands for one installed package;
// creating, rewriting and deleting those files is reported as package
// intents, the same way a platform package manager would broadcast them.
package dirhost

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/pkgwatch/pkg/host"
	"github.com/bft-labs/pkgwatch/pkg/log"
)

// Config holds configuration options for the directory host.
type Config struct {
	// ReplaceWindow is how long a deleted manifest may take to reappear and
	// still count as an update rather than an uninstall.
	// Default: 2 seconds
	ReplaceWindow time.Duration

	// Logger receives watcher diagnostics. Default: no-op.
	Logger log.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReplaceWindow: 2 * time.Second,
	}
}

type pendingRemoval struct {
	seq   uint64
	timer *time.Timer
}

type expiry struct {
	id  string
	seq uint64
}

// Host watches a manifest directory and broadcasts package intents. It
// embeds a Broadcaster, so it satisfies host.Context. Intents are broadcast
// from a single watch goroutine, in the order the changes were observed.
type Host struct {
	*host.Broadcaster

	dir           string
	replaceWindow time.Duration
	logger        log.Logger
	watcher       *fsnotify.Watcher

	mu    sync.RWMutex
	known map[string]Manifest

	// owned by the watch goroutine
	pending map[string]*pendingRemoval
	seq     uint64

	expired   chan expiry
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open indexes the manifests already present in dir without broadcasting
// them, then starts watching for changes.
func Open(dir string, cfg Config) (*Host, error) {
	if cfg.ReplaceWindow <= 0 {
		cfg.ReplaceWindow = DefaultConfig().ReplaceWindow
	}
	logger := log.WithComponent(cfg.Logger, "dirhost")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	h := &Host{
		Broadcaster:   host.NewBroadcaster(logger),
		dir:           dir,
		replaceWindow: cfg.ReplaceWindow,
		logger:        logger,
		watcher:       watcher,
		known:         make(map[string]Manifest),
		pending:       make(map[string]*pendingRemoval),
		expired:       make(chan expiry),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	if err := h.scan(); err != nil {
		watcher.Close()
		return nil, err
	}

	indexed := len(h.known)
	go h.watchLoop()

	logger.Info("watching package manifests",
		log.String("dir", dir),
		log.Int("packages", indexed),
		log.Duration("replace_window", cfg.ReplaceWindow),
	)
	return h, nil
}

// Dir returns the watched directory.
func (h *Host) Dir() string { return h.dir }

// Packages returns the identifiers of the currently installed packages, sorted.
func (h *Host) Packages() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.known))
	for id := range h.known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Manifest returns the last manifest seen for a package.
func (h *Host) Manifest(id string) (Manifest, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.known[id]
	return m, ok
}

// Close stops watching and closes the embedded Broadcaster. It is idempotent.
func (h *Host) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.stop)
		err = h.watcher.Close()
		<-h.done
		h.Broadcaster.Close()
		h.logger.Info("stopped watching package manifests", log.String("dir", h.dir))
	})
	return err
}

func (h *Host) scan() error {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", h.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := packageID(e.Name())
		if !ok {
			continue
		}
		m, err := LoadManifest(filepath.Join(h.dir, e.Name()))
		if err != nil {
			h.logger.Warn("skipping manifest", log.String("package", id), log.Err(err))
			continue
		}
		h.known[id] = m
	}
	return nil
}

// watchLoop translates file events into intents.
func (h *Host) watchLoop() {
	defer close(h.done)
	defer h.stopPending()

	for {
		select {
		case <-h.stop:
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			h.handleEvent(event)

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error("watcher error", log.Err(err))

		case exp := <-h.expired:
			h.finishRemoval(exp)
		}
	}
}

func (h *Host) handleEvent(event fsnotify.Event) {
	id, ok := packageID(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		h.upsert(id, event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		h.remove(id)
	}
}

func (h *Host) upsert(id, path string) {
	m, err := LoadManifest(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist), errors.Is(err, ErrIncompleteManifest):
			h.logger.Debug("manifest not ready", log.String("package", id), log.Err(err))
		default:
			h.logger.Warn("skipping manifest", log.String("package", id), log.Err(err))
		}
		return
	}

	if p, ok := h.pending[id]; ok {
		// Deleted and recreated inside the window: an update.
		p.timer.Stop()
		delete(h.pending, id)
		h.setKnown(id, m)
		h.broadcastUpdate(id)
		return
	}

	prev, known := h.Manifest(id)
	h.setKnown(id, m)

	switch {
	case !known:
		h.send(host.ActionPackageAdded, id, nil)
	case prev.Version != m.Version:
		h.broadcastUpdate(id)
	case prev.IsEnabled() != m.IsEnabled():
		h.send(host.ActionPackageChanged, id, nil)
	}
}

func (h *Host) remove(id string) {
	if _, known := h.Manifest(id); !known {
		return
	}
	if _, already := h.pending[id]; already {
		return
	}

	h.mu.Lock()
	delete(h.known, id)
	h.mu.Unlock()

	h.seq++
	exp := expiry{id: id, seq: h.seq}
	h.pending[id] = &pendingRemoval{
		seq: exp.seq,
		timer: time.AfterFunc(h.replaceWindow, func() {
			select {
			case h.expired <- exp:
			case <-h.stop:
			}
		}),
	}
}

func (h *Host) finishRemoval(exp expiry) {
	p, ok := h.pending[exp.id]
	if !ok || p.seq != exp.seq {
		return
	}
	delete(h.pending, exp.id)

	h.send(host.ActionPackageRemoved, exp.id, map[string]bool{host.ExtraDataRemoved: true})
	h.send(host.ActionPackageFullyRemoved, exp.id, nil)
}

func (h *Host) broadcastUpdate(id string) {
	replacing := map[string]bool{host.ExtraReplacing: true}
	h.send(host.ActionPackageRemoved, id, replacing)
	h.send(host.ActionPackageAdded, id, replacing)
	h.send(host.ActionPackageReplaced, id, replacing)
}

func (h *Host) send(action, id string, extras map[string]bool) {
	intent := host.Intent{Action: action, Data: host.PackageURI(id), Extras: extras}
	n := h.Broadcast(intent)
	h.logger.Debug("intent broadcast",
		log.String("action", action),
		log.String("package", id),
		log.Int("receivers", n),
	)
}

func (h *Host) setKnown(id string, m Manifest) {
	h.mu.Lock()
	h.known[id] = m
	h.mu.Unlock()
}

func (h *Host) stopPending() {
	for id, p := range h.pending {
		p.timer.Stop()
		delete(h.pending, id)
	}
}

var _ host.Context = (*Host)(nil)
