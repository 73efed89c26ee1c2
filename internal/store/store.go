// Package store is the gateway's durable domain state: devices, aliases,
// sessions, channels, memberships, DM conversations, messages, moderation
// log, bots, and audit events, held in memory and persisted by a debounced
// write-behind flush to a single JSON document instead of SQL — so there
// are no PRAGMAs or schema migrations here, just one struct and one file.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"ircgateway/internal/metrics"
	"ircgateway/internal/models"
	"ircgateway/internal/snowflake"
)

// flushDebounce is how long after a mutation the background flusher waits
// before writing the document, coalescing concurrent mutations into one
// flush.
const flushDebounce = 800 * time.Millisecond

// Store is the single-writer authoritative domain state. All exported
// methods take the mutex themselves and are safe to call concurrently;
// operations must be linearizable in wall-clock order, which a single
// mutex guarding the aggregate state satisfies directly.
type Store struct {
	mutex sync.Mutex
	doc   *document

	path string
	sugar *zap.SugaredLogger

	dirty      bool
	flushTimer *time.Timer
	stopCh     chan struct{}
	stoppedWg  sync.WaitGroup
}

// Setup loads the document at path (or initializes and writes an empty one
// if it's missing or corrupt) and starts the debounced flusher.
func Setup(sugar *zap.SugaredLogger, path string) (*Store, error) {
	s := &Store{
		path:   path,
		sugar:  sugar,
		stopCh: make(chan struct{}),
	}

	doc, loadedFromDisk, err := loadDocument(sugar, path)
	if err != nil {
		return nil, err
	}
	s.doc = doc

	if !loadedFromDisk {
		sugar.Infow("store: initializing empty document", "path", path)
		if err := s.writeNow(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// loadDocument reads path. A missing file yields an empty document with
// loadedFromDisk=false (caller writes it immediately). A corrupt file resets
// to empty, logged at Error so operators notice.
func loadDocument(sugar *zap.SugaredLogger, path string) (*document, bool, error) {
	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return emptyDocument(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading state file: %w", err)
	}

	doc := emptyDocument()
	if err := json.Unmarshal(bytes, doc); err != nil {
		sugar.Errorw("store: state file is corrupt, resetting to empty", "path", path, "error", err)
		return emptyDocument(), false, nil
	}
	if doc.Devices == nil {
		doc.Devices = make(map[string]*models.Device)
	}
	if doc.Aliases == nil {
		doc.Aliases = make(map[string]*models.Alias)
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]*models.Session)
	}
	if doc.Channels == nil {
		doc.Channels = make(map[string]*models.Channel)
	}
	if doc.ChannelMembers == nil {
		doc.ChannelMembers = make(map[string]map[string]*models.Membership)
	}
	if doc.DmConversations == nil {
		doc.DmConversations = make(map[string]*models.DmConversation)
	}
	return doc, true, nil
}

// markDirty must be called with the mutex held. It schedules a flush
// flushDebounce from now unless one is already pending, in which case the
// pending timer absorbs this mutation too.
func (s *Store) markDirty() {
	s.dirty = true
	if s.flushTimer != nil {
		return
	}
	s.flushTimer = time.AfterFunc(flushDebounce, s.flushDue)
}

func (s *Store) flushDue() {
	s.mutex.Lock()
	s.flushTimer = nil
	dirty := s.dirty
	s.mutex.Unlock()

	if !dirty {
		return
	}
	if err := s.writeNow(); err != nil {
		s.sugar.Errorw("store: flush failed, will retry on next mutation", "error", err)
	}
}

// writeNow performs the full-document rewrite via a temp file followed by
// an atomic rename, so a crash mid-write never leaves a truncated document.
func (s *Store) writeNow() error {
	start := time.Now()

	s.mutex.Lock()
	bytes, err := json.Marshal(s.doc)
	s.mutex.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling state document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".irc-state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(bytes); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming temp state file into place: %w", err)
	}

	s.mutex.Lock()
	s.dirty = false
	s.mutex.Unlock()

	metrics.StoreFlushDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Shutdown flushes any pending write and stops the debounce timer.
func (s *Store) Shutdown() error {
	s.mutex.Lock()
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
	dirty := s.dirty
	s.mutex.Unlock()

	if dirty {
		return s.writeNow()
	}
	return nil
}

func newID() (string, error) {
	return snowflake.GenerateID()
}
