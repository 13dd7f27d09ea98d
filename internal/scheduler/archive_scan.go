package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avolkov/keepsake/internal/tasks"
)

// ArchiveScanScheduler watches a drop directory for new archive files and
// enqueues a background import for each one it has not seen before.
type ArchiveScanScheduler struct {
	dir      string
	schedule string
	client   *tasks.Client

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc

	// seen maps file path to the modification time already enqueued, so
	// an updated export of the same file is picked up again.
	seen map[string]time.Time
}

// NewArchiveScanScheduler creates a new scheduler instance.
func NewArchiveScanScheduler(dir, schedule string, client *tasks.Client) *ArchiveScanScheduler {
	return &ArchiveScanScheduler{
		dir:      dir,
		schedule: schedule,
		client:   client,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		seen:     make(map[string]time.Time),
	}
}

// Start begins the scheduler.
func (s *ArchiveScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runScan()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule archive scan: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Archive scan scheduler: started with schedule '%s' watching %s", s.schedule, s.dir)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *ArchiveScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Archive scan scheduler: stopped")
}

// RunNow triggers an immediate scan.
func (s *ArchiveScanScheduler) RunNow() {
	go s.runScan()
}

// IsRunning returns whether the scheduler is active.
func (s *ArchiveScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// runScan walks the drop directory once.
func (s *ArchiveScanScheduler) runScan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Archive scan: skipped (already scanning)")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("Archive scan: cannot read %s: %v", s.dir, err)
		return
	}

	enqueued := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		source := SourceForFile(entry.Name())
		if source == "" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		s.mu.Lock()
		lastSeen, known := s.seen[path]
		if known && !info.ModTime().After(lastSeen) {
			s.mu.Unlock()
			continue
		}
		s.seen[path] = info.ModTime()
		s.mu.Unlock()

		_, err = s.client.Add(tasks.ImportArchiveTask{Path: path, Source: source}).Save()
		if err != nil {
			log.Printf("Archive scan: failed to enqueue %s: %v", path, err)
			continue
		}
		log.Printf("Archive scan: enqueued %s as %s import", path, source)
		enqueued++
	}

	if enqueued > 0 {
		log.Printf("Archive scan: enqueued %d archive(s)", enqueued)
	}
}

// SourceForFile maps a dropped file name to a source type by its shape.
// Unrecognized names return "".
func SourceForFile(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".car"):
		return "bluesky"
	case strings.HasPrefix(lower, "outbox") && strings.HasSuffix(lower, ".json"):
		return "mastodon"
	case strings.HasPrefix(lower, "tweets") && strings.HasSuffix(lower, ".js"):
		return "twitter"
	case strings.HasSuffix(lower, ".csv"):
		return "twitter-csv"
	}
	return ""
}
