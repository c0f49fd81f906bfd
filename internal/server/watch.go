package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dejo1307/xcodemcp/internal/watch"
)

// startWatcher regenerates the snapshot whenever a loaded project's
// pbxproj or schemes change. The returned stop function cancels the
// watcher and waits for it to exit.
func (s *Server) startWatcher(ctx context.Context) (func(), error) {
	ws, err := s.ensureWorkspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}

	var w *watch.Watcher
	w, err = watch.New(time.Duration(s.cfg.Watch.DebounceMS)*time.Millisecond, func(ctx context.Context, changed []string) {
		log.Printf("[server] regenerating snapshot after %d change(s)", len(changed))
		if _, err := s.eng.GenerateSnapshot(ctx, ws.Root()); err != nil {
			log.Printf("[server] regeneration failed: %v", err)
			return
		}
		if err := s.eng.WriteArtifacts(ws.Root()); err != nil {
			log.Printf("[server] warning: failed to write artifacts: %v", err)
		}
		// Schemes may live in directories that did not exist at startup.
		for _, p := range s.eng.Workspace().Paths() {
			if err := w.Add(p); err != nil {
				log.Printf("[server] %v", err)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	for _, p := range ws.Paths() {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := w.Run(ctx); err != nil {
			log.Printf("[server] watcher stopped: %v", err)
		}
	}()
	log.Printf("[server] watching %d project(s)", len(ws.Paths()))

	return func() {
		cancel()
		wg.Wait()
	}, nil
}
