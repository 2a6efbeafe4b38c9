package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// runWatch re-applies the profile every time the profile document
// changes on disk. The store saves atomically via rename, so the watch
// sits on the directory and filters for the document's file name.
func runWatch(profileName string, debounceMS int) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}
	if cfg.FindProfile(profileName) == nil {
		return fmt.Errorf("profile %q not found", profileName)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "watch",
	})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	storePath := env.store.Path()
	if err := watcher.Add(filepath.Dir(storePath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(storePath), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("shutting down")
		cancel()
	}()

	eng := env.engine(false, false)
	apply := func() {
		res, err := eng.Apply(ctx, profileName)
		if err != nil {
			logger.Error("apply failed", "profile", profileName, "err", err)
			return
		}
		logger.Info("applied", "profile", profileName, "rules", res.RulesWritten, "removed", res.RulesRemoved)
	}

	logger.Info("watching", "file", storePath, "profile", profileName)
	apply()

	debounce := time.Duration(debounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	// A nil channel blocks forever, so the timer only fires after an
	// event armed it.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(storePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)

		case <-pending:
			pending = nil
			apply()
		}
	}
}
