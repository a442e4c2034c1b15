package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faktgen/internal/errors"
	"faktgen/internal/parser"
)

// debouncePeriod collapses bursts of file events into one regeneration.
const debouncePeriod = 300 * time.Millisecond

func (a *app) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [inputs...]",
		Short: "Regenerate fakes whenever declaration files change",
		Args:  cobra.ArbitraryArgs,
		RunE:  a.runWatch,
	}
}

func (a *app) runWatch(cmd *cobra.Command, _ []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer watcher.Close()

	dirs, err := watchDirs(a.cfg.Inputs)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "watching %s", dir)
		}
	}
	a.log.Info("watching declaration files", zap.Strings("dirs", dirs))

	a.regenerate(cmd)
	pterm.Info.WithWriter(cmd.OutOrStdout()).Println("watching for changes, press Ctrl+C to stop")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-cmd.Context().Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						a.log.Warn("watching new directory failed", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}
			if !relevant(event) {
				continue
			}
			a.log.Debug("declaration changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debouncePeriod)
			} else {
				timer.Reset(debouncePeriod)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			a.regenerate(cmd)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

// regenerate runs one generation and keeps watching on failure.
func (a *app) regenerate(cmd *cobra.Command) {
	pc := a.newContext()
	if _, err := a.generate(cmd, pc); err != nil {
		a.log.Error("generation failed", zap.Error(err))
		pterm.Error.WithWriter(cmd.ErrOrStderr()).Println(err.Error())
	}
}

func relevant(event fsnotify.Event) bool {
	if parser.FormatFor(event.Name) == "" {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// watchDirs returns the base directory of every input pattern and all
// directories below it. fsnotify watches are not recursive.
func watchDirs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		base = filepath.FromSlash(base)
		if info, err := os.Stat(base); err == nil && !info.IsDir() {
			base = filepath.Dir(base)
		}
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				seen[path] = true
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walking %s", base)
		}
	}
	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	if len(dirs) == 0 {
		return nil, errors.WithHint(errors.New("no input directories to watch"),
			"check the inputs setting or pass input globs as arguments")
	}
	return dirs, nil
}
