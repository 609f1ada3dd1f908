// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package watch tails JSONL interaction logs and hands each parsed
// exchange to registered handlers. Directories are watched for new log
// files appearing after startup.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/nxadm/tail"
)

// Handler is called for each parsed interaction
type Handler func(in Interaction)

// Watcher watches multiple interaction log files and calls handlers for
// each parsed line
type Watcher struct {
	files     []string
	dirs      []string
	tailLines int
	follow    bool
	oneshot   bool
	handlers  []Handler
	tails     []*tail.Tail
	watching  map[string]bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Config holds watcher configuration
type Config struct {
	Paths     []string // Files, globs, or directories
	TailLines int      // Number of existing lines to replay initially
	Follow    bool     // Keep watching for new lines
	Oneshot   bool     // Read all lines and exit (don't follow)
}

// New creates a new Watcher
func New(cfg Config) (*Watcher, error) {
	var files, dirs []string
	for _, pattern := range cfg.Paths {
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			dirs = append(dirs, pattern)
			matches, err := filepath.Glob(filepath.Join(pattern, "*.jsonl"))
			if err == nil {
				files = append(files, matches...)
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: file %q does not exist (will watch for creation)\n", pattern)
			}
			files = append(files, pattern)
		} else {
			files = append(files, matches...)
		}
	}

	if len(files) == 0 && len(dirs) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		files:     files,
		dirs:      dirs,
		tailLines: cfg.TailLines,
		follow:    cfg.Follow,
		oneshot:   cfg.Oneshot,
		handlers:  make([]Handler, 0),
		tails:     make([]*tail.Tail, 0),
		watching:  make(map[string]bool),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// AddHandler adds an interaction handler
func (w *Watcher) AddHandler(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Start begins watching all files and directories, blocking until Stop
// or an unrecoverable setup error.
func (w *Watcher) Start() error {
	for _, file := range w.files {
		w.spawnTail(file)
	}

	if len(w.dirs) > 0 && w.follow {
		if err := w.watchDirs(); err != nil {
			w.cancel()
			return err
		}
	}

	<-w.ctx.Done()

	w.mu.Lock()
	for _, t := range w.tails {
		t.Stop()
	}
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

// Stop stops watching all files
func (w *Watcher) Stop() {
	w.cancel()
}

// Files returns the list of files being watched (after glob expansion)
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.files...)
}

func (w *Watcher) spawnTail(file string) {
	w.mu.Lock()
	if w.watching[file] {
		w.mu.Unlock()
		return
	}
	w.watching[file] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.watchFile(file); err != nil {
			fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", file, err)
		}
	}()
}

// watchDirs starts an fsnotify loop that picks up .jsonl files created
// in watched directories after startup.
func (w *Watcher) watchDirs() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create directory watcher: %w", err)
	}
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fsw.Close()
		for {
			select {
			case <-w.ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) {
					continue
				}
				if strings.EqualFold(filepath.Ext(ev.Name), ".jsonl") {
					w.mu.Lock()
					w.files = append(w.files, ev.Name)
					w.mu.Unlock()
					w.spawnTail(ev.Name)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "Directory watch error: %v\n", err)
			}
		}
	}()
	return nil
}

// ReadAll reads all lines from all files and calls handlers for each
// parsed interaction. This is used for oneshot mode.
func (w *Watcher) ReadAll() (int, error) {
	total := 0

	for _, filename := range w.Files() {
		lines, err := readLines(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", filename, err)
			continue
		}
		for _, line := range lines {
			if w.handleLine(line, filename) {
				total++
			}
		}
	}

	return total, nil
}

func (w *Watcher) watchFile(filename string) error {
	// Replay the last N existing lines if requested.
	if w.tailLines > 0 {
		if err := w.replayLastLines(filename); err != nil {
			// Not fatal, the file might not exist yet.
			fmt.Fprintf(os.Stderr, "Warning: could not read initial lines from %s: %v\n", filename, err)
		}
	}

	// Start tailing from end of file
	cfg := tail.Config{
		Follow:    w.follow,
		ReOpen:    true,  // Handle file rotation
		MustExist: false, // Allow watching files that don't exist yet
		Poll:      true,  // Use polling (more reliable across filesystems)
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
	}

	t, err := tail.TailFile(filename, cfg)
	if err != nil {
		return fmt.Errorf("failed to tail %s: %w", filename, err)
	}

	w.mu.Lock()
	w.tails = append(w.tails, t)
	w.mu.Unlock()

	for {
		select {
		case <-w.ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", filename, line.Err)
				continue
			}
			w.handleLine(line.Text, filename)
		}
	}
}

// replayLastLines parses and dispatches the last N lines of a file.
func (w *Watcher) replayLastLines(filename string) error {
	lines, err := readLines(filename)
	if err != nil {
		return err
	}

	start := 0
	if len(lines) > w.tailLines {
		start = len(lines) - w.tailLines
	}
	for _, line := range lines[start:] {
		w.handleLine(line, filename)
	}
	return nil
}

// handleLine parses one line and dispatches it, reporting whether the
// line held a valid interaction.
func (w *Watcher) handleLine(line, filename string) bool {
	if line == "" {
		return false
	}
	in := ParseLine(line, filename)
	if in == nil {
		return false
	}
	if in.Session == "" {
		in.Session = SessionFromFilename(filename)
	}

	w.mu.Lock()
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	for _, h := range handlers {
		h(*in)
	}
	return true
}

// readLines reads a whole file into lines, keeping a trailing
// unterminated line.
func readLines(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	buf := make([]byte, 64*1024)
	var partial string

	for {
		n, err := file.Read(buf)
		if n > 0 {
			chunk := partial + string(buf[:n])
			parts := splitLines(chunk)
			if len(parts) > 0 {
				// Last part might be incomplete
				partial = parts[len(parts)-1]
				lines = append(lines, parts[:len(parts)-1]...)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if partial != "" {
		lines = append(lines, partial)
	}
	return lines, nil
}

// splitLines splits a string into lines, preserving the last potentially incomplete line
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			line := s[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
			start = i + 1
		}
	}
	// Include any trailing content (potentially incomplete line)
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
