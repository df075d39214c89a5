// internal/adapter/storage/run_file.go

package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tweetscope/internal/domain/tweet"
)

// RunFileLayout names raw run files after the run start time
const RunFileLayout = "2006-01-02_15-04-05"

// RunFile records every pulled tweet of one run as a JSON array in
// <folder>/<handle>/<start time>.json
type RunFile struct {
	path  string
	file  *os.File
	w     *bufio.Writer
	count int
	mu    sync.Mutex
}

// NewRunFile creates the run file and writes the array opening
func NewRunFile(folder, handle string, started time.Time) (*RunFile, error) {
	dir := filepath.Join(folder, handle)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save folder: %w", err)
	}

	path := filepath.Join(dir, started.Format(RunFileLayout)+".json")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create run file: %w", err)
	}

	rf := &RunFile{path: path, file: f, w: bufio.NewWriter(f)}
	if _, err := rf.w.WriteString("["); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write run file: %w", err)
	}
	return rf, nil
}

// Path returns the file location
func (r *RunFile) Path() string {
	return r.path
}

// Count returns the number of recorded tweets
func (r *RunFile) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Record appends one tweet to the array
func (r *RunFile) Record(ctx context.Context, t tweet.Tweet) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("error marshaling tweet %s: %w", t.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count > 0 {
		if err := r.w.WriteByte(','); err != nil {
			return fmt.Errorf("failed to write run file: %w", err)
		}
	}
	if _, err := r.w.Write(data); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}
	r.count++
	return nil
}

// Close terminates the array and closes the file
func (r *RunFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.w.WriteString("]"); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to write run file: %w", err)
	}
	if err := r.w.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to flush run file: %w", err)
	}
	return r.file.Close()
}
