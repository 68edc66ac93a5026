// Package logger is the process-wide log for docrag.
//
// Debug, Info and Section output appears only with --verbose and traces the
// ingest and retrieval pipeline. Warnings are always written, since they
// report chunks or pages that were skipped.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
)

var prefixes = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose turns debug and info output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether debug output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log output. The TUI passes io.Discard while it
// owns the terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// Debug logs pipeline detail.
func Debug(format string, args ...any) {
	logf(levelDebug, format, args...)
}

// Info logs a pipeline step summary.
func Info(format string, args ...any) {
	logf(levelInfo, format, args...)
}

// Warn logs a recoverable failure.
func Warn(format string, args ...any) {
	logf(levelWarn, format, args...)
}

// Section starts a named block of verbose output.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func logf(l level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l < levelWarn && !verbose {
		return
	}
	fmt.Fprintf(output, prefixes[l]+format+"\n", args...)
}
