package main

import (
	"bytes"
	"io"
	"time"
)

// levelFilter drops INFO log lines unless verbose is set.
type levelFilter struct {
	w       io.Writer
	verbose bool
}

func (f *levelFilter) Write(p []byte) (int, error) {
	if !f.verbose && bytes.Contains(p, []byte("INFO:")) {
		return len(p), nil
	}
	return f.w.Write(p)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// valueOr dereferences s, or returns fallback for nil.
func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return formatTimestamp(*t)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
