package main

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestTruncate verifies truncation counts runes, not bytes
func TestTruncate(t *testing.T) {
	assert.Equal(t, "Chargé", truncate("Chargé", 6))
	assert.Equal(t, "Chargé d...", truncate("Chargé d'études", 11))
	assert.Equal(t, "Ch", truncate("Chargé", 2))
	assert.Equal(t, "", truncate("", 5))
}

// TestLevelFilter verifies INFO lines are hidden unless verbose
func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&levelFilter{w: &buf}, "", 0)

	logger.Printf("INFO: Crawling page 1")
	logger.Printf("WARN: Page 2 timed out")

	assert.Equal(t, "WARN: Page 2 timed out\n", buf.String())

	buf.Reset()
	verbose := log.New(&levelFilter{w: &buf, verbose: true}, "", 0)
	verbose.Printf("INFO: Crawling page 1")
	assert.Equal(t, "INFO: Crawling page 1\n", buf.String())
}

// TestValueOr verifies nil falls back
func TestValueOr(t *testing.T) {
	s := "Acme"
	assert.Equal(t, "Acme", valueOr(&s, "Unknown"))
	assert.Equal(t, "Unknown", valueOr(nil, "Unknown"))
}

// TestFormatDate verifies missing and zero times
func TestFormatDate(t *testing.T) {
	assert.Equal(t, "unknown", formatDate(nil))
	assert.Equal(t, "-", formatTimestamp(time.Time{}))

	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)
	assert.Equal(t, "2025-03-14 09:30", formatDate(&ts))
}
