package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetLogging restores package state after a test
func resetLogging(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		CloseAll()
		_ = Initialize(Options{})
	})
}

// TestAllCategoriesLog tests that all categories create log files when debug mode is on
func TestAllCategoriesLog(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, Initialize(Options{DebugMode: true, Dir: dir, Level: "debug"}))
	require.True(t, IsDebugMode())

	for _, cat := range AllCategories {
		assert.True(t, IsCategoryEnabled(cat), "category %s should be enabled", cat)
		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	Notebook("Convenience notebook log")
	Sandbox("Convenience sandbox log")
	UI("Convenience ui log")
	Watch("Convenience watch log")

	CloseAll()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, cat := range AllCategories {
		found := false
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), "_"+string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
				require.NoError(t, err)
				assert.Contains(t, string(content), "Test info message for "+string(cat))
				break
			}
		}
		assert.True(t, found, "no log file found for category %s", cat)
	}
}

// TestDebugModeDisabled tests that no logs are created when debug mode is off
func TestDebugModeDisabled(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, Initialize(Options{DebugMode: false, Dir: dir}))
	assert.False(t, IsDebugMode())

	logger := Get(CategoryNotebook)
	assert.False(t, logger.Enabled())
	logger.Info("dropped")
	Audit().CellRun("c1", false, 1, time.Millisecond, nil)

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "log directory should not be created")
}

func TestCategoryFilter(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, Initialize(Options{
		DebugMode:  true,
		Dir:        dir,
		Categories: map[string]bool{"sandbox": false},
	}))

	assert.False(t, IsCategoryEnabled(CategorySandbox))
	assert.True(t, IsCategoryEnabled(CategoryNotebook), "unspecified categories default to enabled")
	assert.False(t, Get(CategorySandbox).Enabled())
}

func TestLevelFiltering(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, Initialize(Options{DebugMode: true, Dir: dir, Level: "warn"}))
	logger := Get(CategoryWatch)
	logger.Info("too quiet")
	logger.Warn("loud enough")
	CloseAll()

	matches, err := filepath.Glob(filepath.Join(dir, "*_watch.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.NotContains(t, string(content), "too quiet")
	assert.Contains(t, string(content), "loud enough")
}

func TestJSONFormatAndWith(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, Initialize(Options{DebugMode: true, Dir: dir, JSONFormat: true}))
	Get(CategoryNotebook).With("cell", "abc").Info("ran %d segments", 3)
	CloseAll()

	matches, err := filepath.Glob(filepath.Join(dir, "*_notebook.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"ran 3 segments"`)
	assert.Contains(t, string(content), `"cell":"abc"`)
}

func TestAuditTrail(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, Initialize(Options{DebugMode: true, Dir: dir}))
	Audit().CellRun("c1", true, 1, 5*time.Millisecond, nil)
	Audit().CellRun("c2", false, 3, 0, errors.New("boom"))
	Audit().CellChange(AuditCellDelete, "missing", false)
	CloseAudit()

	matches, err := filepath.Glob(filepath.Join(dir, "*_audit.jsonl"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"mode":"isolated"`)
	assert.Contains(t, lines[1], `"error":"boom"`)
	assert.Contains(t, lines[1], `"segments":3`)
	assert.Contains(t, lines[2], `"event":"cell_delete"`)
	assert.Contains(t, lines[2], `"success":false`)
}

func TestInitialize_RejectsBadLevel(t *testing.T) {
	resetLogging(t)
	assert.Error(t, Initialize(Options{Level: "chatty"}))
}
