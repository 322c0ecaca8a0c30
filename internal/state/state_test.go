package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "sent_events.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("anything"))
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_events.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sent": {"a": truncated`), 0o600))

	s, err := Load(path)
	assert.ErrorIs(t, err, ErrCorrupt)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())

	// A corrupt-recovered store must still be usable and saveable.
	s.MarkSent("a", time.Now())
	require.NoError(t, s.Save())
}

func TestMarkSentSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_events.json")

	s, err := Load(path)
	require.NoError(t, err)

	sentAt := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)
	s.MarkSent("evt-a", sentAt)
	require.NoError(t, s.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Contains("evt-a"))
	assert.Equal(t, []string{"evt-a"}, loaded.UIDs())
}

func TestSavePreservesEarlierUIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_events.json")

	first, err := Load(path)
	require.NoError(t, err)
	first.MarkSent("evt-a", time.Now())
	require.NoError(t, first.Save())

	second, err := Load(path)
	require.NoError(t, err)
	second.MarkSent("evt-b", time.Now())
	require.NoError(t, second.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"evt-a", "evt-b"}, loaded.UIDs())
}

func TestLoadIgnoresInterruptedWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sent_events.json")

	s, err := Load(path)
	require.NoError(t, err)
	s.MarkSent("evt-a", time.Now())
	require.NoError(t, s.Save())

	// Simulate a crash between temp-file write and rename: a stray temp
	// file must never shadow or corrupt the committed state.
	stray := filepath.Join(dir, ".sent-events-crashed.tmp")
	require.NoError(t, os.WriteFile(stray, []byte(`{"sent": {`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Contains("evt-a"))
	assert.Equal(t, 1, loaded.Len())
}

func TestSaveFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_events.json")

	s, err := Load(path)
	require.NoError(t, err)
	s.MarkSent("evt-a", time.Now())
	require.NoError(t, s.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveWithEmptyPath(t *testing.T) {
	s := &Store{sent: map[string]Record{}}
	assert.Error(t, s.Save())
}
