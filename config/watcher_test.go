package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/config"
)

const docV1 = "nodeKinds:\n  - name: Person\n"
const docV2 = "nodeKinds:\n  - name: Person\n  - name: Company\n"

func TestWatchFileReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ontology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(docV1), 0o644))

	w, err := config.WatchFile(path, nil)
	require.NoError(t, err)
	defer w.Close()

	_, ok := w.Current().NodeKind("Company")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(docV2), 0o644))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := w.Current().NodeKind("Company"); ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not pick up the updated ontology document in time")
}

func TestWatchFileKeepsPreviousRegistryOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ontology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(docV1), 0o644))

	w, err := config.WatchFile(path, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("nodeKinds: [{name: Person, nope: true}]"), 0o644))
	time.Sleep(200 * time.Millisecond)

	_, ok := w.Current().NodeKind("Person")
	assert.True(t, ok)
}

func TestWatchFileMissingInitialLoad(t *testing.T) {
	_, err := config.WatchFile("/nonexistent/ontology.yaml", nil)
	require.Error(t, err)
}
