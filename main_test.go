package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stevemurr/school-console/api"
	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/seed"
	"github.com/stevemurr/school-console/store"
)

const seedYAML = `
branches:
  - id: 1
    name: North Campus
    code: N-1
library_resources:
  - id: 1
    title: Algebra I
    type: book
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&app{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStorageCommands(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	seedFile := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(seedYAML), 0o644))
	common := []string{"--backend", "json", "--data-dir", filepath.Join(dir, "data"), "--seed-file", seedFile}

	out, err := run(t, append([]string{"seed"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded branches (1 records)")
	assert.Contains(t, out, "seeded library_resources (1 records)")

	// Existing keys are left alone without --overwrite.
	out, err = run(t, append([]string{"seed"}, common...)...)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(t, append([]string{"keys"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "branches\nlibrary_resources\n", out)

	out, err = run(t, append([]string{"dump", "branches"}, common...)...)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"North Campus","code":"N-1"}]`, out)

	out, err = run(t, append([]string{"drop", "branches"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "dropped branches\n", out)

	_, err = run(t, append([]string{"dump", "branches"}, common...)...)
	assert.Error(t, err)
	_, err = run(t, append([]string{"drop", "branches"}, common...)...)
	assert.Error(t, err)
}

func TestSeedCommandNeedsFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SEED_FILE", "")
	_, err := run(t, "seed", "--backend", "memory")
	assert.Error(t, err)
}

func TestUnknownBackend(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	_, err := run(t, "keys", "--backend", "etcd")
	assert.Error(t, err)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("DATA_DIR", "/nonexistent")

	a := &app{}
	cmd := newRootCommand(a)
	cmd.SetArgs([]string{"keys", "--backend", "memory"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "memory", a.cfg.Backend)
	assert.Equal(t, "/nonexistent", a.cfg.DataDir)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = newLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))

	_, err = newLogger("loud", "json")
	assert.Error(t, err)
	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}

func TestServicesUseSeeds(t *testing.T) {
	set, err := seed.Parse([]byte(seedYAML))
	require.NoError(t, err)

	a := &app{logger: zap.NewNop()}
	cs := collection.New[json.RawMessage](store.NewMemoryStore())
	endpoints, onboarding := a.services(cs, set)
	require.Len(t, endpoints, 4)
	require.NotNil(t, onboarding)

	var library api.Endpoint
	for _, ep := range endpoints {
		if ep.Definition().Key == api.Library.Key {
			library = ep
		}
	}
	require.NotNil(t, library)
	got, err := library.Get(t.Context(), collection.IntID(1))
	require.NoError(t, err)
	assert.Equal(t, "Algebra I", got.(api.Resource).Title)

	// The seed was persisted on first access.
	_, ok := cs.Lookup(api.Library.Key)
	assert.True(t, ok)
}
