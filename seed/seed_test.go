package seed_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/seed"
	"github.com/stevemurr/school-console/store"
)

const yamlSeed = `
branches:
  - id: 1
    name: North Campus
    code: N-1
    students: 420
  - id: 2
    name: South Campus
    code: S-1
support_onboarding:
  - id: 5b0c7f5e-0d7e-4c55-9a55-1a2b3c4d5e6f
    schoolName: Riverside
    stage: setup
library_resources: []
`

func TestParseYAML(t *testing.T) {
	set, err := seed.Parse([]byte(yamlSeed))
	require.NoError(t, err)
	assert.Equal(t, []string{"branches", "library_resources", "support_onboarding"}, set.Keys())

	branches := set["branches"]
	require.Len(t, branches, 2)
	n, ok := branches[0].ID.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(1), n)
	assert.JSONEq(t, `420`, string(branches[0].Fields["students"]))

	onboarding := set["support_onboarding"]
	require.Len(t, onboarding, 1)
	assert.Equal(t, "5b0c7f5e-0d7e-4c55-9a55-1a2b3c4d5e6f", onboarding[0].ID.String())

	assert.NotNil(t, set["library_resources"])
	assert.Empty(t, set["library_resources"])
}

func TestParseJSON(t *testing.T) {
	set, err := seed.Parse([]byte(`{"teachers": [{"id": 3, "firstName": "Ada"}]}`))
	require.NoError(t, err)
	require.Len(t, set["teachers"], 1)
	assert.Equal(t, "3", set["teachers"][0].ID.String())
}

func TestParseErrors(t *testing.T) {
	_, err := seed.Parse([]byte(`branches: [{name: "no id"}]`))
	assert.ErrorIs(t, err, collection.ErrMissingID)

	_, err = seed.Parse([]byte(`branches: "not a list"`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSeed), 0o644))
	set, err := seed.Load(path)
	require.NoError(t, err)
	assert.Len(t, set, 3)

	_, err = seed.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	cs := collection.New[json.RawMessage](store.NewMemoryStore())
	set, err := seed.Parse([]byte(yamlSeed))
	require.NoError(t, err)

	existing := collection.Collection[json.RawMessage]{
		collection.NewRecord(collection.IntID(9), map[string]json.RawMessage{"name": json.RawMessage(`"Kept"`)}),
	}
	require.NoError(t, cs.Save("branches", existing))

	written, err := seed.Apply(cs, set, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"library_resources", "support_onboarding"}, written)
	assert.Len(t, cs.Load("branches", nil), 1, "existing keys are left alone")

	written, err = seed.Apply(cs, set, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"branches", "library_resources", "support_onboarding"}, written)
	assert.Len(t, cs.Load("branches", nil), 2)
}
