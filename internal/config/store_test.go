package config

import (
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshul/deploy-helper/internal/kvstore"
)

// memKV is an in-memory KV that can be told to fail.
type memKV struct {
	data    map[string]json.RawMessage
	sets    int
	readErr error
	setErr  error
}

func newMemKV() *memKV {
	return &memKV{data: map[string]json.RawMessage{}}
}

func (m *memKV) Lookup(key string, out any) (bool, error) {
	if m.readErr != nil {
		return false, m.readErr
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (m *memKV) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.data[key] = raw
	return nil
}

func (m *memKV) put(t *testing.T, raw string) {
	t.Helper()
	require.True(t, json.Valid([]byte(raw)))
	m.data[StoreKey] = json.RawMessage(raw)
}

func (m *memKV) stored(t *testing.T) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(m.data[StoreKey], &out))
	return out
}

func quietStore(kv KV) *Store {
	return NewStore(kv, WithLogger(log.New(io.Discard)))
}

func TestLoad_FirstRun_PersistsMigratedDefault(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	s := quietStore(kv)

	cfg, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.ConfigVersion)
	assert.Empty(t, cfg.Projects)
	assert.Equal(t, 1, kv.sets)

	stored := kv.stored(t)
	assert.Equal(t, float64(5), stored["configVersion"])
	assert.Equal(t, []any{}, stored["projects"])
	assert.Equal(t, []any{}, stored["steps"])
}

func TestLoad_MigratesLegacyDocumentAndWritesBack(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	kv.put(t, `{
		"selectedProject": "p1",
		"projects": [{
			"id": "p1", "name": "Legacy", "path": "/old/path", "repos": [],
			"dockerLogin": {"registry": "r", "username": "u", "password": "p"},
			"deploymentSteps": [{"id": "s1", "name": "build", "command": "make", "executionMode": "sync"}]
		}],
		"environments": ["dev", "prod"]
	}`)
	s := quietStore(kv)

	cfg, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.ConfigVersion)
	require.Len(t, cfg.Steps, 1)
	assert.Equal(t, ShellBash, cfg.Steps[0].ShellType)
	assert.Equal(t, Credential{Registry: "r", Username: "u", Password: "p"}, cfg.Projects[0].DockerLogin["prod"])

	combo, ok := cfg.Combination("default-p1-dev")
	require.True(t, ok)
	assert.Equal(t, []string{"s1"}, combo.Steps)

	stored := kv.stored(t)
	assert.Equal(t, float64(5), stored["configVersion"])
	assert.NotContains(t, stored["projects"].([]any)[0], "deploymentSteps")
}

func TestLoad_Twice_ReturnsErrAlreadyLoaded(t *testing.T) {
	t.Parallel()

	s := quietStore(newMemKV())
	_, err := s.Load()
	require.NoError(t, err)

	_, err = s.Load()
	assert.ErrorIs(t, err, ErrAlreadyLoaded)
}

func TestLoad_NewerDocument_IsNotWrittenBack(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	kv.put(t, `{"configVersion": 9, "environments": ["dev"], "futureSetting": {"on": true}}`)
	s := quietStore(kv)

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.ConfigVersion)
	assert.Zero(t, kv.sets)

	// An explicit save keeps fields this build does not know.
	require.NoError(t, s.Save())
	stored := kv.stored(t)
	assert.Equal(t, map[string]any{"on": true}, stored["futureSetting"])
	assert.Equal(t, float64(9), stored["configVersion"])
}

func TestSave_NewerDocument_KeepsNestedFields(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	kv.put(t, `{
		"configVersion": 9,
		"environments": ["dev"],
		"projects": [{"id": "p1", "name": "Shop", "path": "/srv/shop", "repos": [], "dockerLogin": {}, "tags": ["web"]}],
		"steps": [{
			"id": "s1", "name": "build", "command": "make", "outputField": "", "retries": 3,
			"hasOutputField": false, "hasOutputReference": false, "hasDirectory": false,
			"environmentSpecificParameters": [{"name": "t", "value": "1", "secret": true}]
		}],
		"stepCombinations": [{"id": "c1", "name": "ship", "steps": ["s1"], "projectId": "p1", "environment": "dev", "schedule": "@daily"}]
	}`)
	s := quietStore(kv)
	_, err := s.Load()
	require.NoError(t, err)

	require.NoError(t, s.Set("tempPath", "/tmp/deploy"))
	s.Update(func(c *Config) { c.Steps[0].Command = "make all" })
	require.NoError(t, s.Save())

	stored := kv.stored(t)
	assert.Equal(t, "/tmp/deploy", stored["tempPath"])

	project := stored["projects"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"web"}, project["tags"])

	step := stored["steps"].([]any)[0].(map[string]any)
	assert.Equal(t, "make all", step["command"])
	assert.Equal(t, float64(3), step["retries"])
	require.Contains(t, step, "outputField")
	assert.Equal(t, "", step["outputField"])
	assert.NotContains(t, step, "directory")

	param := step["environmentSpecificParameters"].([]any)[0].(map[string]any)
	assert.Equal(t, true, param["secret"])

	combo := stored["stepCombinations"].([]any)[0].(map[string]any)
	assert.Equal(t, "@daily", combo["schedule"])
}

func TestSave_ClearedFieldIsNotRestored(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	kv.put(t, `{"configVersion": 5, "steps": [{"id": "s1", "name": "build", "command": "make", "outputField": "tag", "hasOutputField": true}]}`)
	s := quietStore(kv)
	_, err := s.Load()
	require.NoError(t, err)

	s.Update(func(c *Config) {
		c.Steps[0].OutputField = ""
		c.Steps[0].HasOutputField = false
	})
	require.NoError(t, s.Save())

	step := kv.stored(t)["steps"].([]any)[0].(map[string]any)
	assert.NotContains(t, step, "outputField")
}

func TestLoad_ReadFailure_AdoptsDefaultsWithoutWriting(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	kv.readErr = errors.New("disk on fire")
	s := quietStore(kv)

	cfg, err := s.Load()

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "read", perr.Op)
	assert.Equal(t, 5, cfg.ConfigVersion)
	assert.Zero(t, kv.sets)
}

func TestLoad_WriteBackFailure_StillAdoptsDocument(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	kv.put(t, `{"configVersion": 5, "environments": ["dev"]}`)
	kv.setErr = errors.New("read-only filesystem")
	s := quietStore(kv)

	cfg, err := s.Load()

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{"dev"}, cfg.Environments)
	assert.Equal(t, []string{"dev"}, s.Value().Environments)
}

func TestSave_BeforeLoad_Fails(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, quietStore(newMemKV()).Save(), ErrNotLoaded)
}

func TestSave_RoundTripsThroughFileStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "store.json")

	first := quietStore(kvstore.New(path))
	_, err := first.Load()
	require.NoError(t, err)

	first.Update(func(c *Config) {
		require.NoError(t, c.AddEnvironment("dev"))
		p, err := c.AddProject(Project{ID: "p1", Name: "Shop", Path: "/srv/shop"})
		require.NoError(t, err)
		require.NoError(t, c.SetCredential(p.ID, "dev", Credential{Registry: "reg", Username: "u", Password: "pw"}))
		_, err = c.AddStep(Step{ID: "s1", Name: "build", Command: "make {target}"})
		require.NoError(t, err)
		c.AddEnvironmentSpecificParameter("s1", Parameter{Name: "target", Environment: "dev", Value: "all"})
	})
	require.NoError(t, first.Set("gitBashPath", "/opt/bash"))
	require.NoError(t, first.Save())

	second := quietStore(kvstore.New(path))
	got, err := second.Load()
	require.NoError(t, err)

	assert.Equal(t, first.Value(), got)
	assert.Equal(t, "/opt/bash", got.GitBashPath)
}

func TestSet_UnknownField(t *testing.T) {
	t.Parallel()

	s := quietStore(newMemKV())
	_, err := s.Load()
	require.NoError(t, err)

	assert.ErrorIs(t, s.Set("nope", 1), ErrUnknownField)
}

func TestSet_IncompatibleValue_LeavesDocumentUnchanged(t *testing.T) {
	t.Parallel()

	s := quietStore(newMemKV())
	_, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Set("environments", []string{"dev"}))
	before := s.Value()

	assert.Error(t, s.Set("environments", 42))
	assert.Error(t, s.Set("configVersion", 2))
	assert.Equal(t, before, s.Value())
}

func TestSet_AcceptsGenericValues(t *testing.T) {
	t.Parallel()

	s := quietStore(newMemKV())
	_, err := s.Load()
	require.NoError(t, err)

	require.NoError(t, s.Set("projects", []any{
		map[string]any{"id": "p1", "name": "P1", "path": "/p1"},
	}))

	v, ok := s.Get("projects")
	require.True(t, ok)
	project := v.([]any)[0].(map[string]any)
	assert.Equal(t, "p1", project["id"])
	assert.Equal(t, map[string]any{}, project["dockerLogin"])

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestValue_IsDetachedCopy(t *testing.T) {
	t.Parallel()

	s := quietStore(newMemKV())
	_, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Set("environments", []string{"dev"}))

	snapshot := s.Value()
	snapshot.Environments[0] = "changed"

	assert.Equal(t, []string{"dev"}, s.Value().Environments)
}

func TestUpdateErr_DiscardsFailedChanges(t *testing.T) {
	t.Parallel()

	s := quietStore(newMemKV())
	_, err := s.Load()
	require.NoError(t, err)

	err = s.UpdateErr(func(c *Config) error {
		c.Environments = append(c.Environments, "dev")
		return c.AddEnvironment("")
	})

	assert.ErrorIs(t, err, ErrEmptyName)
	assert.Empty(t, s.Value().Environments)
}
