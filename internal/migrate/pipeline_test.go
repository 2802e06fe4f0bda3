package migrate

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return Default(WithLogger(log.New(io.Discard)))
}

// decode builds a Document the same way the config store does.
func decode(t *testing.T, raw string) Document {
	t.Helper()
	doc := Document{}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestDefault_LatestIsOnePastLastMigration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, quietPipeline(t).Latest())
}

func TestNew_RejectsDuplicateVersions(t *testing.T) {
	t.Parallel()

	noop := func(d Document) Document { return d }
	_, err := New([]Migration{{From: 1, Apply: noop}, {From: 1, Apply: noop}})
	assert.Error(t, err)

	_, err = New([]Migration{{From: 0, Apply: noop}})
	assert.Error(t, err)

	_, err = New([]Migration{{From: 1}})
	assert.Error(t, err)
}

func TestMigrate_WhenAtLatest_ReturnsEqualDocument(t *testing.T) {
	t.Parallel()

	p := quietPipeline(t)
	doc := decode(t, `{
		"configVersion": 5,
		"projects": [{"id": "p1", "name": "P1", "dockerLogin": {"dev": {"registry": "r", "username": "u", "password": "p"}}}],
		"environments": ["dev"],
		"steps": [{"id": "s1", "shellType": "powershell", "envSpecificParams": [{"name": "x", "value": "1"}]}],
		"stepCombinations": []
	}`)

	out, outcome := p.Migrate(doc)

	assert.Equal(t, doc, out)
	assert.False(t, outcome.Changed())
	assert.Equal(t, 5, outcome.To)
}

func TestMigrate_EndsAtExactlyLatest(t *testing.T) {
	t.Parallel()

	p := quietPipeline(t)
	for v := 1; v < p.Latest(); v++ {
		doc := Document{VersionKey: float64(v), "projects": []any{}, "environments": []any{}}

		out, outcome := p.Migrate(doc)

		got, ok := version(out)
		require.True(t, ok)
		assert.Equal(t, p.Latest(), got, "from v%d", v)
		assert.Equal(t, v, outcome.From)
		assert.Len(t, outcome.Applied, p.Latest()-v, "from v%d", v)
	}
}

func TestMigrate_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	p := quietPipeline(t)
	raw := `{"projects": [{"id": "p1", "name": "P1", "deploymentSteps": [{"id": "s1"}]}], "environments": ["dev"]}`
	doc := decode(t, raw)

	_, _ = p.Migrate(doc)

	assert.Equal(t, decode(t, raw), doc)
}

func TestMigrate_WhenVersionMissing_TreatsAsV1(t *testing.T) {
	t.Parallel()

	p := quietPipeline(t)
	out, outcome := p.Migrate(decode(t, `{"projects": [], "environments": []}`))

	assert.Equal(t, 1, outcome.From)
	assert.Equal(t, float64(5), out[VersionKey])
	assert.Equal(t, []any{}, out["steps"])
	assert.Equal(t, []any{}, out["stepCombinations"])
}

func TestMigrate_WhenVersionNewer_LeavesDocumentUntouched(t *testing.T) {
	t.Parallel()

	p := quietPipeline(t)
	doc := decode(t, `{"configVersion": 9, "futureField": {"a": 1}, "projects": [{"dockerLogin": {"registry": "r"}}]}`)

	out, outcome := p.Migrate(doc)

	assert.True(t, outcome.Forward)
	assert.False(t, outcome.Changed())
	assert.Equal(t, doc, out)
}

func TestMigrate_WhenVersionUnknown_ForcesLatestWithoutTransforming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "zero", raw: `{"configVersion": 0, "projects": [{"deploymentSteps": [{"id": "s1"}]}]}`},
		{name: "negative", raw: `{"configVersion": -3, "projects": [{"deploymentSteps": [{"id": "s1"}]}]}`},
		{name: "fractional", raw: `{"configVersion": 2.5, "projects": [{"deploymentSteps": [{"id": "s1"}]}]}`},
		{name: "string", raw: `{"configVersion": "two", "projects": [{"deploymentSteps": [{"id": "s1"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := quietPipeline(t)
			out, outcome := p.Migrate(decode(t, tt.raw))

			assert.True(t, outcome.Forced)
			assert.Empty(t, outcome.Applied)
			assert.Equal(t, float64(5), out[VersionKey])
			project := out["projects"].([]any)[0].(map[string]any)
			assert.Contains(t, project, "deploymentSteps")
			assert.NotContains(t, out, "steps")
		})
	}
}

func TestMigrate_FromV1_RunsEveryTransition(t *testing.T) {
	t.Parallel()

	p := quietPipeline(t)
	out, outcome := p.Migrate(decode(t, `{
		"configVersion": 1,
		"projects": [{
			"id": "p1",
			"name": "Legacy",
			"path": "/old/path",
			"repos": [],
			"dockerLogin": {"registry": "r", "username": "u", "password": "p"},
			"deploymentSteps": [{"id": "s1", "name": "build", "command": "make"}]
		}],
		"environments": ["dev", "manage-environments"]
	}`))

	assert.Equal(t, []string{"global-steps", "shell-type", "per-environment-docker-login", "environment-parameters-alias"}, outcome.Applied)

	steps := out["steps"].([]any)
	require.Len(t, steps, 1)
	assert.Equal(t, "bash", steps[0].(map[string]any)["shellType"])

	project := out["projects"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{
		"dev": map[string]any{"registry": "r", "username": "u", "password": "p"},
	}, project["dockerLogin"])

	combos := out["stepCombinations"].([]any)
	require.Len(t, combos, 2)
	assert.Equal(t, "default-p1-dev", combos[0].(map[string]any)["id"])
	assert.Equal(t, "default-p1-manage-environments", combos[1].(map[string]any)["id"])
}
