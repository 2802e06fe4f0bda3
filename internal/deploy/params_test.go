package deploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"name": "api", "tag": "v1", "empty": ""}

	tests := []struct {
		in   string
		want string
	}{
		{"build {name}:{tag}", "build api:v1"},
		{"{name}{name}", "apiapi"},
		{"keep {missing} as is", "keep {missing} as is"},
		{"x{empty}y", "xy"},
		{"json {\"a\": 1}", "json {\"a\": 1}"},
		{"${HOME} and {{name}}", "${HOME} and {api}"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Substitute(tt.in, vars), tt.in)
	}
}

func TestReferences(t *testing.T) {
	t.Parallel()

	assert.True(t, References("cd {repoPath}", RepoName, RepoPath))
	assert.False(t, References("cd {project}", RepoName, RepoPath))
	assert.False(t, References("cd repoPath", RepoName, RepoPath))
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	got, err := ParseParams([]string{"a=1", "b = two", "c=x=y", "d="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": " two", "c": "x=y", "d": ""}, got)

	_, err = ParseParams([]string{"novalue"})
	assert.Error(t, err)

	_, err = ParseParams([]string{"=1"})
	assert.Error(t, err)
}

func TestReadParamsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "release.params")
	content := strings.Join([]string{
		"# release parameters",
		"",
		"tag=v1.4.0",
		`message="hello world"`,
		"quoted='single'",
		"  spaced  =  value  ",
		`mixed="keep'`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got, err := ReadParamsFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"tag":     "v1.4.0",
		"message": "hello world",
		"quoted":  "single",
		"spaced":  "value",
		"mixed":   `"keep'`,
	}, got)
}

func TestReadParamsFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := ReadParamsFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.params")
	require.NoError(t, os.WriteFile(path, []byte("ok=1\nbroken\n"), 0o600))
	_, err = ReadParamsFile(path)
	assert.ErrorContains(t, err, "line 2")
}
