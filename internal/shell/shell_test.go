package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		shellType string
		platform  string
		override  string
		want      string
	}{
		{name: "powershell ignores override", shellType: "powershell", platform: "linux", override: "/x/bash", want: "powershell.exe"},
		{name: "powershell on windows", shellType: "powershell", platform: "windows", want: "powershell.exe"},
		{name: "override wins for bash", shellType: "bash", platform: "darwin", override: "/opt/homebrew/bin/bash", want: "/opt/homebrew/bin/bash"},
		{name: "blank override ignored", shellType: "bash", platform: "linux", override: "  ", want: "/bin/bash"},
		{name: "win32 default", shellType: "bash", platform: "win32", want: `C:\Program Files\Git\bin\bash.exe`},
		{name: "windows default", shellType: "bash", platform: "windows", want: `C:\Program Files\Git\bin\bash.exe`},
		{name: "darwin default", shellType: "bash", platform: "darwin", want: "/usr/local/bin/bash"},
		{name: "linux default", shellType: "bash", platform: "linux", want: "/bin/bash"},
		{name: "unknown type is bash", shellType: "zsh", platform: "freebsd", want: "/bin/bash"},
		{name: "empty type is bash", shellType: "", platform: "linux", override: "/usr/bin/bash", want: "/usr/bin/bash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.shellType, tt.platform, tt.override))
		})
	}
}

func TestResolver_ReadsOverrideOnEveryCall(t *testing.T) {
	t.Parallel()

	override := ""
	r := &Resolver{Override: func() string { return override }, Platform: "linux"}

	assert.Equal(t, "/bin/bash", r.Path(Bash))

	override = "/custom/bash"
	assert.Equal(t, "/custom/bash", r.Path(Bash))
	assert.Equal(t, []string{"/custom/bash", "-c", "echo hi"}, r.Command(Bash, "echo hi"))
	assert.Equal(t, []string{"powershell.exe", "-c", "Get-Date"}, r.Command(PowerShell, "Get-Date"))
}

func TestResolver_NilOverride(t *testing.T) {
	t.Parallel()

	r := &Resolver{Platform: "darwin"}
	assert.Equal(t, "/usr/local/bin/bash", r.Path(Bash))
}

func TestArgv(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"/bin/bash", "-c", "ls"}, Argv("/bin/bash", Bash, "ls", nil))
	assert.Equal(t,
		[]string{"/bin/bash", "-c", `printf '[%s]\n' "$@"`, "deploy-helper", "a b", "$HOME"},
		Argv("/bin/bash", Bash, `printf '[%s]\n'`, []string{"a b", "$HOME"}))
	assert.Equal(t,
		[]string{"powershell.exe", "-c", `Write-Output 'a b' '$HOME' 'it''s'`},
		Argv("powershell.exe", PowerShell, "Write-Output", []string{"a b", "$HOME", "it's"}))

	r := &Resolver{Platform: "linux"}
	assert.Equal(t, []string{"/bin/bash", "-c", `echo "$@"`, "deploy-helper", "x"}, r.Command(Bash, "echo", "x"))
}
