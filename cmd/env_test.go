package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/reviewbridge/internal/config"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "gh****yz", maskSecret("ghp_abcdefxyz"))
}

func TestLoadEnvFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# tokens\nGITLAB_TOKEN='from-file'\nJIRA_URL=\"https://jira.example.com\"\n"), 0600))
	t.Setenv("GITLAB_TOKEN", "from-env")
	t.Setenv("JIRA_URL", "")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("GITLAB_TOKEN"))
	assert.Equal(t, "https://jira.example.com", os.Getenv("JIRA_URL"))

	require.NoError(t, LoadEnvFile(""))
	assert.True(t, os.IsNotExist(LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))))
}

func TestCheckRequiredConfig(t *testing.T) {
	cfg := defaultConfig(t)
	env := map[string]string{
		"GITHUB_TOKEN":    "ghp_abcdefxyz",
		"GERRIT_USERNAME": "bob",
	}
	result := CheckRequiredConfig(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, []string{"GITLAB_TOKEN", "JIRA_URL", "JIRA_API_TOKEN", "GERRIT_HTTP_PASSWORD"}, result.Missing)
	assert.Equal(t, map[string]string{"GITHUB_TOKEN": "gh****yz", "GERRIT_USERNAME": "****"}, result.Present)
	assert.Empty(t, result.Warnings)

	var buf bytes.Buffer
	PrintConfigCheck(&buf, result)
	assert.Contains(t, buf.String(), "GITLAB_TOKEN")
	assert.NotContains(t, buf.String(), "ghp_abcdefxyz")
}

func TestFetchRejectsUnknownPlatform(t *testing.T) {
	var out bytes.Buffer
	app := &cli.App{
		Name:     "reviewbridge",
		Writer:   &out,
		Commands: []*cli.Command{FetchCommand()},
	}
	err := app.Run([]string{"reviewbridge", "fetch", "bitbucket", "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported platform")
}

func TestFetchMissingTokenPrintsEnvelope(t *testing.T) {
	defaultConfig(t)
	t.Setenv("GITLAB_TOKEN", "")

	var out, errOut bytes.Buffer
	app := &cli.App{
		Name:      "reviewbridge",
		Writer:    &out,
		ErrWriter: &errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.StringFlag{Name: "env-file", Value: ".env"},
			&cli.StringFlag{Name: "log-level"},
		},
		Commands: []*cli.Command{FetchCommand()},
	}
	err := app.Run([]string{"reviewbridge", "fetch", "gitlab", "group/proj/issues/7"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITLAB_TOKEN")
	assert.Contains(t, out.String(), `"instructions": "To set the token: export GITLAB_TOKEN='your_token_here'"`)
}
