package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	require.Error(t, Init("shouty", "json", &bytes.Buffer{}))
}

func TestInvocationLogsAsJSON(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	require.NoError(t, Init("debug", "json", &buf))

	inv := ForInvocation("gitlab_issue_fetcher", "group/project/issues/1")
	require.NotEmpty(t, inv.ID)

	zerolog.Ctx(inv.WithContext(t.Context())).Debug().Msg("fetching")
	inv.Done("not_found", errors.New("boom"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, last map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &last))

	assert.Equal(t, inv.ID, first["invocation"])
	assert.Equal(t, "gitlab_issue_fetcher", first["tool"])
	assert.Equal(t, "debug", first["level"])
	assert.Equal(t, "warn", last["level"])
	assert.Equal(t, "not_found", last["outcome"])
	assert.Equal(t, "boom", last["error"])
}

func TestInitFiltersBelowLevel(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	require.NoError(t, Init("warn", "json", &buf))
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
