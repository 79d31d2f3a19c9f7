package fault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusNotFound, KindNotFound},
		{http.StatusUnauthorized, KindAuthentication},
		{http.StatusForbidden, KindAuthentication},
		{http.StatusInternalServerError, KindUpstream},
		{http.StatusUnprocessableEntity, KindUpstream},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus("op", tt.status, []byte(" boom "))
			assert.Equal(t, tt.want, err.Kind)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, "boom", err.Message)
		})
	}
}

func TestFromStatusExcerptKeepsRunes(t *testing.T) {
	body := strings.Repeat("é", bodyExcerptLimit+5)
	err := FromStatus("op", http.StatusBadGateway, []byte(body))
	assert.True(t, utf8.ValidString(err.Message))
	assert.Equal(t, strings.Repeat("é", bodyExcerptLimit)+"...", err.Message)

	short := FromStatus("op", http.StatusBadGateway, []byte("Серверная ошибка"))
	assert.Equal(t, "Серверная ошибка", short.Message)
}

func TestDegradable(t *testing.T) {
	assert.True(t, Degradable(FromStatus("files", 404, nil)))
	assert.True(t, Degradable(FromStatus("files", 422, nil)))
	assert.False(t, Degradable(FromStatus("files", 401, nil)))
	assert.False(t, Degradable(FromStatus("files", 403, nil)))
	assert.False(t, Degradable(FromStatus("files", 502, nil)))
	assert.True(t, Degradable(FromTransport("files", context.DeadlineExceeded)))
	assert.False(t, Degradable(FromTransport("files", errors.New("connection refused"))))
	assert.False(t, Degradable(errors.New("plain")))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("fetching: %w", FromStatus("op", 404, nil))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindUpstream, KindOf(errors.New("x")))

	fe, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "op", fe.Op)
}

func TestMissingEnv(t *testing.T) {
	err := MissingEnv("GITLAB_TOKEN", "GitLab personal access token")
	assert.Equal(t, KindConfiguration, err.Kind)
	assert.Equal(t, "GITLAB_TOKEN environment variable not set. Please set it to your GitLab personal access token.", err.Message)
	assert.Equal(t, "To set the token: export GITLAB_TOKEN='your_token_here'", err.Instructions)
}

func TestExcerptBounded(t *testing.T) {
	body := make([]byte, 1000)
	for i := range body {
		body[i] = 'a'
	}
	err := FromStatus("op", 500, body)
	assert.Len(t, err.Message, bodyExcerptLimit+3)
}
