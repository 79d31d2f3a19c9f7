package gerrit

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/reviewbridge/internal/decode"
	"github.com/reviewbridge/internal/httpx"
	"github.com/reviewbridge/internal/locator"
	"github.com/reviewbridge/internal/providers"
)

type accountInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type commitInfo struct {
	Message string `json:"message"`
}

type revisionInfo struct {
	Number int        `json:"_number"`
	Commit commitInfo `json:"commit"`
}

type changeInfo struct {
	Number          int                     `json:"_number"`
	Project         string                  `json:"project"`
	Branch          string                  `json:"branch"`
	Topic           string                  `json:"topic"`
	Subject         string                  `json:"subject"`
	Status          string                  `json:"status"`
	Created         string                  `json:"created"`
	Updated         string                  `json:"updated"`
	Submitted       string                  `json:"submitted"`
	Owner           accountInfo             `json:"owner"`
	Hashtags        []string                `json:"hashtags"`
	Insertions      *int                    `json:"insertions"`
	Deletions       *int                    `json:"deletions"`
	CurrentRevision string                  `json:"current_revision"`
	Revisions       map[string]revisionInfo `json:"revisions"`
}

type fileInfo struct {
	Status        string `json:"status"`
	OldPath       string `json:"old_path"`
	LinesInserted int    `json:"lines_inserted"`
	LinesDeleted  int    `json:"lines_deleted"`
}

type commentInfo struct {
	Author  accountInfo `json:"author"`
	Line    int         `json:"line"`
	Message string      `json:"message"`
	Updated string      `json:"updated"`
}

type payload struct {
	change   changeInfo
	files    map[string]fileInfo
	comments map[string][]commentInfo
}

func (p *Provider) fetch(ctx context.Context, loc locator.Locator) (*payload, error) {
	zerolog.Ctx(ctx).Debug().Str("project", loc.Namespace).Str("change", loc.ID).Msg("Fetching Gerrit change")

	pl := &payload{}
	detail := p.changeURL(loc.ID, "detail") + "?o=CURRENT_REVISION&o=CURRENT_COMMIT"
	if err := p.get(ctx, "gerrit.change", detail, &pl.change); err != nil {
		return nil, err
	}

	err := p.get(ctx, "gerrit.change.files", p.changeURL(loc.ID, "revisions/current/files"), &pl.files)
	if err := providers.Auxiliary(ctx, "gerrit.change.files", err); err != nil {
		return nil, err
	}

	err = p.get(ctx, "gerrit.change.comments", p.changeURL(loc.ID, "comments"), &pl.comments)
	if err := providers.Auxiliary(ctx, "gerrit.change.comments", err); err != nil {
		return nil, err
	}
	return pl, nil
}

func (p *Provider) get(ctx context.Context, op, rawURL string, v any) error {
	var header http.Header
	if p.authenticated() {
		creds := base64.StdEncoding.EncodeToString([]byte(p.username + ":" + p.password))
		header = http.Header{"Authorization": {"Basic " + creds}}
	}
	body, err := httpx.Get(ctx, p.httpClient, op, rawURL, header)
	if err != nil {
		return err
	}
	return decode.JSON(op, body, v)
}

// changeURL builds a change endpoint. Authenticated calls go through the
// /a/ prefix.
func (p *Provider) changeURL(change, endpoint string) string {
	prefix := ""
	if p.authenticated() {
		prefix = "/a"
	}
	return fmt.Sprintf("%s%s/changes/%s/%s", p.baseURL, prefix, url.PathEscape(change), endpoint)
}
