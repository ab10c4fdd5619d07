package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/tessro/earshot/internal/auth"
	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
)

// ListResources returns the user's uploaded audio.
func (c *Client) ListResources(ctx context.Context) ([]core.Resource, error) {
	var items []audio
	if err := c.Get(ctx, "/audio", &items); err != nil {
		return nil, err
	}
	return lo.Map(items, func(a audio, _ int) core.Resource { return a.toResource() }), nil
}

// LoadResourceMetadata fetches what is needed to open a session.
func (c *Client) LoadResourceMetadata(ctx context.Context, resourceID string) (core.Metadata, error) {
	var a audio
	if err := c.Get(ctx, "/audio/"+url.PathEscape(resourceID), &a); err != nil {
		return core.Metadata{}, fmt.Errorf("load resource %s: %w", resourceID, err)
	}
	r := a.toResource()
	return core.Metadata{
		Resource:            r,
		Locator:             r.Locator,
		Duration:            r.Duration,
		TranscriptID:        r.TranscriptID,
		TranscriptAvailable: r.TranscriptAvailable(),
	}, nil
}

// ListBookmarks returns a resource's bookmarks in server order.
func (c *Client) ListBookmarks(ctx context.Context, resourceID string) ([]core.Bookmark, error) {
	var marks []mark
	if err := c.Get(ctx, "/audio/"+url.PathEscape(resourceID)+"/bookmarks", &marks); err != nil {
		return nil, err
	}
	return lo.Map(marks, func(m mark, _ int) core.Bookmark { return m.toBookmark() }), nil
}

// CreateBookmark stores a bookmark and returns the server's copy.
func (c *Client) CreateBookmark(ctx context.Context, resourceID, label string, timestamp time.Duration) (core.Bookmark, error) {
	req := createMarkRequest{Name: label, TimeStamp: timestamp.Seconds()}
	var m mark
	if err := c.Post(ctx, "/audio/"+url.PathEscape(resourceID)+"/bookmark", req, &m); err != nil {
		return core.Bookmark{}, err
	}
	return m.toBookmark(), nil
}

// DeleteBookmark removes a bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	return c.Delete(ctx, "/audio/bookmark/"+url.PathEscape(id))
}

// Search runs a transcript search on the server.
func (c *Client) Search(ctx context.Context, resourceID, transcriptID, query string) ([]core.SearchHit, error) {
	req := searchRequest{Text: query, TranscriptID: transcriptID}
	var segs []segment
	if err := c.Post(ctx, "/audio/"+url.PathEscape(resourceID)+"/search", req, &segs); err != nil {
		return nil, err
	}
	return lo.Map(segs, func(s segment, _ int) core.SearchHit { return s.toHit() }), nil
}

// TranscriptSegments returns the full timed transcript.
func (c *Client) TranscriptSegments(ctx context.Context, transcriptID string) ([]core.Segment, error) {
	var segs []segment
	if err := c.Get(ctx, "/audio/transcript/"+url.PathEscape(transcriptID)+"/transcript-segment", &segs); err != nil {
		return nil, err
	}
	return lo.Map(segs, func(s segment, _ int) core.Segment { return s.toSegment() }), nil
}

// DeleteResource removes an uploaded recording and everything attached
// to it on the server.
func (c *Client) DeleteResource(ctx context.Context, resourceID string) error {
	if err := c.Delete(ctx, "/audio/"+url.PathEscape(resourceID)); err != nil {
		return fmt.Errorf("delete resource %s: %w", resourceID, err)
	}
	return nil
}

// Summary asks the server to summarize a recording's transcript in lang.
func (c *Client) Summary(ctx context.Context, resourceID, lang string) (core.Summary, error) {
	if !core.ValidSummaryLanguage(lang) {
		return core.Summary{}, fmt.Errorf("%q: %w", lang, errors.ErrInvalidLanguage)
	}
	var s summary
	if err := c.Post(ctx, "/audio/"+url.PathEscape(resourceID)+"/summary", summaryRequest{Language: lang}, &s); err != nil {
		return core.Summary{}, err
	}
	if s.Language == "" {
		s.Language = lang
	}
	return s.toSummary(), nil
}

// KeyTopics derives the key topics of a summary produced by Summary.
func (c *Client) KeyTopics(ctx context.Context, resourceID, lang, summaryID string) ([]core.Topic, error) {
	if !core.ValidSummaryLanguage(lang) {
		return nil, fmt.Errorf("%q: %w", lang, errors.ErrInvalidLanguage)
	}
	var topics []core.Topic
	req := keyTopicsRequest{Language: lang, SummaryID: summaryID}
	if err := c.Post(ctx, "/audio/"+url.PathEscape(resourceID)+"/key-topics", req, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// Login exchanges credentials for a bearer token and stores it. The
// backend answers with a bare JWT, either as a JSON string or wrapped in
// the usual envelope.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.Token, error) {
	var raw json.RawMessage
	err := c.rawRequest(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &raw)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	jwt, err := parseLoginToken(raw)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	token := &auth.Token{AccessToken: jwt, Email: email, IssuedAt: time.Now()}
	if err := c.SetToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

func parseLoginToken(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var env struct {
		Data  json.RawMessage `json:"data"`
		Token string          `json:"token"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Token != "" {
			return env.Token, nil
		}
		if err := json.Unmarshal(env.Data, &s); err == nil && s != "" {
			return s, nil
		}
		var inner struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(env.Data, &inner); err == nil && inner.Token != "" {
			return inner.Token, nil
		}
	}
	if len(raw) > 0 && raw[0] != '{' && raw[0] != '[' {
		return strings.Trim(string(raw), `"`), nil
	}
	return "", fmt.Errorf("no token in response")
}
