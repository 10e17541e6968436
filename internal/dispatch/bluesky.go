package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

// Bluesky is session-style: authenticate with handle + app password to get a
// short-lived access JWT, optionally upload media as a blob, then create the
// post record. Rich-text facets are indexed by UTF-8 byte offsets as the AT
// protocol requires.
type Bluesky struct {
	BaseURL string
	client  *http.Client
}

func NewBluesky(client *http.Client) *Bluesky {
	return &Bluesky{BaseURL: "https://bsky.social", client: client}
}

type blueskySession struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

type Facet struct {
	Index    FacetIndex     `json:"index"`
	Features []FacetFeature `json:"features"`
}

type FacetIndex struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type FacetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

var (
	blueskyURLPattern = regexp.MustCompile(`https?://[^\s]+`)
	blueskyTagPattern = regexp.MustCompile(`#\w+`)
)

// ParseFacets finds link and hashtag spans in text. Offsets are byte indices
// into the UTF-8 encoding, not rune positions; FindAllStringIndex already
// reports byte offsets, so multi-byte characters earlier in the string are
// handled for free.
func ParseFacets(text string) []Facet {
	var facets []Facet

	for _, loc := range blueskyURLPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		uri := strings.TrimRight(text[start:end], `.,;:!?)'"`)
		end = start + len(uri)
		facets = append(facets, Facet{
			Index: FacetIndex{ByteStart: start, ByteEnd: end},
			Features: []FacetFeature{{
				Type: "app.bsky.richtext.facet#link",
				URI:  uri,
			}},
		})
	}

	for _, loc := range blueskyTagPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		facets = append(facets, Facet{
			Index: FacetIndex{ByteStart: start, ByteEnd: end},
			Features: []FacetFeature{{
				Type: "app.bsky.richtext.facet#tag",
				Tag:  strings.TrimPrefix(text[start:end], "#"),
			}},
		})
	}

	return facets
}

func (b *Bluesky) Publish(ctx context.Context, content string, creds Credentials, mediaURLs []string) Result {
	if creds.Handle == "" {
		return failure("bluesky", "missing handle")
	}
	if creds.AccessToken == "" {
		return failure("bluesky", "missing app password")
	}

	base := b.BaseURL
	if creds.ServerURL != "" {
		base = strings.TrimRight(creds.ServerURL, "/")
	}

	session, err := b.createSession(ctx, base, creds.Handle, creds.AccessToken)
	if err != nil {
		return failure("bluesky", fmt.Sprintf("authentication failed: %v", err))
	}

	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      content,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if facets := ParseFacets(content); len(facets) > 0 {
		record["facets"] = facets
	}

	if len(mediaURLs) > 0 {
		blob, err := b.uploadBlob(ctx, base, session.AccessJwt, mediaURLs[0])
		if err != nil {
			return failure("bluesky", fmt.Sprintf("media upload failed: %v", err))
		}
		record["embed"] = map[string]any{
			"$type": "app.bsky.embed.images",
			"images": []map[string]any{
				{"alt": "", "image": blob},
			},
		}
	}

	payload := map[string]any{
		"repo":       session.DID,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}

	var created struct {
		URI     string `json:"uri"`
		CID     string `json:"cid"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := b.postJSON(ctx, base+"/xrpc/com.atproto.repo.createRecord", session.AccessJwt, payload, &created); err != nil {
		return failure("bluesky", err.Error())
	}
	if created.Error != "" {
		msg := created.Message
		if msg == "" {
			msg = created.Error
		}
		return failure("bluesky", msg)
	}

	// at://did:plc:xxx/app.bsky.feed.post/<rkey> -> public web URL
	postURL := ""
	if idx := strings.LastIndex(created.URI, "/"); idx >= 0 {
		postURL = fmt.Sprintf("https://bsky.app/profile/%s/post/%s", creds.Handle, created.URI[idx+1:])
	}

	return Result{Platform: "bluesky", Success: true, PostID: created.URI, URL: postURL}
}

func (b *Bluesky) createSession(ctx context.Context, base, identifier, password string) (*blueskySession, error) {
	var session blueskySession
	payload := map[string]string{"identifier": identifier, "password": password}
	if err := b.postJSON(ctx, base+"/xrpc/com.atproto.server.createSession", "", payload, &session); err != nil {
		return nil, err
	}
	if session.Error != "" || session.AccessJwt == "" {
		msg := session.Message
		if msg == "" {
			msg = session.Error
		}
		if msg == "" {
			msg = "no session returned"
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return &session, nil
}

func (b *Bluesky) uploadBlob(ctx context.Context, base, accessJwt, mediaURL string) (json.RawMessage, error) {
	data, _, err := download(ctx, b.client, mediaURL)
	if err != nil {
		return nil, err
	}

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessJwt)
	req.Header.Set("Content-Type", contentType)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var uploaded struct {
		Blob    json.RawMessage `json:"blob"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("invalid response (%d): %v", resp.StatusCode, err)
	}
	if uploaded.Error != "" || len(uploaded.Blob) == 0 {
		msg := uploaded.Message
		if msg == "" {
			msg = fmt.Sprintf("uploadBlob returned %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return uploaded.Blob, nil
}

func (b *Bluesky) postJSON(ctx context.Context, endpoint, accessJwt string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+accessJwt)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response (%d): %v", resp.StatusCode, err)
	}
	return nil
}
