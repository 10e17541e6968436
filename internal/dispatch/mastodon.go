package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// Mastodon is session-style: the stored access token authenticates directly
// against the user's home instance. Media is uploaded first and referenced by
// returned ids.
type Mastodon struct {
	client *http.Client
}

func NewMastodon(client *http.Client) *Mastodon {
	return &Mastodon{client: client}
}

const mastodonMaxMedia = 4

type mastodonStatus struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

func (m *Mastodon) Publish(ctx context.Context, content string, creds Credentials, mediaURLs []string) Result {
	if creds.ServerURL == "" {
		return failure("mastodon", "missing server URL")
	}
	if creds.AccessToken == "" {
		return failure("mastodon", "missing access token")
	}
	base := strings.TrimRight(creds.ServerURL, "/")

	if len(mediaURLs) > mastodonMaxMedia {
		mediaURLs = mediaURLs[:mastodonMaxMedia]
	}

	mediaIDs := make([]string, 0, len(mediaURLs))
	for _, mediaURL := range mediaURLs {
		id, err := m.uploadMedia(ctx, base, creds.AccessToken, mediaURL)
		if err != nil {
			return failure("mastodon", fmt.Sprintf("media upload failed: %v", err))
		}
		mediaIDs = append(mediaIDs, id)
	}

	form := url.Values{}
	form.Set("status", content)
	for _, id := range mediaIDs {
		form.Add("media_ids[]", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/v1/statuses", strings.NewReader(form.Encode()))
	if err != nil {
		return failure("mastodon", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return failure("mastodon", err.Error())
	}
	defer resp.Body.Close()

	var status mastodonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return failure("mastodon", fmt.Sprintf("invalid response (%d): %v", resp.StatusCode, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || status.Error != "" {
		msg := status.Error
		if msg == "" {
			msg = fmt.Sprintf("mastodon API returned %d", resp.StatusCode)
		}
		return failure("mastodon", msg)
	}

	return Result{Platform: "mastodon", Success: true, PostID: status.ID, URL: status.URL}
}

func (m *Mastodon) uploadMedia(ctx context.Context, base, token, mediaURL string) (string, error) {
	data, filename, err := download(ctx, m.client, mediaURL)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/v2/media", strings.NewReader(buf.String()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("media endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", err
	}
	return uploaded.ID, nil
}

func download(ctx context.Context, client *http.Client, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("media fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	filename := "media"
	if idx := strings.LastIndex(mediaURL, "/"); idx >= 0 && idx < len(mediaURL)-1 {
		filename = mediaURL[idx+1:]
	}
	return data, filename, nil
}
