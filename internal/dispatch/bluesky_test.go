package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseFacetsByteOffsets(t *testing.T) {
	// The leading é is two bytes in UTF-8, so byte offsets diverge from rune
	// positions for everything after it.
	text := "héllo https://example.com. #go"

	facets := ParseFacets(text)
	if len(facets) != 2 {
		t.Fatalf("got %d facets, want link + tag", len(facets))
	}

	link := facets[0]
	if link.Index.ByteStart != 7 || link.Index.ByteEnd != 26 {
		t.Errorf("link span = [%d,%d), want [7,26)", link.Index.ByteStart, link.Index.ByteEnd)
	}
	if link.Features[0].Type != "app.bsky.richtext.facet#link" {
		t.Errorf("link type = %q", link.Features[0].Type)
	}
	if link.Features[0].URI != "https://example.com" {
		t.Errorf("URI = %q, trailing punctuation should be trimmed", link.Features[0].URI)
	}
	if got := text[link.Index.ByteStart:link.Index.ByteEnd]; got != "https://example.com" {
		t.Errorf("span slices to %q", got)
	}

	tag := facets[1]
	if got := text[tag.Index.ByteStart:tag.Index.ByteEnd]; got != "#go" {
		t.Errorf("tag span slices to %q", got)
	}
	if tag.Features[0].Tag != "go" {
		t.Errorf("Tag = %q, want bare tag without #", tag.Features[0].Tag)
	}
}

func TestParseFacetsPlainText(t *testing.T) {
	if facets := ParseFacets("nothing to see here"); facets != nil {
		t.Errorf("facets = %v, want none", facets)
	}
}

func TestBlueskyPublish(t *testing.T) {
	var createdRecord map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			json.NewEncoder(w).Encode(map[string]string{
				"accessJwt": "jwt-token",
				"did":       "did:plc:abc123",
			})
		case "/xrpc/com.atproto.repo.createRecord":
			if r.Header.Get("Authorization") != "Bearer jwt-token" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			var payload map[string]any
			json.NewDecoder(r.Body).Decode(&payload)
			createdRecord, _ = payload["record"].(map[string]any)
			json.NewEncoder(w).Encode(map[string]string{
				"uri": "at://did:plc:abc123/app.bsky.feed.post/3k44dnqvg2s2a",
				"cid": "bafy123",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	b := NewBluesky(server.Client())
	b.BaseURL = server.URL

	res := b.Publish(context.Background(), "check https://example.com #golang",
		Credentials{Handle: "alice.bsky.social", AccessToken: "app-password"}, nil)

	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if res.PostID != "at://did:plc:abc123/app.bsky.feed.post/3k44dnqvg2s2a" {
		t.Errorf("PostID = %q", res.PostID)
	}
	if res.URL != "https://bsky.app/profile/alice.bsky.social/post/3k44dnqvg2s2a" {
		t.Errorf("URL = %q", res.URL)
	}
	if createdRecord["$type"] != "app.bsky.feed.post" {
		t.Errorf("record $type = %v", createdRecord["$type"])
	}
	if _, ok := createdRecord["facets"]; !ok {
		t.Error("record is missing facets for link + tag content")
	}
}

func TestBlueskyAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "AuthenticationRequired",
			"message": "Invalid identifier or password",
		})
	}))
	defer server.Close()

	b := NewBluesky(server.Client())
	b.BaseURL = server.URL

	res := b.Publish(context.Background(), "x", Credentials{Handle: "a", AccessToken: "bad"}, nil)

	if res.Success {
		t.Fatal("Success = true with rejected credentials")
	}
	if res.Error == "" {
		t.Error("Error is empty, want the provider message")
	}
}
