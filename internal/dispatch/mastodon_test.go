package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMastodonPublish(t *testing.T) {
	var status string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/statuses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		r.ParseForm()
		status = r.FormValue("status")
		json.NewEncoder(w).Encode(map[string]string{
			"id":  "112233",
			"url": "https://mastodon.example/@user/112233",
		})
	}))
	defer server.Close()

	m := NewMastodon(server.Client())
	res := m.Publish(context.Background(), "tooting from a test",
		Credentials{ServerURL: server.URL, AccessToken: "token-1"}, nil)

	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if status != "tooting from a test" {
		t.Errorf("status form value = %q", status)
	}
	if res.PostID != "112233" || res.URL != "https://mastodon.example/@user/112233" {
		t.Errorf("result = %+v", res)
	}
}

func TestMastodonPublishWithMedia(t *testing.T) {
	var mediaIDs []string
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/image.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake image bytes"))
	})
	mux.HandleFunc("/api/v2/media", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "media-9"})
	})
	mux.HandleFunc("/api/v1/statuses", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		mediaIDs = r.Form["media_ids[]"]
		json.NewEncoder(w).Encode(map[string]string{"id": "1", "url": "u"})
	})

	m := NewMastodon(server.Client())
	res := m.Publish(context.Background(), "with picture",
		Credentials{ServerURL: server.URL, AccessToken: "t"},
		[]string{server.URL + "/image.png"})

	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if len(mediaIDs) != 1 || mediaIDs[0] != "media-9" {
		t.Errorf("media_ids = %v, want uploaded id", mediaIDs)
	}
}

func TestMastodonAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "Validation failed: Text can't be blank"})
	}))
	defer server.Close()

	m := NewMastodon(server.Client())
	res := m.Publish(context.Background(), "", Credentials{ServerURL: server.URL, AccessToken: "t"}, nil)

	if res.Success {
		t.Fatal("Success = true for a 422 response")
	}
	if res.Error != "Validation failed: Text can't be blank" {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestMastodonMissingCredentials(t *testing.T) {
	m := NewMastodon(NewHTTPClient())

	if res := m.Publish(context.Background(), "x", Credentials{AccessToken: "t"}, nil); res.Success {
		t.Error("published without a server URL")
	}
	if res := m.Publish(context.Background(), "x", Credentials{ServerURL: "https://m.example"}, nil); res.Success {
		t.Error("published without an access token")
	}
}
