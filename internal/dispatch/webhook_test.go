package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDiscordPublish(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := NewDiscord(server.Client())
	res := d.Publish(context.Background(), "hello discord", Credentials{WebhookURL: server.URL}, nil)

	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if res.Platform != "discord" {
		t.Errorf("Platform = %q", res.Platform)
	}
	if received["content"] != "hello discord" {
		t.Errorf("payload = %v, want content field", received)
	}
}

func TestSlackPublishUsesTextField(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := NewSlack(server.Client())
	res := s.Publish(context.Background(), "hello slack", Credentials{WebhookURL: server.URL}, nil)

	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if received["text"] != "hello slack" {
		t.Errorf("payload = %v, want text field", received)
	}
}

func TestWebhookFailureBecomesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer server.Close()

	d := NewDiscord(server.Client())
	res := d.Publish(context.Background(), "x", Credentials{WebhookURL: server.URL}, nil)

	if res.Success {
		t.Fatal("Success = true for a 400 response")
	}
	if !strings.Contains(res.Error, "400") || !strings.Contains(res.Error, "invalid_payload") {
		t.Errorf("Error = %q, want status and body excerpt", res.Error)
	}
}

func TestWebhookMissingURL(t *testing.T) {
	d := NewDiscord(NewHTTPClient())
	res := d.Publish(context.Background(), "x", Credentials{}, nil)

	if res.Success {
		t.Fatal("Success = true without a webhook URL")
	}
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry(nil)

	for _, platform := range []string{"discord", "slack", "telegram", "bluesky", "mastodon"} {
		if _, ok := r.Get(platform); !ok {
			t.Errorf("Get(%q) not registered", platform)
		}
	}
	if _, ok := r.Get("myspace"); ok {
		t.Error("Get(myspace) should not resolve")
	}
}
