package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTelegramPublishMessage(t *testing.T) {
	var path, text, chatID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		r.ParseForm()
		text = r.FormValue("text")
		chatID = r.FormValue("chat_id")
		w.Write([]byte(`{"ok":true,"result":{"message_id":991}}`))
	}))
	defer server.Close()

	tg := NewTelegram(server.Client())
	tg.BaseURL = server.URL

	res := tg.Publish(context.Background(), "hello channel", Credentials{BotToken: "bot-abc", ChannelID: "@mychannel"}, nil)

	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if path != "/botbot-abc/sendMessage" {
		t.Errorf("path = %q", path)
	}
	if text != "hello channel" || chatID != "@mychannel" {
		t.Errorf("form = text %q chat_id %q", text, chatID)
	}
	if res.PostID != "991" {
		t.Errorf("PostID = %q, want message id", res.PostID)
	}
}

func TestTelegramPublishPhoto(t *testing.T) {
	var path, caption, photo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		r.ParseForm()
		caption = r.FormValue("caption")
		photo = r.FormValue("photo")
		w.Write([]byte(`{"ok":true,"result":{"message_id":5}}`))
	}))
	defer server.Close()

	tg := NewTelegram(server.Client())
	tg.BaseURL = server.URL

	res := tg.Publish(context.Background(), "look at this", Credentials{BotToken: "bot", ChannelID: "1"},
		[]string{"https://cdn.example.com/pic.png"})

	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if path != "/botbot/sendPhoto" {
		t.Errorf("path = %q, want sendPhoto", path)
	}
	if caption != "look at this" || photo != "https://cdn.example.com/pic.png" {
		t.Errorf("form = caption %q photo %q", caption, photo)
	}
}

func TestTelegramAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"description":"Forbidden: bot was kicked"}`))
	}))
	defer server.Close()

	tg := NewTelegram(server.Client())
	tg.BaseURL = server.URL

	res := tg.Publish(context.Background(), "x", Credentials{BotToken: "bot", ChannelID: "1"}, nil)

	if res.Success {
		t.Fatal("Success = true for ok:false response")
	}
	if res.Error != "Forbidden: bot was kicked" {
		t.Errorf("Error = %q, want provider description", res.Error)
	}
}

func TestTelegramMissingCredentials(t *testing.T) {
	tg := NewTelegram(NewHTTPClient())

	if res := tg.Publish(context.Background(), "x", Credentials{ChannelID: "1"}, nil); res.Success {
		t.Error("published without bot token")
	}
	if res := tg.Publish(context.Background(), "x", Credentials{BotToken: "b"}, nil); res.Success {
		t.Error("published without chat id")
	}
}
