package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Telegram posts through the Bot API: the bot token rides in the URL path,
// the channel id in the form body. Photo posts use sendPhoto with the content
// as caption.
type Telegram struct {
	BaseURL string
	client  *http.Client
}

func NewTelegram(client *http.Client) *Telegram {
	return &Telegram{BaseURL: "https://api.telegram.org", client: client}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (t *Telegram) Publish(ctx context.Context, content string, creds Credentials, mediaURLs []string) Result {
	if creds.BotToken == "" {
		return failure("telegram", "missing bot token")
	}
	if creds.ChannelID == "" {
		return failure("telegram", "missing chat id")
	}

	method := "sendMessage"
	form := url.Values{}
	form.Set("chat_id", creds.ChannelID)
	if len(mediaURLs) > 0 {
		method = "sendPhoto"
		form.Set("photo", mediaURLs[0])
		form.Set("caption", content)
	} else {
		form.Set("text", content)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", t.BaseURL, creds.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return failure("telegram", err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return failure("telegram", err.Error())
	}
	defer resp.Body.Close()

	var tr telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return failure("telegram", fmt.Sprintf("invalid response (%d): %v", resp.StatusCode, err))
	}
	if !tr.OK {
		msg := tr.Description
		if msg == "" {
			msg = fmt.Sprintf("telegram API returned %d", resp.StatusCode)
		}
		return failure("telegram", msg)
	}

	return Result{
		Platform: "telegram",
		Success:  true,
		PostID:   strconv.FormatInt(tr.Result.MessageID, 10),
	}
}
