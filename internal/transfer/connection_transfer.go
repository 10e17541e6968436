package transfer

// ConnectionCreation carries plaintext credentials exactly once, from the
// request into the vault. Only the fields matching the platform family are
// expected to be set.
type ConnectionCreation struct {
	Platform     string `json:"platform"`
	AccountName  string `json:"account_name"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	WebhookURL   string `json:"webhook_url"`
	BotToken     string `json:"bot_token"`
	ChannelID    string `json:"channel_id"`
	ServerURL    string `json:"server_url"`
}
