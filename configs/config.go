package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type OAuthClient struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

type Config struct {
	PostgresURI         string
	RedisURI            string
	FrontendURL         string
	SecretKey           string
	EncryptionKey       string
	CookieName          string
	CronSecret          string
	StripeWebhookSecret string
	R2                  R2
	Mastodon            OAuthClient
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		RedisURI:            getEnv("REDIS_URI", "127.0.0.1:6379"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:           getEnv("SECRET_KEY", ""),
		EncryptionKey:       getEnv("ENCRYPTION_KEY", ""),
		CookieName:          getEnv("COOKIE_NAME", "beamcast_session"),
		CronSecret:          getEnv("CRON_SECRET", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Mastodon: OAuthClient{
			ClientID:     getEnv("MASTODON_CLIENT_ID", ""),
			ClientSecret: getEnv("MASTODON_CLIENT_SECRET", ""),
			TokenURL:     getEnv("MASTODON_TOKEN_PATH", "/oauth/token"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
