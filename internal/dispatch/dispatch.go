package dispatch

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Result is the uniform outcome of one platform delivery attempt. Dispatchers
// never return errors: every failure is folded into the result so the caller
// always gets exactly one entry per target platform.
type Result struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	PostID   string `json:"post_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Credentials carries decrypted connection secrets for the duration of one
// publish attempt. Fields not used by a platform family stay empty.
type Credentials struct {
	AccessToken string
	WebhookURL  string
	BotToken    string
	ChannelID   string
	ServerURL   string
	Handle      string
}

type Dispatcher interface {
	Publish(ctx context.Context, content string, creds Credentials, mediaURLs []string) Result
}

// Registry maps platform names to dispatchers. It is open: new platforms
// register without touching the orchestrator.
type Registry struct {
	mu          sync.RWMutex
	dispatchers map[string]Dispatcher
}

func NewRegistry() *Registry {
	return &Registry{dispatchers: make(map[string]Dispatcher)}
}

func (r *Registry) Register(platform string, d Dispatcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatchers[platform] = d
}

func (r *Registry) Get(platform string) (Dispatcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dispatchers[platform]
	return d, ok
}

func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.dispatchers))
	for name := range r.dispatchers {
		names = append(names, name)
	}
	return names
}

// requestTimeout bounds every outbound platform call so one unresponsive
// provider cannot stall a whole batch.
const requestTimeout = 15 * time.Second

func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// DefaultRegistry wires every built-in platform dispatcher over one shared
// HTTP client.
func DefaultRegistry(client *http.Client) *Registry {
	if client == nil {
		client = NewHTTPClient()
	}
	r := NewRegistry()
	r.Register("discord", NewDiscord(client))
	r.Register("slack", NewSlack(client))
	r.Register("telegram", NewTelegram(client))
	r.Register("bluesky", NewBluesky(client))
	r.Register("mastodon", NewMastodon(client))
	return r
}

func failure(platform, msg string) Result {
	return Result{Platform: platform, Success: false, Error: msg}
}
