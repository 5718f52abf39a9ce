// Package reddit talks to the platform API: flair, private messages and
// toolbox usernotes. Every call is authorized by the refresh token of the
// credential it receives.
package reddit

import (
	"context"
	"flairhq/internal/models"
	"flairhq/internal/providers"
	"flairhq/internal/structures"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

const maxErrorBody = 1 << 20

// Client is the platform API client.
type Client struct {
	baseURL string
	timeout time.Duration
	oauth   *oauth2.Config
	base    http.RoundTripper
	logger  providers.Logger

	mu      sync.Mutex
	clients map[string]*http.Client

	// usernotes are a read-modify-write of one wiki page per subject
	notesMu sync.Mutex
	now     func() time.Time
}

func NewClient(conf *structures.Config, logger providers.Logger) *Client {
	timeout := conf.Reddit.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(conf.Reddit.BaseURL, "/"),
		timeout: timeout,
		oauth: &oauth2.Config{
			ClientID:     conf.Reddit.ClientID,
			ClientSecret: conf.Reddit.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  conf.Reddit.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		base:    &userAgentTransport{agent: conf.Reddit.UserAgent, next: http.DefaultTransport},
		logger:  logger,
		clients: make(map[string]*http.Client),
		now:     time.Now,
	}
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(r)
}

// httpClient returns an authorized client for cred, reusing its access token until it expires.
func (c *Client) httpClient(cred models.Credential) *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hc, ok := c.clients[cred.RefreshToken]; ok {
		return hc
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Timeout:   c.timeout,
		Transport: c.base,
	})
	source := c.oauth.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	hc := &http.Client{
		Timeout:   c.timeout,
		Transport: &oauth2.Transport{Source: source, Base: c.base},
	}
	c.clients[cred.RefreshToken] = hc
	return hc
}

type apiResponse struct {
	JSON struct {
		Errors [][]string `json:"errors"`
	} `json:"json"`
}

// SetFlair sets the flair of user on subject.
func (c *Client) SetFlair(ctx context.Context, cred models.Credential, user, cssClass, text, subject string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("name", user)
	form.Set("css_class", cssClass)
	form.Set("text", text)

	var resp apiResponse
	if err := c.postForm(ctx, cred, "/r/"+url.PathEscape(subject)+"/api/flair", form, &resp); err != nil {
		return fmt.Errorf("reddit.SetFlair: %w", err)
	}
	if len(resp.JSON.Errors) > 0 {
		return fmt.Errorf("reddit.SetFlair: %w", &APIError{Errors: resp.JSON.Errors})
	}
	return nil
}

type flairListResponse struct {
	Users []struct {
		User     string `json:"user"`
		Text     string `json:"flair_text"`
		CSSClass string `json:"flair_css_class"`
	} `json:"users"`
}

// GetFlair reads the current flair of user on subject. The boolean is false when none is set.
func (c *Client) GetFlair(ctx context.Context, cred models.Credential, user, subject string) (models.FlairState, bool, error) {
	params := url.Values{}
	params.Set("name", user)
	params.Set("limit", "1")

	var resp flairListResponse
	if err := c.get(ctx, cred, "/r/"+url.PathEscape(subject)+"/api/flairlist?"+params.Encode(), &resp); err != nil {
		return models.FlairState{}, false, fmt.Errorf("reddit.GetFlair: %w", err)
	}
	for _, u := range resp.Users {
		if !strings.EqualFold(u.User, user) {
			continue
		}
		if u.Text == "" && u.CSSClass == "" {
			return models.FlairState{}, false, nil
		}
		return models.FlairState{Text: u.Text, CSSClass: u.CSSClass}, true, nil
	}
	return models.FlairState{}, false, nil
}

// SendPrivateMessage sends a message; a recipient of the form /r/name reaches modmail.
func (c *Client) SendPrivateMessage(ctx context.Context, cred models.Credential, subject, body, recipient string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("subject", subject)
	form.Set("text", body)
	form.Set("to", recipient)

	var resp apiResponse
	if err := c.postForm(ctx, cred, "/api/compose", form, &resp); err != nil {
		return fmt.Errorf("reddit.SendPrivateMessage: %w", err)
	}
	if len(resp.JSON.Errors) > 0 {
		return fmt.Errorf("reddit.SendPrivateMessage: %w", &APIError{Errors: resp.JSON.Errors})
	}
	return nil
}

func (c *Client) get(ctx context.Context, cred models.Credential, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(cred, req, out)
}

func (c *Client) postForm(ctx context.Context, cred models.Credential, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(cred, req, out)
}

func (c *Client) do(cred models.Credential, req *http.Request, out any) error {
	resp, err := c.httpClient(cred).Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
