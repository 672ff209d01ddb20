package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
)

const (
	DefaultAPIURL = "https://api.daily.co/v1"

	maxResponseBytes = 1 << 20
)

type Config struct {
	APIURL string
	APIKey string
	// Domain is the team subdomain, e.g. "practice" for practice.daily.co.
	// A value containing "://" is used as the room base URL as is.
	Domain  string
	Timeout time.Duration
}

// DailyClient talks to the Daily REST API.
type DailyClient struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

func NewDailyClient(cfg Config, httpClient *http.Client) *DailyClient {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &DailyClient{cfg: cfg, httpClient: httpClient, now: time.Now}
}

type roomProperties struct {
	Exp             int64 `json:"exp,omitempty"`
	MaxParticipants int   `json:"max_participants,omitempty"`
	EnableChat      bool  `json:"enable_chat"`
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Privacy    string         `json:"privacy"`
	Properties roomProperties `json:"properties"`
}

type roomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type tokenProperties struct {
	RoomName        string `json:"room_name"`
	UserName        string `json:"user_name,omitempty"`
	IsOwner         bool   `json:"is_owner"`
	Exp             int64  `json:"exp"`
	EnableRecording string `json:"enable_recording,omitempty"`
}

type createTokenRequest struct {
	Properties tokenProperties `json:"properties"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type apiError struct {
	Error string `json:"error"`
	Info  string `json:"info"`
}

func (c *DailyClient) CreateRoom(ctx context.Context, name string, opts domain.RoomOptions) (*domain.Room, error) {
	body := createRoomRequest{
		Name:    name,
		Privacy: "private",
		Properties: roomProperties{
			MaxParticipants: opts.MaxParticipants,
			EnableChat:      opts.EnableChat,
		},
	}
	if !opts.ExpiresAt.IsZero() {
		body.Properties.Exp = opts.ExpiresAt.Unix()
	}

	var out roomResponse
	if err := c.post(ctx, "/rooms", body, &out); err != nil {
		return nil, fmt.Errorf("create room %s: %w", name, err)
	}

	room := &domain.Room{Name: out.Name, URL: out.URL}
	if room.Name == "" {
		room.Name = name
	}
	if room.URL == "" {
		room.URL = c.RoomURL(room.Name)
	}
	return room, nil
}

func (c *DailyClient) CreateToken(ctx context.Context, opts domain.TokenOptions) (*domain.Token, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = domain.TokenTTL
	}
	exp := c.now().Add(ttl)

	props := tokenProperties{
		RoomName: opts.RoomName,
		UserName: opts.UserName,
		IsOwner:  opts.IsOwner,
		Exp:      exp.Unix(),
	}
	if opts.IsOwner {
		props.EnableRecording = "cloud"
	}

	var out tokenResponse
	if err := c.post(ctx, "/meeting-tokens", createTokenRequest{Properties: props}, &out); err != nil {
		return nil, fmt.Errorf("create meeting token for %s: %w", opts.RoomName, err)
	}
	if out.Token == "" {
		return nil, errors.New("meeting token response missing token")
	}

	return &domain.Token{Token: out.Token, ExpiresAt: time.Unix(exp.Unix(), 0)}, nil
}

func (c *DailyClient) RoomURL(name string) string {
	d := strings.TrimRight(c.cfg.Domain, "/")
	if strings.Contains(d, "://") {
		return d + "/" + name
	}
	if d == "" {
		d = "daily"
	}
	return "https://" + d + ".daily.co/" + name
}

func (c *DailyClient) post(ctx context.Context, path string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Info), "already exists") {
			return domain.ErrRoomExists
		}
		msg := apiErr.Info
		if msg == "" {
			msg = apiErr.Error
		}
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("daily api %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ domain.VideoProvider = (*DailyClient)(nil)
