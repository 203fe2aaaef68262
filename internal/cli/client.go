package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin JSON client for the Haven API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Session mirrors the session overview payload.
type Session struct {
	ID          string    `json:"id"`
	CurrentMood string    `json:"currentMood"`
	MoodDisplay string    `json:"moodDisplay"`
	TurnCount   int       `json:"turnCount"`
	MoodEntries int       `json:"moodEntries"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Reply mirrors one companion response.
type Reply struct {
	SessionID   string `json:"sessionId"`
	Content     string `json:"content"`
	Mood        string `json:"mood"`
	MoodDisplay string `json:"moodDisplay"`
}

// MoodEntry mirrors one mood log record.
type MoodEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Label     string    `json:"label"`
	Display   string    `json:"display"`
	Source    string    `json:"source"`
	Polarity  float64   `json:"polarity,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MoodSummary mirrors the aggregated mood counts.
type MoodSummary struct {
	Total   int            `json:"total"`
	Counts  map[string]int `json:"counts"`
	Current string         `json:"current"`
}

// Generated mirrors affirmation/meditation payloads.
type Generated struct {
	SessionID   string `json:"sessionId"`
	Kind        string `json:"kind"`
	Mood        string `json:"mood"`
	MoodDisplay string `json:"moodDisplay"`
	Text        string `json:"text"`
}

// SelfcareItem mirrors one static self-care entry.
type SelfcareItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
	Body  string `json:"body"`
}

func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+sessionID, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*Reply, error) {
	var reply Reply
	body := map[string]string{"message": message}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/messages", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) LogMood(ctx context.Context, sessionID, label string) (*MoodEntry, error) {
	var entry MoodEntry
	body := map[string]string{"mood": label}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/mood", body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) MoodSummary(ctx context.Context, sessionID string) (*MoodSummary, error) {
	var summary MoodSummary
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+sessionID+"/mood/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) Affirmation(ctx context.Context, sessionID string) (*Generated, error) {
	var generated Generated
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/affirmation", nil, &generated); err != nil {
		return nil, err
	}
	return &generated, nil
}

func (c *Client) Meditation(ctx context.Context, sessionID string) (*Generated, error) {
	var generated Generated
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/meditation", nil, &generated); err != nil {
		return nil, err
	}
	return &generated, nil
}

func (c *Client) Reset(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/reset", nil, nil)
}

func (c *Client) SelfcareList(ctx context.Context) ([]SelfcareItem, error) {
	var items []SelfcareItem
	if err := c.do(ctx, http.MethodGet, "/api/selfcare", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) SelfcareItem(ctx context.Context, itemID string) (*SelfcareItem, error) {
	var item SelfcareItem
	if err := c.do(ctx, http.MethodGet, "/api/selfcare/"+itemID, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
