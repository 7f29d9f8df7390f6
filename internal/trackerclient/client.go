package trackerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"studytrack-backend/internal/models"
)

// Client talks to the dashboard API over HTTP and satisfies the tracker
// engine's persistence gateway.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) LoadActive(ctx context.Context) (*models.StudySession, error) {
	var out struct {
		Session *models.StudySession `json:"session"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/active", nil, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) Create(ctx context.Context, sess *models.StudySession) (*models.StudySession, error) {
	req := models.CreateSessionRequest{
		StartTime:     &sess.StartTime,
		Track:         sess.Track,
		Topic:         sess.Topic,
		Notes:         sess.Notes,
		TargetMinutes: sess.TargetMinutes,
	}

	var out struct {
		Session *models.StudySession `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", req, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) Update(ctx context.Context, id int64, patch models.SessionPatch) (*models.StudySession, error) {
	var out struct {
		Session *models.StudySession `json:"session"`
	}
	path := fmt.Sprintf("/api/v1/sessions/%d", id)
	if err := c.do(ctx, http.MethodPut, path, patch, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/v1/sessions/%d", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) CreateLogEntry(ctx context.Context, entry models.StudyLogInput) (*models.StudyLog, error) {
	var out struct {
		Log *models.StudyLog `json:"log"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/study-logs", entry, &out); err != nil {
		return nil, err
	}
	return out.Log, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr models.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Error.Message, apiErr.Error.Code)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
