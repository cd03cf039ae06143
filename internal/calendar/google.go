package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Gandasoft/polylearner/internal/config"
)

// =============================================================================
// GOOGLE CALENDAR CLIENT
// =============================================================================

// GoogleCalendar implements Calendar over the Google Calendar REST API.
type GoogleCalendar struct {
	baseURL    string
	calendarID string
	token      string
	httpClient *http.Client
}

// NewGoogleCalendar creates a Google Calendar client.
func NewGoogleCalendar(cfg config.CalendarConfig) *GoogleCalendar {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/calendar/v3"
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleCalendar{
		baseURL:    baseURL,
		calendarID: calendarID,
		token:      cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventRequest struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateEvent creates one event and returns its identifier.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.httpClient.Timeout)
		defer cancel()
	}
	if g.token == "" {
		return "", fmt.Errorf("calendar credentials not configured")
	}

	body, err := json.Marshal(eventRequest{
		Summary:     summary,
		Description: description,
		Start:       eventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"},
		End:         eventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: "UTC"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", g.baseURL, url.PathEscape(g.calendarID))
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calendar API returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed eventResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("calendar API error: %s", parsed.Error.Message)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("calendar API returned no event id")
	}
	return parsed.ID, nil
}
