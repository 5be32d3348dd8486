package googlecal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrUnauthorized signals an expired or revoked Google credential. The sync
// flow deletes the stored token and forces the user through consent again.
var ErrUnauthorized = errors.New("google calendar: unauthorized")

// Occurrence is one concrete event instance as the provider reports it
// (singleEvents=true, so recurring series arrive pre-expanded).
type Occurrence struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
	Start    EventTime `json:"start"`
	End      EventTime `json:"end"`
}

// EventTime is the provider's dateTime/date union: timed events carry
// DateTime, all-day events carry a date-only value.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

// AllDay reports whether the value is date-only.
func (t EventTime) AllDay() bool { return t.DateTime == "" && t.Date != "" }

// Resolve parses the union into an absolute timestamp. Date-only values
// resolve to midnight UTC of that calendar date.
func (t EventTime) Resolve() (time.Time, error) {
	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}
	if t.Date != "" {
		return time.Parse("2006-01-02", t.Date)
	}
	return time.Time{}, errors.New("event time has neither dateTime nor date")
}

// Provider lists upcoming event occurrences from an external calendar for one
// user. Implementations must return ErrUnauthorized (possibly wrapped) when
// the user's credential is no longer valid.
type Provider interface {
	ListEvents(ctx context.Context, userID, calendarID string, timeMin time.Time, timeZone string, maxResults int) ([]Occurrence, error)
}

// TokenSource turns a user's stored refresh credential into a bearer access
// token. The OAuth exchange itself lives behind this interface.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// Client calls the Google Calendar v3 REST API.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
}

func NewClient(httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		baseURL:    "https://www.googleapis.com/calendar/v3",
	}
}

func (c *Client) ListEvents(ctx context.Context, userID, calendarID string, timeMin time.Time, timeZone string, maxResults int) ([]Occurrence, error) {
	token, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("timeMin", timeMin.UTC().Format(time.RFC3339))
	q.Set("timeZone", timeZone)
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(calendarID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google calendar: list events returned %d", resp.StatusCode)
	}

	var body struct {
		Items []Occurrence `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("google calendar: decode response: %w", err)
	}
	return body.Items, nil
}
