package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Wire models mirroring the daemon's JSON payloads.
type daemonStatus struct {
	Running     bool        `json:"running"`
	StateDBPath string      `json:"stateDbPath"`
	LockFile    string      `json:"lockFile"`
	LastPass    *passReport `json:"lastPass"`
	LastError   string      `json:"lastError"`
	NextPassAt  *time.Time  `json:"nextPassAt"`
}

type passReport struct {
	PassID    string    `json:"passId"`
	TermID    string    `json:"termId"`
	StartedAt time.Time `json:"startedAt"`
	DurationS float64   `json:"durationSeconds"`
	Created   int       `json:"created"`
	Replaced  int       `json:"replaced"`
	Updated   int       `json:"updated"`
	Canceled  int       `json:"canceled"`
	Skipped   int       `json:"skipped"`
	Frozen    int       `json:"frozen"`
	Failed    int       `json:"failed"`
	MailSent  int       `json:"mailSent"`
	Errors    []string  `json:"errors"`
}

type scheduleResponse struct {
	Series []scheduledSeries `json:"series"`
}

type scheduledSeries struct {
	SectionID     string `json:"sectionId"`
	PatternID     string `json:"patternId"`
	SeriesID      string `json:"seriesId"`
	Title         string `json:"title"`
	RoomID        string `json:"roomId"`
	MeetingDays   string `json:"meetingDays"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	RecordingType string `json:"recordingType"`
	PublishType   string `json:"publishType"`
}

type historyResponse struct {
	Entries []historyEntry `json:"entries"`
}

type historyEntry struct {
	ID          int64  `json:"id"`
	SectionID   string `json:"sectionId"`
	PatternID   string `json:"patternId"`
	FieldName   string `json:"fieldName"`
	ValueOld    string `json:"valueOld"`
	ValueNew    string `json:"valueNew"`
	RequestedBy string `json:"requestedBy"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(address, token string) (*apiClient, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("daemon api address is not configured; set paths.api_bind or pass --api")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return &apiClient{
		base:  strings.TrimRight(address, "/"),
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *apiClient) status(ctx context.Context) (*daemonStatus, error) {
	var status daemonStatus
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *apiClient) schedule(ctx context.Context) ([]scheduledSeries, error) {
	var resp scheduleResponse
	if err := c.get(ctx, "/api/schedule", &resp); err != nil {
		return nil, err
	}
	return resp.Series, nil
}

func (c *apiClient) history(ctx context.Context, sectionID string, limit int) ([]historyEntry, error) {
	path := "/api/history"
	switch {
	case strings.TrimSpace(sectionID) != "":
		path += "?section=" + strings.TrimSpace(sectionID)
	case limit > 0:
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var resp historyResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *apiClient) triggerReconcile(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/reconcile", nil)
}

func (c *apiClient) get(ctx context.Context, path string, into any) error {
	return c.do(ctx, http.MethodGet, path, into)
}

func (c *apiClient) do(ctx context.Context, method, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.base)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errors.New("daemon rejected the api token; check paths.api_token")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("daemon returned %s for %s", resp.Status, path)
	}
	if into == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}

func wrapDialError(err error, base string) error {
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `lectern daemon` or lecternd", base)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("connect to daemon at %s: request timed out", base)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}
