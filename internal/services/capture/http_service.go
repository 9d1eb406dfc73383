package capture

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

	"lectern/internal/config"
	"lectern/internal/services"
)

// HTTPDoer describes the HTTP client used by the capture service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpService struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// NewConfiguredService builds the HTTP-backed provider from configuration.
func NewConfiguredService(cfg *config.Config) (Provider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Capture.BaseURL), "/")
	token := strings.TrimSpace(cfg.Capture.Token)
	if baseURL == "" || token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "capture", "init",
			"capture base_url and token are required", nil)
	}
	timeout := time.Duration(cfg.Capture.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpService{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// NewHTTPService constructs a provider against an explicit endpoint, mainly
// for tests.
func NewHTTPService(baseURL, token string, client HTTPDoer) Provider {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  client,
	}
}

func (s *httpService) CreateSeries(ctx context.Context, spec SeriesSpec) (string, error) {
	var created struct {
		SeriesID string `json:"seriesId"`
	}
	if err := s.call(ctx, http.MethodPost, "/series", spec, &created); err != nil {
		return "", err
	}
	if created.SeriesID == "" {
		return "", services.Wrap(services.ErrExternal, "capture", "create series",
			"provider returned no series id", nil)
	}
	return created.SeriesID, nil
}

func (s *httpService) DeleteSeries(ctx context.Context, seriesID string) error {
	err := s.call(ctx, http.MethodDelete, "/series/"+seriesID, nil, nil)
	// A series that is already gone counts as deleted.
	if errors.Is(err, services.ErrNotFound) {
		return nil
	}
	return err
}

func (s *httpService) UpdateCollaborators(ctx context.Context, seriesID string, add, remove []string) error {
	body := struct {
		Add    []string `json:"add"`
		Remove []string `json:"remove"`
	}{Add: add, Remove: remove}
	return s.call(ctx, http.MethodPut, "/series/"+seriesID+"/collaborators", body, nil)
}

func (s *httpService) UpdatePublishing(ctx context.Context, seriesID, publishType string, targetIDs []string) error {
	body := struct {
		PublishType      string   `json:"publishType"`
		PublishTargetIDs []string `json:"publishTargetIds"`
	}{PublishType: publishType, PublishTargetIDs: targetIDs}
	return s.call(ctx, http.MethodPut, "/series/"+seriesID+"/publishing", body, nil)
}

func (s *httpService) UpdateRecordingType(ctx context.Context, seriesID, recordingType string) error {
	body := struct {
		RecordingType string `json:"recordingType"`
	}{RecordingType: recordingType}
	return s.call(ctx, http.MethodPut, "/series/"+seriesID+"/recording-type", body, nil)
}

func (s *httpService) UpdateMetadata(ctx context.Context, seriesID, title, description string) error {
	body := struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}{Title: title, Description: description}
	return s.call(ctx, http.MethodPut, "/series/"+seriesID+"/metadata", body, nil)
}

func (s *httpService) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, "capture", "encode request", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return services.Wrap(services.ErrValidation, "capture", "build request", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "capture", method+" "+path, "request canceled", err)
		}
		return services.Wrap(services.ErrTransient, "capture", method+" "+path, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return s.statusError(method, path, resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return services.Wrap(services.ErrExternal, "capture", method+" "+path, "decode response", err)
		}
	}
	return nil
}

func (s *httpService) statusError(method, path string, resp *http.Response) error {
	detail := fmt.Sprintf("provider returned %d", resp.StatusCode)
	if snippet := readSnippet(resp.Body); snippet != "" {
		detail += ": " + snippet
	}
	marker := services.ErrExternal
	switch {
	case resp.StatusCode == http.StatusNotFound:
		marker = services.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		marker = services.ErrConfiguration
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		marker = services.ErrTransient
	}
	return services.Wrap(marker, "capture", method+" "+path, detail, nil)
}

func readSnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
