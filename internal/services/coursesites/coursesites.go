package coursesites

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"lectern/internal/config"
	"lectern/internal/services"
)

// Site is one course site a series may publish into.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Directory resolves publish-target identifiers to course sites. It is
// read-only; site membership is managed elsewhere.
type Directory interface {
	Site(ctx context.Context, id string) (Site, error)
	SitesForSection(ctx context.Context, termID, sectionID string) ([]Site, error)
}

// HTTPDoer describes the HTTP client used by the directory.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpDirectory struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// NewConfiguredDirectory builds the HTTP-backed directory from
// configuration. A blank base URL disables lookups entirely.
func NewConfiguredDirectory(cfg *config.Config) Directory {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.CourseSites.BaseURL), "/")
	if baseURL == "" {
		return disabledDirectory{}
	}
	timeout := time.Duration(cfg.CourseSites.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpDirectory{
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.CourseSites.Token),
		client:  &http.Client{Timeout: timeout},
	}
}

// NewHTTPDirectory constructs a directory against an explicit endpoint,
// mainly for tests.
func NewHTTPDirectory(baseURL, token string, client HTTPDoer) Directory {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpDirectory{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  client,
	}
}

func (d *httpDirectory) Site(ctx context.Context, id string) (Site, error) {
	var site Site
	if err := d.get(ctx, "/sites/"+id, &site); err != nil {
		return Site{}, err
	}
	return site, nil
}

func (d *httpDirectory) SitesForSection(ctx context.Context, termID, sectionID string) ([]Site, error) {
	var payload struct {
		Sites []Site `json:"sites"`
	}
	if err := d.get(ctx, "/terms/"+termID+"/sections/"+sectionID+"/sites", &payload); err != nil {
		return nil, err
	}
	return payload.Sites, nil
}

func (d *httpDirectory) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "coursesites", "build request", path, err)
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "coursesites", "GET "+path, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "coursesites", "GET "+path, "no such site", nil)
	case resp.StatusCode >= http.StatusBadRequest:
		return services.Wrap(services.ErrExternal, "coursesites", "GET "+path, resp.Status, nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternal, "coursesites", "GET "+path, "decode response", err)
	}
	return nil
}

type disabledDirectory struct{}

func (disabledDirectory) Site(ctx context.Context, id string) (Site, error) {
	return Site{}, services.Wrap(services.ErrConfiguration, "coursesites", "lookup",
		"course site directory is not configured", nil)
}

func (disabledDirectory) SitesForSection(ctx context.Context, termID, sectionID string) ([]Site, error) {
	return nil, nil
}

// FakeDirectory serves lookups from a fixed map for tests.
type FakeDirectory struct {
	mu    sync.Mutex
	sites map[string]Site
}

// NewFakeDirectory builds a directory containing the given sites.
func NewFakeDirectory(sites ...Site) *FakeDirectory {
	fake := &FakeDirectory{sites: make(map[string]Site, len(sites))}
	for _, site := range sites {
		fake.sites[site.ID] = site
	}
	return fake
}

func (f *FakeDirectory) Site(ctx context.Context, id string) (Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	site, ok := f.sites[id]
	if !ok {
		return Site{}, services.Wrap(services.ErrNotFound, "coursesites", "lookup", "site "+id, nil)
	}
	return site, nil
}

func (f *FakeDirectory) SitesForSection(ctx context.Context, termID, sectionID string) ([]Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Site, 0, len(f.sites))
	for _, site := range f.sites {
		out = append(out, site)
	}
	return out, nil
}
