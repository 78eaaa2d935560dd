package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/models"
)

// AlertSource provides the materialized alert and metric records a query
// runs over. An empty resource means the whole environment.
type AlertSource interface {
	FetchAlerts(ctx context.Context, resource string, start, end time.Time) ([]models.Alert, error)
	FetchMetrics(ctx context.Context, resource string, start, end time.Time) ([]models.Metric, error)
}

// IngestClient pulls parsed alert and metric records from the external
// ingestion service. Recent windows are cached so repeated questions about
// the same incident do not refetch.
type IngestClient struct {
	baseURL     string
	alertsPath  string
	metricsPath string
	httpClient  *http.Client

	alertCache  *expirable.LRU[string, []models.Alert]
	metricCache *expirable.LRU[string, []models.Metric]
}

// NewIngestClient constructs a client targeting the configured ingestion
// service.
func NewIngestClient(cfg config.IngestConfig) *IngestClient {
	c := &IngestClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		alertsPath:  cfg.AlertsPath,
		metricsPath: cfg.MetricsPath,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.CacheSize > 0 {
		c.alertCache = expirable.NewLRU[string, []models.Alert](cfg.CacheSize, nil, cfg.CacheTTL)
		c.metricCache = expirable.NewLRU[string, []models.Metric](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return c
}

type windowRequest struct {
	Resource string `json:"resource_id,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

func newWindowRequest(resource string, start, end time.Time) windowRequest {
	req := windowRequest{Resource: resource}
	if !start.IsZero() {
		req.Start = start.Format(time.RFC3339)
	}
	if !end.IsZero() {
		req.End = end.Format(time.RFC3339)
	}
	return req
}

func windowKey(kind, resource string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%d|%d", kind, strings.ToUpper(resource), start.Unix(), end.Unix())
}

// FetchAlerts queries the ingestion service for alert records.
func (c *IngestClient) FetchAlerts(ctx context.Context, resource string, start, end time.Time) ([]models.Alert, error) {
	if c == nil {
		return nil, fmt.Errorf("ingest client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("ingest base URL not configured")
	}

	key := windowKey("alerts", resource, start, end)
	if c.alertCache != nil {
		if cached, ok := c.alertCache.Get(key); ok {
			return cached, nil
		}
	}

	var response struct {
		Alerts []models.Alert `json:"alerts"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.alertsPath), newWindowRequest(resource, start, end), &response); err != nil {
		return nil, fmt.Errorf("ingest alerts request failed: %w", err)
	}
	if c.alertCache != nil {
		c.alertCache.Add(key, response.Alerts)
	}
	return response.Alerts, nil
}

// FetchMetrics queries the ingestion service for metric samples.
func (c *IngestClient) FetchMetrics(ctx context.Context, resource string, start, end time.Time) ([]models.Metric, error) {
	if c == nil {
		return nil, fmt.Errorf("ingest client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("ingest base URL not configured")
	}

	key := windowKey("metrics", resource, start, end)
	if c.metricCache != nil {
		if cached, ok := c.metricCache.Get(key); ok {
			return cached, nil
		}
	}

	var response struct {
		Metrics []models.Metric `json:"metrics"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.metricsPath), newWindowRequest(resource, start, end), &response); err != nil {
		return nil, fmt.Errorf("ingest metrics request failed: %w", err)
	}
	if c.metricCache != nil {
		c.metricCache.Add(key, response.Metrics)
	}
	return response.Metrics, nil
}

func (c *IngestClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *IngestClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest service returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StaticSource serves records already held in memory. Used when the caller
// ships data inline with the question and in tests.
type StaticSource struct {
	Alerts  []models.Alert
	Metrics []models.Metric
}

// FetchAlerts filters the held alerts by resource and window.
func (s *StaticSource) FetchAlerts(_ context.Context, resource string, start, end time.Time) ([]models.Alert, error) {
	out := make([]models.Alert, 0, len(s.Alerts))
	for _, a := range s.Alerts {
		if !matchesResource(a.Resource, resource) {
			continue
		}
		if !inWindow(a.Timestamp, start, end) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// FetchMetrics filters the held metrics by resource and window.
func (s *StaticSource) FetchMetrics(_ context.Context, resource string, start, end time.Time) ([]models.Metric, error) {
	out := make([]models.Metric, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		if !matchesResource(m.Resource, resource) {
			continue
		}
		if !inWindow(m.Time, start, end) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func matchesResource(have, want string) bool {
	if want == "" {
		return true
	}
	return strings.Contains(strings.ToUpper(have), strings.ToUpper(want))
}

func inWindow(ts, start, end time.Time) bool {
	if !start.IsZero() && ts.Before(start) {
		return false
	}
	if !end.IsZero() && ts.After(end) {
		return false
	}
	return true
}
