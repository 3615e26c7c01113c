package tfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shiftreport/internal/config"
	"shiftreport/internal/domain"
)

// Client talks to the work-item tracking REST API (Azure DevOps/TFS shape).
type Client struct {
	BaseURL    string
	Project    string
	APIVersion string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration

	log zerolog.Logger
}

// New creates a client from config with sane defaults.
func New(cfg *config.Config, token string, log zerolog.Logger) *Client {
	apiVer := cfg.Server.APIVersion
	if apiVer == "" {
		apiVer = "6.0"
	}
	return &Client{
		BaseURL:    cfg.Server.URL,
		Project:    cfg.Server.Project,
		APIVersion: apiVer,
		Token:      token,
		Timeout:    30 * time.Second,
		log:        log,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Fetch runs the two-step query: submit the WIQL text, then batch-fetch full
// records for the returned references. Zero references short-circuits the
// second call. Record order is whatever the API yields; no client-side sort.
func (c *Client) Fetch(ctx context.Context, wiql string) ([]domain.WorkItem, error) {
	if strings.TrimSpace(wiql) == "" {
		return nil, fmt.Errorf("tfs: empty query text")
	}
	var refs domain.WiqlResponse
	if err := c.do(ctx, http.MethodPost, c.projectPath("_apis/wit/wiql"), domain.WiqlRequest{Query: wiql}, &refs); err != nil {
		return nil, fmt.Errorf("query work items: %w", err)
	}
	c.log.Debug().Int("refs", len(refs.WorkItems)).Msg("wiql query returned")
	if len(refs.WorkItems) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(refs.WorkItems))
	for _, ref := range refs.WorkItems {
		ids = append(ids, strconv.Itoa(ref.ID))
	}
	endpoint := c.projectPath("_apis/wit/workitems") + "&ids=" + url.QueryEscape(strings.Join(ids, ","))
	var details domain.WorkItemsResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &details); err != nil {
		return nil, fmt.Errorf("fetch work item details: %w", err)
	}
	return details.Value, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.BaseURL == "" {
		return fmt.Errorf("tfs: empty base URL")
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	u := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// ADO convention: basic auth with empty user and the PAT as password.
	// An empty token sends no Authorization header at all; the server's
	// rejection then surfaces as a transport failure downstream.
	if c.Token != "" {
		req.SetBasicAuth("", c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) projectPath(p string) string {
	project := url.PathEscape(c.Project)
	return fmt.Sprintf("%s/%s?api-version=%s", project, strings.TrimLeft(p, "/"), url.QueryEscape(c.APIVersion))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
