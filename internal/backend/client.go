package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/model"
)

// Sort fields accepted by the task pool listing.
const (
	SortByCreateTime = "createTime"
	SortByUnitPrice  = "unitPrice"
)

// Sort orders accepted by the task pool and claims listings.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

const defaultTimeout = 8 * time.Second

const workerTokenHeader = "X-Worker-Token"

// Client talks to the marketplace backend. All operations decode the
// response envelope and never treat a non-zero code as success.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a backend client for the given base URL and worker token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TaskPool fetches one page of open tasks. The envelope timestamp is
// returned for the caller's freshness bookkeeping.
func (c *Client) TaskPool(ctx context.Context, page, size int, sortField, sortOrder string) (*model.TaskPage, int64, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	q.Set("sortField", sortField)
	q.Set("sortOrder", sortOrder)

	env, err := c.get(ctx, "/api/task/pool", q)
	if err != nil {
		return nil, 0, err
	}
	var pageData model.TaskPage
	if err := json.Unmarshal(env.Data, &pageData); err != nil {
		return nil, 0, model.WrapTransient("task pool response was malformed", err)
	}
	return &pageData, env.Timestamp, nil
}

// ClaimResult is the payload of a successful claim.
type ClaimResult struct {
	RecordID string `json:"record_id"`
	Deadline int64  `json:"deadline"`
}

// ClaimTask attempts to claim the task. Exclusivity is enforced by the
// backend; exactly one concurrent claimant receives code zero and the
// rest receive a definitive failure.
func (c *Client) ClaimTask(ctx context.Context, bTaskID int64) (*ClaimResult, error) {
	body := map[string]int64{"b_task_id": bTaskID}
	env, err := c.post(ctx, "/api/task/claim", body)
	if err != nil {
		return nil, err
	}
	var result ClaimResult
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &result); err != nil {
			return nil, model.WrapTransient("claim response was malformed", err)
		}
	}
	return &result, nil
}

// MyClaims fetches the worker's claims, optionally filtered to one
// status partition. A nil status selects all partitions.
func (c *Client) MyClaims(ctx context.Context, status *model.ClaimStatus, page, size int) (*model.ClaimPage, error) {
	q := url.Values{}
	if status != nil {
		q.Set("status", strconv.Itoa(status.Wire()))
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	env, err := c.get(ctx, "/api/task/claims", q)
	if err != nil {
		return nil, err
	}
	var pageData model.ClaimPage
	if err := json.Unmarshal(env.Data, &pageData); err != nil {
		return nil, model.WrapTransient("claims response was malformed", err)
	}
	return &pageData, nil
}

// SubmitEvidence uploads the evidence bundle for one claim. Screenshots
// are data-URI encoded images, already compressed by the caller.
func (c *Client) SubmitEvidence(ctx context.Context, bTaskID int64, recordID, commentURL string, screenshots []string) error {
	body := map[string]any{
		"b_task_id":   bTaskID,
		"record_id":   recordID,
		"comment_url": commentURL,
		"screenshots": screenshots,
	}
	_, err := c.post(ctx, "/api/task/submit", body)
	return err
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (*model.Envelope, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, model.WrapTransient("could not build request", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body any) (*model.Envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, model.WrapTransient("could not encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, model.WrapTransient("could not build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*model.Envelope, error) {
	if c.token != "" {
		req.Header.Set(workerTokenHeader, c.token)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.WrapTransient("the service is unreachable, please retry", err)
	}
	defer resp.Body.Close()

	var env model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, model.WrapTransient("the service returned an unreadable response", fmt.Errorf("decode envelope (http %d): %w", resp.StatusCode, err))
	}

	c.log.Debug("backend call",
		zap.String("path", req.URL.Path),
		zap.Int("http_status", resp.StatusCode),
		zap.Int("code", env.Code),
		zap.Duration("latency", time.Since(start)),
	)

	if !env.OK() {
		return nil, classify(&env)
	}
	return &env, nil
}
