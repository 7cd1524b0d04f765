// Generator REST client
//
// Every call resolves the base URL afresh, applies a per-call timeout and makes exactly one attempt.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/resolver"
	"github.com/desertthunder/svbridge/internal/shared"
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultLookupTimeout  = 10 * time.Second
	defaultDeleteTimeout  = 10 * time.Second
)

// BaseURLFunc returns the generator base URL without a trailing slash.
type BaseURLFunc func() (string, error)

// Timeouts bounds each kind of generator call. Zero values fall back to the defaults.
type Timeouts struct {
	Request time.Duration
	Lookup  time.Duration // find-by-link
	Delete  time.Duration // account deletes during a cascade
}

// Generator talks to the short-video generator's /api/v1 surface.
type Generator struct {
	client   *resty.Client
	baseURL  BaseURLFunc
	timeouts Timeouts
	logger   *log.Logger
}

// NewGenerator creates a generator client.
func NewGenerator(baseURL BaseURLFunc, timeouts Timeouts, logger *log.Logger) *Generator {
	if timeouts.Request <= 0 {
		timeouts.Request = defaultRequestTimeout
	}
	if timeouts.Lookup <= 0 {
		timeouts.Lookup = defaultLookupTimeout
	}
	if timeouts.Delete <= 0 {
		timeouts.Delete = defaultDeleteTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	client := resty.New().
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &Generator{
		client:   client,
		baseURL:  baseURL,
		timeouts: timeouts,
		logger:   logger,
	}
}

// NewGeneratorFromConfig wires a client to the [generator] config section.
func NewGeneratorFromConfig(cfg *shared.Config, logger *log.Logger) *Generator {
	return NewGenerator(cfg.GeneratorBaseURL, Timeouts{
		Request: cfg.Generator.RequestTimeout.Duration,
		Lookup:  cfg.Generator.LookupTimeout.Duration,
		Delete:  cfg.Generator.DeleteTimeout.Duration,
	}, logger)
}

// TaskCreated is the generator's answer to a task creation.
type TaskCreated struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// TaskDetail is a generator task with the fields the bridge reads; Raw is the full body.
type TaskDetail struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	OutputData map[string]any  `json:"output_data"`
	Raw        json.RawMessage `json:"-"`
}

// VideoURL returns output_data.video_url, else output_data.video_path.
func (t *TaskDetail) VideoURL() string {
	for _, k := range []string{"video_url", "video_path"} {
		if s, ok := t.OutputData[k].(string); ok {
			return s
		}
	}
	return ""
}

// VideoSequence returns output_data.video_sequence as reported.
func (t *TaskDetail) VideoSequence() any {
	return t.OutputData["video_sequence"]
}

// AccountFilter narrows a platform-account listing.
type AccountFilter struct {
	Platform      string
	Status        string
	IntegrationID string
	AccountID     string
	Page          int
	Limit         int
}

// Values encodes the filter, skipping empty fields.
func (f AccountFilter) Values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("platform", f.Platform)
	set("status", f.Status)
	set("integration_id", f.IntegrationID)
	set("account_id", f.AccountID)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// AccountCreate is the body of a platform-account creation.
type AccountCreate struct {
	Name      string         `json:"name"`
	Platform  string         `json:"platform"`
	Status    string         `json:"status"`
	Config    map[string]any `json:"config,omitempty"`
	Postiz    *models.Link   `json:"postiz,omitempty"`
	AccountID string         `json:"account_id,omitempty"`
}

type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	timeout time.Duration
}

func (g *Generator) do(ctx context.Context, c call, out any) error {
	base, err := g.baseURL()
	if err != nil {
		return err
	}

	timeout := c.timeout
	if timeout <= 0 {
		timeout = g.timeouts.Request
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := g.client.R().SetContext(ctx)
	if len(c.query) > 0 {
		req.SetQueryParamsFromValues(c.query)
	}
	if c.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(c.body)
	}

	start := time.Now()
	resp, err := req.Execute(c.method, base+c.path)
	if err != nil {
		g.logger.Debug("generator request failed", "method", c.method, "path", c.path, "error", err)
		return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, c.method, c.path, err)
	}
	g.logger.Debug("generator request", "method", c.method, "path", c.path, "status", resp.StatusCode(), "elapsed", time.Since(start))

	if !resp.IsSuccess() {
		return newUpstreamError(resp.StatusCode(), resp.Body())
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], resp.Body()...)
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %w", shared.ErrAPIRequest, c.method, c.path, err)
	}
	return nil
}

func (g *Generator) raw(ctx context.Context, c call) (json.RawMessage, error) {
	var out json.RawMessage
	if err := g.do(ctx, c, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func escape(id string) string { return url.PathEscape(id) }

// CreateTask submits one task.
func (g *Generator) CreateTask(ctx context.Context, req resolver.TaskRequest) (*TaskCreated, error) {
	var out TaskCreated
	if err := g.do(ctx, call{method: http.MethodPost, path: "/api/v1/tasks", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks proxies the task listing.
func (g *Generator) ListTasks(ctx context.Context, q url.Values) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/tasks", query: q})
}

// GetTask fetches one task.
func (g *Generator) GetTask(ctx context.Context, id string) (*TaskDetail, error) {
	body, err := g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/tasks/" + escape(id)})
	if err != nil {
		return nil, err
	}

	var task TaskDetail
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("%w: decoding task %s: %w", shared.ErrAPIRequest, id, err)
	}
	task.Raw = body
	return &task, nil
}

func (g *Generator) DeleteTask(ctx context.Context, id string) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodDelete, path: "/api/v1/tasks/" + escape(id)})
}

func (g *Generator) TriggerTask(ctx context.Context, id string) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodPost, path: "/api/v1/tasks/" + escape(id) + "/trigger", body: map[string]any{}})
}

func (g *Generator) RetryTask(ctx context.Context, id string) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodPost, path: "/api/v1/tasks/" + escape(id) + "/retry", body: map[string]any{}})
}

// ListAccounts lists platform accounts.
func (g *Generator) ListAccounts(ctx context.Context, f AccountFilter) (*models.AccountPage, error) {
	var page models.AccountPage
	if err := g.do(ctx, call{method: http.MethodGet, path: "/api/v1/platform-accounts", query: f.Values()}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FindByIntegration returns the first account linked to an integration, or nil.
func (g *Generator) FindByIntegration(ctx context.Context, integrationID string) (*models.GeneratorAccount, error) {
	var page models.AccountPage
	c := call{
		method:  http.MethodGet,
		path:    "/api/v1/platform-accounts",
		query:   AccountFilter{IntegrationID: integrationID, Limit: 1}.Values(),
		timeout: g.timeouts.Lookup,
	}
	if err := g.do(ctx, c, &page); err != nil {
		return nil, err
	}
	for i := range page.Items {
		if page.Items[i].ID != "" {
			return &page.Items[i], nil
		}
	}
	return nil, nil
}

func (g *Generator) GetAccount(ctx context.Context, id string) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/platform-accounts/" + escape(id)})
}

// CreateAccount creates a platform account. body is usually an [AccountCreate].
func (g *Generator) CreateAccount(ctx context.Context, body any) (*models.GeneratorAccount, error) {
	var acc models.GeneratorAccount
	if err := g.do(ctx, call{method: http.MethodPost, path: "/api/v1/platform-accounts", body: body}, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// UpdateAccount replaces fields of a platform account.
func (g *Generator) UpdateAccount(ctx context.Context, id string, body any) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodPut, path: "/api/v1/platform-accounts/" + escape(id), body: body})
}

// LinkAccount writes the link field of an account; the generator merges it into config.postiz.
func (g *Generator) LinkAccount(ctx context.Context, id string, link models.Link) error {
	_, err := g.UpdateAccount(ctx, id, map[string]any{"postiz": link})
	return err
}

// DeleteAccount deletes one platform account.
func (g *Generator) DeleteAccount(ctx context.Context, id string) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodDelete, path: "/api/v1/platform-accounts/" + escape(id), timeout: g.timeouts.Delete})
}

func (g *Generator) ListPersonas(ctx context.Context, q url.Values) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/personas", query: q})
}

func (g *Generator) GetPersona(ctx context.Context, id string) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/personas/" + escape(id)})
}

func (g *Generator) CreatePersona(ctx context.Context, body any) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodPost, path: "/api/v1/personas", body: orEmpty(body)})
}

func (g *Generator) UpdatePersona(ctx context.Context, id string, body any) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodPut, path: "/api/v1/personas/" + escape(id), body: orEmpty(body)})
}

func (g *Generator) DeletePersona(ctx context.Context, id string) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodDelete, path: "/api/v1/personas/" + escape(id)})
}

func (g *Generator) PromptItems(ctx context.Context, q url.Values) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/prompts/items", query: q})
}

func (g *Generator) PromptsByName(ctx context.Context, q url.Values) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/prompts/grouped/by-name", query: q})
}

func (g *Generator) BookCategories(ctx context.Context) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/book-catalog/categories"})
}

func (g *Generator) BookSourceTags(ctx context.Context, q url.Values) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/book-catalog/source-tags", query: q})
}

func (g *Generator) BooksForSelection(ctx context.Context, q url.Values) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodGet, path: "/api/v1/book-catalog/books/for-selection", query: q})
}

func (g *Generator) DiscoverTopics(ctx context.Context, body any) (json.RawMessage, error) {
	return g.raw(ctx, call{method: http.MethodPost, path: "/api/v1/topics/discover", body: orEmpty(body)})
}

func orEmpty(body any) any {
	if body == nil {
		return map[string]any{}
	}
	return body
}
