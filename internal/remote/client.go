package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-sync/internal/models"
)

// TaskStore is the contract of the remote task store. All calls are scoped
// to the identity of the client's bearer token.
type TaskStore interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, payload models.TaskPayload) (models.Task, error)

	// Update returns an error matching ErrNotFound if the store has no
	// task with id.
	Update(ctx context.Context, id string, payload models.TaskPayload) (models.Task, error)

	// Delete returns an error matching ErrNotFound if the store has no
	// task with id.
	Delete(ctx context.Context, id string) error
}

type Client interface {
	TaskStore

	// Ping checks that the store answers at all. Any HTTP response counts
	// as reachable.
	Ping(ctx context.Context) error

	// SetToken replaces the bearer token used by subsequent calls.
	SetToken(token string)
}

const requestIDHeader = "X-Request-ID"

type clientImpl struct {
	logger     zerolog.Logger
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(
	logger zerolog.Logger,
	baseURL string,
	token string,
	timeout time.Duration,
) Client {
	return &clientImpl{
		logger:     logger.With().Str("component", "remote").Logger(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// remoteTask is the wire shape. The store names the id "_id" and older
// deployments call the category "sport".
type remoteTask struct {
	ID          string     `json:"_id"`
	AltID       string     `json:"id,omitempty"`
	Owner       string     `json:"owner,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Category    string     `json:"category,omitempty"`
	Sport       string     `json:"sport,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t remoteTask) toModel() models.Task {
	id := t.ID
	if id == "" {
		id = t.AltID
	}
	category := t.Category
	if category == "" {
		category = t.Sport
	}
	return models.Task{
		ID:          id,
		Owner:       t.Owner,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
		Category:    category,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}.WithDefaults()
}

type listTasksResponse struct {
	Tasks []remoteTask `json:"tasks"`
}

type taskResponse struct {
	Task remoteTask `json:"task"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *clientImpl) List(ctx context.Context) ([]models.Task, error) {
	var response listTasksResponse
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &response)
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(response.Tasks))
	for _, task := range response.Tasks {
		tasks = append(tasks, task.toModel())
	}
	c.logger.Debug().
		Int("count", len(tasks)).
		Msg("listed tasks")
	return tasks, nil
}

func (c *clientImpl) Create(ctx context.Context, payload models.TaskPayload) (models.Task, error) {
	var response taskResponse
	err := c.do(ctx, http.MethodPost, "/tasks", payload, &response)
	if err != nil {
		return models.Task{}, err
	}

	task := response.Task.toModel()
	if task.ID == "" {
		c.logger.Error().Msg("created task has no id")
		return models.Task{}, &Error{Reason: ReasonValidation, Message: "created task has no id"}
	}
	c.logger.Info().
		Str("task_id", task.ID).
		Msg("created task")
	return task, nil
}

func (c *clientImpl) Update(ctx context.Context, id string, payload models.TaskPayload) (models.Task, error) {
	var response taskResponse
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), payload, &response)
	if err != nil {
		return models.Task{}, err
	}

	task := response.Task.toModel()
	if task.ID == "" {
		task.ID = id
	}
	c.logger.Info().
		Str("task_id", task.ID).
		Msg("updated task")
	return task, nil
}

func (c *clientImpl) Delete(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	c.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	return nil
}

func (c *clientImpl) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/tasks", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Reason: ReasonNetwork, Err: err}
	}
	_ = resp.Body.Close()
	return nil
}

func (c *clientImpl) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *clientImpl) authorize(req *http.Request) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
}

func (c *clientImpl) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.logger.Error().
				Err(err).
				Msg("failed to marshal request body")
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to build request")
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("method", method).
			Str("path", path).
			Msg("request did not reach the remote store")
		return &Error{Reason: ReasonNetwork, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Str("request_id", req.Header.Get(requestIDHeader)).
		Msg("remote response")

	if resp.StatusCode >= 300 {
		var errBody errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		message := errBody.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}

		c.logger.Error().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("error", message).
			Msg("remote store rejected request")
		return &Error{
			Reason:  reasonForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: message,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil && !errors.Is(err, io.EOF) {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to decode response")
		return &Error{Reason: ReasonInvalidResponse, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// DecodeTask parses a task in the store's wire shape, as carried by push
// events.
func DecodeTask(data []byte) (models.Task, error) {
	var task remoteTask
	err := json.Unmarshal(data, &task)
	if err != nil {
		return models.Task{}, err
	}
	return task.toModel(), nil
}
