// Package client is the frontend's HTTP client for the task API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"studyplan/app/models"
)

// ErrNotFound is returned when the server reports 404 for a task.
var ErrNotFound = errors.New("task not found")

// APIError is a non-2xx response from the task API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("task API returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the task API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListTasks returns every task sorted by ascending id.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// CreateTask adds a task named name.
func (c *Client) CreateTask(ctx context.Context, name string) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", models.CreateTaskRequest{Name: name}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetCompleted updates a task's completion flag.
func (c *Client) SetCompleted(ctx context.Context, id int64, completed bool) (*models.Task, error) {
	var task models.Task
	body := models.UpdateTaskRequest{Completed: &completed}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes one task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

// ClearTasks deletes every task and returns how many were removed.
func (c *Client) ClearTasks(ctx context.Context) (int64, error) {
	var resp models.ClearResponse
	if err := c.do(ctx, http.MethodDelete, "/tasks", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// Health checks the server root.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach task API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach task API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1<<12))
	if err != nil {
		return err.Error()
	}
	var resp models.ErrorResponse
	if json.Unmarshal(data, &resp) == nil && resp.Error != "" {
		return resp.Error
	}
	return strings.TrimSpace(string(data))
}
