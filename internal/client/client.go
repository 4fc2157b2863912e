// Package client - типизированный HTTP клиент REST API taskboard.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrServer       = errors.New("server error")
)

// APIError - ответ сервера с кодом вне 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return ErrServer
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Signup регистрирует пользователя и запоминает выданный токен
func (c *Client) Signup(ctx context.Context, name, email, password string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil,
		model.SignupRequest{Name: name, Email: email, Password: password}, &resp)
	if err == nil {
		c.SetToken(resp.Token)
	}
	return resp, err
}

func (c *Client) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil,
		model.LoginRequest{Email: email, Password: password}, &resp)
	if err == nil {
		c.SetToken(resp.Token)
	}
	return resp, err
}

// Me возвращает профиль владельца текущего токена
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user)
	return user, err
}

func (c *Client) ListBoards(ctx context.Context) ([]model.Board, error) {
	var boards []model.Board
	err := c.do(ctx, http.MethodGet, "/api/boards", nil, nil, &boards)
	return boards, err
}

func (c *Client) GetBoard(ctx context.Context, id string) (model.Board, error) {
	var board model.Board
	err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(id), nil, nil, &board)
	return board, err
}

func (c *Client) CreateBoard(ctx context.Context, title string) (model.Board, error) {
	var board model.Board
	err := c.do(ctx, http.MethodPost, "/api/boards", nil, model.CreateBoardRequest{Title: title}, &board)
	return board, err
}

func (c *Client) UpdateBoard(ctx context.Context, id string, p model.BoardPatch) (model.Board, error) {
	var board model.Board
	err := c.do(ctx, http.MethodPut, "/api/boards/"+url.PathEscape(id), nil, p, &board)
	return board, err
}

func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/boards/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, nil, &tasks)
	return tasks, err
}

func (c *Client) GetTask(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, nil, &task)
	return task, err
}

// CreateTask создает задачу. Непустой idempKey уходит в заголовок Idempotency-Key.
func (c *Client) CreateTask(ctx context.Context, t model.Task, idempKey string) (model.Task, error) {
	var header http.Header
	if idempKey != "" {
		header = http.Header{"Idempotency-Key": []string{idempKey}}
	}
	var task model.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", header, t, &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, p model.TaskPatch) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), nil, p, &task)
	return task, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := sonic.ConfigStd.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := sonic.ConfigStd.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(raw []byte, status string) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := sonic.ConfigStd.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return status
}
