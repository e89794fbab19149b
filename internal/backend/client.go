package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

const (
	questionsPath = "/api/quizzes/%s/questions/"
	submitPath    = "/api/progress/submit_quiz_answer/"
	publishPath   = "/api/teacher/content/%s/add_quiz_and_questions/"
)

// ErrUnauthorized is wrapped by APIError when the backend rejects the token
var ErrUnauthorized = errors.New("backend rejected credentials")

// APIError is a non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the learning platform backend that owns quizzes and progress
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetQuestions fetches the ordered question records of quizID
func (c *Client) GetQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error) {
	rawResp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf(questionsPath, url.PathEscape(quizID)), nil)
	if err != nil {
		return nil, err
	}

	var records []models.QuizQuestion
	if len(rawResp) == 0 {
		return records, nil
	}
	if err = json.Unmarshal(rawResp, &records); err != nil {
		return nil, fmt.Errorf("failed to decode questions of quiz %s: %w", quizID, err)
	}
	return records, nil
}

// SubmitScore posts a finished quiz score to the progress endpoint
func (c *Client) SubmitScore(ctx context.Context, submission models.ScoreSubmission) error {
	_, err := c.doRequest(ctx, http.MethodPost, submitPath, submission)
	return err
}

// PublishQuiz forwards a validated quiz with its questions and returns the backend reply untouched
func (c *Client) PublishQuiz(ctx context.Context, req models.PublishQuizRequest) (json.RawMessage, error) {
	body := struct {
		Quiz      models.QuizInfo       `json:"quiz"`
		Questions []models.QuizQuestion `json:"questions"`
	}{Quiz: req.Quiz, Questions: stripIDs(req.Questions)}

	rawResp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf(publishPath, url.PathEscape(req.ContentID)), body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(rawResp), nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, params interface{}) ([]byte, error) {
	var body io.Reader
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to do %s request for %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body of %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, respData)}
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return respData, nil
}

// errorMessage prefers the backend's detail, then message, then the bare status
func errorMessage(status int, data []byte) string {
	var result struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &result); err == nil {
		if result.Detail != "" {
			return result.Detail
		}
		if result.Message != "" {
			return result.Message
		}
	}
	return fmt.Sprintf("HTTP error: %d", status)
}

func stripIDs(records []models.QuizQuestion) []models.QuizQuestion {
	out := make([]models.QuizQuestion, len(records))
	for i, r := range records {
		r.ID = nil
		out[i] = r
	}
	return out
}
