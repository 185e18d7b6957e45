package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"gitlab.com/ranfdev/blogmod/internal/metrics"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

// APIError is a non-success answer of the content API.
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.Status)
}

// UserMessage returns the message the content API gave for err, or fallback
// when there is none.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// ContentClient talks to the remote blog platform.
type ContentClient struct {
	baseURL    string
	deleteURL  string
	reportsURL string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

func NewContentClient(config *models.EnvConfig, m *metrics.Metrics) *ContentClient {
	deleteURL := config.DeleteAPIURL
	if deleteURL == "" {
		deleteURL = config.APIURL
	}
	reportsURL := config.ReportsAPIURL
	if reportsURL == "" {
		reportsURL = config.APIURL
	}
	return &ContentClient{
		baseURL:    strings.TrimRight(config.APIURL, "/"),
		deleteURL:  strings.TrimRight(deleteURL, "/"),
		reportsURL: strings.TrimRight(reportsURL, "/"),
		httpClient: &http.Client{Timeout: config.APITimeout},
		metrics:    m,
	}
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func (c *ContentClient) do(ctx context.Context, op, method, rawURL string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("X-Request-ID", requestID(ctx))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(op, 0, start)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.metrics.ObserveAPI(op, resp.StatusCode, start)
	return resp, nil
}

// expectOK drains and closes resp when its status isn't 2xx. The message is
// taken from the body by readMessage.
func expectOK(op string, resp *http.Response, readMessage func([]byte) string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := ""
	if readMessage != nil {
		msg = readMessage(body)
	}
	return &APIError{Operation: op, Status: resp.StatusCode, Message: msg}
}

func jsonErrorField(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.Error
}

func plainText(body []byte) string {
	return strings.TrimSpace(string(body))
}

func decode(op string, resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func discard(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (c *ContentClient) ListPosts(ctx context.Context) ([]models.Post, error) {
	const op = "list_posts"
	resp, err := c.do(ctx, op, http.MethodGet, c.baseURL+"/api/posts-with-comments", nil, "")
	if err != nil {
		return nil, err
	}
	if err := expectOK(op, resp, nil); err != nil {
		return nil, err
	}
	posts := []models.Post{}
	if err := decode(op, resp, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

func (c *ContentClient) ListReports(ctx context.Context) ([]models.Report, error) {
	const op = "list_reports"
	resp, err := c.do(ctx, op, http.MethodGet, c.baseURL+"/api/report", nil, "")
	if err != nil {
		return nil, err
	}
	if err := expectOK(op, resp, nil); err != nil {
		return nil, err
	}
	reports := []models.Report{}
	if err := decode(op, resp, &reports); err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

func (c *ContentClient) SubmitReport(ctx context.Context, report models.NewReport) error {
	const op = "submit_report"
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.do(ctx, op, http.MethodPost, c.baseURL+"/api/report", bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	if err := expectOK(op, resp, jsonErrorField); err != nil {
		return err
	}
	discard(resp)
	return nil
}

func (c *ContentClient) DeletePost(ctx context.Context, postID int) error {
	const op = "delete_post"
	q := url.Values{"id": {strconv.Itoa(postID)}}
	resp, err := c.do(ctx, op, http.MethodDelete, c.deleteURL+"/api/report?"+q.Encode(), nil, "application/json")
	if err != nil {
		return err
	}
	if err := expectOK(op, resp, nil); err != nil {
		return err
	}
	discard(resp)
	return nil
}

func (c *ContentClient) ClearReports(ctx context.Context, postID int) error {
	const op = "clear_reports"
	q := url.Values{"postid": {strconv.Itoa(postID)}}
	resp, err := c.do(ctx, op, http.MethodDelete, c.reportsURL+"/api/deletereport?"+q.Encode(), nil, "application/json")
	if err != nil {
		return err
	}
	if err := expectOK(op, resp, nil); err != nil {
		return err
	}
	discard(resp)
	return nil
}

func encodePost(post models.NewPost) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fields := []struct{ name, value string }{
		{"title", post.Title},
		{"blog", post.Body},
		{"catagory", string(post.Category)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if post.Image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, post.Image.Filename))
		h.Set("Content-Type", post.Image.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(post.Image.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("nickname", post.Nickname); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func (c *ContentClient) CreatePost(ctx context.Context, post models.NewPost) (*models.Post, error) {
	const op = "create_post"
	body, contentType, err := encodePost(post)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding form: %w", op, err)
	}
	resp, err := c.do(ctx, op, http.MethodPost, c.baseURL+"/api/posts", body, contentType)
	if err != nil {
		return nil, err
	}
	if err := expectOK(op, resp, jsonErrorField); err != nil {
		return nil, err
	}
	created := &models.Post{}
	if err := decode(op, resp, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *ContentClient) SubmitComment(ctx context.Context, comment models.NewComment) (*models.Comment, error) {
	const op = "submit_comment"
	body, err := json.Marshal(comment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.do(ctx, op, http.MethodPost, c.baseURL+"/api/comments", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	if err := expectOK(op, resp, plainText); err != nil {
		return nil, err
	}
	created := &models.Comment{}
	if err := decode(op, resp, created); err != nil {
		return nil, err
	}
	return created, nil
}
