package routes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gitlab.com/ranfdev/blogmod/internal/domain"
	"gitlab.com/ranfdev/blogmod/internal/metrics"
	"gitlab.com/ranfdev/blogmod/internal/models"
	"gitlab.com/ranfdev/blogmod/internal/render"
)

type stubAPI struct {
	mu        sync.Mutex
	posts     []models.Post
	reports   []models.Report
	created   []models.NewPost
	submitted []models.NewReport
	comments  []models.NewComment
	failList  error
	failMut   error

	listCalls  int
	beforeList func(call int)
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		posts: []models.Post{
			{ID: 1, Title: "Alpha", Body: "Go channels explained", Category: models.CategoryTechnology, Date: models.ParseTimestamp("2024-01-01")},
			{ID: 2, Title: "Bravo", Body: "Best ramen in town", Category: models.CategoryFood, Date: models.ParseTimestamp("2024-03-01")},
		},
		reports: []models.Report{
			{ID: "r1", PostID: 2, Type: models.ReportTypeSpam, Reporter: "eve", CreatedAt: models.ParseTimestamp("2024-03-02")},
		},
	}
}

func (s *stubAPI) ListPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	s.listCalls++
	call, hook := s.listCalls, s.beforeList
	s.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Post{}, s.posts...), s.failList
}

func (s *stubAPI) ListReports(ctx context.Context) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Report{}, s.reports...), s.failList
}

func (s *stubAPI) SubmitReport(ctx context.Context, r models.NewReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMut != nil {
		return s.failMut
	}
	s.submitted = append(s.submitted, r)
	return nil
}

func (s *stubAPI) DeletePost(ctx context.Context, postID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMut != nil {
		return s.failMut
	}
	kept := []models.Post{}
	for _, p := range s.posts {
		if p.ID != postID {
			kept = append(kept, p)
		}
	}
	s.posts = kept
	return nil
}

func (s *stubAPI) ClearReports(ctx context.Context, postID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMut != nil {
		return s.failMut
	}
	kept := []models.Report{}
	for _, r := range s.reports {
		if r.PostID != postID {
			kept = append(kept, r)
		}
	}
	s.reports = kept
	return nil
}

func (s *stubAPI) CreatePost(ctx context.Context, np models.NewPost) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMut != nil {
		return nil, s.failMut
	}
	s.created = append(s.created, np)
	nick := np.Nickname
	post := models.Post{ID: 10, Title: np.Title, Body: np.Body, Category: np.Category, Nickname: &nick, Date: models.NewTimestamp(time.Now())}
	s.posts = append(s.posts, post)
	return &post, nil
}

func (s *stubAPI) SubmitComment(ctx context.Context, c models.NewComment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMut != nil {
		return nil, s.failMut
	}
	s.comments = append(s.comments, c)
	comment := models.Comment{ID: 50, PostID: c.PostID, Author: c.Author, Content: c.Content, Date: models.NewTimestamp(time.Now())}
	for i := range s.posts {
		if s.posts[i].ID == c.PostID {
			s.posts[i].Comments = append(s.posts[i].Comments, comment)
		}
	}
	return &comment, nil
}

type testEnv struct {
	api    *stubAPI
	srv    *httptest.Server
	client *http.Client
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, nil)
}

func newTestEnvWithStore(t *testing.T, store Pinger) *testEnv {
	t.Helper()
	config := &models.EnvConfig{APITimeout: 5 * time.Second, MaxImageBytes: models.DefaultMaxImageBytes}
	tmpls, err := render.GetTemplates(config, zerolog.Nop())
	require.NoError(t, err)

	api := newStubAPI()
	panels := domain.NewPanels(api, nil, zerolog.Nop())
	router := NewRouter(config, panels, nil, store, zerolog.Nop(), tmpls, metrics.New())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{api: api, srv: srv, client: client}
}

func (env *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := env.client.Get(env.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (env *testEnv) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := env.client.PostForm(env.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (env *testEnv) postMultipart(t *testing.T, path string, fields map[string]string, image []byte) (*http.Response, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "upload.bin")
		require.NoError(t, err)
		part.Write(image)
	}
	require.NoError(t, w.Close())
	resp, err := env.client.Post(env.srv.URL+path, w.FormDataContentType(), buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestPanelListsNewestFirst(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	resp, body := env.get(t, "/")
	require.Equal(http.StatusOK, resp.StatusCode)
	require.NotEmpty(resp.Header.Get("X-Request-ID"))
	require.Less(strings.Index(body, "Bravo"), strings.Index(body, "Alpha"))
	require.Contains(body, "By user")
	// Reported posts can be cleared from the all view too.
	require.Contains(body, "Remove Reports")
	require.NotContains(body, `class="badge"`)
}

func TestPanelReportedView(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	_, body := env.get(t, "/?view=reported")
	require.Contains(body, "Bravo")
	require.NotContains(body, "Alpha")
	require.Contains(body, `href="/posts/2/reports?view=reported"`)
}

func TestPanelSearchAndCategory(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	_, body := env.get(t, "/?q=RAMEN")
	require.Contains(body, "Bravo")
	require.NotContains(body, "Alpha")

	_, body = env.get(t, "/?category=TRAVEL")
	require.Contains(body, "No blogs found matching your criteria.")

	// Unknown categories select everything.
	_, body = env.get(t, "/?category=bogus")
	require.Contains(body, "Alpha")
	require.Contains(body, "Bravo")
}

func TestPanelFetchError(t *testing.T) {
	env := newTestEnv(t)
	env.api.failList = errors.New("boom")

	_, body := env.get(t, "/")
	require.Contains(t, body, "Failed to load blogs. Please try again later.")
}

func TestDeletePostRedirectsBack(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	env.get(t, "/")

	resp, _ := env.postForm(t, "/posts/2/delete?view=all&q=o", nil)
	require.Equal(http.StatusSeeOther, resp.StatusCode)
	require.Equal("/?q=o&view=all", resp.Header.Get("Location"))

	_, body := env.get(t, "/")
	require.NotContains(body, "Bravo")
	_, body = env.get(t, "/?view=reported")
	require.NotContains(body, "Bravo")
}

func TestMutationFailureFlashesOnce(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	env.get(t, "/")
	env.api.failMut = errors.New("nope")

	resp, _ := env.postForm(t, "/posts/2/clear-reports", nil)
	require.Equal(http.StatusSeeOther, resp.StatusCode)

	_, body := env.get(t, "/")
	require.Contains(body, "Failed to remove reports. Please try again later.")
	require.Contains(body, "Bravo")

	_, body = env.get(t, "/")
	require.NotContains(body, "Failed to remove reports")
}

func TestClearReports(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	env.get(t, "/?view=reported")

	env.postForm(t, "/posts/2/clear-reports?view=reported", nil)
	_, body := env.get(t, "/?view=reported")
	require.Contains(body, "No blogs found matching your criteria.")
}

func TestReportDetails(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	resp, body := env.get(t, "/posts/2/reports")
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Contains(body, "Report Details (1 Report)")
	require.Contains(body, "Spam")
	require.Contains(body, "eve")

	resp, _ = env.get(t, "/posts/99/reports")
	require.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = env.get(t, "/posts/abc/reports")
	require.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestCreatePostValidation(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	resp, body := env.postMultipart(t, "/posts", map[string]string{"title": "Hi", "catagory": ""}, nil)
	require.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(body, "Title, category, and content are required")

	resp, body = env.postMultipart(t, "/posts", map[string]string{"title": "Hi", "catagory": "TECHNOLOGY", "content": "x"}, []byte("GIF89a not allowed"))
	require.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(body, "Only JPEG or PNG images are allowed")

	require.Empty(env.api.created)
}

func TestCreatePostRemembersNickname(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	resp, _ := env.postMultipart(t, "/posts", map[string]string{
		"title":    "Hello",
		"catagory": "EDUCATION",
		"content":  "Body",
		"nickname": "ann",
	}, png)
	require.Equal(http.StatusSeeOther, resp.StatusCode)
	require.Len(env.api.created, 1)
	created := env.api.created[0]
	require.Equal("ann", created.Nickname)
	require.Equal(models.CategoryEducation, created.Category)
	require.NotNil(created.Image)
	require.Equal("image/png", created.Image.ContentType)

	_, body := env.get(t, "/posts/1/report")
	require.Contains(body, `name="reporter" value="ann"`)
}

func TestSubmitReport(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	resp, body := env.postForm(t, "/posts/1/report", url.Values{"type": {"SPAM"}})
	require.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(body, "Please provide a reporter nickname")

	resp, body = env.postForm(t, "/posts/1/report", url.Values{"type": {"SCAM"}, "reporter": {"bob"}, "reason": {"  fake  "}})
	require.Contains(body, "Report submitted successfully")
	require.Equal([]models.NewReport{{PostID: 1, Type: models.ReportTypeScam, Reason: "fake", Reporter: "bob"}}, env.api.submitted)

	// Reporting doesn't store a nickname for the session.
	for _, c := range resp.Cookies() {
		require.NotEqual(nicknameCookie, c.Name)
	}
	_, body = env.get(t, "/posts/1/report")
	require.Contains(body, `name="reporter" value=""`)
}

func TestCommentFlow(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	resp, body := env.postForm(t, "/posts/1/comments", url.Values{"content": {"hi"}})
	require.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(body, "Please fill in all required fields")

	resp, _ = env.postForm(t, "/posts/1/comments", url.Values{"content": {"hi"}, "author": {"carl"}})
	require.Equal(http.StatusSeeOther, resp.StatusCode)
	require.Equal([]models.NewComment{{PostID: 1, Author: "carl", Content: "hi"}}, env.api.comments)

	_, body = env.get(t, "/posts/1/comments")
	require.Contains(body, "Comments (1)")
	require.Contains(body, "carl")
	require.NotContains(body, `name="author"`)
}

func TestTheme(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/", nil)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", "dark")
	resp, err := env.client.Do(req)
	require.NoError(err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(string(body), `class="theme-dark"`)

	resp, _ = env.postForm(t, "/theme", url.Values{"theme": {"dark"}, "return": {"/?view=reported"}})
	require.Equal(http.StatusSeeOther, resp.StatusCode)
	require.Equal("/?view=reported", resp.Header.Get("Location"))
	_, page := env.get(t, "/")
	require.Contains(page, `class="theme-dark"`)

	resp, _ = env.postForm(t, "/theme", url.Values{"theme": {"light"}, "return": {"//evil.example"}})
	require.Equal("/", resp.Header.Get("Location"))
}

func TestHealthMetricsStatic(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	resp, body := env.get(t, "/health")
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("ok", body)

	resp, _ = env.get(t, "/static/style.css")
	require.Equal(http.StatusOK, resp.StatusCode)

	_, body = env.get(t, "/metrics")
	require.Contains(body, "blogmod_http_requests_total")

	resp, _ = env.get(t, "/nowhere")
	require.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestAuditDisabled(t *testing.T) {
	env := newTestEnv(t)
	_, body := env.get(t, "/audit")
	require.Contains(t, body, "The audit log is disabled")
}

func TestHealthChecksStore(t *testing.T) {
	require := require.New(t)

	env := newTestEnvWithStore(t, stubPinger{})
	resp, body := env.get(t, "/health")
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("ok", body)

	env = newTestEnvWithStore(t, stubPinger{err: errors.New("connection refused")})
	resp, _ = env.get(t, "/health")
	require.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPanelReloadsWhileRefreshRuns(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	firstStarted := make(chan struct{})
	secondStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	env.api.beforeList = func(call int) {
		switch call {
		case 1:
			close(firstStarted)
			<-releaseFirst
		case 2:
			close(secondStarted)
			<-releaseSecond
		}
	}
	// Issue a session cookie first so both requests share one panel.
	env.postForm(t, "/theme", url.Values{"theme": {"light"}})

	first := make(chan string)
	go func() {
		resp, err := env.client.Get(env.srv.URL + "/")
		if err != nil {
			first <- ""
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		first <- string(body)
	}()
	<-firstStarted

	second := make(chan struct{})
	go func() {
		resp, err := env.client.Post(env.srv.URL+"/refresh", "application/x-www-form-urlencoded", nil)
		if err == nil {
			resp.Body.Close()
		}
		close(second)
	}()
	<-secondStarted

	close(releaseFirst)
	body := <-first
	require.Contains(body, "Loading blogs...")
	require.Contains(body, `http-equiv="refresh"`)

	close(releaseSecond)
	<-second
	_, body = env.get(t, "/")
	require.Contains(body, "Bravo")
	require.NotContains(body, `http-equiv="refresh"`)
}
