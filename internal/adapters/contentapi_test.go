package adapters

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/ranfdev/blogmod/internal/metrics"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

func newTestClient(srv *httptest.Server) *ContentClient {
	return NewContentClient(&models.EnvConfig{
		APIURL:     srv.URL,
		APITimeout: 5 * time.Second,
	}, metrics.New())
}

func TestListPostsAndReports(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodGet, r.Method)
		require.NotEmpty(r.Header.Get("X-Request-ID"))
		switch r.URL.Path {
		case "/api/posts-with-comments":
			io.WriteString(w, `[{"id":1,"title":"A","blog":"b","catagory":"FOOD","date":"2024-01-01T00:00:00Z","image":null,"nickname":null}]`)
		case "/api/report":
			io.WriteString(w, `[{"id":"r","type":"SPAM","reporter":"x","createdat":"2024-01-02T00:00:00Z","postid":1,"resolved":false}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	client := newTestClient(srv)

	posts, err := client.ListPosts(context.Background())
	require.NoError(err)
	require.Len(posts, 1)
	require.Equal(models.CategoryFood, posts[0].Category)

	reports, err := client.ListReports(context.Background())
	require.NoError(err)
	require.Len(reports, 1)
	require.Equal(1, reports[0].PostID)
}

func TestListPostsNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `null`)
	}))
	defer srv.Close()

	posts, err := newTestClient(srv).ListPosts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, posts)
	require.Empty(t, posts)
}

func TestFetchErrorStatus(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListReports(context.Background())
	require.Error(err)
	var apiErr *APIError
	require.ErrorAs(err, &apiErr)
	require.Equal(http.StatusBadGateway, apiErr.Status)
	require.Equal("fallback", UserMessage(err, "fallback"))
}

func TestDeleteAndClearUseTheirHosts(t *testing.T) {
	require := require.New(t)
	var deleted, cleared string
	deleteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodDelete, r.Method)
		require.Equal("/api/report", r.URL.Path)
		deleted = r.URL.Query().Get("id")
	}))
	defer deleteSrv.Close()
	reportsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodDelete, r.Method)
		require.Equal("/api/deletereport", r.URL.Path)
		cleared = r.URL.Query().Get("postid")
	}))
	defer reportsSrv.Close()

	client := NewContentClient(&models.EnvConfig{
		APIURL:        "http://127.0.0.1:1",
		DeleteAPIURL:  deleteSrv.URL + "/",
		ReportsAPIURL: reportsSrv.URL,
	}, nil)
	require.NoError(client.DeletePost(context.Background(), 42))
	require.NoError(client.ClearReports(context.Background(), 7))
	require.Equal("42", deleted)
	require.Equal("7", cleared)
}

func TestSubmitReport(t *testing.T) {
	require := require.New(t)
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodPost, r.Method)
		require.Equal("application/json", r.Header.Get("Content-Type"))
		require.NoError(json.NewDecoder(r.Body).Decode(&got))
		if got["type"] == "OTHER" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"Already reported"}`)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()
	client := newTestClient(srv)

	require.NoError(client.SubmitReport(context.Background(), models.NewReport{PostID: 3, Type: models.ReportTypeSpam, Reporter: "eve"}))
	require.Equal(float64(3), got["postId"])
	require.NotContains(got, "reason")

	err := client.SubmitReport(context.Background(), models.NewReport{PostID: 3, Type: models.ReportTypeOther, Reporter: "eve"})
	require.Error(err)
	require.Equal("Already reported", UserMessage(err, "Failed to submit report"))
}

func TestCreatePostMultipart(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("/api/posts", r.URL.Path)
		require.NoError(r.ParseMultipartForm(1 << 20))
		require.Equal("Title", r.FormValue("title"))
		require.Equal("Body", r.FormValue("blog"))
		require.Equal("TRAVEL", r.FormValue("catagory"))
		require.Equal("ann", r.FormValue("nickname"))

		file, header, err := r.FormFile("image")
		require.NoError(err)
		defer file.Close()
		require.Equal("image/png", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		require.Equal([]byte("pngdata"), data)

		io.WriteString(w, `{"id":55,"title":"Title","blog":"Body","catagory":"TRAVEL","date":"2024-01-01T00:00:00Z","nickname":"ann"}`)
	}))
	defer srv.Close()

	created, err := newTestClient(srv).CreatePost(context.Background(), models.NewPost{
		Title:    "Title",
		Body:     "Body",
		Category: models.CategoryTravel,
		Nickname: "ann",
		Image:    &models.ImageUpload{Filename: "image.png", ContentType: "image/png", Data: []byte("pngdata")},
	})
	require.NoError(err)
	require.Equal(55, created.ID)
}

func TestCreatePostWithoutImage(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(r.ParseMultipartForm(1 << 20))
		_, _, err := r.FormFile("image")
		require.ErrorIs(err, http.ErrMissingFile)
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"error":"Title too short"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreatePost(context.Background(), models.NewPost{Title: "T", Body: "B", Category: models.CategoryFood, Nickname: "user"})
	require.Equal("Title too short", UserMessage(err, "Failed to create post"))
}

func TestSubmitCommentErrorText(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c models.NewComment
		require.NoError(json.NewDecoder(r.Body).Decode(&c))
		if c.Content == "spam" {
			http.Error(w, "Comment rejected", http.StatusForbidden)
			return
		}
		json.NewEncoder(w).Encode(models.Comment{ID: 9, Content: c.Content, Author: c.Author, PostID: c.PostID})
	}))
	defer srv.Close()
	client := newTestClient(srv)

	created, err := client.SubmitComment(context.Background(), models.NewComment{PostID: 1, Author: "bob", Content: "hi"})
	require.NoError(err)
	require.Equal(9, created.ID)

	_, err = client.SubmitComment(context.Background(), models.NewComment{PostID: 1, Author: "bob", Content: "spam"})
	require.Equal("Comment rejected", UserMessage(err, "Failed to post comment"))
}
