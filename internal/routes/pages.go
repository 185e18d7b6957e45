package routes

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gitlab.com/ranfdev/blogmod/internal/domain"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

type basePage struct {
	Title    string
	Theme    string
	Session  models.Session
	ReturnTo string
	// AutoRefresh makes the page reload itself every few seconds.
	AutoRefresh bool
}

func newBasePage(r *http.Request, title string) basePage {
	return basePage{
		Title:    title,
		Theme:    GetTheme(r),
		Session:  GetSession(r),
		ReturnTo: r.URL.RequestURI(),
	}
}

// listParams is the part of the panel view carried in the query string.
type listParams struct {
	Mode     domain.ViewMode
	Query    string
	Category models.Category
}

// readListParams falls back to the panel's current mode when the request
// doesn't name one.
func readListParams(r *http.Request, current domain.ViewMode) listParams {
	q := r.URL.Query()
	mode, ok := domain.ParseViewMode(q.Get("view"))
	if !ok {
		mode = current
	}
	return listParams{
		Mode:     mode,
		Query:    strings.TrimSpace(q.Get("q")),
		Category: models.ParseCategorySelector(q.Get("category")),
	}
}

func (lp listParams) values() url.Values {
	v := url.Values{}
	if lp.Mode != "" {
		v.Set("view", string(lp.Mode))
	}
	if lp.Query != "" {
		v.Set("q", lp.Query)
	}
	if lp.Category != "" && lp.Category != models.CategoryAll {
		v.Set("category", string(lp.Category))
	}
	return v
}

func (lp listParams) url(path string) string {
	if enc := lp.values().Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

type panelPage struct {
	basePage
	listParams
	Categories []models.Category
	Phase      string
	Error      string
	Flash      string
	Posts      []models.Post
}

func (p panelPage) ViewURL(mode string) string {
	lp := p.listParams
	lp.Mode = domain.ViewMode(mode)
	return lp.url("/")
}

func (p panelPage) RefreshURL() string {
	return p.listParams.url("/refresh")
}

func (p panelPage) PostURL(postID int, action string) string {
	return p.listParams.url(fmt.Sprintf("/posts/%d/%s", postID, action))
}

type reportsPage struct {
	basePage
	Post     models.Post
	Reports  []models.Report
	BackURL  string
	ClearURL string
}

type newPostPage struct {
	basePage
	Form       models.PostForm
	Categories []models.Category
	Error      string
	MaxImageMB int64
}

type reportPage struct {
	basePage
	Post      models.Post
	Form      models.ReportForm
	Types     []models.ReportType
	Error     string
	Done      bool
	BackURL   string
	ActionURL string
}

type commentsPage struct {
	basePage
	Post      models.Post
	Comments  []models.Comment
	Form      models.CommentForm
	Error     string
	BackURL   string
	ActionURL string
}

type auditPage struct {
	basePage
	Enabled bool
	Entries []models.AuditEntry
}

func postIDParam(r *http.Request) (int, AppError) {
	postID, err := strconv.Atoi(chi.URLParam(r, "postID"))
	if err != nil {
		return 0, &ErrBadRequest{Message: "Invalid post id", Cause: err}
	}
	return postID, nil
}
