package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/ranfdev/blogmod/internal/domain"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

func (routes *Routes) PostsRouter(r chi.Router) {
	r.Get("/new", routes.AppHandler(routes.GetNewPost))
	r.Post("/", routes.AppHandler(routes.PostCreatePost))
	r.Route("/{postID}", func(r chi.Router) {
		r.Post("/delete", routes.AppHandler(routes.DeletePost))
		r.Post("/clear-reports", routes.AppHandler(routes.ClearReports))
		r.Get("/reports", routes.AppHandler(routes.GetReports))
		r.Get("/report", routes.AppHandler(routes.GetReportForm))
		r.Post("/report", routes.AppHandler(routes.PostReport))
		r.Get("/comments", routes.AppHandler(routes.GetComments))
		r.Post("/comments", routes.AppHandler(routes.PostComment))
	})
}

func (routes *Routes) panel(r *http.Request) *domain.Panel {
	return routes.panels.Get(GetSession(r).ID)
}

func (routes *Routes) GetPanel(w http.ResponseWriter, r *http.Request) AppError {
	panel := routes.panel(r)
	lp := readListParams(r, panel.Mode())
	if err := panel.EnsureMode(r.Context(), lp.Mode); err != nil {
		// The error phase is rendered below.
		hlog.FromRequest(r).Warn().Err(err).Msg("Panel refresh failed")
	}

	st := panel.State()
	base := newBasePage(r, "")
	// A newer refresh is still running; reload until it lands.
	base.AutoRefresh = st.Phase == domain.PhaseLoading
	routes.tmpls.RenderHTML(w, "panel", panelPage{
		basePage:   base,
		listParams: lp,
		Categories: models.AvailableCategories,
		Phase:      st.Phase.String(),
		Error:      st.Error,
		Flash:      panel.TakeMutationError(),
		Posts:      domain.FilterView(st.Posts, lp.Query, lp.Category),
	})
	return nil
}

func (routes *Routes) PostRefresh(w http.ResponseWriter, r *http.Request) AppError {
	panel := routes.panel(r)
	lp := readListParams(r, panel.Mode())
	if err := panel.Refresh(r.Context(), lp.Mode); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Panel refresh failed")
	}
	http.Redirect(w, r, lp.url("/"), http.StatusSeeOther)
	return nil
}

// moderate runs a moderation action and sends the operator back to the
// list. Failures are shown there.
func (routes *Routes) moderate(w http.ResponseWriter, r *http.Request, action func(*domain.Panel, int) error) AppError {
	postID, appErr := postIDParam(r)
	if appErr != nil {
		return appErr
	}
	panel := routes.panel(r)
	lp := readListParams(r, panel.Mode())
	if err := action(panel, postID); err != nil && !errors.Is(err, domain.ErrMutation) && !errors.Is(err, domain.ErrFetch) {
		return &ErrInternal{Cause: err}
	}
	http.Redirect(w, r, lp.url("/"), http.StatusSeeOther)
	return nil
}

func (routes *Routes) DeletePost(w http.ResponseWriter, r *http.Request) AppError {
	session := GetSession(r)
	return routes.moderate(w, r, func(p *domain.Panel, postID int) error {
		return p.DeletePost(r.Context(), session, postID)
	})
}

func (routes *Routes) ClearReports(w http.ResponseWriter, r *http.Request) AppError {
	session := GetSession(r)
	return routes.moderate(w, r, func(p *domain.Panel, postID int) error {
		return p.ClearReports(r.Context(), session, postID)
	})
}

// lookupPost finds a post in the panel, loading the panel first when the
// post isn't known yet.
func (routes *Routes) lookupPost(r *http.Request, panel *domain.Panel, postID int) (models.Post, AppError) {
	if post, ok := panel.Post(postID); ok {
		return post, nil
	}
	if err := panel.EnsureMode(r.Context(), panel.Mode()); err != nil {
		return models.Post{}, &ErrInternal{Message: domain.MsgLoadFailed, Cause: err}
	}
	post, ok := panel.Post(postID)
	if !ok {
		return models.Post{}, &ErrNotFound{Cause: fmt.Errorf("post %d not found", postID)}
	}
	return post, nil
}

func (routes *Routes) GetReports(w http.ResponseWriter, r *http.Request) AppError {
	postID, appErr := postIDParam(r)
	if appErr != nil {
		return appErr
	}
	panel := routes.panel(r)
	post, appErr := routes.lookupPost(r, panel, postID)
	if appErr != nil {
		return appErr
	}
	lp := readListParams(r, panel.Mode())
	routes.tmpls.RenderHTML(w, "reports", reportsPage{
		basePage: newBasePage(r, "Reports"),
		Post:     post,
		Reports:  panel.ReportsFor(postID),
		BackURL:  lp.url("/"),
		ClearURL: lp.url(fmt.Sprintf("/posts/%d/clear-reports", postID)),
	})
	return nil
}
