package routes

import (
	"fmt"
	"net/http"

	"gitlab.com/ranfdev/blogmod/internal/adapters"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

const msgCommentFailed = "Failed to post comment. Please try again later."

func (routes *Routes) renderComments(w http.ResponseWriter, r *http.Request, status int, post models.Post, form models.CommentForm, msg string) {
	panel := routes.panel(r)
	lp := readListParams(r, panel.Mode())
	routes.tmpls.RenderHTMLStatus(w, status, "comments", commentsPage{
		basePage:  newBasePage(r, post.Title),
		Post:      post,
		Comments:  panel.Thread(post.ID).Comments(),
		Form:      form,
		Error:     msg,
		BackURL:   lp.url("/"),
		ActionURL: lp.url(fmt.Sprintf("/posts/%d/comments", post.ID)),
	})
}

func (routes *Routes) GetComments(w http.ResponseWriter, r *http.Request) AppError {
	postID, appErr := postIDParam(r)
	if appErr != nil {
		return appErr
	}
	post, appErr := routes.lookupPost(r, routes.panel(r), postID)
	if appErr != nil {
		return appErr
	}
	routes.renderComments(w, r, http.StatusOK, post, models.CommentForm{}, "")
	return nil
}

func (routes *Routes) PostComment(w http.ResponseWriter, r *http.Request) AppError {
	postID, appErr := postIDParam(r)
	if appErr != nil {
		return appErr
	}
	panel := routes.panel(r)
	post, appErr := routes.lookupPost(r, panel, postID)
	if appErr != nil {
		return appErr
	}
	if err := r.ParseForm(); err != nil {
		return &ErrBadRequest{Cause: err}
	}
	var form models.CommentForm
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		return &ErrBadRequest{Cause: err}
	}
	session := GetSession(r)
	if err := form.Validate(session); err != nil {
		routes.renderComments(w, r, http.StatusUnprocessableEntity, post, form, err.Error())
		return nil
	}
	if err := panel.SubmitComment(r.Context(), session, postID, form); err != nil {
		routes.renderComments(w, r, http.StatusBadGateway, post, form, adapters.UserMessage(err, msgCommentFailed))
		return nil
	}
	rememberNickname(w, session, form.Author)
	http.Redirect(w, r, readListParams(r, panel.Mode()).url(fmt.Sprintf("/posts/%d/comments", postID)), http.StatusSeeOther)
	return nil
}
