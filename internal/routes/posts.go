package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/schema"
	"gitlab.com/ranfdev/blogmod/internal/adapters"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

const (
	msgCreatePostFailed = "Failed to create post. Please try again later."
	msgReportFailed     = "Failed to submit report. Please try again later."
	multipartOverhead   = 1 << 20
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func (routes *Routes) renderNewPost(w http.ResponseWriter, r *http.Request, status int, form models.PostForm, msg string) {
	routes.tmpls.RenderHTMLStatus(w, status, "newPost", newPostPage{
		basePage:   newBasePage(r, "New Post"),
		Form:       form,
		Categories: models.AvailableCategories,
		Error:      msg,
		MaxImageMB: routes.config.MaxImageBytes / (1024 * 1024),
	})
}

func (routes *Routes) GetNewPost(w http.ResponseWriter, r *http.Request) AppError {
	routes.renderNewPost(w, r, http.StatusOK, models.PostForm{}, "")
	return nil
}

// readImage returns the uploaded image, or nil when none was sent.
func (routes *Routes) readImage(r *http.Request) (*models.ImageUpload, error) {
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, routes.config.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return models.ValidateImage(data, routes.config.MaxImageBytes)
}

func (routes *Routes) PostCreatePost(w http.ResponseWriter, r *http.Request) AppError {
	session := GetSession(r)
	r.Body = http.MaxBytesReader(w, r.Body, routes.config.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(routes.config.MaxImageBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			routes.renderNewPost(w, r, http.StatusRequestEntityTooLarge, models.PostForm{},
				fmt.Sprintf("Image size must be less than %dMB", routes.config.MaxImageBytes/(1024*1024)))
			return nil
		}
		return &ErrBadRequest{Cause: err}
	}

	var form models.PostForm
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		return &ErrBadRequest{Cause: err}
	}
	if err := form.Validate(); err != nil {
		routes.renderNewPost(w, r, http.StatusUnprocessableEntity, form, err.Error())
		return nil
	}
	image, err := routes.readImage(r)
	if err != nil {
		if models.IsValidationError(err) {
			routes.renderNewPost(w, r, http.StatusUnprocessableEntity, form, err.Error())
			return nil
		}
		return &ErrBadRequest{Cause: err}
	}

	nickname := form.Nickname
	if session.HasNickname() {
		nickname = session.Nickname
	}
	_, err = routes.panel(r).CreatePost(r.Context(), session, models.NewPost{
		Title:    form.Title,
		Body:     form.Content,
		Category: models.Category(form.Category),
		Nickname: nickname,
		Image:    image,
	})
	if err != nil {
		routes.renderNewPost(w, r, http.StatusBadGateway, form, adapters.UserMessage(err, msgCreatePostFailed))
		return nil
	}
	rememberNickname(w, session, nickname)
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

func (routes *Routes) renderReportForm(w http.ResponseWriter, r *http.Request, status int, post models.Post, form models.ReportForm, msg string, done bool) {
	lp := readListParams(r, routes.panel(r).Mode())
	routes.tmpls.RenderHTMLStatus(w, status, "report", reportPage{
		basePage:  newBasePage(r, "Report"),
		Post:      post,
		Form:      form,
		Types:     models.AvailableReportTypes,
		Error:     msg,
		Done:      done,
		BackURL:   lp.url("/"),
		ActionURL: lp.url(fmt.Sprintf("/posts/%d/report", post.ID)),
	})
}

func (routes *Routes) GetReportForm(w http.ResponseWriter, r *http.Request) AppError {
	postID, appErr := postIDParam(r)
	if appErr != nil {
		return appErr
	}
	post, appErr := routes.lookupPost(r, routes.panel(r), postID)
	if appErr != nil {
		return appErr
	}
	// The session nickname pre-fills the reporter.
	form := models.ReportForm{Reporter: GetSession(r).Nickname}
	routes.renderReportForm(w, r, http.StatusOK, post, form, "", false)
	return nil
}

func (routes *Routes) PostReport(w http.ResponseWriter, r *http.Request) AppError {
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
	var form models.ReportForm
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		return &ErrBadRequest{Cause: err}
	}
	if err := form.Validate(); err != nil {
		routes.renderReportForm(w, r, http.StatusUnprocessableEntity, post, form, err.Error(), false)
		return nil
	}
	if err := panel.SubmitReport(r.Context(), form.Report(postID)); err != nil {
		routes.renderReportForm(w, r, http.StatusBadGateway, post, form, adapters.UserMessage(err, msgReportFailed), false)
		return nil
	}
	routes.renderReportForm(w, r, http.StatusOK, post, models.ReportForm{}, "", true)
	return nil
}
