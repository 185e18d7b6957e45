package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
)

type AppError interface {
	Error() string
	Status() int
	Unwrap() error
}

type ErrInternal struct {
	Message string
	Cause   error
}

func (err *ErrInternal) Error() string {
	if err.Message == "" {
		return "Internal server error"
	}
	return err.Message
}
func (err *ErrInternal) Status() int   { return http.StatusInternalServerError }
func (err *ErrInternal) Unwrap() error { return err.Cause }

type ErrBadRequest struct {
	Message string
	Cause   error
}

func (err *ErrBadRequest) Error() string {
	if err.Message == "" {
		return "Bad request"
	}
	return err.Message
}
func (err *ErrBadRequest) Status() int   { return http.StatusBadRequest }
func (err *ErrBadRequest) Unwrap() error { return err.Cause }

type ErrNotFound struct {
	Cause error
}

func (err *ErrNotFound) Error() string { return "Not found" }
func (err *ErrNotFound) Status() int   { return http.StatusNotFound }
func (err *ErrNotFound) Unwrap() error { return err.Cause }

func (routes *Routes) AppHandler(handler func(w http.ResponseWriter, r *http.Request) AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}
		status := err.Status()
		ev := hlog.FromRequest(r).Error()
		if status < http.StatusInternalServerError {
			ev = hlog.FromRequest(r).Info()
		}
		ev.
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			AnErr("cause", err.Unwrap()).
			Msg(err.Error())

		if status == http.StatusNotFound {
			routes.tmpls.RenderHTMLStatus(w, status, "404", nil)
			return
		}
		http.Error(w, err.Error(), status)
	}
}
