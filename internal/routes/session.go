package routes

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

type ctxKey int

const (
	SessionCtxKey ctxKey = iota
	ThemeCtxKey
)

const (
	sessionCookie  = "session_id"
	nicknameCookie = "nickname"
	themeCookie    = "theme"
	themeMaxAge    = 365 * 24 * time.Hour
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// SessionCtx resolves the operator session once per request. A fresh
// session id is issued when the cookie is missing.
func (routes *Routes) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := models.Session{}
		if c, err := r.Cookie(sessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				session.ID = c.Value
			}
		}
		if session.ID == "" {
			session.ID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    session.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		if c, err := r.Cookie(nicknameCookie); err == nil {
			if nick, err := url.QueryUnescape(c.Value); err == nil {
				session.Nickname = strings.TrimSpace(nick)
			}
		}

		ctx := context.WithValue(r.Context(), SessionCtxKey, session)
		ctx = context.WithValue(ctx, ThemeCtxKey, themeFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetSession(r *http.Request) models.Session {
	session, _ := r.Context().Value(SessionCtxKey).(models.Session)
	return session
}

func GetTheme(r *http.Request) string {
	if theme, ok := r.Context().Value(ThemeCtxKey).(string); ok {
		return theme
	}
	return ThemeLight
}

func themeFromRequest(r *http.Request) string {
	if c, err := r.Cookie(themeCookie); err == nil {
		if c.Value == ThemeDark || c.Value == ThemeLight {
			return c.Value
		}
	}
	if strings.EqualFold(strings.TrimSpace(r.Header.Get("Sec-CH-Prefers-Color-Scheme")), ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

// rememberNickname stores the nickname for the rest of the browser session,
// unless one is already set.
func rememberNickname(w http.ResponseWriter, session models.Session, nickname string) {
	nickname = strings.TrimSpace(nickname)
	if session.HasNickname() || nickname == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     nicknameCookie,
		Value:    url.QueryEscape(nickname),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (routes *Routes) PostTheme(w http.ResponseWriter, r *http.Request) AppError {
	if err := r.ParseForm(); err != nil {
		return &ErrBadRequest{Cause: err}
	}
	theme := r.PostFormValue("theme")
	if theme != ThemeDark && theme != ThemeLight {
		// Plain toggle when no explicit value is sent.
		theme = ThemeDark
		if GetTheme(r) == ThemeDark {
			theme = ThemeLight
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    theme,
		Path:     "/",
		MaxAge:   int(themeMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, safeReturn(r.PostFormValue("return")), http.StatusSeeOther)
	return nil
}

// safeReturn only lets local paths through as redirect targets.
func safeReturn(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/"
	}
	return target
}
