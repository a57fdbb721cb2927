package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieConfig describes the HttpOnly cookie carrying the auth token.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func (cc CookieConfig) set(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cc.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
