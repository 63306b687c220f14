package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the cookie carrying the session token.
const CookieName = "jwt"

// SetCookie attaches the session token to the response as an HTTP-only,
// same-site-restricted cookie. An empty token clears the cookie, which is
// how logout invalidates the session on the client.
func SetCookie(c echo.Context, token string, ttl time.Duration) {
	cookie := new(http.Cookie)
	cookie.Name = CookieName
	cookie.Value = token
	cookie.Path = "/"
	if token == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = time.Now().UTC().Add(ttl)
	}
	// HttpOnly keeps the token out of reach of client-side scripts.
	cookie.HttpOnly = true
	cookie.Secure = c.Request().TLS != nil
	cookie.SameSite = http.SameSiteStrictMode
	c.SetCookie(cookie)
}

// ClearCookie expires the session cookie immediately.
func ClearCookie(c echo.Context) {
	SetCookie(c, "", 0)
}
