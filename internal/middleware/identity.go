package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's ID set by JWTAuth or OptionalJWT.
// ok is false for anonymous requests.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ContextUserID).(uint64)
    return id, ok && id > 0
}

// currentUserID renders the caller for log fields and rate-limit keys;
// "anon" when nobody is signed in.
func currentUserID(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
