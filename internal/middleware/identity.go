package middleware

// identity.go holds the context plumbing shared by the middleware: the
// authenticated principal is stored on the echo.Context under identityKey by
// Authenticate and read back by handlers and the other middleware.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/academy-access/internal/model"
)

const identityKey = "identity"

// SetIdentity stores id on the request context.
func SetIdentity(c echo.Context, id model.Identity) { c.Set(identityKey, id) }

// IdentityFrom returns the principal set by Authenticate.  ok is false on
// routes that do not require authentication.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
    id, ok := c.Get(identityKey).(model.Identity)
    if !ok || !id.Kind().Valid() {
        return model.Identity{}, false
    }
    return id, true
}

// principalKey identifies the caller for rate limiting and logging, e.g.
// "user:12" or "coach:3".  Anonymous requests give "anon".
func principalKey(c echo.Context) string {
    if id, ok := IdentityFrom(c); ok {
        return id.Ref().String()
    }
    return "anon"
}
