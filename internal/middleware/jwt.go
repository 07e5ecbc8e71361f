package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject (the authenticated user's email) into
// the request context under the key "email".  The provided secret must
// match the one used when issuing tokens.  This middleware wraps all
// protected routes; RequirePermission consumes the stored identity.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return errJSON(c, http.StatusUnauthorized, "missing bearer token")
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 only; any other signing method is rejected.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return errJSON(c, http.StatusUnauthorized, "invalid token")
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return errJSON(c, http.StatusUnauthorized, "invalid claims")
            }
            sub, _ := claims["sub"].(string)
            if sub == "" {
                return errJSON(c, http.StatusUnauthorized, "invalid claims")
            }

            c.Set("email", sub)
            return next(c)
        }
    }
}
