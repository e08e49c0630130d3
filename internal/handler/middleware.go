package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/miskar/quizdeck/internal/domain"
	"github.com/miskar/quizdeck/internal/service"
	"github.com/miskar/quizdeck/internal/session"
)

const userContextKey = "user"

// RequireUser resolves the bearer token and puts the user on the context.
func RequireUser(users *service.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Missing bearer token"})
			}

			user, err := users.ResolveToken(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, session.ErrTokenNotFound) {
					return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
				}
				return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to resolve session"})
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireAdmin rejects non-admin users. Must run after RequireUser.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := currentUser(c)
			if user == nil || !user.IsAdmin {
				return c.JSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
			}
			return next(c)
		}
	}
}

func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get(userContextKey).(*domain.User)
	return user
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
