package httpserver

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	apperrors "github.com/biscuits-internet-project/bip-engage/internal/errors"
)

// requireAuth resolves the caller from the shared session cookie and stores
// userID and role on the request context. Missing or malformed sessions are
// a 401, never a redirect: this is a JSON API.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("invalid session")
		}

		rawUserID, ok := session.Values[sessionKeyUser]
		if !ok {
			return apperrors.UnauthorizedError("authentication required")
		}

		userIDStr, ok := rawUserID.(string)
		if !ok {
			return apperrors.UnauthorizedError("invalid session")
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return apperrors.UnauthorizedError("invalid session")
		}

		role := domain.RoleMember
		if rawRole, ok := session.Values[sessionKeyRole].(string); ok {
			role = domain.Role(rawRole)
		}

		c.Set("userID", userID)
		c.Set("userRole", role)
		return next(c)
	}
}

// requireModerator gates the privileged moderation surface.
func (s *Server) requireModerator(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("userRole").(domain.Role)
		if !ok || !role.IsModerator() {
			return apperrors.ForbiddenError("moderator access required")
		}
		return next(c)
	}
}

// currentUser reads the authenticated user from the request context.
func currentUser(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid user ID in context", nil)
	}
	return userID, nil
}

// isModerator reports whether the authenticated caller has moderator access.
func isModerator(c echo.Context) bool {
	role, ok := c.Get("userRole").(domain.Role)
	return ok && role.IsModerator()
}

// toAPIError translates domain sentinel errors into structured API errors;
// anything unknown falls through to the error middleware as a 500.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NotFoundError("user not found")
	case errors.Is(err, domain.ErrPostNotFound), errors.Is(err, domain.ErrPostDeleted):
		return apperrors.NotFoundError("post not found")
	case errors.Is(err, domain.ErrFlagNotFound):
		return apperrors.NotFoundError("flag not found")
	case errors.Is(err, domain.ErrNotPostAuthor):
		return apperrors.ForbiddenError("not the post author")
	case errors.Is(err, domain.ErrFlagAlreadyReviewed):
		return apperrors.ConflictError("flag already reviewed")
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperrors.ConflictError("moderation transition not permitted")
	case errors.Is(err, domain.ErrInvalidEmoji):
		return apperrors.ValidationError("emoji code not recognized")
	case errors.Is(err, domain.ErrInvalidCursor):
		return apperrors.ValidationError("invalid cursor")
	default:
		return err
	}
}
