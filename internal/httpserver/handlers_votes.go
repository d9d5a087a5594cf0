package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	apperrors "github.com/biscuits-internet-project/bip-engage/internal/errors"
)

type toggleVoteRequest struct {
	PostID   string `json:"postId"`
	VoteType string `json:"voteType"`
}

type voteStateResponse struct {
	VoteType string `json:"voteType"`
}

func (s *Server) handleToggleVote(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req toggleVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		return apperrors.ValidationError("invalid post ID").WithField("postId", req.PostID)
	}

	voteType := domain.VoteType(req.VoteType)
	if !voteType.Valid() {
		return apperrors.ValidationError("voteType must be \"upvote\" or \"downvote\"").WithField("voteType", req.VoteType)
	}

	result, err := s.app.ToggleVote(ctx, postID, userID, voteType)
	if err != nil {
		return toAPIError(err)
	}

	response := map[string]any{"success": true, "vote": nil}
	if result.Vote != nil {
		response["vote"] = voteStateResponse{VoteType: string(result.Vote.VoteType)}
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
