package httpserver

import (
	"time"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
)

type postResponse struct {
	ID                    string     `json:"id"`
	AuthorID              string     `json:"authorId"`
	ParentID              *string    `json:"parentId,omitempty"`
	QuotedPostID          *string    `json:"quotedPostId,omitempty"`
	QuotedContentSnapshot *string    `json:"quotedContentSnapshot,omitempty"`
	Content               string     `json:"content"`
	MediaRef              *string    `json:"mediaRef,omitempty"`
	EditedAt              *time.Time `json:"editedAt,omitempty"`
	ReplyCount            int        `json:"replyCount"`
	VoteScore             int        `json:"voteScore"`
	UpvoteCount           int        `json:"upvoteCount"`
	DownvoteCount         int        `json:"downvoteCount"`
	ReactionCount         int        `json:"reactionCount"`
	FlagCount             int        `json:"flagCount"`
	ModerationStatus      string     `json:"moderationStatus"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func toPostResponse(p *domain.Post) postResponse {
	resp := postResponse{
		ID:                    p.ID.String(),
		AuthorID:              p.AuthorID.String(),
		QuotedContentSnapshot: p.QuotedContentSnapshot,
		Content:               p.Content,
		MediaRef:              p.MediaRef,
		EditedAt:              p.EditedAt,
		ReplyCount:            p.ReplyCount,
		VoteScore:             p.VoteScore,
		UpvoteCount:           p.UpvoteCount,
		DownvoteCount:         p.DownvoteCount,
		ReactionCount:         p.ReactionCount,
		FlagCount:             p.FlagCount,
		ModerationStatus:      string(p.ModerationStatus),
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if p.ParentID != nil {
		id := p.ParentID.String()
		resp.ParentID = &id
	}
	if p.QuotedPostID != nil {
		id := p.QuotedPostID.String()
		resp.QuotedPostID = &id
	}
	return resp
}

func toPostResponses(posts []*domain.Post) []postResponse {
	responses := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, toPostResponse(p))
	}
	return responses
}

type flagResponse struct {
	ID          string     `json:"id"`
	PostID      string     `json:"postId"`
	ReporterID  string     `json:"reporterId"`
	Reason      string     `json:"reason"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	ReviewerID  *string    `json:"reviewerId,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toFlagResponse(f *domain.ModerationFlag) flagResponse {
	resp := flagResponse{
		ID:          f.ID.String(),
		PostID:      f.PostID.String(),
		ReporterID:  f.ReporterID.String(),
		Reason:      string(f.Reason),
		Description: f.Description,
		Status:      string(f.Status),
		ReviewedAt:  f.ReviewedAt,
		CreatedAt:   f.CreatedAt,
	}
	if f.ReviewerID != nil {
		id := f.ReviewerID.String()
		resp.ReviewerID = &id
	}
	return resp
}

type notificationResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actorId"`
	PostID    string    `json:"postId"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID.String(),
		ActorID:   n.ActorID.String(),
		PostID:    n.PostID.String(),
		Type:      string(n.Type),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
