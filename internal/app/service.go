package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	"github.com/biscuits-internet-project/bip-engage/internal/engage"
	"github.com/biscuits-internet-project/bip-engage/internal/metrics"
)

const defaultFeedLimit = 25

// notifier is the dispatcher surface the service needs; fanout happens
// after the triggering write commits and never fails it.
type notifier interface {
	Dispatch(ev engage.Event)
}

// unreadCounter serves cached unread counts and invalidates them after
// read-state changes.
type unreadCounter interface {
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	InvalidateUnread(ctx context.Context, userID uuid.UUID)
}

// Service is the application layer — the only component that references
// multiple engagement components. It orchestrates all use cases.
type Service struct {
	users         domain.UserRepository
	posts         domain.PostRepository
	votes         domain.VoteRepository
	reactions     domain.ReactionRepository
	moderation    domain.ModerationRepository
	notifications domain.NotificationRepository
	feed          domain.FeedRepository

	dispatcher notifier
	unread     unreadCounter
	ranker     *engage.Ranker
	clock      clockwork.Clock
	metrics    *metrics.EngagementMetrics

	feedMaxLimit int
}

// NewService creates the application layer service.
func NewService(
	users domain.UserRepository,
	posts domain.PostRepository,
	votes domain.VoteRepository,
	reactions domain.ReactionRepository,
	moderation domain.ModerationRepository,
	notifications domain.NotificationRepository,
	feed domain.FeedRepository,
	dispatcher notifier,
	unread unreadCounter,
	ranker *engage.Ranker,
	clock clockwork.Clock,
	m *metrics.EngagementMetrics,
	feedMaxLimit int,
) *Service {
	return &Service{
		users:         users,
		posts:         posts,
		votes:         votes,
		reactions:     reactions,
		moderation:    moderation,
		notifications: notifications,
		feed:          feed,
		dispatcher:    dispatcher,
		unread:        unread,
		ranker:        ranker,
		clock:         clock,
		metrics:       m,
		feedMaxLimit:  feedMaxLimit,
	}
}

func (s *Service) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return nil
}

// ToggleVote runs the three-state vote machine for one user on one post.
// Voting never creates notifications.
func (s *Service) ToggleVote(ctx context.Context, postID, userID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.VoteDuration.Observe(s.clock.Since(start).Seconds())
	}()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.votes.Toggle(ctx, postID, userID, voteType)
	if err != nil {
		return nil, err
	}

	action := engage.VoteCancelled
	if result.Vote != nil {
		action = engage.VoteCreated
		// A switch and a create both leave a row; the distinction only
		// matters for metrics, so recover it from the timestamps.
		if !result.Vote.UpdatedAt.Equal(result.Vote.CreatedAt) {
			action = engage.VoteSwitched
		}
	}
	s.metrics.VotesProcessed.WithLabelValues(string(action)).Inc()

	return result, nil
}

// ToggleReaction toggles one emoji for one user on one post. Toggle-on
// notifies the post author; self-reactions are suppressed downstream.
func (s *Service) ToggleReaction(ctx context.Context, postID, userID uuid.UUID, emojiCode string) (*domain.ReactionResult, error) {
	if err := engage.ValidateEmoji(emojiCode); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Deleted {
		return nil, domain.ErrPostNotFound
	}

	result, err := s.reactions.Toggle(ctx, postID, userID, emojiCode)
	if err != nil {
		return nil, err
	}

	if result.Added {
		s.metrics.ReactionsToggled.WithLabelValues("on").Inc()
		s.dispatcher.Dispatch(engage.Event{
			RecipientID: post.AuthorID,
			ActorID:     userID,
			PostID:      postID,
			Type:        domain.NotificationReaction,
		})
	} else {
		s.metrics.ReactionsToggled.WithLabelValues("off").Inc()
	}

	return result, nil
}

// ReactionCounts returns the per-emoji aggregate for one post.
func (s *Service) ReactionCounts(ctx context.Context, postID uuid.UUID) ([]domain.ReactionCount, error) {
	return s.reactions.CountsForPost(ctx, postID)
}

// CreatePost creates a top-level post, a reply, or a quote. Replies notify
// the parent author, quotes the quoted author; both are suppressed for
// self-actions by the dispatcher.
func (s *Service) CreatePost(ctx context.Context, params domain.CreatePostParams) (*domain.Post, error) {
	if err := s.requireUser(ctx, params.AuthorID); err != nil {
		return nil, err
	}

	// Resolve notification recipients up front; the repository re-checks
	// existence inside its transaction.
	var parentAuthor, quotedAuthor *uuid.UUID
	if params.ParentID != nil {
		parent, err := s.posts.GetByID(ctx, *params.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Deleted {
			return nil, domain.ErrPostDeleted
		}
		parentAuthor = &parent.AuthorID
	}
	if params.QuotedPostID != nil {
		quoted, err := s.posts.GetByID(ctx, *params.QuotedPostID)
		if err != nil {
			return nil, err
		}
		quotedAuthor = &quoted.AuthorID
	}

	post, err := s.posts.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	if parentAuthor != nil {
		s.dispatcher.Dispatch(engage.Event{
			RecipientID: *parentAuthor,
			ActorID:     params.AuthorID,
			PostID:      post.ID,
			Type:        domain.NotificationReply,
		})
	}
	if quotedAuthor != nil {
		s.dispatcher.Dispatch(engage.Event{
			RecipientID: *quotedAuthor,
			ActorID:     params.AuthorID,
			PostID:      post.ID,
			Type:        domain.NotificationQuote,
		})
	}

	return post, nil
}

// EditPost replaces a post's content. Author-only.
func (s *Service) EditPost(ctx context.Context, postID, authorID uuid.UUID, content string) (*domain.Post, error) {
	return s.posts.Edit(ctx, postID, authorID, content)
}

// DeletePost soft-deletes a post. Authors delete their own; moderators any.
func (s *Service) DeletePost(ctx context.Context, postID, callerID uuid.UUID, asModerator bool) error {
	return s.posts.SoftDelete(ctx, postID, callerID, asModerator)
}

// GetThread returns a post and its direct and transitive replies. Hidden,
// removed and deleted posts are not found for regular users; moderators can
// fetch hidden/removed posts by id for review. The same gate applies inside
// the thread: non-moderators never see hidden or removed replies.
func (s *Service) GetThread(ctx context.Context, postID uuid.UUID, asModerator bool) (*domain.Post, []*domain.Post, error) {
	post, replies, err := s.posts.GetThread(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if post.Deleted {
		return nil, nil, domain.ErrPostNotFound
	}
	if asModerator {
		return post, replies, nil
	}
	if !post.ModerationStatus.Visible() {
		return nil, nil, domain.ErrPostNotFound
	}

	visible := make([]*domain.Post, 0, len(replies))
	for _, reply := range replies {
		if reply.ModerationStatus.Visible() {
			visible = append(visible, reply)
		}
	}
	return post, visible, nil
}

// FlagPost records a report against a post. Repeat reports by the same user
// update their existing flag.
func (s *Service) FlagPost(ctx context.Context, postID, reporterID uuid.UUID, reason domain.FlagReason, description *string) (*domain.ModerationFlag, error) {
	if !reason.Valid() {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.requireUser(ctx, reporterID); err != nil {
		return nil, err
	}

	flag, err := s.moderation.UpsertFlag(ctx, postID, reporterID, reason, description)
	if err != nil {
		return nil, err
	}
	s.metrics.FlagsCreated.Inc()
	return flag, nil
}

// ListFlags lists moderation flags for the privileged review queue.
func (s *Service) ListFlags(ctx context.Context, filter domain.FlagFilter) ([]*domain.ModerationFlag, error) {
	if filter.Limit <= 0 || filter.Limit > s.feedMaxLimit {
		filter.Limit = defaultFeedLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.moderation.ListFlags(ctx, filter)
}

// ReviewFlag applies a dismiss/hide/remove decision to a pending flag.
func (s *Service) ReviewFlag(ctx context.Context, flagID uuid.UUID, action domain.ModerationAction, reviewerID uuid.UUID) (*domain.ModerationFlag, error) {
	flag, err := s.moderation.ReviewFlag(ctx, flagID, action, reviewerID)
	if err != nil {
		return nil, err
	}
	s.metrics.FlagsReviewed.WithLabelValues(string(action)).Inc()
	return flag, nil
}

// RestorePost returns a hidden or removed post to the visible set.
func (s *Service) RestorePost(ctx context.Context, postID, reviewerID uuid.UUID) error {
	return s.moderation.RestorePost(ctx, postID, reviewerID)
}

// ListNotifications returns the user's notifications, most recent first.
func (s *Service) ListNotifications(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	if filter.Limit <= 0 || filter.Limit > s.feedMaxLimit {
		filter.Limit = defaultFeedLimit
	}
	return s.notifications.List(ctx, userID, filter)
}

// UnreadCount returns the user's unread notification count from the cache.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.unread.Count(ctx, userID)
}

// MarkNotificationsRead marks the given notifications read. Idempotent:
// already-read IDs do not error and do not count.
func (s *Service) MarkNotificationsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	count, err := s.notifications.MarkRead(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.unread.InvalidateUnread(ctx, userID)
	}
	return count, nil
}

// MarkAllNotificationsRead marks every unread notification read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.unread.InvalidateUnread(ctx, userID)
	}
	return count, nil
}

// FeedResult is one page of the root feed plus the opaque cursor for the
// next page, empty when the traversal is done.
type FeedResult struct {
	Items      []domain.FeedItem
	NextCursor string
}

// GetFeed serves the ranked, cursor-paginated root feed. The hot sort pins
// its ranking instant in the cursor so page boundaries stay stable while
// counters change mid-traversal.
func (s *Service) GetFeed(ctx context.Context, sort domain.FeedSort, limit int, cursorRaw string) (*FeedResult, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > s.feedMaxLimit {
		limit = s.feedMaxLimit
	}

	query := domain.FeedQuery{
		Sort:     sort,
		Limit:    limit,
		RankedAt: s.clock.Now().UTC(),
	}

	if cursorRaw != "" {
		cursor, err := engage.DecodeCursor(cursorRaw, sort)
		if err != nil {
			return nil, err
		}
		query.HasCursor = true
		query.AfterHotScore = cursor.HotScore
		query.AfterCreatedAt = cursor.CreatedAt
		query.AfterID = cursor.ID
		if sort == domain.SortHot {
			query.RankedAt = cursor.RankedAt
		}
	}

	page, err := s.feed.ListPage(ctx, query)
	if err != nil {
		return nil, err
	}
	s.metrics.FeedRequests.WithLabelValues(string(sort)).Inc()

	result := &FeedResult{Items: page.Items}
	if page.HasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		result.NextCursor = engage.EncodeCursor(engage.Cursor{
			Sort:      sort,
			RankedAt:  query.RankedAt,
			HotScore:  last.HotScore,
			CreatedAt: last.Post.CreatedAt,
			ID:        last.Post.ID,
		})
	}

	return result, nil
}
