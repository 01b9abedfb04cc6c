package service

import (
	"context"
	"errors"
	"log"

	"failboard.id/failboard/internal/entity"
	"failboard.id/failboard/internal/events"
	commentDto "failboard.id/failboard/internal/modules/comment/dto"
	commentRepo "failboard.id/failboard/internal/modules/comment/repository"
	leaderboard "failboard.id/failboard/internal/modules/leaderboard/service"
	notifService "failboard.id/failboard/internal/modules/notification/service"
	"failboard.id/failboard/pkg/apperror"
	commonDto "failboard.id/failboard/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentService interface {
	CreateComment(ctx context.Context, userID, failID uuid.UUID, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error)
	GetComments(ctx context.Context, failID uuid.UUID, limit, offset int) ([]commentDto.CommentResponse, int64, error)
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID, isAdmin bool) error
}

type commentService struct {
	repo                commentRepo.CommentRepository
	courageService      leaderboard.LeaderboardService
	notificationService notifService.NotificationService
	bus                 *events.Bus
}

func NewCommentService(
	repo commentRepo.CommentRepository,
	courageService leaderboard.LeaderboardService,
	notificationService notifService.NotificationService,
	bus *events.Bus,
) CommentService {
	return &commentService{
		repo:                repo,
		courageService:      courageService,
		notificationService: notificationService,
		bus:                 bus,
	}
}

func (s *commentService) CreateComment(ctx context.Context, userID, failID uuid.UUID, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error) {
	authorID, failSlug, err := s.repo.FindFailAuthor(ctx, failID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	comment := &entity.Comment{
		FailID:  failID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	// Side effects go to the fail's author, and never when commenting on
	// your own fail.
	if authorID != userID {
		s.courageService.AddCouragePointsAsync(authorID, leaderboard.ActionCommentReceived, comment.ID.String(), &userID)

		if s.notificationService != nil {
			go func() {
				notification := &entity.Notification{
					UserID:     authorID,
					ActorID:    userID,
					EntityID:   failID,
					EntitySlug: failSlug,
					EntityType: "fail",
					Type:       "comment",
					Message:    created.User.Username + " commented on your fail",
				}
				if err := s.notificationService.CreateNotification(context.Background(), notification); err != nil {
					log.Printf("Failed to send comment notification: %v", err)
				}
			}()
		}
	}

	recipient := authorID
	s.bus.Publish(events.Event{
		Type:        events.CommentCreated,
		ActorID:     userID,
		SubjectID:   failID,
		RecipientID: &recipient,
	})

	resp := toCommentResponse(created)
	return &resp, nil
}

func (s *commentService) GetComments(ctx context.Context, failID uuid.UUID, limit, offset int) ([]commentDto.CommentResponse, int64, error) {
	comments, total, err := s.repo.FindByFailID(ctx, failID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]commentDto.CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, toCommentResponse(&comments[i]))
	}
	return responses, total, nil
}

func (s *commentService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID, isAdmin bool) error {
	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if comment.UserID != userID && !isAdmin {
		return apperror.ErrForbidden
	}

	return s.repo.Delete(ctx, commentID)
}

func toCommentResponse(comment *entity.Comment) commentDto.CommentResponse {
	return commentDto.CommentResponse{
		ID:      comment.ID,
		FailID:  comment.FailID,
		Content: comment.Content,
		Author: commonDto.AuthorResponse{
			Username:  comment.User.Username,
			AvatarURL: comment.User.AvatarURL,
		},
		CreatedAt: comment.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
