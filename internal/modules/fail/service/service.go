package service

import (
	"context"
	"errors"
	"log"
	"math"
	"regexp"
	"strings"

	"failboard.id/failboard/internal/entity"
	"failboard.id/failboard/internal/events"
	failDto "failboard.id/failboard/internal/modules/fail/dto"
	failRepo "failboard.id/failboard/internal/modules/fail/repository"
	leaderboard "failboard.id/failboard/internal/modules/leaderboard/service"
	reactionService "failboard.id/failboard/internal/modules/reaction/service"
	searchService "failboard.id/failboard/internal/modules/search/service"
	"failboard.id/failboard/pkg/apperror"
	commonDto "failboard.id/failboard/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FailService interface {
	CreateFail(ctx context.Context, userID uuid.UUID, req failDto.CreateFailRequest) (*commonDto.FailResponse, error)
	GetFailBySlug(ctx context.Context, slug string, viewerID *uuid.UUID) (*commonDto.FailResponse, error)
	ListFails(ctx context.Context, filter commonDto.FailFilter, viewerID *uuid.UUID) (*commonDto.PaginatedFailResponse, error)
	UpdateFail(ctx context.Context, userID uuid.UUID, failID uuid.UUID, req failDto.UpdateFailRequest, isAdmin bool) (*commonDto.FailResponse, error)
	DeleteFail(ctx context.Context, userID uuid.UUID, failID uuid.UUID, isAdmin bool) error
}

type failService struct {
	repo            failRepo.FailRepository
	reactionService reactionService.ReactionService
	courageService  leaderboard.LeaderboardService
	searchService   searchService.SearchService
	viewService     ViewService
	bus             *events.Bus
}

func NewFailService(
	repo failRepo.FailRepository,
	reactionSvc reactionService.ReactionService,
	courageService leaderboard.LeaderboardService,
	searchSvc searchService.SearchService,
	viewService ViewService,
	bus *events.Bus,
) FailService {
	return &failService{
		repo:            repo,
		reactionService: reactionSvc,
		courageService:  courageService,
		searchService:   searchSvc,
		viewService:     viewService,
		bus:             bus,
	}
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// makeSlug turns a title into a URL slug with a short random suffix so
// identical titles never collide.
func makeSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugStripRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = slug[:80]
		slug = strings.Trim(slug, "-")
	}
	suffix := uuid.NewString()[:8]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

func (s *failService) CreateFail(ctx context.Context, userID uuid.UUID, req failDto.CreateFailRequest) (*commonDto.FailResponse, error) {
	fail := &entity.Fail{
		UserID: userID,
		Title:  req.Title,
		Slug:   makeSlug(req.Title),
		Story:  req.Story,
		Lesson: req.Lesson,
	}

	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, apperror.ErrBadRequest
		}
		fail.CategoryID = &categoryID
	}

	if err := s.repo.Create(ctx, fail); err != nil {
		return nil, err
	}

	// Reload with associations for the response and the search index.
	created, err := s.repo.FindByID(ctx, fail.ID)
	if err != nil {
		return nil, err
	}

	s.courageService.AddCouragePointsAsync(userID, leaderboard.ActionShareFail, created.ID.String(), nil)

	if s.searchService != nil {
		go func(f entity.Fail) {
			if err := s.searchService.IndexFail(&f); err != nil {
				log.Printf("Failed to index fail %s: %v", f.ID, err)
			}
		}(*created)
	}

	s.bus.Publish(events.Event{
		Type:      events.FailCreated,
		ActorID:   userID,
		SubjectID: created.ID,
	})

	return s.toResponse(ctx, created, &userID)
}

func (s *failService) GetFailBySlug(ctx context.Context, slug string, viewerID *uuid.UUID) (*commonDto.FailResponse, error) {
	fail, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if s.viewService != nil {
		// Views are counted in redis and flushed to the DB by the sync
		// worker, so a hot fail doesn't hammer the fails table.
		pending := s.viewService.RecordView(ctx, fail.ID)
		fail.Views += pending
	}

	return s.toResponse(ctx, fail, viewerID)
}

func (s *failService) ListFails(ctx context.Context, filter commonDto.FailFilter, viewerID *uuid.UUID) (*commonDto.PaginatedFailResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 20 {
		filter.Limit = 10
	}

	fails, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	failIDs := make([]uuid.UUID, len(fails))
	for i, f := range fails {
		failIDs[i] = f.ID
	}

	commentCounts, err := s.repo.CountCommentsByFailIDs(ctx, failIDs)
	if err != nil {
		log.Printf("Failed to count comments: %v", err)
		commentCounts = map[uuid.UUID]int64{}
	}

	reactionMap := map[uuid.UUID]commonDto.ReactionsResponse{}
	if s.reactionService != nil {
		reactionMap, err = s.reactionService.GetReactionsForFails(ctx, failIDs, viewerID)
		if err != nil {
			log.Printf("Failed to load reactions for fail list: %v", err)
			reactionMap = map[uuid.UUID]commonDto.ReactionsResponse{}
		}
	}

	responses := make([]commonDto.FailResponse, 0, len(fails))
	for i := range fails {
		resp := buildFailResponse(&fails[i])
		resp.CommentCount = commentCounts[fails[i].ID]
		if reactions, ok := reactionMap[fails[i].ID]; ok {
			resp.Reactions = reactions
		} else {
			resp.Reactions = emptyReactions()
		}
		responses = append(responses, resp)
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))

	return &commonDto.PaginatedFailResponse{
		Data: responses,
		Meta: commonDto.PaginationMeta{
			CurrentPage: filter.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			Limit:       filter.Limit,
		},
	}, nil
}

func (s *failService) UpdateFail(ctx context.Context, userID uuid.UUID, failID uuid.UUID, req failDto.UpdateFailRequest, isAdmin bool) (*commonDto.FailResponse, error) {
	fail, err := s.repo.FindByID(ctx, failID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if fail.UserID != userID && !isAdmin {
		return nil, apperror.ErrForbidden
	}

	if req.Title != nil {
		fail.Title = *req.Title
	}
	if req.Story != nil {
		fail.Story = *req.Story
	}
	if req.Lesson != nil {
		fail.Lesson = *req.Lesson
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, apperror.ErrBadRequest
		}
		fail.CategoryID = &categoryID
	}

	if err := s.repo.Update(ctx, fail); err != nil {
		return nil, err
	}

	if s.searchService != nil {
		go func(f entity.Fail) {
			if err := s.searchService.IndexFail(&f); err != nil {
				log.Printf("Failed to reindex fail %s: %v", f.ID, err)
			}
		}(*fail)
	}

	return s.toResponse(ctx, fail, &userID)
}

func (s *failService) DeleteFail(ctx context.Context, userID uuid.UUID, failID uuid.UUID, isAdmin bool) error {
	fail, err := s.repo.FindByID(ctx, failID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if fail.UserID != userID && !isAdmin {
		return apperror.ErrForbidden
	}

	if err := s.repo.Delete(ctx, failID); err != nil {
		return err
	}

	if s.searchService != nil {
		go func(id string) {
			if err := s.searchService.DeleteFail(id); err != nil {
				log.Printf("Failed to remove fail %s from search index: %v", id, err)
			}
		}(failID.String())
	}

	return nil
}

func (s *failService) toResponse(ctx context.Context, fail *entity.Fail, viewerID *uuid.UUID) (*commonDto.FailResponse, error) {
	resp := buildFailResponse(fail)

	counts, err := s.repo.CountCommentsByFailIDs(ctx, []uuid.UUID{fail.ID})
	if err == nil {
		resp.CommentCount = counts[fail.ID]
	}

	resp.Reactions = emptyReactions()
	if s.reactionService != nil {
		reactions, err := s.reactionService.GetReactions(ctx, fail.ID, viewerID)
		if err != nil {
			log.Printf("Failed to load reactions for fail %s: %v", fail.ID, err)
		} else {
			resp.Reactions = reactions
		}
	}

	return &resp, nil
}

func buildFailResponse(fail *entity.Fail) commonDto.FailResponse {
	return commonDto.FailResponse{
		ID:           fail.ID,
		Title:        fail.Title,
		Slug:         fail.Slug,
		Story:        fail.Story,
		Lesson:       fail.Lesson,
		CategoryName: fail.Category.Name,
		Author: commonDto.AuthorResponse{
			Username:  fail.User.Username,
			AvatarURL: fail.User.AvatarURL,
		},
		CreatedAt: fail.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: fail.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Views:     fail.Views,
	}
}

func emptyReactions() commonDto.ReactionsResponse {
	counts := make(map[string]int64, len(entity.AllReactionTypes))
	for _, t := range entity.AllReactionTypes {
		counts[string(t)] = 0
	}
	return commonDto.ReactionsResponse{Counts: counts}
}
