package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"failboard.id/failboard/internal/entity"
	"failboard.id/failboard/internal/events"
	badgeDto "failboard.id/failboard/internal/modules/badge/dto"
	badgeRepo "failboard.id/failboard/internal/modules/badge/repository"
	notifService "failboard.id/failboard/internal/modules/notification/service"
	"failboard.id/failboard/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeService interface {
	// EvaluateAndGrant runs one full evaluation pass and returns the badges
	// newly unlocked by this call. It never fails the caller: any internal
	// error is logged and yields an empty list.
	EvaluateAndGrant(ctx context.Context, userID uuid.UUID) []entity.BadgeDefinition

	// HandleActivity is the event bus entry point. The cooldown gates it;
	// events inside the window are dropped.
	HandleActivity(e events.Event)

	GetBadgesWithStatus(ctx context.Context, userID *uuid.UUID) ([]badgeDto.BadgeStatusResponse, error)
	GetUserBadges(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error)
	NextChallenges(ctx context.Context, userID uuid.UUID) ([]Challenge, error)

	CreateDefinition(ctx context.Context, req badgeDto.BadgeDefinitionRequest) (*entity.BadgeDefinition, error)
	UpdateDefinition(ctx context.Context, id string, req badgeDto.BadgeDefinitionRequest) (*entity.BadgeDefinition, error)
	DeleteDefinition(ctx context.Context, id string) error
}

type badgeService struct {
	repo                badgeRepo.BadgeRepository
	catalog             Catalog
	aggregator          StatsAggregator
	cooldown            *Cooldown
	notificationService notifService.NotificationService
	bus                 *events.Bus
}

func NewBadgeService(
	repo badgeRepo.BadgeRepository,
	catalog Catalog,
	aggregator StatsAggregator,
	cooldown *Cooldown,
	notificationService notifService.NotificationService,
	bus *events.Bus,
) BadgeService {
	return &badgeService{
		repo:                repo,
		catalog:             catalog,
		aggregator:          aggregator,
		cooldown:            cooldown,
		notificationService: notificationService,
		bus:                 bus,
	}
}

func (s *badgeService) HandleActivity(e events.Event) {
	if !s.cooldown.ShouldEvaluate(time.Now()) {
		return
	}

	ctx := context.Background()
	s.EvaluateAndGrant(ctx, e.ActorID)

	// Received-side requirements (reactions_received, comments_received)
	// move for the recipient, so one gate pass covers both users.
	if e.RecipientID != nil && *e.RecipientID != e.ActorID {
		s.EvaluateAndGrant(ctx, *e.RecipientID)
	}
}

func (s *badgeService) EvaluateAndGrant(ctx context.Context, userID uuid.UUID) []entity.BadgeDefinition {
	defs, err := s.catalog.ListDefinitions(ctx)
	if err != nil {
		log.Printf("Badge evaluation skipped for user %s: catalog read failed: %v", userID, err)
		return nil
	}
	if len(defs) == 0 {
		return nil
	}

	owned, err := s.ownedSet(ctx, userID)
	if err != nil {
		log.Printf("Badge evaluation skipped for user %s: grants read failed: %v", userID, err)
		return nil
	}

	stats, err := s.aggregator.ComputeStats(ctx, userID)
	if err != nil {
		log.Printf("Badge evaluation skipped for user %s: stats failed: %v", userID, err)
		return nil
	}

	var unlocked []entity.BadgeDefinition
	totalBadges := int64(len(defs))

	for i := range defs {
		def := &defs[i]
		if owned[def.ID] {
			continue
		}
		if !IsSatisfied(def, stats, totalBadges) {
			continue
		}

		created, err := s.repo.InsertGrant(ctx, userID, def.ID)
		if err != nil {
			log.Printf("Failed to grant badge %s to user %s: %v", def.ID, userID, err)
			continue
		}
		if !created {
			// A concurrent pass got there first. Already unlocked is
			// success, not an error, and not "newly unlocked" here.
			continue
		}

		unlocked = append(unlocked, *def)
		s.announceUnlock(userID, *def)
	}

	return unlocked
}

// announceUnlock emits the unlock event and a best-effort notification.
// Neither may fail the grant.
func (s *badgeService) announceUnlock(userID uuid.UUID, def entity.BadgeDefinition) {
	s.bus.Publish(events.Event{
		Type:      events.BadgeUnlocked,
		ActorID:   userID,
		SubjectID: userID,
		Payload:   def,
	})

	if s.notificationService == nil {
		return
	}

	go func() {
		notification := &entity.Notification{
			UserID:     userID,
			ActorID:    userID,
			EntityID:   userID,
			EntitySlug: def.ID,
			EntityType: "badge",
			Type:       "badge_unlocked",
			Message:    fmt.Sprintf("You unlocked the %q badge!", def.Name),
		}
		if err := s.notificationService.CreateNotification(context.Background(), notification); err != nil {
			log.Printf("Failed to send badge unlock notification for %s: %v", def.ID, err)
		}
	}()
}

func (s *badgeService) ownedSet(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	grants, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(grants))
	for _, grant := range grants {
		owned[grant.BadgeID] = true
	}
	return owned, nil
}

func (s *badgeService) GetBadgesWithStatus(ctx context.Context, userID *uuid.UUID) ([]badgeDto.BadgeStatusResponse, error) {
	defs, err := s.catalog.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	unlockedAt := map[string]time.Time{}
	if userID != nil {
		grants, err := s.repo.GetUserBadges(ctx, *userID)
		if err != nil {
			return nil, err
		}
		for _, grant := range grants {
			unlockedAt[grant.BadgeID] = grant.UnlockedAt
		}
	}

	responses := make([]badgeDto.BadgeStatusResponse, 0, len(defs))
	for _, def := range defs {
		resp := badgeDto.BadgeStatusResponse{
			ID:               def.ID,
			Name:             def.Name,
			Description:      def.Description,
			Icon:             def.Icon,
			Category:         def.Category,
			Rarity:           def.Rarity,
			RequirementType:  def.RequirementType,
			RequirementValue: def.RequirementValue,
		}
		if at, ok := unlockedAt[def.ID]; ok {
			resp.IsUnlocked = true
			formatted := at.Format("2006-01-02T15:04:05Z07:00")
			resp.UnlockedAt = &formatted
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *badgeService) GetUserBadges(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error) {
	return s.repo.GetUserBadges(ctx, userID)
}

func (s *badgeService) NextChallenges(ctx context.Context, userID uuid.UUID) ([]Challenge, error) {
	defs, err := s.catalog.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	owned, err := s.ownedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.aggregator.ComputeStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return nextChallenges(defs, owned, stats), nil
}

func (s *badgeService) CreateDefinition(ctx context.Context, req badgeDto.BadgeDefinitionRequest) (*entity.BadgeDefinition, error) {
	def, err := definitionFromRequest(req)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetDefinition(ctx, def.ID); err == nil && existing != nil {
		return nil, apperror.ErrConflict
	}

	if err := s.repo.CreateDefinition(ctx, def); err != nil {
		return nil, err
	}
	s.catalog.Invalidate(ctx)
	return def, nil
}

func (s *badgeService) UpdateDefinition(ctx context.Context, id string, req badgeDto.BadgeDefinitionRequest) (*entity.BadgeDefinition, error) {
	existing, err := s.repo.GetDefinition(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	updated, err := definitionFromRequest(req)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := s.repo.UpdateDefinition(ctx, updated); err != nil {
		return nil, err
	}
	s.catalog.Invalidate(ctx)
	return updated, nil
}

func (s *badgeService) DeleteDefinition(ctx context.Context, id string) error {
	if _, err := s.repo.GetDefinition(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.repo.DeleteDefinition(ctx, id); err != nil {
		return err
	}
	s.catalog.Invalidate(ctx)
	return nil
}

func definitionFromRequest(req badgeDto.BadgeDefinitionRequest) (*entity.BadgeDefinition, error) {
	reqType := entity.RequirementType(req.RequirementType)
	if !reqType.Valid() {
		return nil, apperror.ErrInvalidInput
	}

	rarity := entity.BadgeRarity(req.Rarity)
	if !rarity.Valid() {
		return nil, apperror.ErrInvalidInput
	}

	return &entity.BadgeDefinition{
		ID:               req.ID,
		Name:             req.Name,
		Description:      req.Description,
		Icon:             req.Icon,
		Category:         req.Category,
		Rarity:           rarity,
		RequirementType:  reqType,
		RequirementValue: req.RequirementValue,
	}, nil
}
