package reviews

import (
	"errors"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"gorm.io/gorm"
)

// Service is the moderated review flow between businesses and creators.
type Service struct {
	repo Repository
}

// NewService creates a review service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a review service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// ReviewInput is the business-supplied part of a new review.
type ReviewInput struct {
	CreatorID uint   `json:"creator_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// Submit creates a pending review. One review per (business, creator) pair,
// first-write-wins: the unique index turns a second submission into a
// Conflict.
func (s *Service) Submit(p authz.Principal, in ReviewInput) (*models.Review, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if p.Role != authz.RoleBusiness {
		return nil, faults.Forbiddenf("only businesses can submit reviews")
	}

	rev := &models.Review{
		BusinessID: p.ID,
		CreatorID:  in.CreatorID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		Status:     models.ReviewStatusPending,
	}
	if err := rev.Validate(); err != nil {
		return nil, faults.Invalidf("invalid review: %v", err)
	}
	if err := s.repo.CreateReview(rev); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, faults.Conflictf("a review for this creator already exists")
		}
		return nil, err
	}
	return rev, nil
}

// Moderate approves or rejects a pending review. Admin only.
func (s *Service) Moderate(p authz.Principal, id uint, approve bool, rejectionReason string) (*models.Review, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}
	rev, err := s.repo.GetReview(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	if rev.Status != models.ReviewStatusPending {
		return nil, faults.Conflictf("review is already %s", rev.Status)
	}

	updates := map[string]interface{}{}
	if approve {
		updates["status"] = models.ReviewStatusApproved
	} else {
		updates["status"] = models.ReviewStatusRejected
		updates["rejection_reason"] = rejectionReason
	}
	if err := s.repo.UpdateReviewFields(id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetReview(id)
}

// Reply lets the reviewed creator answer an approved review, once.
func (s *Service) Reply(p authz.Principal, id uint, reply string) (*models.Review, error) {
	rev, err := s.repo.GetReview(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	if err := authz.RequireCreatorOwner(p, rev.CreatorID); err != nil {
		return nil, err
	}
	if rev.Status != models.ReviewStatusApproved {
		return nil, faults.Conflictf("only approved reviews can be replied to")
	}
	if rev.Reply != "" {
		return nil, faults.Conflictf("review already has a reply")
	}
	if reply == "" {
		return nil, faults.Invalidf("reply must not be empty")
	}

	now := time.Now()
	err = s.repo.UpdateReviewFields(id, map[string]interface{}{
		"reply":      reply,
		"reply_date": &now,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetReview(id)
}

// ListForCreator returns a creator's reviews: approved only for the public,
// everything for the creator themselves and admins.
func (s *Service) ListForCreator(p authz.Principal, creatorID uint) ([]models.Review, error) {
	seesAll := p.IsAdmin() || (p.Role == authz.RoleCreator && p.ID == creatorID)
	return s.repo.ListByCreator(creatorID, !seesAll)
}

// ListForBusiness returns the reviews a business submitted. Owner or admin.
func (s *Service) ListForBusiness(p authz.Principal, businessID uint) ([]models.Review, error) {
	if err := authz.RequireBusinessOwner(p, businessID); err != nil {
		return nil, err
	}
	return s.repo.ListByBusiness(businessID)
}

// ListPending returns the moderation queue. Admin only.
func (s *Service) ListPending(p authz.Principal) ([]models.Review, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.ListPending()
}
