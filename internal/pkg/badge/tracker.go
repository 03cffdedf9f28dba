package badge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/cache"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/messaging"
	"gorm.io/gorm"
)

const countsCacheTTL = 30 * time.Second

// Counts is the badge projection: "new since last viewed" per scope plus
// the unread message total. Pure read-side; the per-user markers are the
// only state the tracker owns.
type Counts struct {
	NewApplications int64 `json:"new_applications"`
	NewInvitations  int64 `json:"new_invitations"`
	UnreadMessages  int64 `json:"unread_messages"`
}

// Tracker derives badge counts from timestamps and view markers.
type Tracker struct {
	repo Repository
	gate *messaging.Gate
}

// NewTracker creates a tracker from an injected repository and message gate.
func NewTracker(repo Repository, gate *messaging.Gate) *Tracker {
	return &Tracker{repo: repo, gate: gate}
}

// NewTrackerFromDB creates a tracker from a GORM DB handle.
func NewTrackerFromDB(db *gorm.DB) *Tracker {
	return NewTracker(NewRepository(db), messaging.NewGateFromDB(db))
}

// GetCounts computes the caller's badge counts. Results are cached briefly;
// the cache is bypassed transparently when redis is unavailable.
func (t *Tracker) GetCounts(p authz.Principal) (*Counts, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	var userType string
	switch p.Role {
	case authz.RoleCreator:
		userType = models.SenderTypeCreator
	case authz.RoleBusiness:
		userType = models.SenderTypeBusiness
	default:
		return nil, faults.Forbiddenf("no badges for role %s", p.Role)
	}

	cacheKey := countsCacheKey(userType, p.ID)
	if cached := cache.Get(cacheKey); cached != "" {
		var counts Counts
		if err := json.Unmarshal([]byte(cached), &counts); err == nil {
			return &counts, nil
		}
	}

	counts := &Counts{}
	switch userType {
	case models.SenderTypeBusiness:
		since, err := t.markerTime(userType, p.ID, models.ViewScopeApplications)
		if err != nil {
			return nil, err
		}
		if counts.NewApplications, err = t.repo.CountApplicationsToBusinessSince(p.ID, since); err != nil {
			return nil, err
		}
	case models.SenderTypeCreator:
		since, err := t.markerTime(userType, p.ID, models.ViewScopeInvitations)
		if err != nil {
			return nil, err
		}
		if counts.NewInvitations, err = t.repo.CountInvitationsToCreatorSince(p.ID, since); err != nil {
			return nil, err
		}
	}

	unread, err := t.gate.TotalUnread(p)
	if err != nil {
		return nil, err
	}
	counts.UnreadMessages = unread

	if encoded, err := json.Marshal(counts); err == nil {
		_ = cache.Set(cacheKey, string(encoded), countsCacheTTL)
	}
	return counts, nil
}

// MarkViewed moves the caller's marker for one scope to now, resetting that
// badge.
func (t *Tracker) MarkViewed(p authz.Principal, scope string) error {
	if err := authz.RequireAuthenticated(p); err != nil {
		return err
	}
	var userType string
	switch p.Role {
	case authz.RoleCreator:
		userType = models.SenderTypeCreator
	case authz.RoleBusiness:
		userType = models.SenderTypeBusiness
	default:
		return faults.Forbiddenf("no badges for role %s", p.Role)
	}
	// Message badges reset through read receipts, not a marker, so
	// "messages" is not a valid scope here.
	switch scope {
	case models.ViewScopeApplications, models.ViewScopeInvitations:
	default:
		return faults.Invalidf("unknown badge scope %q", scope)
	}

	err := t.repo.UpsertMarker(&models.ViewMarker{
		UserType:     userType,
		UserID:       p.ID,
		Scope:        scope,
		LastViewedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	_ = cache.Delete(countsCacheKey(userType, p.ID))
	return nil
}

// markerTime returns the last-viewed time for a scope, or the zero time
// when the user never viewed it (everything counts as new).
func (t *Tracker) markerTime(userType string, userID uint, scope string) (time.Time, error) {
	marker, err := t.repo.GetMarker(userType, userID, scope)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return marker.LastViewedAt, nil
}

func countsCacheKey(userType string, userID uint) string {
	return fmt.Sprintf("badges:%s:%d", userType, userID)
}
