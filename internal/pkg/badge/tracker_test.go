package badge

import (
	"testing"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type markerKey struct {
	userType string
	userID   uint
	scope    string
}

// fakeRepo holds markers and engagement timestamps in memory.
type fakeRepo struct {
	markers      map[markerKey]*models.ViewMarker
	applications []appEntry
	invitations  []invEntry
}

type appEntry struct {
	businessID uint
	createdAt  time.Time
}

type invEntry struct {
	creatorID uint
	createdAt time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{markers: map[markerKey]*models.ViewMarker{}}
}

func (f *fakeRepo) GetMarker(userType string, userID uint, scope string) (*models.ViewMarker, error) {
	m, ok := f.markers[markerKey{userType, userID, scope}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) UpsertMarker(marker *models.ViewMarker) error {
	cp := *marker
	f.markers[markerKey{marker.UserType, marker.UserID, marker.Scope}] = &cp
	return nil
}

func (f *fakeRepo) CountApplicationsToBusinessSince(businessID uint, since time.Time) (int64, error) {
	var n int64
	for _, e := range f.applications {
		if e.businessID == businessID && e.createdAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CountInvitationsToCreatorSince(creatorID uint, since time.Time) (int64, error) {
	var n int64
	for _, e := range f.invitations {
		if e.creatorID == creatorID && e.createdAt.After(since) {
			n++
		}
	}
	return n, nil
}

// fakeMessagingRepo satisfies the messaging gate with static unread counts.
type fakeMessagingRepo struct {
	activeIDs map[string][]uint
	unread    map[uint]int64
}

func (f *fakeMessagingRepo) GetApplication(id uint) (*models.JobApplication, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessagingRepo) GetJob(id uint) (*models.Job, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessagingRepo) CreateMessage(m *models.JobMessage) error { return nil }

func (f *fakeMessagingRepo) ListMessages(applicationID uint) ([]models.JobMessage, error) {
	return nil, nil
}

func (f *fakeMessagingRepo) MarkMessagesRead(applicationID uint, senderType string, readAt time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeMessagingRepo) CountUnread(applicationID uint, senderType string) (int64, error) {
	return f.unread[applicationID], nil
}

func (f *fakeMessagingRepo) ListActiveApplicationIDs(userType string, userID uint) ([]uint, error) {
	return f.activeIDs[userType], nil
}

func (f *fakeMessagingRepo) CountUnreadForApplications(applicationIDs []uint, senderType string) (int64, error) {
	var n int64
	for _, id := range applicationIDs {
		n += f.unread[id]
	}
	return n, nil
}

var (
	creator = authz.Principal{Role: authz.RoleCreator, ID: 10}
	biz     = authz.Principal{Role: authz.RoleBusiness, ID: 20}
)

func newTestTracker(repo *fakeRepo, msgRepo *fakeMessagingRepo) *Tracker {
	if msgRepo == nil {
		msgRepo = &fakeMessagingRepo{}
	}
	return NewTracker(repo, messaging.NewGate(msgRepo))
}

func TestGetCountsBusiness(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	now := time.Now()
	repo.applications = []appEntry{
		{businessID: biz.ID, createdAt: now.Add(-time.Hour)},
		{businessID: biz.ID, createdAt: now.Add(-time.Minute)},
		{businessID: 99, createdAt: now},
	}
	msgRepo := &fakeMessagingRepo{
		activeIDs: map[string][]uint{models.SenderTypeBusiness: {1, 2}},
		unread:    map[uint]int64{1: 2, 2: 1},
	}
	tracker := newTestTracker(repo, msgRepo)

	counts, err := tracker.GetCounts(biz)
	require.NoError(t, err)
	// No marker yet: everything counts as new.
	assert.EqualValues(t, 2, counts.NewApplications)
	assert.EqualValues(t, 0, counts.NewInvitations)
	assert.EqualValues(t, 3, counts.UnreadMessages)
}

func TestGetCountsCreatorUsesMarker(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	now := time.Now()
	repo.invitations = []invEntry{
		{creatorID: creator.ID, createdAt: now.Add(-2 * time.Hour)},
		{creatorID: creator.ID, createdAt: now.Add(-time.Minute)},
	}
	repo.markers[markerKey{models.SenderTypeCreator, creator.ID, models.ViewScopeInvitations}] = &models.ViewMarker{
		UserType: models.SenderTypeCreator, UserID: creator.ID,
		Scope: models.ViewScopeInvitations, LastViewedAt: now.Add(-time.Hour),
	}
	tracker := newTestTracker(repo, nil)

	counts, err := tracker.GetCounts(creator)
	require.NoError(t, err)
	// Only the invitation newer than the marker counts.
	assert.EqualValues(t, 1, counts.NewInvitations)
}

func TestMarkViewedResetsBadge(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.invitations = []invEntry{{creatorID: creator.ID, createdAt: time.Now().Add(-time.Minute)}}
	tracker := newTestTracker(repo, nil)

	counts, err := tracker.GetCounts(creator)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.NewInvitations)

	require.NoError(t, tracker.MarkViewed(creator, models.ViewScopeInvitations))

	counts, err = tracker.GetCounts(creator)
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts.NewInvitations)
}

func TestMarkViewedValidation(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(newFakeRepo(), nil)

	assert.ErrorIs(t, tracker.MarkViewed(creator, "everything"), faults.ErrInvalidInput)
	// Unread messages reset through read receipts, not a view marker.
	assert.ErrorIs(t, tracker.MarkViewed(creator, "messages"), faults.ErrInvalidInput)
	assert.ErrorIs(t, tracker.MarkViewed(authz.Guest(), models.ViewScopeInvitations), faults.ErrUnauthenticated)
	assert.ErrorIs(t, tracker.MarkViewed(authz.Principal{Role: authz.RoleAdmin, ID: 1}, models.ViewScopeInvitations), faults.ErrForbidden)
}

func TestGetCountsRejectsGuestsAndAdmins(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(newFakeRepo(), nil)

	_, err := tracker.GetCounts(authz.Guest())
	assert.ErrorIs(t, err, faults.ErrUnauthenticated)

	_, err = tracker.GetCounts(authz.Principal{Role: authz.RoleAdmin, ID: 1})
	assert.ErrorIs(t, err, faults.ErrForbidden)
}
