package messaging

import (
	"testing"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo keeps conversations in memory with the same read-receipt and
// active-conversation semantics as the gorm implementation.
type fakeRepo struct {
	jobs   map[uint]*models.Job
	apps   map[uint]*models.JobApplication
	msgs   []*models.JobMessage
	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		jobs:   map[uint]*models.Job{},
		apps:   map[uint]*models.JobApplication{},
		nextID: 1,
	}
}

func (f *fakeRepo) addConversation(appID, jobID, businessID, creatorID uint, status string) {
	f.jobs[jobID] = &models.Job{ID: jobID, BusinessID: businessID, Status: models.JobStatusOpen}
	f.apps[appID] = &models.JobApplication{ID: appID, JobID: jobID, CreatorID: creatorID, Status: status}
}

func (f *fakeRepo) GetApplication(id uint) (*models.JobApplication, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *app
	return &cp, nil
}

func (f *fakeRepo) GetJob(id uint) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeRepo) CreateMessage(m *models.JobMessage) error {
	m.ID = f.nextID
	f.nextID++
	m.CreatedAt = time.Now()
	cp := *m
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeRepo) ListMessages(applicationID uint) ([]models.JobMessage, error) {
	var out []models.JobMessage
	for _, m := range f.msgs {
		if m.ApplicationID == applicationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkMessagesRead(applicationID uint, senderType string, readAt time.Time) (int64, error) {
	var n int64
	for _, m := range f.msgs {
		if m.ApplicationID == applicationID && m.SenderType == senderType && m.ReadAt == nil {
			t := readAt
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CountUnread(applicationID uint, senderType string) (int64, error) {
	var n int64
	for _, m := range f.msgs {
		if m.ApplicationID == applicationID && m.SenderType == senderType && m.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ListActiveApplicationIDs(userType string, userID uint) ([]uint, error) {
	var ids []uint
	for _, app := range f.apps {
		if !app.ConversationActive() {
			continue
		}
		switch userType {
		case models.SenderTypeCreator:
			if app.CreatorID == userID {
				ids = append(ids, app.ID)
			}
		case models.SenderTypeBusiness:
			if job, ok := f.jobs[app.JobID]; ok && job.BusinessID == userID {
				ids = append(ids, app.ID)
			}
		}
	}
	return ids, nil
}

func (f *fakeRepo) CountUnreadForApplications(applicationIDs []uint, senderType string) (int64, error) {
	var n int64
	for _, id := range applicationIDs {
		c, _ := f.CountUnread(id, senderType)
		n += c
	}
	return n, nil
}

var (
	creator  = authz.Principal{Role: authz.RoleCreator, ID: 10}
	intruder = authz.Principal{Role: authz.RoleCreator, ID: 11}
	business = authz.Principal{Role: authz.RoleBusiness, ID: 20}
	admin    = authz.Principal{Role: authz.RoleAdmin, ID: 99}
)

func TestSendAndList(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addConversation(1, 1, business.ID, creator.ID, models.ApplicationStatusAccepted)
	gate := NewGate(repo)

	_, err := gate.Send(creator, 1, models.SenderTypeCreator, "hello")
	require.NoError(t, err)
	_, err = gate.Send(business, 1, models.SenderTypeBusiness, "hi there")
	require.NoError(t, err)

	msgs, err := gate.ListMessages(creator, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Message)
	assert.Equal(t, "hi there", msgs[1].Message)
}

func TestSendRequiresActiveConversation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		active bool
	}{
		{models.ApplicationStatusPending, false},
		{models.ApplicationStatusAccepted, true},
		{models.ApplicationStatusEngaged, true},
		{models.ApplicationStatusCompleted, false},
		{models.ApplicationStatusWithdrawn, false},
	}
	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			repo := newFakeRepo()
			repo.addConversation(1, 1, business.ID, creator.ID, tc.status)
			gate := NewGate(repo)

			_, err := gate.Send(creator, 1, models.SenderTypeCreator, "ping")
			if tc.active {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrConversationNotActive)
				assert.ErrorIs(t, err, faults.ErrConflict)
			}
		})
	}
}

func TestSendSenderIdentityMustMatch(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addConversation(1, 1, business.ID, creator.ID, models.ApplicationStatusAccepted)
	gate := NewGate(repo)

	// A participant cannot declare the other side's identity.
	_, err := gate.Send(creator, 1, models.SenderTypeBusiness, "spoof")
	assert.ErrorIs(t, err, faults.ErrForbidden)

	// A different creator cannot send at all.
	_, err = gate.Send(intruder, 1, models.SenderTypeCreator, "spoof")
	assert.ErrorIs(t, err, faults.ErrForbidden)

	_, err = gate.Send(creator, 1, "system", "spoof")
	assert.ErrorIs(t, err, faults.ErrInvalidInput)
}

func TestHistoryReadableAfterConversationCloses(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addConversation(1, 1, business.ID, creator.ID, models.ApplicationStatusAccepted)
	gate := NewGate(repo)

	_, err := gate.Send(creator, 1, models.SenderTypeCreator, "before close")
	require.NoError(t, err)

	repo.apps[1].Status = models.ApplicationStatusCompleted

	msgs, err := gate.ListMessages(business, 1)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	canWrite, err := gate.CanWrite(business, 1)
	require.NoError(t, err)
	assert.False(t, canWrite)
}

func TestThirdPartyCannotRead(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addConversation(1, 1, business.ID, creator.ID, models.ApplicationStatusAccepted)
	gate := NewGate(repo)

	_, err := gate.ListMessages(intruder, 1)
	assert.ErrorIs(t, err, faults.ErrForbidden)

	ok, err := gate.CanRead(intruder, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkReadIdempotentAndCounterpartOnly(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addConversation(1, 1, business.ID, creator.ID, models.ApplicationStatusAccepted)
	gate := NewGate(repo)

	_, err := gate.Send(business, 1, models.SenderTypeBusiness, "one")
	require.NoError(t, err)
	_, err = gate.Send(business, 1, models.SenderTypeBusiness, "two")
	require.NoError(t, err)
	_, err = gate.Send(creator, 1, models.SenderTypeCreator, "mine")
	require.NoError(t, err)

	n, err := gate.MarkRead(creator, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// Second call has nothing left to stamp.
	n, err = gate.MarkRead(creator, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	// The creator's own message stays unread for the business side.
	unread, err := gate.UnreadCount(business, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestAdminObservesButHasNoSide(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addConversation(1, 1, business.ID, creator.ID, models.ApplicationStatusAccepted)
	gate := NewGate(repo)

	_, err := gate.Send(business, 1, models.SenderTypeBusiness, "one")
	require.NoError(t, err)

	msgs, err := gate.ListMessages(admin, 1)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	_, err = gate.Send(admin, 1, models.SenderTypeBusiness, "spoof")
	assert.ErrorIs(t, err, faults.ErrForbidden)

	_, err = gate.MarkRead(admin, 1)
	assert.ErrorIs(t, err, faults.ErrForbidden)
}

func TestTotalUnreadExcludesInactiveConversations(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addConversation(1, 1, business.ID, creator.ID, models.ApplicationStatusAccepted)
	repo.addConversation(2, 2, business.ID, creator.ID, models.ApplicationStatusAccepted)
	gate := NewGate(repo)

	_, err := gate.Send(business, 1, models.SenderTypeBusiness, "active convo")
	require.NoError(t, err)
	_, err = gate.Send(business, 2, models.SenderTypeBusiness, "soon inactive")
	require.NoError(t, err)

	total, err := gate.TotalUnread(creator)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// Once the second application leaves accepted/engaged its unread
	// messages drop out of the aggregate.
	repo.apps[2].Status = models.ApplicationStatusRejected

	total, err = gate.TotalUnread(creator)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, err = gate.TotalUnread(admin)
	assert.ErrorIs(t, err, faults.ErrForbidden)
}

func TestUnknownConversation(t *testing.T) {
	t.Parallel()

	gate := NewGate(newFakeRepo())
	_, err := gate.ListMessages(creator, 404)
	assert.ErrorIs(t, err, faults.ErrNotFound)
}
