package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo stores the ledger and businesses in memory. Transaction is a
// plain callback: the tests assert on outcomes, not on rollback mechanics.
type fakeRepo struct {
	events     map[string]*models.WebhookEvent
	businesses map[uint]*models.Business
	nextID     uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:     map[string]*models.WebhookEvent{},
		businesses: map[uint]*models.Business{},
		nextID:     1,
	}
}

func (f *fakeRepo) addBusiness(id uint, subscriptionID string) *models.Business {
	b := &models.Business{ID: id, SubscriptionStatus: models.SubscriptionNone, StripeSubscriptionID: subscriptionID}
	f.businesses[id] = b
	return b
}

func (f *fakeRepo) InsertEventIfNew(event *models.WebhookEvent) (bool, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if _, exists := f.events[key]; exists {
		return false, nil
	}
	event.ID = f.nextID
	f.nextID++
	cp := *event
	f.events[key] = &cp
	return true, nil
}

func (f *fakeRepo) MarkEventProcessed(id uint, processingError string) error {
	for _, ev := range f.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
		}
	}
	return nil
}

func (f *fakeRepo) GetBusinessByStripeSubscriptionID(subscriptionID string) (*models.Business, error) {
	for _, b := range f.businesses {
		if b.StripeSubscriptionID == subscriptionID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateBusinessSubscription(businessID uint, updates map[string]interface{}) error {
	b, ok := f.businesses[businessID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["subscription_status"]; ok {
		b.SubscriptionStatus = v.(string)
	}
	if v, ok := updates["subscription_type"]; ok {
		b.SubscriptionType = v.(string)
	}
	if v, ok := updates["expires_at"]; ok {
		t := v.(time.Time)
		b.ExpiresAt = &t
	}
	return nil
}

func (f *fakeRepo) Transaction(fn func(Repository) error) error {
	return fn(f)
}

func testConfig() Config {
	return Config{
		WebhookSecret:  testSecret,
		MonthlyPriceID: "price_monthly",
		YearlyPriceID:  "price_yearly",
	}
}

func signedEvent(t *testing.T, id, eventType, body string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":%q,"type":%q,"data":{"object":%s}}`, id, eventType, body))
	return payload, signPayload(t, testSecret, time.Now(), payload)
}

func TestHandleEventRejectsInvalidSignature(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	payload, _ := signedEvent(t, "evt_1", EventPaymentSucceeded, `{"subscription":"sub_1"}`)
	outcome, err := svc.HandleEvent(payload, "t=1,v1=deadbeef")

	assert.Equal(t, OutcomeRejected, outcome)
	assert.ErrorIs(t, err, faults.ErrSignatureInvalid)
	// Nothing reaches the ledger before verification.
	assert.Empty(t, repo.events)
}

func TestHandleEventRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), testConfig())

	payload := []byte(`{not json`)
	header := signPayload(t, testSecret, time.Now(), payload)
	outcome, err := svc.HandleEvent(payload, header)

	assert.Equal(t, OutcomeRejected, outcome)
	assert.ErrorIs(t, err, faults.ErrInvalidInput)
}

func TestHandleEventRejectsMissingEventID(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), testConfig())

	payload, header := signedEvent(t, "", EventPaymentSucceeded, `{"subscription":"sub_1"}`)
	outcome, err := svc.HandleEvent(payload, header)

	assert.Equal(t, OutcomeRejected, outcome)
	assert.ErrorIs(t, err, faults.ErrInvalidInput)
}

func TestPaymentSucceededThenDuplicate(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	business := repo.addBusiness(1, "sub_1")
	svc := NewService(repo, testConfig())

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	payload, header := signedEvent(t, "evt_1", EventPaymentSucceeded,
		fmt.Sprintf(`{"subscription":"sub_1","period_end":%d}`, periodEnd))

	outcome, err := svc.HandleEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.SubscriptionActive, business.SubscriptionStatus)
	require.NotNil(t, business.ExpiresAt)
	assert.Equal(t, periodEnd, business.ExpiresAt.Unix())

	// Simulate state drift between deliveries; the replay must not reapply.
	business.SubscriptionStatus = models.SubscriptionExpired

	outcome, err = svc.HandleEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, models.SubscriptionExpired, business.SubscriptionStatus)
	assert.Len(t, repo.events, 1)
}

func TestSubscriptionDeletedExpires(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	business := repo.addBusiness(1, "sub_1")
	business.SubscriptionStatus = models.SubscriptionActive
	svc := NewService(repo, testConfig())

	payload, header := signedEvent(t, "evt_2", EventSubscriptionDeleted, `{"id":"sub_1"}`)
	outcome, err := svc.HandleEvent(payload, header)

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.SubscriptionExpired, business.SubscriptionStatus)
}

func TestSubscriptionUpdatedBranches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		object     string
		wantStatus string
		wantType   string
	}{
		{
			name:       "canceled expires",
			object:     `{"id":"sub_1","status":"canceled"}`,
			wantStatus: models.SubscriptionExpired,
		},
		{
			name:       "unpaid expires",
			object:     `{"id":"sub_1","status":"unpaid"}`,
			wantStatus: models.SubscriptionExpired,
		},
		{
			name:       "active with yearly price reclassifies",
			object:     `{"id":"sub_1","status":"active","current_period_end":4102444800,"items":{"data":[{"price":{"id":"price_yearly"}}]}}`,
			wantStatus: models.SubscriptionActive,
			wantType:   models.SubscriptionTypeYearly,
		},
		{
			name:       "active with unknown price keeps type",
			object:     `{"id":"sub_1","status":"active","items":{"data":[{"price":{"id":"price_custom"}}]}}`,
			wantStatus: models.SubscriptionActive,
		},
		{
			name:       "other statuses ignored",
			object:     `{"id":"sub_1","status":"past_due"}`,
			wantStatus: models.SubscriptionNone,
		},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			business := repo.addBusiness(1, "sub_1")
			svc := NewService(repo, testConfig())

			payload, header := signedEvent(t, fmt.Sprintf("evt_u%d", i), EventSubscriptionUpdated, tc.object)
			outcome, err := svc.HandleEvent(payload, header)

			require.NoError(t, err)
			assert.Equal(t, OutcomeApplied, outcome)
			assert.Equal(t, tc.wantStatus, business.SubscriptionStatus)
			assert.Equal(t, tc.wantType, business.SubscriptionType)
		})
	}
}

func TestPaymentFailedIsLogOnly(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	business := repo.addBusiness(1, "sub_1")
	business.SubscriptionStatus = models.SubscriptionActive
	svc := NewService(repo, testConfig())

	payload, header := signedEvent(t, "evt_3", EventPaymentFailed, `{"subscription":"sub_1"}`)
	outcome, err := svc.HandleEvent(payload, header)

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.SubscriptionActive, business.SubscriptionStatus)
}

func TestUnknownEventTypeIsAcceptedNoop(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	business := repo.addBusiness(1, "sub_1")
	svc := NewService(repo, testConfig())

	payload, header := signedEvent(t, "evt_4", "customer.created", `{"id":"cus_1"}`)
	outcome, err := svc.HandleEvent(payload, header)

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.SubscriptionNone, business.SubscriptionStatus)
	// Ledger still records the delivery for replay protection.
	assert.Len(t, repo.events, 1)
}

func TestUnknownSubscriptionReferenceIsSkipped(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	payload, header := signedEvent(t, "evt_5", EventPaymentSucceeded, `{"subscription":"sub_missing"}`)
	outcome, err := svc.HandleEvent(payload, header)

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Len(t, repo.events, 1)
}

func TestEventMarkedProcessed(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addBusiness(1, "sub_1")
	svc := NewService(repo, testConfig())

	payload, header := signedEvent(t, "evt_6", EventSubscriptionDeleted, `{"id":"sub_1"}`)
	_, err := svc.HandleEvent(payload, header)
	require.NoError(t, err)

	ev := repo.events[ProviderStripe+"/evt_6"]
	require.NotNil(t, ev)
	assert.NotNil(t, ev.ProcessedAt)
	assert.True(t, ev.SignatureValid)
	assert.Empty(t, ev.ProcessingError)
}
