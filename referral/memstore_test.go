package referral_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/mooosty/bckndmaster/models"
)

// memStore is an in-memory UserStore and InviteStore.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	invites []models.Invite

	findErr      error
	createErr    error
	referrerErr  map[string]error
	incrementErr map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]*models.User),
		referrerErr:  make(map[string]error),
		incrementErr: make(map[string]error),
	}
}

func (m *memStore) addUser(t *testing.T, email, dynamicID string) *models.User {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: uuid.NewString(), Email: email, DynamicID: dynamicID}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addInvite(referrer, referred *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites = append(m.invites, models.Invite{ID: uuid.NewString(), ReferrerID: referrer.ID, ReferredID: referred.ID})
}

func (m *memStore) deleteUser(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, u.ID)
}

func (m *memStore) balance(id string) (int64, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, 0
	}
	return u.Points, u.WinwinBalance
}

func (m *memStore) inviteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invites)
}

func (m *memStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindByDynamicID(ctx context.Context, dynamicID string) (*models.User, error) {
	return m.findBy(func(u *models.User) bool { return u.DynamicID != "" && u.DynamicID == dynamicID })
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findBy(func(u *models.User) bool { return u.Email == email })
}

func (m *memStore) findBy(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) IncrementRewards(ctx context.Context, userID string, points, winwin int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.incrementErr[userID]; err != nil {
		return err
	}
	u, ok := m.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.Points += points
	u.WinwinBalance += winwin
	return nil
}

func (m *memStore) CreateIfAbsent(ctx context.Context, referrerID, referredID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return false, m.createErr
	}
	for _, inv := range m.invites {
		if inv.ReferrerID == referrerID && inv.ReferredID == referredID {
			return false, nil
		}
	}
	m.invites = append(m.invites, models.Invite{ID: uuid.NewString(), ReferrerID: referrerID, ReferredID: referredID})
	return true, nil
}

func (m *memStore) FindReferrerOf(ctx context.Context, referredID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.referrerErr[referredID]; err != nil {
		return "", err
	}
	for _, inv := range m.invites {
		if inv.ReferredID == referredID {
			return inv.ReferrerID, nil
		}
	}
	return "", models.ErrNotFound
}

// chain seeds users linked first -> second -> ... and returns them in order.
func (m *memStore) chain(t *testing.T, emails ...string) []*models.User {
	t.Helper()
	users := make([]*models.User, len(emails))
	for i, email := range emails {
		users[i] = m.addUser(t, email, "")
		if i > 0 {
			m.addInvite(users[i-1], users[i])
		}
	}
	return users
}
