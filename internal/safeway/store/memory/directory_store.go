package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/safeway/server/internal/safeway/store"
)

// DirectoryStore keeps users and credentials together so the sync feed can
// join them under one lock. It implements both store.UserStore and
// store.CredentialStore.
type DirectoryStore struct {
	mu          sync.RWMutex
	users       map[string]store.UserRecord
	userOrder   []string
	creds       map[string]store.CredentialRecord
	credOrder   []string
	credsByCard map[string]string
}

func NewDirectoryStore() *DirectoryStore {
	return &DirectoryStore{
		users:       make(map[string]store.UserRecord),
		creds:       make(map[string]store.CredentialRecord),
		credsByCard: make(map[string]string),
	}
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *DirectoryStore) GetUser(_ context.Context, id string) (store.UserRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *DirectoryStore) ListUsers(_ context.Context, p store.Page) ([]store.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.UserRecord, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return paginate(out, p), nil
}

func (s *DirectoryStore) CreateUser(_ context.Context, rec store.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[rec.ID]; ok {
		return store.ErrDuplicate
	}
	if s.emailTaken(rec.Email, "") {
		return store.ErrDuplicate
	}
	s.users[rec.ID] = rec
	s.userOrder = append(s.userOrder, rec.ID)
	return nil
}

func (s *DirectoryStore) UpdateUser(_ context.Context, rec store.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[rec.ID]; !ok {
		return store.ErrNotFound
	}
	if s.emailTaken(rec.Email, rec.ID) {
		return store.ErrDuplicate
	}
	s.users[rec.ID] = rec
	return nil
}

func (s *DirectoryStore) emailTaken(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// ── Credentials ──────────────────────────────────────────────────────────────

func (s *DirectoryStore) FindActiveByCardID(_ context.Context, cardID string) (store.CredentialRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.credsByCard[cardID]
	if !ok {
		return store.CredentialRecord{}, false, nil
	}
	c := s.creds[id]
	if !c.Active {
		return store.CredentialRecord{}, false, nil
	}
	return c, true, nil
}

func (s *DirectoryStore) GetCredential(_ context.Context, id string) (store.CredentialRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[id]
	return c, ok, nil
}

func (s *DirectoryStore) ListCredentials(_ context.Context, p store.Page) ([]store.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.CredentialRecord, 0, len(s.credOrder))
	for _, id := range s.credOrder {
		out = append(out, s.creds[id])
	}
	return paginate(out, p), nil
}

func (s *DirectoryStore) CreateCredential(_ context.Context, rec store.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[rec.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := s.credsByCard[rec.CardID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := s.users[rec.UserID]; !ok {
		return store.ErrNotFound
	}
	s.creds[rec.ID] = rec
	s.credOrder = append(s.credOrder, rec.ID)
	s.credsByCard[rec.CardID] = rec.ID
	return nil
}

func (s *DirectoryStore) UpdateCredential(_ context.Context, rec store.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.creds[rec.ID]
	if !ok {
		return store.ErrNotFound
	}
	if rec.CardID != old.CardID {
		if _, taken := s.credsByCard[rec.CardID]; taken {
			return store.ErrDuplicate
		}
		delete(s.credsByCard, old.CardID)
		s.credsByCard[rec.CardID] = rec.ID
	}
	s.creds[rec.ID] = rec
	return nil
}

func (s *DirectoryStore) ListSyncable(_ context.Context, p store.Page) ([]store.SyncRecord, int, error) {
	s.mu.RLock()
	out := make([]store.SyncRecord, 0, len(s.creds))
	for _, c := range s.creds {
		if !c.Active {
			continue
		}
		u, ok := s.users[c.UserID]
		if !ok || !u.Active {
			continue
		}
		out = append(out, store.SyncRecord{
			CardID:             c.CardID,
			UserName:           u.FullName,
			HasTimeRestriction: c.HasTimeRestriction,
			WindowStart:        c.WindowStart,
			WindowEnd:          c.WindowEnd,
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return paginate(out, p), len(out), nil
}
