package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmail/internal/models"
)

// In-memory stores backing the service layer in tests and local runs
// without Postgres. They mirror the semantics of the SQL stores: nil for
// missing rows, ErrDuplicateEmail on email reuse, newest-first listings,
// relation expansion from the paired user store.

type MemoryUsers struct {
	mu    sync.Mutex
	users []models.User
	hash  map[string]string // id -> password hash
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{hash: make(map[string]string)}
}

func (s *MemoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryUsers) FindByEmailWithHash(ctx context.Context, email string) (*models.User, error) {
	u, err := s.FindByEmail(ctx, email)
	if u == nil || err != nil {
		return nil, err
	}
	s.mu.Lock()
	u.PasswordHash = s.hash[u.ID]
	s.mu.Unlock()
	return u, nil
}

func (s *MemoryUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryUsers) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			return nil, ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	u := models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users = append(s.users, u)
	s.hash[u.ID] = passwordHash
	return &u, nil
}

func (s *MemoryUsers) ListBasic(ctx context.Context) ([]models.BasicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.BasicUser, 0, len(s.users))
	for i := range s.users {
		out = append(out, models.BasicUser{Name: s.users[i].Name, Email: s.users[i].Email})
	}
	return out, nil
}

// Delete removes a user, for exercising the deleted-out-of-band 401 path.
func (s *MemoryUsers) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return
		}
	}
}

type MemoryItems struct {
	mu    sync.Mutex
	items []models.Item // insertion order is creation order
	users *MemoryUsers  // optional, for sender/recipient expansion
}

func NewMemoryItems(users *MemoryUsers) *MemoryItems {
	return &MemoryItems{users: users}
}

func (s *MemoryItems) expand(ctx context.Context, it *models.Item) {
	if s.users == nil {
		return
	}
	if it.SenderID != "" {
		if u, _ := s.users.FindByID(ctx, it.SenderID); u != nil {
			it.Sender = &models.UserRef{Name: u.Name, Email: u.Email}
		}
	}
	if it.RecipientID != "" {
		if u, _ := s.users.FindByID(ctx, it.RecipientID); u != nil {
			it.Recipient = &models.UserRef{Name: u.Name, Email: u.Email}
		}
	}
}

func (s *MemoryItems) listWhere(ctx context.Context, keep func(*models.Item) bool) []models.Item {
	s.mu.Lock()
	var out []models.Item
	for i := range s.items {
		if keep(&s.items[i]) {
			out = append(out, s.items[i])
		}
	}
	s.mu.Unlock()
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	for i := range out {
		s.expand(ctx, &out[i])
	}
	return out
}

func (s *MemoryItems) ListByFolder(ctx context.Context, ownerID string, folder models.Folder) ([]models.Item, error) {
	return s.listWhere(ctx, func(it *models.Item) bool {
		return it.OwnerID == ownerID && it.Folder == folder
	}), nil
}

func (s *MemoryItems) ListStarred(ctx context.Context, ownerID string) ([]models.Item, error) {
	return s.listWhere(ctx, func(it *models.Item) bool {
		return it.OwnerID == ownerID && it.Starred
	}), nil
}

func (s *MemoryItems) Get(ctx context.Context, id string) (*models.Item, error) {
	s.mu.Lock()
	var found *models.Item
	for i := range s.items {
		if s.items[i].ID == id {
			it := s.items[i]
			found = &it
			break
		}
	}
	s.mu.Unlock()
	if found != nil {
		s.expand(ctx, found)
	}
	return found, nil
}

func (s *MemoryItems) insertLocked(it *models.Item) {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now
	s.items = append(s.items, *it)
}

func (s *MemoryItems) Insert(ctx context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(it)
	return nil
}

func (s *MemoryItems) InsertPair(ctx context.Context, inbox, sent *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(inbox)
	s.insertLocked(sent)
	return nil
}

func (s *MemoryItems) Save(ctx context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == it.ID {
			it.UpdatedAt = time.Now().UTC()
			cp := *it
			cp.Sender, cp.Recipient = nil, nil
			s.items[i] = cp
			return nil
		}
	}
	return nil
}

func (s *MemoryItems) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryItems) DeleteBulk(ctx context.Context, ownerID string, ids []string) (int64, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.Item
	var deleted int64
	for i := range s.items {
		if want[s.items[i].ID] && s.items[i].OwnerID == ownerID {
			deleted++
			continue
		}
		kept = append(kept, s.items[i])
	}
	s.items = kept
	return deleted, nil
}

func (s *MemoryItems) DeleteCompleted(ctx context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.Item
	var deleted int64
	for i := range s.items {
		if s.items[i].OwnerID == ownerID && s.items[i].Completed {
			deleted++
			continue
		}
		kept = append(kept, s.items[i])
	}
	s.items = kept
	return deleted, nil
}

func (s *MemoryItems) Counts(ctx context.Context, ownerID string) (total, completed int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].OwnerID != ownerID {
			continue
		}
		total++
		if s.items[i].Completed {
			completed++
		}
	}
	return total, completed, nil
}

// Len reports the number of stored items.
func (s *MemoryItems) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
