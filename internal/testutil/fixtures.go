package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/anonto42/nano-feed/backend/internal/media"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

var userSeq atomic.Uint64

// FakeUser returns an unsaved user with random, unique identity fields.
func FakeUser() *models.User {
	n := userSeq.Add(1)
	username := strings.ToLower(gofakeit.Username())
	return &models.User{
		Username: fmt.Sprintf("%s%d", username, n),
		Email:    fmt.Sprintf("%d.%s", n, strings.ToLower(gofakeit.Email())),
		FullName: gofakeit.Name(),
		Bio:      gofakeit.Sentence(8),
	}
}

// MustCreateUsers stores n fake users in d and returns them in id order.
func MustCreateUsers(t *testing.T, d *Directory, n int) []*models.User {
	t.Helper()
	users := make([]*models.User, n)
	for i := range users {
		u := FakeUser()
		require.NoError(t, d.CreateUser(context.Background(), u))
		users[i] = u
	}
	return users
}

var _ media.Store = (*MediaStore)(nil)

// MediaStore keeps saved blobs in memory, keyed by the URL it returned.
type MediaStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	Err   error
}

func NewMediaStore() *MediaStore {
	return &MediaStore{blobs: make(map[string][]byte)}
}

func (s *MediaStore) Save(_ context.Context, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	url := fmt.Sprintf("https://media.test/%d?type=%s", len(s.blobs)+1, contentType)
	s.blobs[url] = append([]byte(nil), data...)
	return url, nil
}

func (s *MediaStore) Get(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[url]
	return b, ok
}

// PlainHasher is a reversible Hasher for tests that do not need bcrypt cost.
type PlainHasher struct{}

func (PlainHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }

func (PlainHasher) Compare(hash, secret string) bool { return hash == "hashed:"+secret }
