// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

var (
	_ repositories.UserRepository   = (*Directory)(nil)
	_ repositories.FollowRepository = (*Directory)(nil)
)

type edge struct {
	follower, following uint
}

// Directory is an in-memory user and follow store. It implements both
// repositories.UserRepository and repositories.FollowRepository so follow
// toggles can see which users exist.
type Directory struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	edges  []edge
	nextID uint
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[uint]*models.User), nextID: 1}
}

func (d *Directory) CreateUser(_ context.Context, user *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkUniqueLocked(user); err != nil {
		return err
	}
	if user.ID == 0 {
		user.ID = d.nextID
	}
	if user.ID >= d.nextID {
		d.nextID = user.ID + 1
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	d.users[user.ID] = &cp
	return nil
}

func (d *Directory) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	return &cp, nil
}

func (d *Directory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return d.findOne(func(u *models.User) bool { return u.Email == strings.ToLower(email) }, email)
}

func (d *Directory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return d.findOne(func(u *models.User) bool { return u.Username == username }, username)
}

func (d *Directory) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	return d.findOne(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid }, uid)
}

func (d *Directory) GetUsersByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (d *Directory) UpdateUser(_ context.Context, user *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[user.ID]; !ok {
		return models.NewNotFoundError("User", user.ID)
	}
	if err := d.checkUniqueLocked(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()
	cp := *user
	d.users[user.ID] = &cp
	return nil
}

func (d *Directory) SearchUsers(_ context.Context, query string, excludeID uint, limit int) ([]models.User, error) {
	q := strings.ToLower(query)
	matches := d.sorted(func(u *models.User) bool {
		if u.ID == excludeID {
			return false
		}
		return strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.FullName), q)
	})
	return head(matches, limit, repositories.DefaultSearchLimit, repositories.MaxSearchLimit), nil
}

func (d *Directory) GetSuggestions(_ context.Context, userID uint, limit int) ([]models.User, error) {
	d.mu.Lock()
	followed := map[uint]bool{}
	followers := map[uint]int{}
	for _, e := range d.edges {
		if e.follower == userID {
			followed[e.following] = true
		}
		followers[e.following]++
	}
	d.mu.Unlock()

	candidates := d.sorted(func(u *models.User) bool { return u.ID != userID && !followed[u.ID] })
	sort.SliceStable(candidates, func(i, j int) bool {
		return followers[candidates[i].ID] > followers[candidates[j].ID]
	})
	return head(candidates, limit, repositories.DefaultSuggestionsLimit, repositories.MaxSearchLimit), nil
}

func (d *Directory) ToggleFollow(_ context.Context, followerID, followingID uint) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[followerID]; !ok {
		return false, models.NewNotFoundError("User", followingID)
	}
	if _, ok := d.users[followingID]; !ok {
		return false, models.NewNotFoundError("User", followingID)
	}
	for i, e := range d.edges {
		if e.follower == followerID && e.following == followingID {
			d.edges = append(d.edges[:i], d.edges[i+1:]...)
			return false, nil
		}
	}
	d.edges = append(d.edges, edge{follower: followerID, following: followingID})
	return true, nil
}

func (d *Directory) IsFollowing(_ context.Context, followerID, followingID uint) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.edges {
		if e.follower == followerID && e.following == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (d *Directory) GetFollowerIDs(_ context.Context, userID uint) ([]uint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := []uint{}
	for _, e := range d.edges {
		if e.following == userID {
			ids = append(ids, e.follower)
		}
	}
	return ids, nil
}

func (d *Directory) GetFollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := []uint{}
	for _, e := range d.edges {
		if e.follower == userID {
			ids = append(ids, e.following)
		}
	}
	return ids, nil
}

func (d *Directory) findOne(match func(*models.User) bool, key string) (*models.User, error) {
	found := d.sorted(match)
	if len(found) == 0 {
		return nil, models.NewNotFoundError("User", key)
	}
	return &found[0], nil
}

// sorted returns copies of the matching users ordered by id.
func (d *Directory) sorted(match func(*models.User) bool) []models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []models.User{}
	for _, u := range d.users {
		if match(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *Directory) checkUniqueLocked(user *models.User) error {
	for id, u := range d.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email || u.Username == user.Username {
			return models.NewConflictError("User already exists")
		}
		if user.FirebaseUID != nil && u.FirebaseUID != nil && *u.FirebaseUID == *user.FirebaseUID {
			return models.NewConflictError("User already exists")
		}
	}
	return nil
}

func head(users []models.User, limit, def, max int) []models.User {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if len(users) > limit {
		return users[:limit]
	}
	return users
}
