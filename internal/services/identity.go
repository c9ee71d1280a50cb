package services

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/nano-feed/backend/internal/auth"
	"github.com/anonto42/nano-feed/backend/internal/media"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/internal/validators"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("layer", "service")

const (
	minSearchQueryLen = 2
	maxBioLen         = 500
	MaxAvatarBytes    = 5 << 20
)

// IdentityService owns users and the follow graph.
type IdentityService struct {
	users   repositories.UserRepository
	follows repositories.FollowRepository
	hasher  auth.Hasher
	store   media.Store
}

func NewIdentityService(
	users repositories.UserRepository,
	follows repositories.FollowRepository,
	hasher auth.Hasher,
	store media.Store,
) *IdentityService {
	return &IdentityService{users: users, follows: follows, hasher: hasher, store: store}
}

func (s *IdentityService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// FindByHandle looks a user up by email when handle contains '@' and by
// username otherwise.
func (s *IdentityService) FindByHandle(ctx context.Context, handle string) (*models.User, error) {
	handle = strings.TrimSpace(handle)
	if strings.Contains(handle, "@") {
		return s.users.GetUserByEmail(ctx, strings.ToLower(handle))
	}
	return s.users.GetUserByUsername(ctx, handle)
}

func (s *IdentityService) Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchQueryLen {
		return nil, models.NewValidationError("Search query must be at least 2 characters")
	}
	return s.users.SearchUsers(ctx, query, excludeID, limit)
}

// Follow toggles actorID following targetID and reports whether actorID
// follows targetID afterwards.
func (s *IdentityService) Follow(ctx context.Context, actorID, targetID uint) (bool, error) {
	if actorID == targetID {
		return false, models.NewInvalidOperationError("You cannot follow yourself")
	}
	return s.follows.ToggleFollow(ctx, actorID, targetID)
}

func (s *IdentityService) FollowsUser(ctx context.Context, followerID, followingID uint) (bool, error) {
	if followerID == followingID {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, followerID, followingID)
}

func (s *IdentityService) Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	return s.users.GetSuggestions(ctx, userID, limit)
}

// Profile returns userID's account with its follow graph as seen by viewerID.
func (s *IdentityService) Profile(ctx context.Context, viewerID, userID uint) (*models.Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.GetFollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		User:           *user,
		Followers:      followers,
		Following:      following,
		FollowersCount: len(followers),
		FollowingCount: len(following),
		IsFollowing:    lo.Contains(followers, viewerID),
	}, nil
}

// Register creates a password account. Email and username must be unused.
func (s *IdentityService) Register(ctx context.Context, in models.RegisterRequest) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validators.Struct(&in); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, in.Email, in.Username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FullName:  in.FullName,
		Password:  hash,
		AvatarURL: defaultAvatar(in.FullName),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if user.Password == "" || !s.hasher.Compare(user.Password, password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// LoginWithFirebase returns the account linked to id, linking an existing
// account with the same email or creating a new one when needed.
func (s *IdentityService) LoginWithFirebase(ctx context.Context, id *auth.FirebaseIdentity, username string) (*models.User, error) {
	user, err := s.users.GetUserByFirebaseUID(ctx, id.UID)
	if err == nil {
		return user, nil
	}
	if !models.IsNotFound(err) {
		return nil, err
	}
	if id.Email == "" {
		return nil, models.NewValidationError("Firebase account has no email")
	}

	uid := id.UID
	user, err = s.users.GetUserByEmail(ctx, strings.ToLower(id.Email))
	switch {
	case err == nil:
		user.FirebaseUID = &uid
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	case !models.IsNotFound(err):
		return nil, err
	}

	if username == "" {
		username = strings.SplitN(id.Email, "@", 2)[0]
	}
	fullName := id.Name
	if fullName == "" {
		fullName = username
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, models.NewConflictError("Username already taken")
	}
	user = &models.User{
		Username:    username,
		Email:       strings.ToLower(id.Email),
		FullName:    fullName,
		FirebaseUID: &uid,
		AvatarURL:   defaultAvatar(fullName),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResolveFirebaseUID maps a Firebase UID to the linked account's id.
func (s *IdentityService) ResolveFirebaseUID(ctx context.Context, uid string) (uint, error) {
	user, err := s.users.GetUserByFirebaseUID(ctx, uid)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// UpdateProfile applies the fields set in in. Unset fields keep their value.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID uint, in models.UpdateProfileRequest) (*models.User, error) {
	if err := validators.Struct(&in); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username != user.Username {
			if utf8.RuneCountInString(username) < 3 {
				return nil, models.NewValidationError("username must be at least 3 characters")
			}
			if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
				return nil, models.NewConflictError("Username already taken")
			} else if !models.IsNotFound(err) {
				return nil, err
			}
			user.Username = username
		}
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("bio must be at most 500 characters")
		}
		user.Bio = *in.Bio
	}
	if in.Location != nil {
		user.Location = strings.TrimSpace(*in.Location)
	}
	if in.Website != nil {
		user.Website = strings.TrimSpace(*in.Website)
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAvatar stores data as the user's avatar. Only images up to
// MaxAvatarBytes are accepted.
func (s *IdentityService) UpdateAvatar(ctx context.Context, userID uint, data []byte, contentType string) (*models.User, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("Please upload an image")
	}
	if len(data) > MaxAvatarBytes {
		return nil, models.NewValidationError("Avatar must be at most 5MB")
	}
	kind, mime := media.Detect(data)
	if kind != media.KindImage {
		return nil, models.NewValidationError("Only image files are allowed")
	}
	// browsers often send application/octet-stream for dropped files
	if !strings.HasPrefix(contentType, "image/") {
		contentType = mime
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	avatarURL, err := s.store.Save(ctx, data, contentType)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	user.AvatarURL = avatarURL
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *IdentityService) ensureAvailable(ctx context.Context, email, username string) error {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return models.NewConflictError("Email already registered")
	} else if !models.IsNotFound(err) {
		return err
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return models.NewConflictError("Username already taken")
	} else if !models.IsNotFound(err) {
		return err
	}
	return nil
}

func defaultAvatar(fullName string) string {
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(fullName)
}

// compacts loads the summaries of the given users keyed by id.
func compacts(ctx context.Context, users repositories.UserRepository, ids []uint) (map[uint]*models.UserCompact, error) {
	found, err := users.GetUsersByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[uint]*models.UserCompact, len(found))
	for i := range found {
		out[found[i].ID] = found[i].ToCompact()
	}
	return out, nil
}
