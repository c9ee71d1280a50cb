package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultSearchLimit      = 20
	MaxSearchLimit          = 50
	DefaultSuggestionsLimit = 10
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SearchUsers(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error)
	GetSuggestions(ctx context.Context, userID uint, limit int) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return mapError(r.db.WithContext(ctx).Create(user).Error, "User", user.Username)
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapError(err, "User", id)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, mapError(err, "User", email)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, mapError(err, "User", username)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, mapError(err, "User", firebaseUID)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return mapError(r.db.WithContext(ctx).Save(user).Error, "User", user.ID)
}

// SearchUsers matches query as a case-insensitive substring of username or
// full name. LIKE wildcards in query match literally.
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(full_name) LIKE ? ESCAPE '\')`, pattern, pattern).
		Where("id <> ?", excludeID).
		Order("id ASC").
		Limit(clampLimit(limit, DefaultSearchLimit, MaxSearchLimit)).
		Find(&users).Error
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

// GetSuggestions lists users that userID does not follow yet, most followed
// first.
func (r *PostgresUserRepository) GetSuggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	users := []models.User{}
	err := db.
		Where("id <> ?", userID).
		Where("id NOT IN (?)", db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID)).
		Order("(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id) DESC").
		Order("id ASC").
		Limit(clampLimit(limit, DefaultSuggestionsLimit, MaxSearchLimit)).
		Find(&users).Error
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
