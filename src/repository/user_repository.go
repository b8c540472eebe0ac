package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"portfolioapi/src/database"
	"portfolioapi/src/model"
)

// UserRepository handles read/write operations for user accounts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository instance using the main
// read/write database.
func NewUserRepository() *UserRepository {
	logger.WithField("component", "UserRepository").
		Info("Creating new UserRepository with MainDB")

	return &UserRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *UserRepository) WithDB(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUserName fetches a user by the unique user name.
// Returns (nil, nil) if no such user exists.
func (r *UserRepository) FindByUserName(
	ctx context.Context,
	userName string,
) (*model.User, error) {

	logger.WithFields(map[string]interface{}{
		"repo":      "UserRepository",
		"op":        "FindByUserName",
		"user_name": userName,
	}).Debug("Fetching user by user name")

	var user model.User

	err := r.db.WithContext(ctx).
		Where("user_name = ?", userName).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":      "UserRepository",
			"op":        "FindByUserName",
			"user_name": userName,
		}).WithError(err).Error("Failed to fetch user by user name")

		return nil, err
	}

	return &user, nil
}

// FindByAPITokenHash resolves the user owning the API token with the given
// SHA-256 hash. Returns (nil, nil) for unknown hashes; the auth middleware
// maps that to 401.
func (r *UserRepository) FindByAPITokenHash(
	ctx context.Context,
	tokenHash string,
) (*model.User, error) {

	logger.WithFields(map[string]interface{}{
		"repo": "UserRepository",
		"op":   "FindByAPITokenHash",
	}).Debug("Resolving user by API token hash")

	var user model.User

	err := r.db.WithContext(ctx).
		Where("api_token_hash = ?", tokenHash).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "UserRepository",
			"op":   "FindByAPITokenHash",
		}).WithError(err).Error("Failed to resolve user by API token hash")

		return nil, err
	}

	return &user, nil
}

// Create inserts a new user account.
func (r *UserRepository) Create(
	ctx context.Context,
	user *model.User,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":      "UserRepository",
		"op":        "Create",
		"user_name": user.UserName,
	}).Debug("Creating new user")

	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":      "UserRepository",
			"op":        "Create",
			"user_name": user.UserName,
		}).WithError(err).Error("Failed to create user")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "UserRepository",
		"op":      "Create",
		"user_id": user.ID,
	}).Info("User created successfully")

	return nil
}

// Update saves changes to an existing user.
func (r *UserRepository) Update(
	ctx context.Context,
	user *model.User,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "UserRepository",
		"op":      "Update",
		"user_id": user.ID,
	}).Debug("Updating user")

	err := r.db.WithContext(ctx).Save(user).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "UserRepository",
			"op":      "Update",
			"user_id": user.ID,
		}).WithError(err).Error("Failed to update user")

		return err
	}

	return nil
}
