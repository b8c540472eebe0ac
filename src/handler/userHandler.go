package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"portfolioapi/src/auth"
	"portfolioapi/src/model"
	"portfolioapi/src/repository"
	"portfolioapi/src/security"
)

type userRegistrar interface {
	FindByUserName(ctx context.Context, userName string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

type userUpdater interface {
	Update(ctx context.Context, user *model.User) error
}

// RegisterUserHandler returns the public registration handler. Passwords are
// bcrypt-hashed before the user row is written; the response never carries
// credential fields.
func RegisterUserHandler(users userRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.CreateUserPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid register user payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		userName := strings.TrimSpace(payload.UserName)
		if userName == "" || payload.Password == "" {
			http.Error(w, "user_name and password are required", http.StatusBadRequest)
			return
		}

		existing, err := users.FindByUserName(r.Context(), userName)
		if err != nil {
			logger.WithError(err).Error("failed to check user name availability")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if existing != nil {
			http.Error(w, "user_name already taken", http.StatusConflict)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(payload.Password), security.GetConfig().BcryptCost)
		if err != nil {
			logger.WithError(err).Error("failed to hash password")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		user := &model.User{
			UserName:  userName,
			Email:     strings.TrimSpace(payload.Email),
			FirstName: strings.TrimSpace(payload.FirstName),
			LastName:  strings.TrimSpace(payload.LastName),
			Password:  string(hashedPassword),
		}

		if err := users.Create(r.Context(), user); err != nil {
			logger.WithError(err).Error("failed to create user")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(user.ToResponse()); err != nil {
			logger.WithError(err).Error("failed to encode user response")
		}
	}
}

// UpdateUserHandler returns the profile update handler for the authenticated
// user.
func UpdateUserHandler(users userUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			logger.Warn("user not found in context during profile update")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload model.UpdateUserPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid user update payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.Email != nil {
			user.Email = strings.TrimSpace(*payload.Email)
		}
		if payload.FirstName != nil {
			user.FirstName = strings.TrimSpace(*payload.FirstName)
		}
		if payload.LastName != nil {
			user.LastName = strings.TrimSpace(*payload.LastName)
		}
		if payload.Bio != nil {
			user.Bio = strings.TrimSpace(*payload.Bio)
		}
		if payload.AvatarURL != nil {
			user.AvatarURL = strings.TrimSpace(*payload.AvatarURL)
		}

		user.UpdatedAt = time.Now()

		if err := users.Update(r.Context(), user); err != nil {
			logger.WithError(err).Error("failed to update user profile")
			http.Error(w, "Unable to update profile", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(user.ToResponse()); err != nil {
			logger.WithError(err).Error("failed to encode user response")
		}
	}
}

// ChangePasswordHandler returns the password change handler for the
// authenticated user. The current password is verified before the new one is
// hashed and stored.
func ChangePasswordHandler(users userUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			logger.Warn("user not found in context during password change")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload model.ChangePasswordPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid change password payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.CurrentPassword == "" || payload.NewPassword == "" {
			http.Error(w, "Current and new passwords are required", http.StatusBadRequest)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.CurrentPassword)); err != nil {
			logger.WithField("user_id", user.ID).Warn("current password mismatch")
			http.Error(w, "Invalid current password", http.StatusUnauthorized)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), security.GetConfig().BcryptCost)
		if err != nil {
			logger.WithError(err).Error("failed to hash new password")
			http.Error(w, "Unable to update password", http.StatusInternalServerError)
			return
		}

		user.Password = string(hashedPassword)

		if err := users.Update(r.Context(), user); err != nil {
			logger.WithError(err).Error("failed to update user password")
			http.Error(w, "Unable to update password", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "password updated"}); err != nil {
			logger.WithError(err).Error("failed to encode change password response")
		}
	}
}

// DefaultRegisterUserHandler wires the handler to the production repository implementation.
func DefaultRegisterUserHandler() http.HandlerFunc {
	return RegisterUserHandler(repository.NewUserRepository())
}

// DefaultUpdateUserHandler wires the handler to the production repository implementation.
func DefaultUpdateUserHandler() http.HandlerFunc {
	return UpdateUserHandler(repository.NewUserRepository())
}

// DefaultChangePasswordHandler wires the handler to the production repository implementation.
func DefaultChangePasswordHandler() http.HandlerFunc {
	return ChangePasswordHandler(repository.NewUserRepository())
}
