package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolioapi/src/database"
	"portfolioapi/src/model"
	"portfolioapi/src/repository"
	"portfolioapi/src/security"

	"github.com/sirupsen/logrus"
)

type userStore interface {
	FindByUserName(ctx context.Context, userName string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// Issuer mints API tokens. The plaintext is printed once and never stored;
// only its SHA-256 hash is persisted on the user row. Re-issuing replaces the
// previous token.
type Issuer struct {
	users userStore
}

func (i *Issuer) Start(userName string) error {
	ctx := context.Background()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
		return err
	}

	i.users = repository.NewUserRepository()

	token, err := i.Issue(ctx, userName)
	if err != nil {
		logrus.WithError(err).Error("Failed to issue token")
		return err
	}

	fmt.Println(token)
	return nil
}

// Issue generates a fresh token for userName and stores its hash.
func (i *Issuer) Issue(ctx context.Context, userName string) (string, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return "", errors.New("user name is required")
	}

	user, err := i.users.FindByUserName(ctx, userName)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user %s not found", userName)
	}

	token := security.GenerateToken()
	user.APITokenHash = security.HashToken(token)
	user.UpdatedAt = time.Now()

	if err := i.users.Update(ctx, user); err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"user_name": user.UserName,
	}).Info("API token issued")

	return token, nil
}
