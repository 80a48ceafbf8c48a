package usecase

import (
	"context"
	"errors"
	"strings"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase mirrors identities from the upstream gateway into local users.
type UserUseCase interface {
	Sync(ctx context.Context, actor model.Actor) (*model.User, error)
	Get(ctx context.Context, extUserID string) (*model.User, error)
}

type userUC struct {
	users    repository.UserRepository
	tm       repository.TransactionManager
	adminIDs map[string]struct{}
	log      *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, adminIDs []string, logger *zerolog.Logger) *userUC {
	ids := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids[id] = struct{}{}
		}
	}
	return &userUC{
		users:    users,
		tm:       tm,
		adminIDs: ids,
		log:      logger,
	}
}

func (u *userUC) Sync(ctx context.Context, actor model.Actor) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Sync")()

	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	_, isAdmin := u.adminIDs[actor.ExtUserID]

	var user *model.User
	// find and save run as one unit so two first requests cannot both insert
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByExtID(ctx, tx, actor.ExtUserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if usr != nil {
			changed := usr.Refresh(actor.Username, actor.Email)
			if isAdmin && usr.Role != model.RoleAdmin {
				usr.Role = model.RoleAdmin
				changed = true
			}
			if changed {
				if err := u.users.Save(ctx, tx, usr); err != nil {
					u.log.Error().Err(err).Msg("failed to update user")
					return err
				}
			}
			user = usr
			return nil
		}

		nu, err := model.NewUser(actor.ExtUserID, actor.Username, actor.Email)
		if err != nil {
			return err
		}
		if isAdmin {
			nu.Role = model.RoleAdmin
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		logging.With(ctx, u.log).Info().Str("role", string(nu.Role)).Msg("user registered")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUC) Get(ctx context.Context, extUserID string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Get")()
	if extUserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return u.users.FindByExtID(ctx, repository.NoTX, extUserID)
}
