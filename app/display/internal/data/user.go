package data

import (
	"context"
	"database/sql"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/intel_radar/app/display/internal/biz"
)

type userRepo struct {
	data *Data
	log  *log.Helper
}

func NewUserRepo(data *Data, logger log.Logger) biz.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *userRepo) CreateUser(ctx context.Context, u *biz.User) error {
	_, err := r.data.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, organization)
		VALUES ($1, $2, $3)`,
		u.Username, u.PasswordHash, u.Organization)
	return err
}

func (r *userRepo) GetUserByUsername(ctx context.Context, username string) (*biz.User, error) {
	var u biz.User
	err := r.data.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, COALESCE(organization, '')
		FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Organization)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("USER_NOT_FOUND", "user not found")
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpdateUserOrganization(ctx context.Context, id int, organization string) error {
	_, err := r.data.db.ExecContext(ctx, `
		UPDATE users SET organization = $1 WHERE id = $2`, organization, id)
	return err
}
