package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kriya-gateway/internal/model"
	"kriya-gateway/pkg/apierror"
)

const userColumns = `id, phone_number, first_name, last_name, email, token_version,
	plane_user_id, plane_api_token, plane_email, plane_workspace_slug, plane_project_id,
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.NotFound("user not found", id)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phoneNumber string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phoneNumber)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.NotFound("user not found", phoneNumber)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by phone: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, phone_number, first_name, last_name, email, token_version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.PhoneNumber, u.FirstName, u.LastName, u.Email, u.TokenVersion, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, email = $4, updated_at = $5 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Email, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("user not found", u.ID)
	}
	return nil
}

// IncrementTokenVersion bumps the revocation counter. The increment runs
// inside the UPDATE so concurrent revocations cannot lose a step.
func (r *UserRepository) IncrementTokenVersion(ctx context.Context, userID string) (int64, error) {
	var version int64
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET token_version = token_version + 1, updated_at = $2
		 WHERE id = $1 RETURNING token_version`,
		userID, time.Now().UTC()).Scan(&version)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apierror.NotFound("user not found", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("increment token version: %w", err)
	}
	return version, nil
}

func (r *UserRepository) SavePlaneCredential(ctx context.Context, userID string, cred model.PlaneCredential) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET plane_user_id = $2, plane_api_token = $3, plane_email = $4,
		        plane_workspace_slug = $5, plane_project_id = $6, updated_at = $7
		 WHERE id = $1`,
		userID, cred.UserID, cred.APIToken, cred.Email, cred.WorkspaceSlug, cred.ProjectID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save plane credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("user not found", userID)
	}
	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.FirstName, &u.LastName, &u.Email, &u.TokenVersion,
		&u.Plane.UserID, &u.Plane.APIToken, &u.Plane.Email, &u.Plane.WorkspaceSlug, &u.Plane.ProjectID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}
