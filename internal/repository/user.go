package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"spaceblog/internal/logger"
	"spaceblog/internal/models"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, full_name, email, bio, avatar_url, password_hash, role, is_banned, banned_at, created_at, updated_at`

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	logger.Log.Info("Создание пользователя (repo)", zap.String("username", user.Username), zap.String("email", user.Email))
	query := `
	INSERT INTO users (username, full_name, email, bio, avatar_url, password_hash, role)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`
	return r.db.QueryRow(ctx, query,
		user.Username,
		user.FullName,
		user.Email,
		user.Bio,
		user.AvatarURL,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID)
}

func (r *UserRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, username).Scan(&exists)
	if err != nil {
		logger.Log.Error("Ошибка проверки username (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		logger.Log.Error("Ошибка проверки email (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.Email,
		&user.Bio,
		&user.AvatarURL,
		&user.PasswordHash,
		&user.Role,
		&user.IsBanned,
		&user.BannedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := r.scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		logger.Log.Warn("Пользователь не найден по username (repo)", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		logger.Log.Warn("Пользователь не найден по id (repo)", zap.Int("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetAllUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) UpdateUserFields(ctx context.Context, id int, input *models.UpdateUserRequest) error {
	set := []string{}
	args := []interface{}{}
	i := 1

	add := func(col string, val interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}

	if input.FullName != nil {
		add("full_name", *input.FullName)
	}
	if input.Email != nil {
		add("email", *input.Email)
	}
	if input.Bio != nil {
		add("bio", *input.Bio)
	}
	if input.AvatarURL != nil {
		add("avatar_url", *input.AvatarURL)
	}
	if input.Role != nil {
		add("role", *input.Role)
	}

	if len(set) == 0 {
		return nil
	}

	set = append(set, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(set, ", "), i)
	args = append(args, id)

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		logger.Log.Error("Ошибка обновления пользователя (repo)", zap.Int("user_id", id), zap.Error(err))
	}
	return err
}

func (r *UserRepository) SetBanned(ctx context.Context, id int, banned bool) error {
	const query = `
		UPDATE users
		SET is_banned = $2,
		    banned_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, banned)
	if err != nil {
		logger.Log.Error("Ошибка изменения бана пользователя (repo)", zap.Int("user_id", id), zap.Error(err))
	}
	return err
}

func (r *UserRepository) DeleteUserByID(ctx context.Context, userID int) error {
	logger.Log.Info("Удаление пользователя (repo)", zap.Int("user_id", userID))
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}

// GetRoles — capability для предикатов прав: роли пользователя как набор.
func (r *UserRepository) GetRoles(ctx context.Context, userID int) ([]string, error) {
	var role string
	if err := r.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role); err != nil {
		return nil, err
	}
	return []string{role}, nil
}

// ----- refresh-токены -----

func (r *UserRepository) SaveRefreshToken(ctx context.Context, userID int, token string) error {
	query := `INSERT INTO refresh_tokens (user_id, token) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, userID, token)
	if err != nil {
		logger.Log.Error("Ошибка сохранения refresh токена (repo)", zap.Error(err))
	}
	return err
}

func (r *UserRepository) IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE user_id = $1 AND token = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID, token).Scan(&exists)
	if err != nil {
		logger.Log.Error("Ошибка проверки refresh токена (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) DeleteRefreshToken(ctx context.Context, userID int, token string) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2`
	_, err := r.db.Exec(ctx, query, userID, token)
	if err != nil {
		logger.Log.Error("Ошибка удаления refresh токена (repo)", zap.Error(err))
	}
	return err
}
