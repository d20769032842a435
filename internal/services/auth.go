package services

import (
	"context"
	"fmt"
	"time"

	"spaceblog/internal/apperr"
	"spaceblog/internal/logger"
	"spaceblog/internal/models"
	"spaceblog/internal/utils"

	"go.uber.org/zap"
)

type AuthService struct {
	repo UserRepo
}

func NewAuthService(repo UserRepo) *AuthService {
	return &AuthService{repo: repo}
}

type UserRepo interface {
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetAllUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	UpdateUserFields(ctx context.Context, id int, input *models.UpdateUserRequest) error
	SetBanned(ctx context.Context, id int, banned bool) error
	DeleteUserByID(ctx context.Context, userID int) error
	SaveRefreshToken(ctx context.Context, userID int, token string) error
	IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID int, token string) error
}

func (s *AuthService) RegisterUser(ctx context.Context, input *models.User, plainPassword string) error {
	logger.Log.Info("Регистрация пользователя (service)", zap.String("username", input.Username), zap.String("email", input.Email))
	if exists, err := s.repo.IsUsernameTaken(ctx, input.Username); exists || err != nil {
		if err != nil {
			logger.Log.Error("Ошибка проверки username", zap.Error(err))
		}
		return fmt.Errorf("%w: имя пользователя уже занято", apperr.ErrConflict)
	}
	if exists, err := s.repo.IsEmailTaken(ctx, input.Email); exists || err != nil {
		if err != nil {
			logger.Log.Error("Ошибка проверки email", zap.Error(err))
		}
		return fmt.Errorf("%w: адрес электронной почты уже зарегистрирован", apperr.ErrConflict)
	}

	hashed, err := utils.HashPassword(plainPassword)
	if err != nil {
		logger.Log.Error("Ошибка хеширования пароля", zap.Error(err))
		return err
	}

	input.PasswordHash = hashed
	input.Role = models.RoleUser

	if err := s.repo.CreateUser(ctx, input); err != nil {
		logger.Log.Error("Ошибка создания пользователя", zap.Error(err))
		return err
	}
	logger.Log.Info("Пользователь зарегистрирован (service)", zap.String("username", input.Username))
	return nil
}

func (s *AuthService) LoginUser(
	ctx context.Context,
	username, password, jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) (string, string, *models.User, error) {
	logger.Log.Info("Попытка входа (service)", zap.String("username", username))
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Warn("Пользователь не найден (service)", zap.String("username", username), zap.Error(err))
		return "", "", nil, fmt.Errorf("%w: пользователь не найден", apperr.ErrNotFound)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.String("username", username))
		return "", "", nil, fmt.Errorf("%w: неверный пароль", apperr.ErrForbidden)
	}

	if user.IsBanned {
		logger.Log.Warn("Вход заблокированного пользователя (service)", zap.String("username", username))
		return "", "", nil, fmt.Errorf("%w: учётная запись заблокирована", apperr.ErrForbidden)
	}

	accessToken, err := utils.GenerateToken(jwtSecret, user.ID, user.Role, accessTTL, "access")
	if err != nil {
		logger.Log.Error("Ошибка генерации access-токена", zap.Error(err))
		return "", "", nil, err
	}

	refreshToken, err := utils.GenerateToken(jwtSecret, user.ID, user.Role, refreshTTL, "refresh")
	if err != nil {
		logger.Log.Error("Ошибка генерации refresh-токена", zap.Error(err))
		return "", "", nil, err
	}

	if err := s.repo.SaveRefreshToken(ctx, user.ID, refreshToken); err != nil {
		logger.Log.Error("Ошибка сохранения refresh-токена", zap.Error(err))
		return "", "", nil, err
	}

	logger.Log.Info("Вход выполнен (service)", zap.String("username", username), zap.String("role", user.Role))
	return accessToken, refreshToken, user, nil
}

func (s *AuthService) ValidateRefreshToken(ctx context.Context, userID int, token string) (bool, error) {
	return s.repo.IsRefreshTokenValid(ctx, userID, token)
}

func (s *AuthService) Logout(ctx context.Context, userID int, token string) error {
	logger.Log.Info("Выход пользователя (service)", zap.Int("user_id", userID))
	return s.repo.DeleteRefreshToken(ctx, userID, token)
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: пользователь не найден", apperr.ErrNotFound)
	}
	return user, nil
}

func (s *AuthService) GetUsers(ctx context.Context, page, pageSize int) ([]*models.User, int, error) {
	offset := (page - 1) * pageSize
	return s.repo.GetAllUsersPaginated(ctx, pageSize, offset)
}

func (s *AuthService) UpdateUser(ctx context.Context, id int, input *models.UpdateUserRequest) error {
	if input.Role != nil {
		switch *input.Role {
		case models.RoleAdmin, models.RoleModerator, models.RoleUser:
		default:
			return fmt.Errorf("%w: неизвестная роль %q", apperr.ErrValidation, *input.Role)
		}
	}
	return s.repo.UpdateUserFields(ctx, id, input)
}

func (s *AuthService) SetBanned(ctx context.Context, id int, banned bool) error {
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return fmt.Errorf("%w: пользователь не найден", apperr.ErrNotFound)
	}
	logger.Log.Info("Изменение бан-статуса (service)", zap.Int("user_id", id), zap.Bool("banned", banned))
	return s.repo.SetBanned(ctx, id, banned)
}

func (s *AuthService) DeleteUser(ctx context.Context, id int) error {
	return s.repo.DeleteUserByID(ctx, id)
}
