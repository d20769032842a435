package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spaceblog/internal/config"
	"spaceblog/internal/logger"
	"spaceblog/internal/models"
	"spaceblog/internal/services"
	"spaceblog/internal/utils"
	"spaceblog/internal/utils/helpers"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
}

type banRequest struct {
	Banned bool `json:"banned"`
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerRequest true "Данные регистрации"
// @Success 201 {string} string "Пользователь успешно зарегистрирован"
// @Failure 400 {string} string "Ошибка валидации"
// @Failure 409 {string} string "Имя пользователя или email уже заняты"
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в Register", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	logger.Log.Info("Регистрация пользователя", zap.String("username", req.Username), zap.String("email", req.Email))

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		helpers.Error(w, http.StatusBadRequest, "Имя пользователя и пароль обязательны")
		return
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
	}

	if err := h.authService.RegisterUser(r.Context(), user, req.Password); err != nil {
		logger.Log.Error("Ошибка регистрации пользователя", zap.Error(err))
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, "Пользователь успешно зарегистрирован")
}

// Login godoc
// @Summary Авторизация пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Данные для входа"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "Неверный логин или пароль"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в Login", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	logger.Log.Info("Попытка входа", zap.String("username", req.Username))

	cfg, _ := config.LoadConfig()
	accessTTL, _ := time.ParseDuration(cfg.AccessTokenTTL)
	refreshTTL, _ := time.ParseDuration(cfg.RefreshTokenTTL)

	access, refresh, user, err := h.authService.LoginUser(
		r.Context(),
		req.Username,
		req.Password,
		cfg.JWTSecret,
		accessTTL,
		refreshTTL,
	)
	if err != nil {
		logger.Log.Warn("Ошибка входа пользователя", zap.String("username", req.Username), zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	resp := loginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Username:     user.Username,
		FullName:     user.FullName,
		Role:         user.Role,
	}

	helpers.JSON(w, http.StatusOK, resp)
}

// Refresh godoc
// @Summary Обновление access-токена
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]string
// @Failure 401 {string} string "Недействительный refresh токен"
// @Router /refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		logger.Log.Warn("Отсутствует refresh token в Refresh")
		helpers.Error(w, http.StatusUnauthorized, "Отсутствует refresh token")
		return
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	cfg, _ := config.LoadConfig()
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		logger.Log.Warn("Неверный или просроченный refresh token", zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, "Неверный или просроченный refresh token")
		return
	}

	userID, ok1 := claims["user_id"].(float64)
	role, ok2 := claims["role"].(string)
	tokenType, _ := claims["token_type"].(string)
	if !ok1 || !ok2 || tokenType != "refresh" {
		logger.Log.Error("Неверный payload токена", zap.Any("claims", claims))
		helpers.Error(w, http.StatusUnauthorized, "Неверный payload токена")
		return
	}

	isValid, err := h.authService.ValidateRefreshToken(r.Context(), int(userID), tokenString)
	if err != nil || !isValid {
		logger.Log.Warn("Недействительный refresh token", zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, "Недействительный refresh token")
		return
	}

	accessTTL, _ := time.ParseDuration(cfg.AccessTokenTTL)
	accessToken, err := utils.GenerateToken(cfg.JWTSecret, int(userID), role, accessTTL, "access")
	if err != nil {
		logger.Log.Error("Ошибка генерации токена", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Ошибка генерации токена")
		return
	}

	logger.Log.Info("Токен обновлён", zap.Float64("user_id", userID))
	helpers.JSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// Logout godoc
// @Summary Выход (удаление refresh токена)
// @Tags auth
// @Security ApiKeyAuth
// @Success 200 {string} string "Выход выполнен"
// @Failure 401 {string} string "Невалидный токен"
// @Router /logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		logger.Log.Warn("Отсутствует refresh token в Logout")
		helpers.Error(w, http.StatusUnauthorized, "Отсутствует refresh token")
		return
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	cfg, _ := config.LoadConfig()
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		logger.Log.Warn("Невалидный refresh token при выходе", zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, "Невалидный refresh token")
		return
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		logger.Log.Error("Неверный payload при выходе", zap.Any("claims", claims))
		helpers.Error(w, http.StatusUnauthorized, "Неверный payload")
		return
	}

	if err := h.authService.Logout(r.Context(), int(userID), tokenString); err != nil {
		logger.Log.Error("Ошибка при удалении токена", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Ошибка при удалении токена")
		return
	}

	logger.Log.Info("Пользователь вышел", zap.Float64("user_id", userID))
	helpers.JSON(w, http.StatusOK, "Выход выполнен")
}

// Profile godoc
// @Summary Профиль текущего пользователя
// @Tags profile
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.UserProfileResponse
// @Failure 401 {string} string "Нет доступа"
// @Router /api/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromCtx(r)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Не удалось определить пользователя")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, models.UserProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		Email:     user.Email,
		Bio:       user.Bio,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
		IsBanned:  user.IsBanned,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// UpdateProfile godoc
// @Summary Обновление собственного профиля
// @Tags profile
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.UpdateUserRequest true "Что обновить"
// @Success 200 {string} string "Профиль обновлён"
// @Failure 400 {string} string "Ошибка валидации"
// @Router /api/profile [patch]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromCtx(r)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Не удалось определить пользователя")
		return
	}

	var input models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	// Роль через собственный профиль поменять нельзя.
	input.Role = nil

	if err := h.authService.UpdateUser(r.Context(), userID, &input); err != nil {
		writeError(w, err)
		return
	}

	logger.Log.Info("Профиль обновлён", zap.Int("user_id", userID))
	helpers.JSON(w, http.StatusOK, "Профиль обновлён")
}

// GetUsers godoc
// @Summary Получить всех пользователей
// @Tags admin-users
// @Security ApiKeyAuth
// @Produce json
// @Param page query int false "Номер страницы (начиная с 1)"
// @Param pageSize query int false "Размер страницы"
// @Success 200 {object} models.Paginated
// @Failure 403 {string} string "Доступ запрещён"
// @Router /api/admin/users [get]
func (h *AuthHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	users, total, err := h.authService.GetUsers(r.Context(), page, pageSize)
	if err != nil {
		logger.Log.Error("Ошибка получения пользователей", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Ошибка получения пользователей")
		return
	}

	helpers.JSON(w, http.StatusOK, models.NewPaginated(users, total, page, pageSize))
}

// GetUserByID godoc
// @Summary Получить пользователя по ID
// @Tags admin-users
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID пользователя"
// @Success 200 {object} models.User
// @Failure 400 {string} string "Невалидный ID"
// @Failure 404 {string} string "Пользователь не найден"
// @Router /api/admin/users/{id} [get]
func (h *AuthHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		logger.Log.Warn("Невалидный ID при получении пользователя", zap.String("id", idStr))
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Частичное обновление пользователя
// @Tags admin-users
// @Security ApiKeyAuth
// @Param id path int true "ID пользователя"
// @Accept json
// @Produce json
// @Param input body models.UpdateUserRequest true "Что обновить"
// @Success 200 {string} string "Пользователь обновлён"
// @Failure 400 {string} string "Ошибка валидации"
// @Failure 404 {string} string "Пользователь не найден"
// @Router /api/admin/users/{id} [patch]
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	var input models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Log.Warn("Невалидный JSON при обновлении пользователя", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.authService.UpdateUser(r.Context(), id, &input); err != nil {
		logger.Log.Error("Ошибка при обновлении пользователя", zap.Error(err), zap.Int("user_id", id))
		writeError(w, err)
		return
	}

	logger.Log.Info("Пользователь обновлён", zap.Int("user_id", id))
	helpers.JSON(w, http.StatusOK, "Пользователь обновлён")
}

// SetBanned godoc
// @Summary Блокировка или разблокировка пользователя
// @Tags admin-users
// @Security ApiKeyAuth
// @Param id path int true "ID пользователя"
// @Accept json
// @Param input body banRequest true "Статус блокировки"
// @Success 200 {string} string "Статус обновлён"
// @Failure 400 {string} string "Ошибка запроса"
// @Router /api/admin/users/{id}/ban [patch]
func (h *AuthHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.authService.SetBanned(r.Context(), id, req.Banned); err != nil {
		logger.Log.Error("Ошибка изменения бан-статуса", zap.Error(err), zap.Int("user_id", id))
		writeError(w, err)
		return
	}

	logger.Log.Info("Бан-статус пользователя изменён", zap.Int("user_id", id), zap.Bool("banned", req.Banned))
	helpers.JSON(w, http.StatusOK, "Статус обновлён")
}

// DeleteUser godoc
// @Summary Удалить пользователя
// @Tags admin-users
// @Security ApiKeyAuth
// @Param id path int true "ID пользователя"
// @Success 204 "Удалено"
// @Failure 400 {string} string "Невалидный ID"
// @Router /api/admin/users/{id} [delete]
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	if err := h.authService.DeleteUser(r.Context(), id); err != nil {
		logger.Log.Error("Ошибка удаления пользователя", zap.Error(err), zap.Int("user_id", id))
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
