package routes

import (
	"net/http"

	"spaceblog/internal/handlers"
	"spaceblog/internal/middleware"
	"spaceblog/internal/models"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	articleHandler *handlers.ArticleHandler,
	commentHandler *handlers.CommentHandler,
	tagHandler *handlers.TagHandler,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recoverer)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")
	api.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	// Публичное чтение: токен не обязателен, но если он есть,
	// модерация видит черновики и неодобренные комментарии.
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuth)

	public.HandleFunc("/articles", articleHandler.GetAll).Methods("GET")
	public.HandleFunc("/articles/slug/{slug}", articleHandler.GetBySlug).Methods("GET")
	public.HandleFunc("/articles/{id:[0-9]+}", articleHandler.GetByID).Methods("GET")
	public.HandleFunc("/articles/{articleId:[0-9]+}/comments", commentHandler.ListByArticle).Methods("GET")

	public.HandleFunc("/tags", tagHandler.GetAll).Methods("GET")
	public.HandleFunc("/tags/slug/{slug}", tagHandler.GetBySlug).Methods("GET")
	public.HandleFunc("/tags/{id:[0-9]+}", tagHandler.GetByID).Methods("GET")
	public.HandleFunc("/tags/{id:[0-9]+}/articles", tagHandler.Articles).Methods("GET")

	public.HandleFunc("/comments/{id:[0-9]+}", commentHandler.GetByID).Methods("GET")

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth)
	protected.Use(middleware.AdminFastLane)

	protected.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	protected.HandleFunc("/profile", authHandler.UpdateProfile).Methods("PATCH")

	protected.HandleFunc("/articles", articleHandler.Create).Methods("POST")
	protected.HandleFunc("/articles/preview", articleHandler.Preview).Methods("POST")
	protected.HandleFunc("/articles/{id:[0-9]+}", articleHandler.Update).Methods("PATCH")
	protected.HandleFunc("/articles/{id:[0-9]+}", articleHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/articles/{id:[0-9]+}/tags", articleHandler.SetTags).Methods("PUT")

	protected.HandleFunc("/comments", commentHandler.Create).Methods("POST")
	protected.HandleFunc("/comments/{id:[0-9]+}", commentHandler.Update).Methods("PATCH")
	protected.HandleFunc("/comments/{id:[0-9]+}", commentHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/tags", tagHandler.Create).Methods("POST")
	protected.HandleFunc("/tags/{id:[0-9]+}", tagHandler.Update).Methods("PATCH")

	// --- Модерация (admin проходит через фастлейн) ---
	moderation := protected.PathPrefix("").Subrouter()
	moderation.Use(middleware.AnyRole(models.RoleAdmin, models.RoleModerator))

	moderation.HandleFunc("/comments", commentHandler.GetAll).Methods("GET")
	moderation.HandleFunc("/comments/{id:[0-9]+}/approve", commentHandler.Approve).Methods("POST")
	moderation.HandleFunc("/comments/{id:[0-9]+}/block", commentHandler.Block).Methods("POST")
	moderation.HandleFunc("/articles/{id:[0-9]+}/publish", articleHandler.SetPublish).Methods(http.MethodPatch, http.MethodOptions)

	// --- Только администратор ---
	adminOnly := protected.PathPrefix("").Subrouter()
	adminOnly.Use(middleware.OnlyRole(models.RoleAdmin))

	adminOnly.HandleFunc("/tags/{id:[0-9]+}", tagHandler.Delete).Methods("DELETE")
	adminOnly.HandleFunc("/tags/{id:[0-9]+}/active", tagHandler.SetActive).Methods("PATCH")

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.OnlyRole(models.RoleAdmin))

	admin.HandleFunc("/users", authHandler.GetUsers).Methods("GET")
	admin.HandleFunc("/users/{id}", authHandler.GetUserByID).Methods("GET")
	admin.HandleFunc("/users/{id}", authHandler.UpdateUser).Methods("PATCH")
	admin.HandleFunc("/users/{id}", authHandler.DeleteUser).Methods("DELETE")
	admin.HandleFunc("/users/{id}/ban", authHandler.SetBanned).Methods("PATCH")
}
