package app

import (
	"spaceblog/internal/config"
	"spaceblog/internal/db"
	"spaceblog/internal/handlers"
	"spaceblog/internal/repository"
	"spaceblog/internal/routes"
	"spaceblog/internal/services"

	"github.com/gorilla/mux"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	if err := db.RunMigrations(cfg); err != nil {
		return nil, err
	}

	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	articleRepo := repository.NewArticleRepo(conn)
	articleTagRepo := repository.NewArticleTagRepo(conn)
	commentRepo := repository.NewCommentRepo(conn)
	tagRepo := repository.NewTagRepo(conn)

	// Сервисы
	authService := services.NewAuthService(userRepo)
	articleService := services.NewArticleService(articleRepo, articleTagRepo, commentRepo)
	commentService := services.NewCommentService(commentRepo, articleRepo, userRepo, userRepo, cfg.CommentAutoApprove)
	tagService := services.NewTagService(tagRepo)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService)
	articleHandler := handlers.NewArticleHandler(articleService)
	commentHandler := handlers.NewCommentHandler(commentService)
	tagHandler := handlers.NewTagHandler(tagService, articleService)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, articleHandler, commentHandler, tagHandler)

	return router, nil
}
