package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/linemk/ristorante/internal/app"
	"github.com/linemk/ristorante/internal/app/handlers"
	"github.com/linemk/ristorante/internal/assets"
	"github.com/linemk/ristorante/internal/config"
	"github.com/linemk/ristorante/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/ristorante/internal/lib/logger"
	"github.com/linemk/ristorante/internal/lib/logger/handlers/urllog"
	"github.com/linemk/ristorante/internal/service"
	"github.com/linemk/ristorante/internal/storage"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// суммы и цены отдаются клиентам числами, а не строками
	decimal.MarshalJSONWithoutQuotes = true

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	menuRepo := storage.NewMenuRepository(application.DB)

	assetStore := assets.NewHTTPStore(cfg.Assets.BaseURL, cfg.Assets.Timeout)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	orderService := service.NewOrderService(application.Logger, application.DB, orderRepo)
	categoryService := service.NewCategoryService(application.Logger, categoryRepo, menuRepo)
	menuService := service.NewMenuService(application.Logger, menuRepo, categoryRepo, assetStore)

	// публичные эндпоинты
	router.Post("/api/auth/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(application.Logger, authService))
	router.Get("/menu", handlers.ListMenuHandler(application.Logger, menuService))
	router.Get("/categories", handlers.ListCategoriesHandler(application.Logger, categoryService))
	// отслеживание заказа публичное: клиент опрашивает его по таймеру
	router.Get("/orders/track/{orderId}", handlers.TrackOrderHandler(application.Logger, orderService))

	// оформление заказа: токен не обязателен, но если он есть — заказ
	// привязывается к пользователю
	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewOptionalJWTMiddleware())
		r.Post("/orders", handlers.CreateOrderHandler(application.Logger, orderService))
	})

	jwtMW := jwtmiddleware.NewJWTMiddleware()

	// эндпоинты аутентифицированных пользователей
	router.Group(func(r chi.Router) {
		r.Use(jwtMW)
		r.Get("/orders/my-history", handlers.MyHistoryHandler(application.Logger, orderService))
	})

	// эндпоинты персонала: очередь, статусы, меню и разделы
	router.Group(func(r chi.Router) {
		r.Use(jwtMW)
		r.Use(jwtmiddleware.RequireStaff)
		r.Get("/orders/queue", handlers.QueueHandler(application.Logger, orderService))
		r.Put("/orders/{orderId}/status", handlers.UpdateStatusHandler(application.Logger, orderService))
		r.Post("/categories", handlers.CreateCategoryHandler(application.Logger, categoryService))
		r.Put("/categories/{categoryId}", handlers.UpdateCategoryHandler(application.Logger, categoryService))
		r.Delete("/categories/{categoryId}", handlers.DeleteCategoryHandler(application.Logger, categoryService))
		r.Post("/menu", handlers.CreateMenuItemHandler(application.Logger, menuService))
		r.Put("/menu/{itemId}", handlers.UpdateMenuItemHandler(application.Logger, menuService))
		r.Delete("/menu/{itemId}", handlers.DeleteMenuItemHandler(application.Logger, menuService))
		r.Post("/menu/{itemId}/image", handlers.UploadItemImageHandler(application.Logger, menuService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
