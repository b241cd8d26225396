package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/youredik/kubik/internal/config"
	"github.com/youredik/kubik/internal/es"
	"github.com/youredik/kubik/internal/handlers"
	"github.com/youredik/kubik/internal/imagestore"
	"github.com/youredik/kubik/internal/logging"
	authmw "github.com/youredik/kubik/internal/middleware/auth"
	"github.com/youredik/kubik/internal/mykafka"
	"github.com/youredik/kubik/internal/notify"
	httpserver "github.com/youredik/kubik/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer, err = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		if err != nil {
			log.Fatal(err)
		}
	}

	var searchHandler *handlers.SearchHandler
	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "product"}
	}

	images := imagestore.New(configuration.UPLOAD_DIR)
	notifier := notify.NewTelegram(configuration.TELEGRAM_BOT_TOKEN, configuration.TELEGRAM_CHAT_ID)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	e.Static("/uploads", configuration.UPLOAD_DIR)

	deps := httpserver.Deps{
		DB:          db,
		AuthHandler: &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
		ProductHandler: &handlers.ProductHandler{
			DB:       db,
			Producer: producer,
			ES:       esClient,
			Index:    "product",
			Images:   images,
		},
		SizeHandler: &handlers.SizeHandler{DB: db},
		OrderHandler: &handlers.OrderHandler{
			DB:                     db,
			Producer:               producer,
			Notifier:               notifier,
			RequireDeliveryAddress: configuration.REQUIRE_DELIVERY_ADDRESS,
		},
		UploadHandler: &handlers.UploadHandler{Images: images},
		SearchHandler: searchHandler,
		TokenService:  &authmw.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.LISTEN_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
