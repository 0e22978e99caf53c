// Package main library service API.
//
// @title           Library Service API
// @version         1.0
// @description     Library backend: books, borrowings and payments.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/AndriZhok/Library-Service-Project/app/echoServer"
	bookctrl "github.com/AndriZhok/Library-Service-Project/app/echoServer/controller/book"
	borrowingctrl "github.com/AndriZhok/Library-Service-Project/app/echoServer/controller/borrowing"
	paymentctrl "github.com/AndriZhok/Library-Service-Project/app/echoServer/controller/payment"
	"github.com/AndriZhok/Library-Service-Project/app/echoServer/validation"
	"github.com/AndriZhok/Library-Service-Project/config"
	bookrepo "github.com/AndriZhok/Library-Service-Project/repository/book"
	borrowingrepo "github.com/AndriZhok/Library-Service-Project/repository/borrowing"
	paymentrepo "github.com/AndriZhok/Library-Service-Project/repository/payment"
	striperepo "github.com/AndriZhok/Library-Service-Project/repository/stripe"
	telegramrepo "github.com/AndriZhok/Library-Service-Project/repository/telegram"
	booksvc "github.com/AndriZhok/Library-Service-Project/service/book"
	borrowingsvc "github.com/AndriZhok/Library-Service-Project/service/borrowing"
	paymentsvc "github.com/AndriZhok/Library-Service-Project/service/payment"
	"github.com/AndriZhok/Library-Service-Project/util/database"
	"github.com/AndriZhok/Library-Service-Project/util/httpx"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB over pgx
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	br := bookrepo.New(db)
	rr := borrowingrepo.New(db)
	pr := paymentrepo.New(db)
	xr := striperepo.NewHTTP(cfg.StripeAPIKey, cfg.StripeWebhookKey, httpx.Client())

	var nr telegramrepo.Notifier = telegramrepo.Noop{}
	if cfg.TelegramToken != "" {
		nr = telegramrepo.NewHTTP(cfg.TelegramToken, cfg.TelegramChatID, httpx.Client())
	}

	// services
	bs := booksvc.New(br)
	rs := borrowingsvc.New(db, rr, br, pr, xr, nr, borrowingsvc.Config{
		FrontendURL:    cfg.FrontendURL,
		FineMultiplier: cfg.FineMultiplier,
	}, log)
	ps := paymentsvc.New(db, pr, rr, xr, nr, log)

	// controllers
	v := validator.New()
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	borrowingC := &borrowingctrl.Controller{Svc: rs, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: ps, Log: log}

	// daily overdue sweep
	checker := borrowingsvc.NewChecker(rr, nr, log)
	go func() {
		t := time.NewTicker(24 * time.Hour)
		defer t.Stop()
		for range t.C {
			if n, err := checker.CheckOverdue(ctx); err != nil {
				log.Error("overdue check failed", "err", err)
			} else {
				log.Info("overdue check done", "overdue", n)
			}
		}
	}()

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Book:      bookC,
		Borrowing: borrowingC,
		Payment:   paymentC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
