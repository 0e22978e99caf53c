package echoServer

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/AndriZhok/Library-Service-Project/app/echoServer/controller/book"
	"github.com/AndriZhok/Library-Service-Project/app/echoServer/controller/borrowing"
	"github.com/AndriZhok/Library-Service-Project/app/echoServer/controller/payment"
)

type C struct {
	Book      *book.Controller
	Borrowing *borrowing.Controller
	Payment   *payment.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.GET("/books", c.Book.List)
	pub.GET("/books/:id", c.Book.Detail)

	// Provider callback authenticates by signature, not by token.
	pub.POST("/borrowings/webhook", c.Payment.Webhook)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	}))
	auth.Use(ResolvePrincipal())

	// Books: writes are staff-only, enforced by the policy check in the
	// controller so the rule stays transport-free.
	auth.POST("/books", c.Book.Create)
	auth.PUT("/books/:id", c.Book.Update)
	auth.DELETE("/books/:id", c.Book.Delete)

	auth.GET("/borrowings", c.Borrowing.List)
	auth.GET("/borrowings/:id", c.Borrowing.Detail)
	auth.POST("/borrowings", c.Borrowing.Create)
	auth.POST("/borrowings/:id/return", c.Borrowing.Return)

	auth.GET("/payments", c.Payment.List)
	auth.GET("/payments/:id", c.Payment.Detail)
}
