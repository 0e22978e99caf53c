package config

type App struct {
	Port             string  `env:"APP_PORT" default:"8080"`
	DatabaseURL      string  `env:"DATABASE_URL,required"`
	JWTSecret        string  `env:"JWT_SECRET,required"`
	StripeAPIKey     string  `env:"STRIPE_API_KEY,required"`
	StripeWebhookKey string  `env:"STRIPE_WEBHOOK_SECRET,required"`
	FrontendURL      string  `env:"FRONTEND_URL" default:"http://localhost:3000"`
	TelegramToken    string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string  `env:"TELEGRAM_CHAT_ID"`
	FineMultiplier   float64 `env:"FINE_MULTIPLIER" default:"2"`
	Env              string  `env:"APP_ENV" default:"dev"`
}
