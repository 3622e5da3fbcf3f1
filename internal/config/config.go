package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kikorobot/storefront/pkg/logger"
)

// requiredEnv lists the secrets the service cannot run without. Each maps to
// an external collaborator: payment gateway, email provider, identity provider.
var requiredEnv = []string{
	"RAZORPAY_KEY_ID",
	"RAZORPAY_KEY_SECRET",
	"RESEND_API_KEY",
	"CLERK_SECRET_KEY",
}

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil {
		slog.Warn("No .env file loaded", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/storefront")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}

	for _, key := range requiredEnv {
		if os.Getenv(key) == "" {
			panic(fmt.Sprintf("configuration error: %s is required", key))
		}
	}

	SetupLogger()
}

func SetupLogger() {
	handler := logger.NewHandler(nil)
	log := slog.New(handler)
	slog.SetDefault(log)
}
