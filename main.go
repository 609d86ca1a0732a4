package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/monargent/monargent/internal/app"
	log "github.com/sirupsen/logrus"
)

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to load .env: %v", err)
	}
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	application, err := app.NewApplication()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	if err := application.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
