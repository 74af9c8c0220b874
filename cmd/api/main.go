package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/di"
)

func main() {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			log.Fatalf("load env file %s: %v", path, err)
		}
	}

	a, err := di.InitializeApp()
	if err != nil {
		log.Fatal(err)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting",
			"addr", a.Server.Addr,
			"environment", a.Config.Env,
			"database_type", a.Stores.Backend(),
		)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	exitCode := 0
	select {
	case s := <-sig:
		a.Logger.Info("shutdown signal received", "signal", s.String())
	case err := <-serverErr:
		a.Logger.Error("http server failed", "error", err)
		exitCode = 1
	}

	if err := a.Shutdown(context.Background()); err != nil {
		a.Logger.Error("shutdown completed with errors", "error", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
