// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/dealtable/dealtable/internal/auth"
	"github.com/dealtable/dealtable/internal/handlers"
	"github.com/dealtable/dealtable/internal/middleware"
)

func main() {
	if err := auth.Init(); err != nil {
		log.Fatalf("auth init failed: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	srv := handlers.NewGameServer(logger)
	if window := os.Getenv("REACTION_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			srv.ReactionWindow = d
		} else {
			logger.Warnf("ignoring invalid REACTION_WINDOW %q: %v", window, err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(handlers.RoomWSHandler(logger, srv)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
