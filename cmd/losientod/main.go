package main

import (
	"log"
	"net/http"
	"os"

	"losiento-lite/internal/auth"
	"losiento-lite/internal/httpapi"
	"losiento-lite/internal/session"
	"losiento-lite/internal/stats"
	"losiento-lite/internal/store"
)

func main() {
	authService, authMode, err := auth.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init auth manager: %v", err)
	}
	defer authService.Close()
	gameStore, storeMode, err := store.NewFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init game store: %v", err)
	}
	defer gameStore.Close()
	statsService, statsMode, err := stats.NewServiceFromEnv(storeMode)
	if err != nil {
		log.Fatalf("[Server] Failed to init stats service: %v", err)
	}
	defer statsService.Close()

	games := session.NewManager(gameStore, statsService)
	authHTTP := auth.NewHTTPHandler(authService)
	gameHTTP := httpapi.NewHTTPHandler(authService, games, statsService, authMode == auth.AuthModeHeader)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	authHTTP.RegisterRoutes(mux)
	gameHTTP.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("LOSIENTO_ADDR"); v != "" {
		addr = v
	}
	log.Printf("[Server] Auth mode: %s", authMode)
	log.Printf("[Server] Store mode: %s", storeMode)
	log.Printf("[Server] Stats mode: %s", statsMode)
	log.Printf("[Server] Serving the game API on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
