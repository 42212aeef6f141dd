package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/baccarat-platform-poc/internal/shared/config"
	"github.com/radieske/baccarat-platform-poc/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	engineURL := os.Getenv("ENGINE_URL")
	if engineURL == "" {
		engineURL = "http://localhost:8083"
	}
	walletURL := os.Getenv("WALLET_URL")
	if walletURL == "" {
		walletURL = "http://localhost:8082"
	}
	tableURL := os.Getenv("TABLE_URL")
	if tableURL == "" {
		tableURL = "http://localhost:8080"
	}
	engine := rp(engineURL)
	wallet := rp(walletURL)
	table := rp(tableURL)

	mux := http.NewServeMux()

	// apostas e estado da rodada (ex.: /api/bets, /api/state -> round-engine)
	mux.Handle("/api/bets", http.StripPrefix("/api", engine))
	mux.Handle("/api/state", http.StripPrefix("/api", engine))

	// wallet (ex.: /api/wallet/* -> wallet-service)
	mux.Handle("/api/wallet/", http.StripPrefix("/api", wallet))

	// leitura da mesa (ex.: /api/v1/table/* -> table-feed-service)
	mux.Handle("/api/v1/table/", http.StripPrefix("/api", table))

	// feed ao vivo: WebSocket passa direto, sem prefixo
	mux.Handle("/ws", table)

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
