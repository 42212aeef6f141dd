package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/baccarat-platform-poc/internal/table-feed/cache"
	"github.com/radieske/baccarat-platform-poc/internal/table-feed/dto"
	"github.com/radieske/baccarat-platform-poc/internal/table-feed/repo"
)

const defaultHistoryLimit = 50

// API expõe os endpoints REST de consulta da mesa de baccarat
// Utiliza um repositório de leitura (Postgres) e cache (Redis)
type API struct {
	ReadRepo *repo.ReadRepo   // acesso ao banco de dados
	Cache    *cache.Cache     // cache de estado e histórico
	WS       http.HandlerFunc // handler WebSocket do hub
}

// Router retorna o roteador HTTP com os endpoints REST e o WebSocket
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/table/state", a.getState)     // Estado atual da mesa
	r.Get("/v1/table/history", a.getHistory) // Rodadas liquidadas recentes
	if a.WS != nil {
		r.Get("/ws", a.WS) // Feed ao vivo
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// getState retorna a rodada corrente, preferencialmente do cache.
// SecondsLeft é recalculado do deadline da fase a cada resposta, então o
// valor não congela enquanto a entrada do cache vive
func (a *API) getState(w http.ResponseWriter, r *http.Request) {
	var fromCache dto.TableState
	if ok, _ := a.Cache.GetState(r.Context(), &fromCache); ok {
		fromCache.SecondsLeft = fromCache.SecondsLeftFrom(time.Now().UTC())
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	st, err := a.ReadRepo.LatestState(r.Context())
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no round yet"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_ = a.Cache.SetState(r.Context(), st, 2*time.Second) // salva no cache por 2s
	st.SecondsLeft = st.SecondsLeftFrom(time.Now().UTC())
	writeJSON(w, http.StatusOK, st)
}

// getHistory retorna as rodadas liquidadas mais recentes, da mais antiga
// para a mais recente
func (a *API) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	if limit == defaultHistoryLimit {
		var fromCache []dto.HistoryItem
		if ok, _ := a.Cache.GetHistory(r.Context(), &fromCache); ok {
			writeJSON(w, http.StatusOK, fromCache)
			return
		}
	}

	hist, err := a.ReadRepo.RecentHistory(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if hist == nil {
		hist = []dto.HistoryItem{}
	}

	if limit == defaultHistoryLimit {
		_ = a.Cache.SetHistory(r.Context(), hist, 10*time.Second)
	}
	writeJSON(w, http.StatusOK, hist)
}
