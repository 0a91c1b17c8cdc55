package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tycoon/internal/game"
)

// Server exposes one route per engine operation. The chat adapter is the
// trusted caller and supplies the player identity in the X-Player-ID header;
// the server itself performs no authentication.
type Server struct {
	log  *slog.Logger
	game *game.Service
	mux  *chi.Mux
}

func New(logger *slog.Logger, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:  logger,
		game: gameSvc,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.identityMiddleware)
		r.Post("/players", s.handleOnboard)
		r.Post("/day/advance", s.handleAdvanceDay)
		r.Post("/rigs/buy", s.handleBuyRigs)
		r.Post("/shares/buy", s.handleBuyShares)
		r.Post("/shares/sell", s.handleSellShares)
		r.Get("/status", s.handleStatus)
		r.Get("/quest", s.handleQuest)
		r.Get("/referral", s.handleReferral)
		r.Get("/market", s.handleMarket)
		r.Get("/market/{company}/history", s.handleHistory)
	})
}

type contextKey string

const playerContextKey contextKey = "player"

func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		playerID := strings.TrimSpace(r.Header.Get("X-Player-ID"))
		if playerID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Player-ID header")
			return
		}
		ctx := context.WithValue(r.Context(), playerContextKey, playerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playerFrom(r *http.Request) string {
	id, _ := r.Context().Value(playerContextKey).(string)
	return id
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ReferralCode string `json:"referral_code"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	out, err := s.game.Onboard(r.Context(), playerFrom(r), in.ReferralCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleAdvanceDay(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.AdvanceDay(r.Context(), playerFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBuyRigs(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Count int64 `json:"count"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.BuyRigs(r.Context(), playerFrom(r), in.Count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBuyShares(w http.ResponseWriter, r *http.Request) {
	s.handleShareTrade(w, r, s.game.BuyShares)
}

func (s *Server) handleSellShares(w http.ResponseWriter, r *http.Request) {
	s.handleShareTrade(w, r, s.game.SellShares)
}

func (s *Server) handleShareTrade(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string, company game.Company, count int64) (game.TradeResult, error),
) {
	var in struct {
		Company string `json:"company"`
		Count   int64  `json:"count"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	company, err := game.ResolveCompany(in.Company)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out, err := op(r.Context(), playerFrom(r), company, in.Count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.StatusOf(r.Context(), playerFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQuest(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.QuestStatusOf(r.Context(), playerFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReferral(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.ReferralStatusOf(r.Context(), playerFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	prices := s.game.Market().Prices()
	out := make([]map[string]any, 0, len(prices))
	for _, c := range game.Companies() {
		out = append(out, map[string]any{"company": c, "price": prices[c]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": out})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	company, err := game.ResolveCompany(chi.URLParam(r, "company"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out, err := s.game.PriceHistoryOf(r.Context(), company, 30)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrUnknownCompany):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrAlreadyOnboarded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidQuantity),
		errors.Is(err, game.ErrInvalidReferral),
		errors.Is(err, game.ErrRigCapacityExceeded),
		errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrInsufficientShares),
		errors.Is(err, game.ErrQuestIncomplete):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
