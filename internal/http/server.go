package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler, stream *StreamHandler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors)
	r.Use(instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/offers", func(r chi.Router) {
		r.Post("/", handler.CreateOffer)
		r.Get("/{offerId}", handler.GetOffer)
		r.Post("/{offerId}/accept", handler.AcceptOffer)
		r.Post("/{offerId}/counter", handler.CounterOffer)
		r.Post("/{offerId}/reject", handler.RejectOffer)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/{txId}", handler.GetTransaction)
		r.Post("/{txId}/otp/send", handler.SendOTP)
		r.Post("/{txId}/otp/verify", handler.VerifyOTP)
		r.Post("/{txId}/payments/token", handler.PayToken)
		r.Post("/{txId}/payments/commission", handler.PayCommission)
		r.Post("/{txId}/registration", handler.CompleteRegistration)
		r.Post("/{txId}/complete", handler.Complete)
		r.Post("/{txId}/cancel", handler.Cancel)
		r.Post("/{txId}/fail", handler.Fail)
		r.Get("/{txId}/audit", handler.ListAudit)
		r.Get("/{txId}/audit/stream", stream.StreamAudit)
	})

	return &Server{Router: r}
}
