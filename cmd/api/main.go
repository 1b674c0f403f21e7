package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FindNest-Estate/NestFind-sub001/internal/audit"
	"github.com/FindNest-Estate/NestFind-sub001/internal/config"
	"github.com/FindNest-Estate/NestFind-sub001/internal/db"
	internalhttp "github.com/FindNest-Estate/NestFind-sub001/internal/http"
	"github.com/FindNest-Estate/NestFind-sub001/internal/metrics"
	"github.com/FindNest-Estate/NestFind-sub001/internal/notify"
	"github.com/FindNest-Estate/NestFind-sub001/internal/otp"
	"github.com/FindNest-Estate/NestFind-sub001/internal/payments"
	"github.com/FindNest-Estate/NestFind-sub001/internal/services"
	"github.com/FindNest-Estate/NestFind-sub001/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	metrics.MustRegister()

	st := store.New(pool)
	feed := audit.NewFeed()
	otpSvc := &otp.Service{
		Store:       st,
		Sender:      notify.LogSender{},
		TTL:         time.Duration(cfg.OTP.TTLMinutes) * time.Minute,
		MaxAttempts: cfg.OTP.MaxAttempts,
	}
	gate := payments.NewGate(cfg.Payments.TokenPermille, cfg.Payments.CommissionPermille)

	offerSvc := &services.OfferService{Store: st, Listings: st}
	txSvc := &services.TransactionService{
		Store: st,
		Audit: st,
		Feed:  feed,
		OTP:   otpSvc,
		Gate:  gate,
	}

	h := internalhttp.NewHandler(offerSvc, txSvc)
	stream := internalhttp.NewStreamHandler(feed)
	srv := internalhttp.NewServer(h, stream)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Printf("api listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
