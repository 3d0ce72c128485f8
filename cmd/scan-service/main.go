package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/config"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/kafka"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/logger"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/scan"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/scan/scan_api"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/store"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()
	if cfg.Scan.SecretKey == "" {
		log.Fatal("CONFIG", "SECRET_KEY not set")
	}

	ticketStore, err := store.New(cfg.Redis.Addr)
	if err != nil {
		log.Fatal("STORE", err.Error())
	}
	defer ticketStore.Close()
	log.Info("STORE", fmt.Sprintf("Connected to Redis at %s", cfg.Redis.Addr))

	var publisher scan.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Info("KAFKA", fmt.Sprintf("Publishing scan events to %s", cfg.Kafka.Topic))
	}

	service := scan.NewService(ticketStore, cfg.Scan.SecretKey, cfg.Scan.EventJoin, publisher, log)
	handler := scan_api.NewHandler(service, cfg.Scan.AllowedOrigins, log)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Scan service on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "Scan service shutdown complete")
}
