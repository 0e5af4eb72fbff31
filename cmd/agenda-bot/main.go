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
	"github.com/rs/zerolog"

	"agenda-whatsapp/internal/config"
	"agenda-whatsapp/internal/dateparse"
	"agenda-whatsapp/internal/flow"
	"agenda-whatsapp/internal/handler"
	"agenda-whatsapp/internal/ledger"
	"agenda-whatsapp/internal/roster"
	"agenda-whatsapp/internal/store"
	"agenda-whatsapp/internal/whatsapp"
)

func main() {
	fmt.Println("📅 WhatsApp Scheduling Bot")
	fmt.Println("==========================")

	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "main").Logger()

	// A .env file is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		fmt.Printf("Error loading time zone %q: %v\n", cfg.Timezone, err)
		os.Exit(1)
	}

	// The roster is the gate for who the bot talks to. Failing to read it is
	// fatal; the process must not accept messages without it.
	customers, err := roster.Load(cfg.ExcelFilePath)
	if err != nil {
		fmt.Printf("Error loading customer roster: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ %d customers loaded from %s\n", customers.Len(), cfg.ExcelFilePath)

	convStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		fmt.Printf("Error initializing conversation store: %v\n", err)
		os.Exit(1)
	}
	defer convStore.Close()
	fmt.Println("✅ Conversation database ready")

	sink, err := ledger.NewSheetsClient(context.Background(), ledger.Config{
		CredentialsPath: cfg.CredentialsPath,
		SpreadsheetID:   cfg.SpreadsheetID,
		Tab:             cfg.SheetTab,
		Loc:             loc,
	})
	if err != nil {
		fmt.Printf("Error initializing appointment ledger: %v\n", err)
		os.Exit(1)
	}

	whatsappService, err := whatsapp.NewService(&whatsapp.Config{
		DataDir: cfg.WhatsAppDataDir,
	})
	if err != nil {
		fmt.Printf("Error initializing WhatsApp service: %v\n", err)
		os.Exit(1)
	}

	machine := &flow.Machine{
		Parse:      dateparse.Parse,
		Loc:        loc,
		CutoffHour: cfg.CutoffHour,
	}
	schedulingHandler := handler.NewSchedulingHandler(
		whatsappService,
		convStore,
		customers,
		machine,
		sink,
		zerolog.New(os.Stdout).With().Timestamp().Str("component", "handler").Logger(),
	)
	whatsappService.SetMessageHandler(schedulingHandler.HandleMessage)

	// Liveness endpoint for the hosting platform's health checks.
	go func() {
		http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "Bot de WhatsApp corriendo!")
		})
		if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
			log.Error().Err(err).Msg("Liveness server stopped")
		}
	}()
	fmt.Printf("✅ Liveness endpoint listening on port %s\n", cfg.Port)

	fmt.Println("Connecting to WhatsApp...")
	if err := whatsappService.Connect(); err != nil {
		fmt.Printf("Error connecting to WhatsApp: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Connected to WhatsApp!")
	fmt.Println("The bot is now listening for scheduling requests.")

	// Wait for interrupt signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("\n\nShutting down...")
	whatsappService.Disconnect()
	fmt.Println("Goodbye! 👋")
}
