package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"airdash/internal/api"
	"airdash/internal/ingest"
	"airdash/internal/store"
)

var cli struct {
	Data            string        `help:"Path to the air quality CSV dataset." env:"AIRDASH_DATA" default:"data/global_air_quality_dataset.csv"`
	Port            string        `help:"HTTP listen port." env:"AIRDASH_PORT" default:"8080"`
	RefreshInterval time.Duration `help:"Periodic dataset refresh interval; 0 disables." env:"AIRDASH_REFRESH_INTERVAL" default:"0"`
	AllowedOrigins  []string      `help:"CORS allowed origins." env:"AIRDASH_ALLOWED_ORIGINS" default:"*"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("airdash"),
		kong.Description("Air quality analytics API over a static observation dataset."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	st, err := store.Open()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()
	log.Println("database migrated")

	loader := ingest.NewLoader(cli.Data)
	refresher := ingest.NewRefresher(loader, st, cli.RefreshInterval)

	rows, err := refresher.ReloadOnce()
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}
	log.Printf("loaded %d observations from %s", rows, cli.Data)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cli.RefreshInterval > 0 {
		go refresher.Run(ctx)
	}

	server := api.NewServer(st, refresher, cli.Port, cli.AllowedOrigins)
	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
