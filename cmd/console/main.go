package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

// ConsoleConfig holds the console client settings.
type ConsoleConfig struct {
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout    time.Duration `env:"CONSOLE_TIMEOUT" envDefault:"30s"`
	PlayerID   string        `env:"PLAYER_ID"`
}

func main() {
	_ = godotenv.Load()

	var cfg ConsoleConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	api := NewAPIClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.Timeout})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	fmt.Printf("Connecting to %s...\n", cfg.APIBaseURL)
	if err := api.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to API: %v\n", err)
		os.Exit(1)
	}

	playerID := cfg.PlayerID
	if playerID == "" {
		name := strings.Join(os.Args[1:], " ")
		if name == "" {
			name = promptName()
		}
		p, err := api.CreatePlayer(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create player: %v\n", err)
			os.Exit(1)
		}
		playerID = p.ID
		fmt.Printf("Created %s (%s)\n", p.Name, p.ID)
	}

	resp, err := api.GetPlayer(ctx, playerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load player: %v\n", err)
		os.Exit(1)
	}

	ui := NewConsoleUI(api, resp.Player, resp.World)
	if _, err := tea.NewProgram(ui, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running console: %v\n", err)
		os.Exit(1)
	}
}

func promptName() string {
	fmt.Print("Name your wanderer: ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}
