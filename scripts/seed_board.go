package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rushboard/solo-board/internal/config"
	"github.com/rushboard/solo-board/internal/deck"
	"github.com/rushboard/solo-board/internal/game"
	"github.com/rushboard/solo-board/internal/persistence"
	"go.uber.org/zap"
)

// Seeds a board from a deck manifest into the configured snapshot store.
//
//	go run ./scripts/seed_board.go -config config/config.yaml -board my-board decks/starter.yaml
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	boardID := flag.String("board", "", "board id (random when empty)")
	flag.Parse()

	manifestPath := "decks/starter.yaml"
	if flag.NArg() > 0 {
		manifestPath = flag.Arg(0)
	}

	absPath, err := filepath.Abs(manifestPath)
	if err != nil {
		log.Fatalf("Failed to get absolute path: %v", err)
	}

	fmt.Println("=== Board Seed ===")
	fmt.Printf("Manifest: %s\n", absPath)

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		log.Fatalf("Manifest not found: %s", absPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Driver == config.DriverMemory {
		log.Fatalf("Storage driver %q does not outlive this process", cfg.Storage.Driver)
	}

	manifest, err := deck.LoadManifest(absPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	id := *boardID
	if id == "" {
		id = uuid.NewString()
	}

	ctx := context.Background()
	fmt.Printf("Opening %s store...\n", cfg.Storage.Driver)
	store, err := persistence.Open(ctx, cfg.Storage, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	manager := game.NewManager(store, game.ManagerOptions{
		HistoryLimit: cfg.Board.HistoryLimit,
		SaveTimeout:  cfg.Storage.SaveTimeout,
	}, zap.NewNop())
	session, err := manager.Open(ctx, id)
	if err != nil {
		log.Fatalf("Invalid board id: %v", err)
	}

	mainCards, extra := manifest.Cards()
	snap, err := session.LoadDeck(mainCards, extra)
	if err != nil {
		log.Fatalf("Failed to build board: %v", err)
	}
	manager.Release(session)

	if len(snap.Deck) == 0 {
		fmt.Println("Warning: deck is empty after the opening hand, only the starting board was saved")
	}

	fmt.Printf("Board:  %s\n", id)
	fmt.Printf("Deck:   %s\n", manifest.Name)
	fmt.Printf("Main:   %d cards (%d in hand)\n", len(mainCards), len(snap.Hand))
	fmt.Printf("Extra:  %d cards\n", len(extra))
	fmt.Println("=== Seed complete ===")
}
