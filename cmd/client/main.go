package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/olafr/tafl-client/client/events"
	"github.com/olafr/tafl-client/client/identity"
	"github.com/olafr/tafl-client/client/network"
	"github.com/olafr/tafl-client/client/session"
	"github.com/olafr/tafl-client/pkg/log"
	"github.com/olafr/tafl-client/pkg/messages"
	"github.com/olafr/tafl-client/pkg/tafl"
)

const DefaultServerAddr = "ws://localhost:8888/channel/game"

func main() {
	envFile := flag.String("env", "", "path to a .env file to load")
	serverAddr := flag.String("addr", "", "game channel address (defaults to TAFL_SERVER_ADDR)")
	gameID := flag.String("game", "", "game identifier to resume")
	dataFile := flag.String("data", "tafl-client.db", "path to the local state database")
	logLevel := flag.String("loglevel", "info", "log level: error, warn, info, debug, trace")
	flag.Parse()

	level, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		log.Warn("Defaulting to info log level: %v", err)
		level = log.LogLevelInfo
	}
	log.SetLevel(level)

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Warn("Failed to load env file %s: %v", *envFile, err)
		}
	}

	addr := *serverAddr
	if addr == "" {
		addr = os.Getenv("TAFL_SERVER_ADDR")
	}
	if addr == "" {
		addr = DefaultServerAddr
	}

	var store identity.Store
	sqliteStore, err := identity.NewSQLiteStore(*dataFile)
	if err != nil {
		// Persistence is best-effort: fall back to a session-only store.
		log.Warn("Failed to open local state database: %v", err)
		store = identity.NewMemoryStore()
	} else {
		defer sqliteStore.Close()
		store = sqliteStore
	}
	locator := identity.NewMemoryLocator(*gameID)

	timezone, _ := time.Now().Zone()
	columns, lines := terminalSize()
	manager := network.NewChannelManager(network.NewChannelManagerOptions{
		ServerAddr: addr,
		Dialer:     network.NewWSDialer(),
		ConnectParams: messages.ConnectParams{
			ClientSessionID: identity.ClientSessionID(store),
			Platform:        runtime.GOOS,
			Language:        os.Getenv("LANG"),
			ScreenWidth:     columns,
			ScreenHeight:    lines,
			ColorDepth:      terminalColorDepth(),
			Timezone:        timezone,
		},
		Bus: events.NewBus(),
	})
	defer manager.Close()

	controller := session.NewController(session.NewControllerOptions{
		Channel: manager,
		Events:  manager.Events(),
		Locator: locator,
		Store:   store,
	})
	defer controller.Close()

	ctx := context.Background()
	if err := controller.Bootstrap(ctx); err != nil {
		log.Error("Failed to bootstrap session: %v", err)
	}
	printStatus(controller)

	runLoop(ctx, controller)
}

func runLoop(ctx context.Context, controller *session.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Commands: new <attackers|defenders> [difficulty], join <id>, diff <level>, click <square>, board, log, status, quit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "new":
			if len(fields) < 2 {
				fmt.Println("usage: new <attackers|defenders> [easy|medium|hard]")
				continue
			}
			side := tafl.Side(fields[1])
			if !side.Valid() {
				fmt.Println("side must be attackers or defenders")
				continue
			}
			difficulty := tafl.DifficultyMedium
			if len(fields) > 2 {
				difficulty = tafl.Difficulty(fields[2])
			}
			if err := controller.NewGame(ctx, side, difficulty); err != nil {
				log.Error("Failed to start new game: %v", err)
			}
			printStatus(controller)
		case "join":
			if len(fields) < 2 {
				fmt.Println("usage: join <id>")
				continue
			}
			if err := controller.Join(ctx, fields[1]); err != nil {
				log.Error("Failed to join game: %v", err)
			}
			printStatus(controller)
		case "diff":
			if len(fields) < 2 {
				fmt.Println("usage: diff <easy|medium|hard>")
				continue
			}
			if err := controller.ChangeDifficulty(ctx, tafl.Difficulty(fields[1])); err != nil {
				log.Error("Failed to change difficulty: %v", err)
			}
			printStatus(controller)
		case "click":
			if len(fields) < 2 {
				fmt.Println("usage: click <square>, e.g. click d5")
				continue
			}
			sq, err := parseSquare(fields[1])
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := controller.HandleCellClick(ctx, sq); err != nil {
				log.Error("Failed to play move: %v", err)
			}
			printSelection(controller)
			printStatus(controller)
		case "board":
			printBoard(controller)
		case "log":
			for _, entry := range controller.LogEntries() {
				fmt.Println(entry)
			}
		case "status":
			printStatus(controller)
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
}

// terminalSize reads the terminal dimensions from the COLUMNS and
// LINES environment variables, falling back to the conventional 80x24.
func terminalSize() (int, int) {
	columns, lines := 80, 24
	if v, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && v > 0 {
		columns = v
	}
	if v, err := strconv.Atoi(os.Getenv("LINES")); err == nil && v > 0 {
		lines = v
	}
	return columns, lines
}

func terminalColorDepth() int {
	if ct := os.Getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		return 24
	}
	if strings.Contains(os.Getenv("TERM"), "256color") {
		return 8
	}
	return 4
}

// parseSquare reads algebraic notation, e.g. "d5".
func parseSquare(s string) (tafl.Square, error) {
	if len(s) < 2 {
		return tafl.Square{}, fmt.Errorf("invalid square: %s", s)
	}
	col := int(s[0] - 'a')
	var rank int
	if _, err := fmt.Sscanf(s[1:], "%d", &rank); err != nil {
		return tafl.Square{}, fmt.Errorf("invalid square: %s", s)
	}
	sq := tafl.Square{Row: tafl.BoardSize - rank, Col: col}
	if !sq.InBounds() {
		return tafl.Square{}, fmt.Errorf("square out of bounds: %s", s)
	}
	return sq, nil
}

func printStatus(controller *session.Controller) {
	if msg := controller.UserMessage(); msg != "" {
		fmt.Println(msg)
	}
	if controller.SetupPromptOpen() {
		fmt.Println("No active game. Start one with: new <attackers|defenders> [difficulty]")
		return
	}
	snapshot := controller.Snapshot()
	if snapshot == nil {
		return
	}
	flags := controller.Flags()
	fmt.Printf("game %s v%d, %s to move", snapshot.ID, snapshot.Version, snapshot.ToMove)
	if flags.Loading || flags.Submitting {
		fmt.Print(" (waiting on server)")
	}
	fmt.Println()
	if snapshot.Phase == tafl.PhaseGameOver && snapshot.Winner != nil {
		fmt.Printf("game over, %s win\n", *snapshot.Winner)
	}
}

func printSelection(controller *session.Controller) {
	origin, destinations := controller.Selection()
	if origin == nil {
		return
	}
	labels := make([]string, len(destinations))
	for i, d := range destinations {
		labels[i] = d.String()
	}
	fmt.Printf("selected %s, can move to: %s\n", origin, strings.Join(labels, " "))
}

func printBoard(controller *session.Controller) {
	snapshot := controller.Snapshot()
	if snapshot == nil {
		fmt.Println("no game")
		return
	}
	for row := 0; row < tafl.BoardSize; row++ {
		fmt.Printf("%2d ", tafl.BoardSize-row)
		for col := 0; col < tafl.BoardSize; col++ {
			switch snapshot.Board[row][col] {
			case tafl.PieceAttacker:
				fmt.Print(" A")
			case tafl.PieceDefender:
				fmt.Print(" D")
			case tafl.PieceKing:
				fmt.Print(" K")
			default:
				fmt.Print(" .")
			}
		}
		fmt.Println()
	}
	fmt.Print("   ")
	for col := 0; col < tafl.BoardSize; col++ {
		fmt.Printf(" %c", 'a'+col)
	}
	fmt.Println()
}
