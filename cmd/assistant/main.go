package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/campusbuddy/campusbuddy/internal/session"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx := context.Background()

	fs := flag.NewFlagSet("assistant", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path to the knowledge database (default: config dir)")
	seedDir := fs.String("seed", "", "Path to the seed JSON directory (default: data/seed)")
	populate := fs.Bool("populate", false, "Ingest seed data before starting")
	watch := fs.Bool("watch", false, "Reload knowledge when seed files change")
	maxIter := fs.Int("max-iter", 0, "Maximum reasoning iterations per query")
	resume := fs.String("resume", "", "Session ID to resume")
	listSessions := fs.Bool("sessions", false, "List saved sessions and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	env, err := prepareRuntimeEnv(ctx, runtimeOptions{
		DBPath:     *dbPath,
		SeedDir:    *seedDir,
		Populate:   *populate,
		WatchSeeds: *watch,
		MaxIter:    *maxIter,
	})
	if err != nil {
		log.Fatalf("failed to prepare runtime environment: %v", err)
	}
	defer env.Close()

	if *listSessions {
		printSessions(env)
		return
	}

	if err := runREPL(ctx, env, *resume); err != nil {
		log.Fatalf("assistant failed: %v", err)
	}
}

func printSessions(env *runtimeEnv) {
	metas, err := env.Sessions.List()
	if err != nil {
		log.Fatalf("failed to list sessions: %v", err)
	}
	if len(metas) == 0 {
		fmt.Println("no saved sessions")
		return
	}
	for _, m := range metas {
		fmt.Printf("%s  %s  (%s)\n", m.ID, m.Title, m.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func runREPL(ctx context.Context, env *runtimeEnv, resumeID string) error {
	sess := env.Sessions.New("")
	if resumeID != "" {
		loaded, err := env.Sessions.Load(resumeID)
		if err != nil {
			return fmt.Errorf("failed to resume session %s: %w", resumeID, err)
		}
		sess = loaded
		env.Orchestrator.SeedHistory(loaded.History)
		log.Printf("resumed session %q (%d turns)", loaded.Title, len(loaded.History))
	}

	fmt.Printf("%s assistant ready. Ask a question, or /help for commands.\n", env.Institution)

	s := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, env, line); quit {
				break
			}
			continue
		}

		res, err := env.Orchestrator.Run(ctx, line, "")
		if err != nil {
			log.Printf("error: %v", err)
			continue
		}
		fmt.Printf("\n%s\n\n", res.Response)

		if err := saveSession(ctx, env, sess); err != nil {
			log.Printf("failed to save session: %v", err)
		}
	}
	return s.Err()
}

// handleCommand runs a slash command and reports whether the REPL should exit.
func handleCommand(ctx context.Context, env *runtimeEnv, line string) bool {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return true
	case "/reset":
		env.Orchestrator.Reset()
		fmt.Println("conversation cleared")
	case "/history":
		turns := env.Orchestrator.History()
		if len(turns) == 0 {
			fmt.Println("no conversation yet")
			break
		}
		for _, turn := range turns {
			fmt.Printf("%s: %s\n", turn.Role, turn.Content)
		}
	case "/stats":
		stats, err := env.Knowledge.Stats(ctx)
		if err != nil {
			log.Printf("failed to read stats: %v", err)
			break
		}
		for table, count := range stats {
			fmt.Printf("%-20s %d\n", table, count)
		}
	case "/help":
		fmt.Println("/reset    clear the conversation")
		fmt.Println("/history  show the conversation so far")
		fmt.Println("/stats    show knowledge store contents")
		fmt.Println("/quit     exit")
	default:
		fmt.Printf("unknown command %q (try /help)\n", line)
	}
	return false
}

func saveSession(ctx context.Context, env *runtimeEnv, sess *session.Session) error {
	history := env.Orchestrator.History()
	if sess.Title == "" && len(history) > 0 {
		title, err := env.Summarizer.GenerateTitle(ctx, history)
		if err != nil {
			log.Printf("failed to title session: %v", err)
		} else {
			sess.Title = title
		}
	}
	return env.Sessions.Save(sess, history)
}
