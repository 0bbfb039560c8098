package main

/*

Command line front end of the engines.

	uttt [-config engine.yaml] [-v level] parse [board]
	uttt [-config engine.yaml] [-v level] eval [board]
	uttt [-config engine.yaml] [-v level] fight [-p1 name] [-p2 name] [-games n] [-threads n]
	uttt [-config engine.yaml] [-v level] serve [-addr :8080]

Boards are given in the compact or the grid notation, as arguments or on stdin.

*/

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/bench"
	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/engine"
	"github.com/IlikeChooros/go-uttt/pkg/session"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "engine config file (yaml)")
	level := flag.String("v", "", "log level, overrides the config")
	flag.Usage = usage
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	cfg, err := loadConfig(*configPath, *level)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	lvl, _ := cfg.Level()
	zerolog.SetGlobalLevel(lvl)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "parse":
		err = runParse(args[1:])
	case "eval":
		err = runEval(cfg, args[1:])
	case "fight":
		err = runFight(cfg, args[1:])
	case "serve":
		err = runServe(cfg, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("failed")
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: uttt [flags] parse|eval|fight|serve [args]\n\nengines: %s\n\nflags:\n",
		strings.Join(engine.Names(), ", "))
	flag.PrintDefaults()
}

func loadConfig(path, level string) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = engine.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if level != "" {
		cfg.LogLevel = level
	}
	return cfg, cfg.Validate()
}

// Board from the arguments, or from stdin if there are none
func readBoard(args []string) (board.Board, error) {
	input := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return board.Board{}, errors.Wrap(err, "read stdin")
		}
		input = string(data)
	}
	return board.Parse(input)
}

func runParse(args []string) error {
	b, err := readBoard(args)
	if err != nil {
		return err
	}
	fmt.Print(board.Render(b, termenv.EnvColorProfile()))
	fmt.Println(b.Compact())
	return nil
}

func runEval(cfg engine.Config, args []string) error {
	b, err := readBoard(args)
	if err != nil {
		return err
	}
	fmt.Print(board.Render(b, termenv.EnvColorProfile()))
	fmt.Printf("heuristic (X): %+.4f\n", b.Evaluate())
	if b.IsTerminal() {
		return nil
	}

	e, err := engine.New(cfg)
	if err != nil {
		return err
	}
	start := time.Now()
	m := cfg.Play(e, b)
	fmt.Printf("%s plays %v in %v\n", cfg.Engine, m, time.Since(start).Round(time.Millisecond))
	fmt.Println(e.Trace())
	return nil
}

func runFight(cfg engine.Config, args []string) error {
	fs := flag.NewFlagSet("fight", flag.ExitOnError)
	p1 := fs.String("p1", cfg.Engine, "first engine")
	p2 := fs.String("p2", "random", "second engine")
	games := fs.Int("games", 10, "number of games")
	threads := fs.Int("threads", 2, "games played at once")
	ponder := fs.Bool("ponder", false, "let both engines ponder")
	if err := fs.Parse(args); err != nil {
		return err
	}

	player := func(name string) (bench.Player, error) {
		c := cfg
		c.Engine = name
		factory, err := engine.NewFactory(c)
		if err != nil {
			return bench.Player{}, err
		}
		return bench.Player{Name: name, New: factory, MoveTime: c.MoveDuration(), Ponder: *ponder}, nil
	}
	first, err := player(*p1)
	if err != nil {
		return err
	}
	second, err := player(*p2)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	arena := bench.NewVersusArena(first, second).WithContext(ctx).Setup(*games, *threads)
	summary, err := arena.Run(bench.NewLogListener())
	fmt.Printf("%s vs %s: %d-%d, %d draws (first mover won %d)\n",
		summary.P1Name, summary.P2Name, summary.P1Wins, summary.P2Wins, summary.Draws, summary.FirstToMoveWins)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runServe(cfg engine.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := session.NewStore(cfg)
	defer store.Close()
	srv := &http.Server{
		Addr:              *addr,
		Handler:           session.Handler(store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info().Str("addr", *addr).Msg("serving sessions")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}
