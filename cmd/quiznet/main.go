package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hactazia/quiznet/internal/account"
	"github.com/hactazia/quiznet/internal/catalog"
	"github.com/hactazia/quiznet/internal/config"
	"github.com/hactazia/quiznet/internal/discovery"
	"github.com/hactazia/quiznet/internal/game"
	"github.com/hactazia/quiznet/internal/server"
)

const defaultConfigPath = "config/quiznet.yaml"

type flags struct {
	configPath string
	tcpPort    int
	udpPort    int
	name       string
	questions  string
	accounts   string
	logLevel   string
}

func newCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZNET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var f flags

	cmd := &cobra.Command{
		Use:           "quiznet",
		Short:         "Multiplayer quiz game server with LAN discovery.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.Flags(), f)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", defaultConfigPath, "path to config file (env: QUIZNET_CONFIG)")
	fs.IntVar(&f.tcpPort, "tcp", 5556, "TCP port for the quiz protocol (env: QUIZNET_TCP)")
	fs.IntVar(&f.udpPort, "udp", 5555, "UDP port for LAN discovery (env: QUIZNET_UDP)")
	fs.StringVarP(&f.name, "name", "n", "", "server name advertised in discovery replies (env: QUIZNET_NAME)")
	fs.StringVar(&f.questions, "questions", "", "path to the questions file (env: QUIZNET_QUESTIONS)")
	fs.StringVar(&f.accounts, "accounts", "", "path to the accounts file (env: QUIZNET_ACCOUNTS)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error (env: QUIZNET_LOG_LEVEL)")

	fs.VisitAll(func(fl *pflag.Flag) {
		_ = v.BindPFlag(fl.Name, fl)
		_ = v.BindEnv(fl.Name)
		if !fl.Changed && v.IsSet(fl.Name) {
			_ = fs.Set(fl.Name, fmt.Sprintf("%v", v.Get(fl.Name)))
		}
	})

	return cmd
}

// loadConfig layers explicitly set flags over the YAML file over defaults.
func loadConfig(fs *pflag.FlagSet, f flags) (config.Server, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}

	if fs.Changed("tcp") {
		cfg.TCPPort = f.tcpPort
	}
	if fs.Changed("udp") {
		cfg.UDPPort = f.udpPort
	}
	if f.name != "" {
		cfg.Name = f.name
	}
	if f.questions != "" {
		cfg.QuestionsFile = f.questions
	}
	if f.accounts != "" {
		cfg.AccountsFile = f.accounts
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context, fs *pflag.FlagSet, f flags) error {
	cfg, err := loadConfig(fs, f)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	slog.Info("quiznet server starting",
		"name", cfg.Name, "tcp", cfg.TCPPort, "udp", cfg.UDPPort)

	cat, err := catalog.Load(cfg.QuestionsFile)
	if err != nil {
		return fmt.Errorf("loading question catalog: %w", err)
	}
	if cat.Len() == 0 {
		return fmt.Errorf("question catalog %s is empty", cfg.QuestionsFile)
	}

	accounts := account.NewRegistry(cfg.AccountsFile)
	if err := accounts.Load(); err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	slog.Info("accounts loaded", "count", accounts.Count(), "path", cfg.AccountsFile)

	srv := server.NewServer(cfg.TCPAddr(), accounts, cat, game.DefaultTiming())
	responder := discovery.NewResponder(cfg.UDPAddr(), cfg.Name, cfg.TCPPort)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("quiz server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := responder.Run(gctx); err != nil {
			return fmt.Errorf("discovery responder: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Persist any accounts registered since the last flush.
	if err := accounts.Flush(); err != nil {
		slog.Error("flushing accounts on shutdown", "err", err)
	}

	slog.Info("quiznet server stopped")
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
		sig = <-sigCh
		slog.Warn("forcing exit", "signal", sig)
		os.Exit(1)
	}()

	cmd := newCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
