package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/app"
	"github.com/nhle/notification-center/internal/cli"
	"github.com/nhle/notification-center/internal/logging"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
)

const usage = `Usage: notifications [command] [flags]

Commands:
  (none)   open the notification center
  push     deliver a notification to a running session
  list     print the stored feed
  prefs    apply a JSON preferences patch

Run "notifications <command> --help" for command flags.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "notifications:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "":
		return runTUI(args)
	case "push":
		return runPush(args)
	case "list":
		return runList(args)
	case "prefs":
		return runPrefs(args)
	case "help":
		fmt.Print(usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
}

// common holds the flags every command accepts.
type common struct {
	configPath string
	user       string
}

func newFlagSet(name string) (*flag.FlagSet, *common) {
	c := &common{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVarP(&c.configPath, "config", "c", model.DefaultConfigPath(), "path to config file")
	fs.StringVarP(&c.user, "user", "u", "", "user whose feed to open (overrides config)")
	return fs, c
}

func (c *common) load() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.user != "" {
		cfg.User = c.user
	}
	return cfg, nil
}

func runTUI(args []string) error {
	fs, c := newFlagSet("notifications")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage, "\nFlags:\n", fs.FlagUsages()) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := app.NewSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	session.ConfigPath = c.configPath
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing session", zap.Error(err))
		}
	}()

	logger.Info("session started", zap.String("user", cfg.User))

	p := tea.NewProgram(
		app.New(ctx, session),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

func runPush(args []string) error {
	fs, c := newFlagSet("push")
	var opts cli.PushOptions
	var viaRedis bool
	fs.StringVar(&opts.JSON, "json", "", `notification as JSON, or "-" to read stdin`)
	fs.StringVar(&opts.ID, "id", "", "notification id (default: random uuid)")
	fs.StringVar(&opts.Category, "category", "system", "one of "+categoryList())
	fs.StringVar(&opts.Priority, "priority", "", "low, medium, high or urgent")
	fs.StringVar(&opts.Title, "title", "", "title")
	fs.StringVar(&opts.Body, "body", "", "body")
	fs.StringVar(&opts.Target, "target", "", "route opened on activation")
	fs.BoolVar(&viaRedis, "redis", false, "publish to the Redis inbox instead of the local queue")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}

	if opts.JSON == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		opts.JSON = string(raw)
	}

	n, err := cli.BuildNotification(opts, cfg.User, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if viaRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		receivers, err := cli.Publish(ctx, client, cfg.Redis.Prefix, n)
		if err != nil {
			return err
		}
		fmt.Printf("published %s to %d session(s)\n", n.ID, receivers)
		return nil
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := cli.Enqueue(ctx, st, n); err != nil {
		return err
	}
	fmt.Printf("queued %s for %s\n", n.ID, n.Owner)
	return nil
}

func runList(args []string) error {
	fs, c := newFlagSet("list")
	unread := fs.Bool("unread", false, "only unread notifications")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return cli.List(context.Background(), os.Stdout, st.KV(cfg.User), *unread)
}

func runPrefs(args []string) error {
	fs, c := newFlagSet("prefs")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: notifications prefs [flags] '<json patch>'\n\nFlags:\n", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	kv := st.KV(cfg.User)
	ctx := context.Background()

	var prefs model.Preferences
	if fs.NArg() == 0 {
		prefs, err = cli.ApplyPreferences(ctx, kv, []byte("{}"))
	} else {
		prefs, err = cli.ApplyPreferences(ctx, kv, []byte(strings.Join(fs.Args(), " ")))
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(prefs)
}

func openStore(cfg *model.AppConfig) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.NewSQLiteStore(cfg.Storage.Path)
}

func categoryList() string {
	var names []string
	for _, c := range model.AllCategories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
