// dashboard signs in to the order-management API, loads the dashboard
// data and prints one view of it as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/auth"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/config"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/order"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/session"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/setting"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/stats"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/pkg/utilities"
)

const usage = `Usage: dashboard [flags] [stats|products|orders|customers|user|order <number>]

Signs in (or restores a remembered session), loads products, orders and
customers, and prints the requested view as JSON. The default view is stats.

Flags:
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	var remember bool
	flagSet := pflag.NewFlagSet("dashboard", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "API root URL")
	flagSet.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flagSet.StringVarP(&cfg.Username, "username", "u", cfg.Username, "account e-mail")
	flagSet.StringVarP(&cfg.Password, "password", "p", cfg.Password, "account password")
	flagSet.BoolVar(&remember, "remember", false, "remember this device")
	flagSet.StringVar(&cfg.SettingsFile, "settings", cfg.SettingsFile, "settings file")
	flagSet.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")
	flagSet.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, closeSettings, err := setting.Open(ctx, cfg.Database, cfg.SettingsFile)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer closeSettings()

	s, err := session.New(ctx, cfg, settings, nil, sugar)
	if err != nil {
		return err
	}
	if err := connect(ctx, s, cfg, remember, sugar); err != nil {
		return err
	}

	args := flagSet.Args()
	view := "stats"
	if len(args) > 0 {
		view = args[0]
	}
	out, err := render(ctx, s, view, args[min(1, len(args)):])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// connect signs in with the configured credentials, or tries to restore a
// remembered session when none are given.
func connect(ctx context.Context, s *session.Session, cfg config.Config, remember bool, logger *zap.SugaredLogger) error {
	var err error
	if cfg.Username != "" {
		_, err = s.Login(ctx, cfg.Username, cfg.Password, remember)
	} else {
		var st auth.Status
		st, err = s.Bootstrap(ctx)
		if err == nil && st != auth.StatusEstablished {
			return errors.New("not signed in: pass --username and --password")
		}
	}
	if errors.Is(err, session.ErrPartialLoad) {
		logger.Warnw("some data could not be loaded", "err", err)
		return nil
	}
	return err
}

func render(ctx context.Context, s *session.Session, view string, args []string) (any, error) {
	snap := s.Data().Snapshot()
	switch view {
	case "stats":
		return stats.Compute(snap), nil
	case "products":
		return snap.Products, nil
	case "orders":
		return order.SortByDate(snap.Orders), nil
	case "customers":
		return snap.Customers, nil
	case "user":
		return s.Data().CurrentUser(ctx)
	case "order":
		if len(args) == 0 {
			return nil, errors.New("order: missing order number")
		}
		return s.Data().GetOrder(ctx, args[0])
	}
	return nil, fmt.Errorf("unknown view %q", view)
}
