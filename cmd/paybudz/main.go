// paybudz — консольный клиент wallet-бэкенда.
//
//	paybudz [--config path] [--metrics] <command> [args]
//
// Команды: signin <idToken>, signout, profile, balance <walletID>,
// send <username> <amount> [currency], topup <amount> [currency], history.
// Валюта по умолчанию — NGN.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/pribylovaa/paybudz-client/internal/apiclient"
	"github.com/pribylovaa/paybudz-client/internal/clients"
	"github.com/pribylovaa/paybudz-client/internal/config"
	"github.com/pribylovaa/paybudz-client/internal/models"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const (
	exitOK          = 0
	exitError       = 1
	exitAuthExpired = 2
)

var errUsage = errors.New("usage: paybudz [--config path] [--metrics] signin|signout|profile|balance|send|topup|history")

func main() {
	var (
		configPath  string
		dumpMetrics bool
	)
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.BoolVar(&dumpMetrics, "metrics", false, "print client metrics to stderr on exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}

	log := setupLogger(cfg.Env, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var reg *prometheus.Registry
	opts := clients.Options{}
	if dumpMetrics {
		reg = prometheus.NewRegistry()
		opts.Registerer = reg
	}

	code := run(ctx, *cfg, log, opts, flag.Args(), os.Stdout, os.Stderr)

	if reg != nil {
		writeMetrics(reg, os.Stderr)
	}

	cancel()
	os.Exit(code)
}

// run выполняет одну команду и возвращает код выхода.
func run(ctx context.Context, cfg config.Config, log *slog.Logger, opts clients.Options, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, errUsage)
		return exitError
	}

	cl, err := clients.New(ctx, cfg, log, opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer func() {
		if cerr := cl.Close(); cerr != nil {
			log.Warn("clients_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	out, err := dispatch(ctx, cl, args[0], args[1:])
	if err != nil {
		if apiclient.IsAuthExpired(err) {
			fmt.Fprintln(stderr, "session expired: run `paybudz signin <idToken>` again")
			return exitAuthExpired
		}
		fmt.Fprintln(stderr, err)
		return exitError
	}

	if out == nil {
		return exitOK
	}

	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	fmt.Fprintln(stdout, string(data))

	return exitOK
}

func dispatch(ctx context.Context, cl *clients.Clients, cmd string, args []string) (any, error) {
	switch cmd {
	case "signin":
		if len(args) != 1 {
			return nil, fmt.Errorf("signin <idToken>: %w", errUsage)
		}
		if _, err := cl.Auth.SignUpWithGoogle(ctx, args[0]); err != nil {
			return nil, err
		}
		return cl.Users.Profile(ctx)

	case "signout":
		return nil, cl.Auth.SignOut(ctx)

	case "profile":
		return cl.Users.Profile(ctx)

	case "balance":
		if len(args) != 1 {
			return nil, fmt.Errorf("balance <walletID>: %w", errUsage)
		}
		return cl.Wallets.Balance(ctx, args[0])

	case "send":
		if len(args) < 2 || len(args) > 3 {
			return nil, fmt.Errorf("send <username> <amount> [currency]: %w", errUsage)
		}
		amount, currency, err := money(args[1], args[2:])
		if err != nil {
			return nil, err
		}
		return cl.Transfers.Send(ctx, models.TransferRequest{
			DestinationUsername: args[0],
			Amount:              amount,
			Currency:            currency,
		})

	case "topup":
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("topup <amount> [currency]: %w", errUsage)
		}
		amount, currency, err := money(args[0], args[1:])
		if err != nil {
			return nil, err
		}
		return cl.Wallets.TopUp(ctx, amount, currency)

	case "history":
		return cl.Transactions.History(ctx, models.TransactionFilter{})

	default:
		return nil, fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

// money разбирает сумму и необязательную валюту (по умолчанию NGN).
func money(rawAmount string, rest []string) (float64, models.Currency, error) {
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		return 0, "", fmt.Errorf("amount %q: %w", rawAmount, err)
	}

	currency := models.CurrencyNGN
	if len(rest) > 0 {
		currency = models.Currency(strings.ToUpper(rest[0]))
	}

	return amount, currency, nil
}

func writeMetrics(g prometheus.Gatherer, w io.Writer) {
	mfs, err := g.Gather()
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	for _, mf := range mfs {
		_, _ = expfmt.MetricFamilyToText(w, mf)
	}
}

func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
