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
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/umit144/subscriber-provisioner/internal/config"
	"github.com/umit144/subscriber-provisioner/internal/database"
	"github.com/umit144/subscriber-provisioner/internal/logger"
	"github.com/umit144/subscriber-provisioner/internal/models"
	"github.com/umit144/subscriber-provisioner/internal/profile"
	"github.com/umit144/subscriber-provisioner/internal/repositories"
	"github.com/umit144/subscriber-provisioner/internal/services"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const (
	cmdProvision = "provision"
	cmdRemove    = "remove"
	cmdVerify    = "verify"
)

// newService is swapped in tests for a stub Provisioner.
var newService = buildService

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd, rest := splitCommand(args)
	switch cmd {
	case cmdProvision, cmdRemove, cmdVerify:
	default:
		fmt.Fprintf(stderr, "unknown command %q (want provision, remove or verify)\n", cmd)
		return exitUsage
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	imsi := fs.String("imsi", "", "subscriber IMSI; overrides the profile value")
	profilePath := fs.String("profile", "", "TOML or YAML subscriber profile (default: built-in test subscriber)")
	strategy := fs.String("strategy", "", "write strategy: delete-insert or upsert")
	deriveOPc := fs.Bool("derive-opc", false, "store OPc derived from OP instead of OP")
	if err := fs.Parse(rest); err != nil {
		return exitUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitUsage
	}
	if *profilePath != "" {
		cfg.ProfilePath = *profilePath
	}
	if *strategy != "" {
		cfg.Strategy = services.Strategy(*strategy)
	}
	if *deriveOPc {
		cfg.DeriveOPc = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return exitUsage
	}

	logger.InitLogger(cfg.LogFile, cfg.LogLevel, cfg.LogMaxSize, cfg.LogMaxBackups, cfg.LogMaxAge)

	sub, err := loadSubscriber(cfg.ProfilePath, *imsi)
	if err != nil {
		slog.Error("Failed to load subscriber profile", "error", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	svc, closeAll, err := newService(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize datastore", "error", err)
		return exitCode(err)
	}
	defer closeAll()

	switch cmd {
	case cmdRemove:
		n, err := svc.Remove(ctx, sub.IMSI)
		if err != nil {
			slog.Error("Failed to remove subscriber", "imsi", sub.IMSI, "error", err)
			return exitCode(err)
		}
		fmt.Fprintf(stdout, "Subscribers removed: %d\n", n)
		return exitOK

	case cmdVerify:
		found, err := svc.Verify(ctx, sub.IMSI)
		if errors.Is(err, models.ErrNotFound) {
			fmt.Fprintf(stdout, "ERROR: Subscriber %s not found!\n", sub.IMSI)
			return exitFailure
		}
		if err != nil {
			slog.Error("Failed to verify subscriber", "imsi", sub.IMSI, "error", err)
			return exitCode(err)
		}
		printSubscriber(stdout, found)
		return exitOK

	default:
		report, err := svc.Provision(ctx, sub)
		if err != nil {
			slog.Error("Failed to provision subscriber", "imsi", sub.IMSI, "error", err)
			return exitCode(err)
		}
		printReport(stdout, report)
		if !report.Found {
			return exitFailure
		}
		return exitOK
	}
}

// splitCommand treats a leading flag or an empty argument list as the
// provision command.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return cmdProvision, args
	}
	return args[0], args[1:]
}

func loadSubscriber(path, imsi string) (models.Subscriber, error) {
	sub := models.TestNetworkSubscriber()
	if path != "" {
		loaded, err := profile.Load(path)
		if err != nil {
			return models.Subscriber{}, err
		}
		sub = loaded
	}
	if imsi != "" {
		sub.IMSI = imsi
	}
	return sub, nil
}

func buildService(ctx context.Context, cfg *config.Config) (services.Provisioner, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	mongoDB, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB, cfg.OperationTimeout)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, func() {
		if err := mongoDB.Close(context.Background()); err != nil {
			slog.Warn("Failed to disconnect from mongo", "error", err)
		}
	})
	slog.Info("Connected to mongo", "db", cfg.MongoDB, "collection", cfg.MongoCollection)

	store := repositories.NewSubscriberRepository(mongoDB.Collection(cfg.MongoCollection))
	if cfg.MongoUniqueIMSI {
		if err := store.EnsureUniqueIMSI(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
	}

	var mirror services.CredentialMirror
	if cfg.MySQLDSN != "" {
		db, err := database.NewDatabase(ctx, cfg.MySQLDSN)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		mirror = repositories.NewCredentialRepository(db, cfg.MySQLTable)
		slog.Info("Credential mirror enabled", "table", cfg.MySQLTable)
	}

	var publisher services.EventPublisher
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, func() { client.Close() })
		publisher = services.NewRedisPublisher(client, cfg.RedisChannel)
		slog.Info("Subscriber events enabled", "channel", cfg.RedisChannel)
	}

	svc := services.NewProvisioningService(store, mirror, publisher, cfg.Strategy, cfg.DeriveOPc)
	return svc, closeAll, nil
}

// exitCode maps bad input to exitUsage. Store problems, including a stored
// record that fails to decode, are exitFailure.
func exitCode(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRecord), errors.Is(err, database.ErrInvalidConnString):
		return exitUsage
	default:
		return exitFailure
	}
}

func printReport(w io.Writer, r *services.ProvisionReport) {
	fmt.Fprintf(w, "Subscribers added: %d\n", r.Count)
	if !r.Found {
		fmt.Fprintln(w, "ERROR: Subscriber not found after insertion!")
		return
	}
	fmt.Fprintf(w, "Subscriber IMSI: %s\n", r.IMSI)
	fmt.Fprintf(w, "Subscriber K: %s\n", r.K)
	fmt.Fprintf(w, "Subscriber %s: %s\n", r.OperatorKind, r.OperatorKey)
	fmt.Fprintf(w, "Default APN: %s\n", r.DefaultAPN)
}

func printSubscriber(w io.Writer, sub *models.Subscriber) {
	fmt.Fprintf(w, "Subscriber IMSI: %s\n", sub.IMSI)
	fmt.Fprintf(w, "Subscriber K: %s\n", sub.Security.K)
	fmt.Fprintf(w, "Subscriber %s: %s\n", sub.Security.Operator.Kind, sub.Security.Operator.Value)
	fmt.Fprintf(w, "Default APN: %s\n", sub.DefaultAPN())
}
