package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/config"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/database"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/engine"
)

var log = logger.GetLogger()

type CLIArgs struct {
	ConfigFile string `arg:"--config,env:CONFIG_FILE" default:"config.toml"`
}

func main() {
	var args CLIArgs
	arg.MustParse(&args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args CLIArgs) error {
	cfg, err := config.ReadFile(args.ConfigFile)
	if err != nil {
		return err
	}

	cfg.ApplyEnvOverrides()

	var db *database.DB
	if cfg.DB.Enabled {
		db, err = database.New(&cfg.DB)
		if err != nil {
			return err
		}
	} else {
		log.Info("receipt store disabled, running in memory only")
	}

	build, err := config.ReadBuildVersion()
	if err != nil {
		log.Infof("no build version files found: %v", err)
	}

	eng, err := engine.New(cfg, db, build)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return eng.Run(ctx)
	})

	eg.Go(func() error {
		return eng.ServeRPC(ctx, cfg.Engine.RPCListenAddr)
	})

	return eg.Wait()
}
