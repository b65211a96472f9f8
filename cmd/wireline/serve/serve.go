// Package servecmder provides the serve command for running the wireline gateway.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papercomputeco/wireline/gateway"
	"github.com/papercomputeco/wireline/pkg/config"
	"github.com/papercomputeco/wireline/pkg/eventstream"
	"github.com/papercomputeco/wireline/pkg/eventstream/kafka"
	"github.com/papercomputeco/wireline/pkg/eventstream/nop"
	"github.com/papercomputeco/wireline/pkg/logger"
	"github.com/papercomputeco/wireline/pkg/storage"
	"github.com/papercomputeco/wireline/pkg/storage/inmemory"
	"github.com/papercomputeco/wireline/pkg/storage/postgres"
	"github.com/papercomputeco/wireline/pkg/storage/sqlite"
)

type ServeCommander struct {
	listen         string
	upstream       string
	compress       bool
	storageDriver  string
	sqlitePath     string
	postgresDSN    string
	eventsProvider string
	brokers        []string
	topic          string
	debug          bool
	configDir      string
	logFile        string

	// logger is the zap logger handed to the gateway for request-path
	// logging; log is the slog logger for the command's own CLI output.
	logger *zap.Logger
	log    *slog.Logger
	viper  *viper.Viper
}

const serveLongDesc string = `Run the wireline gateway.

The gateway listens for OpenAI-style chat completion requests and
forwards them to the framed protobuf backend, translating both the
request and the streamed or buffered response.

Configuration precedence: CLI flags, then WIRELINE_* environment
variables, then config.toml, then built-in defaults.

Examples:
  wireline serve
  wireline serve --listen :9090 --upstream http://backend:8791
  wireline serve --storage sqlite --sqlite ./wireline.db
  wireline serve --events kafka --brokers broker:9092 --topic wireline.exchanges`

const serveShortDesc string = "Run the wireline gateway"

// serveFlags is the flag registry for the serve command. Each entry maps
// a CLI flag to its dotted viper key so defaults, env vars, and the config
// file all resolve through the same precedence chain.
var serveFlags = config.FlagSet{
	config.FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "gateway.listen",
		Description: "Address for the gateway to listen on",
	},
	config.FlagUpstream: {
		Name:        "upstream",
		Shorthand:   "u",
		ViperKey:    "upstream.target",
		Description: "Framed protobuf backend URL",
	},
	config.FlagCompress: {
		Name:        "compress",
		ViperKey:    "upstream.compress",
		Description: "Gzip-compress request frames sent to the backend",
	},
	config.FlagStorage: {
		Name:        "storage",
		ViperKey:    "storage.driver",
		Description: "Exchange storage driver (inmemory, sqlite, postgres)",
	},
	config.FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to SQLite database (storage driver: sqlite)",
	},
	config.FlagPostgres: {
		Name:        "postgres",
		ViperKey:    "storage.postgres_dsn",
		Description: "Postgres connection string (storage driver: postgres)",
	},
	config.FlagEvents: {
		Name:        "events",
		ViperKey:    "events.provider",
		Description: "Exchange event publisher (nop, kafka)",
	},
	config.FlagBrokers: {
		Name:        "brokers",
		ViperKey:    "events.brokers",
		Description: "Kafka broker addresses (events provider: kafka)",
	},
	config.FlagTopic: {
		Name:        "topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for exchange events (events provider: kafka)",
	},
}

// serveFlagKeys lists every registry key the serve command binds.
var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagUpstream,
	config.FlagCompress,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEvents,
	config.FlagBrokers,
	config.FlagTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %v", err)
			}

			cmder.viper, err = config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(cmder.viper, cmd, serveFlags, serveFlagKeys)
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagUpstream, &cmder.upstream)
	config.AddBoolFlag(cmd, serveFlags, config.FlagCompress, &cmder.compress)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorage, &cmder.storageDriver)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagEvents, &cmder.eventsProvider)
	config.AddStringSliceFlag(cmd, serveFlags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, serveFlags, config.FlagTopic, &cmder.topic)

	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	// CLI-facing output: pretty to stdout, fanned out to JSON in a file
	// when --log-file is set.
	pretty := logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))
	c.log = pretty
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()

		c.log = logger.Multi(pretty, logger.New(
			logger.WithJSON(true),
			logger.WithDebug(c.debug),
			logger.WithWriter(f),
		))
	}

	// Resolve every setting through viper so env vars and config.toml
	// fill in anything the flags left at their defaults.
	c.listen = c.viper.GetString("gateway.listen")
	c.upstream = c.viper.GetString("upstream.target")
	c.compress = c.viper.GetBool("upstream.compress")
	c.storageDriver = c.viper.GetString("storage.driver")
	c.sqlitePath = c.viper.GetString("storage.sqlite_path")
	c.postgresDSN = c.viper.GetString("storage.postgres_dsn")
	c.eventsProvider = c.viper.GetString("events.provider")
	c.brokers = c.viper.GetStringSlice("events.brokers")
	c.topic = c.viper.GetString("events.topic")

	driver, err := c.createDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := c.createPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	hostname, _ := os.Hostname()
	gwConfig := gateway.Config{
		ListenAddr:  c.listen,
		UpstreamURL: c.upstream,
		Compress:    c.compress,
		GatewayName: hostname,
	}
	gw, err := gateway.New(gwConfig, driver, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	defer gw.Close()

	c.log.Info("starting gateway",
		"listen", c.listen,
		"upstream", c.upstream,
		"compress", c.compress,
		"storage", c.storageDriver,
		"events", c.eventsProvider,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := gw.Run(); err != nil {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go c.watchConfig(watchCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.log.Info("received signal, shutting down", "signal", sig.String())
		return nil
	}
}

// watchConfig logs when config.toml changes under the gateway. Settings are
// bound at startup, so a change only takes effect on restart; the log line
// makes that visible instead of silently ignoring the edit.
func (c *ServeCommander) watchConfig(ctx context.Context) {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		c.log.Debug("config watch disabled", "error", err)
		return
	}

	err = cfger.Watch(ctx, func(cfg *config.Config) {
		c.log.Info("config file changed, restart to apply",
			"path", cfger.GetTarget(),
			"gateway.listen", cfg.Gateway.Listen,
			"upstream.target", cfg.Upstream.Target,
		)
	})
	if err != nil && ctx.Err() == nil {
		c.log.Debug("config watch stopped", "error", err)
	}
}

func (c *ServeCommander) createDriver() (storage.Driver, error) {
	switch c.storageDriver {
	case "sqlite":
		if c.sqlitePath == "" {
			return nil, fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
		driver, err := sqlite.NewSQLiteDriver(c.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite storage: %w", err)
		}
		c.log.Info("using sqlite storage", "path", c.sqlitePath)
		return driver, nil
	case "postgres":
		if c.postgresDSN == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
		driver, err := postgres.NewDriver(context.Background(), c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("creating postgres storage: %w", err)
		}
		c.log.Info("using postgres storage")
		return driver, nil
	case "inmemory", "":
		c.log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %q (valid: inmemory, sqlite, postgres)", c.storageDriver)
	}
}

func (c *ServeCommander) createPublisher() (eventstream.Publisher, error) {
	switch c.eventsProvider {
	case "kafka":
		if len(c.brokers) == 0 {
			return nil, fmt.Errorf("events.brokers is required for the kafka provider")
		}
		c.log.Info("publishing exchange events to kafka",
			"brokers", c.brokers,
			"topic", c.topic,
		)
		return kafka.NewPublisher(c.brokers, c.topic), nil
	case "nop", "":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unknown events provider: %q (valid: nop, kafka)", c.eventsProvider)
	}
}
