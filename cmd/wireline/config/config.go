// Package configcmder provides the config command for managing persistent
// wireline configuration stored in the .wireline/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent wireline configuration.

Configuration is stored as config.toml in the .wireline/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  gateway.listen,
  upstream.target, upstream.compress,
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  events.provider, events.brokers, events.topic,
  client.gateway_target

Use subcommands to get, set, or list configuration values:
  wireline config set <key> <value>    Set a configuration value
  wireline config get <key>            Get a configuration value
  wireline config list                 List all configuration values

Examples:
  wireline config set upstream.target http://backend:8791
  wireline config set storage.driver sqlite
  wireline config get gateway.listen
  wireline config list`

const configShortDesc string = "Manage persistent wireline configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
