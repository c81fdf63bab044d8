// Package configcmder provides the config command for managing persistent
// heirloom configuration stored in the .heirloom/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent heirloom configuration.

Configuration is stored as config.toml in the .heirloom/ directory and
provides default values for command flags. CLI flags always take
precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path,
  vault.target,
  extract.provider, extract.model, extract.target, extract.batch_size,
  api.listen, client.api_target,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  heirloom config set <key> <value>    Set a configuration value
  heirloom config get <key>            Get a configuration value
  heirloom config list                 List all configuration values

Examples:
  heirloom config set extract.provider anthropic
  heirloom config set vault.target http://localhost:8086
  heirloom config get extract.provider
  heirloom config list`

const configShortDesc string = "Manage persistent heirloom configuration"

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
