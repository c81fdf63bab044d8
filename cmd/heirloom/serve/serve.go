// Package servecmder provides the heirloom API server cobra command.
package servecmder

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/heirloomhq/heirloom/api"
	"github.com/heirloomhq/heirloom/pkg/assemble"
	"github.com/heirloomhq/heirloom/pkg/config"
	"github.com/heirloomhq/heirloom/pkg/dotdir"
	"github.com/heirloomhq/heirloom/pkg/generate"
	"github.com/heirloomhq/heirloom/pkg/logger"
	"github.com/heirloomhq/heirloom/pkg/pipeline"
	"github.com/heirloomhq/heirloom/pkg/vault"
	"github.com/heirloomhq/heirloom/pkg/vault/inmemory"
	"github.com/heirloomhq/heirloom/pkg/vault/sqlite"
)

var serveFlags = config.FlagSet{
	config.FlagAPIListen:     {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
	config.FlagVaultTarget:   {Name: "vault", ViperKey: "vault.target", Description: "Remote vault service URL (default: local storage)"},
	config.FlagStorageDriver: {Name: "storage-driver", ViperKey: "storage.driver", Description: "Local storage driver: sqlite or inmemory"},
	config.FlagSQLite:        {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the local SQLite vault database"},
	config.FlagProvider:      {Name: "provider", Shorthand: "p", ViperKey: "extract.provider", Description: "Model provider: anthropic, openai, or ollama"},
	config.FlagModel:         {Name: "model", Shorthand: "m", ViperKey: "extract.model", Description: "Model name (provider default when empty)"},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagVaultTarget,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagProvider,
	config.FlagModel,
}

type serveCommander struct {
	listen        string
	vaultTarget   string
	storageDriver string
	sqlitePath    string
	provider      string
	model         string

	debug     bool
	configDir string
	v         *viper.Viper
	logger    *zap.Logger
}

const serveLongDesc string = `Run the heirloom API server.

Exposes passport listing and export, the situational trigger taxonomy,
trigger-to-memory matching, and pipeline ingestion over HTTP. When a
remote vault target is configured, consent is re-validated against it on
every match request.`

const serveShortDesc string = "Run the heirloom API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

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
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cmder.v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(cmder.v, cmd, serveFlags, serveFlagKeys)

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagVaultTarget, &cmder.vaultTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, serveFlags, config.FlagModel, &cmder.model)

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewZap(c.debug)
	defer c.logger.Sync()

	store, consent, err := c.newStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ingester, err := c.newIngester(store)
	if err != nil {
		return err
	}

	cfg := api.Config{
		ListenAddr: c.v.GetString("api.listen"),
	}

	server := api.NewServer(cfg, store, consent, ingester, c.logger)

	return server.Run()
}

// newStore selects the vault backend and, when remote, the consent checker
// that goes with it. Local drivers have no consent authority so the
// checker stays nil and match requests are served openly.
func (c *serveCommander) newStore() (vault.Store, vault.ConsentChecker, error) {
	if target := c.v.GetString("vault.target"); target != "" {
		client := vault.NewHTTPClient(target)
		c.logger.Info("using remote vault", zap.String("target", target))
		return client, client, nil
	}

	switch c.v.GetString("storage.driver") {
	case "inmemory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewStore(), nil, nil

	case "sqlite", "":
		path := c.v.GetString("storage.sqlite_path")
		if path == "" {
			dir, err := dotdir.NewManager().Target(c.configDir)
			if err != nil {
				return nil, nil, err
			}
			path = filepath.Join(dir, "heirloom.db")
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", path))
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %q", c.v.GetString("storage.driver"))
	}
}

// newIngester wires the pipeline behind POST /ingest. Errors creating the
// model caller are fatal; the endpoint itself degrades to 503 only when no
// provider is usable at all.
func (c *serveCommander) newIngester(store vault.Store) (api.Ingester, error) {
	call, err := generate.NewCaller(generate.CallerConfig{
		Provider: c.v.GetString("extract.provider"),
		Model:    c.v.GetString("extract.model"),
		BaseURL:  c.v.GetString("extract.target"),
	})
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.WithJSON(true), logger.WithDebug(c.debug))
	assembler := assemble.NewAssembler(store, log)

	return pipeline.New(call, store, assembler, log), nil
}
