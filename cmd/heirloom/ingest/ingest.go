// Package ingestcmder provides the heirloom ingest cobra command.
package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/heirloomhq/heirloom/pkg/assemble"
	"github.com/heirloomhq/heirloom/pkg/cliui"
	"github.com/heirloomhq/heirloom/pkg/config"
	"github.com/heirloomhq/heirloom/pkg/dotdir"
	"github.com/heirloomhq/heirloom/pkg/eventstream"
	"github.com/heirloomhq/heirloom/pkg/eventstream/kafka"
	"github.com/heirloomhq/heirloom/pkg/eventstream/nop"
	"github.com/heirloomhq/heirloom/pkg/extract"
	"github.com/heirloomhq/heirloom/pkg/generate"
	"github.com/heirloomhq/heirloom/pkg/logger"
	"github.com/heirloomhq/heirloom/pkg/pipeline"
	"github.com/heirloomhq/heirloom/pkg/vault"
	"github.com/heirloomhq/heirloom/pkg/vault/inmemory"
	"github.com/heirloomhq/heirloom/pkg/vault/sqlite"
)

// ingestFlags is the registry of flags shared with the ingest command.
var ingestFlags = config.FlagSet{
	config.FlagVaultTarget:   {Name: "vault", ViperKey: "vault.target", Description: "Remote vault service URL (default: local storage)"},
	config.FlagStorageDriver: {Name: "storage-driver", ViperKey: "storage.driver", Description: "Local storage driver: sqlite or inmemory"},
	config.FlagSQLite:        {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the local SQLite vault database"},
	config.FlagProvider:      {Name: "provider", Shorthand: "p", ViperKey: "extract.provider", Description: "Model provider: anthropic, openai, or ollama"},
	config.FlagModel:         {Name: "model", Shorthand: "m", ViperKey: "extract.model", Description: "Model name (provider default when empty)"},
	config.FlagModelTarget:   {Name: "model-target", ViperKey: "extract.target", Description: "Override the provider base URL"},
	config.FlagBatchSize:     {Name: "batch-size", Shorthand: "b", ViperKey: "extract.batch_size", Description: "Records per extraction batch"},
	config.FlagEventsEnabled: {Name: "events", ViperKey: "events.enabled", Description: "Publish memory events to the event stream"},
	config.FlagEventsBrokers: {Name: "brokers", ViperKey: "events.brokers", Description: "Comma-separated event stream broker addresses"},
	config.FlagEventsTopic:   {Name: "topic", ViperKey: "events.topic", Description: "Event stream topic for memory events"},
}

var ingestFlagKeys = []string{
	config.FlagVaultTarget,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagProvider,
	config.FlagModel,
	config.FlagModelTarget,
	config.FlagBatchSize,
	config.FlagEventsEnabled,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

type ingestCommander struct {
	vaultTarget   string
	storageDriver string
	sqlitePath    string
	provider      string
	model         string
	modelTarget   string
	batchSize     uint
	eventsEnabled bool
	brokers       string
	topic         string

	debug     bool
	configDir string
	v         *viper.Viper
}

const ingestLongDesc string = `Run the full ingest pipeline over a directory of raw life records.

The directory must contain subject_profile.json and one or more of the
known record feeds (lifelog.jsonl, emails.jsonl, calendar.jsonl, ...). Records
are deduplicated, mined for emotionally significant wisdom signals, gated
by emotional weight, and assembled into a cultural memory passport that is
submitted to the vault. Re-running over the same records updates the
subject's existing passport instead of creating a second one.`

const ingestShortDesc string = "Extract wisdom from raw records and submit a passport"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <source-dir>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
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
			config.BindRegisteredFlags(cmder.v, cmd, ingestFlags, ingestFlagKeys)

			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			return cmder.run(args[0])
		},
	}

	config.AddStringFlag(cmd, ingestFlags, config.FlagVaultTarget, &cmder.vaultTarget)
	config.AddStringFlag(cmd, ingestFlags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, ingestFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, ingestFlags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, ingestFlags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, ingestFlags, config.FlagModelTarget, &cmder.modelTarget)
	config.AddUintFlag(cmd, ingestFlags, config.FlagBatchSize, &cmder.batchSize)
	config.AddBoolFlag(cmd, ingestFlags, config.FlagEventsEnabled, &cmder.eventsEnabled)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEventsBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEventsTopic, &cmder.topic)

	return cmd
}

func (c *ingestCommander) run(sourceDir string) error {
	log := logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))

	call, err := generate.NewCaller(generate.CallerConfig{
		Provider: c.v.GetString("extract.provider"),
		Model:    c.v.GetString("extract.model"),
		BaseURL:  c.v.GetString("extract.target"),
	})
	if err != nil {
		return err
	}

	store, err := c.newStore()
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	assembler := assemble.NewAssembler(store, log, assemble.WithPublisher(publisher))

	var opts []extract.Option
	if batch := c.v.GetUint("extract.batch_size"); batch > 0 {
		opts = append(opts, extract.WithBatchSize(int(batch)))
	}

	p := pipeline.New(call, store, assembler, log, opts...)

	result, err := p.Ingest(context.Background(), sourceDir)
	if err != nil {
		return err
	}

	c.printSummary(result)

	if result.PassportID != "" {
		state := &dotdir.LastRunState{
			PassportID:     result.PassportID,
			MemoriesPosted: result.MemoriesPosted,
			CompletedAt:    time.Now().UTC(),
		}
		if err := dotdir.NewManager().SaveLastRun(state, c.configDir); err != nil {
			log.Warn("failed to save last-run state", "error", err)
		}
	}

	return nil
}

// newStore selects the vault backend: the remote HTTP vault when a target
// is configured, otherwise a local sqlite or inmemory driver.
func (c *ingestCommander) newStore() (vault.Store, error) {
	if target := c.v.GetString("vault.target"); target != "" {
		return vault.NewHTTPClient(target), nil
	}

	switch c.v.GetString("storage.driver") {
	case "inmemory":
		return inmemory.NewStore(), nil

	case "sqlite", "":
		path := c.v.GetString("storage.sqlite_path")
		if path == "" {
			dir, err := dotdir.NewManager().Target(c.configDir)
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "heirloom.db")
		}
		return sqlite.NewStore(path)

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", c.v.GetString("storage.driver"))
	}
}

func (c *ingestCommander) newPublisher() (eventstream.Publisher, error) {
	if !c.v.GetBool("events.enabled") {
		return nop.NewPublisher(), nil
	}

	brokers := strings.Split(c.v.GetString("events.brokers"), ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	topic := c.v.GetString("events.topic")

	return kafka.NewPublisher(brokers, topic), nil
}

func (c *ingestCommander) printSummary(result *pipeline.IngestResult) {
	fmt.Fprintf(os.Stdout, "\n  %s Ingest complete %s\n\n",
		cliui.SuccessMark,
		cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(result.Elapsed))),
	)

	rows := []struct {
		label string
		value string
	}{
		{"Records loaded", fmt.Sprintf("%d", result.RecordsLoaded)},
		{"Duplicates removed", fmt.Sprintf("%d", result.DuplicatesRemoved)},
		{"Signals extracted", fmt.Sprintf("%d", result.SignalsExtracted)},
		{"Below weight gate", fmt.Sprintf("%d", result.GatedOut)},
		{"Memories produced", fmt.Sprintf("%d", result.MemoriesProduced)},
		{"Memories posted", fmt.Sprintf("%d", result.MemoriesPosted)},
	}
	for _, row := range rows {
		fmt.Fprintf(os.Stdout, "  %s %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%-20s", row.label)),
			cliui.ValueStyle.Render(row.value),
		)
	}

	if result.PassportID != "" {
		verb := "created"
		if result.Updated {
			verb = "updated"
		}
		fmt.Fprintf(os.Stdout, "\n  Passport %s: %s\n\n", verb, cliui.ValueStyle.Render(result.PassportID))
	} else {
		fmt.Fprintf(os.Stdout, "\n  %s\n\n", cliui.DimStyle.Render("No passport submitted."))
	}
}
