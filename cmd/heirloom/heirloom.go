// Package heirloomcmder
package heirloomcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/heirloomhq/heirloom/cmd/heirloom/config"
	ingestcmder "github.com/heirloomhq/heirloom/cmd/heirloom/ingest"
	passportscmder "github.com/heirloomhq/heirloom/cmd/heirloom/passports"
	servecmder "github.com/heirloomhq/heirloom/cmd/heirloom/serve"
	triggerscmder "github.com/heirloomhq/heirloom/cmd/heirloom/triggers"
	versioncmder "github.com/heirloomhq/heirloom/cmd/version"
)

const heirloomLongDesc string = `Heirloom distills a lifetime of recorded moments into a cultural memory
passport your descendants can draw on.

Common commands:
  heirloom ingest <dir>    Extract wisdom from raw records and submit a passport
  heirloom serve           Run the API server
  heirloom triggers        List the situational trigger taxonomy
  heirloom passports       List passports on a running API server`

const heirloomShortDesc string = "Heirloom - Cultural Memory Passports"

func NewHeirloomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heirloom",
		Short: heirloomShortDesc,
		Long:  heirloomLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .heirloom/ config directory")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(triggerscmder.NewTriggersCmd())
	cmd.AddCommand(passportscmder.NewPassportsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
