// Package passportscmder provides the heirloom passports cobra command,
// a client-side listing of passports held by a running API server.
package passportscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/heirloomhq/heirloom/pkg/cliui"
	"github.com/heirloomhq/heirloom/pkg/config"
	"github.com/heirloomhq/heirloom/pkg/vault"
)

// passportsFlags is the registry of flags for the passports command.
var passportsFlags = config.FlagSet{
	config.FlagAPITarget: {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "Heirloom API server URL"},
}

var passportsFlagKeys = []string{
	config.FlagAPITarget,
}

type passportsCommander struct {
	apiTarget string

	configDir string
	v         *viper.Viper
}

const passportsLongDesc string = `List the passports held by a running heirloom API server.

Connects to the API at client.api_target (or --api-target) and prints a
summary line per passport: id, family name, and primary contributor.

Examples:
  heirloom passports
  heirloom passports --api-target http://remote:8081`

const passportsShortDesc string = "List passports on the API server"

func NewPassportsCmd() *cobra.Command {
	cmder := &passportsCommander{}

	cmd := &cobra.Command{
		Use:   "passports",
		Short: passportsShortDesc,
		Long:  passportsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			var err error
			cmder.v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(cmder.v, cmd, passportsFlags, passportsFlagKeys)

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, passportsFlags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *passportsCommander) run() error {
	target := c.v.GetString("client.api_target")

	output, err := ListAPI(context.Background(), target)
	if err != nil {
		return err
	}

	if output.Count == 0 {
		fmt.Printf("  %s\n", cliui.DimStyle.Render("No passports stored."))
		return nil
	}

	fmt.Printf("\n  %d passports\n\n", output.Count)
	for _, info := range output.Passports {
		fmt.Printf("  %s  %s %s\n",
			cliui.KeyStyle.Render(info.PassportID),
			cliui.ValueStyle.Render(info.FamilyName),
			cliui.DimStyle.Render("("+info.Contributor+")"),
		)
	}
	fmt.Println()

	return nil
}

// ListOutput is the parsed body of the API's passport listing.
type ListOutput struct {
	Count     int          `json:"count"`
	Passports []vault.Info `json:"passports"`
}

// ListAPI fetches the passport listing from the heirloom API at apiTarget.
func ListAPI(ctx context.Context, apiTarget string) (*ListOutput, error) {
	listURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	listURL.Path = "/passports"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating passports request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to heirloom API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("passports request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output ListOutput
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse passports response: %w", err)
	}

	return &output, nil
}
