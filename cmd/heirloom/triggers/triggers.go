// Package triggerscmder provides the heirloom triggers cobra command.
package triggerscmder

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heirloomhq/heirloom/pkg/cliui"
	"github.com/heirloomhq/heirloom/pkg/taxonomy"
)

const triggersLongDesc string = `List the closed situational trigger taxonomy.

Triggers describe moments in a descendant's life when ancestral wisdom is
relevant. Every memory in a passport is tagged with triggers from this
list, and matching resolves a trigger against a passport's memories.`

const triggersShortDesc string = "List the situational trigger taxonomy"

func NewTriggersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triggers",
		Short: triggersShortDesc,
		Long:  triggersLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run()
		},
	}

	return cmd
}

func run() error {
	triggers := taxonomy.AllTriggers()

	fmt.Fprintf(os.Stdout, "\n  %d situational triggers\n\n", len(triggers))
	for _, t := range triggers {
		fmt.Fprintf(os.Stdout, "  %s\n", cliui.KeyStyle.Render(t.ID))
		fmt.Fprintf(os.Stdout, "    %s\n", t.Description)
		fmt.Fprintf(os.Stdout, "    %s\n\n",
			cliui.DimStyle.Render("themes: "+strings.Join(t.RelatedThemes, ", ")),
		)
	}

	return nil
}
