package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/superheroes/cmd/superheroes/output"
	"github.com/marshallshelly/superheroes/cmd/superheroes/tui"
)

func newBrowseCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse heroes and their powers",
		Long: `Browse heroes with their powers in an interactive list. Heroes can be
filtered and deleted from the list; deleting a hero deletes its hero powers.

With --plain (or --json) the heroes are printed once instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if !plain && !jsonOutput {
				return tui.RunBrowser(s)
			}

			items, err := tui.LoadHeroes(ctx, s)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			printHeroes(items)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print heroes without the interactive list")
	return cmd
}

func printHeroes(items []tui.HeroItem) {
	output.Section("Heroes")
	if len(items) == 0 {
		output.Info("No heroes")
		return
	}
	for _, it := range items {
		output.Info("%d %s aka %s", it.ID, it.Name, it.SuperName)
		if len(it.Powers) == 0 {
			output.Muted("    no powers")
			continue
		}
		parts := make([]string, 0, len(it.Powers))
		for _, p := range it.Powers {
			parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, output.StrengthBadge(p.Strength)))
		}
		output.Muted("    %s", strings.Join(parts, ", "))
	}
}
