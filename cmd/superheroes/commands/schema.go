package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/superheroes/pkg/migration"
	"github.com/marshallshelly/superheroes/pkg/schema"
)

func newSchemaCmd() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL for the models",
		Long: `Print CREATE TABLE statements for heroes, powers and hero_powers in
dependency order, or with --drop the DROP statements in reverse order.
With --json the table metadata is printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := tables()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(describe(ts))
			}

			planner := migration.NewPlanner()
			sql := planner.CreateSQL(ts)
			if drop {
				sql = planner.DropSQL(ts)
			}
			_, err = fmt.Fprint(out, sql)
			return err
		},
	}

	cmd.Flags().BoolVar(&drop, "drop", false, "Print DROP statements")
	return cmd
}

type tableInfo struct {
	Name        string           `json:"name"`
	Columns     []columnInfo     `json:"columns"`
	ForeignKeys []foreignKeyInfo `json:"foreign_keys,omitempty"`
	Cascades    []string         `json:"cascades_to,omitempty"`
}

type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type foreignKeyInfo struct {
	Name       string `json:"name"`
	Column     string `json:"column"`
	References string `json:"references"`
	OnDelete   string `json:"on_delete"`
}

func describe(ts []*schema.TableMetadata) []tableInfo {
	out := make([]tableInfo, 0, len(ts))
	for _, t := range ts {
		info := tableInfo{Name: t.Name}
		for _, c := range t.Columns {
			info.Columns = append(info.Columns, columnInfo{Name: c.Name, Type: c.SQLType, Nullable: c.Nullable})
		}
		for _, fk := range t.ForeignKeys {
			info.ForeignKeys = append(info.ForeignKeys, foreignKeyInfo{
				Name:       fk.Name,
				Column:     fk.Columns[0],
				References: fk.ReferencedTable + "." + fk.ReferencedColumns[0],
				OnDelete:   string(fk.OnDelete),
			})
		}
		for _, rel := range t.CascadeDependents() {
			info.Cascades = append(info.Cascades, rel.TargetTable)
		}
		out = append(out, info)
	}
	return out
}
