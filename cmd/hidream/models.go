package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"hidream/internal/registry"
	"hidream/internal/resolve"
	"hidream/pkg/types"
)

func newModelsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the predefined models and supported resolutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			reg, err := registry.New(cfg.Models)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			data := lo.Map(reg.Models(), func(m types.ModelInfo, _ int) []string {
				return []string{
					m.Kind,
					m.Repo,
					m.Scheduler,
					strconv.Itoa(m.Steps),
					strconv.FormatFloat(m.GuidanceScale, 'f', 1, 64),
					strconv.FormatFloat(m.Shift, 'f', 1, 64),
				}
			})
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"KIND", "REPO", "SCHEDULER", "STEPS", "GUIDANCE", "SHIFT"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk(data)
			table.Render()

			res := lo.Map(resolve.SupportedResolutions(), func(r types.Resolution, _ int) string { return r.String() })
			fmt.Fprintf(out, "\nResolutions: %s\n", strings.Join(res, ", "))
			return nil
		},
	}
}
