package main

import (
	"fmt"
	"strings"

	"ggpbench/internal/batch"
	"ggpbench/internal/experiment"
	"ggpbench/internal/inspect"
	"ggpbench/internal/providers"
	"ggpbench/internal/version"
	"ggpbench/pkg/ggptypes"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// showCmd renders a result file
var showCmd = &cobra.Command{
	Use:   "show <result.json>",
	Short: "Show a result file with ground truth diffs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := batch.ReadResult(args[0])
		if err != nil {
			return err
		}

		opts := inspect.OptionsFor(cmd.OutOrStdout())
		if style, _ := cmd.Flags().GetString("style"); style != "" {
			opts.Style = style
		}
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			opts.Plain = true
		}
		opts.Width, _ = cmd.Flags().GetInt("width")

		markdown := inspect.Markdown(result)
		if raw, _ := cmd.Flags().GetBool("markdown"); raw {
			fmt.Fprint(cmd.OutOrStdout(), markdown)
			return nil
		}
		rendered, err := inspect.Render(markdown, opts)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

// providersCmd lists the provider catalog
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers and their defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := providers.LoadCatalog()
		if err != nil {
			return err
		}

		header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		body := lipgloss.NewStyle().Padding(0, 1)

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("PROVIDER", "DEFAULT MODEL", "KEYS", "ATTEMPTS", "ROTATION").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return body
			})

		for _, entry := range catalog.Entries() {
			rotation := "off"
			if entry.Rotation.Enabled {
				rotation = fmt.Sprintf("%d cycles", entry.Rotation.Cycles)
			}
			t.Row(entry.ID, entry.DefaultModel, entry.KeySources(), fmt.Sprint(entry.Retry.MaxAttempts), rotation)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

// schemaCmd prints the response schema of an experiment
var schemaCmd = &cobra.Command{
	Use:       "schema <experiment>",
	Short:     "Print the JSON schema a model's answer must satisfy",
	Args:      cobra.ExactArgs(1),
	ValidArgs: experimentNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := ggptypes.ParseExperimentKind(args[0])
		if err != nil {
			return fmt.Errorf("%w (choose from %s)", err, strings.Join(experimentNames(), ", "))
		}
		doc, err := experiment.SchemaJSON(kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(doc))
		return nil
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Example: `  ggpbench version --detailed
  ggpbench version --check ">= 0.1, < 1"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if constraint, _ := cmd.Flags().GetString("check"); constraint != "" {
			ok, err := version.Satisfies(constraint)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s does not satisfy %q", version.Short(), constraint)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s satisfies %q\n", version.Short(), constraint)
			return nil
		}
		if detailed, _ := cmd.Flags().GetBool("detailed"); detailed {
			fmt.Fprintln(cmd.OutOrStdout(), version.Detailed())
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.Short())
		return nil
	},
}

func init() {
	showCmd.Flags().String("style", "", "Glamour style (auto|dark|light|notty|ascii)")
	showCmd.Flags().Int("width", inspect.DefaultWordWrap, "Word wrap width")
	showCmd.Flags().Bool("plain", false, "Strip colors and styling")
	showCmd.Flags().Bool("markdown", false, "Print the markdown source instead of rendering it")

	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
	versionCmd.Flags().String("check", "", "Fail unless the version satisfies this semver constraint")
}

func experimentNames() []string {
	kinds := ggptypes.AllExperimentKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}
