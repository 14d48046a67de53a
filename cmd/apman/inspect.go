package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackcoderx/apman/pkg/collection"
	"github.com/blackcoderx/apman/pkg/core"
	"github.com/blackcoderx/apman/pkg/storage"
	"github.com/blackcoderx/apman/pkg/tui"
)

var shapePaths bool

func init() {
	shapeCmd.Flags().BoolVar(&shapePaths, "paths", false, "print required key paths instead of a data template")

	rootCmd.AddCommand(initCmd, listCmd, shapeCmd, envsCmd, diffCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .apman workspace in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		return core.InitializeApmanFolder(cwd, cmd.OutOrStdout())
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the operations of the collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loadClient(nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.HeadingStyle.Render(client.Info().Name))
		for _, name := range client.Names() {
			op, _ := client.Operation(name)
			fmt.Fprintf(out, "%s %s %s\n",
				tui.MethodBadge(op.Request.MethodOrDefault()),
				tui.NameStyle.Render(name),
				tui.DimStyle.Render(strings.Join(op.Chain, " / ")))
		}
		return nil
	},
}

var shapeCmd = &cobra.Command{
	Use:   "shape <operation>",
	Short: "Show the data an operation requires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loadClient(nil)
		if err != nil {
			return err
		}

		s, ok := client.RequiredShape(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrUnknownOperation, args[0])
		}

		out := cmd.OutOrStdout()
		if shapePaths {
			for _, p := range s.Paths() {
				fmt.Fprintln(out, tui.PathStyle.Render(p))
			}
			return nil
		}

		data, err := json.MarshalIndent(s.Template(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal template: %w", err)
		}
		fmt.Fprintln(out, tui.HighlightJSON(string(data), renderWidth()))
		return nil
	},
}

var envsCmd = &cobra.Command{
	Use:   "envs",
	Short: "List environments and the variables of the active one",
	RunE: func(cmd *cobra.Command, args []string) error {
		envs, err := storage.ListEnvironments(workspaceDir())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		active := viper.GetString("environment")
		for _, e := range envs {
			marker := "  "
			if e == active {
				marker = tui.SuccessStyle.Render("* ")
			}
			fmt.Fprintln(out, marker+e)
		}

		vars, err := loadVariables()
		if err != nil {
			return err
		}
		if len(vars) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		for _, k := range sortedKeys(vars) {
			fmt.Fprintf(out, "  %s => %s\n", tui.NameStyle.Render(k), vars[k])
		}
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Show how the operation surface changed between two collection files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldColl, err := collection.Load(args[0])
		if err != nil {
			return err
		}
		newColl, err := collection.Load(args[1])
		if err != nil {
			return err
		}

		diff, err := core.DiffCollections(oldColl, newColl, args[0], args[1])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if diff == "" {
			fmt.Fprintln(out, tui.DimStyle.Render("no changes to the operation surface"))
			return nil
		}
		for _, line := range strings.SplitAfter(diff, "\n") {
			switch {
			case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
				fmt.Fprint(out, tui.SuccessStyle.Render(line))
			case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
				fmt.Fprint(out, tui.ErrorStyle.Render(line))
			default:
				fmt.Fprint(out, line)
			}
		}
		return nil
	},
}
