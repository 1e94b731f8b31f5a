package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gsquant/marquee-go/internal/api/workspaces"
	"github.com/gsquant/marquee-go/internal/workspace"
)

func newWorkspaceCmd() *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:   "workspace",
		Short: "Workspace management commands",
		Long:  "Fetch, push, delete and inspect Marquee dashboard workspaces",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a workspace and print its document",
		RunE:  runWorkspaceGet,
	}
	getCmd.Flags().String("id", "", "Workspace ID")
	getCmd.Flags().String("alias", "", "Workspace alias")
	getCmd.Flags().String("output", "json", "Output format (json|layout|grid)")

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Create or update a workspace from a JSON file",
		Long:  "Documents with an id are updated in place; documents without one are created",
		RunE:  runWorkspacePush,
	}
	pushCmd.Flags().String("file", "", "Workspace document file")
	pushCmd.MarkFlagRequired("file")

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a workspace by ID",
		RunE:  runWorkspaceDelete,
	}
	deleteCmd.Flags().String("id", "", "Workspace ID")
	deleteCmd.MarkFlagRequired("id")

	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the encoded layout string of a local workspace file",
		Long:  "Encodes the document offline; no API calls are made",
		RunE:  runWorkspaceLayout,
	}
	layoutCmd.Flags().String("file", "", "Workspace document file")
	layoutCmd.MarkFlagRequired("file")
	layoutCmd.Flags().Bool("grid", false, "Print the resolved grid instead of the layout string")

	workspaceCmd.AddCommand(getCmd)
	workspaceCmd.AddCommand(pushCmd)
	workspaceCmd.AddCommand(deleteCmd)
	workspaceCmd.AddCommand(layoutCmd)
	return workspaceCmd
}

func runWorkspaceGet(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	alias, _ := cmd.Flags().GetString("alias")
	output, _ := cmd.Flags().GetString("output")
	if id == "" && alias == "" {
		return fmt.Errorf("pass --id or --alias")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := newSession(cfg)
	if err != nil {
		return err
	}
	svc := workspaces.NewService(sess)

	var ws *workspace.Workspace
	if id != "" {
		ws, err = svc.Get(cmd.Context(), id)
	} else {
		ws, err = svc.GetByAlias(cmd.Context(), alias)
	}
	if err != nil {
		return err
	}

	switch output {
	case "layout":
		layout, err := ws.Layout()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), layout)
		return nil
	case "grid":
		return printJSON(cmd, ws.Grid())
	default:
		return printJSON(cmd, ws)
	}
}

func runWorkspacePush(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	ws, err := readWorkspaceFile(file)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := newSession(cfg)
	if err != nil {
		return err
	}
	svc := workspaces.NewService(sess)

	var stored *workspace.Workspace
	if ws.ID() != "" {
		stored, err = svc.Update(cmd.Context(), ws)
	} else {
		stored, err = svc.Create(cmd.Context(), ws)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Workspace %s pushed (%s)\n", stored.ID(), stored.Name())
	return nil
}

func runWorkspaceDelete(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := newSession(cfg)
	if err != nil {
		return err
	}
	if err := workspaces.NewService(sess).Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Workspace %s deleted\n", id)
	return nil
}

func runWorkspaceLayout(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	grid, _ := cmd.Flags().GetBool("grid")
	ws, err := readWorkspaceFile(file)
	if err != nil {
		return err
	}
	if grid {
		return printJSON(cmd, ws.Grid())
	}
	layout, err := ws.Layout()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), layout)
	return nil
}

func readWorkspaceFile(path string) (*workspace.Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace file: %w", err)
	}
	var ws workspace.Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
