package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gsquant/marquee-go/internal/api/workspaces"
	"github.com/gsquant/marquee-go/internal/metrics"
	"github.com/gsquant/marquee-go/internal/preview"
	"github.com/gsquant/marquee-go/internal/workspace"
)

func newPreviewCmd() *cobra.Command {
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve a workspace locally for inspection",
		Long:  "Serves the document, resolved grid and SDK metrics on a local HTTP port",
		RunE:  runPreview,
	}
	previewCmd.Flags().String("file", "", "Workspace document file (offline)")
	previewCmd.Flags().String("id", "", "Workspace ID to fetch and preview")
	return previewCmd
}

func runPreview(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	id, _ := cmd.Flags().GetString("id")
	if (file == "") == (id == "") {
		return fmt.Errorf("pass exactly one of --file or --id")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var ws *workspace.Workspace
	reg := metrics.NewRegistry()
	if file != "" {
		ws, err = readWorkspaceFile(file)
		if err != nil {
			return err
		}
	} else {
		sess, err := newSession(cfg)
		if err != nil {
			return err
		}
		reg = sess.Metrics()
		ws, err = workspaces.NewService(sess).Get(cmd.Context(), id)
		if err != nil {
			return err
		}
	}

	server := preview.NewServer(preview.ServerConfig{
		Host:         cfg.Preview.Host,
		Port:         cfg.Preview.Port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, ws, reg)

	fmt.Fprintf(cmd.OutOrStdout(), "Previewing %q on http://%s:%d\n", ws.Name(), cfg.Preview.Host, cfg.Preview.Port)
	return server.ListenAndServe(cmd.Context())
}
