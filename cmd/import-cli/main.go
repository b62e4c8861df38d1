package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vendor-inventory-import/app"
	"vendor-inventory-import/controller"
	"vendor-inventory-import/database"
	"vendor-inventory-import/service/import_service"
)

type rootOptions struct {
	env        string
	configPath string
}

// cli holds the services opened for one command invocation
type cli struct {
	svc     *controller.Services
	bar     *progressbar.ProgressBar
	seen    map[string]int // rows already counted per session
	cleanup func()
}

func newCLI(opts *rootOptions) (*cli, error) {
	store, cleanup, err := app.Bootstrap(opts.env, opts.configPath)
	if err != nil {
		return nil, err
	}
	c := &cli{seen: make(map[string]int), cleanup: cleanup}
	c.svc = app.NewServices(database.DB, store, app.Options{OnBatch: c.onBatch})
	return c, nil
}

func (c *cli) onBatch(r import_service.BatchReport) {
	if c.bar == nil {
		return
	}
	_ = c.bar.Add(r.Processed - c.seen[r.SessionId])
	c.seen[r.SessionId] = r.Processed
}

func (c *cli) newBar(total int, desc string) {
	c.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// run processes a run in the foreground. Ctrl-C pauses it at the next batch boundary.
func (c *cli) run(ctx context.Context, runID string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := c.svc.Scheduler.Run(ctx, runID)
	_ = c.bar.Finish()
	fmt.Println()

	if errors.Is(err, import_service.ErrPaused) {
		fmt.Printf("Run %s paused, continue with: resume %s\n", runID, runID)
		return nil
	}
	if err != nil {
		return err
	}
	return c.summary(runID)
}

func (c *cli) summary(runID string) error {
	p, err := c.svc.Progress.GetRunProgress(runID)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s %s: %d/%d rows, %d inserted, %d updated, %d invalid, %d corrected, %d failed\n",
		p.RunId, p.Status, p.Processed, p.TotalRecords, p.Inserted, p.Updated, p.Invalid, p.Corrected, p.Failed)
	return nil
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var stageOnly, noStart bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Upload a vendor inventory CSV and process it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			c, err := newCLI(root)
			if err != nil {
				return err
			}
			defer c.cleanup()

			res, err := c.svc.Imports.Upload(&import_service.UploadRequest{
				FileName:    filepath.Base(args[0]),
				ContentType: "text/csv",
				Content:     content,
				StageOnly:   stageOnly,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Run %s: %d rows in %d chunks\n", res.RunId, res.TotalRecords, res.TotalChunks)
			if noStart {
				return nil
			}

			c.newBar(res.TotalRecords, "Importing")
			return c.run(cmd.Context(), res.RunId)
		},
	}

	cmd.Flags().BoolVar(&stageOnly, "stage-only", false, "Stage and validate rows without reconciling them")
	cmd.Flags().BoolVar(&noStart, "no-start", false, "Create the run without processing it")
	return cmd
}

func newResumeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <runId>",
		Short: "Continue a paused, stopped or interrupted run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(root)
			if err != nil {
				return err
			}
			defer c.cleanup()

			p, err := c.svc.Progress.GetRunProgress(args[0])
			if err != nil {
				return err
			}
			c.newBar(p.TotalRecords, "Resuming")
			_ = c.bar.Set(p.Processed)
			for _, chunk := range p.Chunks {
				c.seen[chunk.SessionId] = chunk.ProcessedRecords
			}
			return c.run(cmd.Context(), args[0])
		},
	}
}

func newProgressCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <runId>",
		Short: "Show progress of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(root)
			if err != nil {
				return err
			}
			defer c.cleanup()
			return c.summary(args[0])
		},
	}
}

func newSessionsCmd(root *rootOptions) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List chunk sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(root)
			if err != nil {
				return err
			}
			defer c.cleanup()

			list, err := c.svc.Imports.ListSessions(page, pageSize)
			if err != nil {
				return err
			}
			for _, s := range list.Sessions {
				fmt.Printf("%s  run=%s  chunk=%d/%d  %-10s  %d/%d rows  %s\n",
					s.SessionId, s.RunId, s.ChunkNumber, s.TotalChunks, s.Status,
					s.ProcessedRecords, s.TotalRecords, s.OriginalFilename)
			}
			fmt.Printf("page %d, %d sessions total\n", list.Page, list.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Sessions per page")
	return cmd
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var output, status string

	cmd := &cobra.Command{
		Use:   "export <sessionId>",
		Short: "Write the staging rows of a session to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(root)
			if err != nil {
				return err
			}
			defer c.cleanup()

			if output == "" {
				output = args[0] + "-staging.xlsx"
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := c.svc.Exporter.ExportSession(args[0], import_service.RecordQuery{Status: status}, f)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d rows to %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <sessionId>-staging.xlsx)")
	cmd.Flags().StringVar(&status, "status", "", "Only rows with this status")
	return cmd
}

func main() {
	var opts rootOptions

	root := &cobra.Command{
		Use:           "import-cli",
		Short:         "Vendor inventory import from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.env, "env", "loc", "Environment: loc/dev/prod/example")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file path, overrides --env")

	root.AddCommand(
		newImportCmd(&opts),
		newResumeCmd(&opts),
		newProgressCmd(&opts),
		newSessionsCmd(&opts),
		newExportCmd(&opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
