package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vistoriaapp/core/internal/models"
	"github.com/vistoriaapp/core/internal/report"
	"github.com/vistoriaapp/core/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the draft session with autosave and background sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		controller := session.New(a.store, a.engine, a.cfg.UserID, a.logger)
		controller.StartAutoSave(ctx, a.cfg.AutoSaveInterval)

		go a.engine.RunSweeper(ctx, a.cfg.SweepInterval)
		go func() {
			ticker := time.NewTicker(a.cfg.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					a.store.StripSyncedMedia()
				}
			}
		}()

		if id := controller.CurrentID(); id != "" {
			if _, step, err := controller.Load(id); err == nil {
				fmt.Printf("Resuming inspection %s at step %d\n", id, step)
			}
		}

		<-ctx.Done()
		controller.Stop()
		return nil
	},
}

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List inspection drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		var drafts []*models.Inspection
		if listStatus != "" {
			drafts, err = a.store.ListByStatus(models.Status(listStatus))
		} else {
			drafts, err = a.store.ListAll()
		}
		if err != nil {
			return err
		}

		if len(drafts) == 0 {
			fmt.Println("No inspections found.")
			return nil
		}

		current := a.store.CurrentID()
		for _, insp := range drafts {
			marker := " "
			if insp.ID == current {
				marker = "*"
			}
			code := insp.PropertyData["propertyCode"]
			if code == "" {
				code = "(sem código)"
			}
			fmt.Printf("%s %-42s %-12s %-14s %d cômodo(s)  %s\n",
				marker, insp.ID, insp.Status, code, len(insp.Rooms),
				insp.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an inspection draft as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		data, err := a.store.Export(args[0])
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var (
	reportOut      string
	reportMarkdown bool
)

var reportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Render a printable report for an inspection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		insp, err := a.store.Get(args[0])
		if err != nil {
			return err
		}

		renderer := report.NewRenderer()
		var out string
		if reportMarkdown {
			out = renderer.Markdown(insp)
		} else {
			out, err = renderer.HTML(insp)
			if err != nil {
				return err
			}
		}

		if reportOut == "" {
			fmt.Print(out)
			return nil
		}
		return os.WriteFile(reportOut, []byte(out), 0o644)
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an inspection draft (local and remote)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		id := args[0]
		insp, err := a.store.Get(id)
		if err != nil {
			return err
		}

		if !deleteYes {
			code := insp.PropertyData["propertyCode"]
			if code == "" {
				code = id
			}
			fmt.Printf("Delete inspection %q? This cannot be undone. [y/N] ", code)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a.engine.Delete(id)
		fmt.Println("Inspection deleted.")
		return nil
	},
}

var migrateRemoteCmd = &cobra.Command{
	Use:   "migrate-remote",
	Short: "Bulk-import all local drafts into the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		drafts, err := a.store.ListAll()
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Println("Nothing to migrate.")
			return nil
		}

		byID := make(map[string]*models.Inspection, len(drafts))
		for _, insp := range drafts {
			byID[insp.ID] = insp
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		count, err := a.remote.Migrate(ctx, byID)
		if err != nil {
			return err
		}
		fmt.Printf("Migrated %d inspection(s) to the remote store.\n", count)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (in-progress, completed)")
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "", "write the report to a file")
	reportCmd.Flags().BoolVar(&reportMarkdown, "markdown", false, "emit markdown instead of HTML")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}
