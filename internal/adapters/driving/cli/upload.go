package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usermgr/internal/adapters/driving/tui"
	"github.com/custodia-labs/usermgr/internal/core/domain"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [place-id...]",
	Short: "Create staged places on the instance",
	Long: `Create staged places, their primary contacts and user accounts on the
logged in instance. Without arguments every staged place is uploaded.

Places with validation errors are skipped. Places that already failed are
retried, and remote writes that succeeded before are not repeated.

Use --tui for an interactive progress view:
  ↑/k, ↓/j - Navigate places
  Enter    - Toggle details
  f        - Show failures only
  q        - Cancel the upload, or quit once finished`,
	RunE: runUpload,
}

var uploadTUI bool

func init() {
	uploadCmd.Flags().BoolVar(&uploadTUI, "tui", false, "show an interactive progress view")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if placeService == nil {
		return errors.New("place service not configured")
	}

	client, err := currentClient()
	if err != nil {
		return err
	}

	if uploadTUI {
		return runUploadTUI(cmd, args)
	}

	cmd.Printf("Uploading to %s...\n", client.Session().AuthInfo.Domain)
	places, err := placeService.Upload(cmd.Context(), client, args)
	printUploadSummary(cmd, places)
	if err != nil {
		return fmt.Errorf("upload aborted: %w", err)
	}
	return nil
}

func runUploadTUI(cmd *cobra.Command, args []string) error {
	if uploadManager == nil {
		return errors.New("upload manager not configured")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	client, err := currentClient()
	if err != nil {
		return err
	}

	places, err := placeService.Select(cmd.Context(), client.Session().AuthInfo.Domain, args)
	if err != nil {
		return fmt.Errorf("failed to load places: %w", err)
	}

	app, err := tui.NewApp(&tui.Ports{
		Places:  placeService,
		Uploads: uploadManager,
		Client:  client,
	}, places)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("upload aborted: %w", err)
	}
	printUploadSummary(cmd, places)
	return nil
}

func printUploadSummary(cmd *cobra.Command, places []*domain.Place) {
	if len(places) == 0 {
		cmd.Println("No places to upload.")
		return
	}

	var succeeded, failed, skipped int
	for _, p := range places {
		switch p.State() {
		case domain.UploadSuccess:
			succeeded++
			d := p.CreationDetails()
			cmd.Printf("  OK      %s: %s / %s\n", p.Name(), d.Username, d.Password)
		case domain.UploadFailure:
			failed++
			cmd.Printf("  FAILED  %s: %s\n", p.Name(), p.UploadError())
		default:
			skipped++
			if p.HasValidationErrors() {
				cmd.Printf("  SKIPPED %s: %d validation error(s)\n", p.Name(), len(p.ValidationErrors))
			} else {
				cmd.Printf("  SKIPPED %s\n", p.Name())
			}
		}
	}
	cmd.Printf("\n%d succeeded, %d failed, %d skipped\n", succeeded, failed, skipped)
}
