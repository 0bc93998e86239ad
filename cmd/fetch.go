package cmd

import (
	"context"
	"fmt"
	"io"

	apprecording "gachi-analyzer/application/recording"
	"gachi-analyzer/domain/recording"
	"gachi-analyzer/infrastructure/config"
	"gachi-analyzer/infrastructure/drive"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	fetchList bool
	fetchID   string
	fetchName string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a match recording from Google Drive",
	Long: `Download a recording from the configured Google Drive folder into the
source directory, where analyze picks up the newest file by default.

Without --id or --name the most recently created recording is downloaded.
The first run opens a browser to grant read-only Drive access.

Example:
  gachi-analyzer fetch --list
  gachi-analyzer fetch --name "2024-06-02 21-30-00.mp4"`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchList, "list", false, "List the available recordings instead of downloading")
	fetchCmd.Flags().StringVar(&fetchID, "id", "", "Drive file ID of the recording to download")
	fetchCmd.Flags().StringVar(&fetchName, "name", "", "File name of the recording to download")
	fetchCmd.MarkFlagsMutuallyExclusive("id", "name")
}

// FetchInput contains the input parameters for the fetch command
type FetchInput struct {
	List   bool
	FileID string
	Name   string
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if cfg.Google.RecordingsFolderID == "" {
		return fmt.Errorf("google.recordings_folder_id is not configured; run 'gachi-analyzer setup'")
	}

	ctx := cmd.Context()
	client, err := drive.NewClientWithOAuth(ctx, drive.OAuthConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
		CallbackPort:    cfg.Google.OAuthPort,
		Output:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to create Google Drive client: %w", err)
	}

	input := FetchInput{List: fetchList, FileID: fetchID, Name: fetchName}
	return RunFetchWithDependencies(ctx, cfg, client, input, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// RunFetchWithDependencies runs the fetch command with injected dependencies (for testing)
func RunFetchWithDependencies(ctx context.Context, cfg *config.Config, source recording.Source, input FetchInput, stdout, stderr io.Writer) error {
	service := apprecording.NewFetchService(source, cfg.Google.RecordingsFolderID, cfg.Paths.SourceDirectory, stderr)

	if input.List {
		files, err := service.List(ctx)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(stdout, "No recordings found.")
			return nil
		}

		rows := make([][]string, 0, len(files))
		for _, f := range files {
			rows = append(rows, []string{
				f.Name,
				humanize.Bytes(uint64(max(f.Size, 0))),
				f.CreatedTime.Local().Format("2006-01-02 15:04"),
				f.ID,
			})
		}
		fmt.Fprintln(stdout, renderTable(
			[]string{"Name", "Size", "Created", "ID"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
		))
		return nil
	}

	result, err := service.Fetch(ctx, apprecording.FetchInput{FileID: input.FileID, Name: input.Name})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, result.Path)
	return nil
}
