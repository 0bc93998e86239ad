package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gachi-analyzer/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through setting up the recordings and template
directories, sampling defaults, and the optional Google Drive source.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, cmd.OutOrStdout())
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out io.Writer) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to gachi-analyzer setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}

	if err := promptAnalysis(prompter, cfg); err != nil {
		return err
	}

	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	source, err := prompter.Input("Where are match recordings saved?", cfg.Paths.SourceDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if source == "" {
		return fmt.Errorf("source directory is required")
	}
	cfg.Paths.SourceDirectory = source

	templates, err := prompter.Input("Where are the reference template images?", cfg.Paths.TemplatesDir)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if templates == "" {
		return fmt.Errorf("templates directory is required")
	}
	cfg.Paths.TemplatesDir = templates

	return nil
}

func promptAnalysis(prompter Prompter, cfg *config.Config) error {
	workers, err := promptPositiveInt(prompter, "How many parallel sampling workers?", cfg.Analysis.Workers)
	if err != nil {
		return err
	}
	cfg.Analysis.Workers = workers

	interval, err := promptPositiveInt(prompter, "Classify every Nth frame?", cfg.Analysis.FrameInterval)
	if err != nil {
		return err
	}
	cfg.Analysis.FrameInterval = interval

	return nil
}

func promptPositiveInt(prompter Prompter, message string, defaultValue int) (int, error) {
	answer, err := prompter.Input(message, strconv.Itoa(defaultValue))
	if err != nil {
		return 0, fmt.Errorf("prompt cancelled")
	}
	if answer == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q must be a whole number of at least 1", answer)
	}
	return n, nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	useDrive, err := prompter.Confirm("Download recordings from Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !useDrive {
		return nil
	}

	credentials, err := prompter.Input("Path to Google OAuth credentials file?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	cfg.Google.CredentialsFile = credentials

	folder, err := prompter.Input("Google Drive folder ID holding the recordings?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Google.RecordingsFolderID = folder

	return nil
}
