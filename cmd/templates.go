package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/domain/video"
	"gachi-analyzer/infrastructure/config"
	"gachi-analyzer/infrastructure/detection"
	"gachi-analyzer/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var (
	templatesCheck bool
	templatesDir   string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the reference templates used to recognize screens",
	Long: `List the configured reference templates in evaluation order, with their
match thresholds and whether each image file exists.

With --check every template is also loaded through the classifier, which
requires a build with OpenCV support (-tags=detection).`,
	Args: cobra.NoArgs,
	RunE: runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.Flags().BoolVar(&templatesCheck, "check", false, "Load every template to verify it decodes")
	templatesCmd.Flags().StringVar(&templatesDir, "templates-dir", "", "Directory holding the reference images (overrides config)")

	templatesCmd.AddCommand(templatesAddCmd)
	templatesCmd.AddCommand(templatesUpdateCmd)
	templatesCmd.AddCommand(templatesRemoveCmd)
	templatesCmd.AddCommand(templatesMoveCmd)
}

// TemplateChecker loads templates to verify them
type TemplateChecker func(cfg config.DetectionConfig, specs []screen.TemplateSpec) error

func runTemplates(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if templatesDir != "" {
		cfg.Paths.TemplatesDir = templatesDir
	}

	var checker TemplateChecker
	if templatesCheck {
		checker = detection.CheckTemplates
	}
	return RunTemplatesWithDependencies(cfg, filesystem.NewChecker(), checker, cmd.OutOrStdout())
}

// RunTemplatesWithDependencies runs the templates command with injected dependencies (for testing)
func RunTemplatesWithDependencies(cfg *config.Config, files video.FileChecker, check TemplateChecker, out io.Writer) error {
	specs, err := cfg.TemplateSpecs()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(specs))
	missing := 0
	for i, spec := range specs {
		status := "ok"
		if !files.Exists(spec.Path) {
			status = "missing"
			missing++
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			spec.Label.String(),
			spec.Path,
			fmt.Sprintf("%.2f", spec.Threshold),
			status,
		})
	}

	fmt.Fprintln(out, renderTable(
		[]string{"#", "Label", "File", "Threshold", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))

	if missing > 0 {
		return fmt.Errorf("%d of %d template files are missing", missing, len(specs))
	}

	if check != nil {
		if err := check(cfg.Detection, specs); err != nil {
			return err
		}
		fmt.Fprintf(out, "All %d templates loaded successfully.\n", len(specs))
	}
	return nil
}

// --- ADD command ---

var (
	templateFile      string
	templateThreshold float64
)

var templatesAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Add a reference template",
	Long: `Add a reference template to the end of the evaluation order.
Relative file names are resolved against the templates directory.

Example:
  gachi-analyzer templates add ResultContinue --file result_continue.png --threshold 0.75`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		return RunTemplateAddWithDependencies(cfg, cfgFile, args[0], templateFile, templateThreshold, cmd.OutOrStdout())
	},
}

// RunTemplateAddWithDependencies runs the add command with injected dependencies
func RunTemplateAddWithDependencies(cfg *config.Config, configPath, label, file string, threshold float64, out io.Writer) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.AddTemplate(label, file, threshold); err != nil {
		return err
	}
	added, err := mgr.GetTemplate(label)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added template %s at position %d: %s (threshold %.2f)\n", added.Label, added.Position, added.File, added.Threshold)
	return nil
}

// --- UPDATE command ---

var templatesUpdateCmd = &cobra.Command{
	Use:   "update <label>",
	Short: "Change a template's file or threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		return RunTemplateUpdateWithDependencies(cfg, cfgFile, args[0], templateFile, templateThreshold, cmd.OutOrStdout())
	},
}

// RunTemplateUpdateWithDependencies runs the update command with injected dependencies
func RunTemplateUpdateWithDependencies(cfg *config.Config, configPath, label, file string, threshold float64, out io.Writer) error {
	if file == "" && threshold == 0 {
		return fmt.Errorf("nothing to update: pass --file or --threshold")
	}
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.UpdateTemplate(label, file, threshold); err != nil {
		if errors.Is(err, config.ErrTemplateNotFound) {
			return fmt.Errorf("%w\n\nTo add it, run:\n  %s", err, config.SuggestAddTemplateCommand(label))
		}
		return err
	}
	updated, err := mgr.GetTemplate(label)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated template %s: %s (threshold %.2f)\n", updated.Label, updated.File, updated.Threshold)
	return nil
}

// --- REMOVE command ---

var templatesRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a reference template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		return RunTemplateRemoveWithDependencies(cfg, cfgFile, args[0], cmd.OutOrStdout())
	},
}

// RunTemplateRemoveWithDependencies runs the remove command with injected dependencies
func RunTemplateRemoveWithDependencies(cfg *config.Config, configPath, label string, out io.Writer) error {
	mgr := config.NewConfigManager(cfg, configPath)
	removed, err := mgr.GetTemplate(label)
	if err != nil {
		return err
	}
	if err := mgr.RemoveTemplate(label); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed template %s\n", removed.Label)
	return nil
}

// --- MOVE command ---

var templatesMoveCmd = &cobra.Command{
	Use:   "move <label> <position>",
	Short: "Change where a template sits in the evaluation order",
	Long: `Move a template to a 1-based position. Templates are tried in order and
the first one that matches decides the label.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		position, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[1], err)
		}
		return RunTemplateMoveWithDependencies(cfg, cfgFile, args[0], position, cmd.OutOrStdout())
	},
}

// RunTemplateMoveWithDependencies runs the move command with injected dependencies
func RunTemplateMoveWithDependencies(cfg *config.Config, configPath, label string, position int, out io.Writer) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.MoveTemplate(label, position); err != nil {
		return err
	}

	order := make([]string, 0, len(cfg.Templates))
	for _, t := range mgr.ListTemplates() {
		order = append(order, t.Label.String())
	}
	fmt.Fprintf(out, "Evaluation order: %s\n", strings.Join(order, ", "))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{templatesAddCmd, templatesUpdateCmd} {
		c.Flags().StringVar(&templateFile, "file", "", "Reference image file")
		c.Flags().Float64Var(&templateThreshold, "threshold", 0, "Minimum match score between 0 and 1")
	}
	templatesAddCmd.MarkFlagRequired("file")
}
