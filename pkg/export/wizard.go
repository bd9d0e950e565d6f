package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/clusterplot/pkg/config"
)

// WizardConfig holds the answers of the export wizard.
type WizardConfig struct {
	Formats []string `json:"formats"`
	Dir     string   `json:"dir"`
	Title   string   `json:"title"`
}

// Wizard handles the interactive export flow.
type Wizard struct {
	config *WizardConfig
}

// NewWizard creates a wizard pre-filled with defaults.
func NewWizard(defaults WizardConfig) *Wizard {
	cfg := defaults
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"svg", "html"}
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	return &Wizard{config: &cfg}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run asks for formats, output directory and title. Answers are saved for
// the next run.
func (w *Wizard) Run() (*WizardConfig, error) {
	if saved, err := LoadWizardConfig(); err == nil && saved != nil {
		if len(saved.Formats) > 0 {
			w.config.Formats = saved.Formats
		}
		if saved.Dir != "" {
			w.config.Dir = saved.Dir
		}
		if saved.Title != "" {
			w.config.Title = saved.Title
		}
	}

	options := make([]huh.Option[string], 0, len(Formats))
	for _, f := range Formats {
		options = append(options, huh.NewOption(formatLabel(f), f).Selected(contains(w.config.Formats, f)))
	}

	formats := w.config.Formats
	dir := w.config.Dir
	title := w.config.Title

	form := newForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Export formats").
				Description("Space toggles, enter confirms").
				Options(options...).
				Value(&formats).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("select at least one format")
					}
					return nil
				}),
			huh.NewInput().
				Title("Output directory").
				Value(&dir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("directory is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Plot title").
				Value(&title).
				Placeholder("Cluster Plot"),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	w.config.Formats = formats
	w.config.Dir = strings.TrimSpace(dir)
	w.config.Title = strings.TrimSpace(title)

	if err := SaveWizardConfig(w.config); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save wizard settings: %v\n", err)
	}
	return w.config, nil
}

// GetConfig returns the current answers.
func (w *Wizard) GetConfig() *WizardConfig {
	return w.config
}

// RunExportWizard runs the wizard and exports src with the chosen settings.
func RunExportWizard(ctx context.Context, src Source, defaults WizardConfig) ([]string, error) {
	cfg, err := NewWizard(defaults).Run()
	if err != nil {
		return nil, err
	}
	if cfg.Title != "" {
		src.Title = cfg.Title
	}
	return ExportAll(ctx, src, cfg.Dir, cfg.Formats)
}

func formatLabel(f string) string {
	switch f {
	case "svg":
		return "SVG snapshot"
	case "png":
		return "PNG snapshot"
	case "html":
		return "Interactive HTML (Plotly)"
	case "sqlite":
		return "SQLite database"
	}
	return f
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// WizardConfigPath returns the path to the wizard config file.
func WizardConfigPath() string {
	dir := config.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "export-wizard.json")
}

// LoadWizardConfig loads previously saved wizard configuration. It returns
// nil, nil when nothing was saved.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg WizardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveWizardConfig saves wizard configuration for future runs.
func SaveWizardConfig(cfg *WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
