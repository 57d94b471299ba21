package config

// NotebookConfig controls how runs update the notebook.
type NotebookConfig struct {
	// RefreshPreceding re-runs every active cell before the target on a
	// contextual run, so their panes stay current.
	RefreshPreceding bool `yaml:"refresh_preceding"`

	// SeedDemo opens the TUI with the two demo cells.
	SeedDemo bool `yaml:"seed_demo"`
}

// SandboxConfig configures the interpreter.
type SandboxConfig struct {
	// Prelude lists packages imported into every execution.
	Prelude []string `yaml:"prelude"`

	// CaptureStdout records fmt.Print output in the cell log.
	CaptureStdout bool `yaml:"capture_stdout"`
}

// WatchConfig configures the directory mirror.
type WatchConfig struct {
	Pattern  string `yaml:"pattern"`  // glob for cell files
	Debounce string `yaml:"debounce"` // quiet period before a re-run
}
