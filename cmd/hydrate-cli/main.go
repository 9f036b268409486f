package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-hydrate/pkg/builder"
	"github.com/goliatone/go-hydrate/pkg/dom"
	"github.com/goliatone/go-hydrate/pkg/orchestrator"
	"github.com/goliatone/go-hydrate/pkg/vm"
	"github.com/goliatone/go-hydrate/pkg/wire"
)

const usage = `Usage: %s [flags] <command>

Commands:
  compile    print the wire format of a template as JSON
  dump       print the wire listing and the lowered program
  render     render a template (serialize, live or rehydrate mode)
  rehydrate  rehydrate server markup and report reuse statistics

Flags:
`

type options struct {
	config      string
	template    string
	data        string
	markup      string
	mode        string
	page        bool
	title       string
	themeName   string
	variant     string
	output      string
	interactive bool
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "YAML or JSON config file")
	flag.StringVar(&opts.template, "template", "", "template file path, or a name in the configured template directory")
	flag.StringVar(&opts.data, "data", "", "YAML or JSON file rendered as the template's this")
	flag.StringVar(&opts.markup, "markup", "", "server markup file to rehydrate")
	flag.StringVar(&opts.mode, "mode", "", "render mode: serialize, live or rehydrate")
	flag.BoolVar(&opts.page, "page", false, "wrap the render in the page layout")
	flag.StringVar(&opts.title, "title", "", "page title")
	flag.StringVar(&opts.themeName, "theme", "", "theme name")
	flag.StringVar(&opts.variant, "variant", "", "theme variant")
	flag.StringVar(&opts.output, "output", "", "output file (stdout if empty)")
	flag.BoolVar(&opts.interactive, "interactive", false, "pick the template interactively")
	flag.BoolVar(&opts.verbose, "v", false, "log pipeline details to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	ctx := context.Background()

	cfg, gen, err := setup(opts)
	if err != nil {
		log.Fatalf("Failed to configure: %v", err)
	}

	req, err := buildRequest(gen, cfg, opts)
	if err != nil {
		log.Fatalf("Failed to prepare request: %v", err)
	}

	var out bytes.Buffer
	switch command {
	case "compile":
		err = runCompile(ctx, gen, req, &out)
	case "dump":
		err = runDump(ctx, gen, req, &out)
	case "render":
		err = runRender(ctx, gen, req, &out)
	case "rehydrate":
		req.Mode = orchestrator.ModeRehydrate
		err = runRehydrate(ctx, gen, req, &out)
	default:
		flag.Usage()
		log.Fatalf("unknown command %q", command)
	}
	if err != nil {
		log.Fatalf("Failed to %s: %v", command, err)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, out.Bytes(), 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Output written to %s\n", opts.output)
		return
	}
	if _, err := os.Stdout.Write(out.Bytes()); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

func setup(opts options) (*orchestrator.Config, *orchestrator.Orchestrator, error) {
	cfg := &orchestrator.Config{}
	if opts.config != "" {
		loaded, err := orchestrator.LoadConfig(opts.config)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	configured, err := cfg.Options()
	if err != nil {
		return nil, nil, err
	}
	if opts.verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		configured = append(configured, orchestrator.WithLogger(logger))
	}
	return cfg, orchestrator.New(configured...), nil
}

func buildRequest(gen *orchestrator.Orchestrator, cfg *orchestrator.Config, opts options) (orchestrator.Request, error) {
	mode := opts.mode
	if mode == "" {
		mode = cfg.Mode
	}
	parsed, err := orchestrator.ParseMode(mode)
	if err != nil {
		return orchestrator.Request{}, err
	}

	req := orchestrator.Request{
		Mode:         parsed,
		Page:         opts.page,
		Title:        opts.title,
		ThemeName:    opts.themeName,
		ThemeVariant: opts.variant,
	}

	name := opts.template
	if name == "" && opts.interactive {
		name, err = pickTemplate(gen)
		if err != nil {
			return req, err
		}
	}
	if name == "" {
		return req, errors.New("a template is required (-template or -interactive)")
	}
	if info, statErr := os.Stat(name); statErr == nil && !info.IsDir() {
		source, err := os.ReadFile(name)
		if err != nil {
			return req, fmt.Errorf("read template: %w", err)
		}
		req.Source = source
	}
	req.Name = name

	if opts.data != "" {
		self, err := loadData(opts.data)
		if err != nil {
			return req, err
		}
		req.Data = vm.Data{Self: self}
	}
	if opts.markup != "" {
		markup, err := os.ReadFile(opts.markup)
		if err != nil {
			return req, fmt.Errorf("read markup: %w", err)
		}
		req.Markup = string(markup)
	}
	return req, nil
}

func pickTemplate(gen *orchestrator.Orchestrator) (string, error) {
	names, err := gen.Templates()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", errors.New("no templates found; set templates in the config file")
	}
	var choice string
	prompt := &survey.Select{
		Message: "Template:",
		Options: names,
	}
	if len(names) > 10 {
		prompt.PageSize = 10
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", fmt.Errorf("select template: %w", err)
	}
	return choice, nil
}

func loadData(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}
	return data, nil
}

func runCompile(ctx context.Context, gen *orchestrator.Orchestrator, req orchestrator.Request, w io.Writer) error {
	compiled, err := gen.Compile(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(w, compiled.Template)
}

func runDump(ctx context.Context, gen *orchestrator.Orchestrator, req orchestrator.Request, w io.Writer) error {
	compiled, err := gen.Compile(ctx, req)
	if err != nil {
		return err
	}
	if err := wire.Disassemble(w, compiled.Template); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return compiled.Program.Dump(w)
}

func runRender(ctx context.Context, gen *orchestrator.Orchestrator, req orchestrator.Request, w io.Writer) error {
	result, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	defer result.Render.Close()
	for _, warning := range result.Warnings {
		log.Printf("warning: %s", warning)
	}
	if _, err := w.Write(result.Output); err != nil {
		return err
	}
	if terminal(os.Stdout) {
		_, err = fmt.Fprintln(w)
	}
	return err
}

type rehydrateReport struct {
	Body     string        `json:"body"`
	Stats    builder.Stats `json:"stats"`
	Changes  dom.Changes   `json:"changes"`
	Warnings []string      `json:"warnings,omitempty"`
}

func runRehydrate(ctx context.Context, gen *orchestrator.Orchestrator, req orchestrator.Request, w io.Writer) error {
	result, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	defer result.Render.Close()
	return writeJSON(w, rehydrateReport{
		Body:     result.Body,
		Stats:    result.Stats,
		Changes:  result.Changes,
		Warnings: result.Warnings,
	})
}

// writeJSON indents only for a terminal so piped output stays compact.
func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if terminal(os.Stdout) {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(value)
}

func terminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
