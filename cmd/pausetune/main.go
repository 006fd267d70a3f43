package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	ffmpeg "github.com/csnewman/ffmpeg-go"

	"pausetune/internal/cli"
	"pausetune/internal/config"
	"pausetune/internal/logging"
	"pausetune/internal/processor"
	"pausetune/internal/transcribe"
	"pausetune/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface. Unset flags fall back to the
// TOML config, which falls back to built-in defaults.
type CLI struct {
	Version    bool    `short:"v" help:"Show version information"`
	Config     string  `short:"c" type:"path" help:"Path to TOML config file (optional)"`
	Logs       bool    `help:"Save a run report next to the output"`
	Mode       string  `short:"m" placeholder:"MODE" help:"Processing mode: smart or fast"`
	Script     string  `short:"s" type:"existingfile" placeholder:"FILE" help:"Script text file (required for smart mode)"`
	Output     string  `short:"o" type:"path" placeholder:"FILE" help:"Output file (default: <input>-paused.<format>)"`
	Format     string  `short:"f" placeholder:"FMT" help:"Output format: mp3 or wav"`
	Threshold  float64 `placeholder:"DB" help:"Silence threshold in dBFS"`
	MinSilence int     `placeholder:"MS" help:"Minimum silence length in milliseconds"`
	Model      string  `placeholder:"SIZE" help:"Speech recognition model size"`
	Language   string  `short:"l" placeholder:"LANG" help:"Spoken language code"`
	Input      string  `arg:"" name:"input" help:"Audio file to process" type:"existingfile" optional:""`
}

func main() {
	// Suppress FFmpeg info/verbose logging to keep console clean
	ffmpeg.AVLogSetLevel(ffmpeg.AVLogError)

	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("pausetune"),
		kong.Description("Punctuation-driven pause normaliser for spoken audio"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if cliArgs.Input == "" {
		cli.PrintError("No input file specified")
		kctx.PrintUsage(false)
		os.Exit(1)
	}

	cfg, _, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	applyFlags(cfg, cliArgs)
	if err := cfg.Validate(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	mode := processor.ModeSmart
	if cfg.Processing.Mode == "fast" {
		mode = processor.ModeFast
	}

	var script string
	if mode == processor.ModeSmart {
		if cliArgs.Script == "" {
			cli.PrintError("Smart mode needs a script file (--script); use --mode fast to process without one")
			os.Exit(1)
		}
		body, err := os.ReadFile(cliArgs.Script)
		if err != nil {
			cli.PrintError(fmt.Sprintf("Cannot read script: %v", err))
			os.Exit(1)
		}
		script = string(body)
	}

	outputPath := cliArgs.Output
	if outputPath == "" {
		base := strings.TrimSuffix(cliArgs.Input, filepath.Ext(cliArgs.Input))
		outputPath = base + "-paused." + cfg.Processing.Format
	}

	// Open debug log file
	debugLog, _ := os.Create("pausetune-debug.log")
	defer debugLog.Close()
	log := func(format string, args ...interface{}) {
		if debugLog != nil {
			fmt.Fprintf(debugLog, format+"\n", args...)
		}
	}

	var recognizer *transcribe.Recognizer
	if mode == processor.ModeSmart {
		recognizer = transcribe.NewRecognizer(cfg.Recognizer.Model, cfg.Recognizer.Language)
		if err := recognizer.Preload(); err != nil {
			cli.PrintError(fmt.Sprintf("Speech recognition unavailable: %v", err))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := ui.NewModel(cliArgs.Input, outputPath, cfg.Processing.Mode, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Run the pipeline in the background, feeding the TUI
	go func() {
		startTime := time.Now()
		var logLines []string

		opts := processor.Options{
			Mode:         mode,
			Script:       script,
			ThresholdDB:  cfg.Processing.ThresholdDB,
			MinSilenceMS: cfg.Processing.MinSilenceMS,
			Format:       cfg.Processing.Format,
		}
		callbacks := processor.Callbacks{
			Progress: func(percent int, status string) {
				log("[MAIN] Progress %d%% %s", percent, status)
				p.Send(ui.ProgressMsg{Percent: percent, Status: status})
			},
			Log: func(line string) {
				log("[MAIN] %s", line)
				logLines = append(logLines, line)
				p.Send(ui.LogMsg{Line: line})
			},
		}

		log("[MAIN] Starting run: %s -> %s", cliArgs.Input, outputPath)
		result, err := processor.New(recognizer).Run(ctx, cliArgs.Input, outputPath, opts, callbacks)
		if err != nil {
			log("[MAIN] Run failed: %v", err)
		}

		if err == nil && cliArgs.Logs {
			reportData := logging.ReportData{
				InputPath:        cliArgs.Input,
				OutputPath:       result.OutputPath,
				Mode:             cfg.Processing.Mode,
				Format:           cfg.Processing.Format,
				StartTime:        startTime,
				EndTime:          time.Now(),
				InputDurationMS:  result.InputDurationMS,
				OutputDurationMS: result.OutputDurationMS,
				PlanLen:          result.PlanLen,
				Report:           result.Report,
				LogLines:         logLines,
			}
			if reportErr := logging.GenerateReport(reportData); reportErr != nil {
				log("[MAIN] Failed to generate log file: %v", reportErr)
			}
		}

		p.Send(ui.RunCompleteMsg{Result: result, Err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}

	if m, ok := finalModel.(ui.Model); ok && m.Err != nil {
		os.Exit(1)
	}
}

// applyFlags overlays explicitly-set CLI flags onto the loaded config.
func applyFlags(cfg *config.Config, args *CLI) {
	if args.Mode != "" {
		cfg.Processing.Mode = args.Mode
	}
	if args.Format != "" {
		cfg.Processing.Format = args.Format
	}
	if args.Threshold != 0 {
		cfg.Processing.ThresholdDB = args.Threshold
	}
	if args.MinSilence != 0 {
		cfg.Processing.MinSilenceMS = args.MinSilence
	}
	if args.Model != "" {
		cfg.Recognizer.Model = args.Model
	}
	if args.Language != "" {
		cfg.Recognizer.Language = args.Language
	}
}
