// Package transcribe runs whisper.cpp over an audio file and returns
// per-word timestamps.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnavailable means the recogniser cannot run at all: missing
// binary or missing model file.
var ErrUnavailable = errors.New("recognizer unavailable")

// ErrRecognition means the recogniser ran but failed to produce a
// usable transcript, even after the degraded retry.
var ErrRecognition = errors.New("recognition failed")

// defaultBeamSize is the whisper.cpp beam size for a normal run; the
// degraded retry drops to greedy decoding.
const defaultBeamSize = 5

// Word is one recognised word with its position on the audio timeline.
type Word struct {
	Text    string
	StartMS int
	EndMS   int
}

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Recognizer owns one whisper.cpp model handle. The model file is
// resolved lazily on first use and cached until the size changes;
// swapping sizes drops the old handle rather than keeping both.
type Recognizer struct {
	binaryPath string
	modelDir   string
	language   string

	runner    commandRunner
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	stat      func(name string) (os.FileInfo, error)
	readDir   func(name string) ([]os.DirEntry, error)
	readFile  func(name string) ([]byte, error)

	// OnLog, when set, receives every external command invocation.
	OnLog func(log CommandLog)

	mu        sync.Mutex
	modelSize string
	modelPath string // resolved; "" until Preload or first Transcribe
}

// NewRecognizer constructs a production recognizer for the given model
// size and language. The model directory comes from WHISPER_MODEL_DIR,
// falling back to "models" next to the working directory.
func NewRecognizer(modelSize, language string) *Recognizer {
	modelDir := os.Getenv("WHISPER_MODEL_DIR")
	if modelDir == "" {
		modelDir = "models"
	}
	return &Recognizer{
		binaryPath: "whisper-cli",
		modelDir:   modelDir,
		language:   language,
		modelSize:  modelSize,
		runner:     &execRunner{},
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		stat:       os.Stat,
		readDir:    os.ReadDir,
		readFile:   os.ReadFile,
	}
}

// SetModel switches to a different model size. The previously resolved
// model handle is discarded; the next run resolves the new one.
func (r *Recognizer) SetModel(modelSize string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if modelSize == r.modelSize {
		return
	}
	r.modelSize = modelSize
	r.modelPath = ""
}

// Preload resolves the model file now so the first transcription does
// not pay for the lookup.
func (r *Recognizer) Preload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.resolveModelLocked()
	return err
}

// resolveModelLocked finds the ggml model file for the configured size
// inside the model directory. Caller holds r.mu.
func (r *Recognizer) resolveModelLocked() (string, error) {
	if r.modelPath != "" {
		return r.modelPath, nil
	}

	// Exact conventional name first.
	exact := filepath.Join(r.modelDir, "ggml-"+r.modelSize+".bin")
	if _, err := r.stat(exact); err == nil {
		r.modelPath = exact
		return exact, nil
	}

	entries, err := r.readDir(r.modelDir)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read model directory %s: %v", ErrUnavailable, r.modelDir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if (ext == ".bin" || ext == ".gguf") && strings.Contains(name, r.modelSize) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no %q model file found in %s", ErrUnavailable, r.modelSize, r.modelDir)
	}

	sort.Strings(candidates)
	r.modelPath = filepath.Join(r.modelDir, candidates[0])
	return r.modelPath, nil
}

// Transcribe runs whisper.cpp over the audio file and returns the
// recognised words in timeline order. A failed run is retried once
// with greedy decoding before giving up.
func (r *Recognizer) Transcribe(ctx context.Context, audioPath string) ([]Word, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	modelPath, err := r.resolveModelLocked()
	if err != nil {
		return nil, err
	}

	tempDir, err := r.mkdirTemp("", "pausetune-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary workspace: %w", err)
	}
	defer func() { _ = r.removeAll(tempDir) }()

	outBase := filepath.Join(tempDir, "transcript")

	words, runErr := r.runOnce(ctx, modelPath, audioPath, outBase, defaultBeamSize)
	if runErr == nil {
		return words, nil
	}
	if errors.Is(runErr, ErrUnavailable) || ctx.Err() != nil {
		return nil, runErr
	}

	// Degraded retry: greedy decoding is slower to fail and copes with
	// audio that trips up beam search.
	words, retryErr := r.runOnce(ctx, modelPath, audioPath, outBase, 1)
	if retryErr == nil {
		return words, nil
	}
	return nil, fmt.Errorf("%w: %v (retry: %v)", ErrRecognition, runErr, retryErr)
}

// runOnce performs a single whisper.cpp invocation and parses its JSON
// output.
func (r *Recognizer) runOnce(ctx context.Context, modelPath, audioPath, outBase string, beamSize int) ([]Word, error) {
	args := buildWhisperArgs(modelPath, audioPath, outBase, r.language, beamSize)

	cmdResult, runErr := r.runner.Run(ctx, r.binaryPath, args...)
	log := CommandLog{
		Command:  r.binaryPath,
		Args:     args,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	if r.OnLog != nil {
		r.OnLog(log)
	}
	if runErr != nil {
		if errors.Is(runErr, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not found on PATH", ErrUnavailable, r.binaryPath)
		}
		return nil, fmt.Errorf("whisper.cpp run failed (exit=%d): %w", log.ExitCode, runErr)
	}

	content, err := r.readFile(outBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp completed but JSON output is missing: %w", err)
	}

	words, err := parseWhisperJSON(content)
	if err != nil {
		return nil, err
	}
	return words, nil
}

// buildWhisperArgs builds whisper.cpp args for word-level JSON output.
// -ml 1 with -sow yields one word per segment, which is where the
// per-word offsets come from.
func buildWhisperArgs(modelPath, audioPath, outBase, language string, beamSize int) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outBase,
		"-oj",
		"-ml", "1",
		"-sow",
		"-bs", fmt.Sprintf("%d", beamSize),
		"-np",
	}

	if lang := strings.TrimSpace(language); lang != "" && !strings.EqualFold(lang, "auto") {
		args = append(args, "-l", lang)
	}

	return args
}

// whisperOutput mirrors the whisper.cpp -oj file layout, one segment
// per word under -ml 1.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int `json:"from"`
			To   int `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperJSON converts the whisper.cpp JSON file into words,
// dropping empty and non-lexical segments.
func parseWhisperJSON(content []byte) ([]Word, error) {
	var out whisperOutput
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper.cpp JSON output: %w", err)
	}

	words := make([]Word, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		// Bracketed segments are sound events, not words.
		if strings.HasPrefix(text, "[") || strings.HasPrefix(text, "(") {
			continue
		}
		words = append(words, Word{
			Text:    text,
			StartMS: seg.Offsets.From,
			EndMS:   seg.Offsets.To,
		})
	}
	return words, nil
}

// NewRecognizerForTests constructs a recognizer with injectable
// dependencies.
func NewRecognizerForTests(
	binaryPath string,
	modelDir string,
	modelSize string,
	language string,
	runner commandRunner,
	stat func(name string) (os.FileInfo, error),
	readDir func(name string) ([]os.DirEntry, error),
	readFile func(name string) ([]byte, error),
) *Recognizer {
	return &Recognizer{
		binaryPath: binaryPath,
		modelDir:   modelDir,
		modelSize:  modelSize,
		language:   language,
		runner:     runner,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		stat:       stat,
		readDir:    readDir,
		readFile:   readFile,
	}
}
