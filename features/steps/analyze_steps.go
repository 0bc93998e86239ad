//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gachi-analyzer/cmd"
	"gachi-analyzer/domain/screen"
	"gachi-analyzer/domain/timeline"
	"gachi-analyzer/domain/video"
	"gachi-analyzer/infrastructure/config"

	"github.com/cucumber/godog"
)

const recordingsDir = "/recordings"

// stubProber reports the scripted recording's stream properties
type stubProber struct {
	info video.Info
}

func (p *stubProber) Probe(ctx context.Context, videoPath string) (video.Info, error) {
	return p.info, nil
}

// scriptedFactory hands out samplers that label frames from a fixed script
type scriptedFactory struct {
	script []screen.Label
	fps    float64
}

func (f *scriptedFactory) NewSampler() (video.Sampler, error) {
	return &scriptedSampler{script: f.script, fps: f.fps}, nil
}

type scriptedSampler struct {
	script []screen.Label
	fps    float64
}

func (s *scriptedSampler) Sample(ctx context.Context, videoPath string, r video.FrameRange) ([]timeline.LabeledSample, error) {
	var samples []timeline.LabeledSample
	for i := r.Start; i < r.Stop && i < len(s.script); i += r.Step {
		samples = append(samples, timeline.LabeledSample{
			FrameIndex: i,
			Timestamp:  video.FrameTimestamp(i, s.fps),
			Label:      s.script[i],
		})
	}
	return samples, nil
}

func (s *scriptedSampler) Close() {}

// recordingFiles simulates the recordings directory
type recordingFiles struct {
	existing map[string]bool
}

func (f *recordingFiles) Exists(path string) bool { return f.existing[path] }
func (f *recordingFiles) Size(path string) int64  { return 64 << 20 }

func (f *recordingFiles) FindNewestFile(dir, ext string) (string, error) {
	for path := range f.existing {
		if filepath.Dir(path) == dir && strings.EqualFold(filepath.Ext(path), ext) {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s files found in %s", ext, dir)
}

type analyzeContext struct {
	files   *recordingFiles
	factory *scriptedFactory
	prober  *stubProber
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	err     error
}

// SharedAnalyzeContext is reset before each scenario via Before hook
var SharedAnalyzeContext *analyzeContext

func getAnalyzeContext() *analyzeContext {
	return SharedAnalyzeContext
}

func InitializeAnalyzeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedAnalyzeContext = &analyzeContext{
			files:   &recordingFiles{existing: make(map[string]bool)},
			factory: &scriptedFactory{},
			prober:  &stubProber{},
			stdout:  &bytes.Buffer{},
			stderr:  &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedAnalyzeContext = nil
		return c, nil
	})

	ctx.Step(`^a recording "([^"]*)" at (\d+) fps showing:$`, aRecordingAtFPSShowing)
	ctx.Step(`^I analyze "([^"]*)" with (\d+) workers? and frame interval (\d+)$`, iAnalyzeWithWorkersAndFrameInterval)
	ctx.Step(`^the command succeeds$`, theCommandSucceeds)
	ctx.Step(`^the output is:$`, theOutputIs)
	ctx.Step(`^the command fails with "([^"]*)"$`, theCommandFailsWith)
}

func aRecordingAtFPSShowing(name string, fps int, table *godog.Table) error {
	a := getAnalyzeContext()

	var script []screen.Label
	for i, row := range table.Rows[1:] {
		label, err := screen.ParseLabel(row.Cells[0].Value)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		frames, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return fmt.Errorf("row %d: invalid frame count: %w", i+1, err)
		}
		for j := 0; j < frames; j++ {
			script = append(script, label)
		}
	}

	a.factory.script = script
	a.factory.fps = float64(fps)
	a.prober.info = video.Info{FrameCount: len(script), FPS: float64(fps), Width: 1280, Height: 720}
	a.files.existing[filepath.Join(recordingsDir, name)] = true
	return nil
}

func iAnalyzeWithWorkersAndFrameInterval(name string, workers, interval int) error {
	a := getAnalyzeContext()

	cfg := config.Default()
	cfg.Paths.SourceDirectory = recordingsDir

	deps := cmd.AnalyzeDependencies{
		Prober:      a.prober,
		Factory:     a.factory,
		FileChecker: a.files,
		FileSizer:   a.files,
		FileFinder:  a.files,
	}
	input := cmd.AnalyzeInput{
		VideoPath:     name,
		Workers:       workers,
		FrameInterval: interval,
		Format:        cmd.FormatCSV,
	}

	a.err = cmd.RunAnalyzeWithDependencies(context.Background(), cfg, deps, input, a.stdout, a.stderr)
	return nil
}

func theCommandSucceeds() error {
	a := getAnalyzeContext()
	if a.err != nil {
		return fmt.Errorf("unexpected error: %v", a.err)
	}
	return nil
}

func theOutputIs(expected *godog.DocString) error {
	a := getAnalyzeContext()
	want := strings.TrimSpace(expected.Content)
	got := strings.TrimSpace(a.stdout.String())
	if got != want {
		return fmt.Errorf("expected output:\n%s\ngot:\n%s", want, got)
	}
	return nil
}

func theCommandFailsWith(message string) error {
	a := getAnalyzeContext()
	if a.err == nil {
		return fmt.Errorf("expected error containing %q, got none", message)
	}
	if !strings.Contains(a.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got: %v", message, a.err)
	}
	return nil
}
