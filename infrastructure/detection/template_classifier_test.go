//go:build detection

package detection

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/infrastructure/config"

	"gocv.io/x/gocv"
)

func testDetectionConfig() config.DetectionConfig {
	return config.DetectionConfig{ReferenceWidth: 320, ReferenceHeight: 180, LoadingBlackRatio: 0.8}
}

func blackFrame(width, height int) gocv.Mat {
	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&frame, image.Rect(0, 0, width, height), color.RGBA{0, 0, 0, 0}, -1)
	return frame
}

// patternFrame draws a distinctive block layout on a grey canvas
func patternFrame(width, height int) gocv.Mat {
	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&frame, image.Rect(0, 0, width, height), color.RGBA{90, 90, 90, 0}, -1)
	gocv.Rectangle(&frame, image.Rect(40, 30, 100, 90), color.RGBA{250, 250, 250, 0}, -1)
	gocv.Rectangle(&frame, image.Rect(60, 50, 80, 70), color.RGBA{10, 10, 10, 0}, -1)
	gocv.Rectangle(&frame, image.Rect(110, 40, 130, 100), color.RGBA{200, 30, 30, 0}, -1)
	return frame
}

func writeTemplate(t *testing.T, dir string, frame gocv.Mat, rect image.Rectangle) string {
	t.Helper()
	region := frame.Region(rect)
	defer region.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)

	path := filepath.Join(dir, "template.png")
	if !gocv.IMWrite(path, gray) {
		t.Fatalf("failed to write template %s", path)
	}
	return path
}

func TestTemplateClassifier_Loading(t *testing.T) {
	c := NewTemplateClassifier(testDetectionConfig())
	defer c.Close()

	t.Run("black frame", func(t *testing.T) {
		frame := blackFrame(320, 180)
		defer frame.Close()
		if got := c.Classify(frame); got != screen.Loading {
			t.Errorf("expected Loading, got %s", got)
		}
	})

	t.Run("content only in right margin", func(t *testing.T) {
		frame := blackFrame(320, 180)
		defer frame.Close()
		gocv.Rectangle(&frame, image.Rect(300, 0, 320, 180), color.RGBA{255, 255, 255, 0}, -1)
		if got := c.Classify(frame); got != screen.Loading {
			t.Errorf("expected Loading, got %s", got)
		}
	})

	t.Run("other resolution is resized first", func(t *testing.T) {
		frame := blackFrame(640, 360)
		defer frame.Close()
		if got := c.Classify(frame); got != screen.Loading {
			t.Errorf("expected Loading, got %s", got)
		}
	})
}

func TestTemplateClassifier_Templates(t *testing.T) {
	dir := t.TempDir()
	frame := patternFrame(320, 180)
	defer frame.Close()
	path := writeTemplate(t, dir, frame, image.Rect(30, 20, 140, 110))

	c := NewTemplateClassifier(testDetectionConfig())
	defer c.Close()
	err := c.LoadTemplates([]screen.TemplateSpec{
		{Label: screen.ResultOkaneRank, Path: path, Threshold: 0.7},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TemplateCount() != 1 {
		t.Fatalf("expected 1 template, got %d", c.TemplateCount())
	}

	if got := c.Classify(frame); got != screen.ResultOkaneRank {
		t.Errorf("expected ResultOkaneRank, got %s", got)
	}

	t.Run("first match wins", func(t *testing.T) {
		ordered := NewTemplateClassifier(testDetectionConfig())
		defer ordered.Close()
		err := ordered.LoadTemplates([]screen.TemplateSpec{
			{Label: screen.LobbyStandby, Path: path, Threshold: 0.7},
			{Label: screen.ResultOkaneRank, Path: path, Threshold: 0.7},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ordered.Classify(frame); got != screen.LobbyStandby {
			t.Errorf("expected LobbyStandby, got %s", got)
		}
	})
}

func TestTemplateClassifier_NoTemplates(t *testing.T) {
	c := NewTemplateClassifier(testDetectionConfig())
	defer c.Close()

	frame := patternFrame(320, 180)
	defer frame.Close()
	if got := c.Classify(frame); got != screen.Unknown {
		t.Errorf("expected Unknown, got %s", got)
	}
}

func TestTemplateClassifier_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		c := NewTemplateClassifier(testDetectionConfig())
		defer c.Close()

		err := c.LoadTemplates([]screen.TemplateSpec{
			{Label: screen.LobbyStandby, Path: filepath.Join(dir, "missing.png"), Threshold: 0.7},
		})
		var loadErr *screen.TemplateLoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("expected TemplateLoadError, got %v", err)
		}
		if loadErr.Label != screen.LobbyStandby {
			t.Errorf("expected LobbyStandby label, got %s", loadErr.Label)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected wrapped ErrNotExist, got %v", err)
		}
	})

	t.Run("undecodable file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.png")
		if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
			t.Fatal(err)
		}

		err := CheckTemplates(testDetectionConfig(), []screen.TemplateSpec{
			{Label: screen.ResultUdemae, Path: path, Threshold: 0.7},
		})
		var loadErr *screen.TemplateLoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("expected TemplateLoadError, got %v", err)
		}
	})
}
