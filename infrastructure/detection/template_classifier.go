//go:build detection

package detection

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/infrastructure/config"

	"gocv.io/x/gocv"
)

type loadedTemplate struct {
	spec screen.TemplateSpec
	mat  gocv.Mat
}

// TemplateClassifier recognizes game screens using GoCV template matching
type TemplateClassifier struct {
	templates []loadedTemplate
	config    config.DetectionConfig
}

// NewTemplateClassifier creates a classifier with no templates loaded
func NewTemplateClassifier(cfg config.DetectionConfig) *TemplateClassifier {
	defaults := config.Default().Detection
	if cfg.ReferenceWidth <= 0 {
		cfg.ReferenceWidth = defaults.ReferenceWidth
	}
	if cfg.ReferenceHeight <= 0 {
		cfg.ReferenceHeight = defaults.ReferenceHeight
	}
	if cfg.LoadingBlackRatio <= 0 || cfg.LoadingBlackRatio > 1 {
		cfg.LoadingBlackRatio = defaults.LoadingBlackRatio
	}
	return &TemplateClassifier{config: cfg}
}

// LoadTemplates loads the reference images in evaluation order. Nothing is
// kept when any image fails to load.
func (c *TemplateClassifier) LoadTemplates(specs []screen.TemplateSpec) error {
	loaded := make([]loadedTemplate, 0, len(specs))
	release := func() {
		for _, t := range loaded {
			t.mat.Close()
		}
	}

	for _, spec := range specs {
		if _, err := os.Stat(spec.Path); err != nil {
			release()
			return &screen.TemplateLoadError{Label: spec.Label, Path: spec.Path, Err: err}
		}

		mat := gocv.IMRead(spec.Path, gocv.IMReadGrayScale)
		if mat.Empty() {
			mat.Close()
			release()
			return &screen.TemplateLoadError{Label: spec.Label, Path: spec.Path, Err: errors.New("image could not be decoded")}
		}
		if mat.Cols() > c.config.ReferenceWidth || mat.Rows() > c.config.ReferenceHeight {
			mat.Close()
			release()
			return &screen.TemplateLoadError{
				Label: spec.Label,
				Path:  spec.Path,
				Err:   fmt.Errorf("template %dx%d exceeds reference frame %dx%d", mat.Cols(), mat.Rows(), c.config.ReferenceWidth, c.config.ReferenceHeight),
			}
		}
		loaded = append(loaded, loadedTemplate{spec: spec, mat: mat})
	}

	c.Close()
	c.templates = loaded
	return nil
}

// Close releases all loaded templates
func (c *TemplateClassifier) Close() {
	for _, t := range c.templates {
		t.mat.Close()
	}
	c.templates = nil
}

// Classify returns the screen shown in frame, or screen.Unknown
func (c *TemplateClassifier) Classify(frame gocv.Mat) screen.Label {
	if frame.Empty() {
		return screen.Unknown
	}

	img := frame
	if frame.Cols() != c.config.ReferenceWidth || frame.Rows() != c.config.ReferenceHeight {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(frame, &resized, image.Pt(c.config.ReferenceWidth, c.config.ReferenceHeight), 0, 0, gocv.InterpolationLinear)
		img = resized
	}

	if c.isLoading(img) {
		return screen.Loading
	}

	gray := img
	if img.Channels() > 1 {
		converted := gocv.NewMat()
		defer converted.Close()
		gocv.CvtColor(img, &converted, gocv.ColorBGRToGray)
		gray = converted
	}

	for _, t := range c.templates {
		if c.score(gray, t.mat) >= t.spec.Threshold {
			return t.spec.Label
		}
	}

	return screen.Unknown
}

// isLoading reports whether the left part of the frame is black in every channel
func (c *TemplateClassifier) isLoading(img gocv.Mat) bool {
	width := int(float64(img.Cols()) * c.config.LoadingBlackRatio)
	if width <= 0 {
		return false
	}

	region := img.Region(image.Rect(0, 0, width, img.Rows()))
	defer region.Close()

	channels := gocv.Split(region)
	defer func() {
		for _, ch := range channels {
			ch.Close()
		}
	}()

	for _, ch := range channels {
		if gocv.CountNonZero(ch) > 0 {
			return false
		}
	}
	return true
}

func (c *TemplateClassifier) score(gray, template gocv.Mat) float64 {
	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(gray, template, &result, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	return float64(maxVal)
}

// TemplateCount returns the number of loaded templates
func (c *TemplateClassifier) TemplateCount() int {
	return len(c.templates)
}
