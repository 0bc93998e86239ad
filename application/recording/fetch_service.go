package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gachi-analyzer/domain/recording"

	"github.com/dustin/go-humanize"
)

// ErrNotFound is returned when no remote recording matches the request
var ErrNotFound = errors.New("recording not found")

// FetchService downloads match recordings into the local source directory
type FetchService struct {
	source   recording.Source
	folderID string
	destDir  string
	output   io.Writer
}

// NewFetchService creates a new fetch service
func NewFetchService(source recording.Source, folderID, destDir string, output io.Writer) *FetchService {
	if output == nil {
		output = io.Discard
	}
	return &FetchService{
		source:   source,
		folderID: folderID,
		destDir:  destDir,
		output:   output,
	}
}

// FetchInput selects the recording to download. With both fields empty the
// newest recording is used.
type FetchInput struct {
	FileID string
	Name   string
}

// FetchResult describes a downloaded (or already present) recording
type FetchResult struct {
	Path    string
	Size    int64
	Skipped bool
}

// List returns the recordings available remotely
func (s *FetchService) List(ctx context.Context) ([]recording.RemoteFile, error) {
	files, err := s.source.ListRecordings(ctx, s.folderID)
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Fetch downloads one recording. A local file with the same name and size is
// reused instead of being downloaded again.
func (s *FetchService) Fetch(ctx context.Context, input FetchInput) (*FetchResult, error) {
	files, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	target, err := selectRecording(files, input)
	if err != nil {
		return nil, err
	}

	destPath := filepath.Join(s.destDir, filepath.Base(target.Name))
	if info, err := os.Stat(destPath); err == nil && info.Size() == target.Size {
		fmt.Fprintf(s.output, "Already downloaded: %s (%s)\n", destPath, humanize.Bytes(uint64(target.Size)))
		return &FetchResult{Path: destPath, Size: target.Size, Skipped: true}, nil
	}

	if err := os.MkdirAll(s.destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", s.destDir, err)
	}

	fmt.Fprintf(s.output, "Downloading %s (%s)...\n", target.Name, humanize.Bytes(uint64(max(target.Size, 0))))

	// Write to a temporary name so an interrupted download is never analyzed
	tmp, err := os.CreateTemp(s.destDir, "."+filepath.Base(target.Name)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := s.source.Download(ctx, target.ID, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("download of %s failed: %w", target.Name, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return nil, fmt.Errorf("failed to move download into place: %w", err)
	}

	fmt.Fprintf(s.output, "Saved: %s\n", destPath)
	return &FetchResult{Path: destPath, Size: n}, nil
}

func selectRecording(files []recording.RemoteFile, input FetchInput) (recording.RemoteFile, error) {
	switch {
	case input.FileID != "":
		for _, f := range files {
			if f.ID == input.FileID {
				return f, nil
			}
		}
		return recording.RemoteFile{}, fmt.Errorf("%w: id %s", ErrNotFound, input.FileID)
	case input.Name != "":
		for _, f := range files {
			if f.Name == input.Name {
				return f, nil
			}
		}
		return recording.RemoteFile{}, fmt.Errorf("%w: name %s", ErrNotFound, input.Name)
	default:
		newest, ok := recording.Newest(files)
		if !ok {
			return recording.RemoteFile{}, fmt.Errorf("%w: folder is empty", ErrNotFound)
		}
		return newest, nil
	}
}
