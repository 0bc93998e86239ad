package recording

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gachi-analyzer/domain/recording"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSource implements recording.Source for testing
type mockSource struct {
	files       []recording.RemoteFile
	contents    map[string]string
	listErr     error
	downloadErr error
	downloads   []string
}

func (m *mockSource) ListRecordings(ctx context.Context, folderID string) ([]recording.RemoteFile, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.files, nil
}

func (m *mockSource) Download(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	m.downloads = append(m.downloads, fileID)
	if m.downloadErr != nil {
		_, _ = io.WriteString(w, "partial")
		return 7, m.downloadErr
	}
	n, err := io.WriteString(w, m.contents[fileID])
	return int64(n), err
}

func newMockSource() *mockSource {
	base := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	return &mockSource{
		files: []recording.RemoteFile{
			{ID: "old", Name: "2024-06-01 20-00.mp4", MimeType: "video/mp4", Size: 3, CreatedTime: base},
			{ID: "new", Name: "2024-06-02 21-30.mp4", MimeType: "video/mp4", Size: 5, CreatedTime: base.Add(25 * time.Hour)},
		},
		contents: map[string]string{"old": "abc", "new": "hello"},
	}
}

func TestFetchService_Fetch(t *testing.T) {
	t.Run("newest by default", func(t *testing.T) {
		dir := t.TempDir()
		source := newMockSource()
		var out bytes.Buffer
		svc := NewFetchService(source, "folder", dir, &out)

		result, err := svc.Fetch(context.Background(), FetchInput{})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "2024-06-02 21-30.mp4"), result.Path)
		assert.EqualValues(t, 5, result.Size)
		assert.False(t, result.Skipped)
		data, err := os.ReadFile(result.Path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
		assert.Contains(t, out.String(), "Downloading 2024-06-02 21-30.mp4 (5 B)")
	})

	t.Run("by id", func(t *testing.T) {
		svc := NewFetchService(newMockSource(), "folder", t.TempDir(), nil)
		result, err := svc.Fetch(context.Background(), FetchInput{FileID: "old"})
		require.NoError(t, err)
		assert.Equal(t, "2024-06-01 20-00.mp4", filepath.Base(result.Path))
	})

	t.Run("by name", func(t *testing.T) {
		svc := NewFetchService(newMockSource(), "folder", t.TempDir(), nil)
		result, err := svc.Fetch(context.Background(), FetchInput{Name: "2024-06-01 20-00.mp4"})
		require.NoError(t, err)
		assert.EqualValues(t, 3, result.Size)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc := NewFetchService(newMockSource(), "folder", t.TempDir(), nil)
		_, err := svc.Fetch(context.Background(), FetchInput{FileID: "missing"})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty folder", func(t *testing.T) {
		svc := NewFetchService(&mockSource{}, "folder", t.TempDir(), nil)
		_, err := svc.Fetch(context.Background(), FetchInput{})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("existing file with same size is reused", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-06-02 21-30.mp4"), []byte("HELLO"), 0644))
		source := newMockSource()
		svc := NewFetchService(source, "folder", dir, nil)

		result, err := svc.Fetch(context.Background(), FetchInput{})
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Empty(t, source.downloads)
	})

	t.Run("failed download leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		source := newMockSource()
		source.downloadErr = errors.New("connection reset")
		svc := NewFetchService(source, "folder", dir, nil)

		_, err := svc.Fetch(context.Background(), FetchInput{})
		require.Error(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("list failure", func(t *testing.T) {
		source := &mockSource{listErr: errors.New("unauthorized")}
		svc := NewFetchService(source, "folder", t.TempDir(), nil)
		_, err := svc.Fetch(context.Background(), FetchInput{})
		require.Error(t, err)
	})
}
