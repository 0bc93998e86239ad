package drive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/drive/v3"
)

// mockDriveService is a mock implementation for testing
type mockDriveService struct {
	files      []*drive.File
	contents   map[string]string
	shouldFail bool
	failError  error

	lastQuery   string
	lastOrderBy string
}

func (m *mockDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	m.lastQuery = query
	m.lastOrderBy = orderBy
	if m.shouldFail {
		return nil, m.failError
	}
	return m.files, nil
}

func (m *mockDriveService) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	content, ok := m.contents[fileID]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func TestClient_ListRecordings(t *testing.T) {
	testTime := time.Date(2025, 12, 28, 10, 0, 0, 0, time.UTC)

	t.Run("maps video files", func(t *testing.T) {
		mock := &mockDriveService{
			files: []*drive.File{
				{Id: "1", Name: "2025-12-28 20-00-01.mp4", MimeType: "video/mp4", Size: 2048, CreatedTime: testTime.Format(time.RFC3339)},
				{Id: "2", Name: "notes.txt", MimeType: "text/plain", Size: 10},
				{Id: "3", Name: "clip.mkv", MimeType: "video/x-matroska", Size: 4096, CreatedTime: "garbage"},
			},
		}

		client, err := NewClient(context.Background(), "", WithDriveService(mock))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		files, err := client.ListRecordings(context.Background(), "folder-123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(files) != 2 {
			t.Fatalf("expected 2 video files, got %d", len(files))
		}
		if files[0].ID != "1" || files[0].Size != 2048 || !files[0].CreatedTime.Equal(testTime) {
			t.Errorf("unexpected first file: %+v", files[0])
		}
		if !files[1].CreatedTime.IsZero() {
			t.Errorf("expected zero time for unparsable timestamp, got %v", files[1].CreatedTime)
		}
		if !strings.Contains(mock.lastQuery, "'folder-123' in parents") {
			t.Errorf("expected folder in query, got %s", mock.lastQuery)
		}
		if !strings.Contains(mock.lastQuery, "trashed = false") {
			t.Errorf("expected trashed filter in query, got %s", mock.lastQuery)
		}
		if mock.lastOrderBy != "createdTime desc" {
			t.Errorf("expected newest first ordering, got %s", mock.lastOrderBy)
		}
	})

	t.Run("requires a folder", func(t *testing.T) {
		client, _ := NewClient(context.Background(), "", WithDriveService(&mockDriveService{}))
		if _, err := client.ListRecordings(context.Background(), ""); err == nil {
			t.Error("expected error for empty folder ID")
		}
	})

	t.Run("api failure", func(t *testing.T) {
		mock := &mockDriveService{shouldFail: true, failError: errors.New("quota exceeded")}
		client, _ := NewClient(context.Background(), "", WithDriveService(mock))

		_, err := client.ListRecordings(context.Background(), "folder-123")
		if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
			t.Errorf("expected wrapped api error, got %v", err)
		}
	})
}

func TestClient_Download(t *testing.T) {
	mock := &mockDriveService{contents: map[string]string{"abc": "video-bytes"}}
	client, _ := NewClient(context.Background(), "", WithDriveService(mock))

	t.Run("copies content", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := client.Download(context.Background(), "abc", &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != int64(len("video-bytes")) || buf.String() != "video-bytes" {
			t.Errorf("unexpected download: n=%d content=%q", n, buf.String())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		var buf bytes.Buffer
		if _, err := client.Download(context.Background(), "nope", &buf); err == nil {
			t.Error("expected error")
		}
	})
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Error("expected error for missing credentials file")
	}
}
