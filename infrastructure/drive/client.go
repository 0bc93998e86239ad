package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gachi-analyzer/domain/recording"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const recordingFields = "id, name, mimeType, size, createdTime"

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error)
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// ListFiles lists files matching the query, following every result page
func (s *GoogleDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	var files []*drive.File
	err := s.service.Files.List().
		Q(query).
		Fields(googleapi.Field("nextPageToken, files(" + fields + ")")).
		OrderBy(orderBy).
		PageSize(100).
		Pages(ctx, func(r *drive.FileList) error {
			files = append(files, r.Files...)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// DownloadFile opens the content of a file
func (s *GoogleDriveService) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := s.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Client implements recording.Source using Google Drive API
type Client struct {
	driveService DriveService
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// NewClient creates a new Google Drive client authenticated with a service account.
// If no options are provided, it initializes a real Google Drive service
func NewClient(ctx context.Context, credentialsPath string, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	if c.driveService == nil {
		svc, err := newGoogleDriveService(ctx, credentialsPath)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// newGoogleDriveService creates a production Google Drive service
func newGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// ListRecordings implements recording.Source
func (c *Client) ListRecordings(ctx context.Context, folderID string) ([]recording.RemoteFile, error) {
	if folderID == "" {
		return nil, fmt.Errorf("no recordings folder configured")
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false and mimeType contains 'video/'", folderID)
	files, err := c.driveService.ListFiles(ctx, query, recordingFields, "createdTime desc")
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}

	result := make([]recording.RemoteFile, 0, len(files))
	for _, f := range files {
		rf := recording.RemoteFile{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			Size:        f.Size,
			CreatedTime: parseTime(f.CreatedTime),
		}
		if !rf.IsVideo() {
			continue
		}
		result = append(result, rf)
	}
	return result, nil
}

// Download implements recording.Source
func (c *Client) Download(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	body, err := c.driveService.DownloadFile(ctx, fileID)
	if err != nil {
		return 0, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	return n, nil
}

// parseTime parses a Google Drive timestamp string
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Ensure Client implements recording.Source
var _ recording.Source = (*Client)(nil)
