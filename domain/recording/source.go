package recording

import (
	"context"
	"io"
	"strings"
	"time"
)

// Source lists and downloads match recordings from remote storage
// This is a port that can be implemented by different infrastructure adapters
type Source interface {
	// ListRecordings lists the video files in a folder, newest first
	ListRecordings(ctx context.Context, folderID string) ([]RemoteFile, error)

	// Download streams the file content to w and returns the bytes written
	Download(ctx context.Context, fileID string, w io.Writer) (int64, error)
}

// RemoteFile represents metadata about a recording in remote storage
type RemoteFile struct {
	ID          string
	Name        string
	MimeType    string
	Size        int64
	CreatedTime time.Time
}

// IsVideo reports whether the file looks like a video recording
func (f RemoteFile) IsVideo() bool {
	return strings.HasPrefix(f.MimeType, "video/")
}

// Newest returns the most recently created file, or false when files is empty
func Newest(files []RemoteFile) (RemoteFile, bool) {
	if len(files) == 0 {
		return RemoteFile{}, false
	}
	newest := files[0]
	for _, f := range files[1:] {
		if f.CreatedTime.After(newest.CreatedTime) {
			newest = f
		}
	}
	return newest, true
}
