package operation

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// LoadFile reads a local file into a payload and declares its content
// type the way a browser file picker would: from the extension, falling
// back to content sniffing only when the extension is unknown.
func LoadFile(path string, maxFileSize int64) (FilePayload, error) {
	if path == "" {
		return FilePayload{}, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FilePayload{}, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return FilePayload{}, fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return FilePayload{}, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if fileInfo.Size() == 0 {
		return FilePayload{}, fmt.Errorf("file is empty: %s", path)
	}

	if maxFileSize > 0 && fileInfo.Size() > maxFileSize {
		return FilePayload{}, fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FilePayload{}, fmt.Errorf("failed to read file: %w", err)
	}

	return FilePayload{
		Name:        filepath.Base(path),
		ContentType: DeclaredContentType(path, data),
		Data:        data,
	}, nil
}

// DeclaredContentType returns the MIME type a file would be declared with
func DeclaredContentType(name string, data []byte) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
				return mediaType
			}
			return ct
		}
	}

	if len(data) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(data).String()
}
