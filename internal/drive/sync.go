// internal/drive/sync.go
package drive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

// SyncDatasets downloads every CSV file from the given Drive folder path
// into destDir, overwriting existing copies. Returns the number of files
// written.
func (s *Service) SyncDatasets(folderPath, destDir string) (int, error) {
	folderID, err := s.FindFolderByPath(folderPath)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve drive folder %q: %w", folderPath, err)
	}

	files, err := s.ListFiles(folderID)
	if err != nil {
		return 0, fmt.Errorf("failed to list drive folder %q: %w", folderPath, err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	count := 0
	for _, f := range files {
		if !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}

		destPath := filepath.Join(destDir, f.Name)
		out, err := os.Create(destPath)
		if err != nil {
			return count, fmt.Errorf("failed to create %s: %w", destPath, err)
		}

		if err := s.DownloadFile(f.ID, out); err != nil {
			out.Close()
			os.Remove(destPath)
			return count, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		out.Close()

		logger.Log.Info().Str("file", f.Name).Str("dest", destPath).Msg("dataset synced from drive")
		count++
	}

	return count, nil
}
