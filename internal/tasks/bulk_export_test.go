package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"radarsync/internal/blacklist"
	"radarsync/internal/formatter"
	"radarsync/internal/services"
	th "radarsync/internal/testing"
)

func exportFixture(playlistCount int) (*th.MockService, []string) {
	mock := th.NewMockService()
	ids := make([]string, playlistCount)
	for i := 0; i < playlistCount; i++ {
		id := fmt.Sprintf("playlist%d", i+1)
		ids[i] = id
		mock.Playlists[id] = &services.Playlist{
			ID:          id,
			Name:        fmt.Sprintf("Playlist %d", i+1),
			Description: fmt.Sprintf("Test playlist %d", i+1),
			TrackCount:  2,
			Tracks: []services.Track{
				testTrack(fmt.Sprintf("track%d-1", i+1), "Song 1", "", 180, "", "Artist 1"),
				testTrack(fmt.Sprintf("track%d-2", i+1), "Song 2", "", 240, "", "Artist 2"),
			},
		}
	}
	return mock, ids
}

func TestBulkExport_SuccessfulExport(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		playlistCount  int
		validateResult func(t *testing.T, result *BulkExportResult, tempDir string)
	}{
		{
			name:          "single playlist json export",
			format:        "json",
			playlistCount: 1,
			validateResult: func(t *testing.T, result *BulkExportResult, tempDir string) {
				if len(result.Results[0].Files) != 1 {
					t.Errorf("expected 1 file, got %d", len(result.Results[0].Files))
				}
				jsonPath := filepath.Join(tempDir, "playlist1.json")
				if _, err := os.Stat(jsonPath); os.IsNotExist(err) {
					t.Errorf("JSON file not created at %s", jsonPath)
				}
			},
		},
		{
			name:          "multiple playlists csv export",
			format:        "csv",
			playlistCount: 3,
			validateResult: func(t *testing.T, result *BulkExportResult, tempDir string) {
				for _, res := range result.Results {
					if len(res.Files) != 2 {
						t.Errorf("CSV export should create 2 files, got %d", len(res.Files))
					}
				}
			},
		},
		{
			name:          "text export",
			format:        "txt",
			playlistCount: 2,
			validateResult: func(t *testing.T, result *BulkExportResult, tempDir string) {
				for _, res := range result.Results {
					if len(res.Files) != 1 {
						t.Errorf("text export should create 1 file, got %d", len(res.Files))
					}
				}
			},
		},
		{
			name:          "markdown export",
			format:        "markdown",
			playlistCount: 1,
			validateResult: func(t *testing.T, result *BulkExportResult, tempDir string) {
				if len(result.Results[0].Files) < 1 {
					t.Errorf("markdown export should create at least 1 file, got %d", len(result.Results[0].Files))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()

			mock, ids := exportFixture(tt.playlistCount)
			r := newTestReconciler(mock, blacklist.NewMemStore())

			progressCh := make(chan ProgressUpdate, 100)
			opts := BulkExportOpts{
				Format:     tt.format,
				OutputDir:  tempDir,
				NumWorkers: 2,
				RateLimit:  100.0,
			}

			result, err := r.BulkExport(context.Background(), progressCh, ids, opts)
			if err != nil {
				t.Fatalf("BulkExport() error = %v", err)
			}

			if result.TotalPlaylists != tt.playlistCount {
				t.Errorf("TotalPlaylists = %d, want %d", result.TotalPlaylists, tt.playlistCount)
			}
			if result.SuccessfulExports != tt.playlistCount {
				t.Errorf("SuccessfulExports = %d, want %d", result.SuccessfulExports, tt.playlistCount)
			}
			if result.FailedExports != 0 {
				t.Errorf("FailedExports = %d, want 0", result.FailedExports)
			}
			if result.OutputDirectory != tempDir {
				t.Errorf("OutputDirectory = %s, want %s", result.OutputDirectory, tempDir)
			}

			manifestPath := filepath.Join(tempDir, "export_manifest.json")
			if result.ManifestPath != manifestPath {
				t.Errorf("ManifestPath = %s, want %s", result.ManifestPath, manifestPath)
			}

			manifestData, err := os.ReadFile(manifestPath)
			if err != nil {
				t.Fatalf("failed to read manifest: %v", err)
			}

			var manifest formatter.BulkManifest
			if err := json.Unmarshal(manifestData, &manifest); err != nil {
				t.Fatalf("failed to parse manifest: %v", err)
			}

			if manifest.Format != tt.format {
				t.Errorf("manifest format = %s, want %s", manifest.Format, tt.format)
			}
			if manifest.TotalPlaylists != tt.playlistCount {
				t.Errorf("manifest total = %d, want %d", manifest.TotalPlaylists, tt.playlistCount)
			}

			if tt.validateResult != nil {
				tt.validateResult(t, result, tempDir)
			}
		})
	}
}

func TestBulkExport_PartialFailures(t *testing.T) {
	tempDir := t.TempDir()

	mock, _ := exportFixture(3)
	// playlist2 is unknown to the service, so its fetch fails.
	delete(mock.Playlists, "playlist2")

	r := newTestReconciler(mock, blacklist.NewMemStore())

	ids := []string{"playlist1", "playlist2", "playlist3"}
	opts := BulkExportOpts{
		Format:     "json",
		OutputDir:  tempDir,
		NumWorkers: 2,
		RateLimit:  100.0,
	}

	result, err := r.BulkExport(context.Background(), nil, ids, opts)
	if err != nil {
		t.Fatalf("BulkExport() error = %v", err)
	}

	if result.TotalPlaylists != 3 {
		t.Errorf("TotalPlaylists = %d, want 3", result.TotalPlaylists)
	}
	if result.SuccessfulExports != 2 {
		t.Errorf("SuccessfulExports = %d, want 2", result.SuccessfulExports)
	}
	if result.FailedExports != 1 {
		t.Errorf("FailedExports = %d, want 1", result.FailedExports)
	}

	var failed *PlaylistExportResult
	for i := range result.Results {
		if !result.Results[i].Success {
			failed = &result.Results[i]
			break
		}
	}
	if failed == nil {
		t.Fatal("expected a failed result")
	}
	if failed.PlaylistID != "playlist2" {
		t.Errorf("failed playlist = %s, want playlist2", failed.PlaylistID)
	}
	if failed.Error == nil {
		t.Error("failed result should carry an error")
	}

	// The manifest records failures too.
	manifestData, err := os.ReadFile(result.ManifestPath)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var manifest formatter.BulkManifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}
	if manifest.FailedExports != 1 {
		t.Errorf("manifest failed_exports = %d, want 1", manifest.FailedExports)
	}
}

func TestBulkExport_Defaults(t *testing.T) {
	t.Run("Nil Service", func(t *testing.T) {
		r := &Reconciler{}
		if _, err := r.BulkExport(context.Background(), nil, []string{"p1"}, BulkExportOpts{}); err == nil {
			t.Error("expected error for nil service")
		}
	})

	t.Run("Worker Count Clamped", func(t *testing.T) {
		tempDir := t.TempDir()
		mock, ids := exportFixture(2)
		r := newTestReconciler(mock, blacklist.NewMemStore())

		opts := BulkExportOpts{
			Format:     "json",
			OutputDir:  tempDir,
			NumWorkers: 50, // clamped to 10 internally
			RateLimit:  100.0,
		}

		result, err := r.BulkExport(context.Background(), nil, ids, opts)
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}
		if result.SuccessfulExports != 2 {
			t.Errorf("SuccessfulExports = %d, want 2", result.SuccessfulExports)
		}
	})
}
