// package formatter renders playlist snapshots and run history to various
// formats (CSV, Markdown, plain text) and writes export files to disk.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"radarsync/internal/models"
	"radarsync/internal/services"
	"radarsync/internal/shared"
)

// ArtistLine joins a track's credited artists into a single display string,
// preserving credit order.
func ArtistLine(track services.Track) string {
	names := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}

// ExportToCSV converts a playlist snapshot to CSV with columns: ID, Title, Artist, Album, Duration, ISRC
func ExportToCSV(playlist *services.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "ISRC"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range playlist.Tracks {
		record := []string{
			track.ID,
			track.Title,
			ArtistLine(track),
			track.AlbumName,
			strconv.Itoa(track.DurationSec),
			track.ISRC,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist snapshot to Markdown with an optional cover image
func ExportToMarkdown(playlist *services.Playlist, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(playlist.Tracks)))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", shared.VisibilityString(playlist.Public)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range playlist.Tracks {
		duration := shared.FormatDuration(track.DurationSec)
		albumPart := ""
		if track.AlbumName != "" {
			albumPart = fmt.Sprintf(" (%s)", track.AlbumName)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, ArtistLine(track), track.Title, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist snapshot to plain text
func ExportToText(playlist *services.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Name))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(playlist.Tracks)))

	for i, track := range playlist.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, ArtistLine(track), track.Title))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// playlistMetadata is the JSON shape written alongside CSV exports. Tracks
// are excluded; they live in the CSV.
type playlistMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	SnapshotID  string `json:"snapshot_id,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist *services.Playlist) ([]byte, error) {
	meta := playlistMetadata{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       playlist.Owner,
		SnapshotID:  playlist.SnapshotID,
		TrackCount:  playlist.TrackCount,
		Public:      playlist.Public,
	}
	return shared.MarshalJSON(meta, true)
}

type trackJSON struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration"`
	ISRC     string `json:"isrc,omitempty"`
}

type playlistJSON struct {
	Playlist playlistMetadata `json:"playlist"`
	Tracks   []trackJSON      `json:"tracks"`
}

// ExportToJSON converts a playlist snapshot, tracks included, to indented JSON
func ExportToJSON(playlist *services.Playlist) ([]byte, error) {
	out := playlistJSON{
		Playlist: playlistMetadata{
			ID:          playlist.ID,
			Name:        playlist.Name,
			Description: playlist.Description,
			Owner:       playlist.Owner,
			SnapshotID:  playlist.SnapshotID,
			TrackCount:  playlist.TrackCount,
			Public:      playlist.Public,
		},
		Tracks: make([]trackJSON, 0, len(playlist.Tracks)),
	}
	for _, track := range playlist.Tracks {
		out.Tracks = append(out.Tracks, trackJSON{
			ID:       track.ID,
			Title:    track.Title,
			Artist:   ArtistLine(track),
			Album:    track.AlbumName,
			Duration: track.DurationSec,
			ISRC:     track.ISRC,
		})
	}
	return shared.MarshalJSON(out, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with an accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(playlist *services.Playlist, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = playlist.ID
	}

	csvData, err := ExportToCSV(playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFileWrite, err)
	}

	metadataJSON, err := ToMetadataJSON(playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFileWrite, err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist ID.
// The imageURL parameter is optional - if provided, attempts to download the cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(playlist *services.Playlist, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := fmt.Sprintf("%s/%s", outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(playlist, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFileWrite, err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_tracks.txt as the filename.
func WriteTextExport(playlist *services.Playlist, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", playlist.ID)
	}

	textData, err := ExportToText(playlist)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrFileWrite, err)
	}

	return filepath, nil
}

// WriteJSONExport exports a playlist, tracks included, to a JSON file.
//
// Defaults to {playlist.ID}.json as the filename.
func WriteJSONExport(playlist *services.Playlist, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s.json", playlist.ID)
	}

	jsonData, err := ExportToJSON(playlist)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrFileWrite, err)
	}

	return filepath, nil
}

// BulkManifestEntry records the outcome of one playlist in a bulk export.
type BulkManifestEntry struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Files  []string `json:"files,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// BulkManifest summarizes a bulk export for the manifest JSON file.
type BulkManifest struct {
	GeneratedAt       string              `json:"generated_at"`
	Format            string              `json:"format"`
	TotalPlaylists    int                 `json:"total_playlists"`
	SuccessfulExports int                 `json:"successful_exports"`
	FailedExports     int                 `json:"failed_exports"`
	Playlists         []BulkManifestEntry `json:"playlists"`
}

// WriteBulkExportManifest writes the bulk export manifest to the given path.
func WriteBulkExportManifest(manifest BulkManifest, filepath string) error {
	if manifest.GeneratedAt == "" {
		manifest.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to generate manifest JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrFileWrite, err)
	}

	return nil
}

// RunReport renders a single reconciliation run as a human-readable block.
func RunReport(run *models.Run) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run %s (#%d)\n", run.ID(), run.Sequence()))
	buf.WriteString(fmt.Sprintf("  %s -> %s\n", label(run.ReferenceName(), run.ReferenceID()), label(run.TargetName(), run.TargetID())))
	buf.WriteString(fmt.Sprintf("  Status: %s", run.Status()))
	if run.Status() == models.RunStatusFailed && run.FailedPhase() != "" {
		buf.WriteString(fmt.Sprintf(" (%s)", run.FailedPhase()))
	}
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf("  Candidates: %d, Blacklisted: %d, Duplicates: %d\n",
		run.Candidates(), run.Blacklisted(), run.Duplicates()))
	buf.WriteString(fmt.Sprintf("  Written: %d in %d chunk(s), Wiped: %d\n",
		run.Written(), run.Chunks(), run.Wiped()))
	buf.WriteString(fmt.Sprintf("  Started: %s, Took: %s\n",
		run.StartedAt().Format(time.RFC3339),
		run.FinishedAt().Sub(run.StartedAt()).Round(time.Second)))

	return buf.String()
}

// RunHistory renders a list of runs, most recent first, as a plain text report.
func RunHistory(runs []*models.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var buf bytes.Buffer
	for i, run := range runs {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(RunReport(run))
	}
	return buf.String()
}

func label(name, id string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}
