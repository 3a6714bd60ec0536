package folder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mintwatch/internal/logging"
	"mintwatch/internal/services"
)

// MediaFile is the single media file chosen from a folder.
type MediaFile struct {
	Path        string
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the media payload length in bytes.
func (m MediaFile) Size() int64 { return int64(len(m.Data)) }

// Contents is everything the pipeline needs from one folder.
type Contents struct {
	Dir          string
	Name         string
	Media        MediaFile
	MetadataPath string
	Metadata     *Metadata
}

// Loader reads folders from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader constructs a loader that reports ignored candidates to logger.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logging.NewComponentLogger(logger, "loader")}
}

// Load lists dir non-recursively, picks one media file and one metadata file,
// and parses the metadata. When several candidates of one kind exist the
// lexicographically first name wins.
func (l *Loader) Load(ctx context.Context, dir string) (*Contents, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrFolderUnavailable, "loading", "list", dir, err)
	}

	var media, metadata []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch Classify(entry.Name()) {
		case ClassMedia:
			media = append(media, entry.Name())
		case ClassMetadata:
			metadata = append(metadata, entry.Name())
		}
	}

	name := filepath.Base(dir)
	logger := logging.WithContext(ctx, l.logger)
	if len(media) == 0 {
		return nil, services.Wrap(services.ErrMissingMedia, "loading", "", fmt.Sprintf("no supported media file in %s", name), nil)
	}
	if len(metadata) == 0 {
		return nil, services.Wrap(services.ErrMissingMetadata, "loading", "", fmt.Sprintf("no .json metadata file in %s", name), nil)
	}
	// os.ReadDir returns entries sorted by file name.
	l.warnIgnored(logger, "media", media)
	l.warnIgnored(logger, "metadata", metadata)

	mediaPath := filepath.Join(dir, media[0])
	data, err := os.ReadFile(mediaPath)
	if err != nil {
		return nil, services.Wrap(services.ErrFolderUnavailable, "loading", "read media", media[0], err)
	}
	contentType, _ := ContentTypeFor(media[0])

	metadataPath := filepath.Join(dir, metadata[0])
	raw, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, services.Wrap(services.ErrFolderUnavailable, "loading", "read metadata", metadata[0], err)
	}
	doc, err := ParseMetadata(raw)
	if err != nil {
		return nil, err
	}

	logger.Debug("folder loaded",
		logging.String("media_file", media[0]),
		logging.String("content_type", contentType),
		logging.Int64("media_bytes", int64(len(data))),
		logging.String("metadata_file", metadata[0]),
	)

	return &Contents{
		Dir:  dir,
		Name: name,
		Media: MediaFile{
			Path:        mediaPath,
			Name:        media[0],
			ContentType: contentType,
			Data:        data,
		},
		MetadataPath: metadataPath,
		Metadata:     doc,
	}, nil
}

func (l *Loader) warnIgnored(logger *slog.Logger, kind string, candidates []string) {
	if len(candidates) < 2 {
		return
	}
	logging.WarnWithContext(logger, "multiple candidates; using first by name", "folder_ambiguous_"+kind,
		logging.String("chosen", candidates[0]),
		logging.Any("ignored", candidates[1:]),
		logging.String(logging.FieldErrorHint, "keep exactly one "+kind+" file per folder"),
		logging.String(logging.FieldImpact, "ignored files are not uploaded"),
	)
}
