package audit

import (
	"context"
	"flairhq/internal/audit/interfaces"
	"flairhq/internal/models"
	"flairhq/internal/providers"
	"flairhq/internal/storage"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

const archiveVersion = 1

const restoreBatchSize = 500

// Archive is the on-disk snapshot of the moderation log.
type Archive struct {
	Version int                      `json:"version"`
	Events  []models.ModerationEvent `json:"events"`
}

type FileManager struct {
	store      storage.EventStoreInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store storage.EventStoreInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

// SaveToFile writes a compressed snapshot of every event, replacing fileName atomically.
func (f *FileManager) SaveToFile(ctx context.Context, fileName string) (int, error) {
	events, err := f.store.ListEvents(ctx)
	if err != nil {
		return 0, err
	}
	if events == nil {
		events = []models.ModerationEvent{}
	}

	jsonData, err := json.Marshal(Archive{Version: archiveVersion, Events: events})
	if err != nil {
		return 0, err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return 0, err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return 0, err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return 0, err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return 0, err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return 0, err
	}

	return len(events), os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores an archive into the event store. It only runs on an
// empty store so a restart never duplicates the log.
func (f *FileManager) LoadFromFile(ctx context.Context, fileName string) (int, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	count, err := f.store.CountEvents(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		f.logger.Infof(providers.TypeApp, "Event store already holds %d events, skipping restore from %s", count, fileName)
		return 0, nil
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return 0, fmt.Errorf("decompress archive: %w", err)
	}

	var archive Archive
	if err := json.Unmarshal(decompressedData, &archive); err != nil {
		return 0, fmt.Errorf("decode archive: %w", err)
	}
	if archive.Version != archiveVersion {
		return 0, fmt.Errorf("unsupported archive version %d", archive.Version)
	}

	for start := 0; start < len(archive.Events); start += restoreBatchSize {
		end := min(start+restoreBatchSize, len(archive.Events))
		if err := f.store.CreateEvents(ctx, archive.Events[start:end]...); err != nil {
			return start, fmt.Errorf("restore events: %w", err)
		}
	}
	return len(archive.Events), nil
}
