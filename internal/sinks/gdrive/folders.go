package gdrive

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"invoice-intake/internal/common/cache"
	"invoice-intake/internal/common/logger"
)

// Folders resolves folder paths below a root folder, creating missing segments.
// Resolved ids are remembered in the optional cache.
type Folders struct {
	api    API
	rootID string
	cache  cache.Store
	logger logger.Logger

	// mu serializes find-or-create so concurrent uploads do not create twin folders.
	mu sync.Mutex
}

func NewFolders(api API, rootID string, store cache.Store, log logger.Logger) *Folders {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Folders{api: api, rootID: rootID, cache: store, logger: log}
}

func (f *Folders) RootID() string {
	return f.rootID
}

func (f *Folders) cacheKey(path []string) string {
	return "drive:folder:" + f.rootID + "/" + strings.Join(path, "/")
}

// Ensure returns the id of the folder at path, creating each missing segment.
func (f *Folders) Ensure(ctx context.Context, path ...string) (string, error) {
	if len(path) == 0 {
		return f.rootID, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	parent := f.rootID
	for i, name := range path {
		key := f.cacheKey(path[:i+1])
		if id, ok := f.lookup(ctx, key); ok {
			parent = id
			continue
		}

		id, found, err := f.api.FindFile(ctx, name, FolderMimeType, parent)
		if err != nil {
			return "", err
		}
		if !found {
			created, err := f.api.CreateFile(ctx, File{
				Name:     name,
				MimeType: FolderMimeType,
				Parents:  []string{parent},
			}, nil)
			if err != nil {
				return "", fmt.Errorf("create folder %q: %w", name, err)
			}
			id = created.ID
			f.logger.Info("Created Drive folder", map[string]interface{}{
				"name":     name,
				"folderId": id,
				"parentId": parent,
			})
		}

		f.remember(ctx, key, id)
		parent = id
	}
	return parent, nil
}

func (f *Folders) lookup(ctx context.Context, key string) (string, bool) {
	if f.cache == nil {
		return "", false
	}
	id, ok, err := f.cache.Lookup(ctx, key)
	if err != nil {
		f.logger.Warn("Folder cache lookup failed", map[string]interface{}{"key": key, "error": err})
		return "", false
	}
	return id, ok
}

func (f *Folders) remember(ctx context.Context, key, id string) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Remember(ctx, key, id); err != nil {
		f.logger.Warn("Folder cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}
