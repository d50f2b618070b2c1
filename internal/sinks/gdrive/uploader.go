package gdrive

import (
	"context"
	"fmt"

	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/sinks"
)

// Uploader stores files under Invoices/<brand>/<month>/<type>[/Screenshots].
type Uploader struct {
	api         API
	folders     *Folders
	publicLinks bool
	logger      logger.Logger
}

func NewUploader(api API, folders *Folders, publicLinks bool, log logger.Logger) *Uploader {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Uploader{api: api, folders: folders, publicLinks: publicLinks, logger: log}
}

func (u *Uploader) Upload(ctx context.Context, req sinks.UploadRequest) (*sinks.UploadResult, error) {
	folderID, err := u.folders.Ensure(ctx, req.Folder.Segments()...)
	if err != nil {
		return nil, fmt.Errorf("resolve drive folder: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := u.api.CreateFile(ctx, File{
		Name:     req.Filename,
		MimeType: contentType,
		Parents:  []string{folderID},
	}, req.Data)
	if err != nil {
		return nil, err
	}

	// A file without a public link is still stored; callers get the viewer URL either way.
	if u.publicLinks {
		if err := u.api.ShareWithAnyone(ctx, file.ID); err != nil {
			u.logger.Warn("Failed to share Drive file", map[string]interface{}{
				"fileId": file.ID,
				"error":  err,
			})
		}
	}

	return &sinks.UploadResult{
		URL:        file.ViewURL(),
		ProviderID: file.ID,
		Filename:   req.Filename,
	}, nil
}
