// Package cloudinary stores attachments in a Cloudinary folder.
package cloudinary

import (
	"bytes"
	"context"
	"fmt"
	"time"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"invoice-intake/internal/common/config"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/sinks"
)

// uploadAPI is the subset of the Cloudinary upload API used here.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

type Uploader struct {
	api    uploadAPI
	folder string
	now    func() time.Time
	logger logger.Logger
}

// New builds an uploader from either a CLOUDINARY_URL or explicit credentials.
func New(cfg config.CloudinaryConfig, log logger.Logger) (*Uploader, error) {
	var (
		client *cld.Cloudinary
		err    error
	)
	if cfg.URL != "" {
		client, err = cld.NewFromURL(cfg.URL)
	} else {
		client, err = cld.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return NewWithAPI(&client.Upload, cfg.Folder, log), nil
}

func NewWithAPI(api uploadAPI, folder string, log logger.Logger) *Uploader {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Uploader{api: api, folder: folder, now: time.Now, logger: log}
}

// PublicID is "<folder>/<unix millis>-<basename>".
func (u *Uploader) PublicID(req sinks.UploadRequest) string {
	id := fmt.Sprintf("%d-%s", u.now().UnixMilli(), req.Basename())
	if u.folder == "" {
		return id
	}
	return u.folder + "/" + id
}

func resourceType(kind sinks.ContentKind) string {
	if kind == sinks.KindImage {
		return "auto"
	}
	return "raw"
}

func (u *Uploader) Upload(ctx context.Context, req sinks.UploadRequest) (*sinks.UploadResult, error) {
	kind := req.Kind
	if kind == "" {
		kind = sinks.KindFor(req.ContentType)
	}

	params := uploader.UploadParams{
		PublicID:     u.PublicID(req),
		ResourceType: resourceType(kind),
	}

	res, err := u.api.Upload(ctx, bytes.NewReader(req.Data), params)
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload %s: %w", req.Filename, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload %s: %s", req.Filename, res.Error.Message)
	}
	if res.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload %s: empty secure url", req.Filename)
	}

	u.logger.Debug("Uploaded to Cloudinary", map[string]interface{}{
		"publicId": res.PublicID,
		"filename": req.Filename,
		"bytes":    len(req.Data),
	})

	return &sinks.UploadResult{
		URL:        res.SecureURL,
		ProviderID: res.PublicID,
		Filename:   req.Filename,
	}, nil
}
