// Package gdrive stores attachments in a Google Drive folder tree.
package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"invoice-intake/internal/common/config"
)

const (
	FolderMimeType      = "application/vnd.google-apps.folder"
	SpreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
)

// Scopes needed by the Drive uploader and the spreadsheet appender.
var Scopes = []string{drive.DriveScope, sheets.SpreadsheetsScope}

// File is the Drive metadata this package works with.
type File struct {
	ID          string
	Name        string
	MimeType    string
	Parents     []string
	WebViewLink string
}

// ViewURL falls back to the canonical viewer link when Drive did not return one.
func (f *File) ViewURL() string {
	if f.WebViewLink != "" {
		return f.WebViewLink
	}
	return "https://drive.google.com/file/d/" + f.ID + "/view"
}

// API is the subset of Drive used by the uploader and the spreadsheet appender.
type API interface {
	FindFile(ctx context.Context, name, mimeType, parentID string) (string, bool, error)
	CreateFile(ctx context.Context, meta File, data []byte) (*File, error)
	ShareWithAnyone(ctx context.Context, fileID string) error
}

// ClientOptions resolves service-account credentials from inline JSON, a key file,
// or the application default credentials, in that order.
func ClientOptions(ctx context.Context, cfg config.GoogleConfig, scopes ...string) ([]option.ClientOption, error) {
	var raw []byte
	switch {
	case cfg.CredentialsJSON != "":
		raw = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsPath != "":
		b, err := os.ReadFile(cfg.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("read google credentials: %w", err)
		}
		raw = b
	}

	var (
		creds *google.Credentials
		err   error
	)
	if raw != nil {
		creds, err = google.CredentialsFromJSON(ctx, raw, scopes...)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, scopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("load google credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// Service implements API on top of the Drive v3 client.
type Service struct {
	svc         *drive.Service
	sharedDrive bool
}

// NewService connects to Drive. sharedDrive widens folder lookups to every drive
// the service account can see.
func NewService(ctx context.Context, sharedDrive bool, opts ...option.ClientOption) (*Service, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Service{svc: svc, sharedDrive: sharedDrive}, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func (s *Service) FindFile(ctx context.Context, name, mimeType, parentID string) (string, bool, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), mimeType, escapeQuery(parentID))

	call := s.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx)
	if s.sharedDrive {
		call = call.Corpora("allDrives")
	}

	res, err := call.Do()
	if err != nil {
		return "", false, fmt.Errorf("drive list %q: %w", name, err)
	}
	if len(res.Files) == 0 {
		return "", false, nil
	}
	return res.Files[0].Id, true, nil
}

func (s *Service) CreateFile(ctx context.Context, meta File, data []byte) (*File, error) {
	call := s.svc.Files.Create(&drive.File{
		Name:     meta.Name,
		MimeType: meta.MimeType,
		Parents:  meta.Parents,
	}).
		Fields("id, name, mimeType, webViewLink").
		SupportsAllDrives(true).
		Context(ctx)

	if data != nil {
		call = call.Media(bytes.NewReader(data), googleapi.ContentType(meta.MimeType))
	}

	f, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("drive create %q: %w", meta.Name, err)
	}
	return &File{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Parents:     meta.Parents,
		WebViewLink: f.WebViewLink,
	}, nil
}

func (s *Service) ShareWithAnyone(ctx context.Context, fileID string) error {
	_, err := s.svc.Permissions.Create(fileID, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("drive share %s: %w", fileID, err)
	}
	return nil
}
