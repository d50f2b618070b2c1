// Package notion creates one database page per submission.
package notion

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jomei/notionapi"

	"invoice-intake/internal/common/config"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/sinks"
)

type pageAPI interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type databaseAPI interface {
	Get(ctx context.Context, id notionapi.DatabaseID) (*notionapi.Database, error)
}

type Creator struct {
	pages      pageAPI
	databases  databaseAPI
	databaseID notionapi.DatabaseID
	status     string
	logger     logger.Logger
}

// New connects to Notion with the integration token. httpClient may be nil.
func New(cfg config.NotionConfig, httpClient *http.Client, log logger.Logger) *Creator {
	var opts []notionapi.ClientOption
	if httpClient != nil {
		opts = append(opts, notionapi.WithHTTPClient(httpClient))
	}
	client := notionapi.NewClient(notionapi.Token(cfg.Token), opts...)
	return NewWithAPI(client.Page, client.Database, cfg.DatabaseID, cfg.Status, log)
}

func NewWithAPI(pages pageAPI, databases databaseAPI, databaseID, status string, log logger.Logger) *Creator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Creator{
		pages:      pages,
		databases:  databases,
		databaseID: notionapi.DatabaseID(databaseID),
		status:     status,
		logger:     log,
	}
}

func (c *Creator) Create(ctx context.Context, entry sinks.Entry) (*sinks.RecordRef, error) {
	page, err := c.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: Properties(entry, c.status),
	})
	if err != nil {
		return nil, fmt.Errorf("notion page create: %w", err)
	}

	ref := &sinks.RecordRef{ID: page.ID.String(), URL: page.URL}
	c.logger.Info("Created Notion page", map[string]interface{}{
		"pageId": ref.ID,
		"title":  entry.Record.InvoiceTitle(),
	})
	return ref, nil
}

// Check retrieves the target database. It returns the database title.
func (c *Creator) Check(ctx context.Context) (string, error) {
	db, err := c.databases.Get(ctx, c.databaseID)
	if err != nil {
		return "", fmt.Errorf("notion database %s: %w", c.databaseID, err)
	}
	title := ""
	for _, t := range db.Title {
		title += t.PlainText
	}
	return title, nil
}
