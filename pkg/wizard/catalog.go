package wizard

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/botslatam/admin-engine/pkg/models"
)

// CreateNewTableKey identifies the synthetic "create new table" catalog
// option appended after the real tables.
const CreateNewTableKey = "__create_new__"

// CatalogOption is one selectable destination in the catalog.
type CatalogOption struct {
	Key        string
	Descriptor models.TableDescriptor
}

// TableCatalog caches the destination tables known to the server.
type TableCatalog struct {
	client *Client
	logger *zap.Logger
	tables map[string]models.TableDescriptor
}

// NewTableCatalog creates an empty catalog backed by the given client.
func NewTableCatalog(client *Client, logger *zap.Logger) *TableCatalog {
	return &TableCatalog{
		client: client,
		logger: logger,
		tables: map[string]models.TableDescriptor{},
	}
}

// Refresh replaces the catalog wholesale from the server. A failure is
// logged and leaves the prior catalog untouched; the wizard stays usable
// with whatever options it already had.
func (c *TableCatalog) Refresh(ctx context.Context) {
	tables, err := c.client.Tables(ctx)
	if err != nil {
		c.logger.Warn("Failed to refresh table catalog", zap.Error(err))
		return
	}
	c.tables = tables
}

// Get returns the descriptor for the given table key.
func (c *TableCatalog) Get(key string) (models.TableDescriptor, bool) {
	desc, ok := c.tables[key]
	return desc, ok
}

// Options returns the catalog entries sorted by key, with the synthetic
// "create new table" option appended last.
func (c *TableCatalog) Options() []CatalogOption {
	keys := make([]string, 0, len(c.tables))
	for key := range c.tables {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	options := make([]CatalogOption, 0, len(keys)+1)
	for _, key := range keys {
		options = append(options, CatalogOption{Key: key, Descriptor: c.tables[key]})
	}
	options = append(options, CatalogOption{
		Key:        CreateNewTableKey,
		Descriptor: models.TableDescriptor{DisplayName: "Crear nueva tabla"},
	})
	return options
}
