package storage

import "h1b-scraper/models"

// DatasetWriter is the interface any storage backend must satisfy.
type DatasetWriter interface {
	Write(ds *models.Dataset) error
	Close() error
}
