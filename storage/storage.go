package storage

import (
	"errors"
	"io"

	"vendor-inventory-import/conf"
)

// Storage archive of raw uploaded files
type Storage interface {
	Save(key string, data []byte) error
	Get(key string) ([]byte, error)
	Open(key string) (io.ReadCloser, error) // Streams the object, caller closes
	Delete(key string) error
	Exists(key string) bool
}

var (
	ErrNotFound   = errors.New("file not found")
	ErrInvalid    = errors.New("invalid storage configuration")
	ErrInvalidKey = errors.New("invalid storage key")
)

// NewStorage create storage instance by configuration
func NewStorage() (Storage, error) {
	storageType := conf.Cfg.Storage.Type

	switch storageType {
	case "local":
		return NewLocalStorage(conf.Cfg.Storage.Local.BasePath)
	case "oss":
		return NewOSSStorage(conf.Cfg.Storage.OSS.Endpoint, conf.Cfg.Storage.OSS.AccessKey,
			conf.Cfg.Storage.OSS.SecretKey, conf.Cfg.Storage.OSS.Bucket)
	case "s3":
		return NewS3Storage(conf.Cfg.Storage.S3.Region, conf.Cfg.Storage.S3.Endpoint,
			conf.Cfg.Storage.S3.AccessKey, conf.Cfg.Storage.S3.SecretKey, conf.Cfg.Storage.S3.Bucket)
	case "minio":
		return NewMinIOStorage(conf.Cfg.Storage.MinIO.Endpoint, conf.Cfg.Storage.MinIO.AccessKey,
			conf.Cfg.Storage.MinIO.SecretKey, conf.Cfg.Storage.MinIO.Bucket)
	default:
		conf.Log.WithField("type", storageType).Warn("Unknown storage type, using local storage")
		return NewLocalStorage(conf.Cfg.Storage.Local.BasePath)
	}
}
