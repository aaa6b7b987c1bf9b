package storage

import (
	"context"
	"errors"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
}

// FileUploader — хранилище доказательств матчей (скриншотов результата).
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

var ErrUploadsDisabled = errors.New("file uploads are not configured")

// disabledUploader подставляется, когда R2 не сконфигурирован:
// загрузка отклоняется, чтение ссылок возвращает пустую строку.
type disabledUploader struct{}

func NewDisabledUploader() FileUploader {
	return disabledUploader{}
}

func (disabledUploader) Upload(context.Context, string, string, io.Reader) (*UploadResult, error) {
	return nil, ErrUploadsDisabled
}

func (disabledUploader) Delete(context.Context, string) error {
	return ErrUploadsDisabled
}

func (disabledUploader) GetPublicURL(string) string {
	return ""
}
