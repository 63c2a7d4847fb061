package assets

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store — внешнее хранилище изображений меню. Сервис не хостит файлы сам:
// загрузка и удаление делегируются стороннему хранилищу по HTTP.
type Store interface {
	// Upload сохраняет объект и возвращает его публичный URL.
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	// Delete удаляет объект по его публичному URL.
	Delete(ctx context.Context, objectURL string) error
}

// HTTPStore — клиент хранилища с простым PUT/DELETE-протоколом.
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upload кладет объект под случайным ключом. Ключ генерируется на стороне
// клиента, поэтому коллизии исключены без обращения к хранилищу.
func (s *HTTPStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	objectURL := fmt.Sprintf("%s/objects/%s", s.baseURL, uuid.NewString())

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, objectURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("asset store returned status %d", resp.StatusCode)
	}
	return objectURL, nil
}

func (s *HTTPStore) Delete(ctx context.Context, objectURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, objectURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("asset store returned status %d", resp.StatusCode)
	}
	return nil
}
