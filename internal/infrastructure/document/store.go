package document

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
)

// PublicPrefix: URL-префикс, под которым роутер раздаёт каталог документов.
const PublicPrefix = "/documents"

// FileStore хранит подписываемые PDF на диске.
type FileStore struct {
	rootPath      string
	publicBaseURL string
}

func NewFileStore(rootPath, publicBaseURL string) (*FileStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &FileStore{rootPath: rootPath, publicBaseURL: publicBaseURL}, nil
}

func (s *FileStore) Root() string {
	return s.rootPath
}

var _ repository.DocumentStore = (*FileStore)(nil)

// Save проверяет по сигнатуре, что это PDF, и атомарно записывает файл.
// Имя включает префикс хэша, поэтому повторный рендер не перетирает прежнюю версию.
func (s *FileStore) Save(ctx context.Context, contractID uuid.UUID, doc *repository.RenderedDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	kind, err := filetype.Match(doc.Binary)
	if err != nil || kind.MIME.Value != "application/pdf" {
		return "", fmt.Errorf("storage: документ не является PDF (%s)", kind.MIME.Value)
	}

	hashPrefix := doc.Hash
	if len(hashPrefix) > 12 {
		hashPrefix = hashPrefix[:12]
	}
	fileName := fmt.Sprintf("contract_%s.%s", hashPrefix, kind.Extension)

	dir := filepath.Join(s.rootPath, contractID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог контракта: %w", err)
	}

	target := filepath.Join(dir, fileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, doc.Binary, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return s.publicBaseURL + path.Join(PublicPrefix, contractID.String(), fileName), nil
}
