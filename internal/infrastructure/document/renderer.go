package document

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
)

// HashHeader задаёт заголовок, в котором сервис рендеринга может вернуть хэш документа.
const HashHeader = "X-Document-Hash"

// HTTPRenderer вызывает внешний сервис рендеринга договоров.
type HTTPRenderer struct {
	baseURL    string
	maxBytes   int64
	httpClient *http.Client
}

func NewHTTPRenderer(baseURL string, timeout time.Duration, maxDocumentMB int64) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxBytes:   maxDocumentMB * 1024 * 1024,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ repository.DocumentRenderer = (*HTTPRenderer)(nil)

func (r *HTTPRenderer) Render(ctx context.Context, terms entity.ContractTerms) (*repository.RenderedDocument, error) {
	if r.baseURL == "" {
		return nil, fmt.Errorf("document: RENDERER_URL не задан")
	}

	body, err := json.Marshal(terms)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document: запрос к сервису рендеринга: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("document: код ответа %d", resp.StatusCode)
	}

	binary, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("document: чтение ответа: %w", err)
	}
	if int64(len(binary)) > r.maxBytes {
		return nil, fmt.Errorf("document: размер документа превышает лимит %d байт", r.maxBytes)
	}
	if len(binary) == 0 {
		return nil, fmt.Errorf("document: пустой документ")
	}

	hash := strings.TrimSpace(resp.Header.Get(HashHeader))
	if hash == "" {
		hash = Hash(binary)
	}

	return &repository.RenderedDocument{
		Binary:      binary,
		Hash:        hash,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Hash возвращает BLAKE2b-256 содержимого в hex.
func Hash(binary []byte) string {
	sum := blake2b.Sum256(binary)
	return hex.EncodeToString(sum[:])
}
