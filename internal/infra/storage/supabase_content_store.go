package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"quickscreen/internal/domain/ports/adapter"
)

// Ensure interface compliance:
var _ adapter.ContentStore = (*SupabaseContentStore)(nil)

// SupabaseContentStore writes answer clips into a Supabase Storage bucket
// and returns the public object URL. The pinned supabase-go SDK covers
// table access but not object upload, so the write goes straight to the
// documented storage endpoint (POST /storage/v1/object/{bucket}/{path}).
type SupabaseContentStore struct {
	baseURL string
	apiKey  string
	bucket  string
	http    *http.Client
	log     *zerolog.Logger
}

func NewSupabaseContentStore(baseURL, apiKey, bucket string, logger *zerolog.Logger) (*SupabaseContentStore, error) {
	if baseURL == "" || apiKey == "" || bucket == "" {
		return nil, fmt.Errorf("supabase url, key and bucket are required")
	}
	l := logger.With().Str("component", "SupabaseContentStore").Str("bucket", bucket).Logger()
	return &SupabaseContentStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     &l,
	}, nil
}

func (s *SupabaseContentStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Content-Type", contentType)
	// Repeated attempts use fresh timestamped paths, so upsert stays off.
	req.Header.Set("x-upsert", "false")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage put: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("storage put: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	ref := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, escapePath(path))
	s.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("object stored")
	return ref, nil
}

// escapePath escapes each segment while keeping the separators.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
