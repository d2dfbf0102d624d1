package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/config"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// allowedUploadTypes maps accepted content types to their stored extension.
// FILE fields carry customer artwork, so only common print formats pass.
var allowedUploadTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/svg+xml":   "svg",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// UploadService stores FILE field uploads in S3 using AWS Signature V4.
type UploadService struct {
	bucket          string
	region          string
	accessKeyID     string
	secretAccessKey string
	maxBytes        int64
}

// NewUploadService creates a new upload service. It fails when the bucket or
// credentials are unset so the caller can run with uploads disabled.
func NewUploadService(cfg *config.S3Config) (*UploadService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("S3 config is nil")
	}
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("S3 uploads not configured: bucket and credentials are required")
	}
	return &UploadService{
		bucket:          cfg.Bucket,
		region:          cfg.Region,
		accessKeyID:     cfg.AccessKeyID,
		secretAccessKey: cfg.SecretAccessKey,
		maxBytes:        cfg.MaxUploadBytes,
	}, nil
}

// MaxBytes returns the configured per-file size cap.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// UploadFieldFile stores a shopper's file for a FILE field and returns its
// object URL. The key embeds the shop and field so uploads are traceable to
// the order they belong to.
func (s *UploadService) UploadFieldFile(ctx context.Context, shopID int, fieldKey, contentType string, data []byte) (string, error) {
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		return "", utils.ErrUploadType
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", utils.ErrUploadTooLarge
	}

	key := fmt.Sprintf("uploads/%d/%s/%s.%s", shopID, fieldKey, uuid.New().String(), ext)
	return s.putObject(ctx, key, data, contentType)
}

// putObject uploads an object using AWS Signature V4.
func (s *UploadService) putObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.accessKeyID == "" || s.secretAccessKey == "" {
		log.Warn().Str("key", key).Msg("S3 credentials not configured - skipping upload")
		return s.ObjectURL(key), nil
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")
	payloadHash := sha256Hex(data)

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", fmt.Sprintf("%d", len(data)))
	req.Header.Set("Host", fmt.Sprintf("%s.s3.%s.amazonaws.com", s.bucket, s.region))
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	authorization := s.signRequest(req, payloadHash, amzDate, dateStamp)
	req.Header.Set("Authorization", authorization)

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to upload to S3")
		return "", fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		log.Error().
			Str("key", key).
			Int("status", resp.StatusCode).
			Str("response", string(body)).
			Msg("S3 upload failed")
		return "", fmt.Errorf("S3 upload failed: %s", string(body))
	}

	log.Info().Str("key", key).Msg("Successfully uploaded to S3")
	return s.ObjectURL(key), nil
}

// signRequest creates the AWS Signature V4 authorization header.
func (s *UploadService) signRequest(req *http.Request, payloadHash, amzDate, dateStamp string) string {
	service := "s3"

	canonicalURI := req.URL.Path
	if canonicalURI == "" {
		canonicalURI = "/"
	}
	canonicalQueryString := ""

	signedHeaders := []string{"content-type", "host", "x-amz-content-sha256", "x-amz-date"}
	sort.Strings(signedHeaders)

	var canonicalHeaders strings.Builder
	for _, h := range signedHeaders {
		canonicalHeaders.WriteString(strings.ToLower(h))
		canonicalHeaders.WriteString(":")
		canonicalHeaders.WriteString(strings.TrimSpace(req.Header.Get(h)))
		canonicalHeaders.WriteString("\n")
	}

	signedHeadersStr := strings.Join(signedHeaders, ";")

	canonicalRequest := fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		req.Method,
		canonicalURI,
		canonicalQueryString,
		canonicalHeaders.String(),
		signedHeadersStr,
		payloadHash,
	)

	algorithm := "AWS4-HMAC-SHA256"
	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, s.region, service)
	stringToSign := fmt.Sprintf("%s\n%s\n%s\n%s",
		algorithm,
		amzDate,
		credentialScope,
		sha256Hex([]byte(canonicalRequest)),
	)

	kDate := hmacSHA256([]byte("AWS4"+s.secretAccessKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(s.region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))

	signature := hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm,
		s.accessKeyID,
		credentialScope,
		signedHeadersStr,
		signature,
	)
}

// ObjectURL returns the URL for an S3 object.
func (s *UploadService) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func sha256Hex(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
