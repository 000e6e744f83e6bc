// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload sends documents and images to the backend for indexing.
//
// Files are gated by size and extension before any network call. Documents
// are POSTed as JSON to the indexing endpoint (binary formats base64
// encoded), images as a multipart form to the image endpoint.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/metrics"
	"github.com/jeranaias/ragchat/internal/params"
	"github.com/jeranaias/ragchat/internal/rag"
)

// =============================================================================
// FILE KINDS
// =============================================================================

// FileKind says how a file is sent.
type FileKind int

const (
	KindUnsupported FileKind = iota
	KindText                 // indexed as raw text
	KindBinary               // indexed as base64
	KindImage                // sent as multipart form
)

// String returns the kind name used in logs and metrics.
func (k FileKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindImage:
		return "image"
	default:
		return "unsupported"
	}
}

// Extension sets, lower case without the dot.
var (
	BinaryExtensions = []string{"pdf", "doc", "docx"}
	TextExtensions   = []string{"txt", "md"}
	ImageExtensions  = []string{"png", "jpg", "jpeg", "gif", "webp"}
)

// DefaultSizeLimit is the largest accepted file.
const DefaultSizeLimit int64 = 100 * 1024 * 1024

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnsupportedExtension rejects files of unknown type.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrFileTooLarge rejects files above the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Classify returns the kind of name by extension, or a *params.ValidationError
// wrapping ErrUnsupportedExtension.
func Classify(name string) (FileKind, string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return KindUnsupported, "", &params.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("Failed to get file extension from file %s.", filepath.Base(name)),
			Err:     ErrUnsupportedExtension,
		}
	}
	switch {
	case contains(BinaryExtensions, ext):
		return KindBinary, ext, nil
	case contains(TextExtensions, ext):
		return KindText, ext, nil
	case contains(ImageExtensions, ext):
		return KindImage, ext, nil
	}
	return KindUnsupported, ext, &params.ValidationError{
		Field:   "file",
		Message: fmt.Sprintf("Unsupported file extension %s.", ext),
		Err:     ErrUnsupportedExtension,
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func tooLarge(limit int64) error {
	return &params.ValidationError{
		Field:   "file",
		Message: fmt.Sprintf("File size exceeded. Limit is %d MB.", limit/1024/1024),
		Err:     ErrFileTooLarge,
	}
}

// =============================================================================
// UPLOADER
// =============================================================================

// Config configures an Uploader.
type Config struct {
	IndexURL  string
	ImageURL  string
	Timeout   time.Duration
	SizeLimit int64
	HTTP      *http.Client
}

// Uploader sends one file at a time.
type Uploader struct {
	cfg    Config
	params *params.Store
}

// IndexRequest is the JSON body of a document upload.
type IndexRequest struct {
	FileName  string `json:"fileName"`
	Content   string `json:"content"`
	IsBase64  bool   `json:"isBase64"`
	ModelName string `json:"modelName,omitempty"`
	APIKey    string `json:"apiKey,omitempty"`
}

// Result describes a completed upload.
type Result struct {
	FileName string
	Kind     FileKind
	Response []byte
}

// New creates an uploader. Zero config fields take their defaults.
func New(cfg Config, store *params.Store) *Uploader {
	if cfg.IndexURL == "" {
		cfg.IndexURL = rag.DefaultIndexURL
	}
	if cfg.ImageURL == "" {
		cfg.ImageURL = rag.DefaultImageURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = rag.DefaultTimeout
	}
	if cfg.SizeLimit <= 0 {
		cfg.SizeLimit = DefaultSizeLimit
	}
	if cfg.HTTP == nil {
		cfg.HTTP = rag.NewHTTPClient()
	}
	return &Uploader{cfg: cfg, params: store}
}

// UploadFile reads path from disk and uploads it.
func (u *Uploader) UploadFile(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, err
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("%s is a directory", path)
	}
	// Checked before the file is read.
	if info.Size() > u.cfg.SizeLimit {
		return Result{}, tooLarge(u.cfg.SizeLimit)
	}
	if _, _, err := Classify(path); err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return u.Upload(ctx, filepath.Base(path), data)
}

// Upload sends data under name. Size and extension are checked first, then
// the embedding model for documents; a rejection makes no network call.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte) (Result, error) {
	if int64(len(data)) > u.cfg.SizeLimit {
		return Result{}, tooLarge(u.cfg.SizeLimit)
	}
	kind, _, err := Classify(name)
	if err != nil {
		return Result{}, err
	}
	if kind != KindImage {
		if err := u.params.ValidateEmbed(); err != nil {
			return Result{}, err
		}
	}

	var resp []byte
	if kind == KindImage {
		resp, err = u.sendImage(ctx, name, data)
	} else {
		resp, err = u.sendDocument(ctx, name, kind, data)
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.Global().Uploads.WithLabelValues(kind.String(), result).Inc()
	if err != nil {
		log.Warn().Err(err).Str("file", name).Str("kind", kind.String()).Msg("upload failed")
		return Result{}, err
	}
	log.Info().Str("file", name).Str("kind", kind.String()).Int("bytes", len(data)).Msg("upload complete")
	return Result{FileName: name, Kind: kind, Response: resp}, nil
}

func (u *Uploader) sendDocument(ctx context.Context, name string, kind FileKind, data []byte) ([]byte, error) {
	embed := u.params.EmbedParams()

	req := IndexRequest{
		FileName:  name,
		Content:   string(data),
		ModelName: embed.Model,
		APIKey:    embed.APIKey,
	}
	if kind == KindBinary {
		req.Content = base64.StdEncoding.EncodeToString(data)
		req.IsBase64 = true
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal index request: %w", err)
	}
	return rag.FetchWithTimeout(ctx, u.cfg.HTTP, u.cfg.IndexURL, "application/json", body, u.cfg.Timeout)
}

func (u *Uploader) sendImage(ctx context.Context, name string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return rag.FetchWithTimeout(ctx, u.cfg.HTTP, u.cfg.ImageURL, mw.FormDataContentType(), buf.Bytes(), u.cfg.Timeout)
}
