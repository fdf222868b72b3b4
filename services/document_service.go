package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"jetlex_app_go/models"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MaxUploadSize is the largest accepted document
const MaxUploadSize = 10 * 1024 * 1024

// allowedDocumentTypes maps accepted extensions to their canonical MIME type
var allowedDocumentTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var fileNamePolicy = bluemonday.StrictPolicy()

// DocumentUpload is an incoming file
type DocumentUpload struct {
	FileName string
	Size     int64
	Category string
	Content  io.Reader
}

// ValidateDocumentUpload checks extension, size and, for images and PDFs, the content signature
func ValidateDocumentUpload(fileName string, size int64, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	mimeType, ok := allowedDocumentTypes[ext]
	if !ok {
		return "", Validation("archivo", "file type not allowed")
	}
	if size <= 0 {
		return "", Validation("archivo", "file is empty")
	}
	if size > MaxUploadSize {
		return "", Validation("archivo", "file size exceeds maximum allowed size of 10MB")
	}

	detected := http.DetectContentType(head)
	switch ext {
	case ".pdf":
		if !bytes.HasPrefix(head, []byte("%PDF")) {
			return "", Validation("archivo", "file is not a valid PDF")
		}
	case ".jpg", ".jpeg", ".png", ".gif":
		if !strings.HasPrefix(detected, "image/") {
			return "", Validation("archivo", "file is not a valid image")
		}
	}
	return mimeType, nil
}

// sanitizeFileName strips markup and path components from a client-supplied name
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(fileNamePolicy.Sanitize(name))
	if name == "" || name == "." || name == "/" {
		return "documento"
	}
	return name
}

// UploadCaseDocument validates a file, stores it and records it against the case
func UploadCaseDocument(ctx context.Context, db *gorm.DB, storage StorageProvider, caseID string, uploader *models.User, upload DocumentUpload) (*models.Document, error) {
	var c models.Case
	if err := db.Select("id").First(&c, "id = ?", caseID).Error; err != nil {
		return nil, translateDBError(err, "case")
	}

	category := upload.Category
	if category == "" {
		category = models.DocumentCategoryOtros
	}
	if !models.IsValidDocumentCategory(category) {
		return nil, Validation("categoria", "invalid document category")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(upload.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	head = head[:n]

	mimeType, err := ValidateDocumentUpload(upload.FileName, upload.Size, head)
	if err != nil {
		return nil, err
	}

	originalName := sanitizeFileName(upload.FileName)
	key := GenerateCaseDocumentKey(caseID, originalName)
	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(upload.Content, MaxUploadSize-int64(n)))

	stored, err := storage.Put(ctx, body, key, mimeType, upload.Size)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		CaseID:       caseID,
		FileName:     stored.FileName,
		OriginalName: originalName,
		MimeType:     mimeType,
		FileSize:     stored.FileSize,
		StorageKey:   stored.Key,
		UploadedByID: uploader.ID,
		Category:     category,
	}
	if err := db.Create(doc).Error; err != nil {
		if delErr := storage.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("component", "documents").Str("key", key).Msg("failed to clean up orphaned blob")
		}
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}
	return doc, nil
}

// ListCaseDocuments returns the documents of a case, newest first
func ListCaseDocuments(db *gorm.DB, caseID string) ([]models.Document, error) {
	var docs []models.Document
	err := db.Preload("UploadedBy").
		Where("expediente_id = ?", caseID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// GetDocumentByID loads a document record
func GetDocumentByID(db *gorm.DB, id string) (*models.Document, error) {
	var doc models.Document
	if err := db.First(&doc, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "document")
	}
	return &doc, nil
}

// OpenDocument returns a reader over the stored blob
func OpenDocument(ctx context.Context, db *gorm.DB, storage StorageProvider, id string) (*models.Document, io.ReadCloser, error) {
	doc, err := GetDocumentByID(db, id)
	if err != nil {
		return nil, nil, err
	}
	reader, _, err := storage.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return doc, reader, nil
}

// DeleteDocument removes the record and its blob
func DeleteDocument(ctx context.Context, db *gorm.DB, storage StorageProvider, id string) (*models.Document, error) {
	doc, err := GetDocumentByID(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Delete(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}
	if err := storage.Delete(ctx, doc.StorageKey); err != nil {
		log.Warn().Err(err).Str("component", "documents").Str("key", doc.StorageKey).Msg("failed to delete blob")
	}
	return doc, nil
}
