package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jetlex_app_go/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StorageProvider stores uploaded document blobs
type StorageProvider interface {
	Put(ctx context.Context, reader io.Reader, key string, contentType string, size int64) (*StorageResult, error)
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error) // reader, content-type, error
	GetSignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	Name() string
}

// StorageResult contains information about the stored blob
type StorageResult struct {
	Key      string
	FileName string
	FileSize int64
	MimeType string
}

// NewStorageFromConfig picks the object store when its credentials are set and
// reachable, otherwise the local filesystem under UploadDir
func NewStorageFromConfig(cfg *config.Config) StorageProvider {
	if !cfg.ObjectStorageConfigured() {
		log.Info().Str("component", "storage").Str("path", cfg.UploadDir).Msg("using local filesystem storage")
		return NewLocalStorage(cfg.UploadDir)
	}

	s3s, err := NewS3Storage(cfg)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err = s3s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s3s.bucket)})
	}
	if err != nil {
		log.Warn().Err(err).Str("component", "storage").Msg("object storage unavailable, falling back to local filesystem")
		return NewLocalStorage(cfg.UploadDir)
	}

	log.Info().Str("component", "storage").Str("bucket", s3s.bucket).Msg("using object storage")
	return s3s
}

// S3Storage stores blobs in an S3-compatible bucket (Cloudflare R2 by default)
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3Storage creates the object store client. An explicit endpoint wins over
// the R2 account endpoint.
func NewS3Storage(cfg *config.Config) (*S3Storage, error) {
	endpoint := cfg.StorageEndpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(cfg.StorageRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.R2BucketName,
	}, nil
}

func (s *S3Storage) Name() string { return "s3" }

// Put uploads content to the bucket
func (s *S3Storage) Put(ctx context.Context, reader io.Reader, key string, contentType string, size int64) (*StorageResult, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, DependencyFailure("object storage", err)
	}
	return &StorageResult{Key: key, FileName: filepath.Base(key), FileSize: size, MimeType: contentType}, nil
}

// Delete removes an object
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return DependencyFailure("object storage", err)
	}
	return nil
}

// Get opens an object for reading
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", DependencyFailure("object storage", err)
	}
	contentType := "application/octet-stream"
	if result.ContentType != nil {
		contentType = *result.ContentType
	}
	return result.Body, contentType, nil
}

// GetSignedURL generates a presigned download URL
func (s *S3Storage) GetSignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", DependencyFailure("object storage", err)
	}
	return req.URL, nil
}

// LocalStorage stores blobs below a base directory
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a filesystem store
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

func (l *LocalStorage) Name() string { return "local" }

// resolve maps a key to a path and refuses keys escaping the base directory
func (l *LocalStorage) resolve(key string) (string, error) {
	base, err := filepath.Abs(l.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	full, err := filepath.Abs(filepath.Join(l.baseDir, key))
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", Validation("ruta", "invalid storage key")
	}
	return full, nil
}

// Put writes content to disk
func (l *LocalStorage) Put(ctx context.Context, reader io.Reader, key string, contentType string, size int64) (*StorageResult, error) {
	fullPath, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	return &StorageResult{Key: key, FileName: filepath.Base(key), FileSize: written, MimeType: contentType}, nil
}

// Delete removes a file, ignoring files already gone
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Get opens a file for reading
func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	fullPath, err := l.resolve(key)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", NotFound("file")
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(key)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

// GetSignedURL for local storage is the API download route, handled by the caller
func (l *LocalStorage) GetSignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return "", nil
}

// GenerateStorageKey creates a unique storage key for files
func GenerateStorageKey(prefix string, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	filename := fmt.Sprintf("%s_%d%s", uuid.New().String(), time.Now().Unix(), ext)
	return prefix + "/" + filename
}

// GenerateCaseDocumentKey creates a storage key for case documents
func GenerateCaseDocumentKey(caseID, originalFilename string) string {
	return GenerateStorageKey("expedientes/"+caseID, originalFilename)
}
