package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"calmateAPI/internal/apperrors"
)

// StorageService uploads meal photos to the hosted bucket over its HTTP API
// and hands back the public file URL. Like the vision call: one retry,
// fixed timeout, then an upstream failure.
type StorageService struct {
	endpoint  string
	projectID string
	apiKey    string
	bucketID  string
	client    *http.Client
}

func NewStorageService() *StorageService {
	return &StorageService{
		endpoint:  os.Getenv("STORAGE_ENDPOINT"),
		projectID: os.Getenv("STORAGE_PROJECT_ID"),
		apiKey:    os.Getenv("STORAGE_API_KEY"),
		bucketID:  os.Getenv("STORAGE_BUCKET_ID"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadImage stores the image under a fresh ID and returns its view URL.
func (s *StorageService) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	fileID := uuid.New().String()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			log.Printf("Storage: retrying upload after error: %v", lastErr)
			time.Sleep(time.Second)
		}

		url, err := s.doUpload(ctx, fileID, filename, data)
		if err == nil {
			return url, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("image upload failed: %v: %w", lastErr, apperrors.ErrUpstream)
}

func (s *StorageService) doUpload(ctx context.Context, fileID, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("fileId", fileID); err != nil {
		return "", err
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	uploadURL := fmt.Sprintf("%s/storage/buckets/%s/files", s.endpoint, s.bucketID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Storage-Project", s.projectID)
	req.Header.Set("X-Storage-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("storage API returned %d: %s", resp.StatusCode, snippet)
	}

	var created struct {
		ID string `json:"$id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode storage response: %w", err)
	}
	if created.ID == "" {
		created.ID = fileID
	}

	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s", s.endpoint, s.bucketID, created.ID, s.projectID), nil
}
