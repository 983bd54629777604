package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// VectorStores is the index-provider surface: uploaded files registered into
// vector stores in pollable batches, plus assistants bound to a store.
type VectorStores interface {
	UploadFile(ctx context.Context, filename string, content []byte) (string, error)
	CreateVectorStore(ctx context.Context, name string) (string, error)
	CreateAssistant(ctx context.Context, name string, instructions string, vectorStoreID string) (string, error)
	CreateFileBatch(ctx context.Context, vectorStoreID string, fileIDs []string) (FileBatch, error)
	GetFileBatch(ctx context.Context, vectorStoreID string, batchID string) (FileBatch, error)
	// DeleteVectorStoreFile detaches a file from a store. A file the store no
	// longer holds is not an error.
	DeleteVectorStoreFile(ctx context.Context, vectorStoreID string, fileID string) error
	// DeleteFile removes an uploaded file. A missing file is not an error.
	DeleteFile(ctx context.Context, fileID string) error
}

const (
	BatchStatusInProgress = "in_progress"
	BatchStatusCompleted  = "completed"
	BatchStatusFailed     = "failed"
	BatchStatusCancelled  = "cancelled"
)

type FileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

type FileBatch struct {
	ID            string     `json:"id"`
	VectorStoreID string     `json:"vector_store_id"`
	Status        string     `json:"status"`
	FileCounts    FileCounts `json:"file_counts"`
}

// Terminal reports whether the provider has finished with the batch.
func (b FileBatch) Terminal() bool {
	switch b.Status {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusCancelled:
		return true
	default:
		return false
	}
}

type idResponse struct {
	ID string `json:"id"`
}

func (c *APIClient) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", errors.New("filename required")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", "assistants"); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/v1/files", buf.Bytes(), w.FormDataContentType(), false, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", errors.New("file upload missing id")
	}
	return out.ID, nil
}

func (c *APIClient) CreateVectorStore(ctx context.Context, name string) (string, error) {
	var out idResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/vector_stores", map[string]any{"name": name}, true, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", errors.New("vector store create missing id")
	}
	return out.ID, nil
}

func (c *APIClient) CreateAssistant(ctx context.Context, name string, instructions string, vectorStoreID string) (string, error) {
	if strings.TrimSpace(vectorStoreID) == "" {
		return "", errors.New("vector store id required")
	}
	req := map[string]any{
		"model":        c.model,
		"name":         name,
		"instructions": instructions,
		"tools":        []map[string]any{{"type": "file_search"}},
		"tool_resources": map[string]any{
			"file_search": map[string]any{"vector_store_ids": []string{vectorStoreID}},
		},
	}
	var out idResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/assistants", req, true, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", errors.New("assistant create missing id")
	}
	return out.ID, nil
}

func (c *APIClient) CreateFileBatch(ctx context.Context, vectorStoreID string, fileIDs []string) (FileBatch, error) {
	var out FileBatch
	if strings.TrimSpace(vectorStoreID) == "" {
		return out, errors.New("vector store id required")
	}
	if len(fileIDs) == 0 {
		return out, errors.New("file ids required")
	}
	path := fmt.Sprintf("/v1/vector_stores/%s/file_batches", url.PathEscape(vectorStoreID))
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]any{"file_ids": fileIDs}, true, &out); err != nil {
		return out, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return out, errors.New("file batch create missing id")
	}
	return out, nil
}

func (c *APIClient) GetFileBatch(ctx context.Context, vectorStoreID string, batchID string) (FileBatch, error) {
	var out FileBatch
	if strings.TrimSpace(vectorStoreID) == "" || strings.TrimSpace(batchID) == "" {
		return out, errors.New("vector store id and batch id required")
	}
	path := fmt.Sprintf("/v1/vector_stores/%s/file_batches/%s", url.PathEscape(vectorStoreID), url.PathEscape(batchID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *APIClient) DeleteVectorStoreFile(ctx context.Context, vectorStoreID string, fileID string) error {
	if strings.TrimSpace(vectorStoreID) == "" || strings.TrimSpace(fileID) == "" {
		return errors.New("vector store id and file id required")
	}
	path := fmt.Sprintf("/v1/vector_stores/%s/files/%s", url.PathEscape(vectorStoreID), url.PathEscape(fileID))
	return ignoreNotFound(c.doJSON(ctx, http.MethodDelete, path, nil, true, nil))
}

func (c *APIClient) DeleteFile(ctx context.Context, fileID string) error {
	if strings.TrimSpace(fileID) == "" {
		return errors.New("file id required")
	}
	path := "/v1/files/" + url.PathEscape(fileID)
	return ignoreNotFound(c.doJSON(ctx, http.MethodDelete, path, nil, false, nil))
}

func ignoreNotFound(err error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}
