package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *FilesClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("FILES_BACKEND_URL", server.URL)
	return NewFilesClient(testLogger())
}

func TestUploadProductImage(t *testing.T) {
	var gotPath, gotAuth, gotFileName string
	var gotBody []byte

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename
		gotBody, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"fileUrl":"https://files.example.com/stored.png"}}`))
	})

	uploaded, err := client.UploadProductImage(context.Background(),
		"7f0d8c1e-0000-0000-0000-000000000001", "embedded-row2-col8.png", "image/png",
		[]byte("png-bytes"), "Bearer secret")
	require.NoError(t, err)

	assert.Equal(t, "/v1/products/7f0d8c1e-0000-0000-0000-000000000001/image", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "embedded-row2-col8.png", gotFileName)
	assert.Equal(t, []byte("png-bytes"), gotBody)
	assert.Equal(t, "https://files.example.com/stored.png", uploaded.URL)
	assert.Equal(t, "embedded-row2-col8.png", uploaded.FileName)
}

func TestUploadProductImageUsesStoredFileName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"fileUrl":"https://files.example.com/a1b2c3.png","fileName":"a1b2c3.png"}}`))
	})

	uploaded, err := client.UploadProductImage(context.Background(), "p1",
		"embedded-row2-col8.png", "image/png", []byte("png-bytes"), "")
	require.NoError(t, err)

	// The backend renamed the file; deletes must reference its name.
	assert.Equal(t, "a1b2c3.png", uploaded.FileName)
	assert.Equal(t, "https://files.example.com/a1b2c3.png", uploaded.URL)
}

func TestUploadProductImageTopLevelURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"https://files.example.com/top.png"}`))
	})

	uploaded, err := client.UploadProductImage(context.Background(), "p1", "f.png", "image/png", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/top.png", uploaded.URL)
}

func TestUploadProductImageBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.UploadProductImage(context.Background(), "p1", "f.png", "image/png", nil, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestUploadProductImageMissingURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	})

	_, err := client.UploadProductImage(context.Background(), "p1", "f.png", "image/png", nil, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no file URL")
}

func TestUploadProductImageUnconfigured(t *testing.T) {
	t.Setenv("FILES_BACKEND_URL", "")
	client := NewFilesClient(testLogger())

	_, err := client.UploadProductImage(context.Background(), "p1", "f.png", "image/png", nil, "")
	assert.Error(t, err)
}

func TestDeleteProductImage(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.DeleteProductImage(context.Background(), "stored.png", "Bearer secret")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v1/files/stored.png", gotPath)
}
