package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/importer"
	"catalog-service/internal/metrics"
)

const defaultFilesTimeout = 15 * time.Second

// FilesClient talks to the file-storage backend that owns durable image URLs.
type FilesClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewFilesClient builds a client from FILES_BACKEND_URL and
// FILES_BACKEND_TIMEOUT_MS.
func NewFilesClient(logger *logrus.Logger) *FilesClient {
	timeout := defaultFilesTimeout
	if raw := os.Getenv("FILES_BACKEND_TIMEOUT_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	return &FilesClient{
		baseURL:    os.Getenv("FILES_BACKEND_URL"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// uploadResponse covers the response shapes the files backend has been seen
// to return; the first non-empty URL wins.
type uploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Data     struct {
		URL       string `json:"url"`
		FileURL   string `json:"fileUrl"`
		FileURL2  string `json:"file_url"`
		FileName  string `json:"fileName"`
		FileName2 string `json:"file_name"`
	} `json:"data"`
}

func (r *uploadResponse) firstURL() string {
	for _, candidate := range []string{r.URL, r.Data.URL, r.Data.FileURL, r.Data.FileURL2} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func (r *uploadResponse) firstFileName() string {
	for _, candidate := range []string{r.FileName, r.Data.FileName, r.Data.FileName2} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// UploadProductImage pushes one image payload as multipart form data and
// returns the durable URL the backend assigned. The caller's authorization
// header is forwarded verbatim.
func (c *FilesClient) UploadProductImage(ctx context.Context, productID, fileName, mimeType string, data []byte, authorization string) (*importer.UploadedImage, error) {
	if c.baseURL == "" {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("files backend is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/products/%s/image", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("files backend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		c.logger.WithFields(logrus.Fields{
			"status":    resp.StatusCode,
			"productId": productID,
		}).Error("Files backend rejected image upload")
		return nil, fmt.Errorf("files backend returned status %d", resp.StatusCode)
	}

	var decoded uploadResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("files backend returned an unreadable response: %w", err)
	}

	durableURL := decoded.firstURL()
	if durableURL == "" {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("files backend response carried no file URL")
	}

	// The backend may rename the file on storage; its name is the one a later
	// delete has to reference. Fall back to the sent name when absent.
	storedName := decoded.firstFileName()
	if storedName == "" {
		storedName = fileName
	}

	metrics.ImageUploads.WithLabelValues("ok").Inc()
	return &importer.UploadedImage{URL: durableURL, FileName: storedName}, nil
}

// DeleteProductImage asks the files backend to remove a stored file. Best
// effort; callers treat failures as advisory.
func (c *FilesClient) DeleteProductImage(ctx context.Context, fileName, authorization string) error {
	if c.baseURL == "" {
		return fmt.Errorf("files backend is not configured")
	}

	url := fmt.Sprintf("%s/v1/files/%s", c.baseURL, fileName)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("files backend returned status %d", resp.StatusCode)
	}
	return nil
}
