package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/filestore"
	"github.com/xxxsen/issuetracker/internal/pkg/response"
)

const (
	defaultMaxUploadBytes = 10 * 1024 * 1024
	// room for multipart boundaries and part headers on top of the file cap
	multipartOverheadBytes = 64 * 1024
)

type FileHandler struct {
	store    filestore.Store
	baseURL  string
	maxBytes int64
}

type UploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

func NewFileHandler(store filestore.Store, baseURL string, maxBytes int64) *FileHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &FileHandler{store: store, baseURL: baseURL, maxBytes: maxBytes}
}

func (h *FileHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverheadBytes)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, "file is too large, limit "+formatUploadLimit(h.maxBytes))
			return
		}
		badRequest(c, "file is required")
		return
	}
	if file.Size > h.maxBytes {
		badRequest(c, "file is too large, limit "+formatUploadLimit(h.maxBytes))
		return
	}
	opened, err := file.Open()
	if err != nil {
		badRequest(c, "failed to open file")
		return
	}
	defer opened.Close()

	contentType, err := sniffContentType(opened)
	if err != nil {
		badRequest(c, "failed to read file")
		return
	}
	key := buildFileKey(getUserID(c), file.Filename)
	if err := h.store.Save(c.Request.Context(), key, opened, file.Size, contentType); err != nil {
		handleError(c, err)
		return
	}
	logutil.GetLogger(c.Request.Context()).Info("attachment uploaded",
		zap.String("user_id", getUserID(c)),
		zap.String("key", key),
		zap.Int64("size", file.Size),
	)
	baseURL := h.baseURL
	if baseURL == "" {
		baseURL = requestBaseURL(c)
	}
	response.Success(c, "Attachment uploaded", UploadResponse{
		URL:         h.store.URL(key, baseURL),
		Key:         key,
		Name:        file.Filename,
		ContentType: contentType,
		Size:        file.Size,
	})
}

func (h *FileHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if !filestore.ValidKey(key) {
		response.Error(c, http.StatusBadRequest, "invalid file key")
		return
	}
	file, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if !errors.Is(err, filestore.ErrNotSupported) {
			logutil.GetLogger(c.Request.Context()).Debug("open attachment failed", zap.String("key", key), zap.Error(err))
		}
		response.Error(c, http.StatusNotFound, "file not found")
		return
	}
	defer file.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

func requestBaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		if c.Request.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}

func sniffContentType(file io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	read, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:read]), nil
}

func buildFileKey(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if strings.ContainsAny(ext, "/\\ ") || len(ext) > 16 {
		ext = ""
	}
	base := randomHex(8)
	if userID != "" {
		base = userID + "_" + base
	}
	return base + ext
}

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}

func randomHex(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
