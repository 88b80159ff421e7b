package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-api/internal/service"
	"catalog-api/internal/storage"
)

func (h *Handler) uploadImage(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	files, err := readMultipartFiles(form.File["file"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File is required"})
		return
	}

	folder := formValue(form, "folder")
	if folder == "" {
		folder = h.mediaFolder
	}

	image, err := h.media.Upload(c.Request.Context(), files[0], folder, formValue(form, "publicId"))
	if err != nil {
		h.logger.Errorf("upload image: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "image": image})
}

func (h *Handler) uploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	files, err := readMultipartFiles(form.File["files"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "At least one file is required"})
		return
	}

	folder := formValue(form, "folder")
	if folder == "" {
		folder = h.mediaFolder
	}

	images, err := h.media.UploadBatch(c.Request.Context(), files, folder)
	if err != nil {
		h.logger.Errorf("upload images: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "images": images})
}

func (h *Handler) deleteImage(c *gin.Context) {
	publicID := strings.TrimPrefix(c.Param("publicId"), "/")
	if publicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Public id is required"})
		return
	}

	if !h.media.Delete(c.Request.Context(), publicID) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Image not found or delete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image deleted successfully"})
}

// bindCreateInput accepts either a multipart form (numeric fields arrive as
// strings and sizes comma-separated) or a plain JSON body without files.
func bindCreateInput(c *gin.Context) (service.CreateProductInput, error) {
	if !isMultipart(c) {
		var req struct {
			Name        string   `json:"name"`
			Price       *float64 `json:"price"`
			Description string   `json:"description"`
			ImageURL    string   `json:"imageUrl"`
			Category    string   `json:"category"`
			Sizes       []string `json:"sizes"`
			Stock       *int     `json:"stock"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return service.CreateProductInput{}, err
		}
		return service.CreateProductInput{
			Name:        req.Name,
			Price:       req.Price,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Category:    req.Category,
			Sizes:       req.Sizes,
			Stock:       req.Stock,
		}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return service.CreateProductInput{}, err
	}

	input := service.CreateProductInput{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
		ImageURL:    formValue(form, "imageUrl"),
		Category:    formValue(form, "category"),
	}

	if raw, ok := firstValue(form, "price"); ok {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return service.CreateProductInput{}, fmt.Errorf("price must be a number")
		}
		input.Price = &price
	}
	if raw, ok := firstValue(form, "stock"); ok {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return service.CreateProductInput{}, fmt.Errorf("stock must be an integer")
		}
		input.Stock = &stock
	}
	if raw, ok := firstValue(form, "sizes"); ok {
		input.Sizes = splitList(raw)
	}

	if input.Images, err = readMultipartFiles(form.File["images"]); err != nil {
		return service.CreateProductInput{}, err
	}
	return input, nil
}

// bindUpdateInput builds a partial patch: only fields present in the request
// are set, so unsupplied ones stay untouched.
func bindUpdateInput(c *gin.Context) (service.UpdateProductInput, error) {
	if !isMultipart(c) {
		var req struct {
			Name           *string   `json:"name"`
			Price          *float64  `json:"price"`
			Description    *string   `json:"description"`
			ImageURL       *string   `json:"imageUrl"`
			Category       *string   `json:"category"`
			Sizes          *[]string `json:"sizes"`
			Stock          *int      `json:"stock"`
			ImagesToDelete []string  `json:"imagesToDelete"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return service.UpdateProductInput{}, err
		}
		return service.UpdateProductInput{
			Name:           req.Name,
			Price:          req.Price,
			Description:    req.Description,
			ImageURL:       req.ImageURL,
			Category:       req.Category,
			Sizes:          req.Sizes,
			Stock:          req.Stock,
			ImagesToDelete: req.ImagesToDelete,
		}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return service.UpdateProductInput{}, err
	}

	var patch service.UpdateProductInput
	if raw, ok := firstValue(form, "name"); ok {
		patch.Name = &raw
	}
	if raw, ok := firstValue(form, "price"); ok {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return service.UpdateProductInput{}, fmt.Errorf("price must be a number")
		}
		patch.Price = &price
	}
	if raw, ok := firstValue(form, "description"); ok {
		patch.Description = &raw
	}
	if raw, ok := firstValue(form, "imageUrl"); ok {
		patch.ImageURL = &raw
	}
	if raw, ok := firstValue(form, "category"); ok {
		patch.Category = &raw
	}
	if raw, ok := firstValue(form, "sizes"); ok {
		sizes := splitList(raw)
		patch.Sizes = &sizes
	}
	if raw, ok := firstValue(form, "stock"); ok {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return service.UpdateProductInput{}, fmt.Errorf("stock must be an integer")
		}
		patch.Stock = &stock
	}
	if raw, ok := firstValue(form, "imagesToDelete"); ok {
		patch.ImagesToDelete = splitList(raw)
	}

	if patch.Images, err = readMultipartFiles(form.File["images"]); err != nil {
		return service.UpdateProductInput{}, err
	}
	return patch, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func formValue(form *multipart.Form, key string) string {
	value, _ := firstValue(form, key)
	return value
}

func firstValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

// splitList turns "S, M,L" into ["S" "M" "L"]; empty input yields an empty slice.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func readMultipartFiles(headers []*multipart.FileHeader) ([]storage.File, error) {
	var files []storage.File
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(f)
		closeErr := f.Close()
		if err != nil {
			return nil, fmt.Errorf("read uploaded file %s: %w", header.Filename, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("close uploaded file %s: %w", header.Filename, closeErr)
		}
		files = append(files, storage.File{Name: header.Filename, Data: data})
	}
	return files, nil
}
