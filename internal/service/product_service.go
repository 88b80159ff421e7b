package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/storage"
)

// ErrProductNotFound indicates no product exists for the given id.
var ErrProductNotFound = errors.New("product not found")

// CreateProductInput carries a fully specified new product. Price and Stock are
// pointers so a missing field can be told apart from a zero value.
type CreateProductInput struct {
	Name        string
	Price       *float64
	Description string
	ImageURL    string
	Category    string
	Sizes       []string
	Stock       *int
	Images      []storage.File
}

// UpdateProductInput is a partial patch: only non-nil fields are applied.
// Newly uploaded Images replace the stored image list wholesale.
type UpdateProductInput struct {
	Name           *string
	Price          *float64
	Description    *string
	ImageURL       *string
	Category       *string
	Sizes          *[]string
	Stock          *int
	Images         []storage.File
	ImagesToDelete []string
}

// ProductService coordinates catalog persistence with the media host.
type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, patch UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	products repository.ProductRepository
	media    storage.Service
	folder   string
	logger   *logrus.Logger
}

func NewProductService(products repository.ProductRepository, media storage.Service, folder string, logger *logrus.Logger) ProductService {
	return &productService{
		products: products,
		media:    media,
		folder:   folder,
		logger:   logger,
	}
}

func (s *productService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.products.List(ctx, filter)
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var uploaded []domain.UploadedImage
	if len(input.Images) > 0 {
		var err error
		uploaded, err = s.media.UploadBatch(ctx, input.Images, s.folder)
		if err != nil {
			return nil, fmt.Errorf("upload product images: %w", err)
		}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Price:       *input.Price,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Images:      []string{},
		Category:    input.Category,
		Sizes:       input.Sizes,
		Stock:       *input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Sizes == nil {
		product.Sizes = []string{}
	}
	for _, image := range uploaded {
		product.Images = append(product.Images, image.SecureURL)
	}
	if len(uploaded) > 0 {
		product.ImageURL = uploaded[0].SecureURL
	}

	if err := s.products.Create(ctx, product); err != nil {
		// do not leave media attributed to a product that was never written
		s.releaseUploads(ctx, uploaded)
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, id string, patch UpdateProductInput) (*domain.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
		}
		product.Price = *patch.Price
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.Sizes != nil {
		product.Sizes = *patch.Sizes
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
		}
		product.Stock = *patch.Stock
	}

	if len(patch.Images) > 0 {
		uploaded, err := s.media.UploadBatch(ctx, patch.Images, s.folder)
		if err != nil {
			return nil, fmt.Errorf("upload product images: %w", err)
		}
		urls := make([]string, 0, len(uploaded))
		for _, image := range uploaded {
			urls = append(urls, image.SecureURL)
		}
		product.Images = urls
		product.ImageURL = uploaded[0].SecureURL
	}

	for _, publicID := range patch.ImagesToDelete {
		if !s.media.Delete(ctx, publicID) {
			s.logger.Warnf("delete media %s: host did not confirm removal", publicID)
		}
	}

	product.UpdatedAt = time.Now().UTC()
	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	// release media first, best-effort: a flaky host must not block the delete
	for _, url := range productImageURLs(product) {
		publicID, ok := storage.ExtractPublicID(url)
		if !ok {
			continue
		}
		if !s.media.Delete(ctx, publicID) {
			s.logger.Warnf("delete media %s: host did not confirm removal", publicID)
		}
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *productService) releaseUploads(ctx context.Context, uploaded []domain.UploadedImage) {
	for _, image := range uploaded {
		if !s.media.Delete(ctx, image.PublicID) {
			s.logger.Warnf("release media %s: host did not confirm removal", image.PublicID)
		}
	}
}

func validateCreateInput(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Price == nil {
		return fmt.Errorf("%w: price is required", ErrInvalidInput)
	}
	if *input.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if input.Stock == nil {
		return fmt.Errorf("%w: stock is required", ErrInvalidInput)
	}
	if *input.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	return nil
}

func productImageURLs(product *domain.Product) []string {
	urls := make([]string, 0, len(product.Images)+1)
	seen := make(map[string]struct{})
	add := func(url string) {
		if url == "" {
			return
		}
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	for _, url := range product.Images {
		add(url)
	}
	add(product.ImageURL)
	return urls
}
