package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/storage"
)

type fakeProductRepo struct {
	products   []domain.Product
	failCreate error
}

func (f *fakeProductRepo) Init(ctx context.Context) error { return nil }

func (f *fakeProductRepo) Create(ctx context.Context, product *domain.Product) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	f.products = append(f.products, *product)
	return nil
}

func (f *fakeProductRepo) Update(ctx context.Context, product *domain.Product) error {
	for i := range f.products {
		if f.products[i].ID == product.ID {
			f.products[i] = *product
			return nil
		}
	}
	return fmt.Errorf("product %s: %w", product.ID, repository.ErrNotFound)
}

func (f *fakeProductRepo) Delete(ctx context.Context, id string) error {
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
}

func (f *fakeProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			found := f.products[i]
			return &found, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
}

func (f *fakeProductRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// fakeMedia mimics the all-or-nothing batch contract of the S3 adapter: a
// failing batch stores nothing.
type fakeMedia struct {
	stored        map[string]bool
	failBatch     bool
	confirmDelete bool
	deleteCalls   []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{stored: make(map[string]bool), confirmDelete: true}
}

func (f *fakeMedia) Upload(ctx context.Context, file storage.File, folder, publicID string) (domain.UploadedImage, error) {
	if publicID == "" {
		publicID = fmt.Sprintf("img_%d", len(f.stored))
	}
	if folder != "" && !strings.HasPrefix(publicID, folder+"/") {
		publicID = folder + "/" + publicID
	}
	f.stored[publicID] = true
	return domain.UploadedImage{
		URL:       fmt.Sprintf("http://media.test/shop/v1/%s.jpg", publicID),
		SecureURL: fmt.Sprintf("https://media.test/shop/v1/%s.jpg", publicID),
		PublicID:  publicID,
		Width:     100,
		Height:    80,
	}, nil
}

func (f *fakeMedia) UploadBatch(ctx context.Context, files []storage.File, folder string) ([]domain.UploadedImage, error) {
	if f.failBatch {
		return nil, errors.New("upload batch: second upload failed")
	}
	images := make([]domain.UploadedImage, 0, len(files))
	for i, file := range files {
		image, err := f.Upload(ctx, file, folder, fmt.Sprintf("product_%d_%d", time.Now().UnixMilli(), i))
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, nil
}

func (f *fakeMedia) Delete(ctx context.Context, publicID string) bool {
	f.deleteCalls = append(f.deleteCalls, publicID)
	if !f.confirmDelete {
		return false
	}
	if !f.stored[publicID] {
		return false
	}
	delete(f.stored, publicID)
	return true
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func newCatalog(repo *fakeProductRepo, media *fakeMedia) ProductService {
	return NewProductService(repo, media, "products", quietLogger())
}

func validCreateInput() CreateProductInput {
	return CreateProductInput{
		Name:        "Linen Shirt",
		Price:       floatPtr(39.9),
		Description: "Breathable summer shirt",
		Category:    "shirts",
		Sizes:       []string{"S", "M", "L"},
		Stock:       intPtr(12),
	}
}

func TestCreateRoundTrip(t *testing.T) {
	repo := &fakeProductRepo{}
	svc := newCatalog(repo, newFakeMedia())

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt", got.Name)
	assert.Equal(t, 39.9, got.Price)
	assert.Equal(t, "Breathable summer shirt", got.Description)
	assert.Equal(t, "shirts", got.Category)
	assert.Equal(t, []string{"S", "M", "L"}, got.Sizes)
	assert.Equal(t, 12, got.Stock)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestCreateValidation(t *testing.T) {
	svc := newCatalog(&fakeProductRepo{}, newFakeMedia())

	cases := []struct {
		name   string
		mutate func(*CreateProductInput)
	}{
		{"missing name", func(in *CreateProductInput) { in.Name = "" }},
		{"missing price", func(in *CreateProductInput) { in.Price = nil }},
		{"negative price", func(in *CreateProductInput) { in.Price = floatPtr(-1) }},
		{"missing description", func(in *CreateProductInput) { in.Description = "" }},
		{"missing category", func(in *CreateProductInput) { in.Category = "" }},
		{"missing stock", func(in *CreateProductInput) { in.Stock = nil }},
		{"negative stock", func(in *CreateProductInput) { in.Stock = intPtr(-3) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateUploadsImagesBeforePersisting(t *testing.T) {
	repo := &fakeProductRepo{}
	media := newFakeMedia()
	svc := newCatalog(repo, media)

	input := validCreateInput()
	input.Images = []storage.File{
		{Name: "front.jpg", Data: []byte("front")},
		{Name: "back.jpg", Data: []byte("back")},
	}

	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, created.Images, 2)
	assert.Equal(t, created.Images[0], created.ImageURL)
	assert.Len(t, media.stored, 2)
}

func TestCreateFailedBatchLeavesNothing(t *testing.T) {
	repo := &fakeProductRepo{}
	media := newFakeMedia()
	media.failBatch = true
	svc := newCatalog(repo, media)

	input := validCreateInput()
	input.Images = []storage.File{
		{Name: "front.jpg", Data: []byte("front")},
		{Name: "back.jpg", Data: []byte("back")},
	}

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Empty(t, repo.products, "no product may be persisted")
	assert.Empty(t, media.stored, "no media may stay attributed")
}

func TestCreateStoreFailureReleasesUploads(t *testing.T) {
	repo := &fakeProductRepo{failCreate: errors.New("store down")}
	media := newFakeMedia()
	svc := newCatalog(repo, media)

	input := validCreateInput()
	input.Images = []storage.File{{Name: "front.jpg", Data: []byte("front")}}

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Empty(t, media.stored, "uploads of a failed create must be released")
}

func TestUpdateStockOnly(t *testing.T) {
	repo := &fakeProductRepo{}
	media := newFakeMedia()
	svc := newCatalog(repo, media)

	input := validCreateInput()
	input.Images = []storage.File{{Name: "front.jpg", Data: []byte("front")}}
	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductInput{Stock: intPtr(3)})
	require.NoError(t, err)

	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Price, updated.Price)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.Sizes, updated.Sizes)
	assert.Equal(t, created.Images, updated.Images)
	assert.Equal(t, created.ImageURL, updated.ImageURL)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateNewImagesReplaceArray(t *testing.T) {
	repo := &fakeProductRepo{}
	media := newFakeMedia()
	svc := newCatalog(repo, media)

	input := validCreateInput()
	input.Images = []storage.File{
		{Name: "old1.jpg", Data: []byte("a")},
		{Name: "old2.jpg", Data: []byte("b")},
	}
	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductInput{
		Images: []storage.File{{Name: "new.jpg", Data: []byte("c")}},
	})
	require.NoError(t, err)

	require.Len(t, updated.Images, 1)
	assert.NotContains(t, updated.Images, created.Images[0])
	assert.Equal(t, updated.Images[0], updated.ImageURL)
}

func TestUpdateImagesToDeleteIsBestEffort(t *testing.T) {
	repo := &fakeProductRepo{}
	media := newFakeMedia()
	media.confirmDelete = false
	svc := newCatalog(repo, media)

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateProductInput{
		ImagesToDelete: []string{"products/gone_1", "products/gone_2"},
	})
	require.NoError(t, err, "unconfirmed media deletes must not fail the update")
	assert.Equal(t, []string{"products/gone_1", "products/gone_2"}, media.deleteCalls)
	assert.NotNil(t, updated)
}

func TestUpdateUnknownProduct(t *testing.T) {
	svc := newCatalog(&fakeProductRepo{}, newFakeMedia())

	_, err := svc.Update(context.Background(), "missing", UpdateProductInput{Stock: intPtr(1)})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteReleasesMedia(t *testing.T) {
	repo := &fakeProductRepo{}
	media := newFakeMedia()
	svc := newCatalog(repo, media)

	input := validCreateInput()
	input.Images = []storage.File{{Name: "front.jpg", Data: []byte("front")}}
	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, media.stored, 1)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Empty(t, repo.products)
	assert.Empty(t, media.stored)
}

func TestDeleteSurvivesMediaFailure(t *testing.T) {
	repo := &fakeProductRepo{}
	media := newFakeMedia()
	svc := newCatalog(repo, media)

	input := validCreateInput()
	input.Images = []storage.File{{Name: "front.jpg", Data: []byte("front")}}
	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	media.confirmDelete = false
	require.NoError(t, svc.Delete(context.Background(), created.ID),
		"a flaky media host must not block record deletion")
	assert.Empty(t, repo.products)
}

func TestDeleteUnknownProduct(t *testing.T) {
	svc := newCatalog(&fakeProductRepo{}, newFakeMedia())
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), ErrProductNotFound)
}

func TestUpdateRejectsNegativeValues(t *testing.T) {
	repo := &fakeProductRepo{}
	svc := newCatalog(repo, newFakeMedia())

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, UpdateProductInput{Price: floatPtr(-5)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(context.Background(), created.ID, UpdateProductInput{Stock: intPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Stock, got.Stock, "rejected patches must not change the record")
}
