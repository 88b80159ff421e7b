package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-api/internal/domain"
	"catalog-api/internal/service"
	"catalog-api/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth        service.AuthService
	products    service.ProductService
	media       storage.Service
	mediaFolder string
	logger      *logrus.Logger
}

func NewHandler(auth service.AuthService, products service.ProductService, media storage.Service, mediaFolder string, logger *logrus.Logger) *Handler {
	return &Handler{
		auth:        auth,
		products:    products,
		media:       media,
		mediaFolder: mediaFolder,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	router.POST("/register", h.register)
	router.POST("/admin/login", h.login)
	router.GET("/admin/profile", h.profile)

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	admin := router.Group("/admin")
	admin.Use(h.requireAuth())
	{
		admin.GET("/products", h.listProducts)
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
		admin.POST("/upload/image", h.uploadImage)
		admin.POST("/upload/images", h.uploadImages)
		admin.DELETE("/upload/image/*publicId", h.deleteImage)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) listProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	products, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Errorf("list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list products"})
		return
	}

	resp := make([]ProductResponse, len(products))
	for i := range products {
		resp[i] = productToResponse(products[i])
	}
	c.JSON(http.StatusOK, gin.H{"products": resp})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		h.logger.Errorf("get product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": productToResponse(*product)})
}

func (h *Handler) createProduct(c *gin.Context) {
	input, err := bindCreateInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	product, err := h.products.Create(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		h.logger.Errorf("create product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": productToResponse(*product)})
}

func (h *Handler) updateProduct(c *gin.Context) {
	patch, err := bindUpdateInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	product, err := h.products.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			h.logger.Errorf("update product: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update product"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": productToResponse(*product)})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		h.logger.Errorf("delete product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ProductResponse is the wire shape of a catalog product.
type ProductResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Sizes       []string `json:"sizes"`
	Stock       int      `json:"stock"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

func productToResponse(product domain.Product) ProductResponse {
	images := product.Images
	if images == nil {
		images = []string{}
	}
	sizes := product.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Images:      images,
		Category:    product.Category,
		Sizes:       sizes,
		Stock:       product.Stock,
		CreatedAt:   product.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   product.UpdatedAt.Format(time.RFC3339),
	}
}
