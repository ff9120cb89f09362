package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"lapak/internal/middleware"
	"lapak/internal/models"
	"lapak/internal/services"
	"lapak/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// maxImageSize caps uploaded product images at 2048 KB.
const maxImageSize = 2048 * 1024

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Any
// writeGuards are run before the create, update and delete handlers; the
// role policy mounts the admin gate here.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, writeGuards ...fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", append(writeGuards, h.HandleCreateProduct)...)
	productRoutes.Put("/:id", append(writeGuards, h.HandleUpdateProduct)...)
	productRoutes.Delete("/:id", append(writeGuards, h.HandleDeleteProduct)...)
}

// createProductForm carries the create request fields for validation.
type createProductForm struct {
	Name          string  `validate:"required,max=255"`
	Description   string  `validate:"omitempty"`
	Price         float64 `validate:"gte=0"`
	StockQuantity int     `validate:"gte=0"`
}

// updateProductForm carries the update request fields for validation. Nil
// means the field was not supplied.
type updateProductForm struct {
	Name          *string  `validate:"omitempty,max=255"`
	Description   *string  `validate:"omitempty"`
	Price         *float64 `validate:"omitempty,gte=0"`
	StockQuantity *int     `validate:"omitempty,gte=0"`
}

// HandleGetProducts lists the products owned by the calling principal.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	principal := principalFrom(c)
	products, err := h.service.List(principal)
	if err != nil {
		logger.L().Error("Error listing products", zap.String("owner_id", principal.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	principal := principalFrom(c)
	product, err := h.service.Get(principal, c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "retrieve")
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product from a multipart form, storing
// the attached image first if one was uploaded.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	principal := principalFrom(c)

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   "multipart form data is required",
		})
	}

	fieldErrors := make(map[string]string)
	var parsed createProductForm

	name, ok := formValue(form, "name")
	if !ok {
		fieldErrors["name"] = "Field 'name' is required"
	}
	parsed.Name = name
	parsed.Description, _ = formValue(form, "description")

	if raw, ok := formValue(form, "price"); !ok {
		fieldErrors["price"] = "Field 'price' is required"
	} else if price, err := strconv.ParseFloat(raw, 64); err != nil {
		fieldErrors["price"] = "Field 'price' must be a number"
	} else {
		parsed.Price = price
	}

	if raw, ok := formValue(form, "stock_quantity"); !ok {
		fieldErrors["stock_quantity"] = "Field 'stock_quantity' is required"
	} else if stock, err := strconv.Atoi(raw); err != nil {
		fieldErrors["stock_quantity"] = "Field 'stock_quantity' must be an integer"
	} else {
		parsed.StockQuantity = stock
	}

	h.mergeStructErrors(&parsed, fieldErrors)
	imageHeader := h.checkImage(form, fieldErrors)

	if len(fieldErrors) > 0 {
		logger.L().Warn("Validation failed for product create", zap.Any("errors", fieldErrors))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fieldErrors,
		})
	}

	input := services.CreateProductInput{
		Name:          parsed.Name,
		Description:   parsed.Description,
		Price:         parsed.Price,
		StockQuantity: parsed.StockQuantity,
	}

	if imageHeader != nil {
		file, err := imageHeader.Open()
		if err != nil {
			logger.L().Error("Failed to open uploaded image", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Image upload failed",
			})
		}
		defer file.Close()
		input.Image = &services.ImageUpload{
			Ext:  strings.ToLower(filepath.Ext(imageHeader.Filename)),
			Data: file,
		}
	}

	product, err := h.service.Create(principal, input)
	if err != nil {
		return h.respondError(c, err, "create")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update to a product. Only supplied
// form fields are validated and written; everything else keeps its stored
// value, including the image when no replacement was uploaded.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	principal := principalFrom(c)
	id := c.Params("id")

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   "multipart form data is required",
		})
	}

	fieldErrors := make(map[string]string)
	var parsed updateProductForm

	if name, ok := formValue(form, "name"); ok {
		// A supplied name may not be blanked out.
		if name == "" {
			fieldErrors["name"] = "Field 'name' is required"
		} else {
			parsed.Name = &name
		}
	}
	if description, ok := formValue(form, "description"); ok {
		parsed.Description = &description
	}
	if raw, ok := formValue(form, "price"); ok {
		if price, err := strconv.ParseFloat(raw, 64); err != nil {
			fieldErrors["price"] = "Field 'price' must be a number"
		} else {
			parsed.Price = &price
		}
	}
	if raw, ok := formValue(form, "stock_quantity"); ok {
		if stock, err := strconv.Atoi(raw); err != nil {
			fieldErrors["stock_quantity"] = "Field 'stock_quantity' must be an integer"
		} else {
			parsed.StockQuantity = &stock
		}
	}

	h.mergeStructErrors(&parsed, fieldErrors)
	imageHeader := h.checkImage(form, fieldErrors)

	if len(fieldErrors) > 0 {
		logger.L().Warn("Validation failed for product update",
			zap.String("product_id", id), zap.Any("errors", fieldErrors))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fieldErrors,
		})
	}

	input := services.UpdateProductInput{
		Name:          parsed.Name,
		Description:   parsed.Description,
		Price:         parsed.Price,
		StockQuantity: parsed.StockQuantity,
	}

	if imageHeader != nil {
		file, err := imageHeader.Open()
		if err != nil {
			logger.L().Error("Failed to open uploaded image", zap.String("product_id", id), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Image upload failed",
			})
		}
		defer file.Close()
		input.Image = &services.ImageUpload{
			Ext:  strings.ToLower(filepath.Ext(imageHeader.Filename)),
			Data: file,
		}
	}

	product, err := h.service.Update(principal, id, input)
	if err != nil {
		if errors.Is(err, services.ErrNoChanges) {
			return c.JSON(fiber.Map{"message": "No changes applied"})
		}
		if errors.Is(err, services.ErrNoFields) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "No fields provided for update",
			})
		}
		return h.respondError(c, err, "update")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product and its stored image.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	principal := principalFrom(c)
	if err := h.service.Delete(principal, c.Params("id")); err != nil {
		return h.respondError(c, err, "delete")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// respondError maps service failures to the HTTP error taxonomy shared by
// all product operations.
func (h *ProductHandler) respondError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to access this product",
		})
	case errors.Is(err, services.ErrStorage):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Image upload failed",
		})
	default:
		logger.L().Error("Product operation failed", zap.String("action", action), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to %s product", action),
		})
	}
}

// mergeStructErrors runs tag validation on the parsed form and records any
// failures not already reported for the field.
func (h *ProductHandler) mergeStructErrors(form interface{}, fieldErrors map[string]string) {
	err := h.validate.Struct(form)
	if err == nil {
		return
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return
	}
	for _, e := range validationErrors {
		field := formFieldName(e.Field())
		if _, reported := fieldErrors[field]; !reported {
			fieldErrors[field] = fmt.Sprintf("Field '%s' failed on the '%s' tag", field, e.Tag())
		}
	}
}

// checkImage validates an optional uploaded image and returns its header, or
// nil when no image was attached.
func (h *ProductHandler) checkImage(form *multipart.Form, fieldErrors map[string]string) *multipart.FileHeader {
	files, ok := form.File["image"]
	if !ok || len(files) == 0 {
		return nil
	}
	header := files[0]

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		fieldErrors["image"] = "Field 'image' must be a jpeg, jpg, png or gif file"
		return nil
	}
	if header.Size > maxImageSize {
		fieldErrors["image"] = fmt.Sprintf("Field 'image' may not be larger than %d kilobytes", maxImageSize/1024)
		return nil
	}
	return header
}

func formValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// formFieldName maps a Go struct field name to its form field name.
func formFieldName(field string) string {
	switch field {
	case "StockQuantity":
		return "stock_quantity"
	default:
		return strings.ToLower(field)
	}
}

func principalFrom(c *fiber.Ctx) models.Principal {
	principal, _ := c.Locals(middleware.PrincipalKey).(models.Principal)
	return principal
}
