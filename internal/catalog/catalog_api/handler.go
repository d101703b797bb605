package catalog_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/catalog"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/utils"
)

type Handler struct {
	Catalog *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(svc *catalog.Service, log *logger.Logger) *Handler {
	return &Handler{Catalog: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{id}", h.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/", h.CreateCategory)
			r.Patch("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
			r.Post("/{id}/reorder", h.ReorderCategory)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/featured", h.FeaturedProducts)
		r.Get("/search", h.SearchProducts)
		r.Get("/slug/{slug}", h.GetProductBySlug)
		r.Get("/category/{categoryId}", h.ProductsByCategory)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/", h.CreateProduct)
			r.Patch("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	utils.LogAndWriteError(w, h.Logger, op, err)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		h.fail(w, "ListCategories", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		h.fail(w, "GetCategory", err)
		return
	}
	c, err := h.Catalog.GetCategory(r.Context(), id)
	if err == nil && c == nil {
		err = apperr.NotFound("Category not found")
	}
	if err != nil {
		h.fail(w, "GetCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", c)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		h.fail(w, "CreateCategory", err)
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), in)
	if err != nil {
		h.fail(w, "CreateCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Category created", c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		h.fail(w, "UpdateCategory", err)
		return
	}
	var patch catalog.CategoryPatch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		h.fail(w, "UpdateCategory", err)
		return
	}
	if err := h.Catalog.UpdateCategory(r.Context(), id, patch); err != nil {
		h.fail(w, "UpdateCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category updated", nil)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		h.fail(w, "DeleteCategory", err)
		return
	}
	if err := h.Catalog.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, "DeleteCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category deleted", nil)
}

func (h *Handler) ReorderCategory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		h.fail(w, "ReorderCategory", err)
		return
	}
	var body struct {
		NewOrder *int `json:"newOrder" validate:"required"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		h.fail(w, "ReorderCategory", err)
		return
	}
	if err := utils.Validate(body); err != nil {
		h.fail(w, "ReorderCategory", err)
		return
	}
	if err := h.Catalog.ReorderCategory(r.Context(), id, *body.NewOrder); err != nil {
		h.fail(w, "ReorderCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category reordered", nil)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.ListProducts(r.Context(), utils.BoolQuery(r, "activeOnly", true))
	if err != nil {
		h.fail(w, "ListProducts", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.FeaturedProducts(r.Context())
	if err != nil {
		h.fail(w, "FeaturedProducts", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, "SearchProducts", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		h.fail(w, "GetProduct", err)
		return
	}
	p, err := h.Catalog.GetProduct(r.Context(), id)
	if err == nil && p == nil {
		err = apperr.NotFound("Product not found")
	}
	if err != nil {
		h.fail(w, "GetProduct", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", p)
}

func (h *Handler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err == nil && p == nil {
		err = apperr.NotFound("Product not found")
	}
	if err != nil {
		h.fail(w, "GetProductBySlug", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", p)
}

func (h *Handler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "categoryId")
	if err != nil {
		h.fail(w, "ProductsByCategory", err)
		return
	}
	list, err := h.Catalog.ProductsByCategory(r.Context(), id)
	if err != nil {
		h.fail(w, "ProductsByCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		h.fail(w, "CreateProduct", err)
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		h.fail(w, "CreateProduct", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Product created", p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		h.fail(w, "UpdateProduct", err)
		return
	}
	var patch catalog.ProductPatch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		h.fail(w, "UpdateProduct", err)
		return
	}
	if err := h.Catalog.UpdateProduct(r.Context(), id, patch); err != nil {
		h.fail(w, "UpdateProduct", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Product updated", nil)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		h.fail(w, "DeleteProduct", err)
		return
	}
	if err := h.Catalog.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, "DeleteProduct", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Product deleted", nil)
}
