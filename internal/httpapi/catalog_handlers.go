package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pretorsport/api/internal/audit"
	"github.com/pretorsport/api/internal/catalog"
)

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	products, err := a.catalog.ListProducts(r.Context(), f)
	if err != nil {
		mapCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := a.catalog.GetProduct(r.Context(), id)
	if err != nil {
		mapCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}
	if err := a.catalog.CreateProduct(r.Context(), &p); err != nil {
		mapCatalogError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "catalog.product_created", map[string]any{"product_id": p.ID})
	w.Header().Set("Location", fmt.Sprintf("/productos/%d", p.ID))
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p catalog.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}
	p.ID = id
	if err := a.catalog.UpdateProduct(r.Context(), &p); err != nil {
		mapCatalogError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "catalog.product_updated", map[string]any{"product_id": p.ID})
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.catalog.DeleteProduct(r.Context(), id); err != nil {
		mapCatalogError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "catalog.product_deleted", map[string]any{"product_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.catalog.ListCategories(r.Context())
	if err != nil {
		mapCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *API) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := a.catalog.GetCategory(r.Context(), id)
	if err != nil {
		mapCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}
	if err := a.catalog.CreateCategory(r.Context(), &c); err != nil {
		mapCatalogError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "catalog.category_created", map[string]any{"category_id": c.ID})
	w.Header().Set("Location", fmt.Sprintf("/categorias/%d", c.ID))
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c catalog.Category
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}
	c.ID = id
	if err := a.catalog.UpdateCategory(r.Context(), &c); err != nil {
		mapCatalogError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "catalog.category_updated", map[string]any{"category_id": c.ID})
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.catalog.DeleteCategory(r.Context(), id); err != nil {
		mapCatalogError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "catalog.category_deleted", map[string]any{"category_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	f := catalog.Filter{Query: q.Get("q")}

	for name, dst := range map[string]*int64{
		"categoria": &f.CategoryID,
		"precioMin": &f.MinPrice,
		"precioMax": &f.MaxPrice,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return catalog.Filter{}, fmt.Errorf("%s must be a non-negative integer", name)
		}
		*dst = v
	}
	for name, dst := range map[string]*int{
		"limit":  &f.Limit,
		"offset": &f.Offset,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return catalog.Filter{}, fmt.Errorf("%s must be a non-negative integer", name)
		}
		*dst = v
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	return f, nil
}
