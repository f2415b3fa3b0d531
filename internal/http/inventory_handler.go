package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tmdiallo/stockalerte/internal/apperr"
	"github.com/tmdiallo/stockalerte/internal/inventory"
)

type inventoryHandler struct {
	svc          *Service
	inventorySvc inventory.Service
}

func newInventoryHandler(svc *Service, inventorySvc inventory.Service) *inventoryHandler {
	return &inventoryHandler{
		svc:          svc,
		inventorySvc: inventorySvc,
	}
}

type addProductRequest struct {
	Name         string   `json:"name"`
	Stock        int      `json:"stock"`
	MinStock     int      `json:"minStock"`
	CostPrice    int64    `json:"costPrice"`
	SellingPrice int64    `json:"sellingPrice"`
	Images       []string `json:"images"`
}

type updateStockRequest struct {
	Action string `json:"action"`
	Value  int    `json:"value"`
}

type updateImagesRequest struct {
	Images []string `json:"images"`
}

type syncResponse struct {
	Success bool   `json:"success"`
	Synced  int    `json:"synced"`
	Error   string `json:"error,omitempty"`
}

type restoreResponse struct {
	Success           bool   `json:"success"`
	ProductsCount     int    `json:"productsCount"`
	TransactionsCount int    `json:"transactionsCount"`
	Error             string `json:"error,omitempty"`
}

func (h *inventoryHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.svc.respondError(w, r, apperr.ErrInvalidProduct.WrapParent(err))
		return
	}

	product, err := h.inventorySvc.AddProduct(r.Context(), inventory.AddProductParams{
		Name:         req.Name,
		Stock:        req.Stock,
		MinStock:     req.MinStock,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Images:       req.Images,
	})
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusCreated, product)
}

func (h *inventoryHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventorySvc.ListProducts(r.Context())
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}
	h.svc.respondJSON(w, r, http.StatusOK, products)
}

func (h *inventoryHandler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventorySvc.LowStockProducts(r.Context())
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}
	h.svc.respondJSON(w, r, http.StatusOK, products)
}

func (h *inventoryHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	var req updateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.svc.respondError(w, r, apperr.ErrInvalidProduct.WrapParent(err))
		return
	}

	change := inventory.StockChange{
		Action: inventory.StockAction(req.Action),
		Value:  req.Value,
	}
	if err := h.inventorySvc.UpdateStock(r.Context(), id, change); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *inventoryHandler) updateImages(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	var req updateImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.svc.respondError(w, r, apperr.ErrInvalidProduct.WrapParent(err))
		return
	}

	if err := h.inventorySvc.UpdateImages(r.Context(), id, req.Images); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *inventoryHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	if err := h.inventorySvc.DeleteProduct(r.Context(), id); err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	h.svc.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *inventoryHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.inventorySvc.ListTransactions(r.Context())
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}
	h.svc.respondJSON(w, r, http.StatusOK, txns)
}

func (h *inventoryHandler) transactionsByProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}

	txns, err := h.inventorySvc.TransactionsByProduct(r.Context(), id)
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}
	h.svc.respondJSON(w, r, http.StatusOK, txns)
}

func (h *inventoryHandler) triggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.inventorySvc.TriggerSync(r.Context())
	if err != nil {
		h.svc.respondJSON(w, r, http.StatusInternalServerError, syncResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.svc.respondJSON(w, r, http.StatusOK, syncResponse{
		Success: true,
		Synced:  result.Synced,
	})
}

func (h *inventoryHandler) restore(w http.ResponseWriter, r *http.Request) {
	result, err := h.inventorySvc.Restore(r.Context())
	if err != nil {
		h.svc.respondJSON(w, r, http.StatusInternalServerError, restoreResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.svc.respondJSON(w, r, http.StatusOK, restoreResponse{
		Success:           true,
		ProductsCount:     result.ProductsCount,
		TransactionsCount: result.TransactionsCount,
	})
}

func (h *inventoryHandler) resetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.inventorySvc.ResetAll(r.Context()); err != nil {
		h.svc.respondError(w, r, err)
		return
	}
	h.svc.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *inventoryHandler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.inventorySvc.Status(r.Context())
	if err != nil {
		h.svc.respondError(w, r, err)
		return
	}
	h.svc.respondJSON(w, r, http.StatusOK, st)
}

func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.ErrInvalidProduct.WrapParent(err)
	}
	return id, nil
}
