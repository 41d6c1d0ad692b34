package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/janus-erp/janus/gate"
	"github.com/janus-erp/janus/httpx"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/internal/services"
	"go.uber.org/zap"
)

// CatalogHandler serves the company's customers and products.
type CatalogHandler struct {
	svc   *services.CatalogService
	authz Authorizer
	log   *zap.Logger
}

func NewCatalogHandler(svc *services.CatalogService, authz Authorizer, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, authz: authz, log: logging.OrNop(log)}
}

type customerRequest struct {
	Name           string         `json:"name"`
	CompanyName    string         `json:"company_name,omitempty"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	TaxID          string         `json:"tax_id,omitempty"`
	BillingAddress models.Address `json:"billing_address"`
	InitialBalance float64        `json:"initial_balance"`
}

type productRequest struct {
	SKU               string  `json:"sku"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Unit              string  `json:"unit,omitempty"`
	SalePrice         float64 `json:"sale_price"`
	PurchasePrice     float64 `json:"purchase_price"`
	DefaultTaxPercent float64 `json:"default_tax_percent"`
}

func (h *CatalogHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionList, ResourceCustomer)
	if !ok {
		return
	}
	customers, err := h.svc.ListCustomers(r.Context(), companyID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	httpx.JSON(w, http.StatusOK, customers)
}

func (h *CatalogHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	uid, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionCreate, ResourceCustomer)
	if !ok {
		return
	}
	var req customerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), companyID, uid, services.CustomerInput(req))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

// GetCustomer answers 404 for customers of other companies.
func (h *CatalogHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionView, ResourceCustomer)
	if !ok {
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), companyID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionList, ResourceProduct)
	if !ok {
		return
	}
	products, err := h.svc.ListProducts(r.Context(), companyID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	uid, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionCreate, ResourceProduct)
	if !ok {
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), companyID, uid, services.ProductInput(req))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// GetProduct answers 404 for products of other companies.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionView, ResourceProduct)
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(r.Context(), companyID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
