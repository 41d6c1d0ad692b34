package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/janus-erp/janus/gate"
	"github.com/janus-erp/janus/httpx"
	"github.com/janus-erp/janus/internal/documents"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/internal/services"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
)

// Gate resource types, one per permission module.
const (
	ResourceDocument = models.ModuleDocument
	ResourceCustomer = models.ModuleCustomer
	ResourceProduct  = models.ModuleProduct
	ResourceRole     = models.ModuleRole
	ResourceUser     = models.ModuleUser
)

// Authorizer resolves a user's company and checks company-scoped access.
type Authorizer interface {
	CompanyOf(ctx context.Context, userID string) (string, error)
	Authorize(ctx context.Context, userID string, action gate.Action, resourceType string, resource any) error
}

type DocumentHandler struct {
	svc   *services.DocumentService
	authz Authorizer
	log   *zap.Logger
}

func NewDocumentHandler(svc *services.DocumentService, authz Authorizer, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, authz: authz, log: logging.OrNop(log)}
}

type documentRequest struct {
	Type          documents.Type       `json:"type"`
	CustomerID    string               `json:"customer_id,omitempty"`
	CustomerName  string               `json:"customer_name,omitempty"`
	CustomerEmail string               `json:"customer_email,omitempty"`
	IssueDate     string               `json:"issue_date,omitempty"`
	DueDate       string               `json:"due_date,omitempty"`
	Terms         string               `json:"terms,omitempty"`
	Message       string               `json:"message,omitempty"`
	Items         []documents.RawItem  `json:"items"`
	OtherFees     *documents.OtherFees `json:"other_fees,omitempty"`
}

// parseDate accepts 2006-01-02 or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (req documentRequest) input() (services.DocumentInput, error) {
	in := services.DocumentInput{
		Type:          req.Type,
		CustomerID:    strings.TrimSpace(req.CustomerID),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Terms:         req.Terms,
		Message:       req.Message,
		Items:         req.Items,
		OtherFees:     req.OtherFees,
	}
	v := validation.Violations{}
	if req.IssueDate != "" {
		t, err := parseDate(req.IssueDate)
		if err != nil {
			v.Add("issue_date", "Please enter a valid date.")
		}
		in.IssueDate = t
	}
	if req.DueDate != "" {
		t, err := parseDate(req.DueDate)
		if err != nil {
			v.Add("due_date", "Please enter a valid date.")
		}
		in.DueDate = &t
	}
	if !v.Empty() {
		return in, &services.ValidationError{Violations: v}
	}
	return in, nil
}

type documentResponse struct {
	*models.SalesDocument
	BalanceDueLabel string                    `json:"balance_due_label"`
	Formatted       documents.FormattedTotals `json:"formatted"`
}

func newDocumentResponse(doc *models.SalesDocument) documentResponse {
	var fees *documents.OtherFees
	if doc.OtherFeesAmount != 0 {
		fees = &documents.OtherFees{Description: doc.OtherFeesDescription, Amount: doc.OtherFeesAmount}
	}
	totals := documents.Compute(doc.DocumentItems(), fees, doc.Type)
	return documentResponse{
		SalesDocument:   doc,
		BalanceDueLabel: totals.BalanceDueLabel,
		Formatted:       totals.Format(),
	}
}

type previewResponse struct {
	Items     []documents.Item          `json:"items"`
	Totals    documents.Totals          `json:"totals"`
	Formatted documents.FormattedTotals `json:"formatted"`
}

func (h *DocumentHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	return requireUser(w, r)
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req documentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.authz.Authorize(r.Context(), uid, gate.ActionCreate, ResourceDocument, nil); err != nil {
		writeError(w, h.log, err)
		return
	}
	companyID, err := h.authz.CompanyOf(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	doc, err := h.svc.Create(r.Context(), companyID, uid, in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newDocumentResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	typ := documents.Type(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		writeError(w, h.log, &services.ValidationError{Violations: validation.Violations{"type": "Unknown document type."}})
		return
	}
	if err := h.authz.Authorize(r.Context(), uid, gate.ActionList, ResourceDocument, nil); err != nil {
		writeError(w, h.log, err)
		return
	}
	companyID, err := h.authz.CompanyOf(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	docs, err := h.svc.List(r.Context(), companyID, typ)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out := make([]documentResponse, len(docs))
	for i := range docs {
		out[i] = newDocumentResponse(&docs[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get answers 404 for documents of other companies.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.authz.Authorize(r.Context(), uid, gate.ActionView, ResourceDocument, doc); err != nil {
		if errors.Is(err, gate.ErrUnauthorized) {
			err = services.ErrNotFound
		}
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newDocumentResponse(doc))
}

// Preview computes totals for an unsaved document. Referenced products must
// belong to the caller's company.
func (h *DocumentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := scope(w, r, h.authz, h.log, gate.ActionCreate, ResourceDocument)
	if !ok {
		return
	}
	var req documentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	items, totals, err := h.svc.Preview(r.Context(), companyID, in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, previewResponse{Items: items, Totals: totals, Formatted: totals.Format()})
}
