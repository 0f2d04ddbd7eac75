// Package handlers exposes the settlement engine over HTTP. Handlers do
// request decoding and error mapping only; every decision lives in the
// orchestrator and its collaborators.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	e "github.com/inkbridge/settlement/internal/settlement/errors"
	"github.com/inkbridge/settlement/internal/settlement/invoice"
	"github.com/inkbridge/settlement/internal/settlement/models"
	"github.com/inkbridge/settlement/internal/settlement/orchestrator"
	"github.com/inkbridge/settlement/internal/settlement/pochain"
	"go.uber.org/zap"
)

type Handler struct {
	orch     *orchestrator.Orchestrator
	chain    *pochain.Manager
	invoices *invoice.Generator
	logger   *zap.Logger
}

func NewHandler(orch *orchestrator.Orchestrator, chain *pochain.Manager, invoices *invoice.Generator, logger *zap.Logger) *Handler {
	return &Handler{
		orch:     orch,
		chain:    chain,
		invoices: invoices,
		logger:   logger.Named("http"),
	}
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/jobs", h.createJob)
	api.GET("/jobs/:id", h.getJob)
	api.POST("/jobs/:id/files-uploaded", h.filesUploaded)
	api.POST("/jobs/:id/proofs", h.uploadProof)
	api.POST("/jobs/:id/complete", h.completeJob)
	api.POST("/jobs/:id/cancel", h.cancelJob)
	api.POST("/jobs/:id/po-document", h.poDocument)
	api.GET("/jobs/:id/purchase-orders", h.listPurchaseOrders)
	api.GET("/jobs/:id/invoices", h.listInvoices)

	api.POST("/proofs/:id/approve", h.approveProof)
	api.POST("/proofs/:id/request-changes", h.requestChanges)

	api.PATCH("/purchase-orders/:id", h.updatePurchaseOrder)
	api.POST("/invoices/:id/pay", h.payInvoice)
}

// writeError maps engine sentinels onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, e.ErrValidation),
		errors.Is(err, e.ErrInvalidRouting),
		errors.Is(err, e.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrMissingAmount):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

type createJobInput struct {
	JobNumber   string             `json:"jobNumber" binding:"required"`
	CustomerID  uuid.UUID          `json:"customerId" binding:"required"`
	Quantity    int64              `json:"quantity" binding:"required"`
	Size        string             `json:"size" binding:"required"`
	RoutingType models.RoutingType `json:"routingType" binding:"required"`

	Spec          *models.JobSpec `json:"spec"`
	OverridePrice *int64          `json:"overridePrice"`

	VendorID        *uuid.UUID `json:"vendorId"`
	VendorAmount    *int64     `json:"vendorAmount"`
	IntermediaryCut *int64     `json:"intermediaryCut"`

	ManualPONumber string `json:"poNumber"`
	Document       []byte `json:"document"`
}

func (h *Handler) createJob(c *gin.Context) {
	var in createJobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := h.orch.CreateJob(c.Request.Context(), &orchestrator.CreateJobRequest{
		JobNumber:       in.JobNumber,
		CustomerID:      in.CustomerID,
		Quantity:        in.Quantity,
		Size:            in.Size,
		RoutingType:     in.RoutingType,
		Spec:            in.Spec,
		OverridePrice:   in.OverridePrice,
		VendorID:        in.VendorID,
		VendorAmount:    in.VendorAmount,
		IntermediaryCut: in.IntermediaryCut,
		ManualPONumber:  in.ManualPONumber,
		Document:        in.Document,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *Handler) getJob(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	job, err := h.orch.GetJob(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) filesUploaded(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.orch.HandleFilesUploaded(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "chain ensured"})
}

type uploadProofInput struct {
	FileID string `json:"fileId" binding:"required"`
}

func (h *Handler) uploadProof(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in uploadProofInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proof, err := h.orch.UploadProof(c.Request.Context(), id, in.FileID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proof)
}

func (h *Handler) approveProof(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	proof, err := h.orch.ApproveProof(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, proof)
}

func (h *Handler) requestChanges(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	proof, err := h.orch.RequestChanges(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, proof)
}

func (h *Handler) completeJob(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	job, err := h.orch.CompleteJob(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) cancelJob(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	job, err := h.orch.CancelJob(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type poDocumentInput struct {
	Document []byte `json:"document" binding:"required"`
}

func (h *Handler) poDocument(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in poDocumentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	po, err := h.orch.HandlePODocument(c.Request.Context(), id, in.Document)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *Handler) listPurchaseOrders(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	pos, err := h.chain.ListForJob(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

type updatePOInput struct {
	OriginalAmount    *int64           `json:"originalAmount"`
	VendorAmount      *int64           `json:"vendorAmount"`
	PONumber          *string          `json:"poNumber"`
	ReferencePONumber *string          `json:"referencePoNumber"`
	Status            *models.POStatus `json:"status"`
}

func (h *Handler) updatePurchaseOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in updatePOInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	po, err := h.chain.UpdatePO(c.Request.Context(), pochain.UpdateRequest{
		ID:                id,
		OriginalAmount:    in.OriginalAmount,
		VendorAmount:      in.VendorAmount,
		PONumber:          in.PONumber,
		ReferencePONumber: in.ReferencePONumber,
		Status:            in.Status,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *Handler) listInvoices(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoices, err := h.invoices.ListForJob(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (h *Handler) payInvoice(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	inv, err := h.invoices.MarkPaid(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}
