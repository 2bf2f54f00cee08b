package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrimandi/internal/middleware"
	"agrimandi/internal/model"
	"agrimandi/internal/service"
	"agrimandi/pkg/pagination"
	"agrimandi/pkg/response"
)

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (h *BillingHandler) RegisterRoutes(router *gin.RouterGroup) {
	billings := router.Group("/api/billings")
	{
		billings.POST("", middleware.RequireRole(model.RoleBuyer), h.CreateBilling)
		billings.GET("", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer), h.ListBillings)
		billings.GET("/:id", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer), h.GetBilling)
		billings.PUT("/:id/payment", middleware.RequireRole(model.RoleBuyer), h.RecordPayment)
	}
}

// CreateBilling generates the invoice for a delivered transaction
// @Summary      Create billing
// @Description  Buyer generates the invoice, completing the underlying transaction
// @Tags         billings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBillingRequest  true  "Create Billing Payload"
// @Success      201      {object}  response.Response{data=service.BillingResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/billings [post]
func (h *BillingHandler) CreateBilling(c *gin.Context) {
	var req service.CreateBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	billing, err := h.billingService.CreateBilling(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, billing))
}

// ListBillings lists the caller's invoices for their role
// @Summary      List billings
// @Description  Retrieves invoices the authenticated user is a party to
// @Tags         billings
// @Security     BearerAuth
// @Produce      json
// @Param        payment_status  query     string  false  "Filter by payment status (Unpaid, Partial, Paid, Overdue)"
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Success      200             {object}  response.Response{data=object}
// @Failure      500             {object}  response.Response
// @Router       /api/billings [get]
func (h *BillingHandler) ListBillings(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.BillingFilter{
		PaymentStatus: c.Query("payment_status"),
		Page:          params.Page,
		Limit:         params.Limit,
	}

	billings, total, err := h.billingService.ListByParty(c.Request.Context(), currentUserID(c), currentUserRole(c), filter)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"billings": billings,
		"meta":     params.MetaFor(total),
	}))
}

// GetBilling fetches one invoice by ID
// @Summary      Get billing by ID
// @Description  Fetch a single invoice's detail; only its parties may view it
// @Tags         billings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Billing ID"
// @Success      200  {object}  response.Response{data=service.BillingResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/billings/{id} [get]
func (h *BillingHandler) GetBilling(c *gin.Context) {
	billing, err := h.billingService.GetByID(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, billing))
}

// RecordPayment applies a payment against the invoice
// @Summary      Record payment
// @Description  Buyer records a payment, moving the invoice toward Paid
// @Tags         billings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Billing ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Payment Payload"
// @Success      200      {object}  response.Response{data=service.BillingResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/billings/{id}/payment [put]
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	billing, err := h.billingService.RecordPayment(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, billing))
}
