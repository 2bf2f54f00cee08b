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

type TransactionHandler struct {
	txnService service.TransactionService
}

func NewTransactionHandler(txnService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{txnService: txnService}
}

func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleFarmer, model.RoleBuyer, model.RoleTransporter)

	txns := router.Group("/api/transactions")
	{
		txns.POST("", middleware.RequireRole(model.RoleBuyer), h.SendOffer)
		txns.GET("", anyRole, h.ListTransactions)
		txns.GET("/:id", anyRole, h.GetTransaction)

		txns.PUT("/:id/accept", middleware.RequireRole(model.RoleFarmer), h.AcceptOffer)
		txns.PUT("/:id/reject", middleware.RequireRole(model.RoleFarmer), h.RejectOffer)
		txns.PUT("/:id/negotiate", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer), h.StartNegotiation)
		txns.PUT("/:id/finalize", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer), h.Finalize)

		txns.GET("/:id/vehicles", middleware.RequireRole(model.RoleFarmer), h.GetAvailableVehicles)
		txns.PUT("/:id/request-vehicle", middleware.RequireRole(model.RoleFarmer), h.RequestVehicle)
		txns.PUT("/:id/start-transit", middleware.RequireRole(model.RoleTransporter), h.StartTransit)
		txns.PUT("/:id/deliver", middleware.RequireRole(model.RoleTransporter), h.MarkDelivered)

		txns.PUT("/:id/cancel", anyRole, h.Cancel)

		txns.PUT("/:id/inspection", middleware.RequireRole(model.RoleBuyer), h.UpdateInspection)
		txns.PUT("/:id/dispute", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer), h.ReportDispute)
		txns.PUT("/:id/dispute/resolve", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer), h.ResolveDispute)
	}
}

// SendOffer creates a purchase offer against a listing
// @Summary      Send offer
// @Description  Buyer sends a purchase offer against an active listing
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SendOfferRequest  true  "Send Offer Payload"
// @Success      201      {object}  response.Response{data=service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/transactions [post]
func (h *TransactionHandler) SendOffer(c *gin.Context) {
	var req service.SendOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	txn, err := h.txnService.SendOffer(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, txn))
}

// ListTransactions lists the caller's transactions for their role
// @Summary      List transactions
// @Description  Retrieves transactions the authenticated user participates in
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.TransactionFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	txns, total, err := h.txnService.ListByParty(c.Request.Context(), currentUserID(c), currentUserRole(c), filter)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": txns,
		"meta":         params.MetaFor(total),
	}))
}

// GetTransaction fetches one transaction by ID
// @Summary      Get transaction by ID
// @Description  Fetch a single transaction's detail; only its parties may view it
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=service.TransactionResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txn, err := h.txnService.GetByID(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// AcceptOffer moves a pending offer to Offer Accepted
// @Summary      Accept offer
// @Description  Farmer accepts a pending offer on their listing
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=service.TransactionResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/transactions/{id}/accept [put]
func (h *TransactionHandler) AcceptOffer(c *gin.Context) {
	txn, err := h.txnService.AcceptOffer(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// RejectOffer moves a pending offer to Offer Rejected
// @Summary      Reject offer
// @Description  Farmer rejects a pending offer with a reason
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Transaction ID"
// @Param        payload  body      service.RejectOfferRequest true  "Reject Payload"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/transactions/{id}/reject [put]
func (h *TransactionHandler) RejectOffer(c *gin.Context) {
	var req service.RejectOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	txn, err := h.txnService.RejectOffer(c.Request.Context(), c.Param("id"), currentUserID(c), req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// StartNegotiation moves an accepted offer into negotiation
// @Summary      Start negotiation
// @Description  Either commercial party opens negotiation on an accepted offer
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=service.TransactionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/transactions/{id}/negotiate [put]
func (h *TransactionHandler) StartNegotiation(c *gin.Context) {
	txn, err := h.txnService.StartNegotiation(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// Finalize locks the commercial terms of the deal
// @Summary      Finalize deal
// @Description  Either commercial party finalizes the agreed terms
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=service.TransactionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/transactions/{id}/finalize [put]
func (h *TransactionHandler) Finalize(c *gin.Context) {
	txn, err := h.txnService.Finalize(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// GetAvailableVehicles lists vehicles serving the transaction's pickup state
// @Summary      Get available vehicles
// @Description  Lists available vehicles whose service area covers the pickup state
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Transaction ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      404    {object}  response.Response
// @Router       /api/transactions/{id}/vehicles [get]
func (h *TransactionHandler) GetAvailableVehicles(c *gin.Context) {
	params := pagination.Parse(c)

	vehicles, total, err := h.txnService.GetAvailableVehicles(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
		"meta":     params.MetaFor(total),
	}))
}

// RequestVehicle allocates a vehicle to the transaction
// @Summary      Request vehicle
// @Description  Farmer allocates an available vehicle, computing the transport cost
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Transaction ID"
// @Param        payload  body      service.RequestVehicleRequest  true  "Request Vehicle Payload"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/transactions/{id}/request-vehicle [put]
func (h *TransactionHandler) RequestVehicle(c *gin.Context) {
	var req service.RequestVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	txn, err := h.txnService.RequestVehicle(c.Request.Context(), c.Param("id"), req.VehicleID, currentUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// StartTransit marks the shipment as picked up
// @Summary      Start transit
// @Description  Allocated transporter marks the goods picked up and in transit
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=service.TransactionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/transactions/{id}/start-transit [put]
func (h *TransactionHandler) StartTransit(c *gin.Context) {
	txn, err := h.txnService.StartTransit(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// MarkDelivered records delivery with the weighed actual quantity
// @Summary      Mark delivered
// @Description  Allocated transporter records delivery and the actual weighed quantity
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Transaction ID"
// @Param        payload  body      service.DeliveryRequest  true  "Delivery Payload"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/transactions/{id}/deliver [put]
func (h *TransactionHandler) MarkDelivered(c *gin.Context) {
	var req service.DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	txn, err := h.txnService.MarkDelivered(c.Request.Context(), c.Param("id"), currentUserID(c), req.ActualWeight)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// Cancel aborts a transaction before completion
// @Summary      Cancel transaction
// @Description  A party cancels the transaction with a reason; terminal states cannot be cancelled
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Transaction ID"
// @Param        payload  body      service.CancelRequest  true  "Cancel Payload"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/transactions/{id}/cancel [put]
func (h *TransactionHandler) Cancel(c *gin.Context) {
	var req service.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	txn, err := h.txnService.Cancel(c.Request.Context(), c.Param("id"), currentUserID(c), req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// UpdateInspection records a quality inspection result
// @Summary      Update quality inspection
// @Description  Buyer records the quality inspection outcome after delivery
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Transaction ID"
// @Param        payload  body      service.InspectionRequest  true  "Inspection Payload"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/transactions/{id}/inspection [put]
func (h *TransactionHandler) UpdateInspection(c *gin.Context) {
	var req service.InspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	txn, err := h.txnService.UpdateInspection(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// ReportDispute flags the transaction with a dispute
// @Summary      Report dispute
// @Description  A commercial party reports a dispute against the transaction
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Transaction ID"
// @Param        payload  body      service.DisputeRequest  true  "Dispute Payload"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/transactions/{id}/dispute [put]
func (h *TransactionHandler) ReportDispute(c *gin.Context) {
	var req service.DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	txn, err := h.txnService.ReportDispute(c.Request.Context(), c.Param("id"), currentUserID(c), req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// ResolveDispute closes an open dispute with a resolution
// @Summary      Resolve dispute
// @Description  A commercial party records the dispute resolution
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Transaction ID"
// @Param        payload  body      service.ResolveDisputeRequest  true  "Resolve Payload"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/transactions/{id}/dispute/resolve [put]
func (h *TransactionHandler) ResolveDispute(c *gin.Context) {
	var req service.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	txn, err := h.txnService.ResolveDispute(c.Request.Context(), c.Param("id"), currentUserID(c), req.Resolution)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}
