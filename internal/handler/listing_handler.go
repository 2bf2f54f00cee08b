package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"agrimandi/internal/middleware"
	"agrimandi/internal/model"
	"agrimandi/internal/service"
	"agrimandi/pkg/pagination"
	"agrimandi/pkg/response"
)

type ListingHandler struct {
	listingService service.ListingService
}

func NewListingHandler(listingService service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

func (h *ListingHandler) RegisterRoutes(router *gin.RouterGroup) {
	listings := router.Group("/api/listings")
	{
		listings.GET("", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer, model.RoleTransporter), h.SearchListings)
		listings.GET("/:id", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer, model.RoleTransporter), h.GetListing)
		listings.POST("", middleware.RequireRole(model.RoleFarmer), h.CreateListing)
		listings.PUT("/:id", middleware.RequireRole(model.RoleFarmer), h.UpdateListing)
		listings.DELETE("/:id", middleware.RequireRole(model.RoleFarmer), h.DeactivateListing)
	}
}

// CreateListing publishes a new commodity listing
// @Summary      Create listing
// @Description  Publishes a new commodity listing for the authenticated farmer
// @Tags         listings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateListingRequest  true  "Create Listing Payload"
// @Success      201      {object}  response.Response{data=service.ListingResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/listings [post]
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req service.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, listing))
}

// SearchListings returns a paginated, filtered set of listings
// @Summary      Search listings
// @Description  Retrieves active listings filtered by commodity type, state, quality, and price range
// @Tags         listings
// @Security     BearerAuth
// @Produce      json
// @Param        commodity_type  query     string  false  "Commodity type"
// @Param        state           query     string  false  "Pickup state"
// @Param        quality         query     string  false  "Quality grade"
// @Param        min_price       query     number  false  "Minimum price per unit"
// @Param        max_price       query     number  false  "Maximum price per unit"
// @Param        farmer_id       query     string  false  "Filter by farmer (includes inactive)"
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Success      200             {object}  response.Response{data=object}
// @Failure      500             {object}  response.Response
// @Router       /api/listings [get]
func (h *ListingHandler) SearchListings(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.ListingSearchFilter{
		CommodityType: c.Query("commodity_type"),
		State:         c.Query("state"),
		Quality:       c.Query("quality"),
		FarmerID:      c.Query("farmer_id"),
		Page:          params.Page,
		Limit:         params.Limit,
	}
	if raw := c.Query("min_price"); raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil {
			filter.MinPrice = &v
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil {
			filter.MaxPrice = &v
		}
	}

	listings, total, err := h.listingService.Search(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"listings": listings,
		"meta":     params.MetaFor(total),
	}))
}

// GetListing fetches one listing by ID
// @Summary      Get listing by ID
// @Description  Fetch a single listing's detail by its UUID
// @Tags         listings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  response.Response{data=service.ListingResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/listings/{id} [get]
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listingService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listing))
}

// UpdateListing updates the farmer's own listing
// @Summary      Update listing
// @Description  Updates quantity, price, quality, description, or active flag
// @Tags         listings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Listing ID"
// @Param        payload  body      service.UpdateListingRequest  true  "Update Listing Payload"
// @Success      200      {object}  response.Response{data=service.ListingResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/listings/{id} [put]
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	var req service.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	listing, err := h.listingService.UpdateListing(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listing))
}

// DeactivateListing takes the listing off the marketplace
// @Summary      Deactivate listing
// @Description  Marks the listing inactive so buyers no longer see it
// @Tags         listings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/listings/{id} [delete]
func (h *ListingHandler) DeactivateListing(c *gin.Context) {
	if err := h.listingService.DeactivateListing(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMsg(http.StatusOK, "Listing deactivated", nil))
}
