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

type VehicleHandler struct {
	vehicleService service.VehicleService
}

func NewVehicleHandler(vehicleService service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

func (h *VehicleHandler) RegisterRoutes(router *gin.RouterGroup) {
	vehicles := router.Group("/api/vehicles")
	{
		vehicles.GET("", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer, model.RoleTransporter), h.SearchVehicles)
		vehicles.GET("/:id", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer, model.RoleTransporter), h.GetVehicle)
		vehicles.POST("", middleware.RequireRole(model.RoleTransporter), h.RegisterVehicle)
		vehicles.PUT("/:id", middleware.RequireRole(model.RoleTransporter), h.UpdateVehicle)
	}
}

// RegisterVehicle adds a vehicle to the transporter's fleet
// @Summary      Register vehicle
// @Description  Registers a new vehicle for the authenticated transporter
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterVehicleRequest  true  "Register Vehicle Payload"
// @Success      201      {object}  response.Response{data=service.VehicleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/vehicles [post]
func (h *VehicleHandler) RegisterVehicle(c *gin.Context) {
	var req service.RegisterVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vehicle, err := h.vehicleService.RegisterVehicle(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vehicle))
}

// SearchVehicles returns a paginated, filtered set of vehicles
// @Summary      Search vehicles
// @Description  Retrieves vehicles filtered by service state, owner, and availability
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        state           query     string  false  "Service state"
// @Param        transporter_id  query     string  false  "Filter by transporter"
// @Param        available       query     bool    false  "Only available vehicles"
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Success      200             {object}  response.Response{data=object}
// @Failure      500             {object}  response.Response
// @Router       /api/vehicles [get]
func (h *VehicleHandler) SearchVehicles(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.VehicleSearchFilter{
		TransporterID: c.Query("transporter_id"),
		ServiceState:  c.Query("state"),
		AvailableOnly: c.Query("available") == "true",
		Page:          params.Page,
		Limit:         params.Limit,
	}

	vehicles, total, err := h.vehicleService.Search(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
		"meta":     params.MetaFor(total),
	}))
}

// GetVehicle fetches one vehicle by ID
// @Summary      Get vehicle by ID
// @Description  Fetch a single vehicle's detail by its UUID
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vehicle ID"
// @Success      200  {object}  response.Response{data=service.VehicleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/{id} [get]
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}

// UpdateVehicle updates the transporter's own vehicle
// @Summary      Update vehicle
// @Description  Updates pricing, service area, or availability of a vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Vehicle ID"
// @Param        payload  body      service.UpdateVehicleRequest  true  "Update Vehicle Payload"
// @Success      200      {object}  response.Response{data=service.VehicleResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/vehicles/{id} [put]
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	var req service.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	vehicle, err := h.vehicleService.UpdateVehicle(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}
