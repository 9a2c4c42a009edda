package http

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
)

type locationService interface {
	UpdateLocation(ctx context.Context, vehicleID string, update *domain.LocationUpdate) *domain.LocationRecord
	GetLocation(ctx context.Context, vehicleID string) (*domain.LocationRecord, bool)
	GetHistory(ctx context.Context, vehicleID string) []domain.HistoryEntry
	StartTracking(ctx context.Context, vehicleID string)
	StopTracking(ctx context.Context, vehicleID string)
	ClearHistory(ctx context.Context)
}

type loaderService interface {
	LoadVehiclesFromBackend(ctx context.Context) error
}

type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`
	DriverID  *string  `json:"driver_id"`
}

type locationResponse struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	DriverID  string  `json:"driver_id,omitempty"`
}

type historyResponse struct {
	ID string `json:"id"`
	locationResponse
}

type TrackingHandler struct {
	locations locationService
	loader    loaderService
}

func NewTrackingHandler(locations locationService, loader loaderService) *TrackingHandler {
	return &TrackingHandler{locations: locations, loader: loader}
}

func (h *TrackingHandler) Register(r *gin.RouterGroup) {
	r.PUT("/vehicles/:vehicle_id/location", h.UpdateLocation)
	r.GET("/vehicles/:vehicle_id/location", h.GetLocation)
	r.GET("/vehicles/:vehicle_id/history", h.GetHistory)
	r.POST("/vehicles/:vehicle_id/tracking", h.StartTracking)
	r.DELETE("/vehicles/:vehicle_id/tracking", h.StopTracking)
	r.DELETE("/tracking/history", h.ClearHistory)
	r.POST("/vehicles/reload", h.ReloadVehicles)
}

// UpdateLocation is the device GPS callback path: a partial update merged
// onto the vehicle's current record.
func (h *TrackingHandler) UpdateLocation(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validateUpdateRequest(&req); err != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	update := &domain.LocationUpdate{
		Speed:    req.Speed,
		Heading:  req.Heading,
		DriverID: req.DriverID,
	}
	if req.Latitude != nil {
		update.Coordinates = &domain.Coordinates{Lat: *req.Latitude, Lon: *req.Longitude}
	}

	rec := h.locations.UpdateLocation(c.Request.Context(), vehicleID, update)
	c.JSON(http.StatusOK, toLocationResponse(rec))
}

func validateUpdateRequest(req *updateLocationRequest) string {
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return "latitude and longitude must be provided together"
	}
	if req.Latitude != nil {
		if *req.Latitude < -90 || *req.Latitude > 90 {
			return "latitude: must be between -90 and 90"
		}
		if *req.Longitude < -180 || *req.Longitude > 180 {
			return "longitude: must be between -180 and 180"
		}
	}
	return ""
}

func (h *TrackingHandler) GetLocation(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	rec, ok := h.locations.GetLocation(c.Request.Context(), vehicleID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location for vehicle"})
		return
	}
	c.JSON(http.StatusOK, toLocationResponse(rec))
}

func (h *TrackingHandler) GetHistory(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	entries := h.locations.GetHistory(c.Request.Context(), vehicleID)
	results := make([]historyResponse, len(entries))
	for i := range entries {
		results[i] = historyResponse{
			ID:               entries[i].ID,
			locationResponse: toLocationResponse(&entries[i].LocationRecord),
		}
	}
	c.JSON(http.StatusOK, results)
}

func (h *TrackingHandler) StartTracking(c *gin.Context) {
	h.locations.StartTracking(c.Request.Context(), c.Param("vehicle_id"))
	c.Status(http.StatusNoContent)
}

func (h *TrackingHandler) StopTracking(c *gin.Context) {
	h.locations.StopTracking(c.Request.Context(), c.Param("vehicle_id"))
	c.Status(http.StatusNoContent)
}

func (h *TrackingHandler) ClearHistory(c *gin.Context) {
	h.locations.ClearHistory(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// ReloadVehicles re-seeds the store from the backend. A fetch failure
// leaves existing state untouched and surfaces as a 502 so the UI can
// show a "could not refresh" toast.
func (h *TrackingHandler) ReloadVehicles(c *gin.Context) {
	if err := h.loader.LoadVehiclesFromBackend(c.Request.Context()); err != nil {
		log.Printf("reload vehicles: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not load vehicles from backend"})
		return
	}
	c.Status(http.StatusNoContent)
}

func toLocationResponse(rec *domain.LocationRecord) locationResponse {
	return locationResponse{
		VehicleID: rec.VehicleID,
		Latitude:  rec.Coordinates.Lat,
		Longitude: rec.Coordinates.Lon,
		Timestamp: rec.Timestamp.Unix(),
		Speed:     rec.Speed,
		Heading:   rec.Heading,
		DriverID:  rec.DriverID,
	}
}
