package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/rbac"
	"vinesight-backend/shared/utils/query"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordResponse represents a farm record for API responses
type RecordResponse struct {
	ID         uuid.UUID      `json:"id"`
	FarmID     uuid.UUID      `json:"farm_id"`
	RecordType string         `json:"record_type"`
	RecordDate time.Time      `json:"record_date"`
	Payload    datatypes.JSON `json:"payload"`
	Notes      string         `json:"notes"`
	CreatedBy  uuid.UUID      `json:"created_by"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// CreateRecordRequest represents request body for creating a farm record
type CreateRecordRequest struct {
	FarmID     uuid.UUID              `json:"farm_id" binding:"required"`
	RecordType string                 `json:"record_type" binding:"required"`
	RecordDate time.Time              `json:"record_date" binding:"required"`
	Payload    map[string]interface{} `json:"payload"`
	Notes      string                 `json:"notes"`
}

// UpdateRecordRequest represents request body for updating a farm record.
// The record type and farm are fixed at creation.
type UpdateRecordRequest struct {
	RecordDate *time.Time             `json:"record_date"`
	Payload    map[string]interface{} `json:"payload"`
	Notes      *string                `json:"notes"`
}

func recordResponse(r models.FarmRecord) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		FarmID:     r.FarmID,
		RecordType: r.RecordType,
		RecordDate: r.RecordDate,
		Payload:    r.Payload,
		Notes:      r.Notes,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  r.UpdatedAt.Format(time.RFC3339),
	}
}

// recordResource maps a record type to the resource guarding it. Unknown
// types are a 400, not a denial: the request is malformed, not forbidden.
func recordResource(ctx *gin.Context, recordType string) (rbac.Resource, bool) {
	resource, ok := rbac.ResourceForRecordType(recordType)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown record type", "record_type": recordType})
		return "", false
	}
	return resource, true
}

// GetRecords lists records of a farm
// @Summary List farm records
// @Description List records of one farm with pagination, type filter and date range
// @Tags records
// @Accept json
// @Produce json
// @Param farm_id query string true "Farm ID" format(uuid)
// @Param filters[record_type] query string false "Filter by record type"
// @Param from query string false "Start of date range (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End of date range (RFC3339 or YYYY-MM-DD)"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 20)"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Missing or invalid farm_id"
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /records [get]
func GetRecords(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	farmID, err := uuid.Parse(ctx.Query("farm_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "farm_id query parameter is required", "message": err.Error()})
		return
	}

	params := query.ParseQueryParams(ctx)

	// Listing is gated by the generic records resource; the per-type
	// resources guard writes. Every role that can see a farm can read
	// its records.
	if _, ok := farmAuthorized(ctx, actorID, farmID, rbac.ResourceRecords, rbac.PermissionRead); !ok {
		return
	}

	db := database.GetDB()
	dbQuery := db.Model(&models.FarmRecord{}).Where("farm_id = ?", farmID)

	allowedFilters := map[string]string{
		"record_type": "record_type",
		"created_by":  "created_by",
	}
	allowedSortFields := map[string]string{
		"record_date": "record_date",
		"record_type": "record_type",
		"created_at":  "created_at",
	}

	dbQuery = query.ApplyFilters(dbQuery, params.Filters, allowedFilters)
	dbQuery = query.ApplyDateRange(dbQuery, "record_date", params.From, params.To)
	dbQuery = query.ApplySort(dbQuery, params.Sort, allowedSortFields)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count records", "message": err.Error()})
		return
	}

	dbQuery = query.ApplyPagination(dbQuery, params.Page, params.Limit)

	var records []models.FarmRecord
	if err := dbQuery.Find(&records).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve records", "message": err.Error()})
		return
	}

	items := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, recordResponse(r))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":      items,
			"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
		},
	})
}

// GetRecord retrieves a single record by ID
// @Summary Get record by ID
// @Tags records
// @Accept json
// @Produce json
// @Param id path string true "Record ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid record ID format"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Record not found"
// @Router /records/{id} [get]
func GetRecord(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	record, ok := loadRecord(ctx)
	if !ok {
		return
	}

	resource, ok := recordResource(ctx, record.RecordType)
	if !ok {
		return
	}
	if _, ok := farmAuthorized(ctx, actorID, record.FarmID, resource, rbac.PermissionRead); !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    recordResponse(*record),
	})
}

// CreateRecord creates a farm record
// @Summary Create a farm record
// @Description Create a record on a farm. Requires create permission on the record type's resource and access to the farm.
// @Tags records
// @Accept json
// @Produce json
// @Param record body CreateRecordRequest true "Record data"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created record"
// @Failure 400 {object} map[string]string "Invalid request or unknown record type"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Farm not found"
// @Router /records [post]
func CreateRecord(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	var req CreateRecordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	resource, ok := recordResource(ctx, req.RecordType)
	if !ok {
		return
	}

	farm, ok := farmAuthorized(ctx, actorID, req.FarmID, resource, rbac.PermissionCreate)
	if !ok {
		return
	}

	payload, err := marshalPayload(req.Payload)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "message": err.Error()})
		return
	}

	record := models.FarmRecord{
		FarmID:     req.FarmID,
		RecordType: req.RecordType,
		RecordDate: req.RecordDate,
		Payload:    payload,
		Notes:      req.Notes,
		CreatedBy:  actorID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	db := database.GetDB()
	if err := db.Create(&record).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create record", "message": err.Error()})
		return
	}

	if farm.OrganizationID != nil {
		if _, err := recorder.LogCreate(ctx.Request.Context(), *farm.OrganizationID, resource, record.ID.String(), record); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    recordResponse(record),
	})
}

// UpdateRecord updates a farm record
// @Summary Update a farm record
// @Tags records
// @Accept json
// @Produce json
// @Param id path string true "Record ID" format(uuid)
// @Param record body UpdateRecordRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated record"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Record not found"
// @Router /records/{id} [put]
func UpdateRecord(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	var req UpdateRecordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	record, ok := loadRecord(ctx)
	if !ok {
		return
	}

	resource, ok := recordResource(ctx, record.RecordType)
	if !ok {
		return
	}
	farm, ok := farmAuthorized(ctx, actorID, record.FarmID, resource, rbac.PermissionUpdate)
	if !ok {
		return
	}

	oldRecord := *record

	if req.RecordDate != nil {
		record.RecordDate = *req.RecordDate
	}
	if req.Payload != nil {
		payload, err := marshalPayload(req.Payload)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "message": err.Error()})
			return
		}
		record.Payload = payload
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	record.UpdatedAt = time.Now()

	db := database.GetDB()
	if err := db.Save(record).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update record", "message": err.Error()})
		return
	}

	if farm.OrganizationID != nil {
		if _, err := recorder.LogUpdate(ctx.Request.Context(), *farm.OrganizationID, resource, record.ID.String(), oldRecord, record); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    recordResponse(*record),
	})
}

// DeleteRecord deletes a farm record
// @Summary Delete a farm record
// @Tags records
// @Accept json
// @Produce json
// @Param id path string true "Record ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]string "Record deleted"
// @Failure 400 {object} map[string]string "Invalid record ID format"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Record not found"
// @Router /records/{id} [delete]
func DeleteRecord(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	record, ok := loadRecord(ctx)
	if !ok {
		return
	}

	resource, ok := recordResource(ctx, record.RecordType)
	if !ok {
		return
	}
	farm, ok := farmAuthorized(ctx, actorID, record.FarmID, resource, rbac.PermissionDelete)
	if !ok {
		return
	}

	if farm.OrganizationID != nil {
		if _, err := recorder.LogDelete(ctx.Request.Context(), *farm.OrganizationID, resource, record.ID.String(), record); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	db := database.GetDB()
	if err := db.Delete(&models.FarmRecord{}, record.ID).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete record", "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Record deleted"})
}

// loadRecord fetches the record named in the path, writing the error
// response itself on failure.
func loadRecord(ctx *gin.Context) (*models.FarmRecord, bool) {
	recordUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID format", "message": err.Error()})
		return nil, false
	}

	var record models.FarmRecord
	if err := database.GetDB().First(&record, recordUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return nil, false
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve record", "message": err.Error()})
		return nil, false
	}
	return &record, true
}

func marshalPayload(payload map[string]interface{}) (datatypes.JSON, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
