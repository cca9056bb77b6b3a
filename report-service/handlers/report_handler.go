package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"vinesight-backend/report-service/services"
	"vinesight-backend/shared/audit"
	"vinesight-backend/shared/config"
	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/middleware"
	"vinesight-backend/shared/rbac"
	"vinesight-backend/shared/utils/query"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	engine   *rbac.Engine
	recorder *audit.Recorder
	reports  *services.ReportService
	exports  *services.MinIOService
)

// Init wires the authorization engine, the audit recorder, the report
// builder and the export store. Must be called after database.InitDatabase.
func Init(minioService *services.MinIOService) error {
	e, err := rbac.New(rbac.NewGormStore(database.GetDB()))
	if err != nil {
		return err
	}
	engine = e
	recorder = audit.NewRecorder(database.GetDB())
	reports = services.NewReportService(database.GetDB())
	exports = minioService
	return nil
}

func actorOnly(c *gin.Context) (uuid.UUID, bool) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}
	return actorID, true
}

// farmAuthorized fetches the farm and checks reports access against it.
func farmAuthorized(ctx *gin.Context, actorID, farmID uuid.UUID, permission rbac.Permission) (*models.Farm, bool) {
	var farm models.Farm
	if err := database.GetDB().First(&farm, farmID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Farm not found"})
			return nil, false
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve farm", "message": err.Error()})
		return nil, false
	}

	var orgID uuid.UUID
	if farm.OrganizationID != nil {
		orgID = *farm.OrganizationID
	}

	allowed, err := engine.HasPermission(ctx.Request.Context(), actorID, orgID, rbac.ResourceReports, permission, &farmID)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authorization check failed", "message": err.Error()})
		return nil, false
	}
	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return nil, false
	}
	return &farm, true
}

// GetFarmSummary returns the aggregate view of a farm's records
// @Summary Farm summary report
// @Description Aggregate record counts, expense and harvest totals, and open task count for one farm
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Farm ID" format(uuid)
// @Param from query string false "Start of date range (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End of date range (RFC3339 or YYYY-MM-DD)"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid farm ID format"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Farm not found"
// @Router /reports/farms/{id}/summary [get]
func GetFarmSummary(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	farmUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farm ID format", "message": err.Error()})
		return
	}

	if _, ok := farmAuthorized(ctx, actorID, farmUUID, rbac.PermissionRead); !ok {
		return
	}

	params := query.ParseQueryParams(ctx)

	summary, err := reports.Summarize(ctx.Request.Context(), farmUUID, params.From, params.To)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary", "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// ExportFarmRecords exports a farm's records to CSV
// @Summary Export farm records
// @Description Build a CSV export of a farm's records, store it, and return a time-limited download link. Requires reports create permission.
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Farm ID" format(uuid)
// @Param record_type query string false "Limit export to one record type"
// @Param from query string false "Start of date range (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End of date range (RFC3339 or YYYY-MM-DD)"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Download link and expiry"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Farm not found"
// @Router /reports/farms/{id}/export [post]
func ExportFarmRecords(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	farmUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farm ID format", "message": err.Error()})
		return
	}

	farm, ok := farmAuthorized(ctx, actorID, farmUUID, rbac.PermissionCreate)
	if !ok {
		return
	}

	params := query.ParseQueryParams(ctx)
	recordType := ctx.Query("record_type")
	if recordType != "" {
		if _, known := rbac.ResourceForRecordType(recordType); !known {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown record type", "record_type": recordType})
			return
		}
	}

	records, err := reports.FetchRecords(ctx.Request.Context(), farmUUID, recordType, params.From, params.To)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records", "message": err.Error()})
		return
	}

	content, err := reports.BuildRecordsCSV(records)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export", "message": err.Error()})
		return
	}

	orgPrefix := "individual/" + farm.OwnerID.String()
	if farm.OrganizationID != nil {
		orgPrefix = "org/" + farm.OrganizationID.String()
	}
	fileName := fmt.Sprintf("farm-%s-records-%s.csv", farm.ID, time.Now().Format("20060102-150405"))

	objectKey, err := exports.UploadExport(ctx.Request.Context(), orgPrefix, fileName,
		bytes.NewReader(content), int64(len(content)), "text/csv")
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store export", "message": err.Error()})
		return
	}

	expiry := time.Duration(config.GetConfig().GetReportExportURLExpireMinutes()) * time.Minute
	downloadURL, err := exports.PresignedDownloadURL(ctx.Request.Context(), objectKey, expiry)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to presign download", "message": err.Error()})
		return
	}

	// Exports of organization data leave the system, so the audit entry is
	// mandatory: storage failure above or recorder failure here both stop
	// the response from carrying a link.
	if farm.OrganizationID != nil {
		metadata := map[string]interface{}{
			"object_key":   objectKey,
			"record_count": len(records),
			"record_type":  recordType,
		}
		if params.From != nil {
			metadata["from"] = params.From.Format(time.RFC3339)
		}
		if params.To != nil {
			metadata["to"] = params.To.Format(time.RFC3339)
		}
		if _, err := recorder.LogExport(ctx.Request.Context(), *farm.OrganizationID, rbac.ResourceReports, farm.ID.String(), metadata); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"download_url": downloadURL,
			"expires_in":   expiry.String(),
			"record_count": len(records),
		},
	})
}
