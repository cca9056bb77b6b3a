package handlers

import (
	"net/http"
	"time"

	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/rbac"
	"vinesight-backend/shared/utils/query"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskResponse represents a task for API responses
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	FarmID      uuid.UUID  `json:"farm_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Source      string     `json:"source"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   string     `json:"created_at"`
}

// CreateTaskRequest represents request body for creating a task
type CreateTaskRequest struct {
	FarmID      uuid.UUID  `json:"farm_id" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low normal high"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest represents request body for updating a task
type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=open done dismissed"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low normal high"`
	DueDate     *time.Time `json:"due_date"`
}

func taskResponse(t models.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		FarmID:      t.FarmID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Source:      t.Source,
		DueDate:     t.DueDate,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// GetTasks lists tasks of a farm
// @Summary List farm tasks
// @Description List tasks of one farm with pagination and status filter
// @Tags tasks
// @Accept json
// @Produce json
// @Param farm_id query string true "Farm ID" format(uuid)
// @Param filters[status] query string false "Filter by status (open, done, dismissed)"
// @Param filters[source] query string false "Filter by source (manual, advisor)"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 20)"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Missing or invalid farm_id"
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /tasks [get]
func GetTasks(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	farmID, err := uuid.Parse(ctx.Query("farm_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "farm_id query parameter is required", "message": err.Error()})
		return
	}

	if _, ok := farmAuthorized(ctx, actorID, farmID, rbac.ResourceTaskRecords, rbac.PermissionRead); !ok {
		return
	}

	params := query.ParseQueryParams(ctx)

	db := database.GetDB()
	dbQuery := db.Model(&models.Task{}).Where("farm_id = ?", farmID)

	allowedFilters := map[string]string{
		"status":   "status",
		"source":   "source",
		"priority": "priority",
	}
	allowedSortFields := map[string]string{
		"due_date":   "due_date",
		"priority":   "priority",
		"status":     "status",
		"created_at": "created_at",
	}

	dbQuery = query.ApplyFilters(dbQuery, params.Filters, allowedFilters)
	dbQuery = query.ApplySort(dbQuery, params.Sort, allowedSortFields)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count tasks", "message": err.Error()})
		return
	}

	dbQuery = query.ApplyPagination(dbQuery, params.Page, params.Limit)

	var tasks []models.Task
	if err := dbQuery.Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks", "message": err.Error()})
		return
	}

	items := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, taskResponse(t))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":      items,
			"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
		},
	})
}

// CreateTask creates a manual task on a farm
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param task body CreateTaskRequest true "Task data"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created task"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Farm not found"
// @Router /tasks [post]
func CreateTask(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	farm, ok := farmAuthorized(ctx, actorID, req.FarmID, rbac.ResourceTaskRecords, rbac.PermissionCreate)
	if !ok {
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}

	task := models.Task{
		FarmID:      req.FarmID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusOpen,
		Priority:    priority,
		Source:      models.TaskSourceManual,
		DueDate:     req.DueDate,
		CreatedBy:   actorID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	db := database.GetDB()
	if err := db.Create(&task).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task", "message": err.Error()})
		return
	}

	if farm.OrganizationID != nil {
		if _, err := recorder.LogCreate(ctx.Request.Context(), *farm.OrganizationID, rbac.ResourceTaskRecords, task.ID.String(), task); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    taskResponse(task),
	})
}

// UpdateTask updates a task
// @Summary Update a task
// @Description Update a task's fields or move it between open, done and dismissed
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID" format(uuid)
// @Param task body UpdateTaskRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated task"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Task not found"
// @Router /tasks/{id} [put]
func UpdateTask(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	task, ok := loadTask(ctx)
	if !ok {
		return
	}

	farm, ok := farmAuthorized(ctx, actorID, task.FarmID, rbac.ResourceTaskRecords, rbac.PermissionUpdate)
	if !ok {
		return
	}

	oldTask := *task

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	task.UpdatedAt = time.Now()

	db := database.GetDB()
	if err := db.Save(task).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task", "message": err.Error()})
		return
	}

	if farm.OrganizationID != nil {
		if _, err := recorder.LogUpdate(ctx.Request.Context(), *farm.OrganizationID, rbac.ResourceTaskRecords, task.ID.String(), oldTask, task); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    taskResponse(*task),
	})
}

// DeleteTask deletes a task
// @Summary Delete a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]string "Task deleted"
// @Failure 400 {object} map[string]string "Invalid task ID format"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Task not found"
// @Router /tasks/{id} [delete]
func DeleteTask(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	task, ok := loadTask(ctx)
	if !ok {
		return
	}

	farm, ok := farmAuthorized(ctx, actorID, task.FarmID, rbac.ResourceTaskRecords, rbac.PermissionDelete)
	if !ok {
		return
	}

	if farm.OrganizationID != nil {
		if _, err := recorder.LogDelete(ctx.Request.Context(), *farm.OrganizationID, rbac.ResourceTaskRecords, task.ID.String(), task); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	if err := database.GetDB().Delete(&models.Task{}, task.ID).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task", "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted"})
}

func loadTask(ctx *gin.Context) (*models.Task, bool) {
	taskUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format", "message": err.Error()})
		return nil, false
	}

	var task models.Task
	if err := database.GetDB().First(&task, taskUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return nil, false
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task", "message": err.Error()})
		return nil, false
	}
	return &task, true
}
