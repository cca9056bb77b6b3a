package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/database/models/auth"
	"vinesight-backend/shared/rbac"
	utils "vinesight-backend/shared/utils/auth"
	"vinesight-backend/shared/utils/cache"
)

type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

// Login Request/Response structs
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"admin@vinesight.com"`
	Password string `json:"password" binding:"required" example:"admin123"`
	// Optional: pick the organization to log into when the user belongs to
	// more than one. Ignored when the user has a single membership.
	OrganizationID string `json:"organization_id,omitempty"`
}

type LoginResponse struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token"`
	User         UserInfo   `json:"user"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Memberships  []OrgBrief `json:"memberships"`
}

type UserInfo struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Role           string     `json:"role,omitempty"`
	Status         string     `json:"status"`
}

// OrgBrief lists an organization the user can log into.
type OrgBrief struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
}

// Register Request struct
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email" example:"user@example.com"`
	Password  string `json:"password" binding:"required,min=8" example:"securepassword123"`
	FirstName string `json:"first_name" binding:"required" example:"Elena"`
	LastName  string `json:"last_name" binding:"required" example:"Vidal"`
	Phone     string `json:"phone,omitempty"`
}

// Refresh Request struct
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// Refresh Response struct
type RefreshResponse struct {
	Token        string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string    `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt    time.Time `json:"expires_at" example:"2026-06-02T19:37:11.076935+03:00"`
}

// Validate Request struct
type ValidateRequest struct {
	Token string `json:"token" binding:"required"`
}

// Validate Response struct
type ValidateResponse struct {
	Valid          bool      `json:"valid"`
	UserID         uuid.UUID `json:"user_id,omitempty"`
	Email          string    `json:"email,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Role           string    `json:"role,omitempty"`
	ExpiresAt      time.Time `json:"expires_at,omitempty"`
}

// Switch Organization Request struct
type SwitchOrganizationRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
}

// POST /api/auth/login
// @Summary User login
// @Description Authenticate a user and return JWT tokens scoped to an organization
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login credentials"
// @Success 200 {object} handlers.LoginResponse "Successful login"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 429 {object} map[string]string "Too many login attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Rate limiting control (login attempt)
	clientIP := c.ClientIP()
	if h.isRateLimited(req.Email, clientIP) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts. Please try again later."})
		return
	}

	// Find user by email
	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		h.recordFailedLogin(req.Email, clientIP, "User not found")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// Check if user is active
	if user.Status != "ACTIVE" {
		h.recordFailedLogin(req.Email, clientIP, "User inactive")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is inactive"})
		return
	}

	// Check password
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		h.recordFailedLogin(req.Email, clientIP, "Invalid password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// Load active memberships and pick the login organization
	memberships, err := h.activeMemberships(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load memberships"})
		return
	}

	selected, err := pickMembership(memberships, req.OrganizationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var orgID *uuid.UUID
	var role string
	if selected != nil {
		orgID = &selected.OrganizationID
		role = selected.Role
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, orgID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	refreshToken, err := utils.GenerateRefreshJWT(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate refresh token"})
		return
	}

	// Set up user session
	sessionID, _ := utils.GenerateSessionID()
	expireDuration := utils.GetJWTExpireDuration()
	userSession := auth.UserSession{
		UserID:       user.ID,
		SessionID:    sessionID,
		TokenHash:    token[:32],
		RefreshToken: refreshToken,
		IPAddress:    clientIP,
		UserAgent:    c.GetHeader("User-Agent"),
		ExpiresAt:    time.Now().Add(expireDuration),
		IsActive:     true,
	}

	if err := h.db.Create(&userSession).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create session"})
		return
	}

	h.recordSuccessfulLogin(user.Email, clientIP)

	response := LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(expireDuration),
		User: UserInfo{
			ID:             user.ID,
			Email:          user.Email,
			FirstName:      user.FirstName,
			LastName:       user.LastName,
			OrganizationID: orgID,
			Role:           role,
			Status:         user.Status,
		},
		Memberships: orgBriefs(memberships),
	}

	c.JSON(http.StatusOK, response)
}

// POST /api/auth/register
// @Summary Register new user
// @Description Register a new user account. The user starts without an organization.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body RegisterRequest true "User registration data"
// @Success 201 {object} map[string]interface{} "User registered successfully"
// @Failure 400 {object} map[string]string "Invalid request format or validation error"
// @Failure 409 {object} map[string]string "Email already exists"
// @Failure 500 {object} map[string]string "Failed to register user"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Check email uniqueness
	var existingUser models.User
	if err := h.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}

	user := models.User{
		Email:     req.Email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Status:    "ACTIVE",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
	})
}

// POST /api/auth/refresh
// @Summary Refresh JWT token
// @Description Refresh an expired JWT token using a valid refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body RefreshRequest true "Refresh token"
// @Success 200 {object} handlers.RefreshResponse "Successfully refreshed tokens"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Invalid refresh token or user inactive"
// @Failure 500 {object} map[string]string "Failed to generate new tokens"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := utils.ValidateJWT(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	userID, _ := uuid.Parse(claims.UserID)
	var userSession auth.UserSession
	if err := h.db.Where("user_id = ? AND refresh_token = ? AND is_active = ?",
		userID, req.RefreshToken, true).First(&userSession).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token not found or expired"})
		return
	}

	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	if user.Status != "ACTIVE" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is inactive"})
		return
	}

	// The refreshed token keeps the organization scope of the old one,
	// re-read from the membership table so a role change or removal since
	// login takes effect immediately.
	var orgID *uuid.UUID
	var role string
	if claims.OrganizationID != "" {
		parsedOrgID, parseErr := uuid.Parse(claims.OrganizationID)
		if parseErr == nil {
			var membership models.OrganizationMembership
			if err := h.db.Where("user_id = ? AND organization_id = ? AND deleted = ?",
				userID, parsedOrgID, false).First(&membership).Error; err == nil {
				orgID = &membership.OrganizationID
				role = membership.Role
			}
		}
	}

	newToken, err := utils.GenerateJWT(user.ID, user.Email, orgID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	newRefreshToken, err := utils.GenerateRefreshJWT(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate refresh token"})
		return
	}

	expireDuration := utils.GetJWTExpireDuration()
	userSession.TokenHash = newToken[:32]
	userSession.RefreshToken = newRefreshToken
	userSession.ExpiresAt = time.Now().Add(expireDuration)
	userSession.UpdatedAt = time.Now()

	if err := h.db.Save(&userSession).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update session"})
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		Token:        newToken,
		RefreshToken: newRefreshToken,
		ExpiresAt:    time.Now().Add(expireDuration),
	})
}

// POST /api/auth/logout
// @Summary User logout
// @Description Logout the currently authenticated user and revoke the token
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "Logged out successfully"
// @Failure 400 {object} map[string]string "Token required"
// @Failure 401 {object} map[string]string "Invalid token"
// @Failure 500 {object} map[string]string "Could not logout"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := c.GetHeader("Authorization")
	if tokenString == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token required"})
		return
	}

	if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
		tokenString = tokenString[7:]
	}

	claims, err := utils.ValidateJWT(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	tokenHash := tokenString[:32]
	userID, _ := uuid.Parse(claims.UserID)

	// Set session passive
	if err := h.db.Model(&auth.UserSession{}).
		Where("user_id = ? AND token_hash = ? AND is_active = ?", userID, tokenHash, true).
		Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not logout"})
		return
	}

	// Blacklist until natural expiry so the token dies immediately
	blacklistedToken := auth.BlacklistedToken{
		UserID:        userID,
		TokenHash:     tokenHash,
		ExpiresAt:     claims.ExpiresAt.Time,
		BlacklistedAt: time.Now(),
	}
	h.db.Create(&blacklistedToken)

	if cm := cache.GetCacheManager(); cm != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			cm.BlacklistToken(tokenHash, ttl)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// POST /api/auth/validate
// @Summary Validate JWT token
// @Description Validate a JWT token and return its claims
// @Tags auth
// @Accept json
// @Produce json
// @Param validate body ValidateRequest true "JWT token to validate"
// @Success 200 {object} handlers.ValidateResponse "Token validation result"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Router /auth/validate [post]
func (h *AuthHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := utils.ValidateJWT(req.Token)
	if err != nil || claims.ExpiresAt.Time.Before(time.Now()) {
		c.JSON(http.StatusOK, ValidateResponse{Valid: false})
		return
	}

	userID, _ := uuid.Parse(claims.UserID)
	tokenHash := req.Token[:32]

	// Check if token is blacklisted
	var blacklistedToken auth.BlacklistedToken
	if err := h.db.Where("user_id = ? AND token_hash = ?", userID, tokenHash).First(&blacklistedToken).Error; err == nil {
		c.JSON(http.StatusOK, ValidateResponse{Valid: false})
		return
	}

	var userSession auth.UserSession
	if err := h.db.Where("user_id = ? AND token_hash = ? AND is_active = ?",
		userID, tokenHash, true).First(&userSession).Error; err != nil {
		c.JSON(http.StatusOK, ValidateResponse{Valid: false})
		return
	}

	c.JSON(http.StatusOK, ValidateResponse{
		Valid:          true,
		UserID:         userID,
		Email:          claims.Email,
		OrganizationID: claims.OrganizationID,
		Role:           claims.Role,
		ExpiresAt:      claims.ExpiresAt.Time,
	})
}

// POST /api/auth/switch-organization
// @Summary Switch active organization
// @Description Issue new tokens scoped to another organization the user belongs to
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param switch body SwitchOrganizationRequest true "Target organization"
// @Success 200 {object} handlers.RefreshResponse "New tokens for the selected organization"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Invalid token"
// @Failure 403 {object} map[string]string "Not a member of the organization"
// @Router /auth/switch-organization [post]
func (h *AuthHandler) SwitchOrganization(c *gin.Context) {
	var req SwitchOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	userID := userIDValue.(uuid.UUID)

	var membership models.OrganizationMembership
	if err := h.db.Where("user_id = ? AND organization_id = ? AND deleted = ?",
		userID, req.OrganizationID, false).First(&membership).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of the organization"})
		return
	}

	if _, parseErr := rbac.ParseRole(membership.Role); parseErr != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Membership has no valid role"})
		return
	}

	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, &membership.OrganizationID, membership.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	refreshToken, err := utils.GenerateRefreshJWT(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate refresh token"})
		return
	}

	expireDuration := utils.GetJWTExpireDuration()
	sessionID, _ := utils.GenerateSessionID()
	userSession := auth.UserSession{
		UserID:       user.ID,
		SessionID:    sessionID,
		TokenHash:    token[:32],
		RefreshToken: refreshToken,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.GetHeader("User-Agent"),
		ExpiresAt:    time.Now().Add(expireDuration),
		IsActive:     true,
	}
	if err := h.db.Create(&userSession).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create session"})
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(expireDuration),
	})
}

// activeMemberships loads the user's non-deleted memberships with the
// organization preloaded, skipping rows whose role is no longer known.
func (h *AuthHandler) activeMemberships(userID uuid.UUID) ([]models.OrganizationMembership, error) {
	var memberships []models.OrganizationMembership
	if err := h.db.Preload("Organization").
		Where("user_id = ? AND deleted = ?", userID, false).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	valid := memberships[:0]
	for _, m := range memberships {
		if _, err := rbac.ParseRole(m.Role); err == nil {
			valid = append(valid, m)
		}
	}
	return valid, nil
}

// pickMembership selects the organization scope for a new token. With a
// single membership the choice is implicit; with several the client must
// name one; with none the user logs in without an organization.
func pickMembership(memberships []models.OrganizationMembership, requested string) (*models.OrganizationMembership, error) {
	if len(memberships) == 0 {
		return nil, nil
	}

	if requested == "" {
		return &memberships[0], nil
	}

	orgID, err := uuid.Parse(requested)
	if err != nil {
		return nil, errInvalidOrganization
	}
	for i := range memberships {
		if memberships[i].OrganizationID == orgID {
			return &memberships[i], nil
		}
	}
	return nil, errInvalidOrganization
}

var errInvalidOrganization = &organizationError{}

type organizationError struct{}

func (e *organizationError) Error() string {
	return "organization_id does not match any of your memberships"
}

func orgBriefs(memberships []models.OrganizationMembership) []OrgBrief {
	briefs := make([]OrgBrief, 0, len(memberships))
	for _, m := range memberships {
		briefs = append(briefs, OrgBrief{
			OrganizationID: m.OrganizationID,
			Name:           m.Organization.Name,
			Role:           m.Role,
		})
	}
	return briefs
}

// Rate limiting helpers. Redis answers first; the login_attempts table is
// the fallback when Redis is unavailable.
func (h *AuthHandler) isRateLimited(email, ipAddress string) bool {
	if cm := cache.GetCacheManager(); cm != nil {
		count, err := cm.IncrementRateLimit("login", email+":"+ipAddress, 15*time.Minute)
		if err == nil {
			return count > 5
		}
	}

	var count int64
	h.db.Model(&auth.LoginAttempt{}).
		Where("(email = ? OR ip_address = ?) AND successful = ? AND created_at > ?",
			email, ipAddress, false, time.Now().Add(-15*time.Minute)).
		Count(&count)
	return count >= 5
}

func (h *AuthHandler) recordFailedLogin(email, ipAddress, failureType string) {
	attempt := auth.LoginAttempt{
		Email:       email,
		IPAddress:   ipAddress,
		Successful:  false,
		FailureType: failureType,
		Attempts:    1,
		LastAttempt: time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	h.db.Create(&attempt)
}

func (h *AuthHandler) recordSuccessfulLogin(email, ipAddress string) {
	attempt := auth.LoginAttempt{
		Email:       email,
		IPAddress:   ipAddress,
		Successful:  true,
		Attempts:    1,
		LastAttempt: time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	h.db.Create(&attempt)
}
