package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vinesight-backend/shared/config"
)

// PermissionCheck represents a single permission check request
type PermissionCheck struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Resource       string `json:"resource"`
	Permission     string `json:"permission"`
	FarmID         string `json:"farm_id,omitempty"`
}

// PermissionCheckResponse represents the response from permission service
type PermissionCheckResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// BatchPermissionCheckRequest represents batch permission check request
type BatchPermissionCheckRequest struct {
	UserID         string                    `json:"user_id"`
	OrganizationID string                    `json:"organization_id"`
	Checks         []ResourcePermissionCheck `json:"checks"`
}

type ResourcePermissionCheck struct {
	Resource   string `json:"resource"`
	Permission string `json:"permission"`
	FarmID     string `json:"farm_id,omitempty"`
}

// BatchPermissionCheckResponse represents batch permission check response
type BatchPermissionCheckResponse struct {
	Results map[string]bool `json:"results"` // key: "resource:permission", value: allowed
}

// PermissionClient handles communication with permission service
type PermissionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPermissionClient creates a new permission service client
func NewPermissionClient(baseURL string) *PermissionClient {
	return &PermissionClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// CheckPermission asks the permission service for a decision. An error
// means the check could not be performed; callers must treat that as
// forbidden, not as an implicit grant.
func (pc *PermissionClient) CheckPermission(check PermissionCheck) (bool, error) {
	jsonData, err := json.Marshal(check)
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %v", err)
	}

	resp, err := pc.httpClient.Post(
		fmt.Sprintf("%s/api/permissions/check", pc.baseURL),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return false, fmt.Errorf("failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("permission service returned status: %d", resp.StatusCode)
	}

	var result PermissionCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode response: %v", err)
	}

	return result.Allowed, nil
}

// BatchCheckPermissions checks multiple permissions at once
func (pc *PermissionClient) BatchCheckPermissions(userID, organizationID string, checks []ResourcePermissionCheck) (map[string]bool, error) {
	request := BatchPermissionCheckRequest{
		UserID:         userID,
		OrganizationID: organizationID,
		Checks:         checks,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	resp, err := pc.httpClient.Post(
		fmt.Sprintf("%s/api/permissions/batch-check", pc.baseURL),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("permission service returned status: %d", resp.StatusCode)
	}

	var result BatchPermissionCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	return result.Results, nil
}

// Global permission client instance
var defaultPermissionClient *PermissionClient

// InitPermissionClient initializes the global permission client
func InitPermissionClient() {
	defaultPermissionClient = NewPermissionClient(config.GetConfig().PermissionServiceURL)
}

// CheckPermission is a convenience function using the global client
func CheckPermission(check PermissionCheck) (bool, error) {
	if defaultPermissionClient == nil {
		InitPermissionClient()
	}
	return defaultPermissionClient.CheckPermission(check)
}

// BatchCheckPermissions is a convenience function using the global client
func BatchCheckPermissions(userID, organizationID string, checks []ResourcePermissionCheck) (map[string]bool, error) {
	if defaultPermissionClient == nil {
		InitPermissionClient()
	}
	return defaultPermissionClient.BatchCheckPermissions(userID, organizationID, checks)
}
