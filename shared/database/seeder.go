package database

import (
	"log"
	"time"

	"vinesight-backend/shared/config"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/rbac"
	utils "vinesight-backend/shared/utils/auth"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SeedDatabase creates the platform admin and, when SEED_DEMO_DATA is
// set, a demo organization with farms and memberships for local work.
func SeedDatabase() error {
	log.Println("🌱 Checking database seed data...")

	admin, err := createPlatformAdmin()
	if err != nil {
		return err
	}

	if config.GetConfig().SeedDemoData {
		if err := seedDemoOrganization(admin); err != nil {
			return err
		}
	}

	log.Println("✅ Database seed data is up to date")
	return nil
}

// createPlatformAdmin ensures the configured admin account exists.
func createPlatformAdmin() (*models.User, error) {
	cfg := config.GetConfig()

	var existing models.User
	if err := DB.Where("email = ?", cfg.PlatformAdminEmail).First(&existing).Error; err == nil {
		return &existing, nil
	}

	hashed, err := utils.HashPassword(cfg.PlatformAdminPassword)
	if err != nil {
		return nil, err
	}

	admin := models.User{
		Email:         cfg.PlatformAdminEmail,
		Password:      hashed,
		FirstName:     "Platform",
		LastName:      "Admin",
		Status:        "ACTIVE",
		EmailVerified: true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return nil, err
	}

	log.Printf("👤 Platform admin created: %s", cfg.PlatformAdminEmail)
	return &admin, nil
}

// seedDemoOrganization creates a sample business organization, two farms
// and a couple of memberships with distinct roles. Idempotent on the
// organization name.
func seedDemoOrganization(admin *models.User) error {
	var existing models.Organization
	if err := DB.Where("name = ?", "Demo Vineyards").First(&existing).Error; err == nil {
		return nil
	}

	org := models.Organization{
		Name:             "Demo Vineyards",
		Type:             models.OrgTypeBusiness,
		SubscriptionTier: "pro",
		Status:           "ACTIVE",
		CreatedBy:        admin.ID,
	}
	if err := DB.Create(&org).Error; err != nil {
		return err
	}

	// Creator gets the implicit owner membership.
	ownerMembership := models.OrganizationMembership{
		OrganizationID: org.ID,
		UserID:         admin.ID,
		Role:           string(rbac.RoleOwner),
	}
	if err := DB.Create(&ownerMembership).Error; err != nil {
		return err
	}

	northField := models.Farm{
		Name:           "North Field",
		OwnerID:        admin.ID,
		OrganizationID: &org.ID,
		Visibility:     models.FarmVisibilityOrgWide,
		Region:         "Barossa",
		AreaHectares:   12.5,
		GrapeVariety:   "Shiraz",
	}
	southBlock := models.Farm{
		Name:           "South Block",
		OwnerID:        admin.ID,
		OrganizationID: &org.ID,
		Visibility:     models.FarmVisibilityPrivate,
		Region:         "Barossa",
		AreaHectares:   8.2,
		GrapeVariety:   "Grenache",
	}
	for _, farm := range []*models.Farm{&northField, &southBlock} {
		if err := DB.Create(farm).Error; err != nil {
			return err
		}
	}

	// A worker scoped to the private block only.
	workerPassword, err := utils.HashPassword("worker123")
	if err != nil {
		return err
	}
	worker := models.User{
		Email:         "worker@vinesight.app",
		Password:      workerPassword,
		FirstName:     "Demo",
		LastName:      "Worker",
		Status:        "ACTIVE",
		EmailVerified: true,
	}
	if err := DB.Create(&worker).Error; err != nil {
		return err
	}
	workerMembership := models.OrganizationMembership{
		OrganizationID:  org.ID,
		UserID:          worker.ID,
		Role:            string(rbac.RoleFieldWorker),
		AssignedFarmIDs: datatypes.NewJSONSlice([]uuid.UUID{southBlock.ID}),
		InvitedBy:       &admin.ID,
	}
	if err := DB.Create(&workerMembership).Error; err != nil {
		return err
	}

	// One irrigation record so dashboards are not empty.
	record := models.FarmRecord{
		FarmID:     northField.ID,
		RecordType: models.RecordTypeIrrigation,
		RecordDate: time.Now().UTC().AddDate(0, 0, -2),
		Payload:    datatypes.JSON([]byte(`{"duration_hours": 4, "flow_rate_lph": 120}`)),
		Notes:      "Drip line A, pre-dawn run",
		CreatedBy:  admin.ID,
	}
	if err := DB.Create(&record).Error; err != nil {
		return err
	}

	log.Printf("🌱 Demo organization seeded: %s", org.Name)
	return nil
}
