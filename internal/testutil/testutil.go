package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/auth"
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/risk"
	"github.com/harper/riskhub/internal/strategy"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Each pool connection to a :memory: DSN opens its own empty database.
	// Pin the pool to one connection so concurrent queries see the schema.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.OrgMembership{},
		&models.Risk{},
		&models.SwotFactor{},
		&models.TowsStrategy{},
		&models.StrategicObjective{},
		&models.KPI{},
		&models.LossEvent{},
		&models.ScheduledReview{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestOrg creates a test organization
func CreateTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name: "Test Hospital",
		Code: "TEST-" + uuid.New().String()[:8],
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateTestUser creates a test user with a membership in the given organization
func CreateTestUser(t *testing.T, db *gorm.DB, org *models.Organization) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:          "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash:   hash,
		Name:           "Test User",
		OrganizationID: org.ID,
		Role:           "manager",
		IsActive:       true,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	membership := &models.OrgMembership{
		UserID:         user.ID,
		OrganizationID: org.ID,
		Role:           "owner",
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create test membership: %v", err)
	}

	user.Organization = org
	return user
}

// AddMembership joins an existing user to another organization
func AddMembership(t *testing.T, db *gorm.DB, user *models.User, org *models.Organization) {
	t.Helper()

	membership := &models.OrgMembership{
		UserID:         user.ID,
		OrganizationID: org.ID,
		Role:           "member",
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create membership: %v", err)
	}
}

// CreateTestResolver creates a membership resolver with no operator allow-list
func CreateTestResolver(db *gorm.DB) *access.Resolver {
	return access.NewResolver(db, nil, access.RoleManager)
}

// CreateTestReview creates a scheduled review for the given organization
func CreateTestReview(t *testing.T, db *gorm.DB, orgID uuid.UUID, name, cronExpr string) *models.ScheduledReview {
	t.Helper()

	review := &models.ScheduledReview{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		Name:           name,
		CronExpr:       cronExpr,
		IsEnabled:      true,
		NextRunAt:      time.Now().Add(time.Hour).Unix(),
	}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("failed to create test review: %v", err)
	}
	return review
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// CreateTestRisk creates a classified risk for the given organization
func CreateTestRisk(t *testing.T, db *gorm.DB, orgID uuid.UUID, probability, impact int) *models.Risk {
	t.Helper()

	inherent, err := risk.Classify(probability, impact)
	if err != nil {
		t.Fatalf("failed to classify test risk: %v", err)
	}
	band, _ := risk.ProbabilityPercentage(probability)

	r := &models.Risk{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		Title:          "Test Risk",
		Category:       "clinical",
		Status:         models.RiskStatusOpen,
		Inherent: models.RiskAnalysis{
			Probability: inherent.Probability,
			Impact:      inherent.Impact,
			Value:       inherent.Value,
			Level:       inherent.Level,
		},
		Residual: models.RiskAnalysis{
			Probability: inherent.Probability,
			Impact:      inherent.Impact,
			Value:       inherent.Value,
			Level:       inherent.Level,
		},
		ProbabilityPercentage: band,
	}

	if err := db.Create(r).Error; err != nil {
		t.Fatalf("failed to create test risk: %v", err)
	}

	return r
}

// CreateTestStrategy creates a TOWS strategy catalog entry
func CreateTestStrategy(t *testing.T, db *gorm.DB, orgID uuid.UUID, strategyType strategy.Type, text string) *models.TowsStrategy {
	t.Helper()

	s := &models.TowsStrategy{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		Type:           strategyType,
		Text:           text,
	}

	if err := db.Create(s).Error; err != nil {
		t.Fatalf("failed to create test strategy: %v", err)
	}

	return s
}

// CreateTestObjective creates a strategic objective
func CreateTestObjective(t *testing.T, db *gorm.DB, orgID uuid.UUID, perspective strategy.Perspective, text string) *models.StrategicObjective {
	t.Helper()

	o := &models.StrategicObjective{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		Text:           text,
		Perspective:    perspective,
	}

	if err := db.Create(o).Error; err != nil {
		t.Fatalf("failed to create test objective: %v", err)
	}

	return o
}

// CreateTestKPI creates a KPI with the given target and optional realization
func CreateTestKPI(t *testing.T, db *gorm.DB, orgID uuid.UUID, target float64, realization *float64) *models.KPI {
	t.Helper()

	pct, status := risk.Achievement(realization, target)
	k := &models.KPI{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		Name:           "Test KPI",
		Target:         target,
		Realization:    realization,
		Percentage:     pct,
		Status:         status,
	}

	if err := db.Create(k).Error; err != nil {
		t.Fatalf("failed to create test KPI: %v", err)
	}

	return k
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Org        *models.Organization
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, org, user, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	org := CreateTestOrg(t, db)
	user := CreateTestUser(t, db, org)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Org:        org,
		User:       user,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
