//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/auth"
	"github.com/harper/riskhub/internal/database"
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/risk"
	"github.com/harper/riskhub/internal/strategy"
	"github.com/harper/riskhub/pkg/config"
	"github.com/harper/riskhub/pkg/util"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create admin user with a demo hospital
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}
	if name == "" {
		name = "Admin"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
		OrgName:  "Demo General Hospital",
	})

	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	orgID := resp.User.OrganizationID
	seedDemoData(db, orgID)

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Organization: %s\n", resp.User.Organization.Name)
	fmt.Printf("Token: %s\n", resp.Token)
}

func seedDemoData(db *gorm.DB, orgID uuid.UUID) {
	factors := []models.SwotFactor{
		{OrganizationID: orgID, Kind: models.SwotStrength, Description: "Accredited trauma center with experienced surgical staff", Weight: 5},
		{OrganizationID: orgID, Kind: models.SwotWeakness, Description: "Aging imaging equipment past depreciation schedule", Weight: 4},
		{OrganizationID: orgID, Kind: models.SwotOpportunity, Description: "Regional partnership program for specialist rotations", Weight: 3},
		{OrganizationID: orgID, Kind: models.SwotThreat, Description: "Nursing shortage across the metropolitan area", Weight: 5},
	}
	for i := range factors {
		if err := db.Create(&factors[i]).Error; err != nil {
			log.Fatalf("failed to seed SWOT factor: %v", err)
		}
	}

	strategies := []models.TowsStrategy{
		{OrganizationID: orgID, Type: strategy.TypeSO, Text: "Leverage trauma accreditation to grow the specialist rotation program"},
		{OrganizationID: orgID, Type: strategy.TypeWO, Text: "Use partnership funding to train staff on replacement imaging equipment"},
		{OrganizationID: orgID, Type: strategy.TypeST, Text: "Retain senior nursing staff through surgical career development tracks"},
	}
	for i := range strategies {
		if err := db.Create(&strategies[i]).Error; err != nil {
			log.Fatalf("failed to seed strategy: %v", err)
		}
	}

	objectives := []models.StrategicObjective{
		{OrganizationID: orgID, Perspective: strategy.PerspectiveLearningGrowth, Text: "Expand clinical training hours per nurse by 20%"},
		{OrganizationID: orgID, Perspective: strategy.PerspectiveInternalProcess, Text: "Cut average imaging turnaround below 24 hours"},
	}
	for i := range objectives {
		o := &objectives[i]
		candidates := make([]strategy.Candidate, len(strategies))
		for j, s := range strategies {
			candidates[j] = strategy.Candidate{ID: s.ID, Type: s.Type, Text: s.Text}
		}
		if match := strategy.BestMatch(strategy.Objective{Text: o.Text, Perspective: o.Perspective}, candidates); match != nil {
			o.StrategyID = &match.StrategyID
			o.Confidence = match.Confidence
		}
		if err := db.Create(o).Error; err != nil {
			log.Fatalf("failed to seed objective: %v", err)
		}
	}

	risks := []struct {
		title       string
		category    string
		probability int
		impact      int
		appetite    int
	}{
		{"Medication administration errors in night shifts", "clinical", 3, 5, 10},
		{"MRI scanner failure beyond vendor support", "operational", 4, 4, 12},
		{"Payer contract renegotiation shortfall", "financial", 2, 4, 9},
	}
	for _, r := range risks {
		classified, err := risk.Classify(r.probability, r.impact)
		if err != nil {
			log.Fatalf("failed to classify seed risk: %v", err)
		}
		band, _ := risk.ProbabilityPercentage(r.probability)

		record := models.Risk{
			OrganizationID: orgID,
			Title:          r.title,
			Category:       r.category,
			Status:         models.RiskStatusOpen,
			Inherent: models.RiskAnalysis{
				Probability: classified.Probability,
				Impact:      classified.Impact,
				Value:       classified.Value,
				Level:       classified.Level,
			},
			Residual: models.RiskAnalysis{
				Probability: classified.Probability,
				Impact:      classified.Impact,
				Value:       classified.Value,
				Level:       classified.Level,
			},
			ProbabilityPercentage: band,
			RiskAppetite:          r.appetite,
		}
		if err := db.Create(&record).Error; err != nil {
			log.Fatalf("failed to seed risk: %v", err)
		}
	}

	realization := 82.0
	kpis := []models.KPI{
		{OrganizationID: orgID, Name: "Hand hygiene compliance", Unit: "%", Target: 95, Realization: &realization},
		{OrganizationID: orgID, Name: "Average ED wait time", Unit: "minutes", Target: 30},
	}
	for i := range kpis {
		k := &kpis[i]
		k.Percentage, k.Status = risk.Achievement(k.Realization, k.Target)
		if err := db.Create(k).Error; err != nil {
			log.Fatalf("failed to seed KPI: %v", err)
		}
	}

	fmt.Println("Demo hospital data seeded.")
}
