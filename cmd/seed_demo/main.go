package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/xelth-com/campusgate/internal/config"
	"github.com/xelth-com/campusgate/internal/database"
	"github.com/xelth-com/campusgate/internal/models"
)

func main() {
	fmt.Println("🌱 CampusGate Demo Data Seeder")
	fmt.Println("=" + string(make([]rune, 60)))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.Visitor{},
		&models.VisitorLog{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	// Check if data already exists
	var visitorCount int64
	db.Model(&models.Visitor{}).Count(&visitorCount)
	if visitorCount > 0 {
		fmt.Printf("⚠️  Database already has %d visitors. Clear it first? (y/N): ", visitorCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}

		// Clear existing data
		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("TRUNCATE TABLE visitor_logs CASCADE")
		db.Exec("TRUNCATE TABLE visitors CASCADE")
		fmt.Println("✅ Data cleared")
	}

	fmt.Println()
	fmt.Println("🏫 Creating demo data...")
	fmt.Println()

	now := time.Now().UTC()
	stamp := func(offset time.Duration) string {
		return now.Add(offset).Format("2006-01-02T15:04:05.000Z")
	}
	strPtr := func(s string) *string { return &s }

	// 1. Checked-in visitors, one per department on the gate screen
	fmt.Println("👤 Creating visitors...")
	type seed struct {
		record  models.Visitor
		details *models.AdditionalDetails
	}
	seeds := []seed{
		{
			record: models.Visitor{
				ID:               uuid.NewString(),
				Name:             "Asha Menon",
				ContactNumber:    "9876543210",
				Address:          "14 Lakeview Road, Kochi",
				PurposeOfVisit:   "Vendor meeting",
				Type:             models.TypeVisitor,
				Status:           models.StatusIn,
				RegistrationDate: stamp(-3 * time.Hour),
				CheckInTime:      strPtr(stamp(-3 * time.Hour)),
				LastUpdated:      stamp(-3 * time.Hour),
			},
			details: &models.AdditionalDetails{
				WhomToMeet:   "Dr. Rao",
				Department:   "Administration",
				DocumentType: "Aadhar",
				VisitorCount: 1,
			},
		},
		{
			record: models.Visitor{
				ID:               uuid.NewString(),
				Name:             "Vikram Shetty",
				ContactNumber:    "9123456780",
				Address:          "Carter Road, Mumbai",
				VehicleNumber:    "MH12AB3456",
				PurposeOfVisit:   "Guest lecture",
				Type:             models.TypeVisitor,
				Status:           models.StatusIn,
				RegistrationDate: stamp(-90 * time.Minute),
				CheckInTime:      strPtr(stamp(-90 * time.Minute)),
				LastUpdated:      stamp(-90 * time.Minute),
			},
			details: &models.AdditionalDetails{
				WhomToMeet:   "Prof. Iyer",
				Department:   "Computer Science",
				DocumentType: "Driving License",
				VisitorCount: 2,
			},
		},
		{
			// Cab waiting at the gate
			record: models.Visitor{
				ID:               uuid.NewString(),
				Name:             "Campus Shuttle",
				ContactNumber:    "9001122334",
				VehicleNumber:    "KA01AB1234",
				PurposeOfVisit:   "Student pickup",
				Type:             models.TypeCab,
				Status:           models.StatusIn,
				RegistrationDate: stamp(-40 * time.Minute),
				CheckInTime:      strPtr(stamp(-40 * time.Minute)),
				LastUpdated:      stamp(-40 * time.Minute),
			},
			details: &models.AdditionalDetails{
				WhomToMeet:   "Hostel Warden",
				Department:   "Hostel",
				DocumentType: "Driving License",
				VisitorCount: 1,
				CabProvider:  "Ola",
				DriverName:   "Suresh Kumar",
				DriverNumber: "9001122334",
			},
		},
		{
			// Checked out earlier today
			record: models.Visitor{
				ID:               uuid.NewString(),
				Name:             "Meera Pillai",
				ContactNumber:    "9988776655",
				Address:          "MG Road, Bengaluru",
				PurposeOfVisit:   "Document submission",
				Type:             models.TypeVisitor,
				Status:           models.StatusOut,
				RegistrationDate: stamp(-6 * time.Hour),
				CheckInTime:      strPtr(stamp(-6 * time.Hour)),
				CheckOutTime:     strPtr(stamp(-4 * time.Hour)),
				LastUpdated:      stamp(-4 * time.Hour),
			},
			details: &models.AdditionalDetails{
				WhomToMeet:   "Registrar",
				Department:   "Administration",
				DocumentType: "PAN Card",
				VisitorCount: 1,
				CheckOutTime: stamp(-4 * time.Hour),
			},
		},
		{
			// Abandoned first registration step, never checked in
			record: models.Visitor{
				ID:               uuid.NewString(),
				Name:             "Rahul Nair",
				ContactNumber:    "9870001112",
				Address:          "Anna Salai, Chennai",
				PurposeOfVisit:   "Campus tour",
				Type:             models.TypeVisitor,
				Status:           models.StatusPending,
				RegistrationDate: stamp(-20 * time.Minute),
				LastUpdated:      stamp(-20 * time.Minute),
			},
		},
	}

	for i := range seeds {
		s := &seeds[i]
		if s.details != nil {
			if err := s.record.SetDetails(s.details); err != nil {
				log.Printf("⚠️  Failed to encode details for %s: %v", s.record.Name, err)
				continue
			}
		}
		if err := db.Create(&s.record).Error; err != nil {
			log.Printf("⚠️  Failed to create visitor %s: %v", s.record.Name, err)
		} else {
			fmt.Printf("   ✓ Created visitor: %s (%s)\n", s.record.Name, s.record.Status)
		}
	}
	fmt.Printf("✅ Created %d visitors\n\n", len(seeds))

	// 2. Log entries for everyone who made it past the gate
	fmt.Println("📋 Creating visit logs...")
	logCount := 0
	for i := range seeds {
		s := &seeds[i]
		if s.record.CheckInTime == nil {
			continue
		}
		entry := models.VisitorLog{
			ID:             uuid.NewString(),
			VisitorID:      s.record.ID,
			Name:           s.record.Name,
			ContactNumber:  s.record.ContactNumber,
			PurposeOfVisit: s.record.PurposeOfVisit,
			CheckInTime:    *s.record.CheckInTime,
			CheckOutTime:   s.record.CheckOutTime,
			Status:         s.record.Status,
			VisitorCount:   1,
			Type:           s.record.Type,
		}
		if s.details != nil {
			entry.WhomToMeet = s.details.WhomToMeet
			entry.Department = s.details.Department
			entry.VisitorCount = s.details.VisitorCount
		}
		if err := db.Create(&entry).Error; err != nil {
			log.Printf("⚠️  Failed to create log for %s: %v", entry.Name, err)
		} else {
			logCount++
		}
	}
	fmt.Printf("✅ Created %d visit logs\n\n", logCount)

	fmt.Println("🎉 Demo data ready. Start the API and open the visitor log screen.")
}
