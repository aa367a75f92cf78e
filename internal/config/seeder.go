package config

import (
	"log"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/core/domain"
	"equipahub/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedUsers(); err != nil {
		log.Printf("⚠️ User seeder skipped: %v", err)
	}
	if err := s.seedEquipment(); err != nil {
		log.Printf("⚠️ Equipment seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedUsers seeds one user per role for development/testing.
// In production, create accounts through a secure process.
func (s *Seeder) seedUsers() error {
	var count int64
	s.db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return nil // Users already exist
	}

	hashedPassword, err := password.Hash("changeme123")
	if err != nil {
		return err
	}

	users := []models.User{
		{Name: "Default Technician", Email: "technician@equipahub.local", Password: hashedPassword, Role: domain.RoleTechnician, Department: "IT Support", IsActive: true},
		{Name: "Default Faculty", Email: "faculty@equipahub.local", Password: hashedPassword, Role: domain.RoleFaculty, Department: "Engineering", IsActive: true},
		{Name: "Default Secretary", Email: "secretary@equipahub.local", Password: hashedPassword, Role: domain.RoleSecretary, Department: "Administration", IsActive: true},
		{Name: "Default Coordinator", Email: "coordinator@equipahub.local", Password: hashedPassword, Role: domain.RoleCoordinator, Department: "Administration", IsActive: true},
	}

	for i := range users {
		if err := s.db.Create(&users[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d users (one per role)", len(users))
	return nil
}

// seedEquipment seeds a small demo inventory
func (s *Seeder) seedEquipment() error {
	var count int64
	s.db.Model(&models.EquipmentUnit{}).Count(&count)
	if count > 0 {
		return nil // Inventory already exists
	}

	units := []models.EquipmentUnit{
		{Type: domain.TypeNotebook, Brand: "Dell", Model: "Latitude 5440", SerialNumber: "NB-0001", Status: domain.EquipmentAvailable, Location: "Cabinet A"},
		{Type: domain.TypeNotebook, Brand: "Lenovo", Model: "ThinkPad T14", SerialNumber: "NB-0002", Status: domain.EquipmentAvailable, Location: "Cabinet A"},
		{Type: domain.TypeProjector, Brand: "Epson", Model: "PowerLite X49", SerialNumber: "PJ-0001", Status: domain.EquipmentAvailable, Location: "Cabinet B"},
		{Type: domain.TypeMonitor, Brand: "LG", Model: "27UP850", SerialNumber: "MN-0001", Status: domain.EquipmentAvailable, Location: "Cabinet B"},
		{Type: domain.TypeTablet, Brand: "Apple", Model: "iPad 10th gen", SerialNumber: "TB-0001", Status: domain.EquipmentAvailable, Location: "Cabinet C"},
	}

	for i := range units {
		if err := s.db.Create(&units[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d equipment units", len(units))
	return nil
}
