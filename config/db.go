package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-booking-backend/models"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "booking_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, pass, host, port, dbName,
	), nil
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	if err := Migrate(DB); err != nil {
		return err
	}

	SeedDatabase(DB)
	return nil
}

// Migrate creates the schema in parent->child order. Shared with the sqlite
// test harness.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Hotel{},
		&models.Booking{},
		&models.AvailabilityHold{},
		&models.LedgerEntry{},
	)
}

// SeedDatabase creates a default admin plus a demo manager, guest and hotels
// so a fresh install is usable immediately.
func SeedDatabase(db *gorm.DB) {
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		log.Println("users already seeded")
		return
	}

	mustHash := func(pw string) string {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("warning: failed to hash seed password: %v", err)
			return ""
		}
		return string(hash)
	}

	admin := models.User{FullName: "Platform Admin", Email: "admin@booking.local", Password: mustHash("admin123"), Role: models.RoleAdmin}
	manager := models.User{FullName: "Demo Manager", Email: "manager@booking.local", Password: mustHash("manager123"), Role: models.RoleManager}
	guest := models.User{FullName: "Demo Guest", Email: "guest@booking.local", Password: mustHash("guest123"), Role: models.RoleGuest}

	for _, u := range []*models.User{&admin, &manager, &guest} {
		if err := db.Create(u).Error; err != nil {
			log.Printf("warning: failed to seed user %s: %v", u.Email, err)
		}
	}

	hotels := []models.Hotel{
		{Name: "Seaside Palms", ManagerID: manager.ID, BasePricePerNight: 5000, CommissionRate: 0.10},
		{Name: "Hilltop Retreat", ManagerID: manager.ID, BasePricePerNight: 3500, CommissionRate: 0.12},
	}
	if err := db.Create(&hotels).Error; err != nil {
		log.Printf("warning: failed to seed hotels: %v", err)
	}

	log.Println("seed data created")
}
