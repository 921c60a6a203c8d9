package config

import (
	"log"

	"food-ordering-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// App holds all runtime settings, processed from the environment.
type App struct {
	Port      string `envconfig:"PORT" default:"8080"`
	GinMode   string `envconfig:"GIN_MODE" default:"debug"`
	DBPath    string `envconfig:"DB_PATH" default:"food_delivery.db"`
	JWTSecret string `envconfig:"JWT_SECRET" default:"food_delivery_super_secret_2024"`
	TokenTTL  int    `envconfig:"TOKEN_TTL_HOURS" default:"24"`

	// Optional status-event publishing; disabled when AMQPURL is empty.
	AMQPURL        string `envconfig:"AMQP_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"orders.status"`
}

var (
	Cfg App
	DB  *gorm.DB
)

// JWTSecret used to sign tokens — populated by Load
var JWTSecret []byte

// Load reads .env (if present) and processes settings from the environment.
func Load() {
	_ = godotenv.Load()
	if err := envconfig.Process("", &Cfg); err != nil {
		log.Fatal("Failed to process configuration:", err)
	}
	JWTSecret = []byte(Cfg.JWTSecret)
}

func InitDB() {
	var err error
	DB, err = gorm.Open(sqlite.Open(Cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("Database connected and migrated successfully")
}

// Migrate runs the schema migration for all models. Split out so tests can
// run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
}
