package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"triddle_backend/internals/configs"
	formModel "triddle_backend/internals/features/forms/forms/model"
	responseModel "triddle_backend/internals/features/forms/responses/model"
	authModel "triddle_backend/internals/features/users/auth/model"
	userModel "triddle_backend/internals/features/users/user/model"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// statement_timeout menjaga query analytics yang lambat tidak menahan pool
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=triddle&options=-c statement_timeout=5000",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			configs.GetEnv("DB_HOST", "localhost"),
			configs.GetEnv("DB_PORT", "5432"),
			os.Getenv("DB_NAME"),
			configs.GetEnv("DB_SSLMODE", "require"),
		)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		TranslateError: true, // unique violation -> gorm.ErrDuplicatedKey
		Logger:         configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("❌ Gagal konek DB: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(configs.GetInt("DB_MAX_OPEN_CONNS", 20))
	sqlDB.SetMaxIdleConns(configs.GetInt("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond) // beri waktu server naik
		if err := Ping(context.Background()); err != nil {
			log.Printf("warm-up ping err: %v", err)
			return
		}
		// query ringan yang paling sering dipakai: resolve form by slug
		DB.Exec("SELECT 1 FROM forms WHERE form_deleted_at IS NULL LIMIT 1")
	}()
}

func Ping(ctx context.Context) error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

/* =======================
   Schema
======================= */

// Index yang tidak bisa diekspresikan lewat tag gorm (partial / expression).
var schemaIndexes = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	// satu sesi terbuka per (form, session token)
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_form_responses_open_session
		ON form_responses (form_response_form_id, form_response_session_token)
		WHERE form_response_status = 'incomplete'`,
	// slug unik (case-insensitive) untuk form yang belum dihapus
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_forms_slug_alive
		ON forms (LOWER(form_slug))
		WHERE form_deleted_at IS NULL`,
	// analytics
	`CREATE INDEX IF NOT EXISTS idx_form_responses_form_created
		ON form_responses (form_response_form_id, form_response_created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_form_responses_form_device
		ON form_responses (form_response_form_id, form_response_device_type)`,
	`CREATE INDEX IF NOT EXISTS idx_form_responses_form_country
		ON form_responses (form_response_form_id, form_response_country)`,
	// sweeper abandon
	`CREATE INDEX IF NOT EXISTS idx_form_responses_idle
		ON form_responses (form_response_last_activity_at)
		WHERE form_response_status = 'incomplete'`,
}

// MigrateSchema: AutoMigrate semua model lalu buat index tambahan.
func MigrateSchema(db *gorm.DB) error {
	log.Println("[INFO] Migrating schema...")
	if err := db.Exec(schemaIndexes[0]).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&userModel.UserModel{},
		&authModel.TokenBlacklist{},
		&formModel.FormModel{},
		&formModel.FormQuestionModel{},
		&responseModel.FormResponseModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range schemaIndexes[1:] {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	log.Println("✅ Schema ready.")
	return nil
}
