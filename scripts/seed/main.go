// Command seed loads a demo catalog and a demo student account into the
// database so the API can be exercised locally without the production
// ingestion pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/cronoplan/cronoplan-api/pkg/config"
	"github.com/cronoplan/cronoplan-api/pkg/database"
)

type seedFrente struct {
	name    string
	subject string
	modules int
	lessons int
	minutes int
}

var catalog = []seedFrente{
	{name: "Álgebra", subject: "Matemática", modules: 3, lessons: 8, minutes: 25},
	{name: "Geometria", subject: "Matemática", modules: 2, lessons: 6, minutes: 30},
	{name: "Mecânica", subject: "Física", modules: 3, lessons: 7, minutes: 35},
	{name: "Eletricidade", subject: "Física", modules: 2, lessons: 5, minutes: 40},
	{name: "Literatura", subject: "Português", modules: 2, lessons: 6, minutes: 20},
}

func main() {
	var (
		email    string
		password string
		timeout  time.Duration
	)
	flag.StringVar(&email, "email", "aluno@example.com", "demo account email")
	flag.StringVar(&password, "password", "senha123", "demo account password")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall seeding timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := seed(ctx, db, email, password); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("seeded demo catalog and account %s", email)
}

func seed(ctx context.Context, db *sqlx.DB, email, password string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	userID, err := seedUser(ctx, tx, email, password)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO students (id, full_name, email, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW()) ON CONFLICT (id) DO NOTHING`,
		userID, "Aluno Demo", email); err != nil {
		return fmt.Errorf("seed student: %w", err)
	}

	subjects := map[string]string{}
	for _, frente := range catalog {
		subjectID, ok := subjects[frente.subject]
		if !ok {
			subjectID = uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subjects (id, name) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name`,
				subjectID, frente.subject); err != nil {
				return fmt.Errorf("seed subject %s: %w", frente.subject, err)
			}
			subjects[frente.subject] = subjectID
		}
		if err := seedFrenteRows(ctx, tx, subjectID, frente); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func seedUser(ctx context.Context, tx *sqlx.Tx, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		 ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		id, email, hash, "Aluno Demo"); err != nil {
		return "", fmt.Errorf("seed user: %w", err)
	}

	// The upsert may have kept a pre-existing row; read the id back.
	var userID string
	if err := tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE email = $1`, email); err != nil {
		return "", fmt.Errorf("resolve user id: %w", err)
	}
	return userID, nil
}

func seedFrenteRows(ctx context.Context, tx *sqlx.Tx, subjectID string, frente seedFrente) error {
	frenteID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO frentes (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		frenteID, frente.name); err != nil {
		return fmt.Errorf("seed frente %s: %w", frente.name, err)
	}

	lessonNumber := 1
	for moduleNumber := 1; moduleNumber <= frente.modules; moduleNumber++ {
		moduleID := uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO modules (id, frente_id, number, name) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			moduleID, frenteID, moduleNumber, fmt.Sprintf("%s - Módulo %d", frente.name, moduleNumber)); err != nil {
			return fmt.Errorf("seed module %d of %s: %w", moduleNumber, frente.name, err)
		}
		for i := 0; i < frente.lessons; i++ {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO lessons (id, subject_id, module_id, name, lesson_number, estimated_minutes, priority)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.NewString(), subjectID, moduleID,
				fmt.Sprintf("%s - Aula %d", frente.name, lessonNumber),
				lessonNumber, frente.minutes, 1+lessonNumber%3); err != nil {
				return fmt.Errorf("seed lesson %d of %s: %w", lessonNumber, frente.name, err)
			}
			lessonNumber++
		}
	}
	return nil
}
