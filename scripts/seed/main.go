package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/a1gato/olimpiad/pkg/config"
	"github.com/a1gato/olimpiad/pkg/database"
)

type operator struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type room struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type seedFile struct {
	Operators []operator `json:"operators"`
	Rooms     []room     `json:"rooms"`
}

func main() {
	var (
		seedPath string
		timeout  time.Duration
	)

	flag.StringVar(&seedPath, "seed", filepath.Join("scripts", "seed", "seed.json"), "Path to JSON seed file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall seeding timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	seed, err := loadSeed(seedPath)
	if err != nil {
		log.Fatalf("failed to load seed file: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	created := 0
	for _, op := range seed.Operators {
		email := fmt.Sprintf("%s@%s", op.LoginID, cfg.Auth.LoginDomain)
		hash, err := bcrypt.GenerateFromPassword([]byte(op.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("failed to hash password for %s: %v", op.LoginID, err)
		}
		now := time.Now().UTC()
		const query = `INSERT INTO users (id, email, password_hash, full_name, active, created_at, updated_at)
            VALUES ($1, $2, $3, $4, TRUE, $5, $5) ON CONFLICT (email) DO NOTHING`
		res, err := db.ExecContext(ctx, query, uuid.NewString(), email, string(hash), op.FullName, now)
		if err != nil {
			log.Fatalf("failed to insert operator %s: %v", email, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
			fmt.Printf("operator %s created\n", email)
		} else {
			fmt.Printf("operator %s already exists, skipped\n", email)
		}
	}

	for _, r := range seed.Rooms {
		const query = `INSERT INTO rooms (id, name, capacity, created_at)
            VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO NOTHING`
		res, err := db.ExecContext(ctx, query, uuid.NewString(), r.Name, r.Capacity, time.Now().UTC())
		if err != nil {
			log.Fatalf("failed to insert room %s: %v", r.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
			fmt.Printf("room %s created (capacity %d)\n", r.Name, r.Capacity)
		} else {
			fmt.Printf("room %s already exists, skipped\n", r.Name)
		}
	}

	fmt.Printf("seeding complete, %d rows created\n", created)
}

func loadSeed(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	if len(seed.Operators) == 0 && len(seed.Rooms) == 0 {
		return nil, fmt.Errorf("no operators or rooms defined in %s", path)
	}
	return &seed, nil
}
