package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"feeledger/internal/config"
	"feeledger/internal/db"
	"feeledger/internal/models"
	"feeledger/internal/password"
	"feeledger/internal/repository"
)

// addstaff provisions a staff account. Run once to create the administrator
// whose password doubles as the void/edit PIN.
func main() {
	name := flag.String("name", "", "display name")
	position := flag.String("position", "Cashier", "position title")
	username := flag.String("username", "", "login username")
	pass := flag.String("password", "", "login password")
	role := flag.String("role", models.RoleStaff, "ADMIN or STAFF")
	flag.Parse()

	if *name == "" || *username == "" || *pass == "" {
		fmt.Fprintln(os.Stderr, "usage: addstaff -name NAME -username USER -password PASS [-role ADMIN]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		fmt.Fprintf(os.Stderr, "schema: %v\n", err)
		os.Exit(1)
	}

	hasher := password.NewBcryptHasher(0)
	hash, err := hasher.Hash(*pass)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash: %v\n", err)
		os.Exit(1)
	}

	staff := &models.Staff{
		Name:         *name,
		Position:     *position,
		Username:     *username,
		PasswordHash: hash,
		Role:         *role,
	}
	if err := repository.NewStaffRepository(sqlDB).Create(ctx, staff); err != nil {
		fmt.Fprintf(os.Stderr, "create: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created staff #%d (%s, %s)\n", staff.ID, staff.Username, staff.Role)
}
