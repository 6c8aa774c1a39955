// Command seed creates an initial user account if one does not exist yet.
// The password is read from the terminal without echo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"taskkeeper/internal/common"
	"taskkeeper/internal/server/config"
	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/repositories/repomanager"
)

func main() {

	var email, firstName, lastName string
	flag.StringVar(&email, "email", "admin@taskkeeper.local", "email of the account to create")
	flag.StringVar(&firstName, "first", "Admin", "first name")
	flag.StringVar(&lastName, "last", "", "last name")
	flag.Parse()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	ctx := context.Background()

	db, err := repomanager.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	repo := m.Users(db)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		fmt.Printf("user %s already exists, nothing to do\n", email)
		return
	} else if !errors.Is(err, common.ErrorNotFound) {
		log.Fatalf("lookup error: %v", err)
	}

	password, err := readPassword()
	if err != nil {
		log.Fatalf("password input error: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hashing error: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
	}
	if _, err := repo.Create(ctx, user); err != nil {
		log.Fatalf("create error: %v", err)
	}

	fmt.Printf("user %s created\n", email)
}

func readPassword() ([]byte, error) {
	fmt.Print("Enter password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}
	if len(pw) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}
	return pw, nil
}
