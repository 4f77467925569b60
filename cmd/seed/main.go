// Command seed creates the initial admin account plus demo teacher and
// student accounts. The admin password is read interactively so it never
// lands in shell history; demo passwords are random and printed once.
package main

import (
	"context"
	"fmt"
	"log"
	"syscall"

	"golang.org/x/term"

	"github.com/savelyev/securesms/internal/common"
	"github.com/savelyev/securesms/internal/server/config"
	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/repositories/repomanager"
	"github.com/savelyev/securesms/internal/server/services"
)

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	password, err := readPassword("Admin password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Repeat admin password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	users := services.NewUserService(db, repos, cfg)

	admin, err := users.Register(ctx, "admin", "admin@securesms.local", password, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	fmt.Printf("created admin account %s (%s)\n", admin.UserName, admin.ID)

	// demo accounts get one-time random passwords, printed once
	demo := []struct {
		username string
		email    string
		role     models.Role
	}{
		{"teacher1", "teacher1@securesms.local", models.RoleTeacher},
		{"student1", "student1@securesms.local", models.RoleStudent},
	}
	for _, d := range demo {
		pw, err := common.MakeRandHexString(12)
		if err != nil {
			return err
		}
		user, err := users.Register(ctx, d.username, d.email, pw, d.role)
		if err != nil {
			return fmt.Errorf("creating %s: %w", d.username, err)
		}
		fmt.Printf("created %s account %s (%s), password: %s\n", d.role, user.UserName, user.ID, pw)
	}

	return nil
}

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
