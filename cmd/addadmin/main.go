package main

import (
	"bufio"   // Non-terminal password input
	"context" // Store calls
	"flag"    // Command line flags
	"fmt"     // Output
	"io"      // Injected streams
	"os"      // Process streams
	"strings" // Input trimming

	"expense_tracker/internal/config"     // Store settings
	"expense_tracker/internal/db"         // Store connection
	"expense_tracker/internal/domain"     // Admin model
	"expense_tracker/internal/repository" // Admin persistence
	"expense_tracker/internal/utils"      // Password hashing

	"golang.org/x/term" // Hidden password prompt
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("addadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "Admin email")
	username := fs.String("user", "", "Admin username (defaults to the email's local part)")
	firstName := fs.String("first", "Admin", "First name")
	lastName := fs.String("last", "User", "Last name")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	deactivate := fs.Bool("deactivate", false, "Deactivate the admin with -email instead of creating one")
	activate := fs.Bool("activate", false, "Reactivate the admin with -email")
	driver := fs.String("driver", cfg.DBDriver, "Store driver: mysql, postgres or sqlite")
	dsn := fs.String("dsn", "", "Store connection string (defaults to the environment settings)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: addadmin -email <email> [-user <name>] [-password <password>] [-deactivate|-activate]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}
	if *dsn == "" {
		cfg.DBDriver = *driver
		*dsn = cfg.DSN()
	}

	gdb, err := db.Open(*driver, *dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	admins := repository.NewAdminRepository(gdb)
	ctx := context.Background()

	if *deactivate || *activate {
		if err := admins.SetActive(ctx, *email, *activate); err != nil {
			return fmt.Errorf("failed to update admin: %w", err)
		}
		state := "deactivated"
		if *activate {
			state = "activated"
		}
		fmt.Fprintf(stdout, "Admin %s %s\n", *email, state)
		return nil
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}
	if len(strings.TrimSpace(password)) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	name := *username
	if name == "" {
		name = strings.SplitN(*email, "@", 2)[0]
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := domain.Admin{Username: name, Email: *email, Password: hash, FirstName: *firstName, LastName: *lastName}
	if err := admins.Create(ctx, &admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	fmt.Fprintf(stdout, "Admin %s created successfully with ID %d\n", admin.Email, admin.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
