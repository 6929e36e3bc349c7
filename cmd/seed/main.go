package main

import (
	"context" // Store calls
	"flag"    // Command line flags
	"fmt"     // Output
	"io"      // Injected streams
	"os"      // Process streams
	"strconv" // Unique usernames
	"time"    // Date range

	"expense_tracker/internal/calendar"   // BS display dates
	"expense_tracker/internal/config"     // Store settings
	"expense_tracker/internal/db"         // Store connection
	"expense_tracker/internal/domain"     // Models
	"expense_tracker/internal/repository" // Persistence
	"expense_tracker/internal/utils"      // Password hashing

	"github.com/brianvoe/gofakeit/v6" // Fake data
	"github.com/shopspring/decimal"   // Amounts
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	userCount := fs.Int("users", 5, "Number of users to create")
	perUser := fs.Int("transactions", 20, "Transactions per user")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed")
	password := fs.String("password", "password123", "Password of every seeded user")
	driver := fs.String("driver", cfg.DBDriver, "Store driver: mysql, postgres or sqlite")
	dsn := fs.String("dsn", "", "Store connection string (defaults to the environment settings)")
	if err := fs.Parse(args); err != nil {
		return err
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

	hash, err := utils.HashPassword(*password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(gdb)
	txs := repository.NewTransactionRepository(gdb, calendar.Approximate{})
	faker := gofakeit.New(*seed)
	now := time.Now().UTC()
	from := now.AddDate(-1, 0, 0)

	created := 0
	for i := 0; i < *userCount; i++ {
		u := domain.User{
			Username:  faker.Username() + strconv.Itoa(i),
			Email:     strconv.Itoa(i) + "." + faker.Email(),
			Password:  hash,
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
		}
		if err := users.Create(ctx, &u); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		for j := 0; j < *perUser; j++ {
			in := fakeTransaction(faker, from, now)
			if _, err := txs.Create(ctx, u.ID, in); err != nil {
				return fmt.Errorf("failed to create transaction: %w", err)
			}
			created++
		}
		fmt.Fprintf(stdout, "Seeded %s (%s)\n", u.Username, u.Email)
	}
	fmt.Fprintf(stdout, "Created %d users and %d transactions\n", *userCount, created)
	return nil
}

// fakeTransaction returns a plausible transaction dated between from and to
func fakeTransaction(faker *gofakeit.Faker, from, to time.Time) domain.NewTransaction {
	typ := domain.TypeExpense
	maxAmount := 500.0
	if faker.Number(1, 4) == 1 {
		typ = domain.TypeIncome
		maxAmount = 5000
	}
	d := faker.DateRange(from, to)
	return domain.NewTransaction{
		Type:        typ,
		Amount:      decimal.NewFromFloat(faker.Price(1, maxAmount)).Round(2),
		Category:    faker.RandomString(domain.CategoriesFor(typ)),
		Description: faker.Sentence(5),
		Date:        time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
	}
}
