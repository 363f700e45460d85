// Command superuserctl creates a superuser account from the command line.
// It runs the same validators as HTTP signup, so a weak password or a
// disposable email is rejected here too.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
	"github.com/gatehouse/identity-system/internal/core/service"
	"github.com/gatehouse/identity-system/internal/infrastructure/config"
	mongostore "github.com/gatehouse/identity-system/internal/infrastructure/db/mongo"
	"github.com/gatehouse/identity-system/pkg/logger"
)

func main() {
	var (
		email    = flag.String("email", "", "email address (required)")
		fullName = flag.String("name", "", "full name, at least two words (required)")
		phone    = flag.String("phone", "", "phone number (required)")
		region   = flag.String("region", "", "phone region, e.g. BJ or FR (defaults to PHONE_REGION)")
		password = flag.String("password", "", "password (required)")
	)
	flag.Parse()

	if *email == "" || *fullName == "" || *phone == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: "warn", Pretty: true})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		fatalf("mongo connection failed: %v", err)
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	if err := mongostore.EnsureUserIndexes(ctx, db); err != nil {
		fatalf("user index setup failed: %v", err)
	}
	if err := mongostore.EnsureRoleIndexes(ctx, db); err != nil {
		fatalf("role index setup failed: %v", err)
	}

	userRepo := mongostore.NewUserRepository(db)
	roleRepo := mongostore.NewRoleRepository(db)
	roleService := service.NewRoleService(roleRepo, userRepo, log)
	userService := service.NewUserService(userRepo, roleService, service.NewPasswordPolicy(), cfg.PhoneRegion, log)

	if err := roleService.EnsureSystemRoles(ctx); err != nil {
		fatalf("system role setup failed: %v", err)
	}

	user, err := userService.Register(ctx, ports.RegisterInput{
		Email:    *email,
		FullName: *fullName,
		Phone:    *phone,
		Region:   *region,
		Password: *password,
		RoleName: domain.RoleSuperuser,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(os.Stderr, "validation failed:")
			for field, msg := range verr.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
			}
			os.Exit(1)
		}
		fatalf("superuser creation failed: %v", err)
	}

	fmt.Printf("superuser created: %s (%s)\n", user.Email, user.ID)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
