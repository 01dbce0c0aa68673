// Command createadmin seeds an admin account directly in the database,
// bypassing the signup code check.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/config"
	"food-ordering-api/logger"
	"food-ordering-api/repository"
	"food-ordering-api/services"
)

func main() {
	name := flag.String("name", "Administrator", "display name")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password, at least 6 characters (required)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.IsProduction())

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := config.OpenDatabase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	svc := services.NewAuthService(repository.NewUserRepository(db),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), auth.NewRevocationStore(nil), "", log)

	res, err := svc.RegisterAdmin(context.Background(), services.RegisterInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	switch {
	case err == nil:
		log.WithFields(logrus.Fields{"id": res.User.ID, "email": res.User.Email}).Info("admin created")
	case apperrors.KindOf(err) == apperrors.KindConflict:
		log.WithField("email", *email).Info("admin already exists")
	default:
		log.WithError(err).Fatal("failed to create admin")
	}
}
