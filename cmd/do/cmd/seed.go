package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/autopec/garage/internal/config"
	"github.com/autopec/garage/internal/db"
	"github.com/autopec/garage/internal/model"
	"github.com/autopec/garage/internal/repository"
)

// sampleRepairs cover every status so the dashboard has something to show.
var sampleRepairs = []model.RepairRequest{
	{
		RegistrationNumber: "KCA 123A",
		ProblemDescription: "Squealing noise from the front brakes when stopping",
		CustomerName:       "Jane Wanjiku",
		PhoneNumber:        "+254712345678",
		CarModel:           "Toyota Demio",
		Status:             model.StatusSubmitted,
	},
	{
		RegistrationNumber: "KDB 456B",
		ProblemDescription: "Engine overheats after twenty minutes of driving",
		CarModel:           "Subaru Forester",
		Status:             model.StatusInGarage,
		MechanicNotes:      "Radiator fan relay suspected",
	},
	{
		RegistrationNumber: "KCC 789C",
		ProblemDescription: "Check engine light on, rough idle",
		CustomerName:       "Otieno",
		PhoneNumber:        "0722000111",
		Status:             model.StatusInProgress,
		MechanicNotes:      "Replacing ignition coils",
	},
	{
		RegistrationNumber: "KDD 012D",
		ProblemDescription: "Full service",
		CarModel:           "Mazda CX-5",
		Status:             model.StatusCompleted,
		MechanicNotes:      "Oil, filters and brake fluid done",
	},
}

func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample repair requests into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(cmd.Context())
		},
	}
}

func seed(ctx context.Context) error {
	driver, conn := config.Database()
	database, err := db.Init(driver, conn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	err = db.RunMigrations(database.DB, driver)
	if err != nil {
		return err
	}

	repo := repository.NewRepairRepository(database)
	now := time.Now().UTC()
	for i, sample := range sampleRepairs {
		repair := sample
		repair.ID = uuid.NewString()
		repair.Multimedia = model.Attachments{}
		repair.CreatedAt = now.Add(-time.Duration(len(sampleRepairs)-i) * time.Hour)
		repair.UpdatedAt = repair.CreatedAt

		err = repo.Create(ctx, &repair)
		if err != nil {
			return fmt.Errorf("seed %s: %w", repair.RegistrationNumber, err)
		}
		fmt.Printf("==> %s  %-12s %s\n", repair.RegistrationNumber, repair.Status, repair.ID)
	}
	return nil
}
