package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mansoorceksport/repsync/internal/config"
	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/mansoorceksport/repsync/internal/repository"
	"github.com/mansoorceksport/repsync/internal/service"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type templateSeed struct {
	Name      string
	Exercises []string
	Sets      int
	Reps      int
	Rest      int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		logrus.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)
	exRepo := repository.NewMongoExerciseRepository(db)
	tplRepo := repository.NewMongoTemplateRepository(db)

	exercises := []domain.Exercise{
		// Legs
		{Name: "Barbell Squat", MuscleGroup: "Legs", Equipment: "Barbell"},
		{Name: "Leg Press", MuscleGroup: "Legs", Equipment: "Machine"},
		{Name: "Romanian Deadlift", MuscleGroup: "Legs", Equipment: "Barbell"},
		{Name: "Goblet Squat", MuscleGroup: "Legs", Equipment: "Dumbbell"},
		{Name: "Calf Raise", MuscleGroup: "Legs", Equipment: "Machine"},

		// Chest
		{Name: "Barbell Bench Press", MuscleGroup: "Chest", Equipment: "Barbell"},
		{Name: "Incline Dumbbell Press", MuscleGroup: "Chest", Equipment: "Dumbbell"},
		{Name: "Push Up", MuscleGroup: "Chest", Equipment: "Bodyweight"},

		// Back
		{Name: "Pull Up", MuscleGroup: "Back", Equipment: "Bodyweight"},
		{Name: "Lat Pulldown", MuscleGroup: "Back", Equipment: "Cable"},
		{Name: "Barbell Row", MuscleGroup: "Back", Equipment: "Barbell"},
		{Name: "Seated Cable Row", MuscleGroup: "Back", Equipment: "Cable"},

		// Shoulders & Arms
		{Name: "Overhead Press", MuscleGroup: "Shoulders", Equipment: "Barbell"},
		{Name: "Lateral Raise", MuscleGroup: "Shoulders", Equipment: "Dumbbell"},
		{Name: "Barbell Curl", MuscleGroup: "Biceps", Equipment: "Barbell"},
		{Name: "Tricep Pushdown", MuscleGroup: "Triceps", Equipment: "Cable"},

		// Core
		{Name: "Plank", MuscleGroup: "Core", Equipment: "Bodyweight"},
	}

	for _, ex := range exercises {
		if err := exRepo.Create(ctx, &ex); err != nil {
			if errors.Is(err, domain.ErrDuplicateExercise) {
				fmt.Printf("Skipping duplicate: %s\n", ex.Name)
			} else {
				logrus.Errorf("Error creating %s: %v", ex.Name, err)
			}
		} else {
			fmt.Printf("Created: %s\n", ex.Name)
		}
	}

	templates := []templateSeed{
		{
			Name:      "Upper Body",
			Exercises: []string{"Barbell Bench Press", "Overhead Press", "Lat Pulldown", "Barbell Row", "Barbell Curl", "Tricep Pushdown"},
			Sets:      3, Reps: 10, Rest: 90,
		},
		{
			Name:      "Lower Body",
			Exercises: []string{"Barbell Squat", "Romanian Deadlift", "Leg Press", "Calf Raise"},
			Sets:      4, Reps: 8, Rest: 120,
		},
		{
			Name:      "Full Body - Beginner",
			Exercises: []string{"Goblet Squat", "Push Up", "Seated Cable Row", "Lateral Raise", "Plank"},
			Sets:      3, Reps: 12, Rest: 60,
		},
	}

	existing, err := tplRepo.List(ctx)
	if err != nil {
		logrus.Fatalf("Failed to list templates: %v", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t.Name] = true
	}

	for _, tpl := range templates {
		if seen[tpl.Name] {
			fmt.Printf("Skipping existing template: %s\n", tpl.Name)
			continue
		}

		newTpl := &domain.WorkoutTemplate{Name: tpl.Name}
		for _, name := range tpl.Exercises {
			ex, err := exRepo.GetByName(ctx, name)
			if err != nil {
				fmt.Printf("Warning: Exercise not found: %s\n", name)
				continue
			}
			newTpl.Exercises = append(newTpl.Exercises, domain.TemplateExercise{
				ExerciseID:  ex.ID,
				Name:        ex.Name,
				TargetSets:  tpl.Sets,
				TargetReps:  tpl.Reps,
				RestSeconds: tpl.Rest,
			})
		}

		if err := tplRepo.Create(ctx, newTpl); err != nil {
			logrus.Errorf("Error creating template %s: %v", tpl.Name, err)
		} else {
			fmt.Printf("Created Template: %s with %d exercises (%s)\n", tpl.Name, len(newTpl.Exercises), newTpl.ID)
		}
	}

	// Print a device token for local agents
	if userID := os.Getenv("SEED_USER_ID"); userID != "" && cfg.JWT.Secret != "" {
		token, err := service.NewTokenService(cfg.JWT.Secret).IssueDeviceToken(userID, os.Getenv("SEED_DEVICE_ID"), 0)
		if err != nil {
			logrus.Fatalf("Failed to issue device token: %v", err)
		}
		fmt.Printf("AGENT_DEVICE_TOKEN=%s\n", token)
	}

	fmt.Println("Seeding Complete.")
}
