package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/recipeshare/api/internal/auth"
	"github.com/recipeshare/api/internal/config"
	"github.com/recipeshare/api/internal/database"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/service"
	"github.com/recipeshare/api/internal/store"
	"github.com/recipeshare/api/internal/validator"
	"gorm.io/gorm"
)

type seedUser struct {
	Email string
	Name  string
	Role  model.Role
}

var seedUsers = []seedUser{
	{Email: "owner@recipeshare.local", Name: "Site Owner", Role: model.RoleOwner},
	{Email: "admin@recipeshare.local", Name: "Admin", Role: model.RoleAdmin},
	{Email: "moderator@recipeshare.local", Name: "Moderator", Role: model.RoleModerator},
	{Email: "cook@recipeshare.local", Name: "Home Cook", Role: model.RoleUser},
}

var defaultRecipes = []service.SubmitRecipeInput{
	{
		Title:        "Weeknight Tomato Pasta",
		Description:  "Pantry pasta in the time it takes to boil water.",
		Category:     "dinner",
		Difficulty:   "easy",
		PrepTime:     5,
		CookTime:     15,
		Servings:     2,
		Ingredients:  []any{"200g spaghetti", "1 can crushed tomatoes", "2 cloves garlic", "olive oil"},
		Instructions: []any{"Boil the pasta.", "Fry the garlic in oil, add tomatoes.", "Toss with the pasta."},
		Tags:         "quick, vegetarian",
	},
	{
		Title:        "Brown Butter Banana Bread",
		Category:     "dessert",
		Difficulty:   "medium",
		PrepTime:     15,
		CookTime:     60,
		Servings:     8,
		Ingredients:  `["3 ripe bananas","115g butter","200g flour","1 tsp baking soda","100g sugar","2 eggs"]`,
		Instructions: `["Brown the butter.","Mash bananas and mix with the butter, sugar and eggs.","Fold in flour and soda.","Bake at 175C for an hour."]`,
		Tags:         []any{"baking", "#breakfast"},
	},
	{
		Title:        "Overnight Oats",
		Category:     "breakfast",
		Difficulty:   "easy",
		PrepTime:     5,
		Servings:     1,
		Ingredients:  []any{map[string]any{"text": "rolled oats", "amount": "50", "unit": "g"}, "milk", "honey"},
		Instructions: "Mix everything in a jar and refrigerate overnight.",
	},
}

func main() {
	password := flag.String("password", "changeme123", "Password for seeded accounts")
	filePath := flag.String("file", "", "Optional JSON file with an array of recipes to seed")
	publish := flag.Bool("publish", true, "Approve seeded recipes")
	flag.Parse()

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	recipes := defaultRecipes
	if *filePath != "" {
		recipes, err = loadRecipes(*filePath)
		if err != nil {
			log.Fatalf("Failed to load recipes: %v", err)
		}
	}

	ctx := context.Background()
	repo := store.NewGorm(db)

	users := make(map[model.Role]*model.User)
	for _, su := range seedUsers {
		u, created, err := ensureUser(ctx, repo, su, *password)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", su.Email, err)
		}
		users[su.Role] = u
		if created {
			log.Printf("Created %s account %s", su.Role, su.Email)
		}
	}

	v := validator.New()
	recipeSvc := service.NewRecipeService(repo, nil, v, time.Now)
	moderationSvc := service.NewModerationService(repo, repo, repo, nil, nil, v, time.Now)
	commentSvc := service.NewCommentService(repo, repo, time.Now)

	author, admin := users[model.RoleUser], users[model.RoleOwner]
	inserted, skipped := 0, 0
	for _, in := range recipes {
		exists, err := recipeExists(db, author.ID, in.Title)
		if err != nil {
			log.Fatalf("Failed to check recipe %q: %v", in.Title, err)
		}
		if exists {
			skipped++
			continue
		}

		r, err := recipeSvc.Submit(ctx, author, in)
		if err != nil {
			log.Printf("Error submitting %q: %v", in.Title, err)
			skipped++
			continue
		}
		inserted++

		if !*publish {
			continue
		}
		if _, err := moderationSvc.ModerateRecipe(ctx, admin, service.ModerateRecipeInput{
			RecipeID: r.ID,
			Action:   model.RecipeApprove,
			Notes:    "Seeded",
		}); err != nil {
			log.Printf("Error approving %q: %v", in.Title, err)
			continue
		}
		if _, err := commentSvc.Create(ctx, users[model.RoleModerator], r.ID, "Looks delicious!"); err != nil {
			log.Printf("Error commenting on %q: %v", in.Title, err)
		}
	}

	log.Printf("Seeding complete. Recipes inserted: %d, skipped: %d", inserted, skipped)
}

func loadRecipes(path string) ([]service.SubmitRecipeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var recipes []service.SubmitRecipeInput
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func ensureUser(ctx context.Context, users store.UserStore, su seedUser, password string) (*model.User, bool, error) {
	existing, err := users.GetUserByEmail(ctx, su.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	u := &model.User{
		Email:        su.Email,
		Name:         su.Name,
		PasswordHash: hash,
		Role:         su.Role,
		Status:       model.StatusActive,
	}
	if err := users.CreateUser(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func recipeExists(db *gorm.DB, authorID int64, title string) (bool, error) {
	var count int64
	err := db.Model(&model.Recipe{}).
		Where("author_id = ? AND title = ?", authorID, title).
		Count(&count).Error
	return count > 0, err
}
