// Command seed provisions the canonical tiers, the default thumbnail-size
// catalog and one demo user per tier. Intended for development and demo
// environments.
package main

import (
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mlevan/imagetier/internal/config"
	"github.com/mlevan/imagetier/internal/database"
	"github.com/mlevan/imagetier/internal/model"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		log.Fatal("DB connection failed: ", err)
	}
	defer db.Close()

	log.Println("Creating thumbnail sizes...")
	for _, dimension := range []int{200, 400} {
		if err := db.CreateThumbnailSize(dimension); err != nil {
			log.Printf("size %d: %v (already present?)", dimension, err)
		}
	}

	log.Println("Creating account tiers...")
	tiers := []*model.AccountTier{
		{Name: "Basic", ThumbnailSizes: []int{200}},
		{Name: "Premium", ThumbnailSizes: []int{200, 400}, AllowOriginalLink: true},
		{Name: "Enterprise", ThumbnailSizes: []int{200, 400}, AllowOriginalLink: true, AllowExpiringLink: true},
	}
	for _, tier := range tiers {
		if err := db.CreateTier(tier); err != nil {
			log.Printf("tier %s: %v (already present?)", tier.Name, err)
		}
	}

	log.Println("Creating demo users...")
	users := []*model.User{
		{ID: uuid.New().String(), Name: "basic-demo", Token: "basic-token", Tier: "Basic"},
		{ID: uuid.New().String(), Name: "premium-demo", Token: "premium-token", Tier: "Premium"},
		{ID: uuid.New().String(), Name: "enterprise-demo", Token: "enterprise-token", Tier: "Enterprise"},
		{ID: uuid.New().String(), Name: "admin", Token: "admin-token", IsStaff: true},
	}
	for _, u := range users {
		if err := db.CreateUser(u); err != nil {
			log.Printf("user %s: %v (already present?)", u.Name, err)
			continue
		}
		log.Printf("  %-16s token=%s", u.Name, u.Token)
	}

	log.Println("Done.")
}
