package seeds

import (
	"context"
	"log"
	"path/filepath"

	formSeed "triddle_backend/internals/seeds/forms"
	userSeed "triddle_backend/internals/seeds/users"
)

// RunAllSeeds mengisi user & form demo. Aman dijalankan berulang (data yang sudah ada dilewati).
func RunAllSeeds(ctx context.Context, users userSeed.Registrar, forms formSeed.Creator, dir string) error {
	//* User
	owners, err := userSeed.SeedUsersFromJSON(ctx, users, filepath.Join(dir, "users", "data_users.json"))
	if err != nil {
		return err
	}

	//* Forms
	if err := formSeed.SeedFormsFromJSON(ctx, forms, owners, filepath.Join(dir, "forms", "data_forms.json")); err != nil {
		return err
	}
	log.Println("✅ Seeding selesai")
	return nil
}
