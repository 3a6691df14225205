package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	authService "triddle_backend/internals/features/users/auth/service"
	userModel "triddle_backend/internals/features/users/user/model"
	"triddle_backend/internals/helpers/apperror"
)

type Registrar interface {
	Register(ctx context.Context, in authService.RegisterInput) (*userModel.UserModel, error)
	Login(ctx context.Context, identifier, password string) (*authService.Session, error)
}

type UserSeed struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SeedUsersFromJSON mengembalikan map email -> user id (baru maupun yang sudah ada).
func SeedUsersFromJSON(ctx context.Context, svc Registrar, filePath string) (map[string]uuid.UUID, error) {
	log.Println("📥 Membaca file user:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	var inputs []UserSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}

	out := make(map[string]uuid.UUID, len(inputs))
	for _, data := range inputs {
		u, err := svc.Register(ctx, authService.RegisterInput{
			UserName: data.UserName,
			Email:    data.Email,
			Password: data.Password,
		})
		var conflict *apperror.ConflictError
		switch {
		case err == nil:
			log.Printf("✅ Berhasil insert user '%s'", data.Email)
			out[data.Email] = u.ID
		case errors.As(err, &conflict):
			sess, lerr := svc.Login(ctx, data.Email, data.Password)
			if lerr != nil {
				log.Printf("ℹ️ User '%s' sudah ada tapi password beda, dilewati.", data.Email)
				continue
			}
			log.Printf("ℹ️ User dengan email '%s' sudah ada, dilewati.", data.Email)
			out[data.Email] = sess.User.ID
		default:
			log.Printf("❌ Gagal insert user '%s': %v", data.Email, err)
		}
	}
	return out, nil
}
