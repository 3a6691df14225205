package forms

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"triddle_backend/internals/features/forms/forms/dto"
	"triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/forms/service"
	"triddle_backend/internals/helpers/apperror"
)

type Creator interface {
	Create(ctx context.Context, ownerID uuid.UUID, in service.CreateInput) (*model.FormModel, error)
	GetPublic(ctx context.Context, slug string, viewer uuid.UUID, password string) (*model.FormModel, error)
}

type FormSeed struct {
	OwnerEmail string `json:"owner_email"`
	dto.CreateFormRequest
}

func SeedFormsFromJSON(ctx context.Context, svc Creator, owners map[string]uuid.UUID, filePath string) error {
	log.Println("📥 Membaca file form:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}
	var seeds []FormSeed
	if err := sonic.Unmarshal(file, &seeds); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}

	for _, s := range seeds {
		owner, ok := owners[s.OwnerEmail]
		if !ok {
			log.Printf("⚠️ Owner '%s' untuk form '%s' tidak ada, dilewati.", s.OwnerEmail, s.Slug)
			continue
		}
		// owner bypass private/password, jadi lookup ini cukup untuk cek keberadaan
		_, err := svc.GetPublic(ctx, s.Slug, owner, "")
		var nf *apperror.NotFoundError
		if err == nil {
			log.Printf("ℹ️ Form '%s' sudah ada, dilewati.", s.Slug)
			continue
		}
		if !errors.As(err, &nf) {
			log.Printf("ℹ️ Form '%s' tidak bisa dicek (%v), dilewati.", s.Slug, err)
			continue
		}

		f, err := svc.Create(ctx, owner, s.ToInput())
		if err != nil {
			log.Printf("❌ Gagal insert form '%s': %v", s.Slug, err)
			continue
		}
		log.Printf("✅ Berhasil insert form '%s' (%d pertanyaan)", f.FormSlug, len(f.FormQuestions))
	}
	return nil
}
