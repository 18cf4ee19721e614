package kindergartens

import "context"

type Repository interface {
	Create(ctx context.Context, pk PetKindergarden) error
	GetByID(ctx context.Context, id string) (PetKindergarden, error)
	GetByOwner(ctx context.Context, ownerUserID string) (PetKindergarden, error)
	Update(ctx context.Context, pk PetKindergarden) error
	ExistsByIDAndOwner(ctx context.Context, id, ownerUserID string) (bool, error)
	ExistsByOwner(ctx context.Context, ownerUserID string) (bool, error)

	// SaveRaw mirrors external search results into storage.
	SaveRaw(ctx context.Context, rows []RawPetKindergarden) error
}
