package service

import (
	"context"
	"log"
	"strings"

	"hdgstudio-market-api/internal/client"
	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/repository"
	"hdgstudio-market-api/internal/reservation"
	"hdgstudio-market-api/pkg/apierror"
)

// ListingService handles the listing lifecycle: sellers putting
// accounts up for sale, editing them, and taking them down. Purchases
// go through the saga orchestrator, not through this service.
type ListingService struct {
	accounts     repository.AccountRepository
	reservations reservation.Store
	identity     client.IdentityClient
}

// NewListingService creates a new listing service.
func NewListingService(
	accounts repository.AccountRepository,
	reservations reservation.Store,
	identity client.IdentityClient,
) *ListingService {
	return &ListingService{
		accounts:     accounts,
		reservations: reservations,
		identity:     identity,
	}
}

// Create lists an account for sale. The credentials are verified
// against the identity service before anything is persisted, so a
// seller cannot list an account they do not control. sellerUsername is
// the seller's own login name; listing it would hand the seller's
// marketplace identity to a buyer, so it is rejected.
func (s *ListingService) Create(ctx context.Context, acc *model.Account, sellerUsername string) (*model.Account, error) {
	acc.Username = strings.TrimSpace(acc.Username)
	if acc.Username == "" || acc.Password == "" {
		return nil, apierror.ValidationError("username and password are required")
	}
	if acc.Price <= 0 {
		return nil, apierror.ValidationError("price must be positive")
	}
	if acc.Username == sellerUsername {
		return nil, apierror.Forbidden("cannot list your own login account")
	}

	if err := s.identity.CheckCredentials(ctx, acc.Username, acc.Password); err != nil {
		return nil, err
	}

	// One ACTIVE listing per account username at a time.
	existing, err := s.accounts.GetByUsername(ctx, acc.Username)
	if err != nil && !apierror.IsCode(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil && existing.Status == model.AccountActive {
		return nil, apierror.Conflict("account is already listed")
	}

	acc.Status = model.AccountActive
	created, err := s.accounts.Create(ctx, acc)
	if err != nil {
		return nil, err
	}

	// Seed the reservation store so the first purchase does not have
	// to lazily claim an absent record.
	if err := s.reservations.Sync(ctx, created.ID, model.AccountActive); err != nil {
		log.Printf("[ListingService] Failed to seed reservation for account %d: %v", created.ID, err)
	}

	log.Printf("[ListingService] Listed account id=%d username=%s price=%d seller=%d",
		created.ID, created.Username, created.Price, created.SellerID)

	return created, nil
}

// Update edits a listing's url, description and price. Only the seller
// may edit, and only while the listing is still ACTIVE.
func (s *ListingService) Update(ctx context.Context, id, sellerID int64, url, description string, price int64) (*model.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.SellerID != sellerID {
		return nil, apierror.Forbidden("not the seller of this listing")
	}
	if acc.Status != model.AccountActive {
		return nil, apierror.Conflict("sold listing cannot be edited")
	}
	if price <= 0 {
		return nil, apierror.ValidationError("price must be positive")
	}

	acc.ListingURL = url
	acc.Description = description
	acc.Price = price
	if err := s.accounts.Update(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Delete takes a listing down. Sold listings are kept as purchase
// records and cannot be deleted.
func (s *ListingService) Delete(ctx context.Context, id, sellerID int64, isAdmin bool) error {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && acc.SellerID != sellerID {
		return apierror.Forbidden("not the seller of this listing")
	}
	if acc.Status != model.AccountActive {
		return apierror.Conflict("sold listing cannot be deleted")
	}
	return s.accounts.Delete(ctx, id)
}

// GetByID returns one listing.
func (s *ListingService) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// GetActive returns all listings currently for sale.
func (s *ListingService) GetActive(ctx context.Context) ([]*model.Account, error) {
	return s.accounts.GetByStatus(ctx, model.AccountActive)
}

// GetBySeller returns a seller's listings, sold and unsold.
func (s *ListingService) GetBySeller(ctx context.Context, sellerID int64) ([]*model.Account, error) {
	return s.accounts.GetBySeller(ctx, sellerID)
}

// Purchased returns the credentials of every account the buyer has
// bought. The password is the rotated one the purchase committed.
func (s *ListingService) Purchased(ctx context.Context, buyerID int64) ([]model.Credentials, error) {
	accs, err := s.accounts.GetByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	creds := make([]model.Credentials, 0, len(accs))
	for _, acc := range accs {
		creds = append(creds, model.Credentials{
			Username: acc.Username,
			Password: acc.Password,
		})
	}
	return creds, nil
}
