package impact

import (
	"context"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/store"
)

// ResolvePinnedContract resolves a registration's effective contract
// (SPEC_FULL §12.4): a registration with a pinned_version tracks that exact
// contract, even once it is deprecated; one without a pin tracks the
// asset's current active contract.
func ResolvePinnedContract(ctx context.Context, tx store.Tx, assetID string, pinnedVersion *string) (*domain.Contract, error) {
	if pinnedVersion == nil {
		return tx.GetActiveContract(ctx, assetID)
	}

	page := store.Page{}
	for {
		contracts, result, err := tx.ListContracts(ctx, assetID, page)
		if err != nil {
			return nil, err
		}
		for _, c := range contracts {
			if c.Version == *pinnedVersion {
				return c, nil
			}
		}
		if result.NextCursor == "" {
			break
		}
		page.Cursor = result.NextCursor
	}
	return nil, coreerrors.NewNotFound("asset %q has no contract at pinned version %q", assetID, *pinnedVersion)
}
