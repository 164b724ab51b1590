package memory

import (
	"context"
	"errors"
	"testing"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

func newAsset(id domain.AssetID, symbol string, issuer domain.AccountID, marketIssued bool) *domain.Asset {
	a := &domain.Asset{
		ID:        id,
		Symbol:    symbol,
		Precision: 4,
		Issuer:    issuer,
		Options: domain.AssetOptions{
			MaxSupply: 1_000_000,
		},
		DynamicDataID: domain.DynamicDataID(id),
	}
	if marketIssued {
		bid := domain.BitassetDataID(id)
		a.BitassetDataID = &bid
	}
	return a
}

func TestAssetStore_InsertAndGet(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	a := newAsset(1, "USD", 10, true)
	if err := store.Insert(ctx, a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Symbol != "USD" {
		t.Errorf("Symbol mismatch: got %s, want USD", got.Symbol)
	}

	got, err = store.GetBySymbol(ctx, "USD")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("ID mismatch: got %d, want 1", got.ID)
	}
}

func TestAssetStore_DuplicateSymbol(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, newAsset(1, "USD", 10, false)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, newAsset(2, "USD", 11, false))
	if !errors.Is(err, storage.ErrDuplicateSymbol) {
		t.Errorf("Expected ErrDuplicateSymbol, got %v", err)
	}

	// Exactly one asset holds the symbol and the failed insert left no trace.
	if _, err := store.GetByID(ctx, 2); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for id 2, got %v", err)
	}
	got, err := store.GetBySymbol(ctx, "USD")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("Symbol should resolve to asset 1, got %d", got.ID)
	}
}

func TestAssetStore_DuplicateID(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, newAsset(1, "USD", 10, false)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err := store.Insert(ctx, newAsset(1, "EUR", 10, false))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestAssetStore_UpdateRekeysIndices(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, newAsset(1, "USD", 10, false)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Rename, reassign issuer, and make it market-issued in one update.
	updated := newAsset(1, "USDX", 11, true)
	if err := store.Update(ctx, updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := store.GetBySymbol(ctx, "USD"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Old symbol should be gone, got %v", err)
	}
	if got, err := store.GetBySymbol(ctx, "USDX"); err != nil || got.ID != 1 {
		t.Errorf("New symbol lookup failed: %v", err)
	}

	oldIssuer, err := store.ListByIssuer(ctx, 10)
	if err != nil {
		t.Fatalf("ListByIssuer failed: %v", err)
	}
	if len(oldIssuer) != 0 {
		t.Errorf("Old issuer should list 0 assets, got %d", len(oldIssuer))
	}
	newIssuer, err := store.ListByIssuer(ctx, 11)
	if err != nil {
		t.Fatalf("ListByIssuer failed: %v", err)
	}
	if len(newIssuer) != 1 {
		t.Errorf("New issuer should list 1 asset, got %d", len(newIssuer))
	}

	mi, err := store.ListMarketIssued(ctx)
	if err != nil {
		t.Fatalf("ListMarketIssued failed: %v", err)
	}
	if len(mi) != 1 || mi[0].ID != 1 {
		t.Errorf("Market-issued listing should contain asset 1, got %v", mi)
	}
}

func TestAssetStore_UpdateSymbolCollision(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, newAsset(1, "USD", 10, false)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, newAsset(2, "EUR", 10, false)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := store.Update(ctx, newAsset(2, "USD", 10, false))
	if !errors.Is(err, storage.ErrDuplicateSymbol) {
		t.Errorf("Expected ErrDuplicateSymbol, got %v", err)
	}

	// Keeping its own symbol is not a collision.
	if err := store.Update(ctx, newAsset(2, "EUR", 10, false)); err != nil {
		t.Errorf("Self-update failed: %v", err)
	}
}

func TestAssetStore_ListMarketIssued(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	assets := []*domain.Asset{
		newAsset(1, "CORE", 10, false),
		newAsset(2, "USD", 10, true),
		newAsset(3, "IOU", 11, false),
		newAsset(4, "EUR", 11, true),
		newAsset(5, "GOLD", 12, true),
	}
	for _, a := range assets {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Insert %s failed: %v", a.Symbol, err)
		}
	}

	mi, err := store.ListMarketIssued(ctx)
	if err != nil {
		t.Fatalf("ListMarketIssued failed: %v", err)
	}
	if len(mi) != 3 {
		t.Fatalf("Expected 3 market-issued assets, got %d", len(mi))
	}
	for i, want := range []domain.AssetID{2, 4, 5} {
		if mi[i].ID != want {
			t.Errorf("Position %d: got id %d, want %d", i, mi[i].ID, want)
		}
	}
}

func TestAssetStore_ListByIssuer(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	for _, a := range []*domain.Asset{
		newAsset(3, "IOU", 10, false),
		newAsset(1, "USD", 10, true),
		newAsset(2, "EUR", 11, false),
	} {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListByIssuer(ctx, 10)
	if err != nil {
		t.Fatalf("ListByIssuer failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Expected assets [1 3] for issuer 10, got %v", got)
	}
}

func TestAssetStore_Remove(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, newAsset(1, "USD", 10, true)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, err := store.GetByID(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after remove, got %v", err)
	}
	if _, err := store.GetBySymbol(ctx, "USD"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Symbol index should be cleared, got %v", err)
	}
	mi, _ := store.ListMarketIssued(ctx)
	if len(mi) != 0 {
		t.Errorf("Type index should be cleared, got %d entries", len(mi))
	}

	// The symbol is free for reuse.
	if err := store.Insert(ctx, newAsset(2, "USD", 10, false)); err != nil {
		t.Errorf("Reinsert with freed symbol failed: %v", err)
	}

	if err := store.Remove(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestAssetStore_ReturnsCopies(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, newAsset(1, "USD", 10, false)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.GetByID(ctx, 1)
	got.Symbol = "HACKED"

	again, _ := store.GetByID(ctx, 1)
	if again.Symbol != "USD" {
		t.Errorf("Stored state mutated through returned copy: %s", again.Symbol)
	}
}

func TestAssetStore_ClonesOptionalIDs(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	a := newAsset(1, "USD", 10, true)
	buyback := domain.AccountID(50)
	a.BuybackAccount = &buyback
	if err := store.Insert(ctx, a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Writes through the caller's retained pointers and through a returned
	// copy's pointers must not reach stored state.
	*a.BitassetDataID = 999
	*a.BuybackAccount = 999
	got, _ := store.GetByID(ctx, 1)
	*got.BitassetDataID = 888

	again, _ := store.GetByID(ctx, 1)
	if *again.BitassetDataID != 1 {
		t.Errorf("Stored bitasset id mutated through pointer: %d", *again.BitassetDataID)
	}
	if *again.BuybackAccount != 50 {
		t.Errorf("Stored buyback account mutated through pointer: %d", *again.BuybackAccount)
	}
}

func TestAssetStore_InvalidInput(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.Asset{ID: 1}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty symbol, got %v", err)
	}
}
