package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PublisherUpsertIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.UpsertPublisher(ctx, &Publisher{StellarAddress: "GABC", Username: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := s.UpsertPublisher(ctx, &Publisher{StellarAddress: "GABC"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.GetPublisher(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestMemoryStore_ContractLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	pub, err := s.UpsertPublisher(ctx, &Publisher{StellarAddress: "GABC"})
	require.NoError(t, err)

	c := &Contract{ContractID: "CTOKEN", Name: "Token", PublisherID: pub.ID, Network: "testnet"}
	require.NoError(t, s.CreateContract(ctx, c))
	assert.ErrorIs(t, s.CreateContract(ctx, c), ErrAlreadyExists)

	_, err = s.GetContract(ctx, "CMISSING")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CreateVersion(ctx, &ContractVersion{ContractID: "CTOKEN", VersionLabel: "v1", InterfaceHash: "h1"}))
	require.NoError(t, s.CreateVersion(ctx, &ContractVersion{ContractID: "CTOKEN", VersionLabel: "v2", InterfaceHash: "h2"}))
	assert.ErrorIs(t, s.CreateVersion(ctx, &ContractVersion{ContractID: "CTOKEN", VersionLabel: "v1"}), ErrAlreadyExists)

	versions, err := s.ListVersions(ctx, "CTOKEN")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "v2", versions[0].VersionLabel, "newest first")

	owned, err := s.ListPublisherContracts(ctx, pub.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestMemoryStore_PaginationAndStats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	pub, _ := s.UpsertPublisher(ctx, &Publisher{StellarAddress: "GABC"})
	for _, id := range []string{"C1", "C2", "C3"} {
		require.NoError(t, s.CreateContract(ctx, &Contract{
			ContractID:  id,
			Name:        id,
			PublisherID: pub.ID,
			Network:     "testnet",
			Verified:    id == "C2",
		}))
	}

	page, total, err := s.ListContractsPaginated(ctx, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)

	rest, _, err := s.ListContractsPaginated(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	empty, _, err := s.ListContractsPaginated(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalContracts)
	assert.EqualValues(t, 1, stats.VerifiedContracts)
	assert.EqualValues(t, 1, stats.TotalPublishers)
}
