package services

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-backend/internal/events"
	"swap-backend/internal/models"
	"swap-backend/internal/mpt"
	"swap-backend/internal/repository"
	"swap-backend/internal/types"
)

type failingRootRepository struct {
	repository.RootInfoRepository
}

func (failingRootRepository) Save(context.Context, *models.RootInfoRecord) error {
	return assert.AnError
}

func newTestRegistry(repo repository.RootInfoRepository, publisher *recordingPublisher) *RootRegistry {
	var sink events.Publisher
	if publisher != nil {
		sink = publisher
	}
	return NewRootRegistry(repo, mpt.NewVerifier(mpt.DefaultLimits()), testDepositContract, sink, testLogger())
}

func TestRootRegistryStartsEmpty(t *testing.T) {
	registry := newTestRegistry(repository.NewMemoryRootInfoRepository(), nil)
	require.NoError(t, registry.Load(context.Background()))

	current := registry.Current()
	assert.Empty(t, current.StorageRoot)
	assert.Zero(t, current.MetaBlockNumber)
	assert.Equal(t, types.Hash32{}, current.StorageRootHash())
}

func TestRootRegistryUpdate(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	registry := newTestRegistry(repository.NewMemoryRootInfoRepository(), publisher)

	storageRoot := common.HexToHash("0x5e1f")
	stateRoot, proof := accountTrie(t, storageRoot)

	info, err := registry.Update(ctx, types.PrivilegedOrigin("ops"), stateRoot,
		types.RootMeta{BlockNumber: 812, IPFSPath: "/ipfs/abc"}, proof)
	require.NoError(t, err)
	assert.Equal(t, storageRoot.Bytes(), info.StorageRoot)
	assert.Equal(t, stateRoot, info.StateRoot)
	assert.Equal(t, uint64(812), info.MetaBlockNumber)
	assert.Equal(t, "/ipfs/abc", info.IPFSPath)
	assert.Equal(t, "ops", info.UpdatedBy)

	assert.Equal(t, storageRoot, registry.Current().StorageRootHash())

	require.Len(t, publisher.roots, 1)
	assert.Equal(t, hexutil.Encode(storageRoot.Bytes()), publisher.roots[0].StorageRoot)
	assert.Equal(t, uint64(812), publisher.roots[0].MetaBlockNumber)
}

func TestRootRegistryDeniesUnprivileged(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(repository.NewMemoryRootInfoRepository(), &recordingPublisher{})

	stateRoot, proof := accountTrie(t, common.HexToHash("0x01"))
	_, err := registry.Update(ctx, types.PrivilegedOrigin("ops"), stateRoot, types.RootMeta{BlockNumber: 1}, proof)
	require.NoError(t, err)
	before := registry.Current()

	nextRoot, nextProof := accountTrie(t, common.HexToHash("0x02"))
	_, err = registry.Update(ctx, types.UnprivilegedOrigin(), nextRoot, types.RootMeta{BlockNumber: 2}, nextProof)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, CodePermissionDenied, ErrorCode(err))

	_, err = registry.Update(ctx, types.Origin{Kind: types.OriginSigned, Subject: "0xabc"}, nextRoot, types.RootMeta{BlockNumber: 2}, nextProof)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	assert.Equal(t, before, registry.Current())
}

func TestRootRegistryRejectsBadProofs(t *testing.T) {
	ctx := context.Background()
	admin := types.PrivilegedOrigin("ops")

	t.Run("wrong root", func(t *testing.T) {
		registry := newTestRegistry(repository.NewMemoryRootInfoRepository(), nil)
		_, proof := accountTrie(t, common.HexToHash("0x01"))
		_, err := registry.Update(ctx, admin, common.HexToHash("0xdead"), types.RootMeta{}, proof)
		assert.ErrorIs(t, err, mpt.ErrProofIntegrityMismatch)
		assert.Empty(t, registry.Current().StorageRoot)
	})

	t.Run("other contract", func(t *testing.T) {
		registry := NewRootRegistry(repository.NewMemoryRootInfoRepository(), mpt.NewVerifier(mpt.DefaultLimits()),
			common.HexToAddress("0x00000000000000000000000000000000000000d2"), nil, testLogger())
		stateRoot, proof := accountTrie(t, common.HexToHash("0x01"))
		_, err := registry.Update(ctx, admin, stateRoot, types.RootMeta{}, proof)
		assert.ErrorIs(t, err, mpt.ErrKeyNotInProof)
	})

	t.Run("short storage root", func(t *testing.T) {
		registry := newTestRegistry(repository.NewMemoryRootInfoRepository(), nil)
		record, err := rlp.EncodeToBytes([]interface{}{
			uint64(1000), uint64(5), uint64(1700000000), []byte{}, crypto.Keccak256(nil), common.FromHex("0x1234"),
		})
		require.NoError(t, err)
		stateRoot, proof := singleLeafTrie(t, mpt.AccountKey(testDepositContract), record)

		_, err = registry.Update(ctx, admin, stateRoot, types.RootMeta{}, proof)
		assert.ErrorIs(t, err, mpt.ErrInvalidAccount)
		assert.Empty(t, registry.Current().StorageRoot)
	})

	t.Run("malformed record", func(t *testing.T) {
		registry := newTestRegistry(repository.NewMemoryRootInfoRepository(), nil)
		record, err := rlp.EncodeToBytes([]interface{}{uint64(1), uint64(0)})
		require.NoError(t, err)
		stateRoot, proof := singleLeafTrie(t, mpt.AccountKey(testDepositContract), record)

		_, err = registry.Update(ctx, admin, stateRoot, types.RootMeta{}, proof)
		assert.ErrorIs(t, err, mpt.ErrInvalidAccount)
	})
}

func TestRootRegistryPersistFailureKeepsRoot(t *testing.T) {
	publisher := &recordingPublisher{}
	registry := newTestRegistry(failingRootRepository{}, publisher)

	stateRoot, proof := accountTrie(t, common.HexToHash("0x01"))
	_, err := registry.Update(context.Background(), types.PrivilegedOrigin("ops"), stateRoot, types.RootMeta{BlockNumber: 9}, proof)
	require.ErrorIs(t, err, assert.AnError)

	assert.Empty(t, registry.Current().StorageRoot)
	assert.Empty(t, publisher.roots)
}

func TestRootRegistryLoadRestores(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRootInfoRepository()

	storageRoot := common.HexToHash("0xabcdef")
	stateRoot, proof := accountTrie(t, storageRoot)
	published, err := newTestRegistry(repo, nil).Update(ctx, types.PrivilegedOrigin("ops"), stateRoot,
		types.RootMeta{BlockNumber: 77, IPFSPath: "/ipfs/x"}, proof)
	require.NoError(t, err)

	restarted := newTestRegistry(repo, nil)
	require.NoError(t, restarted.Load(ctx))
	current := restarted.Current()
	assert.Equal(t, storageRoot, current.StorageRootHash())
	assert.Equal(t, stateRoot, current.StateRoot)
	assert.Equal(t, uint64(77), current.MetaBlockNumber)
	assert.Equal(t, "/ipfs/x", current.IPFSPath)
	assert.True(t, published.UpdatedAt.Equal(current.UpdatedAt), "restored %v, published %v", current.UpdatedAt, published.UpdatedAt)
}

func TestRootRegistrySnapshotIsCopy(t *testing.T) {
	registry := newTestRegistry(repository.NewMemoryRootInfoRepository(), nil)
	stateRoot, proof := accountTrie(t, common.HexToHash("0x01"))
	_, err := registry.Update(context.Background(), types.PrivilegedOrigin("ops"), stateRoot, types.RootMeta{}, proof)
	require.NoError(t, err)

	snapshot := registry.Current()
	snapshot.StorageRoot[31] = 0xff
	assert.Equal(t, common.HexToHash("0x01"), registry.Current().StorageRootHash())
}
