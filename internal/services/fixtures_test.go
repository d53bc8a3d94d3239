package services

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"swap-backend/internal/events"
	"swap-backend/internal/mpt"
	"swap-backend/internal/repository"
	"swap-backend/internal/signer"
	"swap-backend/internal/types"
	"swap-backend/internal/utils"
)

var testDepositContract = common.HexToAddress("0x00000000000000000000000000000000000000d1")

type recordingPublisher struct {
	mu     sync.Mutex
	claims []*events.ClaimRecordedEvent
	roots  []*events.RootUpdatedEvent
	err    error
}

func (p *recordingPublisher) PublishClaimRecorded(_ context.Context, event *events.ClaimRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claims = append(p.claims, event)
	return p.err
}

func (p *recordingPublisher) PublishRootUpdated(_ context.Context, event *events.RootUpdatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roots = append(p.roots, event)
	return p.err
}

func (p *recordingPublisher) claimCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.claims)
}

func testLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

// singleLeafTrie returns the root and one-node proof of a trie holding only key -> value.
func singleLeafTrie(t *testing.T, key, value []byte) (types.Hash32, [][]byte) {
	t.Helper()
	node, err := rlp.EncodeToBytes([][]byte{mpt.EncodeHexPrefix(mpt.KeyToNibbles(key), true), value})
	require.NoError(t, err)
	return utils.LocalHash(node), [][]byte{node}
}

func depositTrie(t *testing.T, depositor types.ForeignAddress, locked uint64) (types.Hash32, [][]byte) {
	t.Helper()
	value, err := rlp.EncodeToBytes(locked)
	require.NoError(t, err)
	return singleLeafTrie(t, mpt.DepositorStorageKey(depositor), value)
}

func accountTrie(t *testing.T, storageRoot types.Hash32) (types.Hash32, [][]byte) {
	t.Helper()
	record, err := rlp.EncodeToBytes([]interface{}{
		uint64(1000), uint64(5), uint64(1700000000), []byte{}, crypto.Keccak256(nil), storageRoot.Bytes(),
	})
	require.NoError(t, err)
	return singleLeafTrie(t, mpt.AccountKey(testDepositContract), record)
}

type ledgerFixture struct {
	store     *repository.MemoryClaimStore
	rootRepo  *repository.MemoryRootInfoRepository
	registry  *RootRegistry
	ledger    *ClaimLedger
	publisher *recordingPublisher
	key       *ecdsa.PrivateKey
	signer    types.ForeignAddress
	dest      types.AccountID
	destText  string
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	key, err := crypto.ToECDSA(common.LeftPadBytes([]byte{42}, 32))
	require.NoError(t, err)

	verifier := mpt.NewVerifier(mpt.DefaultLimits())
	publisher := &recordingPublisher{}
	store := repository.NewMemoryClaimStore()
	rootRepo := repository.NewMemoryRootInfoRepository()
	registry := NewRootRegistry(rootRepo, verifier, testDepositContract, publisher, testLogger())
	ledger := NewClaimLedger(store, registry, NewClaimMessageParser(DefaultClaimMessageFormat()), verifier, publisher, testLogger())
	dest, destText := testDestination(0xd4)

	return &ledgerFixture{
		store:     store,
		rootRepo:  rootRepo,
		registry:  registry,
		ledger:    ledger,
		publisher: publisher,
		key:       key,
		signer:    crypto.PubkeyToAddress(key.PublicKey),
		dest:      dest,
		destText:  destText,
	}
}

// lock publishes a new trusted root in which depositor has locked amount and returns its claim proof.
func (f *ledgerFixture) lock(t *testing.T, depositor types.ForeignAddress, amount uint64, block uint64) [][]byte {
	t.Helper()
	storageRoot, claimProof := depositTrie(t, depositor, amount)
	stateRoot, accountProof := accountTrie(t, storageRoot)
	_, err := f.registry.Update(context.Background(), types.PrivilegedOrigin("admin"), stateRoot,
		types.RootMeta{BlockNumber: block, IPFSPath: fmt.Sprintf("/ipfs/root-%d", block)}, accountProof)
	require.NoError(t, err)
	return claimProof
}

func signClaim(t *testing.T, key *ecdsa.PrivateKey, content string) ([]byte, []byte) {
	t.Helper()
	raw := claimMessage(content)
	sig, err := crypto.Sign(signer.MessageDigest(raw).Bytes(), key)
	require.NoError(t, err)
	return sig, raw
}
