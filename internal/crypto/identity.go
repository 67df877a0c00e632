package crypto

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/evm-local-wallet/internal/common"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	"github.com/awnumar/memguard"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var errIdentityDestroyed = errors.New("signing identity has been destroyed")

// Identity is a decrypted secp256k1 key and its address.
// The key lives in a frozen memguard buffer (mlocked, guard-paged) and is only
// ever materialized for the duration of a single signature.
type Identity struct {
	key     *memguard.LockedBuffer
	address ethcommon.Address
}

// NewIdentity moves raw into protected memory. raw is wiped, also on error.
func NewIdentity(raw []byte) (*Identity, error) {
	if len(raw) != privateKeyLen {
		common.Wipe(raw)
		return nil, unsupported(fmt.Sprintf("private key must be %d bytes", privateKeyLen))
	}
	priv, err := ethcrypto.ToECDSA(raw)
	if err != nil {
		common.Wipe(raw)
		return nil, unsupported("keystore does not contain a valid secp256k1 key")
	}
	address := ethcrypto.PubkeyToAddress(priv.PublicKey)
	common.WipeBigInt(priv.D)

	buf := memguard.NewBufferFromBytes(raw) // wipes raw
	buf.Freeze()
	return &Identity{key: buf, address: address}, nil
}

// Address returns the identity's account address
func (i *Identity) Address() ethcommon.Address {
	return i.address
}

// SignTx signs tx for the given signer. The expanded key is wiped before returning.
func (i *Identity) SignTx(tx *types.Transaction, signer types.Signer) (*types.Transaction, error) {
	if i == nil || !i.key.IsAlive() {
		return nil, model.WrapError(model.KindNoIdentityLoaded, "no keystore imported", errIdentityDestroyed)
	}
	priv, err := ethcrypto.ToECDSA(i.key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	defer common.WipeBigInt(priv.D)

	signed, err := types.SignTx(tx, signer, priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// Alive reports whether the key material is still held
func (i *Identity) Alive() bool {
	return i != nil && i.key.IsAlive()
}

// Destroy wipes and releases the key. Safe to call more than once.
func (i *Identity) Destroy() {
	if i == nil {
		return
	}
	i.key.Destroy()
}

// String never renders key material.
func (i *Identity) String() string {
	return "Identity(" + i.address.Hex() + ")"
}

// GoString never renders key material.
func (i *Identity) GoString() string {
	return i.String()
}
