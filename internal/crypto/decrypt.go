package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/evm-local-wallet/internal/common"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// DecryptKeystore parses raw and decrypts it with password.
// password is wiped before returning, success or failure.
func DecryptKeystore(raw []byte, password []byte) (*Identity, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		common.Wipe(password)
		return nil, err
	}
	return Decrypt(doc, password)
}

// Decrypt recovers the signing identity protected by doc.
// The MAC is checked in constant time before any decryption; a wrong password
// and a tampered document both fail with model.KindInvalidPassword.
// password is wiped before returning, success or failure.
func Decrypt(doc *Document, password []byte) (*Identity, error) {
	derived, err := doc.kdf.derive(password)
	common.Wipe(password)
	if err != nil {
		return nil, model.WrapError(model.KindUnsupportedFormat, "key derivation rejected parameters", err)
	}
	defer common.Wipe(derived)

	mac := ethcrypto.Keccak256(derived[16:32], doc.ciphertext)
	if subtle.ConstantTimeCompare(mac, doc.mac) != 1 {
		return nil, model.ErrInvalidPassword
	}

	block, err := aes.NewCipher(derived[:16])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	plaintext := make([]byte, len(doc.ciphertext))
	defer common.Wipe(plaintext)
	cipher.NewCTR(block, doc.iv).XORKeyStream(plaintext, doc.ciphertext)

	identity, err := NewIdentity(plaintext)
	if err != nil {
		return nil, err
	}

	if hint, ok := doc.AddressHint(); ok && hint != identity.Address() {
		identity.Destroy()
		return nil, unsupported("address hint does not match key")
	}
	return identity, nil
}

// ReadKeystoreFile reads a keystore document from disk.
// Files larger than maxSize are refused without being read.
func ReadKeystoreFile(filePath string, maxSize int64) ([]byte, error) {
	// Check if file exists
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file does not exist")
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Check that file is not empty and not oversized
	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}
	if maxSize > 0 && fileInfo.Size() > maxSize {
		return nil, fmt.Errorf("file is larger than %d bytes", maxSize)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	return bytes.TrimPrefix(fileData, utf8BOM), nil
}
