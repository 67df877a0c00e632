package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

const (
	fixtureKeyHex  = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	fixtureAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	fixturePass    = "correct"
)

// scryptKeystore encrypts keyHex with go-ethereum's own keystore writer (light params).
func scryptKeystore(t *testing.T, keyHex, password string) []byte {
	t.Helper()
	priv, err := ethcrypto.HexToECDSA(keyHex)
	require.NoError(t, err)
	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    ethcrypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}
	raw, err := keystore.EncryptKey(key, password, keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)
	return raw
}

// pbkdf2Keystore builds a v3 document with the pbkdf2 variant.
func pbkdf2Keystore(t *testing.T, keyHex, password string, iter int) []byte {
	t.Helper()
	keyBytes, err := hex.DecodeString(keyHex)
	require.NoError(t, err)

	salt := make([]byte, 32)
	iv := make([]byte, 16)
	_, err = rand.Read(salt)
	require.NoError(t, err)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	derived := pbkdf2.Key([]byte(password), salt, iter, 32, sha256.New)
	block, err := aes.NewCipher(derived[:16])
	require.NoError(t, err)
	ciphertext := make([]byte, len(keyBytes))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, keyBytes)
	mac := ethcrypto.Keccak256(derived[16:32], ciphertext)

	doc := map[string]any{
		"version": 3,
		"id":      uuid.NewString(),
		"crypto": map[string]any{
			"cipher":       "aes-128-ctr",
			"cipherparams": map[string]any{"iv": hex.EncodeToString(iv)},
			"ciphertext":   hex.EncodeToString(ciphertext),
			"kdf":          "pbkdf2",
			"kdfparams": map[string]any{
				"c":     iter,
				"dklen": 32,
				"prf":   "hmac-sha256",
				"salt":  hex.EncodeToString(salt),
			},
			"mac": hex.EncodeToString(mac),
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func mutate(t *testing.T, raw []byte, fn func(doc map[string]any, c map[string]any)) []byte {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	c, _ := doc["crypto"].(map[string]any)
	fn(doc, c)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func flipHexByte(t *testing.T, s string, i int) string {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	b[i] ^= 0x01
	return hex.EncodeToString(b)
}

func TestDecryptKeystore_Scrypt(t *testing.T) {
	raw := scryptKeystore(t, fixtureKeyHex, fixturePass)

	identity, err := DecryptKeystore(raw, []byte(fixturePass))
	require.NoError(t, err)
	defer identity.Destroy()

	assert.Equal(t, fixtureAddress, identity.Address().Hex())

	// go-ethereum agrees on the same document
	gethKey, err := keystore.DecryptKey(raw, fixturePass)
	require.NoError(t, err)
	assert.Equal(t, gethKey.Address, identity.Address())
}

func TestDecryptKeystore_PBKDF2(t *testing.T) {
	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 1024)

	identity, err := DecryptKeystore(raw, []byte(fixturePass))
	require.NoError(t, err)
	defer identity.Destroy()

	assert.Equal(t, fixtureAddress, identity.Address().Hex())
}

func TestDecryptKeystore_Deterministic(t *testing.T) {
	raw := scryptKeystore(t, fixtureKeyHex, fixturePass)

	var addresses []ethcommon.Address
	for i := 0; i < 3; i++ {
		identity, err := DecryptKeystore(raw, []byte(fixturePass))
		require.NoError(t, err)
		addresses = append(addresses, identity.Address())
		identity.Destroy()
	}
	assert.Equal(t, addresses[0], addresses[1])
	assert.Equal(t, addresses[1], addresses[2])
}

func TestDecryptKeystore_WrongPassword(t *testing.T) {
	raw := scryptKeystore(t, fixtureKeyHex, fixturePass)

	for _, pw := range []string{"", "Correct", "correct ", "wrong", strings.Repeat("x", 1000)} {
		t.Run(fmt.Sprintf("%q", pw), func(t *testing.T) {
			identity, err := DecryptKeystore(raw, []byte(pw))
			assert.Nil(t, identity)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidPassword)
			assert.Equal(t, model.KindInvalidPassword, model.KindOf(err))
		})
	}
}

func TestDecryptKeystore_TamperedDocument(t *testing.T) {
	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 256)

	for _, field := range []string{"ciphertext", "mac"} {
		for _, pos := range []int{0, 7, 16, 31} {
			t.Run(fmt.Sprintf("%s[%d]", field, pos), func(t *testing.T) {
				tampered := mutate(t, raw, func(_ map[string]any, c map[string]any) {
					c[field] = flipHexByte(t, c[field].(string), pos)
				})
				identity, err := DecryptKeystore(tampered, []byte(fixturePass))
				assert.Nil(t, identity)
				assert.ErrorIs(t, err, model.ErrInvalidPassword)
			})
		}
	}
}

func TestDecryptKeystore_UnsupportedFormat(t *testing.T) {
	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 256)

	tests := map[string][]byte{
		"empty":      []byte("   "),
		"not json":   []byte("{not json"),
		"no crypto":  []byte(`{"version":3}`),
		"version 1":  mutate(t, raw, func(d, _ map[string]any) { d["version"] = 1 }),
		"version 4":  mutate(t, raw, func(d, _ map[string]any) { d["version"] = 4 }),
		"bad id":     mutate(t, raw, func(d, _ map[string]any) { d["id"] = "not-a-uuid" }),
		"bad hint":   mutate(t, raw, func(d, _ map[string]any) { d["address"] = "xyz" }),
		"gcm cipher": mutate(t, raw, func(_, c map[string]any) { c["cipher"] = "aes-128-gcm" }),
		"argon2":     mutate(t, raw, func(_, c map[string]any) { c["kdf"] = "argon2id" }),
		"no params":  mutate(t, raw, func(_, c map[string]any) { delete(c, "kdfparams") }),
		"sha512 prf": mutate(t, raw, func(_, c map[string]any) {
			c["kdfparams"].(map[string]any)["prf"] = "hmac-sha512"
		}),
		"dklen 16": mutate(t, raw, func(_, c map[string]any) {
			c["kdfparams"].(map[string]any)["dklen"] = 16
		}),
		"zero iterations": mutate(t, raw, func(_, c map[string]any) {
			c["kdfparams"].(map[string]any)["c"] = 0
		}),
		"empty salt": mutate(t, raw, func(_, c map[string]any) {
			c["kdfparams"].(map[string]any)["salt"] = ""
		}),
		"short iv": mutate(t, raw, func(_, c map[string]any) {
			c["cipherparams"] = map[string]any{"iv": "00ff"}
		}),
		"odd hex mac": mutate(t, raw, func(_, c map[string]any) { c["mac"] = "abc" }),
		"long ciphertext": mutate(t, raw, func(_, c map[string]any) {
			c["ciphertext"] = c["ciphertext"].(string) + "00"
		}),
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			identity, err := DecryptKeystore(doc, []byte(fixturePass))
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
		})
	}
}

func TestParseDocument_ScryptBounds(t *testing.T) {
	raw := scryptKeystore(t, fixtureKeyHex, fixturePass)
	set := func(k string, v any) []byte {
		return mutate(t, raw, func(_, c map[string]any) {
			c["kdfparams"].(map[string]any)[k] = v
		})
	}

	for name, doc := range map[string][]byte{
		"n not power of two": set("n", 4097),
		"n one":              set("n", 1),
		"n too large":        set("n", 1<<22),
		"r zero":             set("r", 0),
		"p too large":        set("p", 64),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument(doc)
			assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
		})
	}

	doc, err := ParseDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, "scrypt", doc.KDF())
	assert.Equal(t, 3, doc.Version())
	assert.NotEqual(t, uuid.Nil, doc.ID())
	hint, ok := doc.AddressHint()
	assert.True(t, ok)
	assert.Equal(t, fixtureAddress, hint.Hex())
}

func TestDecryptKeystore_AcceptsCapitalizedCryptoAndBOM(t *testing.T) {
	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 256)
	raw = []byte(strings.Replace(string(raw), `"crypto"`, `"Crypto"`, 1))
	raw = append([]byte{0xEF, 0xBB, 0xBF}, raw...)

	identity, err := DecryptKeystore(raw, []byte(fixturePass))
	require.NoError(t, err)
	defer identity.Destroy()
	assert.Equal(t, fixtureAddress, identity.Address().Hex())
}

func TestDecryptKeystore_AddressHintMismatch(t *testing.T) {
	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 256)
	raw = mutate(t, raw, func(d, _ map[string]any) {
		d["address"] = "0000000000000000000000000000000000000001"
	})

	_, err := DecryptKeystore(raw, []byte(fixturePass))
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
}

func TestDecryptKeystore_WipesPassword(t *testing.T) {
	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 256)

	t.Run("success", func(t *testing.T) {
		pw := []byte(fixturePass)
		identity, err := DecryptKeystore(raw, pw)
		require.NoError(t, err)
		identity.Destroy()
		assert.Equal(t, make([]byte, len(pw)), pw)
	})

	t.Run("wrong password", func(t *testing.T) {
		pw := []byte("wrong-password")
		_, err := DecryptKeystore(raw, pw)
		require.Error(t, err)
		assert.Equal(t, make([]byte, len(pw)), pw)
	})

	t.Run("unsupported document", func(t *testing.T) {
		pw := []byte(fixturePass)
		_, err := DecryptKeystore([]byte(`{"version":1}`), pw)
		require.Error(t, err)
		assert.Equal(t, make([]byte, len(pw)), pw)
	})
}

func TestDecryptKeystore_ErrorsCarryNoSecrets(t *testing.T) {
	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 256)
	secret := "hunter2-secret"

	_, err := DecryptKeystore(raw, []byte(secret))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), secret)
	assert.NotContains(t, err.Error(), fixtureKeyHex)
}

func TestIdentity_SignTx(t *testing.T) {
	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 256)
	identity, err := DecryptKeystore(raw, []byte(fixturePass))
	require.NoError(t, err)

	chainID := big.NewInt(1337)
	signer := types.LatestSignerForChainID(chainID)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &ethcommon.Address{0x01},
		Value:     big.NewInt(0),
	})

	signed, err := identity.SignTx(tx, signer)
	require.NoError(t, err)
	sender, err := types.Sender(signer, signed)
	require.NoError(t, err)
	assert.Equal(t, identity.Address(), sender)

	assert.NotContains(t, fmt.Sprintf("%v %+v %#v %s", identity, identity, identity, identity), fixtureKeyHex)

	identity.Destroy()
	identity.Destroy()
	assert.False(t, identity.Alive())
	_, err = identity.SignTx(tx, signer)
	assert.ErrorIs(t, err, model.ErrNoIdentityLoaded)
}

func TestNewIdentity_RejectsInvalidKeys(t *testing.T) {
	_, err := NewIdentity(make([]byte, 31))
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)

	zero := make([]byte, 32)
	_, err = NewIdentity(zero)
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)

	key, err := hex.DecodeString(fixtureKeyHex)
	require.NoError(t, err)
	identity, err := NewIdentity(key)
	require.NoError(t, err)
	defer identity.Destroy()
	assert.Equal(t, make([]byte, 32), key, "source buffer is wiped")
}

func TestReadKeystoreFile(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadKeystoreFile(filepath.Join(dir, "missing.json"), 0)
	assert.EqualError(t, err, "file does not exist")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = ReadKeystoreFile(empty, 0)
	assert.EqualError(t, err, "file is empty")

	raw := pbkdf2Keystore(t, fixtureKeyHex, fixturePass, 256)
	path := filepath.Join(dir, "keystore.json")
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, raw...), 0600))

	_, err = ReadKeystoreFile(path, 16)
	assert.Error(t, err)

	got, err := ReadKeystoreFile(path, 1<<16)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}
