package crypto

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	// Upper bounds on declared work factors.
	// 128*N*r bytes is scrypt's working set: 1 GiB here.
	maxScryptMemory = 1 << 30
	maxScryptP      = 16
	maxPBKDF2Iter   = 1 << 24
)

// keyDeriver is one supported KDF variant with its declared parameters.
type keyDeriver interface {
	name() string
	derive(password []byte) ([]byte, error)
}

type scryptParams struct {
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
}

type pbkdf2Params struct {
	C     int    `json:"c"`
	PRF   string `json:"prf"`
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
}

type scryptKDF struct {
	n, r, p, dkLen int
	salt           []byte
}

func (k *scryptKDF) name() string { return kdfScrypt }

func (k *scryptKDF) derive(password []byte) ([]byte, error) {
	return scrypt.Key(password, k.salt, k.n, k.r, k.p, k.dkLen)
}

type pbkdf2KDF struct {
	iter, dkLen int
	salt        []byte
}

func (k *pbkdf2KDF) name() string { return kdfPBKDF2 }

func (k *pbkdf2KDF) derive(password []byte) ([]byte, error) {
	return pbkdf2.Key(password, k.salt, k.iter, k.dkLen, sha256.New), nil
}

func parseKDF(kind string, raw json.RawMessage) (keyDeriver, error) {
	if len(raw) == 0 {
		return nil, unsupported("missing kdfparams")
	}
	switch kind {
	case kdfScrypt:
		var p scryptParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, unsupported("invalid scrypt parameters")
		}
		return newScryptKDF(p)
	case kdfPBKDF2:
		var p pbkdf2Params
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, unsupported("invalid pbkdf2 parameters")
		}
		return newPBKDF2KDF(p)
	default:
		return nil, unsupported(fmt.Sprintf("unsupported kdf %q", kind))
	}
}

func newScryptKDF(p scryptParams) (*scryptKDF, error) {
	if p.DKLen != derivedKeyLen {
		return nil, unsupported(fmt.Sprintf("unsupported dklen %d", p.DKLen))
	}
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return nil, unsupported("scrypt n must be a power of two greater than 1")
	}
	if p.R <= 0 || p.P <= 0 || p.P > maxScryptP {
		return nil, unsupported("scrypt r and p out of range")
	}
	if uint64(p.R)*uint64(p.P) >= 1<<30 || uint64(128)*uint64(p.N)*uint64(p.R) > maxScryptMemory {
		return nil, unsupported("scrypt parameters exceed supported work factor")
	}
	salt, err := decodeHexField("kdfparams.salt", p.Salt, 0)
	if err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		return nil, unsupported("kdfparams.salt is empty")
	}
	return &scryptKDF{n: p.N, r: p.R, p: p.P, dkLen: p.DKLen, salt: salt}, nil
}

func newPBKDF2KDF(p pbkdf2Params) (*pbkdf2KDF, error) {
	if p.PRF != prfHMACSHA256 {
		return nil, unsupported(fmt.Sprintf("unsupported prf %q", p.PRF))
	}
	if p.DKLen != derivedKeyLen {
		return nil, unsupported(fmt.Sprintf("unsupported dklen %d", p.DKLen))
	}
	if p.C <= 0 || p.C > maxPBKDF2Iter {
		return nil, unsupported("pbkdf2 iteration count out of range")
	}
	salt, err := decodeHexField("kdfparams.salt", p.Salt, 0)
	if err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		return nil, unsupported("kdfparams.salt is empty")
	}
	return &pbkdf2KDF{iter: p.C, dkLen: p.DKLen, salt: salt}, nil
}
