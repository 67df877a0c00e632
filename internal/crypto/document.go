package crypto

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

const (
	keystoreVersion = 3
	cipherAES128CTR = "aes-128-ctr"
	kdfScrypt       = "scrypt"
	kdfPBKDF2       = "pbkdf2"
	prfHMACSHA256   = "hmac-sha256"

	ivLen         = 16
	macLen        = 32
	derivedKeyLen = 32
	privateKeyLen = 32
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// documentJSON is the wire shape of a v3 keystore.
// encoding/json matches keys case-insensitively, so "Crypto" decodes too.
type documentJSON struct {
	Address string      `json:"address"`
	ID      string      `json:"id"`
	Version int         `json:"version"`
	Crypto  *cryptoJSON `json:"crypto"`
}

type cryptoJSON struct {
	Cipher       string          `json:"cipher"`
	CipherText   string          `json:"ciphertext"`
	CipherParams cipherParams    `json:"cipherparams"`
	KDF          string          `json:"kdf"`
	KDFParams    json.RawMessage `json:"kdfparams"`
	MAC          string          `json:"mac"`
}

type cipherParams struct {
	IV string `json:"iv"`
}

// Document is a validated v3 keystore document. It is immutable once parsed.
type Document struct {
	version    int
	id         uuid.UUID
	address    ethcommon.Address
	hasAddress bool
	iv         []byte
	ciphertext []byte
	kdf        keyDeriver
	mac        []byte
}

// ParseDocument decodes and validates a keystore document.
// Every unsupported or malformed value fails with model.KindUnsupportedFormat;
// no key derivation happens here.
func ParseDocument(raw []byte) (*Document, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, unsupported("keystore is empty")
	}

	var dj documentJSON
	if err := json.Unmarshal(raw, &dj); err != nil {
		return nil, model.WrapError(model.KindUnsupportedFormat, "keystore is not valid JSON", err)
	}

	if dj.Version != keystoreVersion {
		return nil, unsupported(fmt.Sprintf("unsupported keystore version %d", dj.Version))
	}
	if dj.Crypto == nil {
		return nil, unsupported("missing crypto section")
	}
	c := dj.Crypto

	doc := &Document{version: dj.Version}

	if dj.ID != "" {
		id, err := uuid.Parse(dj.ID)
		if err != nil {
			return nil, unsupported("invalid keystore id")
		}
		doc.id = id
	}

	if dj.Address != "" {
		addr := dj.Address
		if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
			addr = "0x" + addr
		}
		if !ethcommon.IsHexAddress(addr) {
			return nil, unsupported("invalid address hint")
		}
		doc.address = ethcommon.HexToAddress(addr)
		doc.hasAddress = true
	}

	if c.Cipher != cipherAES128CTR {
		return nil, unsupported(fmt.Sprintf("unsupported cipher %q", c.Cipher))
	}

	kdf, err := parseKDF(c.KDF, c.KDFParams)
	if err != nil {
		return nil, err
	}
	doc.kdf = kdf

	if doc.iv, err = decodeHexField("cipherparams.iv", c.CipherParams.IV, ivLen); err != nil {
		return nil, err
	}
	if doc.ciphertext, err = decodeHexField("ciphertext", c.CipherText, privateKeyLen); err != nil {
		return nil, err
	}
	if doc.mac, err = decodeHexField("mac", c.MAC, macLen); err != nil {
		return nil, err
	}

	return doc, nil
}

// Version returns the declared document version
func (d *Document) Version() int {
	return d.version
}

// ID returns the document id, uuid.Nil when absent
func (d *Document) ID() uuid.UUID {
	return d.id
}

// AddressHint returns the unauthenticated address stored in the document, if any
func (d *Document) AddressHint() (ethcommon.Address, bool) {
	return d.address, d.hasAddress
}

// KDF returns the key derivation function identifier
func (d *Document) KDF() string {
	return d.kdf.name()
}

func decodeHexField(field, value string, wantLen int) ([]byte, error) {
	value = strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, unsupported(field + " is not valid hex")
	}
	if wantLen > 0 && len(b) != wantLen {
		return nil, unsupported(fmt.Sprintf("%s must be %d bytes, got %d", field, wantLen, len(b)))
	}
	return b, nil
}

func unsupported(msg string) *model.Error {
	return model.NewError(model.KindUnsupportedFormat, msg)
}
