package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/AlexZinkM/evm-local-wallet/internal/common"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
)

var log = logrus.WithField("prefix", "handler")

const (
	maxPasswordBytes = 1024
	maxSendBodyBytes = 4096
	// multipart framing around the keystore and password parts
	formOverheadBytes = 8192
	qrSize            = 256
)

// Wallet is the core the handlers call into; *wallet.Service implements it.
type Wallet interface {
	ImportKeystore(ctx context.Context, raw, password []byte) (*model.ImportResult, error)
	GetBalances(ctx context.Context, address string) (*model.Balances, error)
	Valuate(ctx context.Context, balances *model.Balances) *model.BalanceResponse
	SendToken(ctx context.Context, to, humanAmount string) (*model.SendResponse, error)
	TransactionStatus(ctx context.Context, hash ethcommon.Hash) (*model.TxStatusResponse, error)
	Clear()
}

// WalletHandler serves the wallet endpoints
type WalletHandler struct {
	wallet           Wallet
	maxKeystoreBytes int64
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(w Wallet, maxKeystoreBytes int64) (*WalletHandler, error) {
	if w == nil {
		return nil, errors.New("wallet not set")
	}
	if maxKeystoreBytes <= 0 {
		return nil, errors.New("max keystore size must be positive")
	}
	return &WalletHandler{
		wallet:           w,
		maxKeystoreBytes: maxKeystoreBytes,
	}, nil
}

// Import handles POST /wallet/import
// @Summary      Import keystore
// @Description  Decrypts a Web3 Secret Storage (v3) keystore and keeps the key in memory for this process
// @Tags         wallet
// @Accept       mpfd
// @Produce      json
// @Param        keystore  formData  file    true  "Keystore JSON file"
// @Param        password  formData  string  true  "Keystore password"
// @Success      200  {object}  model.ImportResponse
// @Failure      400  {object}  model.ErrorResponse
// @Failure      401  {object}  model.ErrorResponse
// @Router       /wallet/import [post]
func (h *WalletHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxKeystoreBytes+maxPasswordBytes+formOverheadBytes)
	keystore, password, err := h.readImportForm(r)
	defer common.Wipe(password) // Always clear password from memory
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.wallet.ImportKeystore(r.Context(), keystore, password)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := model.ImportResponse{ImportResult: *result}
	if png, err := qrcode.Encode(result.Address, qrcode.Medium, qrSize); err != nil {
		log.WithError(err).Warn("Failed to render address QR code")
	} else {
		resp.QR = base64.StdEncoding.EncodeToString(png)
	}
	writeJSON(w, http.StatusOK, resp)
}

// readImportForm streams the multipart parts so the password lands in a
// byte slice the caller can wipe, never in a string.
func (h *WalletHandler) readImportForm(r *http.Request) (keystore, password []byte, err error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, model.NewError(model.KindUnsupportedFormat, "expected multipart form with keystore and password")
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, password, model.NewError(model.KindUnsupportedFormat, "malformed multipart form")
		}
		switch part.FormName() {
		case "keystore":
			keystore, err = readPart(part, h.maxKeystoreBytes)
			if err != nil {
				return nil, password, model.NewError(model.KindUnsupportedFormat, "keystore file is too large or unreadable")
			}
		case "password":
			common.Wipe(password)
			password, err = readPart(part, maxPasswordBytes)
			if err != nil {
				return nil, password, model.NewError(model.KindInvalidPassword, "password is too long or unreadable")
			}
		}
		part.Close()
	}

	if len(keystore) == 0 {
		return nil, password, model.NewError(model.KindUnsupportedFormat, "keystore file is required")
	}
	if len(password) == 0 {
		return nil, password, model.NewError(model.KindInvalidPassword, "password is required")
	}
	return keystore, password, nil
}

func readPart(part *multipart.Part, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(part, limit+1))
	if err != nil {
		common.Wipe(buf.Bytes())
		return nil, err
	}
	if n > limit {
		common.Wipe(buf.Bytes())
		return nil, errors.New("part too large")
	}
	return buf.Bytes(), nil
}

// GetBalance handles GET /wallet/balance
// @Summary      Get wallet balance
// @Description  Gets native and token balance of the imported account or of the given address
// @Tags         wallet
// @Produce      json
// @Param        address  query     string  false  "Account address (defaults to the imported account)"
// @Success      200  {object}  model.BalanceResponse
// @Failure      409  {object}  model.ErrorResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	balances, err := h.wallet.GetBalances(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.wallet.Valuate(r.Context(), balances))
}

// Send handles POST /wallet/send
// @Summary      Send token
// @Description  Sends the configured ERC-20 token and waits until the transaction is included in a block
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.SendRequest  true  "Transfer data"
// @Success      200      {object}  model.SendResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Failure      503      {object}  model.ErrorResponse
// @Router       /wallet/send [post]
func (h *WalletHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSendBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	// A submitted transfer is followed to confirmation even if the caller goes away.
	resp, err := h.wallet.SendToken(context.WithoutCancel(r.Context()), req.ToAddress, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// TransactionStatus handles GET /wallet/tx
// @Summary      Get transaction status
// @Description  Gets the inclusion state of a transaction by hash
// @Tags         wallet
// @Produce      json
// @Param        hash  query     string  true  "Transaction hash"
// @Success      200  {object}  model.TxStatusResponse
// @Failure      400  {object}  model.ErrorResponse
// @Router       /wallet/tx [get]
func (h *WalletHandler) TransactionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	req := model.TxStatusRequest{Hash: r.URL.Query().Get("hash")}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	status, err := h.wallet.TransactionStatus(r.Context(), ethcommon.HexToHash(req.Hash))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Clear handles POST /wallet/clear
// @Summary      Forget imported key
// @Description  Wipes the imported key from memory
// @Tags         wallet
// @Success      204
// @Router       /wallet/clear [post]
func (h *WalletHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	h.wallet.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Failed to write response")
	}
}

// writeError maps a wallet error to its HTTP status. Errors without a kind are
// reported generically; their text may come from anywhere.
func writeError(w http.ResponseWriter, err error) {
	var werr *model.Error
	if !errors.As(err, &werr) {
		log.WithError(err).Error("Unexpected wallet error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, statusFor(werr.Kind), model.ErrorResponse{
		Error:  werr.Error(),
		Code:   string(werr.Kind),
		Detail: werr.Detail,
	})
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindUnsupportedFormat, model.KindInvalidRecipient, model.KindInvalidAmount, model.KindInvalidAddress:
		return http.StatusBadRequest
	case model.KindInvalidPassword:
		return http.StatusUnauthorized
	case model.KindNoIdentityLoaded:
		return http.StatusConflict
	case model.KindSendCooldown:
		return http.StatusTooManyRequests
	case model.KindTransferFailed:
		return http.StatusUnprocessableEntity
	case model.KindInvalidToken:
		return http.StatusBadGateway
	case model.KindNodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
