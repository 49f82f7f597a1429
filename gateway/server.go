package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodia/config"
	"custodia/native/common"
	"custodia/native/ledger"
	"custodia/native/swapescrow"
	"custodia/observability/metrics"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Server is the HTTP front-end for the custody engines. Caller identity is
// taken from the request payload; admin and owner routes additionally require
// the configured API key.
type Server struct {
	ledger   *ledger.Engine
	swap     *swapescrow.Engine
	policy   *ledger.AccessPolicy
	log      *slog.Logger
	metrics  *metrics.CustodyMetrics
	adminKey string
}

// NewServer wires the engines behind the HTTP surface.
func NewServer(ledgerEngine *ledger.Engine, swapEngine *swapescrow.Engine, policy *ledger.AccessPolicy, log *slog.Logger, adminKey string) *Server {
	if ledgerEngine == nil {
		panic("gateway: ledger engine required")
	}
	if swapEngine == nil {
		panic("gateway: swap engine required")
	}
	if policy == nil {
		panic("gateway: access policy required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		ledger:   ledgerEngine,
		swap:     swapEngine,
		policy:   policy,
		log:      log,
		metrics:  metrics.Custody(),
		adminKey: adminKey,
	}
}

// Handler builds the chi router with all custody routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/balances/{asset}/{account}", s.handleBalances)
		v1.Get("/locks/{account}", s.handleLockInfo)

		v1.Post("/ledger/deposit", s.handleDeposit)
		v1.Post("/ledger/withdraw", s.handleWithdraw)
		v1.Post("/ledger/withdraw-delegate", s.handleWithdrawDelegate)
		v1.Post("/ledger/lock", s.handleLock)
		v1.Post("/ledger/extend-lock", s.handleExtendLock)
		v1.Post("/ledger/unlock", s.handleUnlock)

		v1.Post("/swap/request", s.handleSwapRequest)
		v1.Post("/swap/accept", s.handleSwapAccept)
		v1.Get("/swap/source/{account}/{id}", s.handleSwapSourceGet)
		v1.Get("/swap/target/{account}/{id}", s.handleSwapTargetGet)

		v1.Group(func(admin chi.Router) {
			admin.Use(s.requireAdminKey)
			admin.Post("/ledger/hold", s.handleHold)
			admin.Post("/ledger/release", s.handleRelease)
			admin.Post("/ledger/transfer", s.handleTransferAvailable)
			admin.Post("/ledger/transfer-pending", s.handleTransferPending)
			admin.Post("/ledger/transfer-exchange", s.handleTransferExchange)
			admin.Post("/swap/mirror", s.handleSwapMirror)
			admin.Post("/swap/complete", s.handleSwapComplete)
			admin.Post("/swap/cancel-source", s.handleSwapCancelSource)
			admin.Post("/swap/cancel-target", s.handleSwapCancelTarget)
			admin.Post("/policy/swap-running", s.handleSwapRunning)
			admin.Post("/policy/assets", s.handleAssetToggle)
			admin.Post("/policy/admins", s.handleAdminToggle)
		})
	})
	return r
}

// --- request payloads ---

type balanceOpRequest struct {
	Caller  string `json:"caller,omitempty"`
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
	Fee     string `json:"fee,omitempty"`
}

type transferRequest struct {
	Caller    string `json:"caller,omitempty"`
	Asset     string `json:"asset"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee,omitempty"`
	ViaWallet bool   `json:"viaWallet,omitempty"`
}

type lockRequest struct {
	Caller   string `json:"caller,omitempty"`
	Account  string `json:"account"`
	Delegate string `json:"delegate,omitempty"`
	Duration uint64 `json:"duration,omitempty"`
}

type swapOpRequest struct {
	Caller           string `json:"caller"`
	Asset            string `json:"asset,omitempty"`
	Initiator        string `json:"initiator,omitempty"`
	Recipient        string `json:"recipient,omitempty"`
	ID               uint64 `json:"id"`
	Amount           string `json:"amount,omitempty"`
	Fee              string `json:"fee,omitempty"`
	Leftover         string `json:"leftover,omitempty"`
	Counterparty     string `json:"counterparty,omitempty"`
	DeliverToWallet  bool   `json:"deliverToWallet,omitempty"`
	RestrictedCaller string `json:"restrictedCaller,omitempty"`
}

type policyRequest struct {
	Caller  string `json:"caller"`
	Asset   string `json:"asset,omitempty"`
	Address string `json:"address,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
	Running bool   `json:"running,omitempty"`
}

// --- handlers ---

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	asset, err := ledger.ParseAsset(chi.URLParam(r, "asset"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := config.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	available, pending, err := s.ledger.Balances(asset, account)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"asset":     asset.String(),
		"account":   chi.URLParam(r, "account"),
		"available": available.String(),
		"pending":   pending.String(),
	})
}

func (s *Server) handleLockInfo(w http.ResponseWriter, r *http.Request) {
	account, err := config.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	record, ok, err := s.ledger.LockInfo(account)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusOK, map[string]any{"locked": false})
		return
	}
	locked, err := s.ledger.LockActive(account)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"locked":     locked,
		"unlockTime": record.UnlockTime,
		"delegate":   fmt.Sprintf("%x", record.Delegate),
	})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req balanceOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	asset, account, amount, ok := s.balanceArgs(w, req)
	if !ok {
		return
	}
	credited, err := s.ledger.Deposit(asset, account, amount)
	s.metrics.ObserveLedgerOp("deposit", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"credited": credited.String()})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req balanceOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	asset, account, amount, ok := s.balanceArgs(w, req)
	if !ok {
		return
	}
	err := s.ledger.Withdraw(asset, account, amount)
	s.metrics.ObserveLedgerOp("withdraw", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleWithdrawDelegate(w http.ResponseWriter, r *http.Request) {
	var req balanceOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	asset, account, amount, ok := s.balanceArgs(w, req)
	if !ok {
		return
	}
	err = s.ledger.WithdrawAsDelegate(caller, asset, account, amount)
	s.metrics.ObserveLedgerOp("withdraw_delegate", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleHold(w http.ResponseWriter, r *http.Request) {
	var req balanceOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	asset, account, amount, ok := s.balanceArgs(w, req)
	if !ok {
		return
	}
	fee, ok := s.optionalAmount(w, req.Fee)
	if !ok {
		return
	}
	err := s.ledger.HoldFunds(asset, account, amount, fee)
	s.metrics.ObserveLedgerOp("hold", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req balanceOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	asset, account, amount, ok := s.balanceArgs(w, req)
	if !ok {
		return
	}
	err := s.ledger.ReleaseFunds(asset, account, amount)
	s.metrics.ObserveLedgerOp("release", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleTransferAvailable(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !s.decode(w, r, &req) {
		return
	}
	asset, from, to, amount, ok := s.transferArgs(w, req)
	if !ok {
		return
	}
	err := s.ledger.TransferAvailable(asset, from, to, amount, req.ViaWallet)
	s.metrics.ObserveLedgerOp("transfer_available", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleTransferPending(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !s.decode(w, r, &req) {
		return
	}
	asset, from, to, amount, ok := s.transferArgs(w, req)
	if !ok {
		return
	}
	err := s.ledger.TransferPending(asset, from, to, amount)
	s.metrics.ObserveLedgerOp("transfer_pending", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleTransferExchange(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	asset, from, to, amount, ok := s.transferArgs(w, req)
	if !ok {
		return
	}
	fee, ok := s.optionalAmount(w, req.Fee)
	if !ok {
		return
	}
	err = s.ledger.TransferExchange(caller, asset, from, to, amount, fee)
	s.metrics.ObserveLedgerOp("transfer_exchange", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := config.ParseAddress(req.Account)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	delegate, err := config.ParseAddress(req.Delegate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.Lock(account, delegate, req.Duration); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleExtendLock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := config.ParseAddress(req.Account)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.ExtendLock(account, req.Duration); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := config.ParseAddress(req.Account)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.Unlock(caller, account); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req swapOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	asset, err := ledger.ParseAsset(req.Asset)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, ok := s.requiredAmount(w, req.Amount)
	if !ok {
		return
	}
	fee, ok := s.optionalAmount(w, req.Fee)
	if !ok {
		return
	}
	if err := s.swap.Request(caller, asset, req.ID, amount, fee); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.metrics.ObserveSwapTransition("requested")
	s.writeOK(w)
}

func (s *Server) handleSwapMirror(w http.ResponseWriter, r *http.Request) {
	var req swapOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	recipient, err := config.ParseAddress(req.Recipient)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	asset, err := ledger.ParseAsset(req.Asset)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, ok := s.requiredAmount(w, req.Amount)
	if !ok {
		return
	}
	counterparty, err := config.ParseAddress(req.Counterparty)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var restricted [20]byte
	if strings.TrimSpace(req.RestrictedCaller) != "" {
		if restricted, err = config.ParseAddress(req.RestrictedCaller); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := s.swap.Mirror(caller, recipient, req.ID, asset, amount, counterparty, req.DeliverToWallet, restricted); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.metrics.ObserveSwapTransition("mirrored")
	s.writeOK(w)
}

func (s *Server) handleSwapAccept(w http.ResponseWriter, r *http.Request) {
	var req swapOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	recipient, err := config.ParseAddress(req.Recipient)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.swap.Accept(caller, recipient, req.ID); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.metrics.ObserveSwapTransition("accepted")
	s.writeOK(w)
}

func (s *Server) handleSwapComplete(w http.ResponseWriter, r *http.Request) {
	var req swapOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	initiator, err := config.ParseAddress(req.Initiator)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	recipient, err := config.ParseAddress(req.Recipient)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, ok := s.requiredAmount(w, req.Amount)
	if !ok {
		return
	}
	leftover, ok := s.optionalAmount(w, req.Leftover)
	if !ok {
		return
	}
	if err := s.swap.CompleteSource(caller, initiator, req.ID, recipient, amount, leftover); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.metrics.ObserveSwapTransition("completed")
	s.writeOK(w)
}

func (s *Server) handleSwapCancelSource(w http.ResponseWriter, r *http.Request) {
	var req swapOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	initiator, err := config.ParseAddress(req.Initiator)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.swap.CancelSource(caller, initiator, req.ID); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.metrics.ObserveSwapTransition("source_cancelled")
	s.writeOK(w)
}

func (s *Server) handleSwapCancelTarget(w http.ResponseWriter, r *http.Request) {
	var req swapOpRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	recipient, err := config.ParseAddress(req.Recipient)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.swap.CancelTarget(caller, recipient, req.ID); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.metrics.ObserveSwapTransition("target_cancelled")
	s.writeOK(w)
}

func (s *Server) handleSwapSourceGet(w http.ResponseWriter, r *http.Request) {
	account, id, ok := s.recordPath(w, r)
	if !ok {
		return
	}
	record, exists, err := s.swap.SourceRecordOf(account, id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if !exists {
		s.writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"exists": true,
		"asset":  record.Asset.String(),
		"amount": record.Amount.String(),
	})
}

func (s *Server) handleSwapTargetGet(w http.ResponseWriter, r *http.Request) {
	account, id, ok := s.recordPath(w, r)
	if !ok {
		return
	}
	record, exists, err := s.swap.TargetRecordOf(account, id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if !exists {
		s.writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	resp := map[string]any{
		"exists":          true,
		"asset":           record.Asset.String(),
		"amount":          record.Amount.String(),
		"counterparty":    fmt.Sprintf("%x", record.Counterparty),
		"deliverToWallet": record.DeliverToWallet,
	}
	if record.RestrictedCaller != ([20]byte{}) {
		resp["restrictedCaller"] = fmt.Sprintf("%x", record.RestrictedCaller)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSwapRunning(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.policy.SetSwapRunning(caller, req.Running); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleAssetToggle(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	asset, err := ledger.ParseAsset(req.Asset)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.policy.SetAssetSupported(caller, asset, req.Enabled); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleAdminToggle(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, err := config.ParseAddress(req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	addr, err := config.ParseAddress(req.Address)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.policy.SetAdmin(caller, addr, req.Enabled); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

// --- helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON payload: %w", err))
		return false
	}
	return true
}

func (s *Server) balanceArgs(w http.ResponseWriter, req balanceOpRequest) (ledger.Asset, [20]byte, *big.Int, bool) {
	asset, err := ledger.ParseAsset(req.Asset)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return ledger.Asset{}, [20]byte{}, nil, false
	}
	account, err := config.ParseAddress(req.Account)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return ledger.Asset{}, [20]byte{}, nil, false
	}
	amount, ok := s.requiredAmount(w, req.Amount)
	if !ok {
		return ledger.Asset{}, [20]byte{}, nil, false
	}
	return asset, account, amount, true
}

func (s *Server) transferArgs(w http.ResponseWriter, req transferRequest) (ledger.Asset, [20]byte, [20]byte, *big.Int, bool) {
	asset, err := ledger.ParseAsset(req.Asset)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return ledger.Asset{}, [20]byte{}, [20]byte{}, nil, false
	}
	from, err := config.ParseAddress(req.From)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return ledger.Asset{}, [20]byte{}, [20]byte{}, nil, false
	}
	to, err := config.ParseAddress(req.To)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return ledger.Asset{}, [20]byte{}, [20]byte{}, nil, false
	}
	amount, ok := s.requiredAmount(w, req.Amount)
	if !ok {
		return ledger.Asset{}, [20]byte{}, [20]byte{}, nil, false
	}
	return asset, from, to, amount, true
}

func (s *Server) requiredAmount(w http.ResponseWriter, raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid amount %q", raw))
		return nil, false
	}
	return amount, true
}

func (s *Server) optionalAmount(w http.ResponseWriter, raw string) (*big.Int, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	return s.requiredAmount(w, raw)
}

func (s *Server) recordPath(w http.ResponseWriter, r *http.Request) ([20]byte, uint64, bool) {
	account, err := config.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return [20]byte{}, 0, false
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid record id: %w", err))
		return [20]byte{}, 0, false
	}
	return account, id, true
}

func (s *Server) writeOK(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeEngineError maps the custody sentinel errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrAmountMustBePositive),
		errors.Is(err, ledger.ErrFeeExceedsAmount),
		errors.Is(err, ledger.ErrLockDurationOutOfRange),
		errors.Is(err, ledger.ErrNotZeroAddress),
		errors.Is(err, ledger.ErrTokenNotSupported),
		errors.Is(err, ledger.ErrBalanceOverflow):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrTokensLocked),
		errors.Is(err, ledger.ErrAlreadyUnlocked),
		errors.Is(err, swapescrow.ErrInvalidRecord),
		errors.Is(err, swapescrow.ErrRecordExists):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrCallerNotDelegate),
		errors.Is(err, ledger.ErrUnauthorizedCaller),
		errors.Is(err, swapescrow.ErrUnauthorizedUser):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrModulePaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrAssetTransferFailed):
		status = http.StatusBadGateway
	}
	s.writeError(w, status, err)
}
