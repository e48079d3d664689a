package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/host"
	"coffee-ledger/internal/host/sig"
	"coffee-ledger/internal/host/stub"
	"coffee-ledger/internal/ledger"
)

// api serves the ledger operations over HTTP JSON.
type api struct {
	engine   *ledger.Engine
	registry *stub.Registry
	keys     *sig.Keyring
	// signed requires every authorizing principal to present a valid
	// ed25519 signature over the payload. When false the authorized list
	// is taken at its word, which is only acceptable behind a trusted
	// gateway or in development.
	signed bool
	logger *log.Logger
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/create", a.handleOp(a.opCreate))
	mux.HandleFunc("/v1/issue", a.handleOp(a.opIssue))
	mux.HandleFunc("/v1/retire", a.handleOp(a.opRetire))
	mux.HandleFunc("/v1/transfer", a.handleOp(a.opTransfer))
	mux.HandleFunc("/v1/burn", a.handleOp(a.opBurn))
	mux.HandleFunc("/v1/open", a.handleOp(a.opOpen))
	mux.HandleFunc("/v1/close", a.handleOp(a.opClose))
	mux.HandleFunc("/v1/stake", a.handleOp(a.opStake))
	mux.HandleFunc("/v1/unstake", a.handleOp(a.opUnstake))
	mux.HandleFunc("/v1/blacklist/add", a.handleOp(a.opAddToBlacklist))
	mux.HandleFunc("/v1/blacklist/remove", a.handleOp(a.opRemoveFromBlacklist))
	mux.HandleFunc("/v1/accounts", a.handleRegisterAccount)
	mux.HandleFunc("/v1/supply", a.handleGetSupply)
	mux.HandleFunc("/v1/balance", a.handleGetBalance)
	mux.HandleFunc("/v1/stake/of", a.handleGetStake)
}

// envelope is the request shape of every mutating endpoint. Payload carries
// the operation arguments; Authorized lists the principals vouching for the
// call; Signatures maps principal to a base58 ed25519 signature over
// SHA256(payload) when signed mode is on.
type envelope struct {
	Payload    json.RawMessage   `json:"payload"`
	Authorized []string          `json:"authorized"`
	Signatures map[string]string `json:"signatures,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type okResponse struct {
	Status string `json:"status"`
}

// handleOp wraps one operation handler with envelope decoding, authorization
// and uniform logging.
func (a *api) handleOp(op func(r *http.Request, payload json.RawMessage) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "internal", "POST required")
			return
		}

		var env envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_argument", "malformed request body: "+err.Error())
			return
		}

		ctx, err := a.authorize(r, env)
		if err != nil {
			a.logger.Printf("%s %s req=%s rejected: %v", r.Method, r.URL.Path, reqID, err)
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		if err := op(r.WithContext(ctx), env.Payload); err != nil {
			kind := ledger.Kind(err)
			a.logger.Printf("%s %s req=%s failed: %v", r.Method, r.URL.Path, reqID, err)
			writeError(w, statusForKind(kind), kind, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
	}
}

// authorize validates the envelope's authorized list and installs it on the
// request context for the engine's authorizer.
func (a *api) authorize(r *http.Request, env envelope) (context.Context, error) {
	names := make([]domain.Name, 0, len(env.Authorized))
	for _, raw := range env.Authorized {
		name := domain.Name(raw)
		if verr := name.Validate(); verr != nil {
			return nil, errors.New("invalid authorized name " + raw)
		}
		names = append(names, name)
	}
	if a.signed {
		digest := sha256.Sum256(env.Payload)
		sigs := make(map[domain.Name][]byte, len(names))
		for _, name := range names {
			encoded, ok := env.Signatures[string(name)]
			if !ok {
				return nil, errors.New("missing signature for " + string(name))
			}
			sigBytes, derr := base58.Decode(encoded)
			if derr != nil {
				return nil, errors.New("malformed signature for " + string(name))
			}
			sigs[name] = sigBytes
		}
		verified := make(map[domain.Name]bool, len(names))
		for _, name := range a.keys.Authorized(digest[:], sigs) {
			verified[name] = true
		}
		for _, name := range names {
			if !verified[name] {
				return nil, errors.New("signature verification failed for " + string(name))
			}
		}
	}
	return host.WithAuthorized(r.Context(), names...), nil
}

func statusForKind(kind string) int {
	switch kind {
	case "invalid_argument", "overflow":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "already_exists":
		return http.StatusConflict
	case "unauthorized":
		return http.StatusForbidden
	case "policy_violation":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func decodePayload[T any](payload json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func (a *api) opCreate(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		Issuer    string `json:"issuer"`
		MaxSupply string `json:"max_supply"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	maxSupply, err := domain.ParseAmount(req.MaxSupply)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Create(r.Context(), domain.Name(req.Issuer), maxSupply)
}

func (a *api) opIssue(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		To       string `json:"to"`
		Quantity string `json:"quantity"`
		Memo     string `json:"memo"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	quantity, err := domain.ParseAmount(req.Quantity)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Issue(r.Context(), domain.Name(req.To), quantity, req.Memo)
}

func (a *api) opRetire(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		Quantity string `json:"quantity"`
		Memo     string `json:"memo"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	quantity, err := domain.ParseAmount(req.Quantity)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Retire(r.Context(), quantity, req.Memo)
}

func (a *api) opTransfer(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		From     string `json:"from"`
		To       string `json:"to"`
		Quantity string `json:"quantity"`
		Memo     string `json:"memo"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	quantity, err := domain.ParseAmount(req.Quantity)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Transfer(r.Context(), domain.Name(req.From), domain.Name(req.To), quantity, req.Memo)
}

func (a *api) opBurn(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		Sender   string `json:"sender"`
		From     string `json:"from"`
		Quantity string `json:"quantity"`
		Memo     string `json:"memo"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	quantity, err := domain.ParseAmount(req.Quantity)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Burn(r.Context(), domain.Name(req.Sender), domain.Name(req.From), quantity, req.Memo)
}

func (a *api) opOpen(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		Owner    string `json:"owner"`
		Symbol   string `json:"symbol"`
		RAMPayer string `json:"ram_payer"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	symbol, err := domain.ParseSymbol(req.Symbol)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Open(r.Context(), domain.Name(req.Owner), symbol, domain.Name(req.RAMPayer))
}

func (a *api) opClose(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		Owner  string `json:"owner"`
		Symbol string `json:"symbol"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	symbol, err := domain.ParseSymbol(req.Symbol)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Close(r.Context(), domain.Name(req.Owner), symbol)
}

func (a *api) opStake(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		From     string `json:"from"`
		Quantity string `json:"quantity"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	quantity, err := domain.ParseAmount(req.Quantity)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Stake(r.Context(), domain.Name(req.From), quantity)
}

func (a *api) opUnstake(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		From     string `json:"from"`
		Quantity string `json:"quantity"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	quantity, err := domain.ParseAmount(req.Quantity)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.Unstake(r.Context(), domain.Name(req.From), quantity)
}

func (a *api) opAddToBlacklist(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		Account string `json:"account"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.AddToBlacklist(r.Context(), domain.Name(req.Account))
}

func (a *api) opRemoveFromBlacklist(r *http.Request, payload json.RawMessage) error {
	req, err := decodePayload[struct {
		Account string `json:"account"`
	}](payload)
	if err != nil {
		return badPayload(err)
	}
	return a.engine.RemoveFromBlacklist(r.Context(), domain.Name(req.Account))
}

// handleRegisterAccount adds a name to the account registry.
func (a *api) handleRegisterAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "internal", "POST required")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "malformed request body: "+err.Error())
		return
	}
	name := domain.Name(req.Name)
	if err := name.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}
	a.registry.Add(name)
	writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
}

type supplyResponse struct {
	Supply    string `json:"supply"`
	MaxSupply string `json:"max_supply"`
	Issuer    string `json:"issuer"`
}

func (a *api) handleGetSupply(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("symbol")
	st, err := a.engine.GetSupply(r.Context(), code)
	if err != nil {
		kind := ledger.Kind(err)
		writeError(w, statusForKind(kind), kind, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, supplyResponse{
		Supply:    st.Supply.String(),
		MaxSupply: st.MaxSupply.String(),
		Issuer:    string(st.Issuer),
	})
}

type balanceResponse struct {
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
	Payer   string `json:"payer"`
}

func (a *api) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	owner := domain.Name(r.URL.Query().Get("owner"))
	code := r.URL.Query().Get("symbol")
	b, err := a.engine.GetBalance(r.Context(), owner, code)
	if err != nil {
		kind := ledger.Kind(err)
		writeError(w, statusForKind(kind), kind, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Owner:   string(b.Owner),
		Balance: b.Amount.String(),
		Payer:   string(b.Payer),
	})
}

type stakeResponse struct {
	Account string `json:"account"`
	Staked  string `json:"staked"`
}

func (a *api) handleGetStake(w http.ResponseWriter, r *http.Request) {
	account := domain.Name(r.URL.Query().Get("account"))
	s, err := a.engine.GetStake(r.Context(), account)
	if err != nil {
		kind := ledger.Kind(err)
		writeError(w, statusForKind(kind), kind, err.Error())
		return
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "not_found", "nothing staked")
		return
	}
	writeJSON(w, http.StatusOK, stakeResponse{
		Account: string(s.Account),
		Staked:  s.Staked.String(),
	})
}

func badPayload(err error) error {
	return fmt.Errorf("%w: %v", ledger.ErrInvalidArgument, err)
}
