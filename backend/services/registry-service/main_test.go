package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passionate-dev7/facepay/backend/pkg/common"
)

type fakeChain struct {
	submitted [][]string
	signed    [][]string
	evaluated [][]string
	result    []byte
	err       error
}

func (f *fakeChain) SubmitTransaction(name string, args ...string) ([]byte, error) {
	f.submitted = append(f.submitted, append([]string{name}, args...))
	return f.result, f.err
}

func (f *fakeChain) SubmitAs(wallet, name string, args ...string) ([]byte, error) {
	f.signed = append(f.signed, append([]string{wallet, name}, args...))
	return f.result, f.err
}

func (f *fakeChain) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	f.evaluated = append(f.evaluated, append([]string{name}, args...))
	return f.result, f.err
}

func newTestService(chain *fakeChain) *Service {
	return &Service{
		chain: chain,
		cfg:   &common.Config{RegistryAdmin: "reg-admin", MatchCutoff: 0.4},
	}
}

func routerFor(svc *Service) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/faces/register", svc.RegisterFaceHandler).Methods("POST")
	r.HandleFunc("/faces/{fingerprint}/exists", svc.ExistsHandler).Methods("GET")
	r.HandleFunc("/faces/{fingerprint}", svc.LookupFaceHandler).Methods("GET")
	r.HandleFunc("/admin/verify", svc.AdminVerifyHandler).Methods("POST")
	r.HandleFunc("/admin/identities", svc.ListIdentitiesHandler).Methods("GET")
	r.HandleFunc("/profiles/preferences", svc.UpdatePreferencesHandler).Methods("PUT")
	return r
}

func TestLookupFaceHandler(t *testing.T) {
	chain := &fakeChain{result: []byte("alice-account")}
	rec := httptest.NewRecorder()
	routerFor(newTestService(chain)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/faces/abc123", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice-account")
	require.Len(t, chain.evaluated, 1)
	assert.Equal(t, []string{"registry:LookupByFingerprint", "reg-admin", "abc123"}, chain.evaluated[0])
}

func TestLookupFaceHandlerNotFound(t *testing.T) {
	chain := &fakeChain{result: []byte("")}
	rec := httptest.NewRecorder()
	routerFor(newTestService(chain)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/faces/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestExistsHandler(t *testing.T) {
	chain := &fakeChain{result: []byte("true")}
	rec := httptest.NewRecorder()
	routerFor(newTestService(chain)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/faces/abc123/exists", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())
}

// Registrations bind the on-chain identity to the signer, so the handler must
// sign with the caller's own wallet, never the service identity.
func TestRegisterFaceRequiresWallet(t *testing.T) {
	chain := &fakeChain{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/faces/register", strings.NewReader(`{"descriptor":[0.1,0.2]}`))
	routerFor(newTestService(chain)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, chain.signed)
	assert.Empty(t, chain.submitted)
}

func TestUpdatePreferencesSignsAsCallerWallet(t *testing.T) {
	chain := &fakeChain{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/profiles/preferences",
		strings.NewReader(`{"wallet_id":"alice-wallet","preferred_asset":"USDC","display_name":"Alice"}`))
	routerFor(newTestService(chain)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, chain.signed, 1)
	assert.Equal(t, []string{"alice-wallet", "registry:UpdatePreferences", "USDC", "Alice", "reg-admin"}, chain.signed[0])
	assert.Empty(t, chain.submitted)
}

func TestUpdatePreferencesRequiresWallet(t *testing.T) {
	chain := &fakeChain{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/profiles/preferences",
		strings.NewReader(`{"preferred_asset":"USDC","display_name":"Alice"}`))
	routerFor(newTestService(chain)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, chain.signed)
}

func TestAdminVerifyHandler(t *testing.T) {
	chain := &fakeChain{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/verify", strings.NewReader(`{"owner":"alice","verified":true}`))
	routerFor(newTestService(chain)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, chain.submitted, 1)
	assert.Equal(t, []string{"registry:SetVerified", "alice", "true", "reg-admin"}, chain.submitted[0])
}

func TestListIdentitiesHandler(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT fingerprint, blob_cid, display_name, preferred_asset, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"fingerprint", "blob_cid", "display_name", "preferred_asset", "created_at"}).
			AddRow("abc123", "cid-1", "Alice", "FPT", time.Unix(1_700_000_000, 0)))

	svc := newTestService(&fakeChain{})
	svc.db = db

	rec := httptest.NewRecorder()
	routerFor(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/identities", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc123")
	assert.Contains(t, rec.Body.String(), "cid-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePreferencesHandlerChainErrorMapped(t *testing.T) {
	chain := &fakeChain{err: errNotFoundFromChain{}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/profiles/preferences",
		strings.NewReader(`{"wallet_id":"alice-wallet","preferred_asset":"USDC","display_name":"Alice"}`))
	routerFor(newTestService(chain)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

type errNotFoundFromChain struct{}

func (errNotFoundFromChain) Error() string {
	return "endorsement failure: NOT_FOUND: no identity registered for caller"
}
