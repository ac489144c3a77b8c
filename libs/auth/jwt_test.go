package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-0123456789"

func TestHS256RoundTrip(t *testing.T) {
	issuer, err := NewIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	p := Principal{AccountID: "acct-1", Role: RoleStaff, Email: "nurse@clinic.test", Name: "Nurse"}

	token, err := issuer.Sign(p)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	parsed, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if parsed != p {
		t.Fatalf("principal mismatch: got %+v", parsed)
	}

	other, _ := NewIssuer("another-secret-0123456789", time.Hour)
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer, _ := NewIssuer(testSecret, time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.Sign(Principal{AccountID: "acct-1", Role: RoleStudent})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	issuer.now = time.Now
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyRejectsNoneAlg(t *testing.T) {
	issuer, _ := NewIssuer(testSecret, time.Hour)
	c := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-1",
			Issuer:    "campusclinic",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none failed: %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}

func TestNewIssuerRejectsShortSecret(t *testing.T) {
	if _, err := NewIssuer("short", time.Hour); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "pass1234") {
		t.Fatal("CheckPassword should succeed")
	}
	if CheckPassword(hash, "wrong-pass") {
		t.Fatal("CheckPassword should fail for wrong password")
	}
	if _, err := HashPassword("short"); err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(RoleStaff, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{AccountID: "s-1", Role: RoleStudent}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rw.Code)
	}

	reqOK := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqOK = reqOK.WithContext(WithPrincipal(reqOK.Context(), Principal{AccountID: "st-1", Role: RoleStaff}))
	rwOK := httptest.NewRecorder()
	h.ServeHTTP(rwOK, reqOK)
	if rwOK.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rwOK.Code)
	}

	anon := httptest.NewRecorder()
	h.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", anon.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	issuer, _ := NewIssuer(testSecret, time.Hour)
	token, err := issuer.Sign(Principal{AccountID: "acct-9", Role: RoleStudent})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	h := RequireAuth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok || p.AccountID != "acct-9" || p.Role != RoleStudent {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	wsReq := httptest.NewRequest(http.MethodGet, "http://example.com/notifications/stream?token="+token, nil)
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, wsReq)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected query token to be accepted, got %d", rw.Code)
	}

	bad := httptest.NewRequest(http.MethodGet, "http://example.com/profile", nil)
	bad.Header.Set("Authorization", "Bearer nope")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, bad)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}
