package admin

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testToken      = "admin-token"
	testServerName = "example.com"
	testSecret     = "topsecret"
)

// fakeSynapse implements the handful of admin endpoints the package calls.
type fakeSynapse struct {
	t      *testing.T
	mu     sync.Mutex
	users  map[string]User
	nonces map[string]bool
	seq    int
	calls  []string
}

func newFakeSynapse(t *testing.T) (*fakeSynapse, *httptest.Server) {
	t.Helper()

	fake := &fakeSynapse{
		t:      t,
		users:  map[string]User{},
		nonces: map[string]bool{},
	}
	server := httptest.NewServer(http.HandlerFunc(fake.serveHTTP))
	t.Cleanup(server.Close)
	return fake, server
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()

	client, err := New(Config{
		BaseURL:     server.URL,
		AccessToken: testToken,
		ServerName:  testServerName,
		HTTPClient:  server.Client(),
	}, opts...)
	require.NoError(t, err)
	return client
}

func (f *fakeSynapse) seed(users ...User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range users {
		f.users[u.Name] = u
	}
}

func (f *fakeSynapse) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSynapse) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if r.URL.Path == registerPath {
		f.serveRegister(w, r)
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+testToken {
		writeMatrixError(w, http.StatusUnauthorized, ErrCodeUnknownToken, "Invalid access token passed.")
		return
	}

	switch {
	case r.URL.Path == usersPath && r.Method == http.MethodGet:
		f.serveList(w, r)
	case strings.HasPrefix(r.URL.Path, usersPath+"/"):
		id := strings.TrimPrefix(r.URL.Path, usersPath+"/")
		switch r.Method {
		case http.MethodGet:
			user, ok := f.users[id]
			if !ok {
				writeMatrixError(w, http.StatusNotFound, ErrCodeNotFound, "User not found")
				return
			}
			writeJSON(w, http.StatusOK, user)
		case http.MethodPut:
			f.servePut(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		writeMatrixError(w, http.StatusNotFound, "M_UNRECOGNIZED", "Unrecognized request")
	}
}

func (f *fakeSynapse) servePut(w http.ResponseWriter, r *http.Request, id string) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMatrixError(w, http.StatusBadRequest, "M_NOT_JSON", "Content not JSON.")
		return
	}

	user, exists := f.users[id]
	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
		user = User{Name: id, CreationTS: 1700000000}
	}
	if req.DisplayName != nil {
		user.DisplayName = req.DisplayName
	}
	if req.ThreePIDs != nil {
		user.ThreePIDs = req.ThreePIDs
	}
	if req.ExternalIDs != nil {
		user.ExternalIDs = req.ExternalIDs
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	user.Admin = req.Admin
	user.Deactivated = req.Deactivated
	user.Locked = req.Locked
	user.UserType = req.UserType

	f.users[id] = user
	writeJSON(w, status, user)
}

func (f *fakeSynapse) serveList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	names := make([]string, 0, len(f.users))
	for name := range f.users {
		if frag := q.Get("user_id"); frag != "" && !strings.Contains(name, frag) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	from, _ := strconv.Atoi(q.Get("from"))
	limit := 100
	if l := q.Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	end := from + limit
	if end > len(names) {
		end = len(names)
	}
	if from > end {
		from = end
	}

	page := map[string]any{"total": len(names)}
	users := make([]User, 0, end-from)
	for _, name := range names[from:end] {
		users = append(users, f.users[name])
	}
	page["users"] = users
	if end < len(names) {
		page["next_token"] = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, page)
}

func (f *fakeSynapse) serveRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f.seq++
		nonce := fmt.Sprintf("nonce-%d", f.seq)
		f.nonces[nonce] = true
		writeJSON(w, http.StatusOK, map[string]string{"nonce": nonce})
	case http.MethodPost:
		var body SharedSecretRegistration
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMatrixError(w, http.StatusBadRequest, "M_NOT_JSON", "Content not JSON.")
			return
		}

		if !f.nonces[body.Nonce] {
			writeMatrixError(w, http.StatusBadRequest, "M_UNKNOWN", "unrecognised nonce")
			return
		}
		delete(f.nonces, body.Nonce)

		role := "notadmin"
		if body.Admin {
			role = "admin"
		}
		parts := []string{body.Nonce, body.Username, body.Password, role}
		if body.UserType != nil {
			parts = append(parts, *body.UserType)
		}
		mac := hmac.New(sha1.New, []byte(testSecret))
		mac.Write([]byte(strings.Join(parts, "\x00")))
		if !hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(body.MAC)) {
			writeMatrixError(w, http.StatusForbidden, ErrCodeForbidden, "HMAC incorrect")
			return
		}

		id := "@" + body.Username + ":" + testServerName
		if _, ok := f.users[id]; ok {
			writeMatrixError(w, http.StatusBadRequest, ErrCodeUserInUse, "User ID already taken.")
			return
		}
		f.users[id] = User{Name: id, DisplayName: body.DisplayName, Admin: body.Admin}

		writeJSON(w, http.StatusOK, SharedSecretRegistrationResult{
			AccessToken: "syt_" + body.Username,
			UserID:      id,
			HomeServer:  testServerName,
			DeviceID:    "DEVICE",
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMatrixError(w http.ResponseWriter, status int, errcode, msg string) {
	writeJSON(w, status, map[string]string{"errcode": errcode, "error": msg})
}

func strPtr(s string) *string { return &s }

func u64Ptr(v uint64) *uint64 { return &v }

func boolPtr(v bool) *bool { return &v }
