// Package cmstest provides an in-memory Directus-compatible server for tests.
package cmstest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Request is a recorded incoming request
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

type user struct {
	password string
	record   map[string]any
}

type failure struct {
	status  int
	message string
}

// Server fakes the subset of the Directus API reelmark talks to
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]*user  // by email
	tokens      map[string]string // token -> user id
	collections map[string][]map[string]any
	failures    map[string]failure
	requests    []Request
	nextID      int
}

// New starts a server that is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		users:       make(map[string]*user),
		tokens:      make(map[string]string),
		collections: make(map[string][]map[string]any),
		failures:    make(map[string]failure),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record, s.inject)
	r.HandleFunc("/server/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pong")
	}).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/users/me", s.handleMe).Methods(http.MethodGet, http.MethodPatch)
	r.HandleFunc("/items/{collection}", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/items/{collection}", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/items/{collection}/{id}", s.handleItem).Methods(http.MethodGet, http.MethodPatch, http.MethodDelete)
	return r
}

// AddUser registers a user that can log in with email and password
func (s *Server) AddUser(id, email, password string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := map[string]any{"id": id, "email": email}
	for k, v := range fields {
		record[k] = v
	}
	s.users[email] = &user{password: password, record: record}
}

// Seed appends items to a collection, creating it if needed
func (s *Server) Seed(collection string, items ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		s.collections[collection] = []map[string]any{}
	}
	s.collections[collection] = append(s.collections[collection], items...)
}

// Items returns a copy of a collection's rows
func (s *Server) Items(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, len(s.collections[collection]))
	copy(out, s.collections[collection])
	return out
}

// User returns the stored record for email
func (s *Server) User(email string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[email]; ok {
		return u.record
	}
	return nil
}

// Fail makes every request to method+path answer with status until cleared
// with status 0. A non-empty message is sent as a structured Directus error.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := method + " " + path
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = failure{status: status, message: message}
}

// Requests returns every request received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if ok {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[creds.Email]
	if !ok || u.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid user credentials.")
		return
	}

	s.nextID++
	token := fmt.Sprintf("token-%v-%d", u.record["id"], s.nextID)
	s.tokens[token] = fmt.Sprint(u.record["id"])

	writeData(w, http.StatusOK, map[string]any{
		"access_token":  token,
		"refresh_token": "refresh-" + token,
		"expires":       900000,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.tokens, bearer(r))
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	email, _ := payload["email"].(string)
	password, _ := payload["password"].(string)
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, `"email" and "password" are required`)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; exists {
		writeError(w, http.StatusBadRequest, `Value for field "email" in collection "directus_users" has to be unique.`)
		return
	}

	s.nextID++
	record := map[string]any{"id": fmt.Sprintf("user-%d", s.nextID)}
	for k, v := range payload {
		if k != "password" {
			record[k] = v
		}
	}
	s.users[email] = &user{password: password, record: record}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tokens[bearer(r)]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid user credentials.")
		return
	}

	var u *user
	for _, candidate := range s.users {
		if fmt.Sprint(candidate.record["id"]) == id {
			u = candidate
			break
		}
	}
	if u == nil {
		writeError(w, http.StatusForbidden, "You don't have permission to access this.")
		return
	}

	if r.Method == http.MethodPatch {
		var changes map[string]any
		if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		for k, v := range changes {
			u.record[k] = v
		}
	}

	writeData(w, http.StatusOK, u.record)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	var filter map[string]any
	if raw := r.URL.Query().Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid query. Invalid JSON for filter object.")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.collections[collection]
	if !ok {
		writeError(w, http.StatusForbidden, "You don't have permission to access this.")
		return
	}

	out := []map[string]any{}
	for _, row := range rows {
		if matches(row, filter) {
			out = append(out, row)
		}
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		writeError(w, http.StatusForbidden, "You don't have permission to access this.")
		return
	}

	s.nextID++
	if _, ok := payload["id"]; !ok {
		payload["id"] = fmt.Sprint(s.nextID)
	}
	s.collections[collection] = append(s.collections[collection], payload)
	writeData(w, http.StatusOK, payload)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection, id := vars["collection"], vars["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.collections[collection]
	idx := -1
	for i, row := range rows {
		if fmt.Sprint(row["id"]) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusForbidden, "You don't have permission to access this.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeData(w, http.StatusOK, rows[idx])
	case http.MethodPatch:
		var changes map[string]any
		if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		for k, v := range changes {
			rows[idx][k] = v
		}
		writeData(w, http.StatusOK, rows[idx])
	case http.MethodDelete:
		s.collections[collection] = append(rows[:idx:idx], rows[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	}
}

// matches evaluates the subset of Directus filter operators the client uses
func matches(row map[string]any, filter map[string]any) bool {
	for field, rule := range filter {
		if field == "_and" {
			parts, _ := rule.([]any)
			for _, part := range parts {
				sub, _ := part.(map[string]any)
				if !matches(row, sub) {
					return false
				}
			}
			continue
		}

		ops, ok := rule.(map[string]any)
		if !ok {
			return false
		}
		value, present := row[field]
		present = present && value != nil
		for op, want := range ops {
			switch op {
			case "_eq":
				if !present || fmt.Sprint(value) != fmt.Sprint(want) {
					return false
				}
			case "_neq":
				if present && fmt.Sprint(value) == fmt.Sprint(want) {
					return false
				}
			case "_nnull":
				if present != (want == true) {
					return false
				}
			case "_null":
				if present == (want == true) {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if message == "" {
		w.Write([]byte(`{}`))
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]any{{"message": message}},
	})
}
