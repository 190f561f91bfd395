// Package remotetest provides an in-memory document API for tests.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"trading-journal-go/internal/storage/remote"
)

// Server mimics the subset of the Firestore REST API used by the remote backend.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string]map[string]remote.Document
	failures    []int
	rules       []failRule
	requests    []string
	nextID      int
}

// NewServer starts a fake document API. Close it when done.
func NewServer() *Server {
	s := &Server{collections: make(map[string]map[string]remote.Document)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// BaseURL is the value to configure as the client's base URL.
func (s *Server) BaseURL() string {
	return s.URL + "/v1"
}

// FailNext makes the next request fail with status.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, status)
}

type failRule struct {
	method, collection string
	status             int
}

// FailOn makes the next method request on a document of collection fail with status.
// Other requests are served normally.
func (s *Server) FailOn(method, collection string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, failRule{method: method, collection: collection, status: status})
}

// Count returns the number of documents in a collection.
func (s *Server) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

// Requests returns "METHOD path" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, r.Method+" "+r.URL.Path)

	if len(s.failures) > 0 {
		status := s.failures[0]
		s.failures = s.failures[1:]
		writeError(w, status, "INJECTED", "injected failure")
		return
	}
	for i, rule := range s.rules {
		if r.Method == rule.method && strings.Contains(r.URL.Path, "/documents/"+rule.collection+"/") {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			writeError(w, rule.status, "INJECTED", "injected failure")
			return
		}
	}

	idx := strings.Index(r.URL.Path, "/documents")
	if !strings.HasPrefix(r.URL.Path, "/v1/projects/") || idx < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown path "+r.URL.Path)
		return
	}
	root := strings.TrimPrefix(r.URL.Path[:idx+len("/documents")], "/v1/")
	rest := r.URL.Path[idx+len("/documents"):]

	if rest == ":runQuery" && r.Method == http.MethodPost {
		s.runQuery(w, r)
		return
	}

	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		switch r.Method {
		case http.MethodGet:
			s.list(w, r, parts[0])
		case http.MethodPost:
			s.create(w, r, root, parts[0])
		default:
			writeError(w, http.StatusMethodNotAllowed, "UNIMPLEMENTED", r.Method)
		}
	case len(parts) == 2:
		switch r.Method {
		case http.MethodGet:
			s.get(w, parts[0], parts[1])
		case http.MethodPatch:
			s.patch(w, r, root, parts[0], parts[1])
		case http.MethodDelete:
			delete(s.collections[parts[0]], parts[1])
			writeJSON(w, http.StatusOK, struct{}{})
		default:
			writeError(w, http.StatusMethodNotAllowed, "UNIMPLEMENTED", r.Method)
		}
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown path "+r.URL.Path)
	}
}

func (s *Server) collection(name string) map[string]remote.Document {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]remote.Document)
		s.collections[name] = c
	}
	return c
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, root, collection string) {
	var body remote.Document
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	id := r.URL.Query().Get("documentId")
	if id == "" {
		s.nextID++
		id = fmt.Sprintf("auto%06d", s.nextID)
	}

	c := s.collection(collection)
	if _, exists := c[id]; exists {
		writeError(w, http.StatusConflict, "ALREADY_EXISTS", "document already exists: "+id)
		return
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	doc := remote.Document{
		Name:       root + "/" + collection + "/" + id,
		Fields:     body.Fields,
		CreateTime: now,
		UpdateTime: now,
	}
	c[id] = doc
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) get(w http.ResponseWriter, collection, id string) {
	doc, ok := s.collections[collection][id]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no document "+collection+"/"+id)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request, root, collection, id string) {
	var body remote.Document
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	c := s.collection(collection)
	doc, exists := c[id]
	if !exists {
		if r.URL.Query().Get("currentDocument.exists") == "true" {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no document "+collection+"/"+id)
			return
		}
		doc = remote.Document{Name: root + "/" + collection + "/" + id, Fields: map[string]remote.Value{}}
	}

	mask := r.URL.Query()["updateMask.fieldPaths"]
	if len(mask) == 0 {
		doc.Fields = body.Fields
	} else {
		merged := make(map[string]remote.Value, len(doc.Fields))
		for k, v := range doc.Fields {
			merged[k] = v
		}
		for _, field := range mask {
			if v, ok := body.Fields[field]; ok {
				merged[field] = v
			} else {
				delete(merged, field)
			}
		}
		doc.Fields = merged
	}
	doc.UpdateTime = time.Now().UTC().Format(time.RFC3339Nano)
	c[id] = doc
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, collection string) {
	c := s.collections[collection]
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	size, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || size <= 0 {
		size = len(ids)
	}
	if start > len(ids) {
		start = len(ids)
	}
	end := start + size
	if end > len(ids) {
		end = len(ids)
	}

	resp := struct {
		Documents     []remote.Document `json:"documents,omitempty"`
		NextPageToken string            `json:"nextPageToken,omitempty"`
	}{}
	for _, id := range ids[start:end] {
		resp.Documents = append(resp.Documents, c[id])
	}
	if end < len(ids) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StructuredQuery remote.StructuredQuery `json:"structuredQuery"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	q := body.StructuredQuery
	if len(q.From) != 1 {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "exactly one collection required")
		return
	}

	var docs []remote.Document
	for _, doc := range s.collections[q.From[0].CollectionID] {
		if q.Where != nil && q.Where.FieldFilter != nil {
			f := q.Where.FieldFilter
			if f.Op != "EQUAL" {
				writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "unsupported op "+f.Op)
				return
			}
			if !sameString(doc.Fields[f.Field.FieldPath], f.Value) {
				continue
			}
		}
		docs = append(docs, doc)
	}

	// Deterministic base order before applying orderBy.
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	for k := len(q.OrderBy) - 1; k >= 0; k-- {
		o := q.OrderBy[k]
		desc := o.Direction == "DESCENDING"
		sort.SliceStable(docs, func(i, j int) bool {
			a, b := sortKey(docs[i].Fields[o.Field.FieldPath]), sortKey(docs[j].Fields[o.Field.FieldPath])
			if desc {
				return a > b
			}
			return a < b
		})
	}

	type result struct {
		Document *remote.Document `json:"document,omitempty"`
		ReadTime string           `json:"readTime"`
	}
	readTime := time.Now().UTC().Format(time.RFC3339Nano)
	out := make([]result, 0, len(docs)+1)
	for i := range docs {
		out = append(out, result{Document: &docs[i], ReadTime: readTime})
	}
	if len(out) == 0 {
		// The real API answers an empty query with a single document-less element.
		out = append(out, result{ReadTime: readTime})
	}
	writeJSON(w, http.StatusOK, out)
}

func sameString(a, b remote.Value) bool {
	return a.StringValue != nil && b.StringValue != nil && *a.StringValue == *b.StringValue
}

// sortKey renders comparable values as strings; timestamps are normalized to UTC.
func sortKey(v remote.Value) string {
	switch {
	case v.TimestampValue != nil:
		if t, err := time.Parse(time.RFC3339Nano, *v.TimestampValue); err == nil {
			return t.UTC().Format("2006-01-02T15:04:05.000000000")
		}
		return *v.TimestampValue
	case v.StringValue != nil:
		return *v.StringValue
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	body := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": msg,
			"status":  code,
		},
	}
	writeJSON(w, status, body)
}
