package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/store"
)

// operatorsResponse lists the active operators. Version increases on every
// configuration reload.
type operatorsResponse struct {
	Operators []operatorInfo `json:"operators"`
	Version   uint64         `json:"version"`
	LoadedAt  time.Time      `json:"loaded_at"`
}

type parseResponse struct {
	Query     string          `json:"query"`
	Canonical string          `json:"canonical"`
	Selectors []string        `json:"selectors"`
	AST       json.RawMessage `json:"ast"`
}

type operatorInfo struct {
	Symbols []string `json:"symbols"`
	Type    string   `json:"type"`
	Min     *int     `json:"min,omitempty"`
	Max     *int     `json:"max,omitempty"` // -1 when unbounded
}

type recordsResponse struct {
	Records []*store.Record `json:"records"`
	Count   int             `json:"count"`
}

type countResponse struct {
	Collection string `json:"collection"`
	Count      int64  `json:"count"`
}

type deleteResponse struct {
	Collection string `json:"collection"`
	Deleted    int64  `json:"deleted"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("filter")
	node, err := s.engine.Parse(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	encoded, err := json.Marshal(node)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{
		Query:     query,
		Canonical: node.String(),
		Selectors: ast.Selectors(node),
		AST:       encoded,
	})
}

func (s *Server) handleOperators(w http.ResponseWriter, r *http.Request) {
	ops := s.engine.Registry().Operators()
	out := make([]operatorInfo, 0, len(ops))
	for _, op := range ops {
		info := operatorInfo{Symbols: op.Symbols(), Type: op.Type().Kind().String()}
		if arity, ok := op.Arity(); ok {
			lo, hi := arity.Min(), arity.Max()
			if arity.IsUnbounded() {
				hi = -1
			}
			info.Min, info.Max = &lo, &hi
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, operatorsResponse{
		Operators: out,
		Version:   s.engine.Version(),
		LoadedAt:  s.engine.LastLoadTime().UTC(),
	})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.Collections(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if infos == nil {
		infos = []store.CollectionInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": infos})
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	node, ok := s.filter(w, r, false)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, fmt.Errorf("%w: invalid limit %q", errBadRequest, raw))
			return
		}
		limit = n
	}

	records, err := s.store.Find(r.Context(), r.PathValue("name"), node, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, recordsResponse{Records: records, Count: len(records)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("name"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	node, ok := s.filter(w, r, false)
	if !ok {
		return
	}
	collection := r.PathValue("name")
	n, err := s.store.Count(r.Context(), collection, node)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Collection: collection, Count: n})
}

// handleInsert accepts a JSON object or an array of objects.
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, r, decodeError(err))
		return
	}

	var docs []map[string]any
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &docs); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", store.ErrInvalidDocument, err))
			return
		}
	} else {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", store.ErrInvalidDocument, err))
			return
		}
		docs = append(docs, doc)
	}

	records, err := s.store.InsertMany(r.Context(), r.PathValue("name"), docs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.DebugContext(r.Context(), "records inserted",
		"collection", r.PathValue("name"),
		"count", len(records),
		"client", ClientName(r.Context()),
	)
	writeJSON(w, http.StatusCreated, recordsResponse{Records: records, Count: len(records)})
}

// handleDelete requires a filter. Emptying a collection takes a match-all
// filter such as id=notnull=.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	node, ok := s.filter(w, r, true)
	if !ok {
		return
	}
	collection := r.PathValue("name")
	n, err := s.store.Delete(r.Context(), collection, node)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "records deleted",
		"collection", collection,
		"deleted_count", n,
		"client", ClientName(r.Context()),
	)
	writeJSON(w, http.StatusOK, deleteResponse{Collection: collection, Deleted: n})
}

// filter parses the filter parameter. An absent filter yields a nil node
// unless required is set. It reports false after writing an error.
func (s *Server) filter(w http.ResponseWriter, r *http.Request, required bool) (ast.Node, bool) {
	query := r.URL.Query().Get("filter")
	if query == "" {
		if required {
			writeError(w, r, fmt.Errorf("%w: filter parameter is required", errBadRequest))
			return nil, false
		}
		return nil, true
	}

	node, err := s.engine.Parse(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return node, true
}

func decodeError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
}
