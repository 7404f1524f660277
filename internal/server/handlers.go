package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/koustreak/idwiden/internal/catalog"
	"github.com/koustreak/idwiden/internal/errs"
	"github.com/koustreak/idwiden/internal/logger"
	"github.com/koustreak/idwiden/internal/report"
)

type rewriteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type rewriteResponse struct {
	Content string          `json:"content"`
	Changed bool            `json:"changed"`
	Changes []report.Change `json:"changes"`
}

type entityView struct {
	Name  string `json:"name"`
	Width string `json:"width"`
}

type ruleView struct {
	Name     string `json:"name"`
	Match    string `json:"match"`
	Role     string `json:"role"`
	Entity   string `json:"entity,omitempty"`
	Self     bool   `json:"self,omitempty"`
	Width    string `json:"width,omitempty"`
	Nullable string `json:"nullable"`
}

type catalogView struct {
	NarrowTypes []string     `json:"narrowTypes"`
	WideType    string       `json:"wideType"`
	Entities    []entityView `json:"entities"`
	Rules       []ruleView   `json:"rules"`
	Warnings    []string     `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	view := catalogView{
		NarrowTypes: s.cat.Types.Narrow,
		WideType:    s.cat.Types.Wide,
		Warnings:    s.cat.Registry.Warnings(),
	}
	for _, e := range s.cat.Table.Entities() {
		view.Entities = append(view.Entities, entityView{Name: e.Name, Width: e.PrimaryKeyWidth.String()})
	}
	for _, r := range s.cat.Registry.Rules() {
		rv := ruleView{
			Name:     r.Name,
			Match:    r.Match.String(),
			Role:     r.Role.String(),
			Entity:   r.Entity,
			Self:     r.Self,
			Nullable: r.Nullable.String(),
		}
		if r.Role == catalog.PlainField {
			rv.Width = r.Width.String()
		}
		view.Rules = append(view.Rules, rv)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req rewriteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errs.Wrap(errs.ErrKindInvalidInput, "decoding request", err))
		return
	}
	if req.Path == "" {
		req.Path = "input.cs"
	}

	key := cacheKey(req)
	if resp, ok := s.cache.Get(key); ok {
		w.Header().Set("X-Cache", "hit")
		writeJSON(w, http.StatusOK, resp)
		return
	}

	res, err := s.eng.ProcessContent(req.Path, []byte(req.Content))
	if err != nil {
		logger.FromContext(r.Context()).WarnWith("rewrite rejected", err, map[string]any{"path": req.Path})
		status := http.StatusUnprocessableEntity
		if errs.IsRead(err) || errs.IsInvalidInput(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	changes := res.Changes
	if changes == nil {
		changes = []report.Change{}
	}
	resp := rewriteResponse{
		Content: string(res.Content),
		Changed: len(res.Changes) > 0,
		Changes: changes,
	}
	s.cache.Add(key, resp)
	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusOK, resp)
}

func cacheKey(req rewriteRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Path))
	h.Write([]byte{0})
	h.Write([]byte(req.Content))
	return hex.EncodeToString(h.Sum(nil))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: errs.KindOf(err).String()})
}
