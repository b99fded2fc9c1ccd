package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/stevemurr/school-console/api"
	"github.com/stevemurr/school-console/collection"
)

// reserved query parameters; every other parameter is a field filter.
var reserved = map[string]bool{"q": true, "page": true, "pageSize": true}

func (h *Handler) endpoint(w http.ResponseWriter, r *http.Request) (api.Endpoint, bool) {
	name := r.PathValue("entity")
	ep, ok := h.endpoints[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown entity %q", name))
		return nil, false
	}
	return ep, true
}

func (h *Handler) listEntities(w http.ResponseWriter, _ *http.Request) {
	type entity struct {
		Name string `json:"name"`
		Path string `json:"path"`
		Key  string `json:"key"`
	}
	out := make([]entity, 0, len(h.endpoints))
	for _, ep := range h.endpoints {
		def := ep.Definition()
		out = append(out, entity{Name: def.Name, Path: def.Path, Key: def.Key})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	writeJSON(w, http.StatusOK, out)
}

func parseQuery(r *http.Request) (api.Query, error) {
	v := r.URL.Query()
	q := api.Query{Search: v.Get("q")}
	var err error
	if s := v.Get("page"); s != "" {
		if q.Page, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("invalid page %q", s)
		}
	}
	if s := v.Get("pageSize"); s != "" {
		if q.PageSize, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("invalid pageSize %q", s)
		}
	}
	for k := range v {
		if reserved[k] {
			continue
		}
		if q.Filters == nil {
			q.Filters = map[string]string{}
		}
		q.Filters[k] = v.Get(k)
	}
	return q, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ep, ok := h.endpoint(w, r)
	if !ok {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := ep.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ep, ok := h.endpoint(w, r)
	if !ok {
		return
	}
	field := r.URL.Query().Get("by")
	if field == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter \"by\"")
		return
	}
	counts, err := ep.CountBy(r.Context(), field)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"by": field, "counts": counts})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ep, ok := h.endpoint(w, r)
	if !ok {
		return
	}
	item, err := ep.Get(r.Context(), collection.ParseID(r.PathValue("id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ep, ok := h.endpoint(w, r)
	if !ok {
		return
	}
	var body json.RawMessage
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	item, err := ep.Create(r.Context(), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ep, ok := h.endpoint(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if err := readJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	item, err := ep.Update(r.Context(), collection.ParseID(r.PathValue("id")), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ep, ok := h.endpoint(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := ep.Delete(r.Context(), collection.ParseID(id)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ---------- onboarding workflow ----------

func (h *Handler) advanceOnboarding(w http.ResponseWriter, r *http.Request) {
	req, err := h.deps.Onboarding.Advance(r.Context(), collection.ParseID(r.PathValue("id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) rejectOnboarding(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}
	req, err := h.deps.Onboarding.Reject(r.Context(), collection.ParseID(r.PathValue("id")), body.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
