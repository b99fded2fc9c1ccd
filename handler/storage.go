package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stevemurr/school-console/collection"
)

func (h *Handler) listKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.deps.Collections.Keys()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *Handler) getCollection(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	c, ok := h.deps.Collections.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no collection under key %q", key))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) putCollection(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var c collection.Collection[json.RawMessage]
	if err := readJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid collection: "+err.Error())
		return
	}
	if err := h.deps.Collections.Save(key, c); err != nil {
		h.fail(w, r, err)
		return
	}
	if c == nil {
		c = collection.Collection[json.RawMessage]{}
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCollection(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	existed, err := h.deps.Collections.Drop(key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no collection under key %q", key))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "key": key})
}
