package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"layertree/core-go/internal/tree"
)

type treeSummary struct {
	Name        string `json:"name"`
	RootID      string `json:"rootId"`
	Nodes       int    `json:"nodes"`
	Warnings    int    `json:"warnings"`
	Unreachable int    `json:"unreachable"`
}

type treeResponse struct {
	Name     string               `json:"name,omitempty"`
	RootID   string               `json:"rootId"`
	Items    map[string]tree.Node `json:"items"`
	Warnings []tree.Warning       `json:"warnings"`
}

type normalizeRequest struct {
	RootID string                      `json:"rootId"`
	Items  map[string]tree.PartialNode `json:"items"`
}

func toTreeResponse(name string, t tree.Tree, warnings []tree.Warning) treeResponse {
	if warnings == nil {
		warnings = []tree.Warning{}
	}
	return treeResponse{
		Name:     name,
		RootID:   t.RootID,
		Items:    t.Items,
		Warnings: warnings,
	}
}

func (h *Handler) handleListTrees(w http.ResponseWriter, r *http.Request) {
	if !h.ensureCatalog(w) {
		return
	}

	names := h.catalog.Names()
	resp := make([]treeSummary, 0, len(names))
	for _, name := range names {
		e, ok := h.catalog.Get(name)
		if !ok {
			// Reloaded between Names and Get.
			continue
		}
		resp = append(resp, treeSummary{
			Name:        e.Name,
			RootID:      e.Tree.RootID,
			Nodes:       len(e.Tree.Items),
			Warnings:    len(e.Warnings),
			Unreachable: len(e.Unreachable),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetTree(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if !h.ensureCatalog(w) {
		return
	}

	e, ok := h.catalog.Get(name)
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found", "tree not found", map[string]any{"name": name})
		return
	}

	h.writeJSON(w, http.StatusOK, toTreeResponse(e.Name, e.Tree, e.Warnings))
}

func (h *Handler) handleNormalizeTree(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.RootID) == "" {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "rootId is required", nil)
		return
	}

	res, err := h.normalize(tree.RawTree{RootID: req.RootID, Items: req.Items})
	if err != nil {
		var mre *tree.MissingRootError
		if errors.As(err, &mre) {
			h.writeError(w, http.StatusUnprocessableEntity, "missing_root", "root node not found in items", map[string]any{"rootId": mre.RootID})
			return
		}
		h.log.Error().Err(err).Msg("normalize tree failed")
		h.writeError(w, http.StatusInternalServerError, "normalize_failed", "failed to normalize tree", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, toTreeResponse("", res.Tree, res.Warnings))
}

// normalize runs a posted tree through tree.Normalize. Warnings go back to the
// caller in the response, so they are only counted and logged at debug.
func (h *Handler) normalize(raw tree.RawTree) (tree.Result, error) {
	res, err := tree.Normalize(raw)
	if err != nil {
		result := "error"
		if errors.Is(err, tree.ErrMissingRoot) {
			result = "missing_root"
		}
		h.metrics.ObserveNormalization(result, nil)
		return tree.Result{}, err
	}

	codes := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		codes = append(codes, string(w.Code))
	}
	h.metrics.ObserveNormalization("ok", codes)
	h.log.Debug().
		Str("root_id", raw.RootID).
		Int("nodes", len(res.Tree.Items)).
		Strs("warning_codes", codes).
		Msg("normalized posted tree")
	return res, nil
}
