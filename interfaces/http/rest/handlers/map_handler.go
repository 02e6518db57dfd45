package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"decisionmap/application/mapbuilder"
	"decisionmap/domain/catalog"
	"decisionmap/domain/core/entities"
	pkgerrors "decisionmap/pkg/errors"
)

// MapBuilder builds one decision map
type MapBuilder interface {
	Build(ctx context.Context, in entities.DecisionInput) (mapbuilder.BuildResult, error)
}

// MapHandler serves map building and the catalog
type MapHandler struct {
	builder MapBuilder
	catalog *catalog.Catalog
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewMapHandler creates a new map handler
func NewMapHandler(builder MapBuilder, cat *catalog.Catalog, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *MapHandler {
	return &MapHandler{builder: builder, catalog: cat, errors: errs, logger: logger}
}

// BuildMap handles POST /build-map
func (h *MapHandler) BuildMap(w http.ResponseWriter, r *http.Request) {
	var in entities.DecisionInput
	if err := decodeBody(w, r, &in); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.builder.Build(r.Context(), in)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// DomainInfo describes one domain of the template catalog
type DomainInfo struct {
	ID        string             `json:"id"`
	Templates []catalog.Template `json:"templates"`
}

// Domains handles GET /domains
func (h *MapHandler) Domains(w http.ResponseWriter, r *http.Request) {
	domains := h.catalog.Domains()
	out := make([]DomainInfo, 0, len(domains))
	for _, d := range domains {
		templates := h.catalog.Templates(d)
		if templates == nil {
			templates = []catalog.Template{}
		}
		out = append(out, DomainInfo{ID: d.String(), Templates: templates})
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"domains": out})
}

// Example handles GET /example
func (h *MapHandler) Example(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, catalog.ExampleInput())
}
