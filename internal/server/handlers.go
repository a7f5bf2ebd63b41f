package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// weightsBody is the body of GET and PUT /api/domains/{id}/category-weights.
type weightsBody struct {
	DomainID     string              `json:"domain_id"`
	Weights      map[string]float64  `json:"weights"`
	WeightSource schema.WeightSource `json:"weight_source,omitempty"`
}

// metricValueRequest is the body of POST /api/metric-values.
type metricValueRequest struct {
	DomainID  string `json:"domain_id"`
	LibraryID string `json:"library_id"`
	MetricID  string `json:"metric_id"`
	Value     any    `json:"value"`
}

// bulkValuesRequest is the body of POST /api/metric-values/bulk.
type bulkValuesRequest struct {
	DomainID string                     `json:"domain_id"`
	Values   []schema.MetricValueUpdate `json:"values"`
}

func (s *Server) options() algo.Options {
	return algo.Options{Unranged: s.cfg.NumericUnranged}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.mgr.GetDomainStore().ListDomains(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if domains == nil {
		domains = []schema.DomainSummary{}
	}
	writeJSON(w, http.StatusOK, domains)
}

func (s *Server) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	detail, err := core.GetDomainDetail(r.Context(), s.mgr.GetDomainStore(), r.PathValue("id"), s.options())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGetRanking(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Clone()
	cfg.DomainID = r.PathValue("id")
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > contract.MaxResultLimit {
			writeError(w, http.StatusBadRequest, errCodeBadRequest, fmt.Sprintf("limit must be between 1 and %d", contract.MaxResultLimit))
			return
		}
		cfg.ResultLimit = limit
	}

	report, err := core.GetDomainRanking(s.requestContext(r), cfg, s.mgr, s.rules)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingBody(report))
}

// rankingBody is the ranking rounded to the reported precision, with labels.
func rankingBody(report *schema.RankingReport) map[string]any {
	res := report.Result.Rounded(schema.ScorePrecision)
	return map[string]any{
		"domain":           res.Domain,
		"domain_id":        res.DomainID,
		"global_ranking":   res.GlobalRanking,
		"category_details": res.CategoryDetails,
		"ranked":           schema.EnrichLibraries(res.Ranked),
		"weights":          res.Weights,
		"weight_source":    res.WeightSource,
		"weights_stale":    res.WeightsStale,
		"skipped_values":   len(report.Skipped),
		"cache_hit":        report.CacheHit,
	}
}

func (s *Server) handleGetValuesTable(w http.ResponseWriter, r *http.Request) {
	snap, err := s.mgr.GetDomainStore().LoadDomainSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema.BuildValuesTable(snap))
}

func (s *Server) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	weights, source, err := core.GetEffectiveWeights(r.Context(), s.mgr.GetDomainStore(), id, s.options())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weightsBody{DomainID: id, Weights: weights, WeightSource: source})
}

func (s *Server) handlePutWeights(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body weightsBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := core.SaveCategoryWeights(r.Context(), s.mgr.GetDomainStore(), id, body.Weights, s.options()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weightsBody{DomainID: id, Weights: body.Weights, WeightSource: schema.StoredWeights})
}

func (s *Server) handlePostMetricValue(w http.ResponseWriter, r *http.Request) {
	var req metricValueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DomainID == "" {
		writeError(w, http.StatusBadRequest, errCodeValidation, "domain_id is required")
		return
	}
	update := schema.MetricValueUpdate{LibraryID: req.LibraryID, MetricID: req.MetricID, Value: req.Value}
	if err := core.UpdateMetricValue(r.Context(), s.mgr.GetDomainStore(), req.DomainID, update); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema.BulkUpdateResult{Updated: 1})
}

func (s *Server) handlePostMetricValuesBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkValuesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DomainID == "" {
		writeError(w, http.StatusBadRequest, errCodeValidation, "domain_id is required")
		return
	}
	result, err := core.UpdateMetricValues(r.Context(), s.mgr.GetDomainStore(), req.DomainID, req.Values)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rules.RuleSet())
}

// decodeBody reads a JSON body, keeping numbers as json.Number so values reach
// the type checks unchanged. It writes a 400 and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}
