package schema

import "math"

// ScorePrecision is the number of decimals scores are reported with.
const ScorePrecision = 4

// EnrichedLibrary adds presentation data to a RankedLibrary.
type EnrichedLibrary struct {
	Label        string  `json:"label"`
	Completeness float64 `json:"completeness"`
	RankedLibrary
}

// GetPlainLabel returns a plain text label for an overall score in [0,1].
func GetPlainLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "Excellent"
	case score >= 0.6:
		return "Good"
	case score >= 0.4:
		return "Fair"
	default:
		return "Poor"
	}
}

// EnrichLibraries adds label and completeness to a list of ranked libraries.
func EnrichLibraries(libs []RankedLibrary) []EnrichedLibrary {
	output := make([]EnrichedLibrary, len(libs))
	for i, l := range libs {
		output[i] = EnrichedLibrary{
			Label:         GetPlainLabel(l.Score),
			Completeness:  RoundScore(l.Completeness(), ScorePrecision),
			RankedLibrary: l,
		}
	}
	return output
}

// RoundScore rounds v half away from zero to the given number of decimals.
func RoundScore(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// Rounded returns a copy of the result with every score rounded for presentation.
func (r RankingResult) Rounded(places int) RankingResult {
	out := r
	out.GlobalRanking = roundMap(r.GlobalRanking, places)
	out.Weights = roundMap(r.Weights, places)
	out.CategoryDetails = make(map[string]map[string]float64, len(r.CategoryDetails))
	for cat, libs := range r.CategoryDetails {
		out.CategoryDetails[cat] = roundMap(libs, places)
	}
	out.Ranked = make([]RankedLibrary, len(r.Ranked))
	for i, l := range r.Ranked {
		l.Score = RoundScore(l.Score, places)
		l.CategoryScores = roundMap(l.CategoryScores, places)
		out.Ranked[i] = l
	}
	return out
}

func roundMap(in map[string]float64, places int) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = RoundScore(v, places)
	}
	return out
}

// ValuesTable is the library by metric grid of a domain. Each row holds one value
// per metric, in metric order, with nil for absent values.
type ValuesTable struct {
	Domain  Domain      `json:"domain"`
	Metrics []Metric    `json:"metrics"`
	Rows    []ValuesRow `json:"rows"`
}

// ValuesRow is one library of a ValuesTable.
type ValuesRow struct {
	LibraryID   string `json:"library_id"`
	LibraryName string `json:"library_name"`
	Values      []any  `json:"values"`
}

// BuildValuesTable lays out the raw values of a snapshot as a grid.
func BuildValuesTable(snap DomainSnapshot) ValuesTable {
	table := ValuesTable{
		Domain:  snap.Domain,
		Metrics: snap.Metrics,
		Rows:    make([]ValuesRow, len(snap.Libraries)),
	}
	for i, lib := range snap.Libraries {
		values := make([]any, len(snap.Metrics))
		for j, m := range snap.Metrics {
			values[j] = lib.Values[m.ID]
		}
		table.Rows[i] = ValuesRow{
			LibraryID:   lib.Library.ID,
			LibraryName: lib.Library.Name,
			Values:      values,
		}
	}
	return table
}
