package feature

import (
	"encoding/json"
	"fmt"
	"math"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/hr-dashboard/internal/domain/hr"
)

// Reviews arrive newest first, so the latest review is the first element.
const reviewSummaryExpr = `{period: [0].period, score: [0].score, summary: [0].summary, average: avg([].score), count: length(@)}`

// SummarizeReviews projects the latest review and the average score. It
// returns nil for an empty list.
func SummarizeReviews(reviews []hr.PerformanceReview) (*PerformanceSummary, error) {
	if len(reviews) == 0 {
		return nil, nil
	}

	// Search works on the generic JSON shape.
	raw, err := json.Marshal(reviews)
	if err != nil {
		return nil, fmt.Errorf("encode reviews: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	res, err := jmespath.Search(reviewSummaryExpr, data)
	if err != nil {
		return nil, fmt.Errorf("summarize reviews: %w", err)
	}
	m, ok := res.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("summarize reviews: unexpected result %T", res)
	}

	out := &PerformanceSummary{
		LatestPeriod:  stringField(m, "period"),
		LatestScore:   int(numberField(m, "score")),
		LatestSummary: stringField(m, "summary"),
		AverageScore:  math.Round(numberField(m, "average")*100) / 100,
		Count:         int(numberField(m, "count")),
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func numberField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
