package defs

import (
	"context"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/signal"
	"github.com/yungbote/aaos-backend/internal/projection"
)

type ConfidenceSeriesOutput struct {
	Domain *string                  `json:"domain"`
	Key    *string                  `json:"key"`
	Points []*types.ConfidenceState `json:"points"`
}

// ConfidenceSeries returns confidence rows oldest first. Extra "domain"
// and "key" narrow the series.
func ConfidenceSeries() projection.Contract {
	return projection.Definition[*ConfidenceSeriesOutput]{
		ProjectionName: projection.NameConfidenceSeries,
		Reads:          []projection.Source{projection.SourceConfidenceState},
		ValidateFunc: func(in projection.Input) error {
			if d, ok := in.ExtraString("domain"); ok && !signal.ConfidenceDomain(d).Valid() {
				return projection.Invalid("Unknown confidence domain: %s.", d)
			}
			return nil
		},
		RunFunc: runConfidenceSeries,
	}
}

func runConfidenceSeries(ctx context.Context, pc projection.Context, in projection.Input) (*ConfidenceSeriesOutput, error) {
	out := &ConfidenceSeriesOutput{}
	q := projection.Query{
		Filters: []projection.Filter{projection.Eq("user_id", in.UserID)},
		Order:   projection.Ascending("created_at", "id"),
	}
	if d, ok := in.ExtraString("domain"); ok {
		q.Filters = append(q.Filters, projection.Eq("domain", d))
		out.Domain = &d
	}
	if k, ok := in.ExtraString("key"); ok {
		q.Filters = append(q.Filters, projection.Eq("signal_key", k))
		out.Key = &k
	}
	if in.SessionID != nil {
		q.Filters = append(q.Filters, projection.Eq("session_id", *in.SessionID))
	}
	if in.ModelSetID != nil {
		q.Filters = append(q.Filters, projection.Eq("model_set_id", *in.ModelSetID))
	}
	if err := pc.DB.Find(ctx, projection.SourceConfidenceState, &out.Points, q.Within(in.TimeRange)); err != nil {
		return nil, err
	}
	if out.Points == nil {
		out.Points = []*types.ConfidenceState{}
	}
	return out, nil
}
