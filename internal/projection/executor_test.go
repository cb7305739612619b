package projection

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/aaos-backend/internal/data/repos/testutil"
)

type fakePause struct {
	paused bool
	reason string
}

func (p fakePause) EffectivePause(context.Context, uuid.UUID) (bool, string, error) {
	return p.paused, p.reason, nil
}

type recorder struct {
	mu      sync.Mutex
	records []AccessRecord
}

func (r *recorder) RecordProjectionAccess(_ context.Context, rec AccessRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

// ownerDB answers ownership counts from a fixed set of (id, user) pairs.
type ownerDB struct {
	owners map[uuid.UUID]uuid.UUID
}

func (d ownerDB) First(context.Context, Source, any, Query) (bool, error) { return false, nil }

func (d ownerDB) Find(context.Context, Source, any, Query) error { return nil }

func (d ownerDB) Count(_ context.Context, _ Source, q Query) (int64, error) {
	var id, user uuid.UUID
	for _, f := range q.Filters {
		switch f.Column {
		case "id":
			id = f.Value.(uuid.UUID)
		case "user_id":
			user = f.Value.(uuid.UUID)
		}
	}
	if owner, ok := d.owners[id]; ok && owner == user {
		return 1, nil
	}
	return 0, nil
}

func (d ownerDB) Aggregate(context.Context, Source, string, Query) (AggregateResult, error) {
	return AggregateResult{}, nil
}

type echo struct {
	UserID string
	Now    time.Time
}

func echoDefinition(runs *int) Definition[echo] {
	return Definition[echo]{
		ProjectionName: NameSessionTimeline,
		Reads:          []Source{SourceSession, SourceAuditEvent},
		ValidateFunc: func(in Input) error {
			if v, ok := in.Extra["reject"].(bool); ok && v {
				return Invalid("rejected by contract")
			}
			return nil
		},
		RunFunc: func(_ context.Context, pc Context, in Input) (echo, error) {
			*runs++
			return echo{UserID: in.UserID, Now: pc.Now()}, nil
		},
	}
}

func newTestExecutor(t *testing.T, pause PauseLookup, db ReadDB, runs *int) (*Executor, *recorder) {
	t.Helper()
	reg, err := NewRegistry(echoDefinition(runs))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	rec := &recorder{}
	exec := NewExecutor(reg, NewGuard(pause, db), db, rec, testutil.Clock(t), testutil.Logger(t))
	return exec, rec
}

func TestExecute_AuditsOnceOnSuccess(t *testing.T) {
	runs := 0
	exec, rec := newTestExecutor(t, fakePause{}, ownerDB{}, &runs)

	upper := strings.ToUpper(testUserID)
	out, err := ExecuteAs[echo](context.Background(), exec, NameSessionTimeline, Input{UserID: upper})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.UserID != testUserID {
		t.Fatalf("ids should reach the contract in canonical form, got %s", out.UserID)
	}
	if !out.Now.Equal(testutil.Epoch) {
		t.Fatalf("contract should see the executor clock")
	}
	if runs != 1 || len(rec.records) != 1 {
		t.Fatalf("expected one run and one audit, got %d/%d", runs, len(rec.records))
	}
	got := rec.records[0]
	want, _ := Fingerprint(Input{UserID: testUserID})
	if got.InputsHash != want || len(got.InputsHash) != 8 {
		t.Fatalf("inputs hash = %q, want %q", got.InputsHash, want)
	}
	if got.Projection != NameSessionTimeline || len(got.Sources) != 2 || got.SessionID != nil {
		t.Fatalf("unexpected access record: %+v", got)
	}
}

func TestExecute_RefusalsAuditNothing(t *testing.T) {
	foreignSession := uuid.New()
	stranger := uuid.New()
	sessionID := foreignSession.String()

	cases := []struct {
		name  string
		pause PauseLookup
		in    Input
		want  GuardCode
	}{
		{"missing user", fakePause{}, Input{}, CodeInvalidInput},
		{"bad user", fakePause{}, Input{UserID: "nope"}, CodeInvalidInput},
		{"paused", fakePause{paused: true}, Input{UserID: testUserID}, CodePaused},
		{"foreign session", fakePause{}, Input{UserID: testUserID, SessionID: &sessionID}, CodeUnauthorized},
		{"contract validation", fakePause{}, Input{UserID: testUserID, Extra: map[string]any{"reject": true}}, CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runs := 0
			db := ownerDB{owners: map[uuid.UUID]uuid.UUID{foreignSession: stranger}}
			exec, rec := newTestExecutor(t, tc.pause, db, &runs)
			_, err := exec.Execute(context.Background(), NameSessionTimeline, tc.in)
			if CodeOf(err) != tc.want {
				t.Fatalf("code = %q, want %q (err %v)", CodeOf(err), tc.want, err)
			}
			if runs != 0 || len(rec.records) != 0 {
				t.Fatalf("refused executions must not run or audit: runs=%d audits=%d", runs, len(rec.records))
			}
		})
	}
}

func TestExecute_PausedMessage(t *testing.T) {
	runs := 0
	exec, _ := newTestExecutor(t, fakePause{paused: true}, nil, &runs)
	_, err := exec.Execute(context.Background(), NameSessionTimeline, Input{UserID: testUserID})
	var guardErr *GuardError
	if !errors.As(err, &guardErr) || guardErr.Message != "System is paused." {
		t.Fatalf("expected default pause message, got %v", err)
	}

	exec, _ = newTestExecutor(t, fakePause{paused: true, reason: "maintenance"}, nil, &runs)
	_, err = exec.Execute(context.Background(), NameSessionTimeline, Input{UserID: testUserID})
	if err == nil || err.Error() != "PAUSED: maintenance" {
		t.Fatalf("expected pause reason, got %v", err)
	}
}

func TestExecute_UnknownProjection(t *testing.T) {
	runs := 0
	exec, rec := newTestExecutor(t, fakePause{}, nil, &runs)
	_, err := exec.Execute(context.Background(), NamePressureSeries, Input{UserID: testUserID})
	if err == nil || err.Error() != "Unknown projection: pressure.series" {
		t.Fatalf("expected unknown projection, got %v", err)
	}
	if CodeOf(err) != CodeUnknownProjection || len(rec.records) != 0 {
		t.Fatalf("unknown projections are not audited")
	}
}

func TestGuard_TimeRange(t *testing.T) {
	g := NewGuard(nil, nil)
	from := testutil.Epoch
	to := from.Add(-time.Hour)

	res, err := g.Check(context.Background(), nil, Input{UserID: testUserID, TimeRange: &TimeRange{From: &from}})
	if err != nil || res.OK || res.Message != "timeRange.from and timeRange.to must be Date." {
		t.Fatalf("one-sided range must be rejected: %+v %v", res, err)
	}
	res, _ = g.Check(context.Background(), nil, Input{UserID: testUserID, TimeRange: &TimeRange{From: &from, To: &to}})
	if res.OK || res.Message != "timeRange.from must be <= timeRange.to." {
		t.Fatalf("inverted range must be rejected: %+v", res)
	}
	res, _ = g.Check(context.Background(), nil, Input{UserID: testUserID, TimeRange: &TimeRange{From: &from, To: &from}})
	if !res.OK {
		t.Fatalf("an empty range is valid: %+v", res)
	}
}

func TestRegistry(t *testing.T) {
	runs := 0
	if _, err := NewRegistry(echoDefinition(&runs), echoDefinition(&runs)); err == nil {
		t.Fatalf("duplicate names must be rejected")
	}
	bad := echoDefinition(&runs)
	bad.ProjectionName = "session.other"
	if _, err := NewRegistry(bad); err == nil {
		t.Fatalf("names outside the closed set must be rejected")
	}
	reg, err := NewRegistry(echoDefinition(&runs))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if names := reg.List(); len(names) != 1 || names[0] != NameSessionTimeline {
		t.Fatalf("List = %v", names)
	}
}
