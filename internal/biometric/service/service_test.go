package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novenantes/internal/biometric"
	"novenantes/pkg/platform/audit"
	"novenantes/pkg/platform/sentinel"
	"novenantes/pkg/testutil"
)

type fakeSession struct {
	mu     sync.Mutex
	sample *biometric.Sample
	// onSample runs inside Sample, before the sample is returned. Used to
	// model enrollments racing ahead of the candidate read.
	onSample func()
}

func (f *fakeSession) Sample() (biometric.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSample != nil {
		f.onSample()
	}
	if f.sample == nil {
		return biometric.Sample{}, biometric.ErrNoSample
	}
	return *f.sample, nil
}

func (f *fakeSession) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sample = nil
}

func (f *fakeSession) hold(s biometric.Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sample = &s
}

type fakeStore struct {
	mu        sync.Mutex
	members   map[int64]bool
	templates map[int64]biometric.Template
	listCalls int
	getErr    error
}

func newFakeStore(memberIDs ...int64) *fakeStore {
	s := &fakeStore{
		members:   make(map[int64]bool),
		templates: make(map[int64]biometric.Template),
	}
	for _, id := range memberIDs {
		s.members[id] = true
	}
	return s
}

func (f *fakeStore) Upsert(_ context.Context, memberID int64, template biometric.Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.members[memberID] {
		return sentinel.ErrNotFound
	}
	f.templates[memberID] = template
	return nil
}

func (f *fakeStore) Remove(_ context.Context, memberID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.members[memberID] {
		return sentinel.ErrNotFound
	}
	delete(f.templates, memberID)
	return nil
}

func (f *fakeStore) Get(_ context.Context, memberID int64) (biometric.Template, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	if !f.members[memberID] {
		return "", false, sentinel.ErrNotFound
	}
	t, ok := f.templates[memberID]
	return t, ok, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]biometric.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]biometric.Candidate, 0, len(f.templates))
	for id, t := range f.templates {
		out = append(out, biometric.Candidate{MemberID: id, Template: t})
	}
	return out, nil
}

func (f *fakeStore) template(memberID int64) (biometric.Template, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[memberID]
	return t, ok
}

type fakeMatcher struct {
	mu            sync.Mutex
	enrollFn      func(biometric.Sample) (biometric.Template, error)
	identifyFn    func(biometric.Sample, []biometric.Candidate) (biometric.Verdict, error)
	enrollCalls   int
	identifyCalls int
	block         chan struct{}
}

func (f *fakeMatcher) Enroll(_ context.Context, sample biometric.Sample) (biometric.Template, error) {
	f.mu.Lock()
	f.enrollCalls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.enrollFn(sample)
}

func (f *fakeMatcher) Identify(_ context.Context, sample biometric.Sample, candidates []biometric.Candidate) (biometric.Verdict, error) {
	f.mu.Lock()
	f.identifyCalls++
	f.mu.Unlock()
	return f.identifyFn(sample, candidates)
}

func (f *fakeMatcher) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enrollCalls, f.identifyCalls
}

func testSample() biometric.Sample {
	return biometric.Sample{
		Image:      []byte("fingerprint-image"),
		Format:     biometric.SampleFormatPNG,
		CapturedAt: time.Now(),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestOrchestrator_Enroll(t *testing.T) {
	t.Run("first enrollment registers", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		store := newFakeStore(7)
		matcher := &fakeMatcher{
			enrollFn: func(biometric.Sample) (biometric.Template, error) {
				return "tpl-7", nil
			},
		}
		sink := &audit.MemoryPublisher{}
		orch := New(session, store, matcher, testLogger(), WithAuditPublisher(sink))

		ctx := testutil.AuthContext(context.Background(), 42, "admin", "sess")
		status, err := orch.Enroll(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, biometric.StatusRegistered, status.Kind)
		assert.Equal(t, int64(7), status.MemberID)

		got, ok := store.template(7)
		require.True(t, ok)
		assert.Equal(t, biometric.Template("tpl-7"), got)

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionTemplateEnrolled, events[0].Action)
		assert.Equal(t, int64(42), events[0].ActorID)
	})

	t.Run("re-enrollment reports updated", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		store := newFakeStore(7)
		require.NoError(t, store.Upsert(context.Background(), 7, "old"))
		matcher := &fakeMatcher{
			enrollFn: func(biometric.Sample) (biometric.Template, error) {
				return "new", nil
			},
		}
		orch := New(session, store, matcher, testLogger())

		status, err := orch.Enroll(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, biometric.StatusUpdated, status.Kind)

		got, _ := store.template(7)
		assert.Equal(t, biometric.Template("new"), got)
	})

	t.Run("without a sample fails before any matcher call", func(t *testing.T) {
		store := newFakeStore(7)
		matcher := &fakeMatcher{}
		orch := New(&fakeSession{}, store, matcher, testLogger())

		status, err := orch.Enroll(context.Background(), 7)
		require.ErrorIs(t, err, biometric.ErrNoSample)
		assert.Equal(t, biometric.StatusError, status.Kind)

		enrolls, _ := matcher.calls()
		assert.Zero(t, enrolls)
	})

	t.Run("unknown member fails before any matcher call", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		matcher := &fakeMatcher{}
		orch := New(session, newFakeStore(), matcher, testLogger())

		status, err := orch.Enroll(context.Background(), 99)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.Equal(t, biometric.StatusError, status.Kind)

		enrolls, _ := matcher.calls()
		assert.Zero(t, enrolls)
	})

	t.Run("extraction failure leaves prior template untouched", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		store := newFakeStore(7)
		require.NoError(t, store.Upsert(context.Background(), 7, "prior"))
		matcher := &fakeMatcher{
			enrollFn: func(biometric.Sample) (biometric.Template, error) {
				return "", biometric.ErrExtractionFailed
			},
		}
		orch := New(session, store, matcher, testLogger())

		status, err := orch.Enroll(context.Background(), 7)
		require.ErrorIs(t, err, biometric.ErrExtractionFailed)
		assert.Equal(t, biometric.StatusError, status.Kind)

		got, ok := store.template(7)
		require.True(t, ok)
		assert.Equal(t, biometric.Template("prior"), got)
	})

	t.Run("service unavailable leaves prior template untouched", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		store := newFakeStore(7)
		require.NoError(t, store.Upsert(context.Background(), 7, "prior"))
		matcher := &fakeMatcher{
			enrollFn: func(biometric.Sample) (biometric.Template, error) {
				return "", biometric.ErrServiceUnavailable
			},
		}
		orch := New(session, store, matcher, testLogger())

		_, err := orch.Enroll(context.Background(), 7)
		require.ErrorIs(t, err, biometric.ErrServiceUnavailable)

		got, _ := store.template(7)
		assert.Equal(t, biometric.Template("prior"), got)
	})
}

func TestOrchestrator_Identify(t *testing.T) {
	t.Run("match yields identified with member and score", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		store := newFakeStore(1, 2)
		require.NoError(t, store.Upsert(context.Background(), 1, "tpl-1"))
		require.NoError(t, store.Upsert(context.Background(), 2, "tpl-2"))
		matcher := &fakeMatcher{
			identifyFn: func(_ biometric.Sample, candidates []biometric.Candidate) (biometric.Verdict, error) {
				assert.Len(t, candidates, 2)
				return biometric.Verdict{Matched: true, MemberID: 2, Score: 91.5}, nil
			},
		}
		sink := &audit.MemoryPublisher{}
		orch := New(session, store, matcher, testLogger(), WithAuditPublisher(sink))

		status, err := orch.Identify(context.Background())
		require.NoError(t, err)
		assert.Equal(t, biometric.StatusIdentified, status.Kind)
		assert.Equal(t, int64(2), status.MemberID)
		assert.Equal(t, 91.5, status.Score)

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionMemberIdentified, events[0].Action)
	})

	t.Run("no match is a successful not-identified outcome", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		store := newFakeStore(1)
		require.NoError(t, store.Upsert(context.Background(), 1, "tpl-1"))
		matcher := &fakeMatcher{
			identifyFn: func(biometric.Sample, []biometric.Candidate) (biometric.Verdict, error) {
				return biometric.Verdict{}, nil
			},
		}
		orch := New(session, store, matcher, testLogger())

		status, err := orch.Identify(context.Background())
		require.NoError(t, err)
		assert.Equal(t, biometric.StatusNotIdentified, status.Kind)
	})

	t.Run("transport failure is an error, never not-identified", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		store := newFakeStore(1)
		require.NoError(t, store.Upsert(context.Background(), 1, "tpl-1"))
		matcher := &fakeMatcher{
			identifyFn: func(biometric.Sample, []biometric.Candidate) (biometric.Verdict, error) {
				return biometric.Verdict{}, biometric.ErrServiceUnavailable
			},
		}
		orch := New(session, store, matcher, testLogger())

		status, err := orch.Identify(context.Background())
		require.ErrorIs(t, err, biometric.ErrServiceUnavailable)
		assert.Equal(t, biometric.StatusError, status.Kind)
		assert.NotEqual(t, biometric.StatusNotIdentified, status.Kind)
	})

	t.Run("empty candidate set short-circuits to not identified", func(t *testing.T) {
		session := &fakeSession{}
		session.hold(testSample())
		matcher := &fakeMatcher{}
		orch := New(session, newFakeStore(), matcher, testLogger())

		status, err := orch.Identify(context.Background())
		require.NoError(t, err)
		assert.Equal(t, biometric.StatusNotIdentified, status.Kind)

		_, identifies := matcher.calls()
		assert.Zero(t, identifies)
	})

	t.Run("candidates are read after the sample exists", func(t *testing.T) {
		// An enrollment that lands before the identify sample is read must be
		// in the candidate set the matcher sees.
		store := newFakeStore(1, 2)
		require.NoError(t, store.Upsert(context.Background(), 1, "tpl-1"))

		session := &fakeSession{}
		session.hold(testSample())
		session.onSample = func() {
			_ = store.Upsert(context.Background(), 2, "tpl-2")
		}

		var seen []biometric.Candidate
		matcher := &fakeMatcher{
			identifyFn: func(_ biometric.Sample, candidates []biometric.Candidate) (biometric.Verdict, error) {
				seen = candidates
				return biometric.Verdict{Matched: true, MemberID: 2, Score: 80}, nil
			},
		}
		orch := New(session, store, matcher, testLogger())

		_, err := orch.Identify(context.Background())
		require.NoError(t, err)
		assert.Len(t, seen, 2)
	})
}

func TestOrchestrator_BusyGuard(t *testing.T) {
	session := &fakeSession{}
	session.hold(testSample())
	store := newFakeStore(7)
	block := make(chan struct{})
	matcher := &fakeMatcher{
		block: block,
		enrollFn: func(biometric.Sample) (biometric.Template, error) {
			return "tpl", nil
		},
		identifyFn: func(biometric.Sample, []biometric.Candidate) (biometric.Verdict, error) {
			return biometric.Verdict{}, nil
		},
	}
	orch := New(session, store, matcher, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = orch.Enroll(context.Background(), 7)
	}()

	require.Eventually(t, func() bool {
		return orch.State() == StateEnrolling
	}, time.Second, time.Millisecond)

	// A second workflow is rejected up front and never reaches the matcher.
	status, err := orch.Identify(context.Background())
	require.ErrorIs(t, err, biometric.ErrBusy)
	assert.Equal(t, biometric.StatusError, status.Kind)

	status, err = orch.Enroll(context.Background(), 7)
	require.ErrorIs(t, err, biometric.ErrBusy)
	assert.Equal(t, biometric.StatusError, status.Kind)

	enrolls, identifies := matcher.calls()
	assert.Equal(t, 1, enrolls)
	assert.Zero(t, identifies)

	close(block)
	<-done
	assert.Equal(t, StateAwaitingCapture, orch.State())

	// Slot released: a new workflow is accepted again.
	_, err = orch.Identify(context.Background())
	require.NoError(t, err)
}

func TestOrchestrator_RemoveTemplate(t *testing.T) {
	t.Run("removes and reports removed", func(t *testing.T) {
		store := newFakeStore(7)
		require.NoError(t, store.Upsert(context.Background(), 7, "tpl"))
		sink := &audit.MemoryPublisher{}
		orch := New(&fakeSession{}, store, &fakeMatcher{}, testLogger(), WithAuditPublisher(sink))

		status, err := orch.RemoveTemplate(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, biometric.StatusRemoved, status.Kind)

		_, ok := store.template(7)
		assert.False(t, ok)

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionTemplateRemoved, events[0].Action)
	})

	t.Run("unknown member errors", func(t *testing.T) {
		orch := New(&fakeSession{}, newFakeStore(), &fakeMatcher{}, testLogger())
		status, err := orch.RemoveTemplate(context.Background(), 99)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.Equal(t, biometric.StatusError, status.Kind)
	})
}

func TestOrchestrator_StatusListener(t *testing.T) {
	session := &fakeSession{}
	session.hold(testSample())
	store := newFakeStore(7)
	matcher := &fakeMatcher{
		enrollFn: func(biometric.Sample) (biometric.Template, error) {
			return "tpl", nil
		},
	}

	var mu sync.Mutex
	var seen []biometric.Status
	orch := New(session, store, matcher, testLogger(), WithStatusListener(func(s biometric.Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))

	_, err := orch.Enroll(context.Background(), 7)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, biometric.StatusRegistered, seen[0].Kind)
}

func TestOrchestrator_InternalStoreFailure(t *testing.T) {
	session := &fakeSession{}
	session.hold(testSample())
	store := newFakeStore(7)
	store.getErr = errors.New("connection reset")
	matcher := &fakeMatcher{}
	orch := New(session, store, matcher, testLogger())

	status, err := orch.Enroll(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, biometric.StatusError, status.Kind)

	enrolls, _ := matcher.calls()
	assert.Zero(t, enrolls)
}
