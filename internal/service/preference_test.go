package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/xpref/internal/repository"
	"github.com/creamcroissant/xpref/internal/support/logging"
)

// callLog records the order in which collaborators are touched.
type callLog struct {
	calls []string
}

func (l *callLog) add(call string) { l.calls = append(l.calls, call) }

type fakeRepo struct {
	log       *callLog
	records   map[string]string
	findErr   error
	upsertErr error
	upserts   []repository.UserPreference
}

func (r *fakeRepo) FindByUserID(_ context.Context, userID string) (*repository.UserPreference, error) {
	r.log.add("store.find")
	if r.findErr != nil {
		return nil, r.findErr
	}
	payload, ok := r.records[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &repository.UserPreference{UserID: userID, Payload: payload}, nil
}

func (r *fakeRepo) Upsert(_ context.Context, pref *repository.UserPreference) error {
	r.log.add("store.upsert")
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts = append(r.upserts, *pref)
	r.records[pref.UserID] = pref.Payload
	return nil
}

var errCookieJar = errors.New("cookie jar closed")

type fakeCookies struct {
	log     *callLog
	request map[string]string
	writes  []string
	maxAge  time.Duration
	// failAt makes the n-th write (1-based) fail.
	failAt int
}

func (c *fakeCookies) ReadJSON(name string) (json.RawMessage, bool) {
	v, ok := c.request[name]
	if !ok {
		return nil, false
	}
	return json.RawMessage(v), true
}

func (c *fakeCookies) writeCount() int {
	n := 0
	for _, call := range c.log.calls {
		if call == "cookie.write" {
			n++
		}
	}
	return n
}

func (c *fakeCookies) WriteJSON(name string, value any, maxAge time.Duration) error {
	c.log.add("cookie.write")
	if c.failAt > 0 && c.writeCount() == c.failAt {
		return errCookieJar
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.writes = append(c.writes, name+"="+string(data))
	c.maxAge = maxAge
	return nil
}

func (c *fakeCookies) last() string {
	if len(c.writes) == 0 {
		return ""
	}
	return c.writes[len(c.writes)-1]
}

type fixture struct {
	log     *callLog
	repo    *fakeRepo
	cookies *fakeCookies
	svc     PreferenceService
	reg     *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &callLog{}
	f := &fixture{
		log:     log,
		repo:    &fakeRepo{log: log, records: map[string]string{}},
		cookies: &fakeCookies{log: log, request: map[string]string{}},
		reg:     prometheus.NewRegistry(),
	}
	f.svc = NewPreferenceService(f.repo, newTestCodec(), PreferenceServiceOptions{
		Logger:     logging.Discard(),
		Registerer: f.reg,
	})
	return f
}

func (f *fixture) scope(userID, acceptLanguage string) PreferenceScope {
	return PreferenceScope{UserID: userID, AcceptLanguage: acceptLanguage, Cookies: f.cookies}
}

func TestPreferenceService_Get_Precedence(t *testing.T) {
	ctx := context.Background()

	t.Run("StoreWinsOverCookieAndHeader", func(t *testing.T) {
		f := newFixture(t)
		f.repo.records["u1"] = `{"locale":"es"}`
		f.cookies.request["preference"] = `{"locale":"fr"}`

		got, err := f.svc.Get(ctx, f.scope("u1", "pt-BR"))
		require.NoError(t, err)
		assert.Equal(t, "es", got.Locale)
		assert.Equal(t, `preference={"locale":"es"}`, f.cookies.last())
		assert.Equal(t, PreferenceCookieMaxAge, f.cookies.maxAge)
		assert.Equal(t, 31536000.0, f.cookies.maxAge.Seconds())
	})

	t.Run("CookieWhenStoreEmpty", func(t *testing.T) {
		f := newFixture(t)
		f.cookies.request["preference"] = `{"locale":"fr"}`

		got, err := f.svc.Get(ctx, f.scope("u1", "es"))
		require.NoError(t, err)
		assert.Equal(t, "fr", got.Locale)
	})

	t.Run("CookieWhenStoredPayloadInvalid", func(t *testing.T) {
		f := newFixture(t)
		f.repo.records["u1"] = `{"locale":"klingon"}`
		f.cookies.request["preference"] = `{"locale":"fr"}`

		got, err := f.svc.Get(ctx, f.scope("u1", ""))
		require.NoError(t, err)
		assert.Equal(t, "fr", got.Locale)
	})

	t.Run("DefaultWhenNothingValid", func(t *testing.T) {
		f := newFixture(t)
		f.cookies.request["preference"] = `not json`

		got, err := f.svc.Get(ctx, f.scope("", "fr-CA;q=0.8, en;q=0.9, es"))
		require.NoError(t, err)
		assert.Equal(t, "es", got.Locale)
		assert.Equal(t, `preference={"locale":"es"}`, f.cookies.last())
	})

	t.Run("DefaultLocaleWhenHeaderUnmatched", func(t *testing.T) {
		f := newFixture(t)

		got, err := f.svc.Get(ctx, f.scope("", "de, ja"))
		require.NoError(t, err)
		assert.Equal(t, "en", got.Locale)
	})
}

func TestPreferenceService_Get_AnonymousNeverTouchesStore(t *testing.T) {
	f := newFixture(t)
	f.repo.records[""] = `{"locale":"es"}`
	f.cookies.request["preference"] = `{"locale":"fr"}`

	got, err := f.svc.Get(context.Background(), f.scope("", ""))
	require.NoError(t, err)
	assert.Equal(t, "fr", got.Locale)
	assert.Equal(t, []string{"cookie.write"}, f.log.calls)
}

func TestPreferenceService_Get_StoreErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection reset")
	f.repo.findErr = boom
	f.cookies.request["preference"] = `{"locale":"fr"}`

	_, err := f.svc.Get(context.Background(), f.scope("u1", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.cookies.writes)
}

func TestPreferenceService_Get_NoStoreWrite(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), f.scope("u1", "fr"))
	require.NoError(t, err)
	assert.Empty(t, f.repo.upserts)
}

func TestPreferenceService_Get_NilCookies(t *testing.T) {
	f := newFixture(t)
	f.repo.records["u1"] = `{"locale":"es"}`

	got, err := f.svc.Get(context.Background(), PreferenceScope{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "es", got.Locale)
}

func TestPreferenceService_Get_CountsSource(t *testing.T) {
	f := newFixture(t)
	f.cookies.request["preference"] = `{"locale":"fr"}`

	_, err := f.svc.Get(context.Background(), f.scope("", ""))
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), PreferenceScope{})
	require.NoError(t, err)

	svc := f.svc.(*preferenceService)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.resolutions.WithLabelValues("cookie")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.resolutions.WithLabelValues("default")))
}

func TestPreferenceService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("AuthenticatedMergesAndPersists", func(t *testing.T) {
		f := newFixture(t)
		f.repo.records["u1"] = `{"locale":"es"}`

		got, err := f.svc.Update(ctx, f.scope("u1", ""), []byte(`{"locale":"fr"}`))
		require.NoError(t, err)
		assert.Equal(t, "fr", got.Locale)

		require.Len(t, f.repo.upserts, 1)
		assert.Equal(t, "u1", f.repo.upserts[0].UserID)
		assert.JSONEq(t, `{"locale":"fr"}`, f.repo.upserts[0].Payload)
		assert.Equal(t, `preference={"locale":"fr"}`, f.cookies.last())
		assert.Equal(t, []string{"store.find", "cookie.write", "store.upsert", "cookie.write"}, f.log.calls)

		// The next read sees the persisted value.
		again, err := f.svc.Get(ctx, f.scope("u1", ""))
		require.NoError(t, err)
		assert.Equal(t, got, again)
	})

	t.Run("AnonymousWritesCookieOnly", func(t *testing.T) {
		f := newFixture(t)

		got, err := f.svc.Update(ctx, f.scope("", "es"), []byte(`{"locale":"pt-BR"}`))
		require.NoError(t, err)
		assert.Equal(t, "pt-BR", got.Locale)
		assert.Empty(t, f.repo.upserts)
		assert.NotContains(t, f.log.calls, "store.find")
		assert.Equal(t, `preference={"locale":"pt-BR"}`, f.cookies.last())
	})

	t.Run("EmptyPatchIsIdempotent", func(t *testing.T) {
		f := newFixture(t)
		f.cookies.request["preference"] = `{"locale":"fr"}`

		resolved, err := f.svc.Get(ctx, f.scope("u1", "es"))
		require.NoError(t, err)

		got, err := f.svc.Update(ctx, f.scope("u1", "es"), []byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, resolved, got)
		require.Len(t, f.repo.upserts, 1, "empty patch still persists the resolved value")
		assert.JSONEq(t, `{"locale":"fr"}`, f.repo.upserts[0].Payload)
	})

	t.Run("InvalidPatchTouchesNothing", func(t *testing.T) {
		f := newFixture(t)
		f.repo.records["u1"] = `{"locale":"es"}`

		_, err := f.svc.Update(ctx, f.scope("u1", ""), []byte(`{"locale":"de"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPreference)
		assert.Empty(t, f.log.calls)

		svc := f.svc.(*preferenceService)
		assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.updates.WithLabelValues("invalid")))
	})

	t.Run("UpsertFailureSkipsMergedCookie", func(t *testing.T) {
		f := newFixture(t)
		boom := errors.New("disk full")
		f.repo.records["u1"] = `{"locale":"es"}`
		f.repo.upsertErr = boom

		_, err := f.svc.Update(ctx, f.scope("u1", ""), []byte(`{"locale":"fr"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrInvalidPreference)
		assert.Equal(t, []string{"store.find", "cookie.write", "store.upsert"}, f.log.calls)
		assert.Equal(t, `preference={"locale":"es"}`, f.cookies.last())

		svc := f.svc.(*preferenceService)
		assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.updates.WithLabelValues("store_error")))
	})

	t.Run("CookieFailureDuringResolve", func(t *testing.T) {
		f := newFixture(t)
		f.repo.records["u1"] = `{"locale":"es"}`
		f.cookies.failAt = 1

		_, err := f.svc.Update(ctx, f.scope("u1", ""), []byte(`{"locale":"fr"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCookieWrite)
		assert.ErrorIs(t, err, errCookieJar)
		assert.Empty(t, f.repo.upserts)

		svc := f.svc.(*preferenceService)
		assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.updates.WithLabelValues("cookie_error")))
		assert.Equal(t, 0.0, testutil.ToFloat64(svc.metrics.updates.WithLabelValues("store_error")))
	})

	t.Run("CookieFailureAfterUpsert", func(t *testing.T) {
		f := newFixture(t)
		f.cookies.failAt = 2

		_, err := f.svc.Update(ctx, f.scope("u1", ""), []byte(`{"locale":"fr"}`))
		assert.ErrorIs(t, err, ErrCookieWrite)
		require.Len(t, f.repo.upserts, 1)

		svc := f.svc.(*preferenceService)
		assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.updates.WithLabelValues("cookie_error")))
		assert.Equal(t, 0.0, testutil.ToFloat64(svc.metrics.updates.WithLabelValues("ok")))
	})

	t.Run("CustomCookieName", func(t *testing.T) {
		log := &callLog{}
		cookies := &fakeCookies{log: log, request: map[string]string{"prefs": `{"locale":"fr"}`}}
		svc := NewPreferenceService(&fakeRepo{log: log, records: map[string]string{}}, newTestCodec(), PreferenceServiceOptions{CookieName: "prefs"})

		got, err := svc.Get(ctx, PreferenceScope{Cookies: cookies})
		require.NoError(t, err)
		assert.Equal(t, "fr", got.Locale)
		assert.Equal(t, `prefs={"locale":"fr"}`, cookies.last())
	})
}
