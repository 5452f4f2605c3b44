package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/badgeboard/internal/adapters/http/api"
	"github.com/okian/badgeboard/internal/adapters/repository"
	service "github.com/okian/badgeboard/internal/app"
	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const adminToken = "s3cret"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock() time.Time { return day(2025, 11, 20) }

func fixture() []model.Badge {
	lugia := &model.Deck{ID: "lugia", Name: "Lugia VSTAR", Icons: []string{"lugia"}}
	gardy := &model.Deck{ID: "gardevoirex", Name: "Gardevoir ex"}
	return []model.Badge{
		{Trainer: "Ann", Deck: lugia, Date: day(2025, 7, 12), Tier: "league cup", Store: "Cards"},
		{Trainer: "Bo", Deck: gardy, Date: day(2025, 7, 12), Tier: "locals", Store: "Cards"},
		{Trainer: "Ann", Deck: gardy, Date: day(2025, 10, 3), Tier: "locals"},
		{Trainer: "Cy", Deck: lugia, Date: day(2025, 10, 3), Tier: "regionals"},
	}
}

func newHandler(svcOpts []service.Option, opts ...api.Option) http.Handler {
	svc := service.New(repository.NewMemoryStore(fixture()...),
		append([]service.Option{service.WithClock(clock)}, svcOpts...)...)
	base := []api.Option{api.WithClock(clock), api.WithMaxLimit(10), api.WithAdminToken(adminToken)}
	return api.NewServer(svc, svc, append(base, opts...)...).Handler()
}

func do(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	return do(h, http.MethodGet, target, "", nil)
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServerRoutes(t *testing.T) {
	Convey("Given the API over a small dataset", t, func() {
		h := newHandler(nil)

		Convey("Then /health should report ok", func() {
			w := get(h, "/health")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Then /healthz should expose Prometheus metrics", func() {
			get(h, "/health")
			w := get(h, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "badgeboard_leaderboard_http_requests_total")
		})

		Convey("Then /stats should describe the store", func() {
			w := get(h, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["store"], ShouldEqual, "memory")
			So(stats["idempotencyKeys"], ShouldEqual, float64(0))
		})

		Convey("Then unknown routes should return a JSON 404", func() {
			w := get(h, "/nope")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})

		Convey("Then every response should carry a request id", func() {
			w := get(h, "/health")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)

			w = do(h, http.MethodGet, "/health", "", map[string]string{api.RequestIDHeader: "abc"})
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc")
		})
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	Convey("Given the API over a small dataset", t, func() {
		h := newHandler(nil)

		Convey("When requesting the default leaderboard", func() {
			w := get(h, "/leaderboard")
			So(w.Code, ShouldEqual, http.StatusOK)
			var lb types.Leaderboard
			So(json.Unmarshal(w.Body.Bytes(), &lb), ShouldBeNil)

			Convey("Then trainers should be ranked all time", func() {
				So(lb.GroupBy, ShouldEqual, "trainer")
				So(lb.Total, ShouldEqual, 3)
				So(lb.Entries[0].Key, ShouldEqual, "Ann")
				So(lb.Entries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When limiting and grouping by deck", func() {
			w := get(h, "/leaderboard?group_by=deck&limit=1")
			So(w.Code, ShouldEqual, http.StatusOK)
			var lb types.Leaderboard
			So(json.Unmarshal(w.Body.Bytes(), &lb), ShouldBeNil)
			So(lb.Entries, ShouldHaveLength, 1)
			So(lb.Entries[0].Key, ShouldEqual, "lugia")
		})

		Convey("When selecting a season", func() {
			w := get(h, "/leaderboard?season=2026")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "2026")
		})

		Convey("When parameters are invalid", func() {
			So(get(h, "/leaderboard?group_by=color").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/leaderboard?period=decade").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/leaderboard?date=yesterday").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/leaderboard?limit=0").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/leaderboard?season=x").Code, ShouldEqual, http.StatusBadRequest)

			w := get(h, "/leaderboard?limit=11")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "limit_exceeded")
		})

		Convey("When listing periods", func() {
			w := get(h, "/periods?kind=quarter")
			So(w.Code, ShouldEqual, http.StatusOK)
			var periods []types.PeriodView
			So(json.Unmarshal(w.Body.Bytes(), &periods), ShouldBeNil)
			So(periods, ShouldHaveLength, 2)
			So(periods[0].Label, ShouldEqual, "2026 October - December")

			So(get(h, "/periods?kind=decade").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestProfileEndpoints(t *testing.T) {
	Convey("Given the API over a small dataset", t, func() {
		h := newHandler(nil)

		Convey("Then trainers and decks should be listed", func() {
			var opts []types.Option
			w := get(h, "/trainers")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(w.Body.Bytes(), &opts), ShouldBeNil)
			So(opts[0].Key, ShouldEqual, "Ann")

			w = get(h, "/decks")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(w.Body.Bytes(), &opts), ShouldBeNil)
			So(opts, ShouldHaveLength, 2)
		})

		Convey("Then a trainer profile should list their badges", func() {
			w := get(h, "/trainers/Ann")
			So(w.Code, ShouldEqual, http.StatusOK)
			var p types.Profile
			So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
			So(p.Count, ShouldEqual, 2)
			So(p.Points, ShouldEqual, 4)
		})

		Convey("Then a deck profile should be found by id", func() {
			w := get(h, "/decks/lugia")
			So(w.Code, ShouldEqual, http.StatusOK)
			var p types.Profile
			So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
			So(p.Label, ShouldEqual, "Lugia VSTAR")
		})

		Convey("Then unknown profiles should be 404", func() {
			So(get(h, "/trainers/Zed").Code, ShouldEqual, http.StatusNotFound)
			So(get(h, "/decks/mew").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then badges can be filtered", func() {
			var badges []types.Badge
			w := get(h, "/badges?trainer=Ann")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(w.Body.Bytes(), &badges), ShouldBeNil)
			So(badges, ShouldHaveLength, 2)
			So(badges[0].Date, ShouldEqual, "2025-10-03")
		})

		Convey("Then form options should list the vocabularies", func() {
			w := get(h, "/badges/options")
			So(w.Code, ShouldEqual, http.StatusOK)
			var opts types.FormOptions
			So(json.Unmarshal(w.Body.Bytes(), &opts), ShouldBeNil)
			So(opts.Tiers, ShouldContain, model.TierLocals)
			So(opts.Trainers, ShouldContain, "Cy")
		})
	})
}

func TestPostBadge(t *testing.T) {
	Convey("Given the API with an admin token", t, func() {
		h := newHandler(nil)
		auth := map[string]string{"Authorization": "Bearer " + adminToken, "Content-Type": "application/json"}

		Convey("When posting a valid badge", func() {
			body := `{"trainer":" Eve ","deck":{"name":"Charizard ex","icons":["charizard"]},"date":"2025-11-01","tier":"Locals"}`
			w := do(h, http.MethodPost, "/badges", body, auth)

			Convey("Then it should be recorded", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)

				var badges []types.Badge
				r := get(h, "/badges?trainer=Eve")
				So(json.Unmarshal(r.Body.Bytes(), &badges), ShouldBeNil)
				So(badges, ShouldHaveLength, 1)
				So(badges[0].DeckID, ShouldEqual, "charizardex")
				So(badges[0].Tier, ShouldEqual, "locals")
			})
		})

		Convey("When posting a relative date", func() {
			w := do(h, http.MethodPost, "/badges", `{"trainer":"Eve","deck":"Lugia VSTAR","date":"yesterday"}`, auth)

			Convey("Then it should resolve against the clock", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, "2025-11-19")
			})
		})

		Convey("When the credentials are missing or wrong", func() {
			So(do(h, http.MethodPost, "/badges", `{}`, nil).Code, ShouldEqual, http.StatusUnauthorized)
			wrong := map[string]string{"Authorization": "Bearer nope"}
			So(do(h, http.MethodPost, "/badges", `{}`, wrong).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When the body breaks the schema", func() {
			w := do(h, http.MethodPost, "/badges", `{"date":"2025-11-01"}`, auth)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "schema_violation")

			w = do(h, http.MethodPost, "/badges", `{"trainer":"Eve","date":"2025-11-01","colour":"red"}`, auth)
			So(errorCode(w), ShouldEqual, "schema_violation")

			w = do(h, http.MethodPost, "/badges", `not json`, auth)
			So(errorCode(w), ShouldEqual, "bad_request")
		})

		Convey("When the date or tier cannot be understood", func() {
			w := do(h, http.MethodPost, "/badges", `{"trainer":"Eve","date":"qwerty"}`, auth)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = do(h, http.MethodPost, "/badges", `{"trainer":"Eve","date":"2025-11-01","tier":"galactic"}`, auth)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given retried submissions with an idempotency key", t, func() {
		h := newHandler(nil)
		auth := map[string]string{
			"Authorization":          "Bearer " + adminToken,
			api.IdempotencyKeyHeader: "form-42",
		}
		body := `{"trainer":"Eve","date":"2025-11-01"}`

		first := do(h, http.MethodPost, "/badges", body, auth)
		second := do(h, http.MethodPost, "/badges", body, auth)

		Convey("Then only the first should be recorded", func() {
			So(first.Code, ShouldEqual, http.StatusCreated)
			So(second.Code, ShouldEqual, http.StatusOK)
			So(second.Body.String(), ShouldContainSubstring, `"duplicate":true`)

			var badges []types.Badge
			So(json.Unmarshal(get(h, "/badges?trainer=Eve").Body.Bytes(), &badges), ShouldBeNil)
			So(badges, ShouldHaveLength, 1)

			var stats map[string]any
			So(json.Unmarshal(get(h, "/stats").Body.Bytes(), &stats), ShouldBeNil)
			So(stats["idempotencyKeys"], ShouldEqual, float64(1))
		})

		Convey("Then a different key should be recorded again", func() {
			auth[api.IdempotencyKeyHeader] = "form-43"
			So(do(h, http.MethodPost, "/badges", body, auth).Code, ShouldEqual, http.StatusCreated)
		})
	})

	Convey("Given a failed append with an idempotency key", t, func() {
		h := newHandler([]service.Option{service.WithDemo(true)})
		auth := map[string]string{
			"Authorization":          "Bearer " + adminToken,
			api.IdempotencyKeyHeader: "form-42",
		}
		body := `{"trainer":"Eve","date":"2025-11-01"}`
		So(do(h, http.MethodPost, "/badges", body, auth).Code, ShouldEqual, http.StatusForbidden)

		Convey("Then a retry should not be treated as a duplicate", func() {
			w := do(h, http.MethodPost, "/badges", body, auth)
			So(w.Code, ShouldEqual, http.StatusForbidden)
			So(errorCode(w), ShouldEqual, "read_only")
		})
	})

	Convey("Given a retry arriving while the first append is still running", t, func() {
		svc := service.New(repository.NewMemoryStore(fixture()...), service.WithClock(clock))
		gate := &gatedAppender{Service: svc, entered: make(chan struct{}), release: make(chan struct{})}
		h := api.NewServer(gate, svc, api.WithClock(clock), api.WithAdminToken(adminToken)).Handler()
		auth := map[string]string{
			"Authorization":          "Bearer " + adminToken,
			api.IdempotencyKeyHeader: "form-42",
		}
		body := `{"trainer":"Eve","date":"2025-11-01"}`

		first, second := make(chan int, 1), make(chan int, 1)
		go func() { first <- do(h, http.MethodPost, "/badges", body, auth).Code }()
		<-gate.entered
		go func() { second <- do(h, http.MethodPost, "/badges", body, auth).Code }()
		time.Sleep(20 * time.Millisecond)
		close(gate.release)

		So(<-first, ShouldEqual, http.StatusInternalServerError)
		So(<-second, ShouldEqual, http.StatusCreated)
		So(gate.calls.Load(), ShouldEqual, int32(2))
	})

	Convey("Given the API without an admin token", t, func() {
		h := newHandler(nil, api.WithAdminToken(""))
		w := do(h, http.MethodPost, "/badges", `{}`, map[string]string{"Authorization": "Bearer x"})
		So(w.Code, ShouldEqual, http.StatusForbidden)
	})

	Convey("Given the API over the demo dataset", t, func() {
		h := newHandler([]service.Option{service.WithDemo(true)})
		auth := map[string]string{"Authorization": "Bearer " + adminToken}
		w := do(h, http.MethodPost, "/badges", `{"trainer":"Eve","date":"2025-11-01"}`, auth)
		So(w.Code, ShouldEqual, http.StatusForbidden)
		So(errorCode(w), ShouldEqual, "read_only")
	})

	Convey("Given a strict append rate", t, func() {
		h := newHandler(nil, api.WithAppendRate(1, 1))
		auth := map[string]string{"Authorization": "Bearer " + adminToken}
		body := `{"trainer":"Eve","date":"2025-11-01"}`

		So(do(h, http.MethodPost, "/badges", body, auth).Code, ShouldEqual, http.StatusCreated)
		w := do(h, http.MethodPost, "/badges", body, auth)
		So(w.Code, ShouldEqual, http.StatusTooManyRequests)
		So(w.Header().Get("Retry-After"), ShouldNotBeEmpty)
	})
}

// gatedAppender fails its first append once released and delegates after.
type gatedAppender struct {
	*service.Service
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedAppender) Append(ctx context.Context, b model.Badge) error {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-g.release
		return errors.New("disk full")
	}
	return g.Service.Append(ctx, b)
}

func TestTimelineEndpoints(t *testing.T) {
	Convey("Given the API over a small dataset", t, func() {
		h := newHandler(nil)

		Convey("When requesting the long timeline as JSON", func() {
			w := get(h, "/timeline")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				GroupBy string `json:"group_by"`
				Rows    []struct {
					Date   string `json:"date"`
					Entity string `json:"entity"`
					Rank   int    `json:"rank"`
				} `json:"rows"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then it should replay every date", func() {
				So(body.GroupBy, ShouldEqual, "trainer")
				So(body.Rows[0].Date, ShouldEqual, "2025-07-12")
				So(body.Rows[0].Entity, ShouldEqual, "Ann")
				So(body.Rows[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When requesting the cumulative table", func() {
			w := get(h, "/timeline?cumulative=true&value=badges")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				Entities []string `json:"entities"`
				Rows     []struct {
					Values []float64 `json:"values"`
				} `json:"rows"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Entities, ShouldResemble, []string{"Ann", "Bo", "Cy"})
			So(body.Rows, ShouldHaveLength, 2)
			So(body.Rows[1].Values, ShouldResemble, []float64{2, 1, 1})
		})

		Convey("When exporting CSV", func() {
			w := get(h, "/timeline?format=csv")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "timeline.csv")
			So(w.Body.String(), ShouldStartWith, "date,entity,badges,points,score,rank,updated")
		})

		Convey("When exporting XLSX", func() {
			w := get(h, "/timeline?format=xlsx&cumulative=1")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), ShouldBeTrue)
		})

		Convey("When rendering the chart", func() {
			w := get(h, "/timeline/chart.png?value=rank")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "image/png")
			So(bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")), ShouldBeTrue)
		})

		Convey("When parameters are invalid", func() {
			So(get(h, "/timeline?group_by=store").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/timeline?start=2025-10-01&end=2025-07-01").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/timeline?format=pdf").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/timeline?value=height").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/timeline?cumulative=maybe").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/timeline/chart.png?start=nope").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the error helpers", t, func() {
		base := errors.New("disk full")

		Convey("NewKind should match its kind", func() {
			err := api.NewKind("api.op", api.ErrBadRequest)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request")
		})

		Convey("Wrap should keep the cause and pass nil through", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			err := api.Wrap("api.op", base)
			So(errors.Is(err, base), ShouldBeTrue)
		})

		Convey("WrapKind should match both kind and cause", func() {
			err := api.WrapKind("api.op", api.ErrRender, base)
			So(errors.Is(err, api.ErrRender), ShouldBeTrue)
			So(errors.Is(err, base), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "disk full")
		})
	})
}
