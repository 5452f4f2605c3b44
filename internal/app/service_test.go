package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/badgeboard/internal/adapters/repository"
	service "github.com/okian/badgeboard/internal/app"
	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/period"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/scoring"
	"github.com/okian/badgeboard/internal/domain/timeseries"
	. "github.com/smartystreets/goconvey/convey"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	lugia = &model.Deck{ID: "lugia", Name: "Lugia VSTAR", Icons: []string{"lugia", "archeops"}}
	gardy = &model.Deck{ID: "gardevoirex", Name: "Gardevoir ex", Icons: []string{"https://img/gardy.png"}}
)

func fixture() []model.Badge {
	return []model.Badge{
		{Trainer: "Ann", Deck: lugia, Date: date(2025, 7, 12), Tier: "League Cup", Store: "Cards"},
		{Trainer: "Bo", Deck: gardy, Date: date(2025, 7, 12), Tier: "locals", Store: "Cards"},
		{Trainer: "Ann", Deck: gardy, Date: date(2025, 10, 3), Tier: "locals", Store: "Games"},
		{Trainer: "Cy", Deck: lugia, Date: date(2025, 10, 3), Tier: "regionals"},
		{Trainer: "Bo", Deck: lugia, Date: date(2025, 3, 1), Tier: "locals"},
		{Trainer: "Dee", RawDate: "soon"},
	}
}

func newService(opts ...service.Option) *service.Service {
	clock := func() time.Time { return date(2025, 11, 20) }
	base := []service.Option{
		service.WithClock(clock),
		service.WithIconResolver(timeseries.TemplateIconResolver{Template: "https://icons/{name}.png"}),
	}
	return service.New(repository.NewMemoryStore(fixture()...), append(base, opts...)...)
}

func TestLeaderboard(t *testing.T) {
	Convey("Given a service over a small dataset", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When requesting the all-time trainer leaderboard", func() {
			lb, err := svc.Leaderboard(ctx, service.Query{})
			So(err, ShouldBeNil)

			Convey("Then trainers should be ranked by count then points", func() {
				So(lb.GroupBy, ShouldEqual, "trainer")
				So(lb.Period.Label, ShouldEqual, period.AllTimeLabel)
				So(lb.Total, ShouldEqual, 4)
				So(lb.Entries[0].Key, ShouldEqual, "Ann")
				So(lb.Entries[0].Points, ShouldEqual, 4)
				So(lb.Entries[1].Key, ShouldEqual, "Bo")
				So(lb.Entries[2].Key, ShouldEqual, "Cy")
				So(lb.Entries[3].Key, ShouldEqual, "Dee")
				So(lb.Entries[3].Rank, ShouldEqual, 4)
			})

			Convey("Then each trainer should carry a deck breakdown", func() {
				So(lb.Entries[0].Breakdown, ShouldHaveLength, 2)
				So(lb.Entries[0].Breakdown[0].Key, ShouldEqual, "Gardevoir ex")
			})

			Convey("Then the awards should reflect deck variety and points", func() {
				So(lb.Awards.MostUnique, ShouldHaveLength, 2)
				So(lb.Awards.MostPoints[0].Key, ShouldEqual, "Cy")
			})
		})

		Convey("When requesting the current quarter", func() {
			lb, err := svc.Leaderboard(ctx, service.Query{Kind: period.KindQuarter})
			So(err, ShouldBeNil)

			Convey("Then only the quarter of the clock should count", func() {
				So(lb.Period.Label, ShouldEqual, "2026 October - December")
				So(lb.Period.Start, ShouldEqual, "2025-10-01")
				So(lb.Total, ShouldEqual, 2)
				So(lb.Entries[0].Key, ShouldEqual, "Cy")
			})
		})

		Convey("When requesting a season by year", func() {
			lb, err := svc.Leaderboard(ctx, service.Query{Season: 2025})
			So(err, ShouldBeNil)
			So(lb.Period.Label, ShouldEqual, "2024-2025 Season")
			So(lb.Entries, ShouldHaveLength, 1)
			So(lb.Entries[0].Key, ShouldEqual, "Bo")
		})

		Convey("When grouping by deck with a limit", func() {
			lb, err := svc.Leaderboard(ctx, service.Query{GroupBy: ranking.GroupByDeck, Limit: 1})
			So(err, ShouldBeNil)

			Convey("Then deck names should label the entries", func() {
				So(lb.Entries, ShouldHaveLength, 1)
				So(lb.Total, ShouldEqual, 2)
				So(lb.Entries[0].Key, ShouldEqual, "lugia")
				So(lb.Entries[0].Label, ShouldEqual, "Lugia VSTAR")
				So(lb.Entries[0].Breakdown, ShouldHaveLength, 3)
			})
		})

		Convey("When the query is invalid", func() {
			_, err := svc.Leaderboard(ctx, service.Query{GroupBy: "league"})
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
			_, err = svc.Leaderboard(ctx, service.Query{Kind: "week"})
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
			_, err = svc.Leaderboard(ctx, service.Query{Limit: -1})
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When listing periods", func() {
			seasons, err := svc.Periods(ctx, period.KindSeason)
			So(err, ShouldBeNil)
			So(seasons, ShouldHaveLength, 2)
			So(seasons[0].Label, ShouldEqual, "2025-2026 Season")
			So(seasons[0].Count, ShouldEqual, 4)
			So(seasons[0].Key, ShouldEqual, "2025-07-01")
		})
	})
}

func TestSeasonLeaderboardScenario(t *testing.T) {
	Convey("Given three badges early in the 2025-2026 season", t, func() {
		ctx := context.Background()
		svc := service.New(repository.NewMemoryStore(
			model.Badge{Trainer: "Ann", Date: date(2025, 7, 2), Tier: model.TierRegionals},
			model.Badge{Trainer: "Ann", Date: date(2025, 7, 10), Tier: model.TierLocals},
			model.Badge{Trainer: "Bo", Date: date(2025, 7, 5), Tier: model.TierLocals},
		))

		Convey("When ranking trainers for season 2026", func() {
			lb, err := svc.Leaderboard(ctx, service.Query{GroupBy: ranking.GroupByTrainer, Season: 2026})
			So(err, ShouldBeNil)

			Convey("Then Ann should lead on count with Bo second", func() {
				type line struct {
					key                 string
					count, points, rank int
				}
				got := make([]line, len(lb.Entries))
				for i, e := range lb.Entries {
					got[i] = line{e.Key, e.Count, e.Points, e.Rank}
				}
				So(got, ShouldResemble, []line{{"Ann", 2, 6, 1}, {"Bo", 1, 1, 2}})
				So(lb.Period.Label, ShouldEqual, "2025-2026 Season")
			})
		})
	})
}

func TestProfiles(t *testing.T) {
	Convey("Given a service over a small dataset", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When listing trainers and decks", func() {
			trainers, err := svc.Trainers(ctx)
			So(err, ShouldBeNil)
			decks, err := svc.Decks(ctx)
			So(err, ShouldBeNil)

			Convey("Then they should be ordered by count", func() {
				So(trainers[0].Key, ShouldEqual, "Ann")
				So(trainers[1].Key, ShouldEqual, "Bo")
				So(trainers, ShouldHaveLength, 4)
				So(decks[0].Key, ShouldEqual, "lugia")
				So(decks[0].Count, ShouldEqual, 3)
				So(decks[1].Label, ShouldEqual, "Gardevoir ex")
			})
		})

		Convey("When filtering badges", func() {
			badges, err := svc.Badges(ctx, service.Filter{Trainer: "Ann", DeckID: "gardevoirex"})
			So(err, ShouldBeNil)

			Convey("Then matching badges should be rendered for display", func() {
				So(badges, ShouldHaveLength, 1)
				So(badges[0].Date, ShouldEqual, "2025-10-03")
				So(badges[0].Pronouns, ShouldEqual, "their")
				So(badges[0].DeckIcons, ShouldResemble, []string{"https://img/gardy.png"})
				So(badges[0].DeckLabel, ShouldContainSubstring, "Gardevoir ex")
			})
		})

		Convey("When loading a trainer profile", func() {
			p, err := svc.TrainerProfile(ctx, " Ann ")
			So(err, ShouldBeNil)

			Convey("Then it should list badges newest first with totals", func() {
				So(p.Count, ShouldEqual, 2)
				So(p.Points, ShouldEqual, 4)
				So(p.Badges[0].Date, ShouldEqual, "2025-10-03")
				So(p.Badges[1].DeckIcons, ShouldResemble, []string{"https://icons/lugia.png", "https://icons/archeops.png"})
				So(p.Breakdown, ShouldHaveLength, 2)
			})
		})

		Convey("When loading a deck profile", func() {
			p, err := svc.DeckProfile(ctx, "lugia")
			So(err, ShouldBeNil)
			So(p.Label, ShouldEqual, "Lugia VSTAR")
			So(p.Count, ShouldEqual, 3)
			So(p.Breakdown, ShouldHaveLength, 3)
		})

		Convey("When the profile does not exist", func() {
			_, err := svc.TrainerProfile(ctx, "Zed")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			_, err = svc.DeckProfile(ctx, "")
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When loading form options", func() {
			opts, err := svc.FormOptions(ctx)
			So(err, ShouldBeNil)
			So(opts.Trainers, ShouldResemble, []string{"Ann", "Bo", "Cy", "Dee"})
			So(opts.Stores, ShouldResemble, []string{"Cards", "Games"})
			So(opts.Decks, ShouldHaveLength, 2)
			So(opts.Tiers, ShouldContain, model.TierLeagueCup)
		})
	})
}

func TestTimeline(t *testing.T) {
	Convey("Given a service over a small dataset", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When replaying the season by trainer", func() {
			tl, err := svc.Timeline(ctx, service.TimelineQuery{Season: 2026})
			So(err, ShouldBeNil)

			Convey("Then rows should cover each date of the season", func() {
				So(tl.Table.Rows, ShouldHaveLength, 2)
				So(tl.Table.Entities, ShouldResemble, []string{"Ann", "Bo", "Cy"})
				So(tl.Rows, ShouldHaveLength, 5)
				So(tl.Images, ShouldBeNil)
			})
		})

		Convey("When the season and start date combine", func() {
			tl, err := svc.Timeline(ctx, service.TimelineQuery{Season: 2026, Start: date(2025, 9, 1)})
			So(err, ShouldBeNil)
			So(tl.Window.Start, ShouldEqual, date(2025, 9, 1))
			So(tl.Window.End, ShouldEqual, date(2026, 7, 1))
			So(tl.Table.Rows, ShouldHaveLength, 1)
		})

		Convey("When replaying by deck", func() {
			tl, err := svc.Timeline(ctx, service.TimelineQuery{
				GroupBy: ranking.GroupByDeck,
				Field:   timeseries.FieldBadges,
				Images:  timeseries.ImageMap{"Gardevoir ex": "https://override.png"},
			})
			So(err, ShouldBeNil)

			Convey("Then decks should be named and carry images", func() {
				So(tl.Table.Entities, ShouldResemble, []string{"Lugia VSTAR", "Gardevoir ex"})
				So(tl.Images["Lugia VSTAR"], ShouldEqual, "https://icons/lugia.png")
				So(tl.Images["Gardevoir ex"], ShouldEqual, "https://override.png")
				last := tl.Table.Rows[len(tl.Table.Rows)-1]
				So(last.Values, ShouldResemble, []float64{3, 2})
			})
		})

		Convey("When the query is invalid", func() {
			_, err := svc.Timeline(ctx, service.TimelineQuery{GroupBy: ranking.GroupByStore})
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
			_, err = svc.Timeline(ctx, service.TimelineQuery{Field: "elo"})
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
			_, err = svc.Timeline(ctx, service.TimelineQuery{Start: date(2025, 2, 1), End: date(2025, 1, 1)})
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}

func TestAppend(t *testing.T) {
	Convey("Given a writable service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(store, service.WithScorer(scoring.NewTierScorer(scoring.WithTierWeights(map[string]int{"locals": 2}))))

		Convey("When appending a valid badge", func() {
			err := svc.Append(ctx, model.Badge{Trainer: " Ann ", Date: date(2025, 8, 1), Tier: "Locals"})
			So(err, ShouldBeNil)

			Convey("Then it should be stored and counted", func() {
				badges, err := store.ReadAll(ctx)
				So(err, ShouldBeNil)
				So(badges, ShouldHaveLength, 1)
				So(badges[0].Trainer, ShouldEqual, "Ann")
				So(badges[0].RawDate, ShouldEqual, "2025-08-01")
				So(svc.GetStats()["appends"], ShouldEqual, int64(1))
				weights, ok := svc.GetStats()["tierWeights"].(map[string]int)
				So(ok, ShouldBeTrue)
				So(weights["locals"], ShouldEqual, 2)
				So(weights["regionals"], ShouldEqual, 5)

				lb, err := svc.Leaderboard(ctx, service.Query{})
				So(err, ShouldBeNil)
				So(lb.Entries[0].Points, ShouldEqual, 2)
			})
		})

		Convey("When the badge is invalid", func() {
			So(errors.Is(svc.Append(ctx, model.Badge{Date: date(2025, 8, 1)}), service.ErrInvalidBadge), ShouldBeTrue)
			So(errors.Is(svc.Append(ctx, model.Badge{Trainer: "a"}), service.ErrInvalidBadge), ShouldBeTrue)
			So(errors.Is(svc.Append(ctx, model.Badge{Trainer: "a", Date: date(2025, 8, 1), Tier: "prerelease"}), service.ErrInvalidBadge), ShouldBeTrue)
		})

		Convey("When the service serves demo data", func() {
			demo := service.New(store, service.WithDemo(true))
			err := demo.Append(ctx, model.Badge{Trainer: "a", Date: date(2025, 8, 1)})
			So(errors.Is(err, service.ErrReadOnly), ShouldBeTrue)
			So(demo.Demo(), ShouldBeTrue)
			So(demo.GetStats()["demo"], ShouldEqual, true)
		})
	})
}

func TestLabelFormatter(t *testing.T) {
	Convey("Given the HTML label formatter", t, func() {
		f := service.HTMLLabelFormatter{Icons: timeseries.TemplateIconResolver{Template: "https://i/{name}.png"}}

		Convey("Then names should be escaped and icons resolved", func() {
			out := f.FormatDeck(&model.Deck{ID: "x", Name: "<Lost> Box", Icons: []string{"comfey"}})
			So(out, ShouldEqual, `<span class="deck-label"><img class="deck-icon" src="https://i/comfey.png" alt=""><span class="deck-name">&lt;Lost&gt; Box</span></span>`)
			So(f.FormatDeck(nil), ShouldEqual, "")
		})

		Convey("Then a custom formatter should be used by badge views", func() {
			svc := newService(service.WithLabelFormatter(service.LabelFormatterFunc(func(d *model.Deck) string { return "deck:" + d.ID })))
			badges, err := svc.Badges(context.Background(), service.Filter{DeckID: "lugia"})
			So(err, ShouldBeNil)
			So(badges[0].DeckLabel, ShouldEqual, "deck:lugia")
		})
	})
}
