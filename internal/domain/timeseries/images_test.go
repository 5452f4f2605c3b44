package timeseries_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/timeseries"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseImageMap(t *testing.T) {
	Convey("Given an image map with mixed value shapes", t, func() {
		data := []byte(`{
			"Ann": "https://img/ann.png",
			"Bo": {"image": "https://img/bo.png"},
			"Cy": [null, "https://img/cy.png"],
			"Dee": 42,
			"Eve": {"alt": "none"}
		}`)

		Convey("When parsing it", func() {
			images, err := timeseries.ParseImageMap(data)
			So(err, ShouldBeNil)

			Convey("Then each usable shape should yield a URL", func() {
				So(images, ShouldResemble, timeseries.ImageMap{
					"Ann": "https://img/ann.png",
					"Bo":  "https://img/bo.png",
					"Cy":  "https://img/cy.png",
				})
			})
		})

		Convey("When the document is not an object", func() {
			_, err := timeseries.ParseImageMap([]byte(`["a"]`))
			So(errors.Is(err, timeseries.ErrImageMap), ShouldBeTrue)
			_, err = timeseries.ParseImageMap([]byte(`{"a":`))
			So(errors.Is(err, timeseries.ErrImageMap), ShouldBeTrue)
		})

		Convey("When loading from disk", func() {
			path := filepath.Join(t.TempDir(), "images.json")
			So(os.WriteFile(path, []byte(`{"Ann":{"url":"https://img/a.png"}}`), 0o600), ShouldBeNil)

			images, err := timeseries.LoadImageMap(path)
			So(err, ShouldBeNil)
			So(images["Ann"], ShouldEqual, "https://img/a.png")

			_, err = timeseries.LoadImageMap(filepath.Join(t.TempDir(), "missing.json"))
			So(errors.Is(err, timeseries.ErrImageMap), ShouldBeTrue)
		})
	})
}

func TestImageResolver(t *testing.T) {
	Convey("Given deck badges with icons", t, func() {
		icons := timeseries.TemplateIconResolver{Template: "https://cdn/{name}.png"}
		badges := []model.Badge{
			{Deck: &model.Deck{ID: "lugia", Name: "Lugia", Icons: []string{"lugia"}}, Date: day(9)},
			{Deck: &model.Deck{ID: "lugia", Name: "Lugia", Icons: []string{"archeops"}}, Date: day(1)},
			{Deck: &model.Deck{ID: "gardy", Name: "Gardy", Icons: []string{"https://x/g.png"}}, Date: day(2)},
			{Deck: &model.Deck{ID: "bare", Name: "Bare"}, Date: day(2)},
		}
		entities := []string{"Lugia", "Gardy", "Bare", "Mapped"}

		Convey("When deck icons are enabled", func() {
			r := timeseries.NewImageResolver(
				timeseries.WithImageMap(timeseries.ImageMap{"Mapped": "https://m.png", "Gardy": "https://override.png"}),
				timeseries.WithIconResolver(icons),
				timeseries.WithDeckIcons(true),
			)
			got := r.Images(badges, ranking.ByDeckName, entities)

			Convey("Then the map should win and the newest deck icon be resolved", func() {
				So(got, ShouldResemble, []string{"https://cdn/lugia.png", "https://override.png", "", "https://m.png"})
			})
		})

		Convey("When deck icons are disabled", func() {
			r := timeseries.NewImageResolver(timeseries.WithIconResolver(icons))
			So(r.Images(badges, ranking.ByDeckName, entities), ShouldBeNil)
		})

		Convey("When resolving raw icons", func() {
			So(timeseries.ResolveIcon("https://a/b.png", nil), ShouldEqual, "https://a/b.png")
			So(timeseries.ResolveIcon("pikachu", nil), ShouldEqual, "")
			So(timeseries.ResolveIcon("pikachu", timeseries.IconResolverFunc(func(s string) string { return "x/" + s })), ShouldEqual, "x/pikachu")
			So(timeseries.TemplateIconResolver{}.IconURL("a"), ShouldEqual, "")
		})
	})
}
