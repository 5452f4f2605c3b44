package timeseries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/ranking"
)

// ErrImageMap is returned when an image map cannot be loaded.
var ErrImageMap = errors.New("invalid image map")

// iconNamePlaceholder is replaced by the icon id in a URL template.
const iconNamePlaceholder = "{name}"

// imageObjectKeys are tried in order when a map value is an object.
var imageObjectKeys = []string{"url", "image", "src", "href"}

// IconResolver turns an icon id into a URL.
type IconResolver interface {
	IconURL(icon string) string
}

// IconResolverFunc adapts a function to IconResolver.
type IconResolverFunc func(icon string) string

// IconURL calls f.
func (f IconResolverFunc) IconURL(icon string) string { return f(icon) }

// TemplateIconResolver substitutes the icon id into Template at {name}.
type TemplateIconResolver struct {
	Template string
}

// IconURL implements IconResolver.
func (t TemplateIconResolver) IconURL(icon string) string {
	icon = strings.TrimSpace(icon)
	if icon == "" || t.Template == "" {
		return ""
	}
	return strings.ReplaceAll(t.Template, iconNamePlaceholder, icon)
}

// ResolveIcon keeps absolute URLs and resolves everything else.
func ResolveIcon(icon string, resolver IconResolver) string {
	icon = strings.TrimSpace(icon)
	if icon == "" {
		return ""
	}
	if model.IsIconURL(icon) {
		return icon
	}
	if resolver == nil {
		return ""
	}
	return resolver.IconURL(icon)
}

// ImageMap maps an entity to an image URL.
type ImageMap map[string]string

// LoadImageMap reads a JSON image map from path.
func LoadImageMap(path string) (ImageMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageMap, err)
	}
	return ParseImageMap(data)
}

// ParseImageMap decodes a JSON object whose values are a URL string, an
// object carrying one of url, image, src or href, or an array whose first
// usable string wins. Values of any other shape are skipped.
func ParseImageMap(data []byte) (ImageMap, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrImageMap)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageMap, err)
	}
	out := make(ImageMap, len(raw))
	for entity, v := range raw {
		if url := imageValue(v); url != "" {
			out[entity] = url
		}
	}
	return out, nil
}

func imageValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(v, &obj); err == nil {
		for _, k := range imageObjectKeys {
			if inner, ok := obj[k]; ok {
				if url := imageValue(inner); url != "" {
					return url
				}
			}
		}
		return ""
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(v, &arr); err == nil {
		for _, item := range arr {
			if url := imageValue(item); url != "" {
				return url
			}
		}
	}
	return ""
}

// ImageOption configures an ImageResolver.
type ImageOption func(*ImageResolver)

// WithImageMap sets explicit entity images.
func WithImageMap(images ImageMap) ImageOption {
	return func(r *ImageResolver) { r.images = images }
}

// WithIconResolver sets the resolver for non-URL deck icons.
func WithIconResolver(icons IconResolver) ImageOption {
	return func(r *ImageResolver) { r.icons = icons }
}

// WithDeckIcons enables the fallback to the icons on an entity's deck.
func WithDeckIcons(enabled bool) ImageOption {
	return func(r *ImageResolver) { r.deckIcons = enabled }
}

// ImageResolver finds an image for each timeline entity.
type ImageResolver struct {
	images    ImageMap
	icons     IconResolver
	deckIcons bool
}

// NewImageResolver creates a resolver. Without options it resolves nothing.
func NewImageResolver(opts ...ImageOption) *ImageResolver {
	r := &ImageResolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Images returns one URL per entity, aligned with entities, or nil when no
// entity has an image. The explicit map wins; otherwise the first icon of
// the entity's most recent deck is used when deck icons are enabled.
func (r *ImageResolver) Images(badges []model.Badge, key ranking.KeyFunc, entities []string) []string {
	if r == nil || len(entities) == 0 {
		return nil
	}
	var latest map[string]model.Badge
	if r.deckIcons {
		latest = latestDecks(badges, key)
	}

	out := make([]string, len(entities))
	found := false
	for i, entity := range entities {
		if url := r.images[entity]; url != "" {
			out[i] = url
			found = true
			continue
		}
		b, ok := latest[entity]
		if !ok {
			continue
		}
		if url := ResolveIcon(b.Deck.FirstIcon(), r.icons); url != "" {
			out[i] = url
			found = true
		}
	}
	if !found {
		return nil
	}
	return out
}

// latestDecks picks, per key, the newest badge carrying a deck with icons.
// On equal dates the earlier badge in input order wins, matching the
// newest-first order of the store.
func latestDecks(badges []model.Badge, key ranking.KeyFunc) map[string]model.Badge {
	out := make(map[string]model.Badge)
	for _, b := range badges {
		if b.Deck == nil || b.Deck.FirstIcon() == "" {
			continue
		}
		k := key(b)
		if k == "" {
			continue
		}
		cur, ok := out[k]
		if !ok || b.Date.After(cur.Date) {
			out[k] = b
		}
	}
	return out
}
