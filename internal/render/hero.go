package render

import (
	"strings"

	"github.com/goliatone/go-microsite/internal/content"
	"golang.org/x/net/html"
)

var socialIcons = map[string]string{
	"instagram": `<svg viewBox="0 0 24 24" aria-hidden="true"><rect x="2.5" y="2.5" width="19" height="19" rx="5" ry="5" fill="none" stroke="currentColor" stroke-width="2"/><circle cx="12" cy="12" r="4.2" fill="none" stroke="currentColor" stroke-width="2"/><circle cx="17" cy="7" r="1.3"/></svg>`,
	"tiktok":    `<svg viewBox="0 0 24 24" aria-hidden="true"><path d="M14.5 2h2a4.8 4.8 0 0 0 4.8 4.8v2a6.8 6.8 0 0 1-4-1.2v7.4a5.5 5.5 0 1 1-5.5-5.5c.32 0 .64.02.95.08V6.5h2v5.2a3.5 3.5 0 1 0 1.8 3.1V2z"/></svg>`,
	"youtube":   `<svg viewBox="0 0 24 24" aria-hidden="true"><path d="M3 7.2c0-1.2.9-2.2 2.1-2.3C7.5 4.6 10.3 4.5 12 4.5s4.5.1 6.9.4c1.2.1 2.1 1.1 2.1 2.3v7.6c0 1.2-.9 2.2-2.1 2.3-2.4.3-5.2.4-6.9.4s-4.5-.1-6.9-.4C3.9 17 3 16 3 14.8V7.2z"/><path d="M10.5 8.25 15.5 12l-5 3.75V8.25z" fill="currentColor"/></svg>`,
	"facebook":  `<svg viewBox="0 0 24 24" aria-hidden="true"><path d="M13.5 9.5V7.8c0-1 .2-1.5 1.6-1.5h1.4V4h-2.4c-2.9 0-4.1 1.3-4.1 3.7v1.8H8v2.3h2v8.2h3v-8.2h2.1l.3-2.3H13.5z"/></svg>`,
	"whatsapp":  `<svg viewBox="0 0 24 24" aria-hidden="true"><path d="M12 3a9 9 0 0 0-7.8 13.5L3 21l4.7-1.2A9 9 0 1 0 12 3zm0 2a7 7 0 0 1 5.9 10.8l-.2.3a1 1 0 0 1-.7.5 1 1 0 0 1-.9-.3l-.7-.7a1 1 0 0 0-1.2-.2c-1.2.6-2.6-.4-4-1.8s-2.4-2.9-1.8-4a1 1 0 0 0-.2-1.2l-.7-.7a1 1 0 0 1-.1-1.3A7 7 0 0 1 12 5z"/></svg>`,
	"telegram":  `<svg viewBox="0 0 24 24" aria-hidden="true"><path d="M21.7 4.3 3.8 11.3c-.9.3-.9 1.5-.1 1.9l4.3 1.9 1.6 4.8c.3.9 1.5 1 1.9.1l2.2-4.3 4.6 2c.8.3 1.7-.1 1.9-.9l2.2-11c.2-.9-.7-1.6-1.7-1.2z"/></svg>`,
	"default":   `<svg viewBox="0 0 24 24" aria-hidden="true"><circle cx="12" cy="12" r="10"/></svg>`,
}

// ResolvePlatform guesses the social network from a profile URL.
func ResolvePlatform(url string) string {
	u := strings.ToLower(url)
	switch {
	case strings.Contains(u, "instagram.com"):
		return "instagram"
	case strings.Contains(u, "tiktok.com"):
		return "tiktok"
	case strings.Contains(u, "youtube.com"), strings.Contains(u, "youtu.be"):
		return "youtube"
	case strings.Contains(u, "facebook.com"):
		return "facebook"
	case strings.Contains(u, "wa.me"), strings.Contains(u, "whatsapp.com"):
		return "whatsapp"
	case strings.Contains(u, "t.me"):
		return "telegram"
	}
	return "default"
}

// RenderHero renders the page hero. It is always present, even for an
// empty hero.
func (r *Renderer) RenderHero(hero content.Hero) *html.Node {
	env := r.env()
	section := Element("section", Attr("class", "section section--hero"))
	heroEl := Element("div", Attr("class", "hero"))
	if hero.Effect != "" {
		SetAttr(heroEl, "data-effect", hero.Effect)
	}
	Append(section, heroEl)

	if banner := env.Image(hero.BannerImage, hero.Title.Or("Banner"), false); banner != nil {
		AddClass(banner, "hero-banner")
		Append(heroEl, Append(Element("div", Attr("class", "hero__media")), banner))
	}

	body := Element("div", Attr("class", "hero-body"))
	if profile := env.Image(hero.ProfileImage, hero.Title.Or("Perfil"), false); profile != nil {
		AddClass(body, "hero-body--with-profile")
		AddClass(profile, "hero-profile")
		Append(body, Append(Element("div", Attr("class", "hero__profile-wrapper")), profile))
	}
	Append(heroEl, body)

	Append(body, TextElement("h1", "hero__title", hero.Title.String()))
	if !hero.Subtitle.Blank() {
		Append(body, TextElement("p", "hero__subtitle", hero.Subtitle.String()))
	}

	if len(hero.Buttons) > 0 {
		row := Element("div", Attr("class", "button-row"))
		for i, button := range hero.Buttons {
			variant := "button--ghost"
			if i == 0 {
				variant = "button--primary"
			}
			anchor := TextElement("a", "button "+variant, button.Label.Or("Ver mas"))
			SetAttr(anchor, "href", hrefOr(button.Href))
			event := "cta_click"
			if strings.Contains(strings.ToLower(button.Label.String()), "particip") {
				event = "cta_participar_click"
			}
			anchor.Attr = append(anchor.Attr, TrackingAttrs(event, map[string]string{
				"location": "hero",
				"label":    button.Label.String(),
			})...)
			Append(row, anchor)
		}
		Append(body, row)
	}

	Append(body, renderSocial(hero.Social))
	return section
}

func renderSocial(links []content.Social) *html.Node {
	list := Element("ul", Attr("class", "social-list"), Attr("aria-label", "Redes sociales"))
	count := 0
	for _, link := range links {
		if strings.TrimSpace(link.URL) == "" {
			continue
		}
		key := ResolvePlatform(link.URL)
		anchor := Element("a",
			Attr("href", link.URL),
			Attr("target", "_blank"),
			Attr("rel", "noopener"),
			Attr("aria-label", link.Label.Or(key)),
		)
		anchor.Attr = append(anchor.Attr, TrackingAttrs("social_click", map[string]string{"platform": key})...)
		if icon, err := ParseFragment(socialIcons[key], "a"); err == nil {
			Append(anchor, icon...)
		}
		Append(list, Append(Element("li"), anchor))
		count++
	}
	if count == 0 {
		return nil
	}
	return list
}

func hrefOr(href string) string {
	if strings.TrimSpace(href) == "" {
		return "#"
	}
	return href
}
