package render

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-microsite/internal/content"
	"golang.org/x/net/html"
)

var (
	amountPattern      = regexp.MustCompile(`\d+`)
	paymentPattern     = regexp.MustCompile(`(?i)mpago\.la|mercadopago`)
	participatePattern = regexp.MustCompile(`(?i)participar|comprar`)
)

func builtinRenderers() map[string]SectionRenderer {
	return map[string]SectionRenderer{
		content.SectionRichText:       RendererFunc(renderRichText),
		content.SectionLinkCards:      RendererFunc(renderLinkCards),
		content.SectionImageGrid:      RendererFunc(renderImageGrid),
		content.SectionImageCarousel:  RendererFunc(renderImageCarousel),
		content.SectionImageHighlight: RendererFunc(renderImageHighlight),
		content.SectionCTA:            RendererFunc(renderCTA),
		content.SectionWinnerCards:    RendererFunc(renderWinnerCards),
		content.SectionKeyValue:       RendererFunc(renderKeyValue),
		content.SectionFAQ:            RendererFunc(renderFAQ),
	}
}

// BaseSection creates the section element for a CSS modifier.
func BaseSection(modifier string) *html.Node {
	return Element("section", Attr("class", "section section--"+modifier))
}

func heading(tag string, title content.Text) *html.Node {
	if title.Blank() {
		return nil
	}
	return TextElement(tag, "", title.String())
}

func renderRichText(_ context.Context, section content.Section, env *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.RichTextData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("textoInformativo")
	Append(container, heading("h2", data.Title))

	markup := data.HTML
	if strings.TrimSpace(markup) == "" && strings.TrimSpace(data.Markdown) != "" && env.Markdown != nil {
		converted, err := env.Markdown.Convert([]byte(data.Markdown))
		if err != nil {
			env.Logger.Warn("render.markdown.failed", "section_id", section.ID, "error", err)
		} else {
			markup = string(converted)
		}
	}
	if strings.TrimSpace(markup) != "" {
		wrapper := Element("div")
		nodes, err := ParseFragment(markup, "div")
		if err != nil {
			return nil, err
		}
		Append(wrapper, nodes...)
		tagPaymentLinks(wrapper)
		return Append(container, wrapper), nil
	}
	for _, line := range data.Lines {
		Append(container, TextElement("p", "", line.String()))
	}
	return container, nil
}

// tagPaymentLinks marks anchors to payment pages inside free content.
func tagPaymentLinks(root *html.Node) {
	anchors := FindAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "a"
	})
	for _, anchor := range anchors {
		href, _ := GetAttr(anchor, "href")
		if !paymentPattern.MatchString(href) {
			continue
		}
		label := strings.TrimSpace(InnerText(anchor))
		for _, attr := range TrackingAttrs("pack_click", map[string]string{"label": label}) {
			SetAttr(anchor, attr.Key, attr.Val)
		}
		if participatePattern.MatchString(label) {
			SetAttr(anchor, "data-track-cta", "cta_participar_click")
		}
	}
}

func renderLinkCards(_ context.Context, section content.Section, env *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.LinkCardsData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("opcionesCompra")
	Append(container, heading("h2", data.Title))
	grid := Element("div", Attr("class", "link-cards"))
	for _, card := range data.Cards {
		anchor := Element("a",
			Attr("class", "link-card"),
			Attr("href", hrefOr(card.Href)),
			Attr("target", "_blank"),
			Attr("rel", "noopener"),
		)
		params := map[string]string{"title": card.Title.String()}
		if amount := amountPattern.FindString(card.Title.String()); amount != "" {
			if n, err := strconv.Atoi(amount); err == nil {
				params["amount"] = strconv.Itoa(n)
			}
		}
		anchor.Attr = append(anchor.Attr, TrackingAttrs("pack_click", params)...)
		Append(anchor,
			env.Image(card.Image, card.Title.Or("Link"), env.Options.PreferThumbs),
			TextElement("div", "link-card__title", card.Title.Or("Link")),
			TextElement("div", "link-card__subtitle", card.Subtitle.String()),
		)
		Append(grid, anchor)
	}
	return Append(container, grid), nil
}

func renderImageGrid(_ context.Context, section content.Section, env *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.ImageGridData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("galeriaImagenes")
	grid := Element("div", Attr("class", "image-grid"))
	for _, image := range data.Images {
		src := image.Source(true)
		if src == "" {
			continue
		}
		alt := image.Alt.Or(image.Title.Or(data.Title.Or("Imagen")))
		link := Element("a", Attr("class", "image-card__media"), Attr("href", src))
		if image.Href != "" {
			SetAttr(link, "href", image.Href)
			link.Attr = append(link.Attr, Attr("target", "_blank"), Attr("rel", "noopener"))
		}
		Append(link, env.Image(image.Ref, alt, true))
		card := Append(Element("div", Attr("class", "image-card")), link)

		if !image.Title.Blank() || !image.Subtitle.Blank() {
			body := Element("div", Attr("class", "image-card__body"))
			if !image.Title.Blank() {
				Append(body, TextElement("div", "image-card__title", image.Title.String()))
			}
			if !image.Subtitle.Blank() {
				Append(body, TextElement("div", "image-card__subtitle", image.Subtitle.String()))
			}
			Append(card, body)
		}
		Append(grid, card)
	}
	return Append(container, grid), nil
}

func renderImageCarousel(_ context.Context, section content.Section, env *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.ImageCarouselData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("imageCarousel")
	Append(container, heading("h2", data.Title))
	if !data.Description.Blank() {
		Append(container, TextElement("p", "", data.Description.String()))
	}
	carousel := Element("div", Attr("class", "carousel"))
	for _, image := range data.Images {
		if image.Source(false) == "" {
			continue
		}
		alt := image.Alt.Or(image.Title.Or(data.Title.Or("Galeria")))
		Append(carousel, Append(Element("div", Attr("class", "carousel__item")), env.Image(image.Ref, alt, true)))
	}
	return Append(container, carousel), nil
}

func renderImageHighlight(_ context.Context, section content.Section, env *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.ImageHighlightData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("detalleVisual")
	mediaEl := Append(Element("div", Attr("class", "imageHighlight__media")),
		env.Image(data.Image, data.Title.Or("Destacado"), false))
	body := Element("div", Attr("class", "imageHighlight__body"))
	Append(body, heading("h3", data.Title))
	if !data.Body.Blank() {
		Append(body, TextElement("p", "", data.Body.String()))
	}
	Append(container, mediaEl, body)

	if len(data.Slides) > 0 {
		slider := Element("div", Attr("class", "imageHighlight__slider"), Attr("data-slider", ""))
		for i, slide := range data.Slides {
			item := Element("div", Attr("class", "imageHighlight__slide"), Attr("data-slide-index", strconv.Itoa(i)))
			Append(item,
				env.Image(slide.Image, slide.Title.Or(data.Title.Or("Destacado")), env.Options.PreferThumbs),
				heading("h4", slide.Title),
			)
			if !slide.Body.Blank() {
				Append(item, TextElement("p", "", slide.Body.String()))
			}
			Append(slider, item)
		}
		Append(container, slider)
	}
	return container, nil
}

func renderCTA(_ context.Context, section content.Section, env *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.CTAData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("botonAccion")
	Append(container, env.Image(data.Image, data.Title.Or("CTA"), false))
	Append(container, heading("h2", data.Title))
	if !data.Body.Blank() {
		Append(container, TextElement("p", "", data.Body.String()))
	}
	if strings.TrimSpace(data.Href) != "" {
		label := data.ButtonLabel.Or("Ver más")
		button := TextElement("a", "button button--primary", label)
		button.Attr = append(button.Attr,
			Attr("href", data.Href),
			Attr("target", "_blank"),
			Attr("rel", "noopener"),
		)
		event := "cta_click"
		if participatePattern.MatchString(label) {
			event = "cta_participar_click"
		}
		button.Attr = append(button.Attr, TrackingAttrs(event, map[string]string{"location": "content", "label": label})...)
		Append(container, button)
	}
	return container, nil
}

func renderWinnerCards(_ context.Context, section content.Section, env *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.WinnerCardsData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("muroGanadores")
	Append(container, heading("h2", data.Title))
	grid := Element("div", Attr("class", "winner-grid"))
	for _, card := range data.Cards {
		cardEl := Element("div", Attr("class", "winner-card"))
		cardEl.Attr = append(cardEl.Attr, TrackingAttrs("ganador_click", map[string]string{
			"name":  card.Winner.String(),
			"prize": card.Prize.String(),
		})...)
		var meta []string
		for _, part := range []content.Text{card.Date, card.Location, card.Ticket} {
			if !part.Blank() {
				meta = append(meta, part.String())
			}
		}
		Append(cardEl,
			env.Image(card.Image, card.Prize.Or("Ganador"), env.Options.PreferThumbs),
			TextElement("div", "winner-card__title", card.Winner.Or("Ganador")),
			TextElement("div", "", card.Prize.String()),
			TextElement("div", "winner-card__meta", strings.Join(meta, " • ")),
		)
		Append(grid, cardEl)
	}
	return Append(container, grid), nil
}

func renderKeyValue(_ context.Context, section content.Section, _ *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.KeyValueData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("keyValue")
	Append(container, heading("h2", data.Title))
	list := Element("dl", Attr("class", "key-value"))
	for _, item := range data.Items {
		Append(list, TextElement("dt", "", item.K.String()), TextElement("dd", "", item.V.String()))
	}
	return Append(container, list), nil
}

func renderFAQ(_ context.Context, section content.Section, _ *Env) (*html.Node, error) {
	data, err := content.DecodeData[content.FAQData](section)
	if err != nil {
		return nil, err
	}
	container := BaseSection("faq")
	Append(container, TextElement("h3", "", data.Title.Or("Preguntas frecuentes")))
	list := Element("div", Attr("class", "faq-list"))
	for _, item := range data.Items {
		details := Append(Element("details"),
			TextElement("summary", "", item.Q.String()),
			TextElement("div", "answer", item.A.String()),
		)
		Append(list, details)
	}
	return Append(container, list), nil
}
