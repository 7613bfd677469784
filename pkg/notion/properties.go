package notion

import (
	"strconv"
	"strings"

	"github.com/jomei/notionapi"
)

// Title builds a title property holding a single text segment.
func Title(content string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: textSegments(content),
	}
}

// RichText builds a rich_text property holding a single text segment.
func RichText(content string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: textSegments(content),
	}
}

// Select builds a select property for the named option.
func Select(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: name},
	}
}

// PhoneNumber builds a phone_number property.
func PhoneNumber(phone string) notionapi.PhoneNumberProperty {
	return notionapi.PhoneNumberProperty{
		Type:        notionapi.PropertyTypePhoneNumber,
		PhoneNumber: phone,
	}
}

// URL builds a url property.
func URL(u string) notionapi.URLProperty {
	return notionapi.URLProperty{
		Type: notionapi.PropertyTypeURL,
		URL:  u,
	}
}

// Number builds a number property.
func Number(n float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{
		Type:   notionapi.PropertyTypeNumber,
		Number: n,
	}
}

func textSegments(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}},
	}
}

// PlainText reads a property as plain text. Pages decoded from the API hold
// pointer properties while locally built ones hold values; both are
// accepted. Missing or unsupported properties read as "".
func PlainText(props notionapi.Properties, name string) string {
	prop, ok := props[name]
	if !ok || prop == nil {
		return ""
	}

	var s string
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		s = joinRichText(p.Title)
	case notionapi.TitleProperty:
		s = joinRichText(p.Title)
	case *notionapi.RichTextProperty:
		s = joinRichText(p.RichText)
	case notionapi.RichTextProperty:
		s = joinRichText(p.RichText)
	case *notionapi.SelectProperty:
		s = p.Select.Name
	case notionapi.SelectProperty:
		s = p.Select.Name
	case *notionapi.PhoneNumberProperty:
		s = p.PhoneNumber
	case notionapi.PhoneNumberProperty:
		s = p.PhoneNumber
	case *notionapi.URLProperty:
		s = p.URL
	case notionapi.URLProperty:
		s = p.URL
	case *notionapi.NumberProperty:
		s = strconv.FormatFloat(p.Number, 'f', -1, 64)
	case notionapi.NumberProperty:
		s = strconv.FormatFloat(p.Number, 'f', -1, 64)
	}
	return strings.TrimSpace(s)
}

// joinRichText concatenates segments, preferring PlainText (set by the API)
// and falling back to Text.Content (set on locally built values).
func joinRichText(segments []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range segments {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}
