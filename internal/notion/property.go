package notion

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/normalize"
)

// Kind is the type tag of a page property.
type Kind string

// Property kinds understood by Decode. Anything else decodes to nil.
const (
	KindTitle       Kind = "title"
	KindRichText    Kind = "rich_text"
	KindNumber      Kind = "number"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindDate        Kind = "date"
	KindCheckbox    Kind = "checkbox"
	KindURL         Kind = "url"
	KindFiles       Kind = "files"
)

// KindStatus is only used to shape query filters; Decode treats it as unknown.
const KindStatus Kind = "status"

type richText struct {
	PlainText string `json:"plain_text"`
}

type option struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

type fileRef struct {
	URL string `json:"url"`
}

type file struct {
	Type     string   `json:"type"`
	File     *fileRef `json:"file"`
	External *fileRef `json:"external"`
}

// Decode converts one raw property value into its plain Go value:
//
//	title, rich_text  string (joined plain text, "" if absent)
//	number            float64 or nil
//	select            string or nil
//	multi_select      []string (never nil)
//	date              start date string or nil
//	checkbox          bool
//	url               string or nil
//	files             []string of resolved URLs (never nil)
//
// Unknown kinds decode to nil without error.
func Decode(raw json.RawMessage) (any, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case KindTitle:
		var v struct {
			Title []richText `json:"title"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return joinPlain(v.Title), nil

	case KindRichText:
		var v struct {
			RichText []richText `json:"rich_text"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return joinPlain(v.RichText), nil

	case KindNumber:
		var v struct {
			Number *float64 `json:"number"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Number == nil {
			return nil, nil
		}
		return *v.Number, nil

	case KindSelect:
		var v struct {
			Select *option `json:"select"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Select == nil {
			return nil, nil
		}
		return v.Select.Name, nil

	case KindMultiSelect:
		var v struct {
			MultiSelect []option `json:"multi_select"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		names := make([]string, 0, len(v.MultiSelect))
		for _, o := range v.MultiSelect {
			names = append(names, o.Name)
		}
		return names, nil

	case KindDate:
		var v struct {
			Date *dateValue `json:"date"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Date == nil {
			return nil, nil
		}
		return v.Date.Start, nil

	case KindCheckbox:
		var v struct {
			Checkbox bool `json:"checkbox"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v.Checkbox, nil

	case KindURL:
		var v struct {
			URL *string `json:"url"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.URL == nil {
			return nil, nil
		}
		return *v.URL, nil

	case KindFiles:
		var v struct {
			Files []file `json:"files"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(v.Files))
		for _, f := range v.Files {
			if u := f.resolve(); u != "" {
				urls = append(urls, u)
			}
		}
		return urls, nil

	default:
		return nil, nil
	}
}

// DecodeProperties decodes every property of a page independently. A property
// that fails to decode is logged and stored as nil; its siblings are unaffected.
func DecodeProperties(props map[string]json.RawMessage, logger *slog.Logger) normalize.Record {
	if logger == nil {
		logger = slog.Default()
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	rec := make(normalize.Record, len(props))
	for _, name := range names {
		v, err := decodeSafe(props[name])
		if err != nil {
			derr := &apperr.DecodeError{Property: name, Err: err}
			logger.Warn("property decode failed",
				slog.String("property", name),
				slog.String("error", derr.Error()))
			rec[name] = nil
			continue
		}
		rec[name] = v
	}
	return rec
}

// decodeSafe turns a panic in a decoder arm into an error so one malformed
// property cannot take down the whole page.
func decodeSafe(raw json.RawMessage) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return Decode(raw)
}

func (f file) resolve() string {
	switch f.Type {
	case "file":
		if f.File != nil {
			return f.File.URL
		}
	case "external":
		if f.External != nil {
			return f.External.URL
		}
	}
	return ""
}

func joinPlain(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}
