// Package tags provides presentation tags for curly templates: dates and
// times, letter case, numeric units, localized numbers and markdown.
//
//	{{#date created | long}}  {{#time created | short | de}}
//	{{#title name}}           {{#units size | bytes}}
//	{{#number total | de}}    {{#markdown body}}
//
// It also adds the title, bytes, ordinal and comma functions for key::fn.
package tags

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/neurodesk/curly/pkg/curly"
	"golang.org/x/text/cases"
)

// Options configures the presentation tags.
type Options struct {
	// Locale is the default locale, such as "en-US" or "de". Tags can
	// override it with their last option.
	Locale string
	// Location is used for Unix timestamps and dates without a zone.
	Location *time.Location
	// Now is the reference time of relative dates.
	Now func() time.Time
}

// Register adds the presentation tags and functions to reg.
func Register(reg *curly.Registry, opts Options) error {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	lang, err := parseLanguage(opts.Locale)
	if err != nil {
		return fmt.Errorf("locale %q: %w", opts.Locale, err)
	}

	tags := map[string]curly.TagFactory{
		"date":     dateFactory(opts, false),
		"time":     dateFactory(opts, true),
		"upper":    caseFactory("upper", opts),
		"lower":    caseFactory("lower", opts),
		"title":    caseFactory("title", opts),
		"units":    unitsFactory,
		"number":   numberFactory(opts),
		"markdown": markdownFactory,
	}
	for name, f := range tags {
		if err := reg.Register(name, f); err != nil {
			return err
		}
	}

	funcs := map[string]func(curly.Value) (curly.Value, error){
		"title": func(v curly.Value) (curly.Value, error) {
			return curly.StringValue(cases.Title(lang).String(v.String())), nil
		},
		"bytes": func(v curly.Value) (curly.Value, error) {
			f, err := toFloat(v)
			if err != nil || f < 0 {
				return nil, &curly.TypeError{Op: "bytes", Value: v}
			}
			return curly.StringValue(humanize.Bytes(uint64(f))), nil
		},
		"ordinal": func(v curly.Value) (curly.Value, error) {
			f, err := toFloat(v)
			if err != nil {
				return nil, err
			}
			return curly.StringValue(humanize.Ordinal(int(f))), nil
		},
		"comma": func(v curly.Value) (curly.Value, error) {
			f, err := toFloat(v)
			if err != nil {
				return nil, err
			}
			return curly.StringValue(humanize.Commaf(f)), nil
		},
	}
	for name, fn := range funcs {
		if err := reg.RegisterFunc(name, nullSafe(fn)); err != nil {
			return err
		}
	}
	return nil
}

// nullSafe passes null through instead of formatting it.
func nullSafe(fn func(curly.Value) (curly.Value, error)) func(curly.Value) (curly.Value, error) {
	return func(v curly.Value) (curly.Value, error) {
		if curly.IsNull(v) {
			return curly.Null, nil
		}
		return fn(v)
	}
}
