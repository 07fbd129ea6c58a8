package tags

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
	"github.com/goodsign/monday"
	"github.com/neurodesk/curly/pkg/curly"
)

var mondayLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"de_at": monday.LocaleDeDE,
	"de_ch": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"it_it": monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_pt": monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"nl_nl": monday.LocaleNlNL,
	"nl_be": monday.LocaleNlBE,
	"ru":    monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"cs":    monday.LocaleCsCZ,
	"da":    monday.LocaleDaDK,
	"fi":    monday.LocaleFiFI,
	"sv":    monday.LocaleSvSE,
	"nb":    monday.LocaleNbNO,
	"ja":    monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_cn": monday.LocaleZhCN,
	"zh_tw": monday.LocaleZhTW,
	"ko":    monday.LocaleKoKR,
	"tr":    monday.LocaleTrTR,
	"uk":    monday.LocaleUkUA,
}

// mondayLocale maps a locale such as "de-AT" to a monday locale, falling
// back to the language part and then to US English.
func mondayLocale(locale string) monday.Locale {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))
	if loc, ok := mondayLocales[locale]; ok {
		return loc
	}
	if lang, _, ok := strings.Cut(locale, "_"); ok {
		if loc, ok := mondayLocales[lang]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}

// dateLayout returns the layout for a named style, or "" for unknown styles.
func dateLayout(style string, loc monday.Locale) string {
	switch style {
	case "short":
		switch loc {
		case monday.LocaleEnUS:
			return "1/2/06"
		case monday.LocaleDeDE:
			return "02.01.06"
		case monday.LocaleJaJP, monday.LocaleZhCN, monday.LocaleZhTW:
			return "06/01/02"
		}
		return "02/01/06"
	case "medium":
		switch loc {
		case monday.LocaleEnUS:
			return "Jan 2, 2006"
		case monday.LocaleDeDE:
			return "2. Jan. 2006"
		}
		return "2 Jan 2006"
	case "long":
		switch loc {
		case monday.LocaleEnUS:
			return "January 2, 2006"
		case monday.LocaleDeDE:
			return "2. January 2006"
		case monday.LocaleJaJP, monday.LocaleZhCN, monday.LocaleZhTW:
			return "2006年1月2日"
		}
		return "2 January 2006"
	case "full":
		switch loc {
		case monday.LocaleEnUS:
			return "Monday, January 2, 2006"
		case monday.LocaleDeDE:
			return "Monday, 2. January 2006"
		case monday.LocaleJaJP, monday.LocaleZhCN, monday.LocaleZhTW:
			return "2006年1月2日 Monday"
		}
		return "Monday, 2 January 2006"
	}
	return ""
}

func timeLayout(style string, loc monday.Locale) string {
	twelve := loc == monday.LocaleEnUS
	switch style {
	case "short":
		if twelve {
			return "3:04 PM"
		}
		return "15:04"
	case "medium":
		if twelve {
			return "3:04:05 PM"
		}
		return "15:04:05"
	case "long", "full":
		if twelve {
			return "3:04:05 PM MST"
		}
		return "15:04:05 MST"
	}
	return ""
}

// DateNode prints a point in time: {{#date created | long | de}}. The style
// is short, medium, long, full, relative or a Go layout.
type DateNode struct {
	Key    curly.Key
	Style  string
	Layout string
	Locale monday.Locale

	loc *time.Location
	now func() time.Time
}

func (n *DateNode) Execute(ctx *curly.Context) (curly.Signal, error) {
	v, ok, err := evaluate(ctx, n.Key)
	if err != nil || !ok {
		return curly.Continue, err
	}
	t, ok, err := toTime(v, n.loc, n.Locale == monday.LocaleEnUS)
	if err != nil {
		return curly.Continue, fmt.Errorf("date %s: %w", n.Key, err)
	}
	if !ok {
		return curly.Continue, nil
	}
	if n.Style == "relative" {
		ctx.WriteEscaped(humanize.RelTime(t, n.now(), "ago", "from now"))
		return curly.Continue, nil
	}
	ctx.WriteEscaped(monday.Format(t.In(n.loc), n.Layout, n.Locale))
	return curly.Continue, nil
}

func dateFactory(opts Options, clock bool) curly.TagFactory {
	name, def, layout := "date", "medium", dateLayout
	if clock {
		name, def, layout = "time", "short", timeLayout
	}
	return func(doc *curly.Document, content string) (curly.Node, error) {
		key, args, err := parseArgs(doc, name, content, 2)
		if err != nil {
			return nil, err
		}
		n := &DateNode{
			Key:    key,
			Style:  option(args, 0, def),
			Locale: mondayLocale(option(args, 1, opts.Locale)),
			loc:    opts.Location,
			now:    opts.Now,
		}
		if n.Style != "relative" {
			n.Layout = layout(n.Style, n.Locale)
			if n.Layout == "" {
				// anything that is not a style name is taken as a Go layout
				n.Layout = n.Style
			}
		}
		return n, nil
	}
}

// toTime converts a time value, a Unix timestamp or a date string. An empty
// string yields ok == false. Ambiguous numeric dates such as 02/03/2024 are
// read month first only when monthFirst is set.
func toTime(v curly.Value, loc *time.Location, monthFirst bool) (time.Time, bool, error) {
	switch t := v.(type) {
	case curly.TimeValue:
		return t.Time, !t.Time.IsZero(), nil
	case curly.NumberValue:
		return time.Unix(int64(t), 0).In(loc), true, nil
	}
	s := strings.TrimSpace(v.String())
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := dateparse.ParseIn(s, loc, dateparse.PreferMonthFirst(monthFirst))
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
