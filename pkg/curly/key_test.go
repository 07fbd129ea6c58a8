package curly

import (
	"errors"
	"testing"
)

func TestParseKeyShape(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"user.address.city", "user.address.city"},
		{"this", "this"},
		{"this.name", "name"},
		{"@user.name", "@user.name"},
		{"!flag", "!flag"},
		{"'a b'", "'a b'"},
		{"42", "42"},
		{"-1.5", "-1.5"},
		{"index==1", "(index == 1)"},
		{"a && b || c", "((a && b) || c)"},
		{"a == 1 && b != 2", "((a == 1) && (b != 2))"},
		{"1 + 2 * 3", "((1 + 2) * 3)"},
		{"x >= 3", "(x >= 3)"},
		{"'a b' ? x", "('a b' ? x)"},
		{"name *? 'Dr'", "(name *? 'Dr')"},
		{"name ?* 'son'", "(name ?* 'son')"},
		{"name::upper", "(name :: upper)"},
		{"x := 'y'", "(x := 'y')"},
		{"'a && b' == c", "('a && b' == c)"},
		// :: is last in the operator table and wins the tie with :=.
		{"x := name::upper", "((x := name) :: upper)"},
	}
	for _, tc := range cases {
		k, err := ParseKey(tc.in, Any)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", tc.in, err)
		}
		if got := k.String(); got != tc.want {
			t.Fatalf("ParseKey(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseKeyTypes(t *testing.T) {
	cases := []struct {
		in       string
		expected KeyType
		ok       bool
	}{
		{"'5' > '3'", Bool, true},
		{"a", Collection, true},
		{"@list", Collection, true},
		{"this", Collection, true},
		{"'x'", Collection, false},
		{"1 + 2", Collection, false},
		{"'abc' && true", Any, false},
		{"!'x'", Any, false},
		{"1 && 2", Bool, false},
		{"true", Numeric, false},
		{"'a' + 1", Any, true},
		{"x > y", Bool, true},
		{"1 + 2", Bool, false},
	}
	for _, tc := range cases {
		_, err := ParseKey(tc.in, tc.expected)
		if tc.ok && err != nil {
			t.Fatalf("ParseKey(%q, %s): %v", tc.in, tc.expected, err)
		}
		if !tc.ok {
			var ke *KeyError
			if !errors.As(err, &ke) {
				t.Fatalf("ParseKey(%q, %s): want *KeyError, got %v", tc.in, tc.expected, err)
			}
		}
	}
}

func TestParseKeyErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "a b", "x::", "x:: 1", "'a' := 1", "a..b", "1.2.3"} {
		if _, err := ParseKey(in, Any); err == nil {
			t.Fatalf("ParseKey(%q): expected error", in)
		}
	}
}

func TestEvaluateOperators(t *testing.T) {
	data := FromGo(map[string]any{
		"yes":   true,
		"no":    false,
		"upper": "TRUE",
		"tags":  []string{"go", "templates"},
		"name":  "Ada Lovelace",
		"n":     7,
		"empty": []int{},
	})
	cases := []struct {
		key  string
		want string
	}{
		{"'5' > '3'", "true"},
		{"'abc' > '3'", "false"},
		{"'abc' < '3'", "true"},
		{"null == null", "true"},
		{"null == 'x'", "false"},
		{"null != 'x'", "true"},
		{"n == '7'", "true"},
		{"3 >= 3", "true"},
		{"2 <= 1", "false"},
		{"yes && upper", "true"},
		{"yes && no", "false"},
		{"no || upper", "true"},
		{"tags ? 'go'", "true"},
		{"tags ? 'rust'", "false"},
		{"name ? 'Love'", "true"},
		{"name ? ''", "false"},
		{"name ? missing", "false"},
		{"name *? 'Ada'", "true"},
		{"name ?* 'Ada'", "false"},
		{"2 + 3", "5"},
		{"n * 1.5", "10.5"},
		{"1 + 2 * 3", "9"},
		{"!no", "true"},
		{"!empty", "true"},
		{"!tags", "false"},
		{"x := 'y'", "y"},
		{"name::upper", "ADA LOVELACE"},
		{"tags::length", "2"},
		{"tags.count", "2"},
		{"tags.1", "templates"},
	}
	ctx := newContext(New(nil), data, nil)
	for _, tc := range cases {
		k, err := ParseKey(tc.key, Any)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", tc.key, err)
		}
		v, err := k.Evaluate(ctx)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tc.key, err)
		}
		if got := v.String(); got != tc.want {
			t.Fatalf("Evaluate(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestNegationTypeError(t *testing.T) {
	ctx := newContext(New(nil), FromGo(map[string]any{"name": "x"}), nil)
	for _, in := range []string{"!name", "!missing"} {
		k, err := ParseKey(in, Any)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", in, err)
		}
		_, err = k.Evaluate(ctx)
		var te *TypeError
		if !errors.As(err, &te) {
			t.Fatalf("Evaluate(%q): want *TypeError, got %v", in, err)
		}
	}
}

func TestPathFallback(t *testing.T) {
	ctx := newContext(New(nil), FromGo(map[string]any{"title": "T", "user": map[string]any{"name": "root"}}), nil)
	item := FromGo(map[string]any{"name": "inner"})
	ctx.SetVar("index", NumberValue(3))
	_, _ = ctx.With(item, func(ctx *Context) (Signal, error) {
		for key, want := range map[string]string{
			"name":      "inner",
			"title":     "T",
			"user.name": "root",
			"index":     "3",
			"missing":   "",
			"user.nope": "",
		} {
			v := ctx.resolve((&Path{Steps: splitSteps(key)}).Steps)
			if v.String() != want {
				t.Fatalf("resolve(%s) = %q, want %q", key, v.String(), want)
			}
		}
		return Continue, nil
	})
}

func splitSteps(s string) []string {
	steps, _ := splitPath(s, s)
	return steps
}

func TestDictMemberCaseFold(t *testing.T) {
	d := DictValue{"Name": StringValue("upper"), "name": StringValue("lower"), "NAME": StringValue("shout"), "Title": StringValue("t")}
	for i := 0; i < 20; i++ {
		if v, ok := d.Member("nAmE"); !ok || v.String() != "shout" {
			t.Fatalf("nAmE = %v, %v; want the lowest key in byte order", v, ok)
		}
	}
	if v, _ := d.Member("name"); v.String() != "lower" {
		t.Fatalf("exact match lost: %v", v)
	}
	if v, ok := d.Member("title"); !ok || v.String() != "t" {
		t.Fatalf("title = %v, %v", v, ok)
	}
	if _, ok := d.Member("other"); ok {
		t.Fatalf("unexpected match")
	}
}
