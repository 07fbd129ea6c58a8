package starlark

import (
	"testing"

	"github.com/neurodesk/curly/pkg/curly"
	"go.starlark.net/starlark"
)

func TestConvertToStarlark(t *testing.T) {
	tests := []struct {
		name     string
		input    curly.Value
		expected starlark.Value
	}{
		{
			name:     "string value",
			input:    curly.StringValue("hello"),
			expected: starlark.String("hello"),
		},
		{
			name:     "whole number",
			input:    curly.NumberValue(42),
			expected: starlark.MakeInt64(42),
		},
		{
			name:     "fraction",
			input:    curly.NumberValue(3.14),
			expected: starlark.Float(3.14),
		},
		{
			name:     "bool value true",
			input:    curly.BoolValue(true),
			expected: starlark.Bool(true),
		},
		{
			name:     "bool value false",
			input:    curly.BoolValue(false),
			expected: starlark.Bool(false),
		},
		{
			name:     "null value",
			input:    curly.Null,
			expected: starlark.None,
		},
		{
			name:     "nil value",
			input:    nil,
			expected: starlark.None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertToStarlark(tt.input)
			if result.String() != tt.expected.String() {
				t.Errorf("ConvertToStarlark() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestConvertFromStarlark(t *testing.T) {
	tests := []struct {
		name     string
		input    starlark.Value
		expected string
	}{
		{"string value", starlark.String("hello"), "hello"},
		{"int value", starlark.MakeInt64(42), "42"},
		{"float value", starlark.Float(3.14), "3.14"},
		{"bool value true", starlark.Bool(true), "true"},
		{"bool value false", starlark.Bool(false), "false"},
		{"none value", starlark.None, ""},
		{"tuple", starlark.Tuple{starlark.MakeInt(1), starlark.String("a")}, "1 a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertFromStarlark(tt.input)
			if result.String() != tt.expected {
				t.Errorf("ConvertFromStarlark() = %v, want %v", result.String(), tt.expected)
			}
		})
	}
}

func TestListConversion(t *testing.T) {
	list := curly.ListValue{curly.StringValue("a"), curly.NumberValue(1), curly.BoolValue(true)}

	sl, ok := ConvertToStarlark(list).(*starlark.List)
	if !ok {
		t.Fatalf("Expected starlark.List")
	}
	if sl.Len() != 3 {
		t.Errorf("Expected list length 3, got %d", sl.Len())
	}

	back, ok := ConvertFromStarlark(sl).(curly.ListValue)
	if !ok {
		t.Fatalf("Expected curly.ListValue, got %T", ConvertFromStarlark(sl))
	}
	if len(back) != 3 || back[0].String() != "a" || back[1].String() != "1" {
		t.Errorf("unexpected round trip: %v", back)
	}
}

func TestDictConversionKeepsOrder(t *testing.T) {
	dict := starlark.NewDict(3)
	_ = dict.SetKey(starlark.String("zeta"), starlark.MakeInt(1))
	_ = dict.SetKey(starlark.String("alpha"), starlark.MakeInt(2))
	_ = dict.SetKey(starlark.String("mid"), starlark.String("x"))

	rec, ok := ConvertFromStarlark(dict).(*curly.RecordValue)
	if !ok {
		t.Fatalf("Expected *curly.RecordValue")
	}
	var names []string
	for _, f := range rec.Fields {
		names = append(names, f.Name)
	}
	if len(names) != 3 || names[0] != "zeta" || names[1] != "alpha" || names[2] != "mid" {
		t.Fatalf("order lost: %v", names)
	}

	sd, ok := ConvertToStarlark(rec).(*starlark.Dict)
	if !ok || sd.Len() != 3 {
		t.Fatalf("Expected a dict of 3, got %v", ConvertToStarlark(rec))
	}
}

func TestEvaluatorBasic(t *testing.T) {
	eval := NewEvaluator()
	result, err := eval.Eval("2 + 3")
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if result.String() != "5" {
		t.Errorf("Expected '5', got %v", result.String())
	}
}

func TestEvaluatorWithGlobals(t *testing.T) {
	eval := NewEvaluator()
	eval.SetGlobal("test_var", curly.StringValue("hello"))

	result, err := eval.Eval("test_var + ' world'")
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if result.String() != "hello world" {
		t.Errorf("Expected 'hello world', got %v", result.String())
	}
}

func TestEvaluatorExport(t *testing.T) {
	eval := NewEvaluator()
	eval.Load(curly.DictValue{"site": curly.StringValue("docs"), "debug": curly.BoolValue(true)})

	script := `
def title(page):
    return site + "/" + page

_hidden = 1
pages = [title(p) for p in ["a", "b"]]
count = len(pages)
`
	if _, err := eval.ExecString(script); err != nil {
		t.Fatalf("ExecString error: %v", err)
	}

	out := eval.Export()
	var names []string
	for _, f := range out.Fields {
		names = append(names, f.Name)
	}
	want := []string{"count", "debug", "pages", "site"}
	if len(names) != len(want) {
		t.Fatalf("exported %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("exported %v, want %v", names, want)
		}
	}
	pages, _ := out.Member("pages")
	if pages.String() != "docs/a docs/b" {
		t.Errorf("pages = %q", pages.String())
	}
}

func TestSetVariable(t *testing.T) {
	rc := &RecordContext{}
	eval := NewEvaluatorWithContext(rc)
	if _, err := eval.ExecString(`set_variable("greeting", {"text": "hi"})`); err != nil {
		t.Fatalf("ExecString error: %v", err)
	}
	v, ok := rc.Record.Member("greeting")
	if !ok {
		t.Fatalf("greeting not published")
	}
	text, ok := v.(curly.Container).Member("text")
	if !ok || text.String() != "hi" {
		t.Fatalf("greeting.text = %v", text)
	}

	if _, err := NewEvaluator().ExecString(`set_variable("a", 1)`); err == nil {
		t.Fatalf("expected error without a context")
	}
}

func TestEnvBuiltin(t *testing.T) {
	t.Setenv("CURLY_TEST_ENV", "set")
	eval := NewEvaluator()
	result, err := eval.Eval(`env("CURLY_TEST_ENV") + "/" + env("CURLY_TEST_MISSING", "fallback")`)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if result.String() != "set/fallback" {
		t.Errorf("got %q", result.String())
	}
}

func TestStructAttributes(t *testing.T) {
	eval := NewEvaluator()
	if _, err := eval.ExecString(`s = "abc"`); err != nil {
		t.Fatal(err)
	}
	sv, _ := eval.globals["s"].(starlark.String)
	w := Value{Value: sv}
	if w.String() != "abc" || !w.Truth() {
		t.Fatalf("wrapper: %q %v", w.String(), w.Truth())
	}
	if _, ok := w.Get("upper"); !ok {
		t.Fatalf("expected string method attribute")
	}
	if _, ok := w.Get("nope"); ok {
		t.Fatalf("unexpected attribute")
	}
}
