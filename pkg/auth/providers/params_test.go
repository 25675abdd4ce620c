package providers

import "testing"

func TestParamsSetKeepsPosition(t *testing.T) {
	var p Params
	p.Set("a", "1")
	p.Set("b", "2")
	p.Set("a", "3")

	if got := p.Encode(); got != "a=3&b=2" {
		t.Errorf("expected 'a=3&b=2', got %q", got)
	}
	if v, ok := p.Get("a"); !ok || v != "3" {
		t.Errorf("expected a=3, got %q (present=%v)", v, ok)
	}
	if _, ok := p.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}
}

func TestParamsEncodeEscapes(t *testing.T) {
	p := Params{{"redirect_uri", "https://example.com/cb?x=1&y=2"}, {"q", "a b"}}

	want := "redirect_uri=https%3A%2F%2Fexample.com%2Fcb%3Fx%3D1%26y%3D2&q=a+b"
	if got := p.Encode(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParamsCloneIsIndependent(t *testing.T) {
	p := Params{{"a", "1"}}
	c := p.Clone()
	c.Set("a", "2")

	if v, _ := p.Get("a"); v != "1" {
		t.Errorf("clone modified the original: %v", p)
	}
}

func TestParseParams(t *testing.T) {
	p := ParseParams("display=mobile, lang = zh ,broken,=novalue")

	want := Params{{"display", "mobile"}, {"lang", "zh"}}
	if len(p) != len(want) {
		t.Fatalf("expected %v, got %v", want, p)
	}
	for i := range want {
		if p[i] != want[i] {
			t.Errorf("param %d: expected %v, got %v", i, want[i], p[i])
		}
	}

	if got := ParseParams(""); len(got) != 0 {
		t.Errorf("expected no params, got %v", got)
	}
}
