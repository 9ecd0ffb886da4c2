package codegen

import (
	"errors"
	"strings"
	"testing"
)

func strPtrParams() TestParams {
	return TestParams{
		Name:        "Checkout flow",
		Description: "Buys one item",
		Tags:        []string{"@checkout", "@smoke"},
		Imports: []FixtureImport{
			{ExportIdentifier: "loginAsAdmin", Path: "./fixtures/login_as_admin"},
		},
		Steps: []StepParams{
			{Order: 0, ActionDescription: "Log in", FixtureExport: "loginAsAdmin"},
			{Order: 1, ActionDescription: "Open cart", CodeLine: "await page.click('#cart');", ExpectedResult: "cart visible"},
			{Order: 2, ActionDescription: "Skipped step", CodeLine: "await page.click('#x');", Disabled: true},
		},
	}
}

func TestRenderTestDeterministic(t *testing.T) {
	p := strPtrParams()
	a, err := Render(KindTest, p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := Render(KindTest, p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if a != b {
		t.Fatal("render is not deterministic for identical params")
	}
}

func TestRenderTestContent(t *testing.T) {
	out, err := Render(KindTest, strPtrParams())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"import { test, expect } from '@playwright/test';",
		"import { loginAsAdmin } from './fixtures/login_as_admin';",
		"test('Checkout flow', { tag: ['@checkout', '@smoke'] }, async ({ page }) => {",
		"await loginAsAdmin(page);",
		"// 1. Open cart",
		"await page.click('#cart');",
		"// expect: cart visible",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Skipped step") {
		t.Error("disabled step leaked into generated output")
	}
}

func TestRenderTestMissingCodeLine(t *testing.T) {
	p := TestParams{
		Name:  "Broken",
		Steps: []StepParams{{Order: 0, ActionDescription: "no line"}},
	}
	if _, err := Render(KindTest, p); err == nil {
		t.Fatal("expected RenderError for missing code line")
	} else {
		var re *RenderError
		if !errors.As(err, &re) {
			t.Fatalf("expected *RenderError, got %T", err)
		}
	}
}

func TestRenderManualTestAllowsMissingCodeLine(t *testing.T) {
	p := TestParams{
		Name:     "Manual check",
		IsManual: true,
		Steps:    []StepParams{{Order: 0, ActionDescription: "eyeball the page"}},
	}
	out, err := Render(KindTest, p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "// manual: eyeball the page") {
		t.Errorf("manual placeholder missing:\n%s", out)
	}
}

func TestRenderFixtureKinds(t *testing.T) {
	steps := []StepParams{{Order: 0, ActionDescription: "fill login", CodeLine: "await page.fill('#u', 'admin');"}}

	inline, err := Render(KindFixture, FixtureParams{Name: "Login", ExportIdentifier: "login", Kind: "inline", Steps: steps})
	if err != nil {
		t.Fatalf("Render inline: %v", err)
	}
	if !strings.Contains(inline, "export async function login(page)") {
		t.Errorf("inline fixture shape wrong:\n%s", inline)
	}

	extend, err := Render(KindFixture, FixtureParams{Name: "Login", ExportIdentifier: "login", Kind: "extend", Steps: steps})
	if err != nil {
		t.Fatalf("Render extend: %v", err)
	}
	if !strings.Contains(extend, "export const login = base.extend({") {
		t.Errorf("extend fixture shape wrong:\n%s", extend)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, err := Render("spreadsheet", TestParams{}); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestExportIdentifier(t *testing.T) {
	cases := map[string]string{
		"Login as Admin":  "loginAsAdmin",
		"login":           "login",
		"2FA setup":       "_2faSetup",
		"  weird--name  ": "weirdName",
		"":                "fixture",
	}
	for in, want := range cases {
		if got := ExportIdentifier(in); got != want {
			t.Errorf("ExportIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}
