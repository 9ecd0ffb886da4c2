// Package codegen turns structured step data into runnable Playwright-style
// TypeScript. Rendering is pure: no I/O, no clock, no randomness, so the same
// params always produce byte-identical output and regeneration is safe to
// diff and retry.
package codegen

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

const (
	KindTest    = "test"
	KindFixture = "fixture"
)

var ErrTemplateNotFound = errors.New("unknown template kind")

// RenderError reports malformed params, e.g. a non-manual test step with
// neither a generated code line nor a fixture delegation.
type RenderError struct {
	Reason string
}

func (e *RenderError) Error() string { return "render: " + e.Reason }

type FixtureImport struct {
	ExportIdentifier string
	Path             string
}

type StepParams struct {
	Order             int
	ActionDescription string
	InputData         string
	ExpectedResult    string
	CodeLine          string
	Disabled          bool
	// FixtureExport, when set, makes the step a call into the named fixture
	// instead of a raw code line.
	FixtureExport string
}

type TestParams struct {
	Name        string
	Description string
	Tags        []string
	IsManual    bool
	Imports     []FixtureImport
	Steps       []StepParams
}

type FixtureParams struct {
	Name             string
	ExportIdentifier string
	Kind             string // extend|inline
	Steps            []StepParams
}

// Render generates source text for the given template kind. Params must be
// TestParams for KindTest and FixtureParams for KindFixture.
func Render(kind string, params any) (string, error) {
	switch kind {
	case KindTest:
		p, ok := params.(TestParams)
		if !ok {
			return "", &RenderError{Reason: fmt.Sprintf("test template expects TestParams, got %T", params)}
		}
		return renderTest(p)
	case KindFixture:
		p, ok := params.(FixtureParams)
		if !ok {
			return "", &RenderError{Reason: fmt.Sprintf("fixture template expects FixtureParams, got %T", params)}
		}
		return renderFixture(p)
	}
	return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, kind)
}

var testTmpl = template.Must(template.New("test").Parse(`// Generated file. Edit steps in the editor and rematerialize; do not edit by hand.
import { test, expect } from '@playwright/test';
{{- range .Imports}}
import { {{.ExportIdentifier}} } from '{{.Path}}';
{{- end}}

{{if .Description}}// {{.Description}}
{{end -}}
test('{{.Name}}'{{if .Tags}}, { tag: [{{range $i, $t := .Tags}}{{if $i}}, {{end}}'{{$t}}'{{end}}] }{{end}}, async ({ page }) => {
{{- range .Steps}}
  // {{.Order}}. {{.ActionDescription}}{{if .InputData}} [input: {{.InputData}}]{{end}}
  {{.CodeLine}}
{{- if .ExpectedResult}}
  // expect: {{.ExpectedResult}}
{{- end}}
{{- end}}
});
`))

var fixtureExtendTmpl = template.Must(template.New("fixtureExtend").Parse(`// Generated file. Edit steps in the editor and rematerialize; do not edit by hand.
import { test as base } from '@playwright/test';

// {{.Name}}
export const {{.ExportIdentifier}} = base.extend({
  {{.ExportIdentifier}}: async ({ page }, use) => {
{{- range .Steps}}
    // {{.Order}}. {{.ActionDescription}}
    {{.CodeLine}}
{{- end}}
    await use(page);
  },
});
`))

var fixtureInlineTmpl = template.Must(template.New("fixtureInline").Parse(`// Generated file. Edit steps in the editor and rematerialize; do not edit by hand.

// {{.Name}}
export async function {{.ExportIdentifier}}(page) {
{{- range .Steps}}
  // {{.Order}}. {{.ActionDescription}}{{if .InputData}} [input: {{.InputData}}]{{end}}
  {{.CodeLine}}
{{- end}}
}
`))

func renderTest(p TestParams) (string, error) {
	if strings.TrimSpace(p.Name) == "" {
		return "", &RenderError{Reason: "test name is required"}
	}

	steps := make([]StepParams, 0, len(p.Steps))
	for _, s := range p.Steps {
		if s.Disabled {
			continue
		}
		switch {
		case s.FixtureExport != "":
			s.CodeLine = fmt.Sprintf("await %s(page);", s.FixtureExport)
		case strings.TrimSpace(s.CodeLine) == "":
			if p.IsManual {
				s.CodeLine = fmt.Sprintf("// manual: %s", s.ActionDescription)
			} else {
				return "", &RenderError{Reason: fmt.Sprintf("step %d has no generated code line", s.Order)}
			}
		}
		steps = append(steps, s)
	}

	imports := append([]FixtureImport(nil), p.Imports...)
	sort.Slice(imports, func(i, j int) bool { return imports[i].Path < imports[j].Path })
	tags := append([]string(nil), p.Tags...)
	sort.Strings(tags)

	var b strings.Builder
	err := testTmpl.Execute(&b, TestParams{
		Name:        p.Name,
		Description: p.Description,
		Tags:        tags,
		IsManual:    p.IsManual,
		Imports:     imports,
		Steps:       steps,
	})
	if err != nil {
		return "", &RenderError{Reason: err.Error()}
	}
	return b.String(), nil
}

func renderFixture(p FixtureParams) (string, error) {
	if strings.TrimSpace(p.ExportIdentifier) == "" {
		return "", &RenderError{Reason: "fixture export identifier is required"}
	}

	steps := make([]StepParams, 0, len(p.Steps))
	for _, s := range p.Steps {
		if s.Disabled {
			continue
		}
		if strings.TrimSpace(s.CodeLine) == "" {
			return "", &RenderError{Reason: fmt.Sprintf("fixture step %d has no generated code line", s.Order)}
		}
		steps = append(steps, s)
	}

	tmpl := fixtureInlineTmpl
	if p.Kind == "extend" {
		tmpl = fixtureExtendTmpl
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, FixtureParams{
		Name:             p.Name,
		ExportIdentifier: p.ExportIdentifier,
		Kind:             p.Kind,
		Steps:            steps,
	}); err != nil {
		return "", &RenderError{Reason: err.Error()}
	}
	return b.String(), nil
}
