package codegen

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	types "github.com/caseforge/caseforge-backend/internal/domain"
)

// FileStem sanitizes a parent name into the file-name stem generated sources
// are written under: "Login as Admin" -> "login_as_admin".
func FileStem(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	stem := strings.Trim(b.String(), "_")
	if stem == "" {
		return "unnamed"
	}
	return stem
}

// FixtureImportPath is the path a generated test imports a fixture by,
// relative to the test file.
func FixtureImportPath(fixtureName string) string {
	return "./fixtures/" + FileStem(fixtureName)
}

// TestParamsFrom maps a test case and its live steps onto render params.
// Delegated fixtures are passed in keyed by ID; steps whose fixture is
// missing from the map fall back to their raw code line.
func TestParamsFrom(tc *types.TestCase, steps []*types.Step, fixtures map[uuid.UUID]*types.Fixture) TestParams {
	p := TestParams{
		Name:        tc.Name,
		Description: tc.Description,
		Tags:        decodeTags(tc.Tags),
		IsManual:    tc.IsManual,
	}

	imported := map[uuid.UUID]bool{}
	for _, st := range steps {
		sp := StepParams{
			Order:             st.Order,
			ActionDescription: st.ActionDescription,
			Disabled:          st.Disabled,
		}
		if st.InputData != nil {
			sp.InputData = *st.InputData
		}
		if st.ExpectedResult != nil {
			sp.ExpectedResult = *st.ExpectedResult
		}
		if st.GeneratedCodeLine != nil {
			sp.CodeLine = *st.GeneratedCodeLine
		}
		if st.FixtureID != nil {
			if fx, ok := fixtures[*st.FixtureID]; ok {
				sp.FixtureExport = fx.ExportIdentifier
				if !st.Disabled && !imported[fx.ID] {
					imported[fx.ID] = true
					p.Imports = append(p.Imports, FixtureImport{
						ExportIdentifier: fx.ExportIdentifier,
						Path:             FixtureImportPath(fx.Name),
					})
				}
			}
		}
		p.Steps = append(p.Steps, sp)
	}
	return p
}

func FixtureParamsFrom(fx *types.Fixture, steps []*types.Step) FixtureParams {
	p := FixtureParams{
		Name:             fx.Name,
		ExportIdentifier: fx.ExportIdentifier,
		Kind:             fx.Kind,
	}
	for _, st := range steps {
		sp := StepParams{
			Order:             st.Order,
			ActionDescription: st.ActionDescription,
			Disabled:          st.Disabled,
		}
		if st.InputData != nil {
			sp.InputData = *st.InputData
		}
		if st.GeneratedCodeLine != nil {
			sp.CodeLine = *st.GeneratedCodeLine
		}
		p.Steps = append(p.Steps, sp)
	}
	return p
}

func decodeTags(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}
