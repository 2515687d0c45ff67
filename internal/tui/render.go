package tui

import (
	"fmt"
	"strings"

	"github.com/skncr-ai/scanner/internal/profile"
	"github.com/skncr-ai/scanner/internal/schema"
)

const severityScale = 10

// RenderFace renders skin metrics with a severity bar per concern
func RenderFace(r *schema.FaceAnalysis) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(Title.Render("Skin metrics"))
	b.WriteString("\n")

	if len(r.Metrics) == 0 {
		b.WriteString(Muted.Render("  nothing to report"))
		b.WriteString("\n")
	}
	for _, m := range r.Metrics {
		band := m.Band()
		style := BandStyle(band)
		fmt.Fprintf(&b, "  %-13s %s %s\n",
			m.Concern,
			style.Render(severityBar(m.Severity)),
			style.Render(fmt.Sprintf("%4.1f %s", m.Severity, band)))
		detail := m.Notes
		if m.Location != "" {
			detail = m.Location + ": " + detail
		}
		if detail != "" {
			b.WriteString(Muted.Render("      " + detail))
			b.WriteString("\n")
		}
	}

	if q := strings.TrimSpace(r.FollowUpQuestion); q != "" {
		b.WriteString("\n")
		b.WriteString(Bold.Render(q))
		b.WriteString("\n")
	}
	return b.String()
}

func severityBar(severity float64) string {
	n := int(severity + 0.5)
	if n < 0 {
		n = 0
	}
	if n > severityScale {
		n = severityScale
	}
	return strings.Repeat("■", n) + strings.Repeat("·", severityScale-n)
}

// RenderProduct renders a verdict and the ingredient breakdown, marking ingredients the
// profile avoids
func RenderProduct(r *schema.ProductAnalysis, p profile.Profile) string {
	if r == nil {
		return ""
	}
	var b strings.Builder

	name := r.ProductName
	if r.BrandName != "" {
		name = r.BrandName + " " + name
	}
	b.WriteString(Title.Render(name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s\n", VerdictStyle(r.Verdict).Render(string(r.Verdict)), Muted.Render(fmt.Sprintf("match %.0f%%", r.MatchScore)))
	if r.Summary != "" {
		b.WriteString(r.Summary)
		b.WriteString("\n")
	}

	if len(r.Ingredients) > 0 {
		b.WriteString("\n")
		b.WriteString(Bold.Render("Ingredients"))
		b.WriteString("\n")
	}
	for _, ing := range r.Ingredients {
		line := fmt.Sprintf("  %-11s %s", StatusStyle(ing.Status).Render(string(ing.Status)), ing.Name)
		if ing.Function != "" {
			line += Muted.Render(" (" + ing.Function + ")")
		}
		if p.Avoids(ing.Name) {
			line += " " + StatusStyle(schema.StatusAvoid).Render("on your avoid list")
		}
		b.WriteString(line)
		b.WriteString("\n")
		if ing.Reason != "" {
			b.WriteString(Muted.Render("      " + ing.Reason))
			b.WriteString("\n")
		}
	}

	if len(r.KeyBenefits) > 0 {
		b.WriteString("\n")
		b.WriteString(Bold.Render("Key benefits"))
		b.WriteString("\n")
		for _, benefit := range r.KeyBenefits {
			b.WriteString("  • " + benefit + "\n")
		}
	}
	return b.String()
}
