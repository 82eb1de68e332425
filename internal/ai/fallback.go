package ai

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
)

// clauseCatalog maps concern keywords to ready-made clauses. Keys are the
// keyword vocabulary the original template picker used.
var clauseCatalog = map[string]model.Clause{
	"kdrt": {
		Title:          "Kekerasan Dalam Rumah Tangga",
		Description:    "Any act of domestic violence, verified by a police report or medical record, triggers the penalty.",
		PenaltyPercent: 80,
	},
	"keuangan": {
		Title:          "Transparansi Keuangan",
		Description:    "Hiding income, debt, or major spending above the agreed threshold from the partner triggers the penalty.",
		PenaltyPercent: 30,
	},
	"perselingkuhan": {
		Title:          "Kesetiaan",
		Description:    "A proven affair, attested by evidence both partners accepted at signing time, triggers the penalty.",
		PenaltyPercent: 60,
	},
	"judi": {
		Title:          "Larangan Judi",
		Description:    "Gambling away shared funds, online or offline, triggers the penalty.",
		PenaltyPercent: 50,
	},
	"komunikasi": {
		Title:          "Komunikasi",
		Description:    "Leaving the shared home for more than seven days without notice triggers the penalty.",
		PenaltyPercent: 10,
	},
	"narkoba": {
		Title:          "Bebas Narkoba",
		Description:    "Use of illegal substances, verified by a test both partners accept, triggers the penalty.",
		PenaltyPercent: 70,
	},
}

// defaultClauses pads a template up to the three-clause minimum, in fixed
// order so the fallback stays deterministic.
var defaultClauses = []model.Clause{
	{
		Title:          "Saling Menghormati",
		Description:    "Sustained degrading treatment of the partner, acknowledged through joint counseling, triggers the penalty.",
		PenaltyPercent: 20,
	},
	{
		Title:          "Tanggung Jawab Bersama",
		Description:    "Abandoning agreed household financial obligations for three consecutive months triggers the penalty.",
		PenaltyPercent: 25,
	},
	{
		Title:          "Keterbukaan",
		Description:    "Concealing material facts that would have changed the partner's consent to this agreement triggers the penalty.",
		PenaltyPercent: 15,
	},
}

// fallbackTemplate derives a clause set from the keyword string without any
// network call. Same keywords in, same template out.
func fallbackTemplate(keywords string) *Template {
	seen := map[string]bool{}
	var matched []string
	for _, raw := range strings.Split(keywords, ",") {
		kw := strings.ToLower(strings.TrimSpace(raw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		if _, ok := clauseCatalog[kw]; ok {
			matched = append(matched, kw)
		}
	}
	sort.Strings(matched)

	tpl := &Template{}
	for _, kw := range matched {
		tpl.Clauses = append(tpl.Clauses, clauseCatalog[kw])
		tpl.Categories = append(tpl.Categories, kw)
	}
	for i := 0; len(tpl.Clauses) < 3; i++ {
		tpl.Clauses = append(tpl.Clauses, defaultClauses[i])
	}
	if len(tpl.Categories) == 0 {
		tpl.Categories = []string{"umum"}
	}
	return tpl
}

func fallbackVowText(partnerA, partnerB string) string {
	return fmt.Sprintf(
		"I, %s, take you, %s, as my partner for life. I promise honesty in all things, "+
			"care in hardship, and respect in every disagreement. What we build, we build together.",
		partnerA, partnerB)
}

// fallbackSeal renders a deterministic placeholder seal. The palette index
// is derived from the couple's names so each certificate gets a stable look.
func fallbackSeal(partnerA, partnerB string) []byte {
	palette := []string{"#7c3aed", "#be185d", "#0f766e", "#b45309", "#1d4ed8"}
	h := fnv.New32a()
	h.Write([]byte(partnerA + "|" + partnerB))
	color := palette[h.Sum32()%uint32(len(palette))]

	initials := initialOf(partnerA) + "&amp;" + initialOf(partnerB)
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="240" height="240" viewBox="0 0 240 240">
  <circle cx="120" cy="120" r="110" fill="%s"/>
  <circle cx="120" cy="120" r="96" fill="none" stroke="#ffffff" stroke-width="3"/>
  <text x="120" y="132" font-family="serif" font-size="48" fill="#ffffff" text-anchor="middle">%s</text>
  <text x="120" y="176" font-family="serif" font-size="14" fill="#ffffff" text-anchor="middle">SmartVow</text>
</svg>`, color, initials)
	return []byte(svg)
}

func initialOf(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}
