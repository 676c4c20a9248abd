package orchestrator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cartpilot/server/internal/agent/model"
)

// QuantityExtractor pulls an explicit quantity out of a free-text
// instruction. Implementations must be deterministic; the default is a
// regex over weight expressions, but callers can swap in richer strategies.
type QuantityExtractor interface {
	Extract(input string) (quantity float64, unit model.Unit, ok bool)
}

// regexExtractor matches expressions like "2kg", "1.5 kg" or "500g" and
// normalises grams to kilograms.
type regexExtractor struct{}

// NewQuantityExtractor returns the default regex-based extractor.
func NewQuantityExtractor() QuantityExtractor { return regexExtractor{} }

var quantityRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(kg|g)\b`)

func (regexExtractor) Extract(input string) (float64, model.Unit, bool) {
	m := quantityRe.FindStringSubmatch(strings.ToLower(input))
	if m == nil {
		return 0, "", false
	}
	qty, err := strconv.ParseFloat(m[1], 64)
	if err != nil || qty <= 0 {
		return 0, "", false
	}
	if m[2] == "g" {
		return qty / 1000, model.UnitKilogram, true
	}
	return qty, model.UnitKilogram, true
}

// identifyCartRefs returns the product keys the instruction refers to,
// restricted to keys present in the cart, in cart order. A key matches when
// its normalised name appears as a whole phrase, or when all but at most one
// of its words appear somewhere in the instruction. Single-word keys need
// their one word present.
func identifyCartRefs(input string, keys []string) []string {
	lowered := strings.ToLower(input)

	var refs []string
	for _, key := range keys {
		phrase := strings.ToLower(strings.ReplaceAll(key, "_", " "))
		if strings.Contains(lowered, phrase) {
			refs = append(refs, key)
			continue
		}
		words := strings.Fields(phrase)
		matched := 0
		for _, w := range words {
			if strings.Contains(lowered, w) {
				matched++
			}
		}
		if len(words) == 1 {
			if matched >= 1 {
				refs = append(refs, key)
			}
			continue
		}
		if matched >= len(words)-1 && matched > 0 {
			refs = append(refs, key)
		}
	}
	return refs
}
