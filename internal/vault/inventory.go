package vault

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UniformPayload is a normalized inventory mutation: which stock row it
// addresses and how many units it carries.
type UniformPayload struct {
	Alteration string
	Type       string
	Size       string
	Waist      string
	Inseam     string
	Quantity   int64
	Branch     string
}

// NormalizeUniformType canonicalizes the garment type: "shirts" and
// "pants" in any casing collapse to "Shirt"/"Pants", anything else is
// kept as entered.
func NormalizeUniformType(value string) string {
	text := ClampString(value, 40, true)
	switch strings.ToLower(text) {
	case "shirts":
		return "Shirt"
	case "pants":
		return "Pants"
	default:
		return text
	}
}

// NormalizeUniformPayload clamps and canonicalizes a payload. Pants with
// no size get "waistxinseam"; shirt sizes are uppercased.
func NormalizeUniformPayload(p UniformPayload) UniformPayload {
	out := UniformPayload{
		Alteration: ClampString(p.Alteration, 80, true),
		Type:       NormalizeUniformType(p.Type),
		Size:       ClampString(p.Size, 40, true),
		Waist:      ClampString(p.Waist, 2, true),
		Inseam:     ClampString(p.Inseam, 2, true),
		Branch:     ClampString(p.Branch, 40, true),
	}
	if p.Quantity > 0 {
		out.Quantity = p.Quantity
	}
	if out.Type == "Pants" && out.Size == "" && out.Waist != "" && out.Inseam != "" {
		out.Size = out.Waist + "x" + out.Inseam
	}
	if out.Type == "Shirt" {
		out.Size = ClampString(strings.ToUpper(out.Size), 40, true)
	}
	return out
}

func uniformKey(branch, kind, size, alteration string) string {
	return strings.ToLower(branch) + "|" + strings.ToLower(kind) + "|" +
		strings.ToLower(size) + "|" + strings.ToLower(alteration)
}

func (u *UniformItem) key() string {
	return uniformKey(u.Branch, u.Type, u.Size, u.Alteration)
}

func (p *UniformPayload) key() string {
	return uniformKey(p.Branch, p.Type, p.Size, p.Alteration)
}

func (a *StockAdjustment) key() string {
	return uniformKey(a.Branch, a.Type, a.Size, a.Alteration)
}

// UpsertUniformStock adds the payload quantity to the matching stock row,
// or appends a new row. Returns the resulting row.
func UpsertUniformStock(doc *Document, p UniformPayload) UniformItem {
	key := p.key()
	for i := range doc.Uniforms {
		if doc.Uniforms[i].key() != key {
			continue
		}
		next := doc.Uniforms[i].Quantity + p.Quantity
		if next < 0 {
			next = 0
		}
		doc.Uniforms[i].Quantity = next
		return doc.Uniforms[i]
	}
	row := UniformItem{
		ID:         NewID(),
		Alteration: p.Alteration,
		Type:       p.Type,
		Size:       p.Size,
		Waist:      p.Waist,
		Inseam:     p.Inseam,
		Quantity:   p.Quantity,
		Branch:     p.Branch,
	}
	doc.Uniforms = append(doc.Uniforms, row)
	return row
}

// DecrementUniformStock deducts up to the requested quantity from the
// matching stock row and returns how much was actually deducted. Rows
// reaching zero are removed.
func DecrementUniformStock(doc *Document, p UniformPayload) int64 {
	key := p.key()
	for i := range doc.Uniforms {
		if doc.Uniforms[i].key() != key {
			continue
		}
		available := doc.Uniforms[i].Quantity
		if available < 0 {
			available = 0
		}
		if available <= 0 {
			return 0
		}
		requested := p.Quantity
		if requested < 0 {
			requested = 0
		}
		deducted := min(available, requested)
		doc.Uniforms[i].Quantity = available - deducted
		if doc.Uniforms[i].Quantity <= 0 {
			doc.Uniforms = append(doc.Uniforms[:i], doc.Uniforms[i+1:]...)
		}
		return deducted
	}
	return 0
}

// ParseIssuedUniformQuantity parses the "given" count from a candidate
// row. Only 1 through 4 are accepted; everything else means zero.
func ParseIssuedUniformQuantity(value string) int64 {
	num, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || num < 1 || num > 4 {
		return 0
	}
	return num
}

// ParseAlterationList splits an alteration field into distinct entries.
// A JSON array is honored; otherwise the value splits on commas. Entries
// dedupe case-insensitively while keeping the first spelling seen.
func ParseAlterationList(value string) []string {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}

	var out []string
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		var parsed []json.RawMessage
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			for _, item := range parsed {
				var s string
				if json.Unmarshal(item, &s) != nil {
					continue
				}
				if normalized := ClampString(s, 80, true); normalized != "" {
					out = append(out, normalized)
				}
			}
		}
	} else {
		for _, part := range strings.Split(text, ",") {
			if normalized := ClampString(part, 80, true); normalized != "" {
				out = append(out, normalized)
			}
		}
	}

	seen := make(map[string]struct{}, len(out))
	deduped := out[:0]
	for _, item := range out {
		lower := strings.ToLower(item)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		deduped = append(deduped, item)
	}
	return deduped
}

func appendUniformAdjustment(adjustments *[]StockAdjustment, p UniformPayload, quantity int64) {
	if quantity <= 0 {
		return
	}
	key := p.key()
	for i := range *adjustments {
		if (*adjustments)[i].key() == key {
			(*adjustments)[i].Quantity += quantity
			return
		}
	}
	*adjustments = append(*adjustments, StockAdjustment{
		Alteration: p.Alteration,
		Type:       p.Type,
		Size:       p.Size,
		Quantity:   quantity,
		Branch:     p.Branch,
	})
}

// DeductUniformsAcrossAlterations takes quantity units of a garment out of
// stock, spreading the deduction across the alteration variants round
// robin one unit at a time. With a single variant the whole quantity is
// taken in one pass. A run of consecutive misses across every variant
// stops the loop, so partial fulfillment is possible. Returns the
// adjustments actually made.
func DeductUniformsAcrossAlterations(doc *Document, kind, size string, quantity int64, branch string, alterations []string) []StockAdjustment {
	var adjustments []StockAdjustment
	normalizedKind := NormalizeUniformType(kind)
	normalizedSize := ClampString(size, 40, true)
	normalizedBranch := ClampString(branch, 40, true)
	normalizedQuantity := ParseIssuedUniformQuantity(strconv.FormatInt(quantity, 10))
	if normalizedKind == "" || normalizedSize == "" || normalizedBranch == "" || normalizedQuantity <= 0 {
		return adjustments
	}

	var targets []string
	for _, value := range alterations {
		if normalized := ClampString(value, 80, true); normalized != "" {
			targets = append(targets, normalized)
		}
	}
	if len(targets) == 0 {
		targets = append(targets, "")
	}

	if len(targets) == 1 {
		payload := UniformPayload{
			Alteration: targets[0],
			Type:       normalizedKind,
			Size:       normalizedSize,
			Quantity:   normalizedQuantity,
			Branch:     normalizedBranch,
		}
		deducted := DecrementUniformStock(doc, payload)
		appendUniformAdjustment(&adjustments, payload, deducted)
		return adjustments
	}

	remaining := normalizedQuantity
	misses := 0
	idx := 0
	for remaining > 0 && misses < len(targets) {
		payload := UniformPayload{
			Alteration: targets[idx%len(targets)],
			Type:       normalizedKind,
			Size:       normalizedSize,
			Quantity:   1,
			Branch:     normalizedBranch,
		}
		deducted := DecrementUniformStock(doc, payload)
		if deducted > 0 {
			remaining -= deducted
			misses = 0
			appendUniformAdjustment(&adjustments, payload, deducted)
		} else {
			misses++
		}
		idx++
	}
	return adjustments
}
