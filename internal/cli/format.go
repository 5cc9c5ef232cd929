package cli

import (
	"strconv"
	"strings"
)

const rupee = "₹"

// FormatINR renders a price the way Indian storefronts do: the last three
// integer digits grouped together, then pairs ("₹12,34,567"), with up to
// three fraction digits and no trailing zeros.
func FormatINR(p float64) string {
	s := strconv.FormatFloat(p, 'f', 3, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	out := sign + rupee + groupIndian(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var b strings.Builder
	lead := len(head) % 2
	if lead == 1 {
		b.WriteString(head[:1])
	}
	for i := lead; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
