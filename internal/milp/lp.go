// Package milp defines a backend-neutral mixed-integer linear program
// representation and its LP text serialization.
package milp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

// maxLPLineWidth keeps emitted rows inside the historical CPLEX line limit.
const maxLPLineWidth = 72

// WriteLP serializes the program in CPLEX LP text format. The output feeds
// the external cplex backend and doubles as the human-readable model dump.
func (p *Program) WriteLP(w io.Writer) error {
	if err := p.Check(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\ Problem: %s\n", p.Name)
	fmt.Fprintln(bw, "Maximize")
	writeRow(bw, " obj:", p.expr(p.Objective))

	fmt.Fprintln(bw, "Subject To")
	for _, c := range p.Constraints {
		chunks := p.expr(c.Terms)
		chunks = append(chunks, c.Sense.String(), formatNumber(c.RHS))
		writeRow(bw, " "+c.Name+":", chunks)
	}

	fmt.Fprintln(bw, "Bounds")
	for _, v := range p.Vars {
		if v.Kind == Binary {
			continue
		}
		switch {
		case math.IsInf(v.Upper, 1):
			fmt.Fprintf(bw, " %s >= %s\n", v.Name, formatNumber(v.Lower))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", formatNumber(v.Lower), v.Name, formatNumber(v.Upper))
		}
	}

	generals := p.varsOfKind(Integer)
	if len(generals) > 0 {
		fmt.Fprintln(bw, "Generals")
		for _, name := range generals {
			fmt.Fprintf(bw, " %s\n", name)
		}
	}

	binaries := p.varsOfKind(Binary)
	if len(binaries) > 0 {
		fmt.Fprintln(bw, "Binaries")
		for _, name := range binaries {
			fmt.Fprintf(bw, " %s\n", name)
		}
	}

	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

// expr renders terms as chunks like ["2 x1", "+ 3.5 x2", "- x3"]. A term
// list with no non-zero coefficients renders as "0 <firstVar>" so the row
// stays syntactically valid.
func (p *Program) expr(terms []Term) []string {
	var chunks []string
	for _, t := range terms {
		if t.Coeff == 0 {
			continue
		}
		coeff := t.Coeff
		sign := "+"
		if coeff < 0 {
			sign = "-"
			coeff = -coeff
		}

		var body string
		if coeff == 1 {
			body = p.Vars[t.Var].Name
		} else {
			body = formatNumber(coeff) + " " + p.Vars[t.Var].Name
		}

		if len(chunks) == 0 {
			if sign == "-" {
				body = "- " + body
			}
			chunks = append(chunks, body)
		} else {
			chunks = append(chunks, sign+" "+body)
		}
	}
	if len(chunks) == 0 {
		chunks = append(chunks, "0 "+p.Vars[0].Name)
	}
	return chunks
}

// writeRow emits "prefix chunk chunk ...", wrapping long rows with a
// continuation indent.
func writeRow(bw *bufio.Writer, prefix string, chunks []string) {
	bw.WriteString(prefix)
	width := len(prefix)
	for _, chunk := range chunks {
		if width+1+len(chunk) > maxLPLineWidth && width > len(prefix) {
			bw.WriteString("\n      ")
			width = 6
		} else {
			bw.WriteString(" ")
			width++
		}
		bw.WriteString(chunk)
		width += len(chunk)
	}
	bw.WriteString("\n")
}

func (p *Program) varsOfKind(kind VarKind) []string {
	var names []string
	for _, v := range p.Vars {
		if v.Kind == kind {
			names = append(names, v.Name)
		}
	}
	return names
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
