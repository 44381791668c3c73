package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// terminalWidth returns the width of the attached terminal, with a fallback
// for pipes and redirects.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// cellStyle restyles one padded cell. The padding is applied before styling
// so escape sequences never shift column alignment.
type cellStyle func(row, col int, padded string) string

// writeTable renders rows in aligned columns. rightAlign marks columns that
// pad on the left, the usual choice for amounts. Widths are measured with
// runewidth so multibyte names line up.
func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign []bool, style cellStyle) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}

	pad := func(col int, cell string) string {
		if col < len(rightAlign) && rightAlign[col] {
			return runewidth.FillLeft(cell, widths[col])
		}
		return runewidth.FillRight(cell, widths[col])
	}

	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = pad(i, h)
	}
	fmt.Fprintln(w, strings.Join(headerCells, "  "))

	separator := make([]string, len(headers))
	for i := range headers {
		separator[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(w, strings.Join(separator, "  "))

	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			padded := pad(i, cell)
			if style != nil {
				padded = style(r, i, padded)
			}
			cells[i] = padded
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}
