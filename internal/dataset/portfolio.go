package dataset

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

const portfolioTickerColumn = "Stock Ticker"

// ReadPortfolio loads the user's holdings from an XLSX workbook. The first
// sheet must carry a "Stock Ticker" header column; blanks and duplicates are
// dropped.
func ReadPortfolio(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open portfolio %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("dataset: portfolio %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("dataset: portfolio %s is empty", path)
	}

	col := -1
	for i, cell := range sheet.Rows[0].Cells {
		if strings.EqualFold(strings.TrimSpace(cell.String()), portfolioTickerColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, eris.Errorf("dataset: portfolio %s missing %q column", path, portfolioTickerColumn)
	}

	seen := make(map[string]bool)
	var tickers []string
	for _, row := range sheet.Rows[1:] {
		if col >= len(row.Cells) {
			continue
		}
		s := strings.TrimSpace(row.Cells[col].String())
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tickers = append(tickers, s)
	}

	if len(tickers) == 0 {
		return nil, eris.Errorf("dataset: portfolio %s contains no tickers", path)
	}
	return tickers, nil
}
