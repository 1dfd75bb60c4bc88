package ocr

import (
	"strconv"
	"strings"
)

// tesseract TSV columns:
// level page_num block_num par_num line_num word_num left top width height conf text
const (
	tsvBlock = 2
	tsvPar   = 3
	tsvLine  = 4
	tsvConf  = 10
	tsvText  = 11
	tsvCols  = 12
)

// parseTSV groups words into lines and returns them with the mean word confidence of the page (0..100).
func parseTSV(out string) ([]Block, float32) {
	type lineAcc struct {
		words []string
		sum   float64
		n     int
	}
	var (
		order []string
		lines = map[string]*lineAcc{}
		sum   float64
		n     int
	)

	for i, ln := range strings.Split(out, "\n") {
		if i == 0 || len(ln) == 0 {
			continue
		} // skip header
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < tsvCols {
			continue
		}
		conf, err := strconv.ParseFloat(cols[tsvConf], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.TrimSpace(cols[tsvText])
		if word == "" {
			continue
		}
		key := cols[tsvBlock] + "." + cols[tsvPar] + "." + cols[tsvLine]
		acc, ok := lines[key]
		if !ok {
			acc = &lineAcc{}
			lines[key] = acc
			order = append(order, key)
		}
		acc.words = append(acc.words, word)
		acc.sum += conf
		acc.n++
		sum += conf
		n++
	}

	blocks := make([]Block, 0, len(order))
	for _, key := range order {
		acc := lines[key]
		blocks = append(blocks, Block{
			Text:       strings.Join(acc.words, " "),
			Confidence: float32(acc.sum / float64(acc.n)),
		})
	}
	if n == 0 {
		return blocks, 0
	}
	return blocks, float32(sum / float64(n))
}

func joinBlocks(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}
