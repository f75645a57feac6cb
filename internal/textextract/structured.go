package textextract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Block is one styled text block from a page's HTML rendering, with the font
// size the renderer assigned to it.
type Block struct {
	Page     int     `json:"page"`
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
}

var fontSizeRe = regexp.MustCompile(`font-size\s*:\s*([0-9.]+)`)

// ExtractBlocks parses a page's HTML rendering into styled blocks. It is the
// structured companion to ExtractLines: the font sizes let callers tell
// headings from body text.
func ExtractBlocks(pageHTML string, page int) ([]Block, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	var blocks []Block
	doc.Find("p, span, div").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		blocks = append(blocks, Block{
			Page:     page,
			Text:     text,
			FontSize: fontSize(sel),
		})
	})
	return blocks, nil
}

// Headings returns the blocks whose font size is above the page's dominant
// size.
func Headings(blocks []Block) []Block {
	body := dominantFontSize(blocks)
	if body == 0 {
		return nil
	}
	var headings []Block
	for _, b := range blocks {
		if b.FontSize > body {
			headings = append(headings, b)
		}
	}
	return headings
}

func fontSize(sel *goquery.Selection) float64 {
	for s := sel; s.Length() > 0; s = s.Parent() {
		style, ok := s.Attr("style")
		if !ok {
			continue
		}
		if m := fontSizeRe.FindStringSubmatch(style); m != nil {
			if size, err := strconv.ParseFloat(m[1], 64); err == nil {
				return size
			}
		}
	}
	return 0
}

// dominantFontSize is the most frequent font size weighted by text length.
func dominantFontSize(blocks []Block) float64 {
	weights := map[float64]int{}
	for _, b := range blocks {
		weights[b.FontSize] += len(b.Text)
	}
	var best float64
	var bestWeight int
	for size, weight := range weights {
		if weight > bestWeight {
			best, bestWeight = size, weight
		}
	}
	return best
}
