package textextract

import (
	"strings"
	"testing"
)

func TestShouldExtract(t *testing.T) {
	for page, want := range map[int]bool{1: true, 2: false, 3: true, 4: false, 5: true} {
		if got := ShouldExtract(page); got != want {
			t.Errorf("ShouldExtract(%d) = %v, want %v", page, got, want)
		}
	}
}

func TestExtractLines(t *testing.T) {
	text := "First line\n\n  Second line with words  \n\t\nThird"
	records := ExtractLines(text, 3)

	if len(records) != 3 {
		t.Fatalf("got %d lines, want 3", len(records))
	}
	if records[0].Line != "First line" || records[0].LineNumber != 1 {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Line != "Second line with words" {
		t.Errorf("second line = %q, whitespace not trimmed", records[1].Line)
	}
	if records[1].WordCount != 4 {
		t.Errorf("word count = %d, want 4", records[1].WordCount)
	}
	if records[2].LineNumber != 3 {
		t.Errorf("blank lines shifted numbering: %d", records[2].LineNumber)
	}
	for _, rec := range records {
		if rec.Page != 3 {
			t.Errorf("page = %d, want 3", rec.Page)
		}
	}
}

func TestExtractLinesEmptyPage(t *testing.T) {
	if records := ExtractLines("\n  \n\t\n", 1); len(records) != 0 {
		t.Errorf("got %d records from a blank page", len(records))
	}
}

func TestExtractLinesCharCountIsRunes(t *testing.T) {
	records := ExtractLines("café", 1)
	if len(records) != 1 {
		t.Fatal("expected one line")
	}
	if records[0].CharCount != 4 {
		t.Errorf("char count = %d, want 4", records[0].CharCount)
	}
}

func TestComputeStats(t *testing.T) {
	records := append(ExtractLines("short\na much longer line here", 1),
		ExtractLines("mid size", 3)...)

	stats := ComputeStats(records)
	if stats == nil {
		t.Fatal("nil stats")
	}
	if stats.TotalLines != 3 {
		t.Errorf("total lines = %d", stats.TotalLines)
	}
	if stats.TotalPages != 2 {
		t.Errorf("total pages = %d", stats.TotalPages)
	}
	if stats.LongestLine != "a much longer line here" {
		t.Errorf("longest = %q", stats.LongestLine)
	}
	if stats.ShortestLine != "short" {
		t.Errorf("shortest = %q", stats.ShortestLine)
	}
	if got, want := stats.PagesProcessed, []int{1, 3}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("pages processed = %v", got)
	}

	if ComputeStats(nil) != nil {
		t.Error("stats for no records should be nil")
	}
}

func TestComputeStatsTruncatesLongestLine(t *testing.T) {
	long := strings.Repeat("x", 150)
	stats := ComputeStats(ExtractLines("short\n"+long, 1))
	if stats == nil {
		t.Fatal("nil stats")
	}
	want := strings.Repeat("x", 100) + "..."
	if stats.LongestLine != want {
		t.Errorf("longest = %d runes %q..., want 100 runes plus ellipsis", len([]rune(stats.LongestLine)), stats.LongestLine[:10])
	}

	exact := strings.Repeat("y", 100)
	stats = ComputeStats(ExtractLines(exact, 1))
	if stats.LongestLine != exact {
		t.Errorf("a 100-rune line should not be truncated, got %q", stats.LongestLine)
	}
}

func TestSearch(t *testing.T) {
	records := ExtractLines("Campaign details\nThe CAMPAIGN campaign runs in June", 1)

	matches := Search(records, "campaign")
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	first := matches[0]
	if first.Page != 1 || first.LineNumber != 1 || first.Term != "campaign" || first.Index != 0 {
		t.Errorf("first match = %+v", first)
	}
	second := matches[1]
	if second.LineNumber != 2 || second.Index != 4 {
		t.Errorf("second match = %+v, want line 2 index 4", second)
	}

	if Search(records, "") != nil {
		t.Error("empty term should match nothing")
	}
}

func TestCountOccurrences(t *testing.T) {
	records := ExtractLines("Campaign details\nThe CAMPAIGN campaign runs in June", 1)
	if got := CountOccurrences(records, "campaign"); got != 3 {
		t.Errorf("occurrences = %d, want 3", got)
	}
	if got := CountOccurrences(records, ""); got != 0 {
		t.Errorf("empty term matched %d times", got)
	}
}

func TestExtractBlocks(t *testing.T) {
	html := `<html><body>
		<p style="font-size:24pt">Title</p>
		<p style="font-size:12pt">Body text one</p>
		<p style="font-size:12pt">Body text two that is considerably longer</p>
		<p style="font-size:12pt">   </p>
	</body></html>`

	blocks, err := ExtractBlocks(html, 5)
	if err != nil {
		t.Fatalf("ExtractBlocks: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if blocks[0].Text != "Title" || blocks[0].FontSize != 24 {
		t.Errorf("first block = %+v", blocks[0])
	}
	if blocks[0].Page != 5 {
		t.Errorf("page = %d", blocks[0].Page)
	}

	headings := Headings(blocks)
	if len(headings) != 1 || headings[0].Text != "Title" {
		t.Errorf("headings = %+v", headings)
	}
}
