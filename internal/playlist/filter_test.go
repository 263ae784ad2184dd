package playlist

import (
	"strings"
	"testing"
)

const canonicalDoc = "央视频道,#genre#\nCCTV1,http://x/1\nCCTV2,http://x/2\n\n" +
	"卫视频道,#genre#\n湖南卫视,http://x/hn\n\n" +
	"上海频道,#genre#\n东方卫视,http://x/df\n\n" +
	"其他,#genre#"

func TestFilter_NilPolicyReturnsInput(t *testing.T) {
	inputs := []string{canonicalDoc, "", "garbage without blocks", "A,#genre#\n\n\n\nB,#genre#"}

	for _, in := range inputs {
		if got := Filter(in, nil); got != in {
			t.Errorf("Filter(%q, nil) = %q, want input unchanged", in, got)
		}
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		policy   Policy
		expected string
	}{
		{
			name:   "keeps and renames in input order",
			doc:    canonicalDoc,
			policy: Policy{"上海频道": "上海", "央视频道": "央视"},
			expected: "央视,#genre#\nCCTV1,http://x/1\nCCTV2,http://x/2\n\n" +
				"上海,#genre#\n东方卫视,http://x/df",
		},
		{
			name:     "empty replacement keeps block byte for byte",
			doc:      canonicalDoc,
			policy:   Policy{"卫视频道": ""},
			expected: "卫视频道,#genre#\n湖南卫视,http://x/hn",
		},
		{
			name:     "empty block survives",
			doc:      canonicalDoc,
			policy:   Policy{"其他": "Other"},
			expected: "Other,#genre#",
		},
		{
			name:     "no match drops everything",
			doc:      canonicalDoc,
			policy:   Policy{"体育": ""},
			expected: "",
		},
		{
			name:     "empty policy drops everything",
			doc:      canonicalDoc,
			policy:   Policy{},
			expected: "",
		},
		{
			name:     "nameless block never matches the empty key",
			doc:      "no marker\nch,http://x\n\nA,#genre#",
			policy:   Policy{"": "", "A": ""},
			expected: "A,#genre#",
		},
		{
			name:     "duplicate genre blocks are all kept",
			doc:      "A,#genre#\na1,http://x/1\n\nB,#genre#\n\nA,#genre#\na2,http://x/2",
			policy:   Policy{"A": "Z"},
			expected: "Z,#genre#\na1,http://x/1\n\nZ,#genre#\na2,http://x/2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Filter(tt.doc, tt.policy)
			if result != tt.expected {
				t.Errorf("Filter() =\n%q\nwant\n%q", result, tt.expected)
			}
		})
	}
}

func TestFilter_RenameLeavesChannelLinesUntouched(t *testing.T) {
	result := Filter(canonicalDoc, Policy{"央视频道": "央视"})

	original := SplitBlocks(canonicalDoc)[0]
	renamed := SplitBlocks(result)[0]

	if renamed.Header() != "央视,#genre#" {
		t.Errorf("header = %q, want %q", renamed.Header(), "央视,#genre#")
	}

	_, originalChannels, _ := strings.Cut(string(original), "\n")
	_, renamedChannels, _ := strings.Cut(string(renamed), "\n")
	if originalChannels != renamedChannels {
		t.Errorf("channel lines changed: %q -> %q", originalChannels, renamedChannels)
	}
}

func TestFilterWithStats(t *testing.T) {
	_, stats := FilterWithStats(canonicalDoc, Policy{"央视频道": "央视", "卫视频道": ""})

	expected := FilterStats{Kept: 2, Dropped: 2, Renamed: 1}
	if stats != expected {
		t.Errorf("FilterWithStats() stats = %+v, want %+v", stats, expected)
	}

	// Named through group-title with no ",#" header: kept, but nothing to rename.
	extinfOnly := "#EXTINF:-1 group-title=\"新闻\",CCTV13\nhttp://x/13"
	filtered, stats := FilterWithStats(extinfOnly, Policy{"新闻": "News"})
	if filtered != extinfOnly {
		t.Errorf("FilterWithStats() = %q, want block unchanged", filtered)
	}
	if expected := (FilterStats{Kept: 1}); stats != expected {
		t.Errorf("FilterWithStats() stats = %+v, want %+v", stats, expected)
	}

	_, stats = FilterWithStats(canonicalDoc, nil)
	if stats.Kept != 4 || stats.Dropped != 0 {
		t.Errorf("FilterWithStats(nil) stats = %+v, want all 4 kept", stats)
	}
}

func TestNormalizeAndFilter_EndToEnd(t *testing.T) {
	canonical, err := Normalize(Extended, twoGenreM3U)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	result := Filter(canonical, Policy{"央视频道": "央视", "卫视频道": ""})

	expected := "央视,#genre#\nCCTV1,http://x/1\n\n卫视频道,#genre#\n湖南卫视,http://x/2"
	if result != expected {
		t.Errorf("filtered =\n%q\nwant\n%q", result, expected)
	}
}

func TestPolicyAllows(t *testing.T) {
	p := Policy{"A": "", "": "x"}

	if !p.Allows("A") {
		t.Error("expected A to be allowed")
	}
	if p.Allows("B") {
		t.Error("expected B to be dropped")
	}
	if p.Allows("") {
		t.Error("expected empty name to never be allowed")
	}
}
