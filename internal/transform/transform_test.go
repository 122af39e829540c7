// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kb-migrate/pkg/types"
)

var fixedNow = func() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func thread(id, title string, replies ...types.Reply) types.RawQA {
	return types.RawQA{ID: types.QAID(id), Title: title, Replies: replies}
}

func customer(content string) types.Reply { return types.Reply{Owner: "customer", Content: content} }
func agent(content string) types.Reply    { return types.Reply{Owner: "agent", Content: content} }

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"bold tag", "<b>Login issue</b>", "Login issue"},
		{"paragraphs joined with space", "<p>Hello</p><p>World</p>", "Hello World"},
		{"entities decoded", "Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"whitespace collapsed", "  multiple   spaces\n\n\n\nand lines  ", "multiple spaces and lines"},
		{"script dropped", "<script>alert(1)</script>visible", "visible"},
		{"style dropped", "<style>p{color:red}</style><p>styled</p>", "styled"},
		{"unclosed tags", "<div><span>unclosed", "unclosed"},
		{"nested list", "<ul><li>one</li><li>two</li></ul>", "one two"},
		{"plain text", "just text", "just text"},
		{"only markup", "<br/><hr>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"a  b\n\n\nc",
		"x < y and y > z",
		"Tom &amp; Jerry",
		"  padded  ",
		"",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestClean_EscapedMarkupDecodesTwice(t *testing.T) {
	once := Clean("use &lt;b&gt; for bold")
	assert.Equal(t, "use <b> for bold", once)
	assert.Equal(t, "use for bold", Clean(once), "decoded markup is stripped on a second pass")

	assert.Equal(t, "a & b", Clean("a &amp;amp; b"))
}

func TestClean_MalformedNeverFails(t *testing.T) {
	inputs := []string{
		"<<<>>>",
		"<p>truncated <b",
		"</div></div>text</span>",
		"<a href='x",
		"&#xZZZ; &bogus;",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			out := Clean(in)
			assert.NotContains(t, out, "\n")
		}, "input %q", in)
	}
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "bold & text", stripTags("<b>bold</b>  &amp; text"))
	assert.Equal(t, "a b", stripTags("a<br>\n\n\n\nb"))
	assert.Equal(t, "", stripTags("<p></p>"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  types.RawQA
		want bool
	}{
		{"title and reply", thread("1", "t", customer("hi")), true},
		{"description only", types.RawQA{Description: "d", Replies: []types.Reply{agent("a")}}, true},
		{"no title or description", thread("1", "", customer("hi")), false},
		{"no replies", thread("1", "t"), false},
		{"only empty replies", thread("1", "t", customer("<p> </p>"), agent("")), false},
		{"one non-empty after cleaning", thread("1", "t", customer("<br>"), agent("<i>answer</i>")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.raw))
		})
	}
}

func TestRenderPassage_Example(t *testing.T) {
	raw := thread("1", "<b>Login issue</b>",
		customer("Can't log in"),
		agent("Please reset password"),
	)

	p := RenderPassage(raw)

	assert.True(t, strings.HasPrefix(p, outerRule+"\n"))
	assert.True(t, strings.HasSuffix(p, outerRule))
	assert.Contains(t, p, "Title: Login issue")
	assert.NotContains(t, p, "Description:")
	assert.Contains(t, p, "Category: "+DefaultCategory)

	first := strings.Index(p, "1. [Customer] Can't log in")
	second := strings.Index(p, "2. [Agent] Please reset password")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

func TestRenderPassage_SectionOrder(t *testing.T) {
	raw := types.RawQA{
		ID:          "7",
		Title:       "Billing",
		Description: "<p>Charged twice</p>",
		Category:    "payments",
		Replies:     []types.Reply{customer("help"), agent("refunded")},
	}

	p := RenderPassage(raw)

	order := []string{"Title: Billing", "Description: Charged twice", "Category: payments", "Conversation:", "1. [Customer] help"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(p, marker)
		require.NotEqual(t, -1, idx, "missing %q", marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
}

func TestRenderPassage_NumberingKeepsGaps(t *testing.T) {
	raw := thread("1", "t",
		customer("question"),
		agent("<p></p>"),
		agent("answer"),
	)

	p := RenderPassage(raw)

	assert.Contains(t, p, "1. [Customer] question")
	assert.Contains(t, p, "3. [Agent] answer")
	assert.NotContains(t, p, "2. [")
}

func TestRenderPassage_UnknownOwnerIsAgent(t *testing.T) {
	raw := thread("1", "t", types.Reply{Owner: "bot", Content: "auto reply"}, types.Reply{Content: "no owner"})

	p := RenderPassage(raw)

	assert.Contains(t, p, "1. [Agent] auto reply")
	assert.Contains(t, p, "2. [Agent] no owner")
}

func TestTransformOne(t *testing.T) {
	tr := &Transformer{Now: fixedNow}
	raw := types.RawQA{
		ID:          "42",
		Title:       "<b>Login issue</b>",
		Description: "  ",
		Category:    "account",
		Replies:     []types.Reply{customer("Can't log in"), agent(""), agent("Please reset password")},
	}

	rec, err := tr.TransformOne(raw)
	require.NoError(t, err)

	assert.Equal(t, "Login issue", rec.Title)
	assert.Equal(t, "", rec.Description)
	assert.NotEmpty(t, rec.Passage)
	assert.Equal(t, types.Metadata{
		QAID:       "42",
		Category:   "account",
		Source:     types.SourceHistoricalQA,
		ImportDate: "2026-03-14",
		ReplyCount: 3,
	}, rec.Metadata)
}

func TestTransformOne_Invalid(t *testing.T) {
	tr := &Transformer{}
	_, err := tr.TransformOne(thread("1", "", customer("x")))
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

type stubFilter map[types.QAID]error

func (f stubFilter) Check(raw types.RawQA) error { return f[raw.ID] }

func TestTransformAll(t *testing.T) {
	var out bytes.Buffer
	tr := &Transformer{
		Now: fixedNow,
		Out: &out,
		Filter: stubFilter{
			"3": errors.New("boom"),
			"4": ErrLowQuality,
		},
	}
	raws := []types.RawQA{
		thread("1", "first", customer("a")),
		thread("2", "", customer("no title")),
		thread("3", "third", customer("c")),
		thread("4", "fourth", customer("d")),
		thread("5", "fifth", agent("e")),
	}

	recs, stats := tr.TransformAll(raws)

	assert.Equal(t, types.TransformStats{Total: 5, Success: 2, Failed: 1, Skipped: 2, LowQuality: 1}, stats)
	require.Len(t, recs, 2)
	assert.Equal(t, "1", recs[0].Metadata.QAID)
	assert.Equal(t, "5", recs[1].Metadata.QAID)
	assert.Contains(t, out.String(), "skipped: record 2 (id 2)")
	assert.Contains(t, out.String(), "failed:  record 3 (id 3): boom")
}

func TestTransformAll_AllValidKeepsOrder(t *testing.T) {
	tr := &Transformer{Now: fixedNow}
	var raws []types.RawQA
	for _, id := range []string{"10", "11", "12", "13"} {
		raws = append(raws, thread(id, "title "+id, customer("q"), agent("a")))
	}

	recs, stats := tr.TransformAll(raws)

	assert.Equal(t, 4, stats.Success)
	assert.Equal(t, 0, stats.Skipped)
	require.Len(t, recs, 4)
	for i, rec := range recs {
		assert.Equal(t, string(raws[i].ID), rec.Metadata.QAID)
	}
}

func TestTransformAll_Progress(t *testing.T) {
	var out bytes.Buffer
	tr := &Transformer{Out: &out, ProgressEvery: 2}
	raws := []types.RawQA{
		thread("1", "a", customer("x")),
		thread("2", "b", customer("x")),
		thread("3", "c", customer("x")),
	}

	tr.TransformAll(raws)

	assert.Contains(t, out.String(), "processed 2/3 records")
	assert.NotContains(t, out.String(), "processed 3/3")
}

func TestTransformAll_Empty(t *testing.T) {
	recs, stats := (&Transformer{}).TransformAll(nil)
	assert.Empty(t, recs)
	assert.Equal(t, types.TransformStats{}, stats)
}

func TestQAIDUnmarshal(t *testing.T) {
	var raws []types.RawQA
	data := `[{"id": 42}, {"id": "abc-7"}, {"id": null}, {}]`
	require.NoError(t, json.Unmarshal([]byte(data), &raws))

	require.Len(t, raws, 4)
	assert.Equal(t, types.QAID("42"), raws[0].ID)
	assert.Equal(t, types.QAID("abc-7"), raws[1].ID)
	assert.Equal(t, types.QAID(""), raws[2].ID)
	assert.Equal(t, types.QAID(""), raws[3].ID)
}

func TestQAIDUnmarshal_RejectsObject(t *testing.T) {
	var raw types.RawQA
	err := json.Unmarshal([]byte(`{"id": {"x": 1}}`), &raw)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	tr, err := New(types.TransformConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, tr.Filter)

	tr, err = New(types.TransformConfig{FilterLowQuality: true}, nil)
	require.NoError(t, err)
	assert.NotNil(t, tr.Filter)

	_, err = New(types.TransformConfig{
		FilterLowQuality: true,
		KeywordsFile:     filepath.Join(t.TempDir(), "missing.yaml"),
	}, nil)
	assert.Error(t, err)
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	PrintStats(&out, types.TransformStats{Total: 5, Success: 2, Failed: 1, Skipped: 2, LowQuality: 1})
	assert.Contains(t, out.String(), "2 succeeded, 2 skipped (1 low quality), 1 failed (total: 5)")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
