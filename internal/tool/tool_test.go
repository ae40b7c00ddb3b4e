package tool_test

import (
	"strings"
	"testing"

	"github.com/chonkie-inc/littr/internal/tool"
)

func TestSignatureMixedArgs(t *testing.T) {
	i := tool.New("search", "Search for items").
		Arg("query", "str", "Search query").
		ArgOpt("limit", "int", "Max results").
		Returns("list[str]")
	want := "search(query: str, limit: int | None = None) -> list[str]"
	if got := i.Signature(); got != want {
		t.Errorf("Signature() = %q, want %q", got, want)
	}
}

func TestDocIncludesArgsSection(t *testing.T) {
	i := tool.New("fetch_weather", "Get current weather for a city.").
		Arg("city", "str", "The city name").
		ArgOpt("unit", "str", "Temperature unit").
		Returns("dict")
	doc := i.Doc()
	if !strings.Contains(doc, "def fetch_weather(city: str, unit: str | None = None) -> dict:") {
		t.Errorf("doc missing signature line: %s", doc)
	}
	if !strings.Contains(doc, "Args:") || !strings.Contains(doc, "city: The city name") {
		t.Errorf("doc missing args section: %s", doc)
	}
}

func TestDescribeToolsJoinsWithBlankLine(t *testing.T) {
	tools := []tool.Info{
		tool.New("tool_a", "Does A").Returns("str"),
		tool.New("tool_b", "Does B").Returns("int"),
	}
	doc := tool.DescribeTools(tools)
	if !strings.Contains(doc, "def tool_a() -> str:") || !strings.Contains(doc, "def tool_b() -> int:") {
		t.Errorf("describe_tools output missing a tool: %s", doc)
	}
	if !strings.Contains(doc, "\"\"\"\n\ndef tool_b() -> int:") {
		t.Errorf("describe_tools output does not separate tools with a blank line: %s", doc)
	}
}

func TestAcceptsCompatibilityTable(t *testing.T) {
	cases := []struct {
		declared, actual string
		want             bool
	}{
		{"any", "dict", true},
		{"float", "int", true},
		{"int", "float", false},
		{"number", "bool", false},
		{"str", "int", false},
		{"widget", "module", true},
	}
	for _, c := range cases {
		if got := tool.Accepts(c.declared, c.actual); got != c.want {
			t.Errorf("Accepts(%q, %q) = %v, want %v", c.declared, c.actual, got, c.want)
		}
	}
}
