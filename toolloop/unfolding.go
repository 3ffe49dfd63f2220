package toolloop

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Disclosure instructs the hosting loop to change the active tool set. The
// change takes effect immediately: tools disclosed mid-iteration are
// callable for the remaining tool calls of that same iteration.
type Disclosure struct {
	// Tools are added to the active registry (latest-wins by name).
	Tools []Tool

	// RemoveFacade removes the disclosing tool itself from the registry.
	RemoveFacade bool
}

// UnfoldingTool is a facade over a group of inner tools. Until invoked,
// the model sees only the facade; invoking it discloses the inner tools
// (or a selected subset) and, by default, removes the facade so the model
// moves on to the real tools.
//
// A facade is stateless: repeated invocations across runs are independent,
// and the same facade value can serve many concurrent loops.
type UnfoldingTool struct {
	name           string
	description    string
	inner          []Tool
	categories     map[string][]Tool
	removeOnInvoke bool
}

// UnfoldingOption configures an unfolding tool.
type UnfoldingOption func(*UnfoldingTool)

// WithRemoveOnInvoke controls whether the facade is withdrawn after it
// discloses. Defaults to true.
func WithRemoveOnInvoke(remove bool) UnfoldingOption {
	return func(u *UnfoldingTool) { u.removeOnInvoke = remove }
}

// NewUnfolding creates a facade that discloses all inner tools on
// invocation. At least one inner tool is required.
func NewUnfolding(name, description string, inner []Tool, opts ...UnfoldingOption) (*UnfoldingTool, error) {
	if len(inner) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyUnfoldGroup)
	}
	u := &UnfoldingTool{
		name:           name,
		description:    description,
		inner:          inner,
		removeOnInvoke: true,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// NewCategoryUnfolding creates a facade whose invocation selects one named
// category of inner tools. A missing, malformed, or unknown category
// selector falls back to disclosing every inner tool, so a confused model
// still makes progress.
func NewCategoryUnfolding(name, description string, categories map[string][]Tool, opts ...UnfoldingOption) (*UnfoldingTool, error) {
	total := 0
	for _, tools := range categories {
		total += len(tools)
	}
	if total == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyUnfoldGroup)
	}
	var inner []Tool
	for _, catName := range sortedKeys(categories) {
		inner = append(inner, categories[catName]...)
	}
	u := &UnfoldingTool{
		name:           name,
		description:    description,
		inner:          inner,
		categories:     categories,
		removeOnInvoke: true,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// NewUnfoldingFromGroups builds a category facade from named groups plus
// ungrouped tools. Ungrouped tools and nested facades land in a synthesized
// "all" category alongside every grouped tool, so a single selection can
// reach the whole set.
func NewUnfoldingFromGroups(name, description string, groups map[string][]Tool, ungrouped []Tool, opts ...UnfoldingOption) (*UnfoldingTool, error) {
	categories := make(map[string][]Tool, len(groups)+1)
	var all []Tool
	for _, groupName := range sortedKeys(groups) {
		categories[groupName] = groups[groupName]
		all = append(all, groups[groupName]...)
	}
	all = append(all, ungrouped...)
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyUnfoldGroup)
	}
	categories["all"] = all
	return NewCategoryUnfolding(name, description, categories, opts...)
}

// Definition implements Tool.
func (u *UnfoldingTool) Definition() Definition {
	def := Definition{
		Name:        u.name,
		Description: u.describeWithInventory(),
	}
	if u.categories != nil {
		def.Schema = NewSchema(Param{
			Name:        "category",
			Type:        ParamString,
			Description: "Tool category to disclose.",
			Required:    true,
			Enum:        sortedKeys(u.categories),
		})
	}
	return def
}

// Call implements Tool: it returns the disclosure the loop applies.
func (u *UnfoldingTool) Call(_ context.Context, input string) (Result, error) {
	selected := u.SelectTools(input)
	names := make([]string, len(selected))
	for i, t := range selected {
		names[i] = t.Definition().Name
	}
	sort.Strings(names)

	res := TextResult(fmt.Sprintf("Unlocked %d tools: %s. They are now available for use.",
		len(names), strings.Join(names, ", ")))
	res.Disclosure = &Disclosure{Tools: selected, RemoveFacade: u.removeOnInvoke}
	return res, nil
}

// SelectTools resolves the inner tools an invocation input selects, without
// side effects. Non-category facades always return every inner tool.
func (u *UnfoldingTool) SelectTools(input string) []Tool {
	if u.categories == nil {
		return u.inner
	}
	category := gjson.Get(input, "category")
	if !category.Exists() || category.Type != gjson.String {
		return u.inner
	}
	tools, ok := u.categories[category.String()]
	if !ok || len(tools) == 0 {
		return u.inner
	}
	return tools
}

// InnerTools returns every tool the facade can disclose.
func (u *UnfoldingTool) InnerTools() []Tool { return u.inner }

func (u *UnfoldingTool) describeWithInventory() string {
	var b strings.Builder
	b.WriteString(u.description)
	if u.categories != nil {
		b.WriteString(" Categories:")
		for _, catName := range sortedKeys(u.categories) {
			names := make([]string, len(u.categories[catName]))
			for i, t := range u.categories[catName] {
				names[i] = t.Definition().Name
			}
			sort.Strings(names)
			fmt.Fprintf(&b, " %s (%s);", catName, strings.Join(names, ", "))
		}
		return strings.TrimSuffix(b.String(), ";")
	}
	names := make([]string, len(u.inner))
	for i, t := range u.inner {
		names[i] = t.Definition().Name
	}
	sort.Strings(names)
	fmt.Fprintf(&b, " Unlocks: %s.", strings.Join(names, ", "))
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
