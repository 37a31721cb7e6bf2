package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/conduit-lang/nanowrimo/internal/cli/ui"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
)

// summaryFields are tried in order to label a resource in a listing
var summaryFields = []string{"name", "title", "headline", "slug", "display-name", "url"}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// attributeFields flattens a resource's attributes into sorted key/value
// strings
func attributeFields(r *model.Resource) ([][2]string, error) {
	if r.Attributes == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s %d: %w", r.Kind, r.ID, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, displayValue(fields[k])})
	}
	return out, nil
}

// displayValue prints strings bare and everything else as compact JSON
func displayValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func summarize(r *model.Resource) string {
	fields, err := attributeFields(r)
	if err != nil {
		return ""
	}
	byName := make(map[string]string, len(fields))
	for _, f := range fields {
		byName[f[0]] = f[1]
	}
	for _, name := range summaryFields {
		if v := byName[name]; v != "" && v != "null" {
			return v
		}
	}
	return ""
}

func typeName(r *model.Resource) string {
	if r.Kind.Known() {
		return r.Kind.Plural()
	}
	return r.Type
}

func (a *app) renderCollection(w io.Writer, c *model.Collection) error {
	if a.jsonOut {
		return writeJSON(w, c)
	}
	if len(c.Data) == 0 {
		fmt.Fprintln(w, "No resources found.")
		return nil
	}

	table := ui.NewTable(w, []string{"ID", "KIND", "SUMMARY"}, &ui.TableOptions{NoColor: a.noColor})
	for i := range c.Data {
		r := &c.Data[i]
		table.AddRow(strconv.FormatUint(r.ID, 10), typeName(r), summarize(r))
	}
	table.Render()

	if len(c.Included) > 0 {
		fmt.Fprintf(w, "\n%d included: %s\n", len(c.Included), includedSummary(c.Included))
	}
	return nil
}

func (a *app) renderItem(w io.Writer, item *model.Item) error {
	if a.jsonOut {
		return writeJSON(w, item)
	}
	if err := a.renderResource(w, &item.Data); err != nil {
		return err
	}

	if rels := item.Data.Relationships; rels != nil && len(rels.Relations)+len(rels.Included) > 0 {
		fmt.Fprintln(w)
		ui.Header(w, "Relationships", a.noColor)
		table := ui.NewTable(w, []string{"KIND", "COUNT", "RELATED"}, &ui.TableOptions{NoColor: a.noColor})
		for _, k := range relationKinds(rels) {
			link, _ := rels.Link(k)
			table.AddRow(k.Plural(), strconv.Itoa(len(rels.Refs(k))), link.Related)
		}
		table.Render()
	}

	if len(item.Included) > 0 {
		fmt.Fprintf(w, "\n%d included: %s\n", len(item.Included), includedSummary(item.Included))
	}
	return nil
}

func (a *app) renderResource(w io.Writer, r *model.Resource) error {
	ui.Header(w, fmt.Sprintf("%s %d", typeName(r), r.ID), a.noColor)
	fields, err := attributeFields(r)
	if err != nil {
		return err
	}
	table := ui.NewKeyValueTable(w, a.noColor)
	for _, f := range fields {
		table.AddRow(f[0], ui.Truncate(f[1], ui.MaxCellWidth))
	}
	table.Render()
	return nil
}

// relationKinds lists the kinds named by a relationship set, by plural name
func relationKinds(rels *model.RelationshipSet) []kind.Kind {
	seen := make(map[kind.Kind]bool, len(rels.Relations)+len(rels.Included))
	kinds := make([]kind.Kind, 0, len(rels.Relations)+len(rels.Included))
	for k := range rels.Relations {
		seen[k] = true
		kinds = append(kinds, k)
	}
	for k := range rels.Included {
		if !seen[k] {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Plural() < kinds[j].Plural() })
	return kinds
}

func includedSummary(pool model.Pool) string {
	counts := make(map[string]int)
	for i := range pool {
		counts[typeName(&pool[i])]++
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%d %s", counts[n], n))
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
