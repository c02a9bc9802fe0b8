// Package differ compares a freshly synthesized template with a previously
// deployed one.
//
// Both sides are normalized to their JSON-decoded form before comparison, so a
// YAML file on disk and an in-memory template compare equal when they would
// deploy the same stack. Changes are reported as property paths only; values
// are never included, since ApiKey values are credentials.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	imagestack "github.com/lex00/image-api-stack-go"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons.
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    imagestack.TemplateDiff
	Summary imagestack.DiffSummary
	// Template lists changes outside Resources, e.g. "Parameters.AssetBucket modified".
	Template []string
}

// Empty reports whether the templates are equivalent.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0 && len(r.Template) == 0
}

// Compare compares two CloudFormation templates. before is typically the
// deployed template and after the synthesized one.
func Compare(before, after *imagestack.Template, opts Options) (*Result, error) {
	b, err := normalize(before)
	if err != nil {
		return nil, fmt.Errorf("normalizing previous template: %w", err)
	}
	a, err := normalize(after)
	if err != nil {
		return nil, fmt.Errorf("normalizing new template: %w", err)
	}

	result := &Result{}

	for name, def := range a.Resources {
		if _, exists := b.Resources[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, imagestack.DiffEntry{Resource: name, Type: def.Type})
		}
	}
	for name, def := range b.Resources {
		next, exists := a.Resources[name]
		if !exists {
			result.Diff.Removed = append(result.Diff.Removed, imagestack.DiffEntry{Resource: name, Type: def.Type})
			continue
		}
		if changes := compareResources(def, next, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, imagestack.DiffEntry{
				Resource: name,
				Type:     next.Type,
				Changes:  changes,
			})
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Template = append(result.Template, compareSection("Parameters", b.Parameters, a.Parameters, opts)...)
	result.Template = append(result.Template, compareSection("Outputs", b.Outputs, a.Outputs, opts)...)
	if b.Description != a.Description {
		result.Template = append(result.Template, "Description modified")
	}

	result.Summary = imagestack.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFile compares the template at path with after.
func CompareFile(path string, after *imagestack.Template, opts Options) (*Result, error) {
	before, err := LoadTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return Compare(before, after, opts)
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
func LoadTemplate(path string) (*imagestack.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmpl imagestack.Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		if yerr := yaml.Unmarshal(data, &tmpl); yerr != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", yerr)
		}
	}
	if tmpl.Resources == nil {
		return nil, fmt.Errorf("%s has no Resources section", path)
	}
	return &tmpl, nil
}

// normalized is a template reduced to JSON-decoded values.
type normalized struct {
	Description string                   `json:"Description"`
	Parameters  map[string]any           `json:"Parameters"`
	Resources   map[string]normalizedDef `json:"Resources"`
	Outputs     map[string]any           `json:"Outputs"`
}

type normalizedDef struct {
	Type       string         `json:"Type"`
	Properties map[string]any `json:"Properties"`
	DependsOn  []string       `json:"DependsOn"`
}

func normalize(t *imagestack.Template) (*normalized, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var n normalized
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func compareResources(before, after normalizedDef, opts Options) []string {
	var changes []string

	if before.Type != after.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", before.Type, after.Type))
	}

	changes = append(changes, compareValues("", before.Properties, after.Properties, opts)...)

	if !equalStringSets(before.DependsOn, after.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

func compareSection(section string, before, after map[string]any, opts Options) []string {
	var changes []string
	for _, c := range compareValues("", before, after, opts) {
		changes = append(changes, section+"."+c)
	}
	return changes
}

// compareValues walks two property maps and reports changed paths. Nested
// maps are descended into so the deepest changed key is reported.
func compareValues(prefix string, before, after map[string]any, opts Options) []string {
	var changes []string

	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}

	for key, av := range after {
		bv, exists := before[key]
		if !exists {
			changes = append(changes, join(key)+" added")
			continue
		}
		bm, bIsMap := bv.(map[string]any)
		am, aIsMap := av.(map[string]any)
		if bIsMap && aIsMap && !isIntrinsic(bm) && !isIntrinsic(am) {
			changes = append(changes, compareValues(join(key), bm, am, opts)...)
			continue
		}
		if !deepEqual(bv, av, opts) {
			changes = append(changes, join(key)+" modified")
		}
	}

	for key := range before {
		if _, exists := after[key]; !exists {
			changes = append(changes, join(key)+" removed")
		}
	}

	sort.Strings(changes)
	return changes
}

// isIntrinsic reports whether m is a single intrinsic function such as Ref.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || k == "Condition" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeOrder(a)
		b = normalizeOrder(b)
	}
	return reflect.DeepEqual(a, b)
}

func encoded(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// normalizeOrder sorts every array by the JSON encoding of its elements.
func normalizeOrder(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, e := range val {
			result[i] = normalizeOrder(e)
		}
		sort.SliceStable(result, func(i, j int) bool {
			return encoded(result[i]) < encoded(result[j])
		})
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, e := range val {
			result[k] = normalizeOrder(e)
		}
		return result
	default:
		return v
	}
}

// equalStringSets compares DependsOn lists, which CloudFormation treats as
// unordered.
func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func sortEntries(entries []imagestack.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
