// Package template builds CloudFormation templates from typed resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	imagestack "github.com/lex00/image-api-stack-go"
)

// FormatVersion is the only AWSTemplateFormatVersion CloudFormation accepts.
const FormatVersion = "2010-09-09"

var logicalIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,255}$`)

// subVarPattern matches ${Name} and ${Name.Attr} in Fn::Sub strings, but not
// the ${!Literal} escape.
var subVarPattern = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

// Builder collects resources, parameters and outputs and assembles them into
// a template. References between them are discovered from the serialized
// properties.
type Builder struct {
	description string
	resources   map[string]entry
	parameters  map[string]imagestack.Parameter
	outputs     map[string]imagestack.Output
	errs        []error
}

type entry struct {
	resource  imagestack.Resource
	dependsOn []string
}

// NewBuilder creates an empty template builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		resources:   make(map[string]entry),
		parameters:  make(map[string]imagestack.Parameter),
		outputs:     make(map[string]imagestack.Output),
	}
}

// AddResource registers a resource under a logical ID. dependsOn lists
// explicit DependsOn targets in addition to the references found in the
// properties. Invalid or duplicate IDs are reported by Build.
func (b *Builder) AddResource(name string, r imagestack.Resource, dependsOn ...string) {
	if !b.checkName("resource", name) {
		return
	}
	b.resources[name] = entry{resource: r, dependsOn: dependsOn}
}

// AddParameter registers a template parameter.
func (b *Builder) AddParameter(name string, p imagestack.Parameter) {
	if !b.checkName("parameter", name) {
		return
	}
	b.parameters[name] = p
}

// AddOutput registers a template output.
func (b *Builder) AddOutput(name string, o imagestack.Output) {
	if !logicalIDPattern.MatchString(name) {
		b.errs = append(b.errs, fmt.Errorf("output %q: logical ID must be alphanumeric", name))
		return
	}
	if _, dup := b.outputs[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("output %q: duplicate logical ID", name))
		return
	}
	b.outputs[name] = o
}

func (b *Builder) checkName(kind, name string) bool {
	if !logicalIDPattern.MatchString(name) {
		b.errs = append(b.errs, fmt.Errorf("%s %q: logical ID must be alphanumeric", kind, name))
		return false
	}
	_, isResource := b.resources[name]
	_, isParam := b.parameters[name]
	if isResource || isParam {
		b.errs = append(b.errs, fmt.Errorf("%s %q: duplicate logical ID", kind, name))
		return false
	}
	return true
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*imagestack.Template, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	props := make(map[string]map[string]any, len(b.resources))
	deps := make(map[string][]string, len(b.resources))
	var errs []error

	for name, e := range b.resources {
		p, err := serializeResource(e.resource)
		if err != nil {
			errs = append(errs, fmt.Errorf("serializing %s: %w", name, err))
			continue
		}
		props[name] = p

		d, err := b.dependencies(name, p, e.dependsOn)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		deps[name] = d
	}

	outputs := make(map[string]imagestack.Output, len(b.outputs))
	for name, o := range b.outputs {
		o.Value = toAny(o.Value)
		if o.Export != nil {
			o.Export = &imagestack.Export{Name: toAny(o.Export.Name)}
		}
		if _, err := b.dependencies("output "+name, o.Value, nil); err != nil {
			errs = append(errs, err)
		}
		outputs[name] = o
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if _, err := topologicalSort(deps); err != nil {
		return nil, err
	}

	tmpl := &imagestack.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]imagestack.ResourceDef, len(b.resources)),
	}
	if len(b.parameters) > 0 {
		tmpl.Parameters = b.parameters
	}
	if len(b.outputs) > 0 {
		tmpl.Outputs = outputs
	}

	for name, e := range b.resources {
		def := imagestack.ResourceDef{
			Type:       e.resource.ResourceType(),
			Properties: props[name],
		}
		if len(e.dependsOn) > 0 {
			def.DependsOn = sortedUnique(e.dependsOn)
		}
		tmpl.Resources[name] = def
	}

	return tmpl, nil
}

// Order returns resource logical IDs in dependency order, ties broken
// alphabetically.
func (b *Builder) Order() ([]string, error) {
	deps := make(map[string][]string, len(b.resources))
	for name, e := range b.resources {
		p, err := serializeResource(e.resource)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}
		d, err := b.dependencies(name, p, e.dependsOn)
		if err != nil {
			return nil, err
		}
		deps[name] = d
	}
	return topologicalSort(deps)
}

// serializeResource converts a typed resource to CloudFormation properties by
// way of its JSON form, so intrinsic MarshalJSON methods apply.
func serializeResource(r imagestack.Resource) (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// toAny normalizes a value to its JSON-decoded form so YAML output matches
// JSON output for intrinsic functions.
func toAny(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// dependencies returns the resources that owner references or depends on.
// A reference to a logical ID that is neither a resource, a parameter nor a
// pseudo parameter is an error.
func (b *Builder) dependencies(owner string, value any, dependsOn []string) ([]string, error) {
	refs := make(map[string]RefKind)
	collectRefs(value, refs)

	var deps []string
	var unknown []string
	for ref := range refs {
		switch {
		case strings.HasPrefix(ref, "AWS::"):
		case b.isParameter(ref):
		case b.isResource(ref):
			deps = append(deps, ref)
		default:
			unknown = append(unknown, ref)
		}
	}
	for _, d := range dependsOn {
		if !b.isResource(d) {
			unknown = append(unknown, d)
			continue
		}
		deps = append(deps, d)
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s references unknown logical ID(s): %s", owner, strings.Join(unknown, ", "))
	}
	return sortedUnique(deps), nil
}

func (b *Builder) isResource(name string) bool {
	_, ok := b.resources[name]
	return ok
}

func (b *Builder) isParameter(name string) bool {
	_, ok := b.parameters[name]
	return ok
}

// RefKind is the intrinsic a reference was found in.
type RefKind int

const (
	KindRef RefKind = iota
	KindGetAtt
	KindSub
)

// References returns the logical IDs referenced anywhere in a JSON-decoded
// value, pseudo parameters included, keyed to the intrinsic that referenced
// them first.
func References(value any) map[string]RefKind {
	refs := make(map[string]RefKind)
	collectRefs(value, refs)
	return refs
}

func addRef(refs map[string]RefKind, name string, kind RefKind) {
	if _, ok := refs[name]; !ok {
		refs[name] = kind
	}
}

// collectRefs walks a JSON-decoded value and records the targets of Ref,
// Fn::GetAtt and Fn::Sub.
func collectRefs(value any, refs map[string]RefKind) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 1 {
			if target, ok := v["Ref"].(string); ok {
				addRef(refs, target, KindRef)
				return
			}
			if args, ok := v["Fn::GetAtt"].([]any); ok && len(args) > 0 {
				if target, ok := args[0].(string); ok {
					addRef(refs, target, KindGetAtt)
				}
				return
			}
			if sub, ok := v["Fn::Sub"]; ok {
				collectSubRefs(sub, refs)
				return
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectRefs(v[k], refs)
		}

	case []any:
		for _, elem := range v {
			collectRefs(elem, refs)
		}
	}
}

func collectSubRefs(sub any, refs map[string]RefKind) {
	var str string
	local := map[string]bool{}

	switch s := sub.(type) {
	case string:
		str = s
	case []any:
		if len(s) > 0 {
			str, _ = s[0].(string)
		}
		if len(s) > 1 {
			if vars, ok := s[1].(map[string]any); ok {
				for k := range vars {
					local[k] = true
				}
				collectRefs(vars, refs)
			}
		}
	}

	for _, m := range subVarPattern.FindAllStringSubmatch(str, -1) {
		name := m[1]
		if i := strings.Index(name, "."); i >= 0 && !strings.HasPrefix(name, "AWS::") {
			name = name[:i]
		}
		if !local[name] {
			addRef(refs, name, KindSub)
		}
	}
}

// topologicalSort returns resources in dependency order using Kahn's algorithm.
func topologicalSort(deps map[string][]string) ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range deps {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, ds := range deps {
		for _, dep := range ds {
			if _, exists := deps[dep]; exists {
				graph[dep] = append(graph[dep], name)
				inDegree[name]++
			}
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(deps) {
		return nil, detectCycle(deps)
	}
	return result, nil
}

// detectCycle finds and reports one cycle in the dependency graph.
func detectCycle(deps map[string][]string) error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range deps[node] {
			if _, exists := deps[dep]; !exists {
				continue
			}
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = []string{dep, node}
				return true
			}
		}

		path[node] = false
		return false
	}

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " → "))
	}
	return errors.New("circular dependency detected")
}

func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// ToJSON serializes the template to JSON.
func ToJSON(t *imagestack.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *imagestack.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
