package syntax

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load decodes a template document from JSON or YAML.
//
// Document shape:
//
//	locals: [title]
//	statements:
//	  - element: {tag: div, attrs: [{name: class, value: box}], body: [...]}
//	  - text: "hello"
//	  - append: this.name
//	  - if: {cond: this.show, body: [...], else: [...]}
//	  - each: {list: this.items, key: id, as: [item], body: [...]}
//
// Expressions are written as path strings, scalars, or single-key maps
// (path, literal, undefined, concat, call, has-block, has-block-params).
func Load(data []byte, source string) (*Template, error) {
	raw, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("syntax: %s: document must be a mapping", source)
	}

	tmpl := &Template{Name: source}
	if locals, ok := doc["locals"]; ok {
		names, err := stringList(locals)
		if err != nil {
			return nil, fmt.Errorf("syntax: %s: locals: %w", source, err)
		}
		tmpl.Locals = names
	}

	statements, err := decodeStatements(doc["statements"])
	if err != nil {
		return nil, fmt.Errorf("syntax: %s: %w", source, err)
	}
	tmpl.Statements = statements
	return tmpl, nil
}

// LoadFS reads and decodes the template at path.
func LoadFS(fsys fs.FS, path string) (*Template, error) {
	if fsys == nil {
		return nil, fmt.Errorf("syntax: nil filesystem")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("syntax: read %s: %w", path, err)
	}
	return Load(data, path)
}

// IsTemplateFile reports whether path has a template document extension.
func IsTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// List returns the template documents found in fsys, sorted by path.
func List(fsys fs.FS) ([]string, error) {
	if fsys == nil {
		return nil, nil
	}
	var out []string
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !IsTemplateFile(path) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func parseDocument(data []byte, source string) (any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("syntax: file %s is empty", source)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = nil
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return nil, fmt.Errorf("syntax: parse %s: invalid JSON or YAML", source)
}

func decodeStatements(raw any) ([]Statement, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("statements must be a list, got %T", raw)
	}
	out := make([]Statement, 0, len(items))
	for idx, item := range items {
		stmt, err := decodeStatement(item)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", idx, err)
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeStatement(raw any) (Statement, error) {
	if text, ok := raw.(string); ok {
		return &Literal{Value: text}, nil
	}
	key, value, err := singleKey(raw)
	if err != nil {
		return nil, err
	}

	switch key {
	case "text":
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("text must be a string, got %T", value)
		}
		return &Literal{Value: text}, nil
	case "comment":
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("comment must be a string, got %T", value)
		}
		return &Comment{Value: text}, nil
	case "append", "trusted":
		return decodeAppend(value, key == "trusted")
	case "call":
		fields, err := mapping(value)
		if err != nil {
			return nil, fmt.Errorf("call: %w", err)
		}
		head, params, hash, err := decodeInvocation(fields)
		if err != nil {
			return nil, fmt.Errorf("call: %w", err)
		}
		return &Call{Head: head, Params: params, Hash: hash, Trusted: boolField(fields, "trusted")}, nil
	case "element":
		return decodeElement(value)
	case "if", "unless", "each", "let", "with":
		return decodeKeyword(key, value)
	case "block":
		fields, err := mapping(value)
		if err != nil {
			return nil, fmt.Errorf("block: %w", err)
		}
		head, params, hash, err := decodeInvocation(fields)
		if err != nil {
			return nil, fmt.Errorf("block: %w", err)
		}
		as, err := stringList(fields["as"])
		if err != nil {
			return nil, fmt.Errorf("block: as: %w", err)
		}
		blocks, err := decodeBlocks(fields)
		if err != nil {
			return nil, fmt.Errorf("block: %w", err)
		}
		return &Block{Head: head, Params: params, Hash: hash, BlockParams: as, Blocks: blocks}, nil
	case "modifier":
		fields, err := mapping(value)
		if err != nil {
			return nil, fmt.Errorf("modifier: %w", err)
		}
		head, params, hash, err := decodeInvocation(fields)
		if err != nil {
			return nil, fmt.Errorf("modifier: %w", err)
		}
		return &Modifier{Head: head, Params: params, Hash: hash}, nil
	case "component":
		fields, err := mapping(value)
		if err != nil {
			return nil, fmt.Errorf("component: %w", err)
		}
		head, err := decodeExpression(fields["head"])
		if err != nil {
			return nil, fmt.Errorf("component: head: %w", err)
		}
		return &DynamicComponent{Head: head}, nil
	default:
		return nil, fmt.Errorf("unknown statement %q", key)
	}
}

func decodeAppend(value any, trusted bool) (Statement, error) {
	if path, ok := value.(string); ok {
		head, tail, err := ParsePath(path)
		if err != nil {
			return nil, err
		}
		if len(tail) == 0 {
			return &AppendExpr{Expr: &GetVar{Var: head}, Trusted: trusted}, nil
		}
		return &AppendPath{Path: &GetPath{Head: head, Tail: tail}, Trusted: trusted}, nil
	}
	expr, err := decodeExpression(value)
	if err != nil {
		return nil, fmt.Errorf("append: %w", err)
	}
	if path, ok := expr.(*GetPath); ok {
		return &AppendPath{Path: path, Trusted: trusted}, nil
	}
	return &AppendExpr{Expr: expr, Trusted: trusted}, nil
}

func decodeElement(value any) (Statement, error) {
	fields, err := mapping(value)
	if err != nil {
		return nil, fmt.Errorf("element: %w", err)
	}
	tag, _ := fields["tag"].(string)
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("element: missing tag")
	}

	el := &Element{Tag: tag}
	if rawAttrs, ok := fields["attrs"]; ok {
		items, ok := rawAttrs.([]any)
		if !ok {
			return nil, fmt.Errorf("element %s: attrs must be a list", tag)
		}
		for idx, item := range items {
			attr, err := decodeAttr(item)
			if err != nil {
				return nil, fmt.Errorf("element %s: attr %d: %w", tag, idx, err)
			}
			el.Attrs = append(el.Attrs, attr)
		}
	}
	if rawBody, ok := fields["body"]; ok {
		body, err := decodeStatements(rawBody)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", tag, err)
		}
		if body == nil {
			body = []Statement{}
		}
		el.Body = body
	}
	return el, nil
}

func decodeAttr(raw any) (Attr, error) {
	if s, ok := raw.(string); ok && s == "...attributes" {
		return Attr{Name: "...attributes", Value: &Splat{}}, nil
	}
	fields, err := mapping(raw)
	if err != nil {
		return Attr{}, err
	}
	if boolField(fields, "splat") {
		return Attr{Name: "...attributes", Value: &Splat{}}, nil
	}
	name, _ := fields["name"].(string)
	if name == "" {
		return Attr{}, fmt.Errorf("missing name")
	}
	// Plain strings are static text in attribute position.
	if text, ok := fields["value"].(string); ok {
		return Attr{Name: name, Value: Lit(text)}, nil
	}
	expr, err := decodeExpression(fields["value"])
	if err != nil {
		return Attr{}, fmt.Errorf("%s: %w", name, err)
	}
	return Attr{Name: name, Value: expr}, nil
}

func decodeKeyword(name string, value any) (Statement, error) {
	fields, err := mapping(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	kw := &Keyword{Name: name}

	var paramKeys []string
	switch name {
	case "if", "unless":
		paramKeys = []string{"cond"}
	case "each":
		paramKeys = []string{"list"}
	default:
		paramKeys = []string{"params"}
	}
	for _, key := range paramKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if list, isList := raw.([]any); isList && key == "params" {
			params, err := decodeExpressions(list)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			kw.Params = append(kw.Params, params...)
			continue
		}
		expr, err := decodeExpression(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", name, key, err)
		}
		kw.Params = append(kw.Params, expr)
	}

	if rawKey, ok := fields["key"]; ok {
		// A bare key string names an item property, not a path.
		if s, isString := rawKey.(string); isString {
			kw.Hash = append(kw.Hash, HashPair{Key: "key", Value: Lit(s)})
		} else {
			expr, err := decodeExpression(rawKey)
			if err != nil {
				return nil, fmt.Errorf("%s: key: %w", name, err)
			}
			kw.Hash = append(kw.Hash, HashPair{Key: "key", Value: expr})
		}
	}

	as, err := stringList(fields["as"])
	if err != nil {
		return nil, fmt.Errorf("%s: as: %w", name, err)
	}
	kw.BlockParams = as

	blocks, err := decodeBlocks(fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	kw.Blocks = blocks
	return kw, nil
}

func decodeBlocks(fields map[string]any) (Blocks, error) {
	var blocks Blocks
	body, err := decodeStatements(fields["body"])
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, NamedBlock{Name: "default", Body: body})
	if rawElse, ok := fields["else"]; ok {
		inverse, err := decodeStatements(rawElse)
		if err != nil {
			return nil, fmt.Errorf("else: %w", err)
		}
		blocks = append(blocks, NamedBlock{Name: "else", Body: inverse})
	}
	return blocks, nil
}

func decodeInvocation(fields map[string]any) (Head, []Expression, Hash, error) {
	headPath, _ := fields["head"].(string)
	if headPath == "" {
		return nil, nil, nil, fmt.Errorf("missing head")
	}
	head, tail, err := ParsePath(headPath)
	if err != nil {
		return nil, nil, nil, err
	}
	var h Head = &GetVar{Var: head}
	if len(tail) > 0 {
		h = &GetPath{Head: head, Tail: tail}
	}

	var params []Expression
	if raw, ok := fields["params"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, nil, nil, fmt.Errorf("params must be a list")
		}
		params, err = decodeExpressions(list)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	hash, err := decodeHash(fields["hash"])
	if err != nil {
		return nil, nil, nil, err
	}
	return h, params, hash, nil
}

func decodeHash(raw any) (Hash, error) {
	if raw == nil {
		return nil, nil
	}
	fields, err := mapping(raw)
	if err != nil {
		return nil, fmt.Errorf("hash: %w", err)
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hash := make(Hash, 0, len(keys))
	for _, key := range keys {
		expr, err := decodeExpression(fields[key])
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", key, err)
		}
		hash = append(hash, HashPair{Key: key, Value: expr})
	}
	return hash, nil
}

func decodeExpressions(items []any) ([]Expression, error) {
	out := make([]Expression, 0, len(items))
	for idx, item := range items {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", idx, err)
		}
		out = append(out, expr)
	}
	return out, nil
}

func decodeExpression(raw any) (Expression, error) {
	switch v := raw.(type) {
	case nil:
		return Lit(nil), nil
	case bool:
		return Lit(v), nil
	case int:
		return Lit(float64(v)), nil
	case int64:
		return Lit(float64(v)), nil
	case float64:
		return Lit(v), nil
	case string:
		head, tail, err := ParsePath(v)
		if err != nil {
			return nil, err
		}
		if len(tail) == 0 {
			return &GetVar{Var: head}, nil
		}
		return &GetPath{Head: head, Tail: tail}, nil
	}

	key, value, err := singleKey(raw)
	if err != nil {
		return nil, err
	}
	switch key {
	case "path":
		path, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("path must be a string")
		}
		head, tail, err := ParsePath(path)
		if err != nil {
			return nil, err
		}
		return &GetPath{Head: head, Tail: tail}, nil
	case "literal":
		switch lit := value.(type) {
		case int:
			return Lit(float64(lit)), nil
		case int64:
			return Lit(float64(lit)), nil
		default:
			return Lit(lit), nil
		}
	case "undefined":
		return Undefined(), nil
	case "concat":
		list, ok := value.([]any)
		if !ok || len(list) == 0 {
			return nil, fmt.Errorf("concat requires a non-empty list")
		}
		parts := make([]Expression, 0, len(list))
		for idx, item := range list {
			// Strings inside concat are text fragments.
			if text, ok := item.(string); ok {
				parts = append(parts, Lit(text))
				continue
			}
			part, err := decodeExpression(item)
			if err != nil {
				return nil, fmt.Errorf("concat %d: %w", idx, err)
			}
			parts = append(parts, part)
		}
		return &Concat{Parts: parts}, nil
	case "call":
		fields, err := mapping(value)
		if err != nil {
			return nil, fmt.Errorf("call: %w", err)
		}
		head, params, hash, err := decodeInvocation(fields)
		if err != nil {
			return nil, fmt.Errorf("call: %w", err)
		}
		return &CallExpr{Head: head, Params: params, Hash: hash}, nil
	case "has-block":
		name, _ := value.(string)
		if name == "" {
			name = "default"
		}
		return &HasBlock{Name: name}, nil
	case "has-block-params":
		name, _ := value.(string)
		if name == "" {
			name = "default"
		}
		return &HasBlockParams{Name: name}, nil
	default:
		return nil, fmt.Errorf("unknown expression %q", key)
	}
}

func singleKey(raw any) (string, any, error) {
	fields, err := mapping(raw)
	if err != nil {
		return "", nil, err
	}
	if len(fields) != 1 {
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return "", nil, fmt.Errorf("expected exactly one key, got %v", keys)
	}
	for key, value := range fields {
		return key, value, nil
	}
	return "", nil, nil
}

func mapping(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[fmt.Sprint(key)] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", raw)
	}
}

func stringList(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %T", raw)
	}
	out := make([]string, 0, len(items))
	for idx, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("entry %d must be a non-empty string", idx)
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}

func boolField(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}
