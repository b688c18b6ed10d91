// ABOUTME: JSON-Patch compatible wire operations
// ABOUTME: Path builders and protobuf conversion for the patch list

package patch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// Op is the kind of a patch operation
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpMove    Op = "move"
)

// AppendIndex is the path segment addressing the end of a list
const AppendIndex = "-"

// Operation is a single wire-level mutation
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// List is an ordered patch, applied by the receiver strictly in sequence
type List []Operation

var (
	escaper   = strings.NewReplacer("~", "~0", "/", "~1")
	unescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// Path builds "/<root>/<field>/<index>" with field escaped as a JSON Pointer
// reference token
func Path(root, field string, index int) string {
	return "/" + root + "/" + escaper.Replace(field) + "/" + strconv.Itoa(index)
}

// AppendPath builds "/<root>/<field>/-"
func AppendPath(root, field string) string {
	return "/" + root + "/" + escaper.Replace(field) + "/" + AppendIndex
}

// SplitPath returns the field and index segment of a path built by Path or
// AppendPath.
func SplitPath(path string) (field string, index string, err error) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("patch: malformed path %q", path)
	}
	return unescaper.Replace(parts[1]), parts[2], nil
}

// JSON encodes the list in its wire form
func (l List) JSON() ([]byte, error) {
	if l == nil {
		l = List{}
	}
	return json.Marshal(l)
}

// ToStruct converts an operation into a protobuf struct
func (o Operation) ToStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"op":   string(o.Op),
		"path": o.Path,
	}
	if o.From != "" {
		fields["from"] = o.From
	}
	if o.Value != nil {
		v, err := normalize(o.Value)
		if err != nil {
			return nil, err
		}
		fields["value"] = v
	}
	return structpb.NewStruct(fields)
}

// ToListValue converts the list for transport over gRPC
func (l List) ToListValue() (*structpb.ListValue, error) {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(l))}
	for _, op := range l {
		s, err := op.ToStruct()
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s %s: %w", op.Op, op.Path, err)
		}
		out.Values = append(out.Values, structpb.NewStructValue(s))
	}
	return out, nil
}

// normalize round-trips a value through JSON so structpb receives only maps,
// slices and scalars
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
