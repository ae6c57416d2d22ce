package display

import (
	"fmt"
	"strconv"

	"github.com/nxarchive/typedstream/archive"
	"github.com/nxarchive/typedstream/internal/foundation"
	"github.com/nxarchive/typedstream/wire"
)

// EventLine renders one wire.Event as a single styled line for `tstream
// read`, at the given nesting depth.
func EventLine(depth int, e wire.Event) string {
	prefix := Indent(depth)
	var kind, body string

	switch ev := e.(type) {
	case wire.Header:
		kind = "Header"
		body = fmt.Sprintf("Header streamerVersion=%d byteOrder=%c systemVersion=%d",
			ev.StreamerVersion, ev.ByteOrder, ev.SystemVersion)
	case wire.BeginTypedValues:
		kind = "BeginTypedValues"
		body = "BeginTypedValues " + encodingListString(ev.Encodings)
	case wire.EndTypedValues:
		kind = "EndTypedValues"
		body = "EndTypedValues"
	case wire.Atom:
		kind = "Atom"
		body = "Atom " + atomString(ev)
	case wire.BeginObject:
		kind = "BeginObject"
		body = fmt.Sprintf("BeginObject #%d", ev.ID)
	case wire.EndObject:
		kind = "EndObject"
		body = "EndObject"
	case wire.BeginArray:
		kind = "BeginArray"
		body = fmt.Sprintf("BeginArray len=%d %s", ev.Len, ev.Encoding.Raw)
	case wire.EndArray:
		kind = "EndArray"
		body = "EndArray"
	case wire.BeginStruct:
		kind = "BeginStruct"
		body = "BeginStruct " + string(ev.Encoding.Raw)
	case wire.EndStruct:
		kind = "EndStruct"
		body = "EndStruct"
	case wire.CString:
		kind = "CString"
		body = fmt.Sprintf("CString #%d %q", ev.ID, ev.Value)
	case wire.Selector:
		kind = "Selector"
		body = fmt.Sprintf("Selector #%d %q", ev.ID, ev.Value)
	case wire.ObjectReference:
		kind = "ObjectReference"
		body = fmt.Sprintf("ObjectReference -> #%d", ev.ID)
	case wire.Nil:
		kind = "Nil"
		body = "Nil"
	case wire.SingleClass:
		kind = "SingleClass"
		body = fmt.Sprintf("SingleClass #%d %s v%d", ev.ID, ev.Name, ev.Version)
	case wire.ClassReference:
		kind = "ClassReference"
		body = fmt.Sprintf("ClassReference -> #%d", ev.ID)
	default:
		kind, body = "", fmt.Sprintf("%T", e)
	}

	return prefix + EventStyle(kind).Render(body)
}

func encodingListString(encs []wire.Encoding) string {
	s := ""
	for _, e := range encs {
		s += string(e.Raw)
	}
	return s
}

func atomString(a wire.Atom) string {
	switch a.Encoding.Kind {
	case wire.KindBool:
		return strconv.FormatBool(a.Bool)
	case wire.KindFloat:
		return strconv.FormatFloat(float64(a.Float32), 'g', -1, 32)
	case wire.KindDouble:
		return strconv.FormatFloat(a.Float64, 'g', -1, 64)
	case wire.KindUChar, wire.KindUShort, wire.KindUInt, wire.KindULong, wire.KindULongLong:
		return strconv.FormatUint(a.Uint, 10)
	default:
		return strconv.FormatInt(a.Int, 10)
	}
}

// ValueLines renders a decoded value (as produced by archive.Unarchiver or
// internal/foundation) as an indented tree for `tstream decode`. maxDepth
// caps recursion into GenericArchivedObject contents and nested structures;
// 0 means unlimited.
func ValueLines(v any, depth, maxDepth int) []string {
	prefix := Indent(depth)
	if maxDepth > 0 && depth > maxDepth {
		return []string{prefix + RefStyle.Render("... (max depth reached)")}
	}

	switch val := v.(type) {
	case nil:
		return []string{prefix + RefStyle.Render("nil")}
	case *archive.Placeholder:
		return []string{prefix + RefStyle.Render(fmt.Sprintf("<cycle: object #%d>", val.ID))}
	case *archive.GenericArchivedObject:
		lines := []string{prefix + ObjectStyle.Render(val.ClassName()+" (generic)")}
		for _, group := range val.Contents {
			for _, item := range group {
				lines = append(lines, ValueLines(item, depth+1, maxDepth)...)
			}
		}
		return lines
	case archive.StructValue:
		name := val.Name
		if name == "" {
			name = "struct"
		}
		lines := []string{prefix + ObjectStyle.Render(name)}
		for _, f := range val.Fields {
			lines = append(lines, ValueLines(f, depth+1, maxDepth)...)
		}
		return lines
	case []any:
		lines := []string{prefix + ObjectStyle.Render(fmt.Sprintf("array[%d]", len(val)))}
		for _, item := range val {
			lines = append(lines, ValueLines(item, depth+1, maxDepth)...)
		}
		return lines
	case []byte:
		return []string{prefix + StringStyle.Render(fmt.Sprintf("%q", string(val)))}
	case []wire.ClassLink:
		return []string{prefix + ObjectStyle.Render("class " + className(val))}
	case string:
		return []string{prefix + StringStyle.Render(strconv.Quote(val))}
	case *foundation.String:
		return []string{prefix + StringStyle.Render(fmt.Sprintf("NSString %q", val.Value))}
	case *foundation.Number:
		return []string{prefix + ScalarStyle.Render(fmt.Sprintf("NSNumber(%s) %v", val.Encoding, val.Value))}
	case *foundation.Data:
		return []string{prefix + ScalarStyle.Render(fmt.Sprintf("NSData (%d bytes)", len(val.Bytes)))}
	case *foundation.Object:
		return []string{prefix + ObjectStyle.Render(className(val.ClassChain))}
	case *foundation.Array:
		lines := []string{prefix + ObjectStyle.Render(fmt.Sprintf("NSArray[%d]", len(val.Elements)))}
		for _, item := range val.Elements {
			lines = append(lines, ValueLines(item, depth+1, maxDepth)...)
		}
		return lines
	case *foundation.Dictionary:
		lines := []string{prefix + ObjectStyle.Render(fmt.Sprintf("NSDictionary[%d]", len(val.Entries)))}
		for _, entry := range val.Entries {
			lines = append(lines, prefix+"  key:")
			lines = append(lines, ValueLines(entry.Key, depth+2, maxDepth)...)
			lines = append(lines, prefix+"  value:")
			lines = append(lines, ValueLines(entry.Value, depth+2, maxDepth)...)
		}
		return lines
	default:
		return []string{prefix + ScalarStyle.Render(fmt.Sprintf("%v", val))}
	}
}

func className(chain []wire.ClassLink) string {
	if len(chain) == 0 {
		return "(anonymous)"
	}
	return chain[0].Name
}
