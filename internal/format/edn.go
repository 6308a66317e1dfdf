package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"school-schedule/internal/model"
)

// WriteEDN writes an EDN representation of v. Structs go through their JSON form,
// so field names follow the json tags with underscores turned into dashes
// (item_library becomes :item-library). Weekly schedules list their days monday
// first; other maps are sorted by key, which keeps exception dates chronological.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}

	enc := ednEncoder{pretty: pretty}
	enc.value(x, 0)
	enc.buf.WriteByte('\n')
	_, err = w.Write(enc.buf.Bytes())
	return err
}

const ednIndent = "  "

type ednEncoder struct {
	buf    bytes.Buffer
	pretty bool
}

func (e *ednEncoder) value(v any, level int) {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("nil")
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case string:
		e.buf.WriteString(strconv.Quote(t))
	case float64:
		// JSON numbers decode as float64; counts print without a fraction.
		if t == float64(int64(t)) {
			e.buf.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			e.buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		}
	case []any:
		e.seq('[', ']', len(t), level, func(i int) { e.value(t[i], level+1) })
	case map[string]any:
		keys := ednKeyOrder(t)
		e.seq('{', '}', len(keys), level, func(i int) {
			e.key(keys[i])
			e.buf.WriteByte(' ')
			e.value(t[keys[i]], level+1)
		})
	default:
		e.buf.WriteString(strconv.Quote(fmt.Sprint(v)))
	}
}

// seq writes n elements between start and end, one per line when pretty.
func (e *ednEncoder) seq(start, end byte, n, level int, elem func(i int)) {
	e.buf.WriteByte(start)
	for i := 0; i < n; i++ {
		switch {
		case e.pretty:
			e.buf.WriteByte('\n')
			e.buf.WriteString(strings.Repeat(ednIndent, level+1))
		case i > 0:
			e.buf.WriteByte(' ')
		}
		elem(i)
	}
	if e.pretty && n > 0 {
		e.buf.WriteByte('\n')
		e.buf.WriteString(strings.Repeat(ednIndent, level))
	}
	e.buf.WriteByte(end)
}

func (e *ednEncoder) key(k string) {
	if kw, ok := ednKeyword(k); ok {
		e.buf.WriteByte(':')
		e.buf.WriteString(kw)
		return
	}
	e.buf.WriteString(strconv.Quote(k))
}

// ednKeyOrder sorts map keys, putting weekday names in week order ahead of the rest.
func ednKeyOrder(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := weekdayIndex(keys[i]), weekdayIndex(keys[j])
		if di != dj {
			return di < dj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func weekdayIndex(k string) int {
	for i, d := range model.Weekdays {
		if string(d) == k {
			return i
		}
	}
	return len(model.Weekdays)
}

// ednKeyword maps a JSON key to a keyword name. Keys that are not plain identifiers
// (child names, ISO dates) stay strings.
func ednKeyword(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return "", false
		}
	}
	return strings.ReplaceAll(s, "_", "-"), true
}
