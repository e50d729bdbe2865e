package container

import (
	"bytes"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"
)

// instanceCache holds constructed instances keyed by (canonical name,
// invocation args). Entries never expire; a nil instance is a valid entry.
type instanceCache struct {
	store *gocache.Cache
}

func newInstanceCache() *instanceCache {
	// cleanupInterval 0: no janitor goroutine, nothing ever expires.
	return &instanceCache{store: gocache.New(gocache.NoExpiration, 0)}
}

func (c *instanceCache) get(key string) (any, bool) {
	return c.store.Get(key)
}

func (c *instanceCache) put(key string, instance any) {
	c.store.Set(key, instance, gocache.NoExpiration)
}

func (c *instanceCache) len() int {
	return c.store.ItemCount()
}

func (c *instanceCache) clone() *instanceCache {
	return &instanceCache{store: gocache.NewFrom(gocache.NoExpiration, 0, c.store.Items())}
}

// cacheKey discriminates cache entries by name and argument structure. It is
// only stable within one process.
func cacheKey(name string, args []any) string {
	var buf bytes.Buffer
	for _, a := range args {
		flatten(&buf, reflect.ValueOf(a), make(map[visit]struct{}))
		buf.WriteByte(0x1e)
	}
	return name + "#" + strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16)
}

// visit identifies a pointer, slice or map already on the flatten path.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

// enter records v on the current path. It reports false, after writing a
// back-reference, when v is already on it.
func enter(buf *bytes.Buffer, v reflect.Value, seen map[visit]struct{}) (visit, bool) {
	key := visit{ptr: v.Pointer(), typ: v.Type()}
	if _, ok := seen[key]; ok {
		fmt.Fprintf(buf, "%s:cycle;", v.Type())
		return key, false
	}
	seen[key] = struct{}{}
	return key, true
}

// flatten writes an order-preserving representation of v. Map keys are
// sorted by their own representation; pointers are followed, and a pointer,
// slice or map revisited on the current path is written as a back-reference.
func flatten(buf *bytes.Buffer, v reflect.Value, seen map[visit]struct{}) {
	if !v.IsValid() {
		buf.WriteString("nil;")
		return
	}

	t := v.Type()
	switch v.Kind() {
	case reflect.Bool:
		fmt.Fprintf(buf, "%s:%t;", t, v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fmt.Fprintf(buf, "%s:%d;", t, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		fmt.Fprintf(buf, "%s:%d;", t, v.Uint())
	case reflect.Float32, reflect.Float64:
		fmt.Fprintf(buf, "%s:%s;", t, strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		fmt.Fprintf(buf, "%s:%v;", t, v.Complex())
	case reflect.String:
		fmt.Fprintf(buf, "%s:%q;", t, v.String())

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Len() > 0 {
			key, ok := enter(buf, v, seen)
			if !ok {
				return
			}
			defer delete(seen, key)
		}
		fmt.Fprintf(buf, "%s[%d]", t, v.Len())
		for i := 0; i < v.Len(); i++ {
			flatten(buf, v.Index(i), seen)
		}
		buf.WriteString("];")

	case reflect.Map:
		if v.Len() > 0 {
			key, ok := enter(buf, v, seen)
			if !ok {
				return
			}
			defer delete(seen, key)
		}
		type pair struct{ k, v []byte }
		pairs := make([]pair, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			var kb, vb bytes.Buffer
			flatten(&kb, iter.Key(), seen)
			flatten(&vb, iter.Value(), seen)
			pairs = append(pairs, pair{kb.Bytes(), vb.Bytes()})
		}
		slices.SortFunc(pairs, func(a, b pair) int { return bytes.Compare(a.k, b.k) })
		fmt.Fprintf(buf, "%s{%d", t, len(pairs))
		for _, p := range pairs {
			buf.Write(p.k)
			buf.WriteByte('=')
			buf.Write(p.v)
		}
		buf.WriteString("};")

	case reflect.Struct:
		fmt.Fprintf(buf, "%s{", t)
		for i := 0; i < v.NumField(); i++ {
			buf.WriteString(t.Field(i).Name)
			buf.WriteByte('=')
			flatten(buf, v.Field(i), seen)
		}
		buf.WriteString("};")

	case reflect.Pointer:
		if v.IsNil() {
			fmt.Fprintf(buf, "%s:nil;", t)
			return
		}
		key, ok := enter(buf, v, seen)
		if !ok {
			return
		}
		buf.WriteByte('&')
		flatten(buf, v.Elem(), seen)
		delete(seen, key)

	case reflect.Interface:
		if v.IsNil() {
			buf.WriteString("nil;")
			return
		}
		flatten(buf, v.Elem(), seen)

	default:
		// func, chan, unsafe.Pointer: identity is all there is.
		fmt.Fprintf(buf, "%s@%x;", t, v.Pointer())
	}
}
