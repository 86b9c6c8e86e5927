package protodyn

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ===== FROM OBJECT =====

func TestFromObject_JSONShapes(t *testing.T) {
	p := newSearchAPI(t)

	// The shapes encoding/json produces: float64 numbers, plain maps,
	// []interface{} slices, enum names.
	obj := map[string]interface{}{
		"query":          "invoice",
		"top_k":          float64(5),
		"document_types": []interface{}{"DOCUMENT_TYPE_PDF", float64(4)},
		"metadata_filters": map[string]interface{}{
			"department": "finance",
		},
		"offset": "9007199254740993", // 2^53+1, unrepresentable as float64
	}

	converted, err := p.FromObject(obj, "SearchDocsRequest")
	if err != nil {
		t.Fatalf("FromObject failed: %v", err)
	}

	want := map[string]interface{}{
		"query":          "invoice",
		"top_k":          int32(5),
		"document_types": []interface{}{int32(1), int32(4)},
		"metadata_filters": map[string]interface{}{
			"department": "finance",
		},
		"offset": int64(9007199254740993),
	}
	if diff := cmp.Diff(want, converted); diff != "" {
		t.Errorf("FromObject mismatch (-want +got):\n%s", diff)
	}
}

func TestFromObject_Idempotent(t *testing.T) {
	p := newSearchAPI(t)

	canonical := map[string]interface{}{
		"query":          "invoice",
		"top_k":          int32(5),
		"document_types": []interface{}{int32(1)},
		"offset":         int64(20),
	}
	once, err := p.FromObject(canonical, "SearchDocsRequest")
	if err != nil {
		t.Fatalf("FromObject failed: %v", err)
	}
	twice, err := p.FromObject(once, "SearchDocsRequest")
	if err != nil {
		t.Fatalf("FromObject failed on own output: %v", err)
	}
	if diff := cmp.Diff(canonical, twice); diff != "" {
		t.Errorf("FromObject not idempotent (-want +got):\n%s", diff)
	}
}

func TestFromObject_BytesForms(t *testing.T) {
	p := newSearchAPI(t)

	cases := []struct {
		name string
		in   interface{}
	}{
		{"buffer", []byte("hello")},
		{"base64", "aGVsbG8="},
		{"byte array", []interface{}{float64(104), float64(101), float64(108), float64(108), float64(111)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			converted, err := p.FromObject(map[string]interface{}{
				"results": []interface{}{map[string]interface{}{"content_hash": tc.in}},
			}, "SearchDocsResponse")
			if err != nil {
				t.Fatalf("FromObject failed: %v", err)
			}
			results := converted["results"].([]interface{})
			got := results[0].(map[string]interface{})["content_hash"].([]byte)
			if string(got) != "hello" {
				t.Errorf("content_hash = %q, want hello", got)
			}
		})
	}

	_, err := p.FromObject(map[string]interface{}{
		"results": []interface{}{map[string]interface{}{"content_hash": "not base64!"}},
	}, "SearchDocsResponse")
	if err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestFromObject_EnumHandling(t *testing.T) {
	p := newSearchAPI(t)

	// Unknown symbolic names are an error
	_, err := p.FromObject(map[string]interface{}{
		"document_types": []interface{}{"DOCUMENT_TYPE_BOGUS"},
	}, "SearchDocsRequest")
	if err == nil {
		t.Fatal("expected error for unknown enum name")
	}

	// Unknown numeric ordinals pass through for forward compatibility
	converted, err := p.FromObject(map[string]interface{}{
		"document_types": []interface{}{float64(99)},
	}, "SearchDocsRequest")
	if err != nil {
		t.Fatalf("FromObject rejected unknown ordinal: %v", err)
	}
	types := converted["document_types"].([]interface{})
	if types[0] != int32(99) {
		t.Errorf("ordinal = %v, want int32(99)", types[0])
	}
}

func TestFromObject_ErrorPaths(t *testing.T) {
	p := newSearchAPI(t)

	_, err := p.FromObject(map[string]interface{}{
		"results": []interface{}{map[string]interface{}{"token_count": "many"}},
	}, "SearchDocsResponse")
	if err == nil {
		t.Fatal("expected conversion error")
	}
	if err.Error() != "results.0.token_count: integer expected" {
		t.Errorf("error = %q, want dot path", err)
	}
}

func TestFromObject_DoesNotMutateInput(t *testing.T) {
	p := newSearchAPI(t)

	obj := map[string]interface{}{
		"top_k":          float64(5),
		"document_types": []interface{}{"DOCUMENT_TYPE_PDF"},
	}
	if _, err := p.FromObject(obj, "SearchDocsRequest"); err != nil {
		t.Fatalf("FromObject failed: %v", err)
	}
	if obj["top_k"] != float64(5) {
		t.Errorf("top_k mutated to %v", obj["top_k"])
	}
	if obj["document_types"].([]interface{})[0] != "DOCUMENT_TYPE_PDF" {
		t.Errorf("document_types mutated to %v", obj["document_types"])
	}
}

// ===== TO OBJECT =====

func TestToObject_ZeroOptionsOmitAbsent(t *testing.T) {
	p := newSearchAPI(t)

	obj, err := p.ToObject(map[string]interface{}{"query": "x"}, "SearchDocsRequest", ConvertOptions{})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}
	want := map[string]interface{}{"query": "x"}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Errorf("ToObject mismatch (-want +got):\n%s", diff)
	}
}

func TestToObject_ArraysAndObjects(t *testing.T) {
	p := newSearchAPI(t)

	obj, err := p.ToObject(map[string]interface{}{
		"query": "invoice",
	}, "SearchDocsRequest", ConvertOptions{Arrays: true, Objects: true})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}

	want := map[string]interface{}{
		"query":            "invoice",
		"document_types":   []interface{}{},
		"authors":          []interface{}{},
		"metadata_filters": map[string]interface{}{},
	}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Errorf("ToObject mismatch (-want +got):\n%s", diff)
	}
}

func TestToObject_Defaults(t *testing.T) {
	p := newSearchAPI(t)

	obj, err := p.ToObject(map[string]interface{}{}, "DocumentSummary", ConvertOptions{
		Defaults: true,
		Enums:    EnumName,
		Longs:    LongString,
		Bytes:    BytesBase64,
	})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}

	want := map[string]interface{}{
		"id":           "",
		"title":        "",
		"token_count":  "0",
		"type":         "DOCUMENT_TYPE_UNSPECIFIED",
		"score":        float64(0),
		"content_hash": "",
		"checksum":     "0",
	}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Errorf("ToObject defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestToObject_LongStringKeepsPrecision(t *testing.T) {
	p := newSearchAPI(t)

	// 2^53+1 collapses to 2^53 if it ever travels through a float64
	big := int64(9007199254740993)
	obj, err := p.ToObject(map[string]interface{}{
		"results": []interface{}{map[string]interface{}{"token_count": big}},
	}, "SearchDocsResponse", ConvertOptions{Longs: LongString})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}
	results := obj["results"].([]interface{})
	got := results[0].(map[string]interface{})["token_count"]
	if got != "9007199254740993" {
		t.Fatalf("token_count = %v, want 9007199254740993", got)
	}

	// And back, still exact
	back, err := p.FromObject(obj, "SearchDocsResponse")
	if err != nil {
		t.Fatalf("FromObject failed: %v", err)
	}
	results = back["results"].([]interface{})
	if results[0].(map[string]interface{})["token_count"] != big {
		t.Errorf("round trip lost precision: %v", results[0])
	}
}

func TestToObject_EnumModes(t *testing.T) {
	p := newSearchAPI(t)

	data := map[string]interface{}{
		"results": []interface{}{
			map[string]interface{}{"type": int32(1)},
			map[string]interface{}{"type": int32(99)},
		},
	}

	ordinal, err := p.ToObject(data, "SearchDocsResponse", ConvertOptions{})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}
	results := ordinal["results"].([]interface{})
	if results[0].(map[string]interface{})["type"] != int32(1) {
		t.Errorf("ordinal mode: %v", results[0])
	}

	named, err := p.ToObject(data, "SearchDocsResponse", ConvertOptions{Enums: EnumName})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}
	results = named["results"].([]interface{})
	if results[0].(map[string]interface{})["type"] != "DOCUMENT_TYPE_PDF" {
		t.Errorf("name mode: %v", results[0])
	}
	// Undeclared ordinal falls back to the raw number
	if results[1].(map[string]interface{})["type"] != int32(99) {
		t.Errorf("unknown ordinal under name mode: %v", results[1])
	}
}

func TestToObject_BytesModes(t *testing.T) {
	p := newSearchAPI(t)

	data := map[string]interface{}{
		"results": []interface{}{
			map[string]interface{}{"content_hash": []byte("hi")},
		},
	}

	extract := func(obj map[string]interface{}) interface{} {
		results := obj["results"].([]interface{})
		return results[0].(map[string]interface{})["content_hash"]
	}

	buffer, err := p.ToObject(data, "SearchDocsResponse", ConvertOptions{})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}
	got := extract(buffer).([]byte)
	if string(got) != "hi" {
		t.Errorf("buffer mode = %q", got)
	}
	// Must be a copy, not an alias of the source
	got[0] = 'X'
	if string(data["results"].([]interface{})[0].(map[string]interface{})["content_hash"].([]byte)) != "hi" {
		t.Error("buffer mode aliased the source bytes")
	}

	arr, err := p.ToObject(data, "SearchDocsResponse", ConvertOptions{Bytes: BytesArray})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}
	if diff := cmp.Diff([]int{104, 105}, extract(arr)); diff != "" {
		t.Errorf("array mode mismatch (-want +got):\n%s", diff)
	}

	b64, err := p.ToObject(data, "SearchDocsResponse", ConvertOptions{Bytes: BytesBase64})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}
	if extract(b64) != "aGk=" {
		t.Errorf("base64 mode = %v", extract(b64))
	}
}

func TestToObject_JSONSpecialFloats(t *testing.T) {
	p := newSearchAPI(t)

	cases := map[string]float64{
		"NaN":       math.NaN(),
		"Infinity":  math.Inf(1),
		"-Infinity": math.Inf(-1),
	}
	for want, f := range cases {
		obj, err := p.ToObject(map[string]interface{}{"elapsed": f}, "SearchDocsResponse", ConvertOptions{JSON: true})
		if err != nil {
			t.Fatalf("ToObject failed: %v", err)
		}
		if obj["elapsed"] != want {
			t.Errorf("elapsed = %v, want %q", obj["elapsed"], want)
		}
	}

	// Without the JSON option the raw float survives
	obj, err := p.ToObject(map[string]interface{}{"elapsed": math.Inf(1)}, "SearchDocsResponse", ConvertOptions{})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}
	if f, ok := obj["elapsed"].(float64); !ok || !math.IsInf(f, 1) {
		t.Errorf("elapsed = %v, want +Inf", obj["elapsed"])
	}
}

func TestToObject_AfterUnmarshal(t *testing.T) {
	p := newSearchAPI(t)

	data, err := p.Marshal(map[string]interface{}{
		"query":          "invoice",
		"top_k":          int32(5),
		"document_types": []interface{}{int32(1), int32(4)},
	}, "SearchDocsRequest")
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	decoded, err := p.Unmarshal(data, "SearchDocsRequest")
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	obj, err := p.ToObject(decoded, "SearchDocsRequest", ConvertOptions{
		Arrays:  true,
		Objects: true,
		Enums:   EnumName,
		Longs:   LongString,
	})
	if err != nil {
		t.Fatalf("ToObject failed: %v", err)
	}

	want := map[string]interface{}{
		"query":            "invoice",
		"top_k":            int32(5),
		"document_types":   []interface{}{"DOCUMENT_TYPE_PDF", "DOCUMENT_TYPE_TEXT"},
		"authors":          []interface{}{},
		"metadata_filters": map[string]interface{}{},
	}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Errorf("end to end mismatch (-want +got):\n%s", diff)
	}
}
