package protodyn

import (
	"strings"
	"testing"
)

func TestVerify_ValidRequest(t *testing.T) {
	p := newSearchAPI(t)

	request := map[string]interface{}{
		"query":          "invoice",
		"top_k":          int32(5),
		"document_types": []interface{}{int32(1), int32(4)},
		"authors":        []string{"ada", "grace"},
		"metadata_filters": map[string]string{
			"department": "finance",
		},
		"offset": int64(20),
	}
	if err := p.Verify(request, "SearchDocsRequest"); err != nil {
		t.Errorf("Verify rejected a valid request: %v", err)
	}
}

func TestVerify_AbsentFieldsAreValid(t *testing.T) {
	p := newSearchAPI(t)

	if err := p.Verify(map[string]interface{}{}, "SearchDocsRequest"); err != nil {
		t.Errorf("Verify rejected empty object: %v", err)
	}
	if err := p.Verify(map[string]interface{}{"query": nil}, "SearchDocsRequest"); err != nil {
		t.Errorf("Verify rejected explicit nil field: %v", err)
	}
}

func TestVerify_TopLevelShape(t *testing.T) {
	p := newSearchAPI(t)

	for _, bad := range []interface{}{nil, "a string", 42, []interface{}{}, true} {
		err := p.Verify(bad, "SearchDocsRequest")
		if err == nil {
			t.Errorf("Verify(%v) accepted a non-object", bad)
			continue
		}
		if !strings.Contains(err.Error(), "object expected") {
			t.Errorf("Verify(%v) = %q, want object expected", bad, err)
		}
	}
}

func TestVerify_DotPaths(t *testing.T) {
	p := newSearchAPI(t)

	cases := []struct {
		name    string
		value   map[string]interface{}
		msgType string
		want    string
	}{
		{
			name:    "scalar type mismatch",
			value:   map[string]interface{}{"query": 42},
			msgType: "SearchDocsRequest",
			want:    "query: string expected",
		},
		{
			name:    "repeated not a list",
			value:   map[string]interface{}{"authors": "just one"},
			msgType: "SearchDocsRequest",
			want:    "authors: array expected",
		},
		{
			name: "nested element path",
			value: map[string]interface{}{
				"results": []interface{}{
					map[string]interface{}{"id": "ok"},
					map[string]interface{}{"title": 99},
				},
			},
			msgType: "SearchDocsResponse",
			want:    "results.1.title: string expected",
		},
		{
			name: "map entry path",
			value: map[string]interface{}{
				"facet_counts": map[string]interface{}{"pdf": "twelve"},
			},
			msgType: "SearchDocsResponse",
			want:    "facet_counts.pdf: integer expected",
		},
		{
			name: "map not an object",
			value: map[string]interface{}{
				"metadata_filters": []interface{}{"a"},
			},
			msgType: "SearchDocsRequest",
			want:    "metadata_filters: object expected",
		},
		{
			name: "submessage not an object",
			value: map[string]interface{}{
				"results": []interface{}{"not a message"},
			},
			msgType: "SearchDocsResponse",
			want:    "results.0: object expected",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Verify(tc.value, tc.msgType)
			if err == nil {
				t.Fatal("expected verification error")
			}
			if err.Error() != tc.want {
				t.Errorf("Verify = %q, want %q", err, tc.want)
			}
		})
	}
}

func TestVerify_EnumMembership(t *testing.T) {
	p := newSearchAPI(t)

	// Declared ordinals pass
	for _, ordinal := range []interface{}{int32(0), int32(4), 1, float64(2)} {
		err := p.Verify(map[string]interface{}{
			"document_types": []interface{}{ordinal},
		}, "SearchDocsRequest")
		if err != nil {
			t.Errorf("Verify rejected declared ordinal %v: %v", ordinal, err)
		}
	}

	// Undeclared ordinals and symbolic names do not
	for _, bad := range []interface{}{int32(99), "DOCUMENT_TYPE_PDF", 2.5} {
		err := p.Verify(map[string]interface{}{
			"document_types": []interface{}{bad},
		}, "SearchDocsRequest")
		if err == nil {
			t.Errorf("Verify accepted %v as enum value", bad)
		}
	}
}

func TestVerify_BytesAcceptBufferAndString(t *testing.T) {
	p := newSearchAPI(t)

	for _, ok := range []interface{}{[]byte{1, 2}, "aGVsbG8="} {
		err := p.Verify(map[string]interface{}{
			"results": []interface{}{map[string]interface{}{"content_hash": ok}},
		}, "SearchDocsResponse")
		if err != nil {
			t.Errorf("Verify rejected bytes value %v: %v", ok, err)
		}
	}
	err := p.Verify(map[string]interface{}{
		"results": []interface{}{map[string]interface{}{"content_hash": 42}},
	}, "SearchDocsResponse")
	if err == nil {
		t.Error("Verify accepted integer as bytes value")
	}
}

func TestVerify_NumbersAndIntegers(t *testing.T) {
	p := newSearchAPI(t)

	// Integral floats qualify as integers, fractional ones do not
	if err := p.Verify(map[string]interface{}{"top_k": float64(5)}, "SearchDocsRequest"); err != nil {
		t.Errorf("Verify rejected integral float: %v", err)
	}
	if err := p.Verify(map[string]interface{}{"top_k": 5.5}, "SearchDocsRequest"); err == nil {
		t.Error("Verify accepted fractional float as integer")
	}
	// Decimal strings are not valid in verify, only in FromObject
	if err := p.Verify(map[string]interface{}{"top_k": "5"}, "SearchDocsRequest"); err == nil {
		t.Error("Verify accepted decimal string as integer")
	}
	// Any numeric shape is fine for doubles
	if err := p.Verify(map[string]interface{}{"elapsed": int64(3)}, "SearchDocsResponse"); err != nil {
		t.Errorf("Verify rejected integer for double field: %v", err)
	}
}

func TestVerify_NeverPanics(t *testing.T) {
	p := newSearchAPI(t)

	shapes := []interface{}{
		nil,
		struct{}{},
		map[int]string{1: "a"},
		map[string]interface{}{"results": map[string]interface{}{}},
		map[string]interface{}{"results": []interface{}{nil}},
		map[string]interface{}{"facet_counts": map[string]interface{}{"k": struct{}{}}},
		map[string]interface{}{"results": []interface{}{
			map[string]interface{}{"content_hash": []interface{}{[]interface{}{}}},
		}},
	}
	for _, shape := range shapes {
		// Only freedom from panics matters here; some shapes are valid.
		_ = p.Verify(shape, "SearchDocsResponse")
	}
}

func TestVerify_DoesNotMutateInput(t *testing.T) {
	p := newSearchAPI(t)

	request := map[string]interface{}{
		"query":   "stable",
		"authors": []interface{}{"ada"},
	}
	_ = p.Verify(request, "SearchDocsRequest")

	if len(request) != 2 || request["query"] != "stable" {
		t.Errorf("Verify mutated its input: %v", request)
	}
}
