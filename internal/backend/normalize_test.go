package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type course struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func TestNormalizeBareArray(t *testing.T) {
	body := []byte(`[{"id":"c1","code":"CS101","name":"Intro"}]`)
	assert.JSONEq(t, string(body), string(Normalize(body)))
}

func TestNormalizeEnveloped(t *testing.T) {
	body := []byte(`{"data":[{"id":"c1","code":"CS101","name":"Intro"}],"total":1}`)
	assert.JSONEq(t, `[{"id":"c1","code":"CS101","name":"Intro"}]`, string(Normalize(body)))
}

func TestNormalizeUnrecognizedShapes(t *testing.T) {
	cases := map[string]string{
		"object without data": `{"items":[1,2]}`,
		"data not an array":   `{"data":{"id":"c1"}}`,
		"data null":           `{"data":null}`,
		"scalar":              `42`,
		"string":              `"hello"`,
		"null":                `null`,
		"empty body":          ``,
		"invalid json":        `{nope`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			assert.JSONEq(t, `[]`, string(Normalize([]byte(body))),
				"unrecognized shapes must degrade to an empty list")
		})
	}
}

func TestNormalizeWhitespacePrefix(t *testing.T) {
	body := []byte("\n\t [1,2,3]")
	assert.JSONEq(t, `[1,2,3]`, string(Normalize(body)))
}

func TestDecodeListBareArray(t *testing.T) {
	got := DecodeList[course]([]byte(`[{"id":"c1","code":"CS101","name":"Intro"}]`))
	assert.Equal(t, []course{{ID: "c1", Code: "CS101", Name: "Intro"}}, got)
}

func TestDecodeListEnveloped(t *testing.T) {
	got := DecodeList[course]([]byte(`{"data":[{"id":"c1","code":"CS101","name":"Intro"}]}`))
	assert.Equal(t, []course{{ID: "c1", Code: "CS101", Name: "Intro"}}, got)
}

func TestDecodeListFailSoft(t *testing.T) {
	got := DecodeList[course]([]byte(`{"message":"unexpected"}`))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecodeListEmptyArray(t *testing.T) {
	got := DecodeList[course]([]byte(`[]`))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
