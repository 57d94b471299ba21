package sandbox

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type xray struct {
	Xray int
}

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TestRenderValue(t *testing.T) {
	var nilErr error
	var nilPoint *point
	three := 3
	delay := 1500 * time.Millisecond

	tests := []struct {
		name string
		v    reflect.Value
		want string
	}{
		{"invalid", reflect.Value{}, ""},
		{"int", reflect.ValueOf(42), "42"},
		{"float", reflect.ValueOf(1.5), "1.5"},
		{"string verbatim", reflect.ValueOf("hello"), "hello"},
		{"bytes as text", reflect.ValueOf([]byte("raw")), "raw"},
		{"error", reflect.ValueOf(errors.New("bad")), "bad"},
		{"stringer", reflect.ValueOf(1500 * time.Millisecond), "1.5s"},
		{"map as json", reflect.ValueOf(map[string]int{"a": 1}), `{"a":1}`},
		{"slice as json", reflect.ValueOf([]int{1, 2}), `[1,2]`},
		{"struct as json", reflect.ValueOf(point{1, 2}), `{"x":1,"y":2}`},
		{"pointer to struct as json", reflect.ValueOf(&point{3, 4}), `{"x":3,"y":4}`},
		{"nil pointer", reflect.ValueOf(nilPoint), "<nil>"},
		{"nil interface", reflect.ValueOf(&nilErr).Elem(), "<nil>"},
		{"unmarshalable falls back", reflect.ValueOf([]func(){nil}), "[<nil>]"},
		{"pointer to scalar", reflect.ValueOf(&three), "3"},
		{"pointer to stringer", reflect.ValueOf(&delay), "1.5s"},
		{"func as type", reflect.ValueOf(strings.ToUpper), "func(string) string"},
		{"chan as type", reflect.ValueOf(make(chan int)), "chan int"},
		{"host X field kept", reflect.ValueOf(xray{Xray: 1}), `{"Xray":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderValue(tt.v))
		})
	}
}

// builtPerson mimics a struct declared in a cell: the interpreter builds an
// unnamed type and stores the unexported field "age" as "Xage".
func builtPerson(name string, age int64) reflect.Value {
	typ := reflect.StructOf([]reflect.StructField{
		{Name: "Name", Type: reflect.TypeOf("")},
		{Name: "Xage", Type: reflect.TypeOf(int64(0))},
	})
	v := reflect.New(typ).Elem()
	v.Field(0).SetString(name)
	v.Field(1).SetInt(age)
	return v
}

func TestRenderValue_HidesInterpreterFields(t *testing.T) {
	p := builtPerson("a", 2)
	assert.Equal(t, `{"Name":"a"}`, RenderValue(p))

	ptr := reflect.New(p.Type())
	ptr.Elem().Set(p)
	assert.Equal(t, `{"Name":"a"}`, RenderValue(ptr))

	list := reflect.MakeSlice(reflect.SliceOf(p.Type()), 0, 2)
	list = reflect.Append(list, p, builtPerson("b", 3))
	assert.Equal(t, `[{"Name":"a"},{"Name":"b"}]`, RenderValue(list))

	byKey := reflect.MakeMap(reflect.MapOf(reflect.TypeOf(""), p.Type()))
	byKey.SetMapIndex(reflect.ValueOf("k"), p)
	assert.Equal(t, `{"k":{"Name":"a"}}`, RenderValue(byKey))
}
