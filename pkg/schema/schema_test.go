package schema

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

var testArgs = NewArgs(
	Str("container_id", "Container ID").Req(),
	Int("timeout", Int64, "Seconds").WithDefault(int64(10)),
	Int("port", Int32, "Port"),
	Int("size", Uint64, "Bytes"),
	Int("uid", Uint32, "User"),
	Bool("tty", "Allocate a TTY"),
	Num("ratio", "Ratio"),
	Str("state", "State").OneOf("RUNNING", "EXITED"),
	StrList("cmd", "Command"),
	StrMap("labels", "Labels"),
	List("mounts", "Mounts", Field{Type: Object, Fields: []Field{
		Str("host_path", "Host path").Req(),
		Bool("readonly", "Read only"),
	}}),
	Obj("filter", "Filter",
		Str("id", "ID"),
		StrMap("label_selector", "Labels"),
	),
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		wantField string
		wantIn    string
	}{
		{name: "minimal", args: map[string]any{"container_id": "abc"}},
		{name: "missing required", args: map[string]any{}, wantField: "container_id", wantIn: "required"},
		{name: "null required", args: map[string]any{"container_id": nil}, wantField: "container_id", wantIn: "required"},
		{name: "empty required string", args: map[string]any{"container_id": ""}, wantField: "container_id", wantIn: "empty"},
		{name: "wrong type", args: map[string]any{"container_id": 12}, wantField: "container_id", wantIn: "must be a string"},
		{name: "unknown top-level field", args: map[string]any{"container_id": "a", "extra": 1}, wantField: "extra", wantIn: "unknown field"},
		{name: "unknown nested field", args: map[string]any{"container_id": "a", "filter": map[string]any{"nope": "x"}}, wantField: "filter.nope", wantIn: "unknown field"},
		{name: "fractional integer", args: map[string]any{"container_id": "a", "timeout": 1.5}, wantField: "timeout", wantIn: "integer"},
		{name: "int32 overflow", args: map[string]any{"container_id": "a", "port": json.Number("2147483648")}, wantField: "port", wantIn: "out of range for int32"},
		{name: "int32 max", args: map[string]any{"container_id": "a", "port": json.Number("2147483647")}},
		{name: "negative unsigned", args: map[string]any{"container_id": "a", "size": json.Number("-1")}, wantField: "size", wantIn: "out of range for uint64"},
		{name: "uint32 overflow", args: map[string]any{"container_id": "a", "uid": json.Number("4294967296")}, wantField: "uid", wantIn: "out of range for uint32"},
		{name: "int64 overflow", args: map[string]any{"container_id": "a", "timeout": json.Number("9223372036854775808")}, wantField: "timeout", wantIn: "out of range for int64"},
		{name: "integral exponent", args: map[string]any{"container_id": "a", "timeout": json.Number("1e3")}},
		{name: "huge exponent", args: map[string]any{"container_id": "a", "timeout": json.Number("1e100000000")}, wantField: "timeout", wantIn: "value 1e100000000 out of range for int64"},
		{name: "huge negative exponent", args: map[string]any{"container_id": "a", "timeout": json.Number("1e-100000000")}, wantField: "timeout", wantIn: "must be an integer, got 1e-100000000"},
		{name: "huge unsigned exponent", args: map[string]any{"container_id": "a", "size": json.Number("-7e99999999")}, wantField: "size", wantIn: "out of range for uint64"},
		{name: "overlong token", args: map[string]any{"container_id": "a", "timeout": json.Number("1" + strings.Repeat("0", 100))}, wantField: "timeout", wantIn: "value 1" + strings.Repeat("0", 23) + "... out of range"},
		{name: "large float", args: map[string]any{"container_id": "a", "timeout": 1e300}, wantField: "timeout", wantIn: "out of range for int64"},
		{name: "NaN", args: map[string]any{"container_id": "a", "timeout": math.NaN()}, wantField: "timeout", wantIn: "finite"},
		{name: "bad enum", args: map[string]any{"container_id": "a", "state": "PAUSED"}, wantField: "state", wantIn: "one of"},
		{name: "array item type", args: map[string]any{"container_id": "a", "cmd": []any{"ls", 3}}, wantField: "cmd[1]", wantIn: "string"},
		{name: "map value type", args: map[string]any{"container_id": "a", "labels": map[string]any{"app": true}}, wantField: "labels.app", wantIn: "string"},
		{name: "nested required", args: map[string]any{"container_id": "a", "mounts": []any{map[string]any{"readonly": true}}}, wantField: "mounts[0].host_path", wantIn: "required"},
		{name: "bool type", args: map[string]any{"container_id": "a", "tty": "yes"}, wantField: "tty", wantIn: "boolean"},
		{name: "object type", args: map[string]any{"container_id": "a", "filter": []any{}}, wantField: "filter", wantIn: "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(testArgs, tt.args)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Contains(t, verr.Error(), tt.wantIn)
		})
	}
}

func TestValidateHugeNumbersFailFast(t *testing.T) {
	started := time.Now()
	_, err := Validate(testArgs, map[string]any{"container_id": "a", "timeout": json.Number("1e100000000")})
	require.Error(t, err)
	assert.Less(t, time.Since(started), time.Second)
	assert.Less(t, len(err.Error()), 100)
}

func TestValidateNormalizes(t *testing.T) {
	v, err := Decode(testArgs, []byte(`{
		"container_id": "abc",
		"size": 18446744073709551615,
		"port": 8080,
		"cmd": ["sh", "-c", "true"],
		"labels": {"app": "web"},
		"mounts": [{"host_path": "/data", "readonly": true}],
		"filter": {"id": "f1"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "abc", v.String("container_id"))
	assert.Equal(t, int64(10), v.Int64("timeout"), "default applied")
	assert.Equal(t, uint64(math.MaxUint64), v.Uint64("size"))
	assert.Equal(t, int32(8080), v.Int32("port"))
	assert.Equal(t, []string{"sh", "-c", "true"}, v.Strings("cmd"))
	assert.Equal(t, map[string]string{"app": "web"}, v.StringMap("labels"))
	require.Len(t, v.Objects("mounts"), 1)
	assert.Equal(t, "/data", v.Objects("mounts")[0].String("host_path"))
	assert.True(t, v.Objects("mounts")[0].Bool("readonly"))
	assert.Equal(t, "f1", v.Object("filter").String("id"))
	assert.False(t, v.Has("tty"))
	assert.Nil(t, v.Object("missing"))
}

func TestDecodeRaw(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{name: "empty", raw: "", wantLen: 0},
		{name: "null", raw: "null", wantLen: 0},
		{name: "object", raw: `{"a": 1}`, wantLen: 1},
		{name: "array", raw: `[1]`, wantErr: true},
		{name: "garbage", raw: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeRaw([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, m, tt.wantLen)
		})
	}
}

func TestJSONSchemaIsValidAndAcceptsMinimalArguments(t *testing.T) {
	rendered := testArgs.JSONSchema()
	assert.Equal(t, "object", rendered["type"])
	assert.Equal(t, false, rendered["additionalProperties"])
	assert.Equal(t, []string{"container_id"}, rendered["required"])

	minimal := MinimalArguments(testArgs)
	_, err := Validate(testArgs, minimal)
	require.NoError(t, err)

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(rendered),
		gojsonschema.NewGoLoader(minimal),
	)
	require.NoError(t, err)
	assert.True(t, result.Valid(), "%v", result.Errors())

	result, err = gojsonschema.Validate(
		gojsonschema.NewGoLoader(rendered),
		gojsonschema.NewGoLoader(map[string]any{"container_id": "a", "port": 1 << 40}),
	)
	require.NoError(t, err)
	assert.False(t, result.Valid(), "int32 bound must be rendered")
}
