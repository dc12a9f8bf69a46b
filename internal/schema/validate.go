package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/dataprowler/dataprowler/internal/maputil"
)

const tagName = "mapstructure"

var (
	structValidator = newStructValidator()

	quotedName  = regexp.MustCompile(`'([^']*)'`)
	indexSuffix = regexp.MustCompile(`\[[^\]]*\]`)

	decimalInt   = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalFloat = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// Validate decodes raw onto Defaults() and checks the semantic rules.
//
// Decoding is weakly typed: "30" fills an int, "true" a bool and
// "google,bing" a []string. A value that cannot be converted, such as "abc"
// or "" for an int and 2.5 for an int, is a failure. Keys unknown to the
// schema are ignored and null values count as missing. On failure the
// returned error is a *SchemaValidationError holding every failing field from
// both phases.
func Validate(raw map[string]any) (*Settings, error) {
	settings := Defaults()
	var fields []FieldError

	if err := decode(withoutNulls(maputil.Clone(raw)), settings); err != nil {
		fields = append(fields, decodeFieldErrors(err)...)
	}

	if err := structValidator.Struct(settings); err != nil {
		fields = append(fields, ruleFieldErrors(err)...)
	}

	if len(fields) > 0 {
		return nil, &SchemaValidationError{Fields: fields}
	}
	return settings, nil
}

func decode(raw map[string]any, out *Settings) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          tagName,
		WeaklyTypedInput: true,
		// Lists and maps from the input replace the defaults instead of
		// being written into them element by element.
		ZeroFields: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			rejectFractionalInts,
			rejectLooseScalars,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	return decoder.Decode(raw)
}

// withoutNulls removes nil values so the defaults underneath them survive.
func withoutNulls(m map[string]any) map[string]any {
	for key, value := range m {
		switch typed := value.(type) {
		case nil:
			delete(m, key)
		case map[string]any:
			withoutNulls(typed)
		}
	}
	return m
}

// rejectFractionalInts stops mapstructure from truncating 2.5 into 2.
func rejectFractionalInts(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		f := reflect.ValueOf(data).Float()
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected an integer, got %v", data)
		}
	}
	return data, nil
}

// rejectLooseScalars runs before the weak conversions, which would turn ""
// into 0 or false and parse "0x10" or "1_000" as integers.
func rejectLooseScalars(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !decimalInt.MatchString(s) {
			return nil, fmt.Errorf("expected an integer, got %q", s)
		}
	case reflect.Float32, reflect.Float64:
		if !decimalFloat.MatchString(s) {
			return nil, fmt.Errorf("expected a number, got %q", s)
		}
	case reflect.Bool:
		if s == "" {
			return nil, errors.New("expected a boolean, got an empty string")
		}
	}
	return data, nil
}

// decodeFieldErrors turns a decode failure into one FieldError per failing
// field. mapstructure joins the per-field errors, nesting one join per struct
// level, and wraps the outermost join once.
func decodeFieldErrors(err error) []FieldError {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []FieldError{decodeFieldError(err)}
	}
	leaves := leafErrors(joined.Unwrap())
	fields := make([]FieldError, 0, len(leaves))
	for _, leaf := range leaves {
		fields = append(fields, decodeFieldError(leaf))
	}
	return fields
}

func leafErrors(errs []error) []error {
	var out []error
	for _, err := range errs {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			out = append(out, leafErrors(joined.Unwrap())...)
			continue
		}
		out = append(out, err)
	}
	return out
}

func decodeFieldError(err error) FieldError {
	msg := err.Error()
	path := ""
	if m := quotedName.FindStringSubmatch(msg); m != nil {
		path = normalizePath(m[1])
	}
	return FieldError{Path: path, Reason: msg}
}

func ruleFieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Reason: err.Error()}}
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Path:   normalizePath(stripRoot(fe.Namespace())),
			Reason: ruleReason(fe),
		})
	}
	return fields
}

func ruleReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("unsupported value %q, must be one of: %s",
			fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

// stripRoot drops the struct type name validator puts in front of every
// namespace ("Settings.cache.type").
func stripRoot(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func normalizePath(p string) string {
	return indexSuffix.ReplaceAllString(p, "")
}

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get(tagName), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
