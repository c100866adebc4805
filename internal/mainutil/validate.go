package mainutil

import (
	"fmt"
	"reflect"
	"strconv"

	"gopkg.in/validator.v2"
)

// Validate checks an Options struct against its "traits" tags, e.g.
// `traits:"ge=1"`. Errors read like a question about the offending field.
func Validate(v interface{}) error {
	vt := validator.NewValidator()
	vt.SetTag("traits")
	vt.SetValidationFunc("nz", compare("nz"))
	vt.SetValidationFunc("gt", compare("gt"))
	vt.SetValidationFunc("ge", compare("ge"))
	vt.SetValidationFunc("lt", compare("lt"))
	vt.SetValidationFunc("le", compare("le"))
	errs, _ := vt.Validate(v).(validator.ErrorMap)
	for k, err := range errs {
		if len(err[0].Error()) > 0 {
			return fmt.Errorf("%s %s?", k, err)
		}
		return fmt.Errorf("%s?", k)
	}
	return nil
}

func compare(op string) validator.ValidationFunc {
	return func(v interface{}, param string) error {
		st := reflect.ValueOf(v)
		if st.Kind() == reflect.Ptr {
			if st.IsNil() {
				return nil
			}
			st = st.Elem()
		}
		var x, p float64
		switch st.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			x = float64(st.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			x = float64(st.Uint())
		case reflect.Float32, reflect.Float64:
			x = st.Float()
		default:
			panic("mainutil.Validate: unsupported type")
		}
		if op != "nz" {
			var err error
			if p, err = strconv.ParseFloat(param, 64); err != nil {
				panic(fmt.Sprintf("mainutil.Validate: %s", err))
			}
		}
		switch op {
		case "nz":
			if x == 0 {
				return fmt.Errorf("")
			}
		case "gt":
			if !(x > p) {
				return fmt.Errorf("<= %s", param)
			}
		case "ge":
			if !(x >= p) {
				return fmt.Errorf("< %s", param)
			}
		case "lt":
			if !(x < p) {
				return fmt.Errorf(">= %s", param)
			}
		case "le":
			if !(x <= p) {
				return fmt.Errorf("> %s", param)
			}
		}
		return nil
	}
}
