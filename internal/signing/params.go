package signing

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mrz1836/zipsign/internal/constants"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// Params are the immutable start parameters of one interaction.
type Params struct {
	InputFile         string `param:"inputFile" validate:"required"`
	OutputFile        string `param:"outputFile" validate:"required"`
	KeyMode           string `param:"keyMode"`
	ShowProgressItems bool   `param:"showProgressItems"`
}

// Defaults are substituted for optional parameters the caller left out.
type Defaults struct {
	KeyMode           string
	ShowProgressItems bool
}

// DefaultParamDefaults returns the built-in defaults.
func DefaultParamDefaults() Defaults {
	return Defaults{
		KeyMode:           constants.DefaultKeyMode,
		ShowProgressItems: constants.DefaultShowProgressItems,
	}
}

// ParseParams reads the string-keyed start parameters.
//
// Missing optional values are replaced from d. Required values are not
// checked here; the Worker validates them when it starts so that a missing
// location surfaces as a failed interaction instead of a caller error.
func ParseParams(extras map[string]string, d Defaults) Params {
	p := Params{
		InputFile:         extras[constants.ParamInputFile],
		OutputFile:        extras[constants.ParamOutputFile],
		KeyMode:           extras[constants.ParamKeyMode],
		ShowProgressItems: d.ShowProgressItems,
	}
	if v, ok := extras[constants.ParamShowProgressItems]; ok {
		p.ShowProgressItems = strings.EqualFold(v, "true")
	}
	return p.WithDefaults(d)
}

// WithDefaults returns a copy of p with an empty key mode replaced from d.
func (p Params) WithDefaults(d Defaults) Params {
	if p.KeyMode == "" {
		p.KeyMode = d.KeyMode
	}
	if p.KeyMode == "" {
		p.KeyMode = constants.DefaultKeyMode
	}
	return p
}

// Validate checks the required locations, input first.
// The returned error is an *errors.ArgumentError naming the parameter.
func (p Params) Validate() error {
	err := paramValidator().Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return zserrors.NewMissingParameter(fe.Field())
	}
	return &zserrors.ArgumentError{Param: fe.Field(), Reason: "failed " + fe.Tag() + " check"}
}

// Extras renders p back into the string-keyed form.
func (p Params) Extras() map[string]string {
	show := "false"
	if p.ShowProgressItems {
		show = "true"
	}
	return map[string]string{
		constants.ParamInputFile:         p.InputFile,
		constants.ParamOutputFile:        p.OutputFile,
		constants.ParamKeyMode:           p.KeyMode,
		constants.ParamShowProgressItems: show,
	}
}

var (
	validatorOnce sync.Once          //nolint:gochecknoglobals // Singleton validator
	validate      *validator.Validate //nolint:gochecknoglobals // Singleton validator
)

// paramValidator returns the shared validator, reporting fields by their
// parameter key rather than their Go name.
func paramValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("param")
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		validate = v
	})
	return validate
}
