package service

import (
	"errors"
	"reflect"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	moneyTag  = "money"
	moneyText = "{0} must be a non-negative amount"
)

var (
	validate   = validator.New(validator.WithRequiredStructEnabled())
	translator ut.Translator
)

func init() {
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(moneyTag, func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})
	_ = validate.RegisterTranslation(moneyTag, translator,
		func(t ut.Translator) error { return t.Add(moneyTag, moneyText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(moneyTag, fe.Field())
			return s
		},
	)
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

var errInvalidRequest = errors.New("invalid request")

// validateRequest checks msg against its validate tags. Failures become an
// InvalidArgument error whose detail lists every FieldError.
func validateRequest(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	fields := make([]FieldError, len(verrs))
	items := make([]any, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fieldPath(fe), Error: fe.Translate(translator)}
		items[i] = map[string]any{"field": fields[i].Field, "error": fields[i].Error}
	}

	connectErr := connect.NewError(connect.CodeInvalidArgument, errInvalidRequest)
	if detailMsg, err := structpb.NewStruct(map[string]any{"fields": items}); err == nil {
		if detail, err := connect.NewErrorDetail(detailMsg); err == nil {
			connectErr.AddDetail(detail)
		}
	}
	return connectErr
}

// fieldPath drops the request type from the namespace, e.g. "records[0].member_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// FieldErrors extracts the field errors attached by request validation.
func FieldErrors(err error) []FieldError {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return nil
	}
	var fields []FieldError
	for _, detail := range connectErr.Details() {
		value, err := detail.Value()
		if err != nil {
			continue
		}
		s, ok := value.(*structpb.Struct)
		if !ok {
			continue
		}
		for _, item := range s.GetFields()["fields"].GetListValue().GetValues() {
			f := item.GetStructValue().GetFields()
			fields = append(fields, FieldError{
				Field: f["field"].GetStringValue(),
				Error: f["error"].GetStringValue(),
			})
		}
	}
	return fields
}
