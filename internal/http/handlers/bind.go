package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON, BindForm and BindURI write a 400 and return false when the input
// does not bind or validate. Field values are never echoed back, so a
// rejected password cannot leak through the error body.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	return bindWith(ctx, ctx.ShouldBindJSON(out), out, "json")
}

func BindForm(ctx *gin.Context, out interface{}) bool {
	return bindWith(ctx, ctx.ShouldBind(out), out, "form")
}

func BindURI(ctx *gin.Context, out interface{}) bool {
	return bindWith(ctx, ctx.ShouldBindUri(out), out, "uri")
}

func bindWith(ctx *gin.Context, err error, out interface{}, tagKey string) bool {
	if err != nil {
		RespondBadRequest(ctx, "Invalid request", parseBindError(err, out, tagKey))
		return false
	}
	return true
}

func parseBindError(err error, out interface{}, tagKey string) interface{} {
	rootType := baseStructType(out)

	var validationErrors validator.ValidationErrors

	if errors.As(err, &validationErrors) {
		fields := make([]FieldError, 0, len(validationErrors))

		for _, fe := range validationErrors {
			fields = append(fields, FieldError{
				Field:   fieldName(rootType, fe.StructField(), tagKey),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeError *json.UnmarshalTypeError

	if errors.As(err, &typeError) {
		field := strings.TrimSpace(typeError.Field)

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", typeError.Type.String()),
				},
			},
		}
	}

	// the raw error may quote user input, so only a generic reason is returned
	return gin.H{"reason": "malformed_input"}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// fieldName maps a Go field name to the name the client sent, using the tag for the binding source.
func fieldName(rootType reflect.Type, structField, tagKey string) string {
	if rootType == nil {
		return structField
	}

	sf, ok := rootType.FieldByName(structField)
	if !ok {
		return structField
	}

	name, _, _ := strings.Cut(sf.Tag.Get(tagKey), ",")
	if name == "" || name == "-" {
		return structField
	}

	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "gt":
		return "must be greater than " + param
	case "lt":
		return "must be less than " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
