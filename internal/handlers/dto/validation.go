package dto

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

var genderPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z _-]{0,9}$`)

// RegisterValidators registra as validações customizadas no validator do gin
// e faz os erros usarem o nome JSON do campo
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})

	if err := v.RegisterValidation("role_name", func(fl validator.FieldLevel) bool {
		return valueobjects.IsValidRoleName(fl.Field().String())
	}); err != nil {
		return err
	}

	return v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return genderPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
}

// ValidationErrors converte erros do validator em erros de campo traduzidos.
// Retorna nil se err não vier do validator (JSON malformado, por exemplo).
func ValidationErrors(c *gin.Context, err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	result := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		key := "validation." + fe.Tag()
		message := T(c, key, map[string]interface{}{"Param": fe.Param()})
		if message == key {
			message = T(c, "validation.invalid")
		}
		result = append(result, ValidationError{
			Field:   fieldPath(fe),
			Message: message,
			Tag:     fe.Tag(),
		})
	}
	return result
}

// fieldPath remove o nome da struct raiz: "RegisterRequest.roles[0]" vira "roles[0]"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx != -1 {
		return ns[idx+1:]
	}
	return fe.Field()
}
