package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/model"
)

// RequestValidator 请求结构校验
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator 创建请求校验器
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// PlanningRequest 校验排程请求；日期先后与工作时段由排程引擎检查
func (v *RequestValidator) PlanningRequest(req model.PlanningRequest) error {
	return v.check(req)
}

// RouteRequest 校验路线请求；途经点数量上限由优化器检查
func (v *RequestValidator) RouteRequest(req model.RouteRequest) error {
	return v.check(req)
}

func (v *RequestValidator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "请求无法校验")
	}

	ve := &apperrors.ValidationErrors{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Namespace(), describe(fe))
	}
	return ve.ToAppError()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "oneof":
		return fmt.Sprintf("必须是 [%s] 之一", fe.Param())
	case "datetime":
		return fmt.Sprintf("格式必须为 %s", fe.Param())
	case "gte":
		return fmt.Sprintf("不能小于 %s", fe.Param())
	case "lte":
		return fmt.Sprintf("不能大于 %s", fe.Param())
	default:
		return fmt.Sprintf("不满足规则 %s", fe.Tag())
	}
}
