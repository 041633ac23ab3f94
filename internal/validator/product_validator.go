package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalog/internal/domain/model"
	"catalog/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ボディが読めなかったときのキー（フィールドに紐づかないエラー）
const FormErrorKey = "form"

// 価格の列は numeric(12,2)
const (
	priceScale = 2
	tagScale   = "scale"
	tagRange   = "range"
)

// 上限（これ未満）
var priceLimit = decimal.New(1, 10)

// 管理画面から送られてくる商品フォーム
type ProductForm struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"max=2000"`
	Price       *decimal.Decimal `json:"price" validate:"required,gt=0"`
	Category    string           `json:"category" validate:"required,max=100"`
}

type ProductValidator struct {
	v *validator.Validate
}

// DI
func NewProductValidator() *ProductValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーのキーは json 名にそろえる
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// decimal は float として gt などを評価させる
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterStructValidation(priceStructLevel, ProductForm{})

	return &ProductValidator{v: v}
}

// フォームを候補に変換して検証する。id が0なら新規。
// 検証に落ちても候補は返す（編集画面に戻すため）。
func (pv *ProductValidator) Validate(id int64, f ProductForm) (model.Product, usecase.ValidationResult) {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Category = strings.TrimSpace(f.Category)

	candidate := model.Product{
		ID:          id,
		Name:        f.Name,
		Description: f.Description,
		Category:    f.Category,
	}
	if f.Price != nil {
		candidate.Price = *f.Price
	}

	result := usecase.ValidationResult{}
	err := pv.v.Struct(f)
	if err == nil {
		return candidate, result
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		result[FormErrorKey] = err.Error()
		return candidate, result
	}
	for _, fe := range verrs {
		// 1フィールド1メッセージ（最初のものだけ）
		if _, dup := result[fe.Field()]; dup {
			continue
		}
		result[fe.Field()] = message(fe, f.Price != nil)
	}
	return candidate, result
}

// 保存先に入りきらない価格を弾く（丸めやあふれを起こさない）
func priceStructLevel(sl validator.StructLevel) {
	f := sl.Current().Interface().(ProductForm)
	if f.Price == nil || !f.Price.IsPositive() {
		return
	}
	if !f.Price.Equal(f.Price.Truncate(priceScale)) {
		sl.ReportError(f.Price, "price", "Price", tagScale, fmt.Sprint(priceScale))
		return
	}
	if f.Price.GreaterThanOrEqual(priceLimit) {
		sl.ReportError(f.Price, "price", "Price", tagRange, priceLimit.String())
	}
}

// ボディが壊れていたときの結果
func MalformedForm() usecase.ValidationResult {
	return usecase.ValidationResult{FormErrorKey: "The submitted form could not be read"}
}

func message(fe validator.FieldError, hasPrice bool) string {
	switch fe.Field() {
	case "name":
		if fe.Tag() == "max" {
			return fmt.Sprintf("Product name must be at most %s characters", fe.Param())
		}
		return "Please enter a product name"
	case "description":
		return fmt.Sprintf("Description must be at most %s characters", fe.Param())
	case "price":
		// 0 は required で落ちるので値の有無で分ける
		if !hasPrice {
			return "Please enter a price"
		}
		switch fe.Tag() {
		case tagScale:
			return fmt.Sprintf("Price must have at most %s decimal places", fe.Param())
		case tagRange:
			return fmt.Sprintf("Price must be less than %s", fe.Param())
		}
		return "Please enter a positive price"
	case "category":
		if fe.Tag() == "max" {
			return fmt.Sprintf("Category must be at most %s characters", fe.Param())
		}
		return "Please enter a category"
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}
