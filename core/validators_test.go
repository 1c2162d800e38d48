package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	InitValidators(validate, translator)
	return validate, translator
}

func TestInitValidators(t *testing.T) {
	validate, translator := newValidator()

	type form struct {
		Name   string         `json:"name" validate:"notblank"`
		Class  string         `json:"class" validate:"required"`
		Rating string         `json:"rating" validate:"rating"`
		Scores map[string]int `json:"scores" validate:"dive,score"`
		Hidden string         `json:"-"`
	}

	tests := []struct {
		name string
		form form
		want map[string]string
	}{
		{
			name: "valid",
			form: form{Name: "Ahmad", Class: "X-A", Rating: "-", Scores: map[string]int{"a": 0, "b": 100}},
		},
		{
			name: "blank and missing",
			form: form{Name: "   ", Rating: "AA"},
			want: map[string]string{"name": "this field cannot be blank", "class": "this field is required"},
		},
		{
			name: "rating",
			form: form{Name: "Ahmad", Class: "X-A", Rating: "A"},
			want: map[string]string{"rating": "must be one of: -, AA, BB, CC"},
		},
		{
			name: "score",
			form: form{Name: "Ahmad", Class: "X-A", Rating: "CC", Scores: map[string]int{"a": 101}},
			want: map[string]string{"scores[a]": "must be a number between 0 and 100"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "got %v", err)
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(nil, FieldError{Field: "email", Error: "invalid"}, FieldError{Field: "class", Error: "unknown"})
	assert.Equal(t, "email: invalid", err.Error())

	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"email": "invalid", "class": "unknown"}, vErr.FieldMap())

	assert.True(t, IsShutdown(NewShutdownError("bye")))
	assert.False(t, IsShutdown(err))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "", "b"}, Lines("a\r\n\r\nb\r\n"))
	assert.Equal(t, []string{}, Lines(""))
	assert.Equal(t, "lol", CleanString("  LoL \t", true))
}
