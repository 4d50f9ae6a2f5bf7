package service

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestMustRegister(t *testing.T) {
	always := func(validator.FieldLevel) bool { return true }

	assert.NotPanics(t, func() { mustRegister(validator.New(), "visa_type", always) })
	assert.Panics(t, func() { mustRegister(validator.New(), "", always) })
}

func TestValidateStruct_EnumTags(t *testing.T) {
	type enumInput struct {
		VisaType string `json:"visa_type" validate:"visa_type"`
		Status   string `json:"status" validate:"application_status"`
		DocType  string `json:"document_type" validate:"document_type"`
	}

	assert.NoError(t, validateStruct(enumInput{VisaType: "tourist", Status: "draft", DocType: "passport"}).OrNil())

	verr := validateStruct(enumInput{VisaType: "space", Status: "lost", DocType: "napkin"})
	assert.Equal(t, []string{"Invalid visa type selected."}, verr.Fields["visa_type"])
	assert.Equal(t, []string{"Invalid status selected."}, verr.Fields["status"])
	assert.Equal(t, []string{"Invalid document type selected."}, verr.Fields["document_type"])
}
