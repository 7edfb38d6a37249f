package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// MessageParams is the body for posting a message to a conversation.
type MessageParams struct {
	Content string `json:"content" validate:"required"`
}

// ConversationParams is the body for creating a conversation.
type ConversationParams struct {
	Title string `json:"title"`
}

// CitationParams optionally selects a citation style.
type CitationParams struct {
	Style string `json:"style,omitempty" validate:"omitempty,oneof=apa mla chicago harvard"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *MessageParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *ConversationParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *CitationParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(v any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(v); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
