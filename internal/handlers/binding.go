package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const msgMalformedBody = "Request body is malformed."

// bindingMessages turns a ShouldBindJSON error into client facing messages,
// one per failed field.
func bindingMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{msgMalformedBody}
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' must not be empty.", fe.Field())
	case "email":
		return fmt.Sprintf("'%s' is not a valid email address.", fe.Field())
	case "max":
		return fmt.Sprintf("'%s' must be %s characters or fewer.", fe.Field(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("'%s' may only contain letters and digits.", fe.Field())
	default:
		return fmt.Sprintf("'%s' is not valid.", fe.Field())
	}
}
