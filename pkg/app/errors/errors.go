// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError is used when a dependency answered successfully.
	CategoryNoError Category = iota
	// CategoryDataError The request sent to a dependency carried invalid data,
	// for example a malformed date range filter.
	CategoryDataError
	// CategoryUnauthorized The access token was rejected
	CategoryUnauthorized
	// CategoryForbidden The access token is valid but lacks permission for the resource
	CategoryForbidden
	// CategoryResourceNotFound The requested resource or endpoint does not exist
	CategoryResourceNotFound
	// CategoryDependencyFailure A dependent service is throwing errors
	CategoryDependencyFailure
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
	// CategoryRecovering The dependency is throttling or failing but is expected to recover
	CategoryRecovering
	// CategoryConnectionTimeout Connection to a dependent service timing out
	CategoryConnectionTimeout
)

func (c Category) String() string {
	switch c {
	case CategoryNoError:
		return "CategoryNoError"
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryForbidden:
		return "CategoryForbidden"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	case CategoryRecovering:
		return "CategoryRecovering"
	case CategoryConnectionTimeout:
		return "CategoryConnectionTimeout"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError represents a categorized failure of a call to an external dependency.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Message + ": " + err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// CategoryOf returns the category of the first ServiceError in the chain,
// or CategoryGeneralError when there is none.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryNoError
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Category
	}
	return CategoryGeneralError
}

// FromHTTPStatus maps a response status code onto a Category.
func FromHTTPStatus(code int) Category {
	switch {
	case code >= 200 && code < 300:
		return CategoryNoError
	case code == http.StatusUnauthorized:
		return CategoryUnauthorized
	case code == http.StatusForbidden:
		return CategoryForbidden
	case code == http.StatusNotFound:
		return CategoryResourceNotFound
	case code == http.StatusTooManyRequests, code == http.StatusServiceUnavailable:
		return CategoryRecovering
	case code == http.StatusGatewayTimeout, code == http.StatusRequestTimeout:
		return CategoryConnectionTimeout
	case code >= 400 && code < 500:
		return CategoryDataError
	case code >= 500:
		return CategoryDependencyFailure
	default:
		return CategoryGeneralError
	}
}

// DependencyError returns an error with a category derived from the HTTP status
// the dependency answered with. The message is kept for logs.
func DependencyError(err error, status int, message string) error {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	return &ServiceError{
		Category: FromHTTPStatus(status),
		Message:  message,
		Err:      err,
	}
}

// NetworkError returns an error with category CategoryConnectionTimeout
// for failures that never produced a response.
func NetworkError(err error, message string) error {
	return &ServiceError{
		Category: CategoryConnectionTimeout,
		Message:  message,
		Err:      err,
	}
}

// StatusCode maps the category onto the HTTP status served to API callers.
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryDataError:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategoryDependencyFailure:
		return http.StatusBadGateway
	case CategoryRecovering:
		return http.StatusServiceUnavailable
	case CategoryConnectionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// BadRequestError returns an error with category CategoryDataError
func BadRequestError(err error, message string) error {
	return &ServiceError{
		Category: CategoryDataError,
		Message:  message,
		Err:      err,
	}
}

// GeneralError returns an error with category CategoryGeneralError
func GeneralError(err error, message string) error {
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  message,
		Err:      err,
	}
}
